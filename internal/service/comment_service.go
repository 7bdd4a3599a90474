package service

import (
	"context"
	"strings"

	"quill/internal/markup"
	"quill/internal/models"
	"quill/internal/repository"
)

// CommentService implements commenting and moderation on posts.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

// NewCommentService wires the comment service.
func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// Create attaches a comment to a post.
func (s *CommentService) Create(ctx context.Context, author *models.User, postID uint, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, models.NewValidationError("Comment body cannot be empty")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Body:     body,
		BodyHTML: markup.Render(body),
		AuthorID: author.ID,
		Author:   author,
		PostID:   post.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetByID returns a single comment.
func (s *CommentService) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.commentRepo.GetByID(ctx, id)
}

// SetDisabled hides or restores a comment. Callers must hold the
// moderation permission, enforced at the route boundary.
func (s *CommentService) SetDisabled(ctx context.Context, commentID uint, disabled bool) (*models.Comment, error) {
	if err := s.commentRepo.SetDisabled(ctx, commentID, disabled); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, commentID)
}

// List returns all comments oldest first, for moderation views.
func (s *CommentService) List(ctx context.Context, limit, offset int) ([]models.Comment, int64, error) {
	return s.commentRepo.List(ctx, limit, offset)
}

// ListByPost returns a post's comments oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, int64, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, 0, err
	}
	return s.commentRepo.ListByPost(ctx, post.ID, limit, offset)
}
