package service

import (
	"context"
	"strings"

	"quill/internal/markup"
	"quill/internal/models"
	"quill/internal/repository"
)

// PostService implements the article lifecycle. Markdown is rendered to
// sanitized HTML on every write so stored HTML is always derived from the
// current body.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

// NewPostService wires the post service.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo}
}

// Create publishes a post authored by the given identity.
func (s *PostService) Create(ctx context.Context, author *models.User, body string) (*models.Post, error) {
	if strings.TrimSpace(body) == "" {
		return nil, models.NewValidationError("Post body cannot be empty")
	}

	post := &models.Post{
		Body:     body,
		BodyHTML: markup.Render(body),
		AuthorID: author.ID,
		Author:   author,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetByID returns a single post.
func (s *PostService) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// Update replaces the body of a post. Only the author or an administrator
// may edit.
func (s *PostService) Update(ctx context.Context, identity models.Identity, postID uint, body string) (*models.Post, error) {
	if strings.TrimSpace(body) == "" {
		return nil, models.NewValidationError("Post body cannot be empty")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !canManagePost(identity, post) {
		return nil, models.NewForbiddenError("Insufficient permissions")
	}

	post.Body = body
	post.BodyHTML = markup.Render(body)
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes a post and its comments. Only the author or an
// administrator may delete.
func (s *PostService) Delete(ctx context.Context, identity models.Identity, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !canManagePost(identity, post) {
		return models.NewForbiddenError("Insufficient permissions")
	}
	return s.postRepo.Delete(ctx, postID)
}

// List returns posts newest first with the total count.
func (s *PostService) List(ctx context.Context, limit, offset int) ([]models.Post, int64, error) {
	return s.postRepo.List(ctx, limit, offset)
}

// ListByUsername returns the named user's posts newest first.
func (s *PostService) ListByUsername(ctx context.Context, username string, limit, offset int) ([]models.Post, int64, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	if user == nil {
		return nil, 0, models.NewNotFoundError("User", username)
	}
	return s.postRepo.ListByAuthor(ctx, user.ID, limit, offset)
}

// Timeline returns posts by everyone the user follows, newest first. The
// self edge created at registration puts the user's own posts in their
// timeline.
func (s *PostService) Timeline(ctx context.Context, userID uint, limit, offset int) ([]models.Post, int64, error) {
	return s.postRepo.Timeline(ctx, userID, limit, offset)
}

func canManagePost(identity models.Identity, post *models.Post) bool {
	if identity.IsAnonymous() {
		return false
	}
	if identity.IsAdministrator() {
		return true
	}
	return identity.User().ID == post.AuthorID
}
