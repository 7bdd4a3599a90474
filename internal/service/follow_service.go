package service

import (
	"context"

	"quill/internal/models"
	"quill/internal/repository"
)

// FollowService manages the follow graph between users.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService wires the follow service.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

func (s *FollowService) resolveTarget(ctx context.Context, username string) (*models.User, error) {
	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return target, nil
}

// Follow creates a follow edge from follower to the named user. Following
// yourself through the API is rejected; repeating an existing follow is a
// no-op.
func (s *FollowService) Follow(ctx context.Context, follower *models.User, username string) error {
	target, err := s.resolveTarget(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == follower.ID {
		return models.NewValidationError("Cannot follow yourself")
	}
	return s.followRepo.Follow(ctx, follower.ID, target.ID)
}

// Unfollow removes the edge if present. Removing an absent edge is a
// no-op; the self edge cannot be removed this way.
func (s *FollowService) Unfollow(ctx context.Context, follower *models.User, username string) error {
	target, err := s.resolveTarget(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == follower.ID {
		return models.NewValidationError("Cannot unfollow yourself")
	}
	return s.followRepo.Unfollow(ctx, follower.ID, target.ID)
}

// IsFollowing reports whether follower follows the named user.
func (s *FollowService) IsFollowing(ctx context.Context, follower *models.User, username string) (bool, error) {
	target, err := s.resolveTarget(ctx, username)
	if err != nil {
		return false, err
	}
	if target.ID == follower.ID {
		return false, nil
	}
	return s.followRepo.IsFollowing(ctx, follower.ID, target.ID)
}

// Followers lists the named user's followers, oldest edge first.
func (s *FollowService) Followers(ctx context.Context, username string, limit, offset int) ([]models.User, int64, error) {
	target, err := s.resolveTarget(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	return s.followRepo.Followers(ctx, target.ID, limit, offset)
}

// Following lists who the named user follows, oldest edge first.
func (s *FollowService) Following(ctx context.Context, username string, limit, offset int) ([]models.User, int64, error) {
	target, err := s.resolveTarget(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	return s.followRepo.Following(ctx, target.ID, limit, offset)
}
