// Package server contains the HTTP handlers for the application's API
// endpoints.
package server

import (
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/v1/users/:username
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	ctx := c.Context()

	user, err := s.userService.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}

	profile, err := s.serializeUser(ctx, user)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// GetMyProfile handles GET /api/v1/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return nil
	}

	profile, err := s.serializeUser(c.Context(), user)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/v1/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		Name     string `json:"name"`
		Location string `json:"location"`
		AboutMe  string `json:"about_me"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	updated, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:   user.ID,
		Name:     req.Name,
		Location: req.Location,
		AboutMe:  req.AboutMe,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	profile, err := s.serializeUser(c.Context(), updated)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// DeleteMyAccount handles DELETE /api/v1/users/me
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return nil
	}

	if err := s.userService.DeleteAccount(c.Context(), user.ID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUserPosts handles GET /api/v1/users/:username/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	page := s.parsePagination(c)

	posts, total, err := s.postService.ListByUsername(ctx, c.Params("username"), page.PerPage, page.Offset())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(envelope(c, "posts", serializePosts(posts), page, total))
}

// GetUserTimeline handles GET /api/v1/users/:username/timeline. The timeline
// is posts by everyone the user follows, which includes the user themselves.
func (s *Server) GetUserTimeline(c *fiber.Ctx) error {
	ctx := c.Context()
	page := s.parsePagination(c)

	user, err := s.userService.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}

	posts, total, err := s.postService.Timeline(ctx, user.ID, page.PerPage, page.Offset())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(envelope(c, "posts", serializePosts(posts), page, total))
}

// GetUserFollowers handles GET /api/v1/users/:username/followers
func (s *Server) GetUserFollowers(c *fiber.Ctx) error {
	ctx := c.Context()
	page := s.parsePagination(c)

	users, total, err := s.followService.Followers(ctx, c.Params("username"), page.PerPage, page.Offset())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(envelope(c, "users", serializeUserSummaries(users), page, total))
}

// GetUserFollowing handles GET /api/v1/users/:username/following
func (s *Server) GetUserFollowing(c *fiber.Ctx) error {
	ctx := c.Context()
	page := s.parsePagination(c)

	users, total, err := s.followService.Following(ctx, c.Params("username"), page.PerPage, page.Offset())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(envelope(c, "users", serializeUserSummaries(users), page, total))
}

// GetUserComments handles GET /api/v1/users/:username/comments
func (s *Server) GetUserComments(c *fiber.Ctx) error {
	ctx := c.Context()
	page := s.parsePagination(c)

	user, err := s.userService.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}

	comments, total, err := s.commentRepo.ListByAuthor(ctx, user.ID, page.PerPage, page.Offset())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(envelope(c, "comments", serializeComments(comments), page, total))
}

// FollowUser handles POST /api/v1/users/:username/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return nil
	}

	if err := s.followService.Follow(c.Context(), user, c.Params("username")); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Now following " + c.Params("username")})
}

// UnfollowUser handles DELETE /api/v1/users/:username/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return nil
	}

	if err := s.followService.Unfollow(c.Context(), user, c.Params("username")); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "No longer following " + c.Params("username")})
}
