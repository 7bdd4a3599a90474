// Package server contains the HTTP handlers for the application's API
// endpoints.
package server

import (
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPostComments handles GET /api/v1/posts/:id/comments
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := s.parsePagination(c)

	comments, total, err := s.commentService.ListByPost(ctx, id, page.PerPage, page.Offset())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(envelope(c, "comments", serializeComments(comments), page, total))
}

// CreateComment handles POST /api/v1/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.Context()
	user, err := s.requireUser(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.Create(ctx, user, id, req.Body)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(serializeComment(comment))
}

// GetComments handles GET /api/v1/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	ctx := c.Context()
	page := s.parsePagination(c)

	comments, total, err := s.commentService.List(ctx, page.PerPage, page.Offset())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(envelope(c, "comments", serializeComments(comments), page, total))
}

// GetComment handles GET /api/v1/comments/:id
func (s *Server) GetComment(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.GetByID(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(serializeComment(comment))
}

// ModerateComment handles PATCH /api/v1/comments/:id/moderate
func (s *Server) ModerateComment(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Disabled *bool `json:"disabled"`
	}
	if err := c.BodyParser(&req); err != nil || req.Disabled == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Field 'disabled' is required"))
	}

	comment, err := s.commentService.SetDisabled(ctx, id, *req.Disabled)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(serializeComment(comment))
}
