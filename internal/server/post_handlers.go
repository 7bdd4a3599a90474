// Package server contains the HTTP handlers for the application's API
// endpoints.
package server

import (
	"fmt"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/v1/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	page := s.parsePagination(c)

	posts, total, err := s.postService.List(ctx, page.PerPage, page.Offset())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(envelope(c, "posts", serializePosts(posts), page, total))
}

// GetPost handles GET /api/v1/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetByID(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(serializePost(post))
}

// CreatePost handles POST /api/v1/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	user, err := s.requireUser(c)
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

	post, err := s.postService.Create(ctx, user, req.Body)
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Location(fmt.Sprintf("%s/api/v1/posts/%d", c.BaseURL(), post.ID))
	return c.Status(fiber.StatusCreated).JSON(serializePost(post))
}

// UpdatePost handles PUT /api/v1/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.Context()
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

	post, err := s.postService.Update(ctx, s.identity(c), id, req.Body)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(serializePost(post))
}

// DeletePost handles DELETE /api/v1/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(ctx, s.identity(c), id); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
