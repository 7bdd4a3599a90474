// Package server contains the HTTP handlers for the application's API
// endpoints.
package server

import (
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/v1/users
func (s *Server) Register(c *fiber.Ctx) error {
	ctx := c.Context()

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	profile, err := s.serializeUser(ctx, user)
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Location(c.BaseURL() + "/api/v1/users/" + user.Username)
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// GetToken handles GET /api/v1/token. Tokens are only minted for callers
// holding real credentials; a token cannot be traded for a fresh token.
func (s *Server) GetToken(c *fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return nil
	}
	if used, _ := c.Locals(localTokenUsed).(bool); used {
		return s.unauthorized(c, "Invalid credentials")
	}

	tok, err := s.userService.IssueAuthToken(user)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"token":      tok,
		"expiration": s.config.AuthTokenTTL() * 3600,
	})
}

// ConfirmAccount handles POST /api/v1/auth/confirm
func (s *Server) ConfirmAccount(c *fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Token is required"))
	}

	if !s.userService.Confirm(c.Context(), user, req.Token) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid or expired confirmation token"))
	}

	return c.JSON(fiber.Map{"message": "Account confirmed"})
}

// ResendConfirmation handles POST /api/v1/auth/resend-confirmation
func (s *Server) ResendConfirmation(c *fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return nil
	}

	if err := s.userService.ResendConfirmation(c.Context(), user); err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Confirmation email sent",
	})
}

// RequestEmailChange handles POST /api/v1/auth/change-email
func (s *Server) RequestEmailChange(c *fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		NewEmail string `json:"new_email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.userService.RequestEmailChange(c.Context(), user, req.NewEmail, req.Password); err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Confirmation sent to the new address",
	})
}

// ConfirmEmailChange handles POST /api/v1/auth/change-email/confirm
func (s *Server) ConfirmEmailChange(c *fiber.Ctx) error {
	user, err := s.requireUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Token is required"))
	}

	if !s.userService.ConfirmEmailChange(c.Context(), user, req.Token) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid or expired token"))
	}

	return c.JSON(fiber.Map{"message": "Email address updated"})
}

// RequestPasswordReset handles POST /api/v1/auth/reset-password. The
// response is 202 whether or not the address belongs to an account.
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required"))
	}

	_ = s.userService.RequestPasswordReset(c.Context(), req.Email)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "If the address belongs to an account, a reset email is on its way",
	})
}

// ConfirmPasswordReset handles POST /api/v1/auth/reset-password/confirm.
// The account is resolved from the token, not from credentials.
func (s *Server) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Token and password are required"))
	}

	if !s.userService.ConfirmPasswordReset(c.Context(), req.Token, req.Password) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid or expired reset token"))
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}
