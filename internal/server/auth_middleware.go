// Package server contains the HTTP handlers for the application's API
// endpoints.
package server

import (
	"context"
	"encoding/base64"
	"strings"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/observability"

	"github.com/gofiber/fiber/v2"
)

const (
	localIdentity  = "identity"
	localTokenUsed = "tokenUsed"
)

// APIAuth resolves the caller's identity from HTTP Basic credentials and
// stores it request-scoped in Locals. Three credential shapes are accepted:
//
//   - empty identifier: the anonymous identity;
//   - identifier with empty password: the identifier is a bearer auth token;
//   - identifier and password: email and password.
//
// Credentials that are present but wrong produce a generic 401 regardless of
// whether the account exists. Authenticated-but-unconfirmed accounts are
// rejected before any route logic, except on the account lifecycle routes
// they need to become confirmed.
func (s *Server) APIAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, password, ok := basicCredentials(c)
		if !ok {
			observability.AuthFailures.WithLabelValues("malformed").Inc()
			return s.unauthorized(c, "Invalid credentials")
		}

		if id == "" {
			c.Locals(localIdentity, models.AnonymousIdentity{})
			return c.Next()
		}

		var user *models.User
		if password == "" {
			userID, valid := s.tokens.VerifyAuthToken(id)
			if !valid {
				observability.AuthFailures.WithLabelValues("bad_token").Inc()
				return s.unauthorized(c, "Invalid credentials")
			}
			u, err := s.userRepo.GetByID(c.Context(), userID)
			if err != nil || u == nil {
				observability.AuthFailures.WithLabelValues("bad_token").Inc()
				return s.unauthorized(c, "Invalid credentials")
			}
			user = u
			c.Locals(localTokenUsed, true)
		} else {
			// Credential checks go through the uncached lookup, which is the
			// only read that materializes the password hash.
			u, err := s.userRepo.GetByEmail(c.Context(), strings.ToLower(id))
			if err != nil || u == nil || !u.CheckPassword(password) {
				observability.AuthFailures.WithLabelValues("bad_credentials").Inc()
				return s.unauthorized(c, "Invalid credentials")
			}
			user = u
		}

		if !user.Confirmed && !isAccountLifecyclePath(c.Path()) {
			observability.AuthFailures.WithLabelValues("unconfirmed").Inc()
			return s.unauthorized(c, "Unconfirmed account")
		}

		c.Locals(localIdentity, models.NewAuthenticatedIdentity(user))
		c.Locals("userID", user.ID)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
		c.SetUserContext(ctx)

		// Activity ping; failures must not fail the request.
		if err := s.userRepo.Ping(c.Context(), user.ID); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "last_seen update failed",
				"error", err.Error())
		}

		return c.Next()
	}
}

// PermissionRequired rejects identities missing the permission with 403.
// Must run after APIAuth.
func (s *Server) PermissionRequired(p models.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.identity(c).Can(p) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Insufficient permissions"))
		}
		return c.Next()
	}
}

// identity returns the request identity resolved by APIAuth, falling back to
// anonymous so handlers never see a nil identity.
func (s *Server) identity(c *fiber.Ctx) models.Identity {
	if ident, ok := c.Locals(localIdentity).(models.Identity); ok {
		return ident
	}
	return models.AnonymousIdentity{}
}

// requireUser returns the authenticated user, or writes a 403 and returns
// errResponseWritten for anonymous callers.
func (s *Server) requireUser(c *fiber.Ctx) (*models.User, error) {
	ident := s.identity(c)
	if ident.IsAnonymous() {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Authentication required"))
		return nil, errResponseWritten
	}
	return ident.User(), nil
}

func (s *Server) unauthorized(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="Authentication Required"`)
	return models.RespondWithError(c, fiber.StatusUnauthorized,
		models.NewUnauthorizedError(msg))
}

// basicCredentials parses the Authorization header. A missing header counts
// as empty credentials; a present but unparseable one does not.
func basicCredentials(c *fiber.Ctx) (id, password string, ok bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", "", true
	}

	scheme, encoded, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		return "", "", false
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}

	id, password, _ = strings.Cut(string(raw), ":")
	return id, password, true
}

// isAccountLifecyclePath reports whether the route must stay reachable for
// unconfirmed accounts: confirmation itself, resending the confirmation
// email, and the unauthenticated recovery flows.
func isAccountLifecyclePath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/auth/")
}
