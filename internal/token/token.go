// Package token mints and verifies the signed, time-limited tokens used for
// account confirmation, email changes, password resets and API bearer
// authentication.
//
// Action tokens and auth tokens live in separate namespaces (distinct
// audiences), so a confirmation link can never authenticate an API request
// and a bearer token can never confirm an account. Within the action
// namespace, purposes are pairwise non-confusable: the purpose claim must
// match and the payload shape must match too — change-email tokens carry the
// new address, every other purpose must not.
//
// Verification failures of any kind (expired, malformed, bad signature,
// wrong purpose, wrong shape) collapse to a boolean false. Callers treat all
// failures identically.
package token

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose names the single action an action token authorizes.
type Purpose string

const (
	// PurposeConfirm confirms a freshly registered account.
	PurposeConfirm Purpose = "confirm"
	// PurposeChangeEmail swaps the account email for the address in the token.
	PurposeChangeEmail Purpose = "change_email"
	// PurposeResetPassword authorizes an unauthenticated password overwrite.
	PurposeResetPassword Purpose = "reset_password"
)

const (
	issuer         = "quill-api"
	actionAudience = "quill-action"
	authAudience   = "quill-client"
)

// Manager signs and verifies tokens with a single HMAC secret.
type Manager struct {
	secret []byte
}

// NewManager returns a Manager signing with the given secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// ActionClaims is what a verified action token carries.
type ActionClaims struct {
	UserID   uint
	Purpose  Purpose
	NewEmail string
}

// GenerateConfirmToken mints a token that confirms the user's account.
func (m *Manager) GenerateConfirmToken(userID uint, ttl time.Duration) (string, error) {
	return m.signAction(userID, PurposeConfirm, "", ttl)
}

// GenerateChangeEmailToken mints a token binding the user to the new address.
func (m *Manager) GenerateChangeEmailToken(userID uint, newEmail string, ttl time.Duration) (string, error) {
	if newEmail == "" {
		return "", fmt.Errorf("change-email token requires a new email")
	}
	return m.signAction(userID, PurposeChangeEmail, newEmail, ttl)
}

// GenerateResetToken mints a token authorizing a password reset.
func (m *Manager) GenerateResetToken(userID uint, ttl time.Duration) (string, error) {
	return m.signAction(userID, PurposeResetPassword, "", ttl)
}

func (m *Manager) signAction(userID uint, purpose Purpose, newEmail string, ttl time.Duration) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("token secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     strconv.FormatUint(uint64(userID), 10),
		"iss":     issuer,
		"aud":     actionAudience,
		"purpose": string(purpose),
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
		"jti":     uuid.NewString(),
	}
	if purpose == PurposeChangeEmail {
		claims["new_email"] = newEmail
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// VerifyActionToken validates the token against the expected purpose and
// returns its claims. ok is false on any failure.
func (m *Manager) VerifyActionToken(tokenString string, purpose Purpose) (ActionClaims, bool) {
	claims, ok := m.parse(tokenString, actionAudience)
	if !ok {
		return ActionClaims{}, false
	}

	gotPurpose, ok := claims["purpose"].(string)
	if !ok || Purpose(gotPurpose) != purpose {
		return ActionClaims{}, false
	}

	newEmail, hasNewEmail := claims["new_email"].(string)
	// Shape check: the address is mandatory for change-email tokens and
	// forbidden for every other purpose.
	if purpose == PurposeChangeEmail {
		if !hasNewEmail || newEmail == "" {
			return ActionClaims{}, false
		}
	} else if hasNewEmail {
		return ActionClaims{}, false
	}

	userID, ok := subjectID(claims)
	if !ok {
		return ActionClaims{}, false
	}

	return ActionClaims{UserID: userID, Purpose: purpose, NewEmail: newEmail}, true
}

// GenerateAuthToken mints a stateless bearer credential for the API boundary.
func (m *Manager) GenerateAuthToken(userID uint, ttl time.Duration) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("token secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": issuer,
		"aud": authAudience,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// VerifyAuthToken resolves the user id from a bearer token. ok is false on
// any failure, including action tokens presented as bearer credentials.
func (m *Manager) VerifyAuthToken(tokenString string) (uint, bool) {
	claims, ok := m.parse(tokenString, authAudience)
	if !ok {
		return 0, false
	}
	if _, isAction := claims["purpose"]; isAction {
		return 0, false
	}
	return subjectID(claims)
}

func (m *Manager) parse(tokenString, audience string) (jwt.MapClaims, bool) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, false
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	return claims, true
}

func subjectID(claims jwt.MapClaims) (uint, bool) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
