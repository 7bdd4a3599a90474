package service

import (
	"context"
	"strings"
	"time"

	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"
	"quill/internal/token"
	"quill/internal/validation"
)

// ConfirmationMailer is the slice of the mailer the user service needs.
type ConfirmationMailer interface {
	SendConfirmation(to, username, tok string)
	SendChangeEmail(to, username, tok string)
	SendPasswordReset(to, username, tok string)
}

// UserService implements registration, confirmation, credential and profile
// flows.
type UserService struct {
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	tokens     *token.Manager
	mail       ConfirmationMailer
	adminEmail string
	actionTTL  time.Duration
	authTTL    time.Duration
}

// NewUserService wires the user service.
func NewUserService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	tokens *token.Manager,
	mail ConfirmationMailer,
	adminEmail string,
	actionTTL, authTTL time.Duration,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		tokens:     tokens,
		mail:       mail,
		adminEmail: adminEmail,
		actionTTL:  actionTTL,
		authTTL:    authTTL,
	}
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput carries a profile edit.
type UpdateProfileInput struct {
	UserID   uint
	Name     string
	Location string
	AboutMe  string
}

// Register creates an account. The admin email gets the full-permission
// role, everyone else the default role. A confirmation email is dispatched
// fire-and-forget.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	email := strings.ToLower(in.Email)

	var role *models.Role
	var err error
	if s.adminEmail != "" && email == strings.ToLower(s.adminEmail) {
		role, err = s.roleRepo.GetAdministrator(ctx)
	} else {
		role, err = s.roleRepo.GetDefault(ctx)
	}
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:   in.Username,
		Email:      email,
		RoleID:     role.ID,
		Role:       role,
		AvatarHash: models.GravatarHash(email),
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.sendConfirmation(user)
	return user, nil
}

// ResendConfirmation mails a fresh confirmation token. No-op for already
// confirmed accounts.
func (s *UserService) ResendConfirmation(ctx context.Context, user *models.User) error {
	if user.Confirmed {
		return models.NewValidationError("Account is already confirmed")
	}
	s.sendConfirmation(user)
	return nil
}

func (s *UserService) sendConfirmation(user *models.User) {
	tok, err := s.tokens.GenerateConfirmToken(user.ID, s.actionTTL)
	if err != nil {
		return
	}
	observability.TokensIssued.WithLabelValues(string(token.PurposeConfirm)).Inc()
	s.mail.SendConfirmation(user.Email, user.Username, tok)
}

// Confirm flips the account to confirmed if the token is a valid
// confirm-purpose token for exactly this user. Any failure returns false
// with no side effect; confirmation is one-way.
func (s *UserService) Confirm(ctx context.Context, user *models.User, tok string) bool {
	claims, ok := s.tokens.VerifyActionToken(tok, token.PurposeConfirm)
	if !ok || claims.UserID != user.ID {
		return false
	}
	if user.Confirmed {
		return true
	}
	return s.userRepo.MarkConfirmed(ctx, user.ID) == nil
}

// RequestEmailChange re-authenticates with the password, then mails a
// change token to the new address. The email is not touched until the token
// comes back confirmed.
func (s *UserService) RequestEmailChange(ctx context.Context, user *models.User, newEmail, password string) error {
	// The caller's user may be a cached projection without the password
	// hash, so the credential check needs a direct read.
	stored, err := s.userRepo.GetByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if stored == nil || !stored.CheckPassword(password) {
		return models.NewUnauthorizedError("Invalid credentials")
	}
	if err := validation.ValidateEmail(newEmail); err != nil {
		return models.NewValidationError(err.Error())
	}

	newEmail = strings.ToLower(newEmail)
	existing, err := s.userRepo.GetByEmail(ctx, newEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewValidationError("Email already taken")
	}

	tok, err := s.tokens.GenerateChangeEmailToken(user.ID, newEmail, s.actionTTL)
	if err != nil {
		return models.NewInternalError(err)
	}
	observability.TokensIssued.WithLabelValues(string(token.PurposeChangeEmail)).Inc()
	s.mail.SendChangeEmail(newEmail, user.Username, tok)
	return nil
}

// ConfirmEmailChange applies the address carried by a valid change-email
// token bound to this user. The avatar hash follows the new address.
func (s *UserService) ConfirmEmailChange(ctx context.Context, user *models.User, tok string) bool {
	claims, ok := s.tokens.VerifyActionToken(tok, token.PurposeChangeEmail)
	if !ok || claims.UserID != user.ID {
		return false
	}
	newEmail := strings.ToLower(claims.NewEmail)
	return s.userRepo.UpdateEmail(ctx, user.ID, newEmail, models.GravatarHash(newEmail)) == nil
}

// RequestPasswordReset mails a reset token when the email belongs to an
// account. Unknown addresses are indistinguishable from known ones to the
// caller.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil || user == nil {
		return nil
	}

	tok, err := s.tokens.GenerateResetToken(user.ID, s.actionTTL)
	if err != nil {
		return nil
	}
	observability.TokensIssued.WithLabelValues(string(token.PurposeResetPassword)).Inc()
	s.mail.SendPasswordReset(user.Email, user.Username, tok)
	return nil
}

// ConfirmPasswordReset resolves the account from the token — reset is an
// unauthenticated flow — and overwrites the password. False on any token
// failure.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, tok, newPassword string) bool {
	claims, ok := s.tokens.VerifyActionToken(tok, token.PurposeResetPassword)
	if !ok {
		return false
	}
	if validation.ValidatePassword(newPassword) != nil {
		return false
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || user == nil {
		return false
	}

	fresh := models.User{}
	if fresh.SetPassword(newPassword) != nil {
		return false
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, fresh.PasswordHash) == nil
}

// IssueAuthToken mints a bearer credential for the API boundary.
func (s *UserService) IssueAuthToken(user *models.User) (string, error) {
	tok, err := s.tokens.GenerateAuthToken(user.ID, s.authTTL)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	observability.TokensIssued.WithLabelValues("auth").Inc()
	return tok, nil
}

// GetByUsername returns the user or a not-found error.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// UpdateProfile edits the editable profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	const maxNameLen = 64
	const maxLocationLen = 64
	const maxAboutLen = 2000

	if len(in.Name) > maxNameLen {
		return nil, models.NewValidationError("Name too long (max 64 characters)")
	}
	if len(in.Location) > maxLocationLen {
		return nil, models.NewValidationError("Location too long (max 64 characters)")
	}
	if len(in.AboutMe) > maxAboutLen {
		return nil, models.NewValidationError("About me too long (max 2000 characters)")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	user.Name = in.Name
	user.Location = in.Location
	user.AboutMe = in.AboutMe

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the account, cascading owned follow edges, posts
// and comments.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	return s.userRepo.Delete(ctx, userID)
}

// Ping records activity on the account.
func (s *UserService) Ping(ctx context.Context, userID uint) error {
	return s.userRepo.Ping(ctx, userID)
}
