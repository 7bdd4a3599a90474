package repository

import (
	"context"
	"errors"
	"time"

	"quill/internal/cache"
	"quill/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts the user and its self-follow edge in one transaction.
	Create(ctx context.Context, user *models.User) error
	// GetByID returns the user with role loaded. Served cache-aside; the
	// cached copy never contains the password hash, so credential checks
	// must go through GetByEmail.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByEmail returns (nil, nil) when no such user exists. Reads the
	// database directly so the password hash is always present.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByUsername returns (nil, nil) when no such user exists.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateProfile persists the editable profile fields (name, location,
	// about_me). Nothing else is written, so a cached projection without
	// the password hash is safe to pass in.
	UpdateProfile(ctx context.Context, user *models.User) error
	// UpdatePassword persists only the password hash.
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	// UpdateEmail swaps email and avatar hash atomically.
	UpdateEmail(ctx context.Context, id uint, email, avatarHash string) error
	// MarkConfirmed flips the one-way confirmed flag.
	MarkConfirmed(ctx context.Context, id uint) error
	// Ping bumps last_seen. Deliberately leaves the cached profile alone;
	// staleness is bounded by the cache TTL.
	Ping(ctx context.Context, id uint) error
	// Delete removes the user, its follow edges in both directions, its
	// posts and its comments in one transaction.
	Delete(ctx context.Context, id uint) error
	// List returns up to limit users (admin/maintenance use, whole-table
	// cardinality).
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// cachedUser is the redis-serializable projection of a user. The model's
// json tags hide email, role and the password hash from API responses, so a
// dedicated shape is needed; the password hash stays out on purpose.
type cachedUser struct {
	ID          uint              `json:"id"`
	Username    string            `json:"username"`
	Email       string            `json:"email"`
	Confirmed   bool              `json:"confirmed"`
	Name        string            `json:"name"`
	Location    string            `json:"location"`
	AboutMe     string            `json:"about_me"`
	AvatarHash  string            `json:"avatar_hash"`
	RoleID      uint              `json:"role_id"`
	RoleName    string            `json:"role_name"`
	RolePerms   models.Permission `json:"role_perms"`
	RoleDefault bool              `json:"role_default"`
	MemberSince time.Time         `json:"member_since"`
	LastSeen    time.Time         `json:"last_seen"`
}

func toCached(u *models.User) cachedUser {
	c := cachedUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Confirmed:   u.Confirmed,
		Name:        u.Name,
		Location:    u.Location,
		AboutMe:     u.AboutMe,
		AvatarHash:  u.AvatarHash,
		RoleID:      u.RoleID,
		MemberSince: u.MemberSince,
		LastSeen:    u.LastSeen,
	}
	if u.Role != nil {
		c.RoleName = u.Role.Name
		c.RolePerms = u.Role.Permissions
		c.RoleDefault = u.Role.IsDefault
	}
	return c
}

func fromCached(c cachedUser) *models.User {
	return &models.User{
		ID:          c.ID,
		Username:    c.Username,
		Email:       c.Email,
		Confirmed:   c.Confirmed,
		Name:        c.Name,
		Location:    c.Location,
		AboutMe:     c.AboutMe,
		AvatarHash:  c.AvatarHash,
		RoleID:      c.RoleID,
		Role:        &models.Role{ID: c.RoleID, Name: c.RoleName, Permissions: c.RolePerms, IsDefault: c.RoleDefault},
		MemberSince: c.MemberSince,
		LastSeen:    c.LastSeen,
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		// Self-follow edge: timeline queries read "posts by anyone I
		// follow" and pick up the user's own posts through this edge.
		return tx.Create(&models.Follow{FollowerID: user.ID, FollowedID: user.ID}).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Username or email already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var c cachedUser
	err := cache.Aside(ctx, cache.UserKey(id), &c, cache.UserTTL, func() error {
		var user models.User
		if err := r.db.WithContext(ctx).Preload("Role").First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		c = toCached(&user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromCached(c), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Role").Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":     user.Name,
			"location": user.Location,
			"about_me": user.AboutMe,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) UpdateEmail(ctx context.Context, id uint, email, avatarHash string) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"email": email, "avatar_hash": avatarHash}).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Email already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) MarkConfirmed(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("confirmed", true).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) Ping(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_seen", time.Now()).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("follower_id = ? OR followed_id = ?", id, id).
			Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		// Comments on the user's posts go too, regardless of who wrote them.
		ownPosts := tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.Post{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("author_id = ? OR post_id IN (?)", id, ownPosts).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Preload("Role").
		Limit(limit).Offset(offset).Order("id").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
