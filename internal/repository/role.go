package repository

import (
	"context"
	"errors"

	"quill/internal/models"

	"gorm.io/gorm"
)

// RoleRepository defines persistence operations for roles.
type RoleRepository interface {
	// Seed upserts the fixed role table by name. Re-running updates
	// permissions and the default flag without duplicating rows.
	Seed(ctx context.Context) error
	GetByName(ctx context.Context, name string) (*models.Role, error)
	// GetDefault returns the single role flagged as default.
	GetDefault(ctx context.Context) (*models.Role, error)
	// GetAdministrator returns the role holding every permission bit.
	GetAdministrator(ctx context.Context) (*models.Role, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository returns a new RoleRepository implementation.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Seed(ctx context.Context) error {
	for _, def := range models.DefaultRoles() {
		var role models.Role
		err := r.db.WithContext(ctx).Where("name = ?", def.Name).First(&role).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			role = models.Role{Name: def.Name, Permissions: def.Permissions, IsDefault: def.IsDefault}
			if createErr := r.db.WithContext(ctx).Create(&role).Error; createErr != nil {
				// A concurrent seeder may have inserted the row first.
				if isUniqueConstraintError(createErr) {
					continue
				}
				return models.NewInternalError(createErr)
			}
		case err != nil:
			return models.NewInternalError(err)
		default:
			role.Permissions = def.Permissions
			role.IsDefault = def.IsDefault
			if saveErr := r.db.WithContext(ctx).Save(&role).Error; saveErr != nil {
				return models.NewInternalError(saveErr)
			}
		}
	}
	return nil
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Role", name)
		}
		return nil, models.NewInternalError(err)
	}
	return &role, nil
}

func (r *roleRepository) GetDefault(ctx context.Context) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Role", "default")
		}
		return nil, models.NewInternalError(err)
	}
	return &role, nil
}

func (r *roleRepository) GetAdministrator(ctx context.Context) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("permissions = ?", models.PermAll).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Role", "administrator")
		}
		return nil, models.NewInternalError(err)
	}
	return &role, nil
}
