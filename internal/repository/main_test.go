package repository

import (
	"context"
	"testing"

	"quill/internal/database"
	"quill/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a fresh in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// seedRoles installs the fixed role table and returns the default role.
func seedRoles(t *testing.T, db *gorm.DB) *models.Role {
	t.Helper()
	roles := NewRoleRepository(db)
	require.NoError(t, roles.Seed(context.Background()))
	def, err := roles.GetDefault(context.Background())
	require.NoError(t, err)
	return def
}

// createTestUser persists a confirmed user on the given role through the
// repository, so the self-follow edge is present.
func createTestUser(t *testing.T, db *gorm.DB, role *models.Role, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Confirmed: true,
		RoleID:    role.ID,
		Role:      role,
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}
