package repository

import (
	"context"
	"testing"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateAddsSelfFollowEdge(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)

	user := createTestUser(t, db, role, "selfie")

	var edge models.Follow
	err := db.Where("follower_id = ? AND followed_id = ?", user.ID, user.ID).
		First(&edge).Error
	require.NoError(t, err)
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, role, "taken")

	dupe := &models.User{Username: "taken", Email: "other@example.com", RoleID: role.ID}
	require.NoError(t, dupe.SetPassword("password123"))

	err := repo.Create(ctx, dupe)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestUserGetByIDLoadsRole(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created := createTestUser(t, db, role, "withrole")

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Role)
	assert.Equal(t, "User", got.Role.Name)
	assert.True(t, got.Can(models.PermWriteArticle))
	// The cacheable projection never carries the password hash.
	assert.Empty(t, got.PasswordHash)
}

func TestUserGetByEmailKeepsPasswordHash(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, role, "creds")

	got, err := repo.GetByEmail(ctx, "creds@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.PasswordHash)
	assert.True(t, got.CheckPassword("password123"))
}

func TestUserUpdateProfilePreservesPasswordHash(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, role, "editor")

	// Profile edits flow through the hash-less cached projection; the
	// write must not touch the credential columns.
	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, got.PasswordHash)

	got.Name = "Ed Itor"
	got.Location = "Cork"
	got.AboutMe = "Edits things."
	require.NoError(t, repo.UpdateProfile(ctx, got))

	stored, err := repo.GetByEmail(ctx, "editor@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Ed Itor", stored.Name)
	assert.Equal(t, "Cork", stored.Location)
	assert.True(t, stored.CheckPassword("password123"))
}

func TestUserGetByEmailMissingIsNilNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	got, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserMarkConfirmed(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "fresh", Email: "fresh@example.com", RoleID: role.ID}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.MarkConfirmed(ctx, user.ID))

	got, err := repo.GetByUsername(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, got.Confirmed)
}

func TestUserUpdateEmailSwapsAvatarHash(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, role, "mover")

	newHash := models.GravatarHash("new@example.com")
	require.NoError(t, repo.UpdateEmail(ctx, user.ID, "new@example.com", newHash))

	got, err := repo.GetByUsername(ctx, "mover")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, newHash, got.AvatarHash)
}

func TestUserDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	users := NewUserRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, role, "alice")
	bob := createTestUser(t, db, role, "bob")

	// Edges in both directions, a post by bob and comments on it.
	require.NoError(t, follows.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, follows.Follow(ctx, bob.ID, alice.ID))

	post := &models.Post{Body: "bye", BodyHTML: "<p>bye</p>", AuthorID: bob.ID}
	require.NoError(t, db.Create(post).Error)
	require.NoError(t, db.Create(&models.Comment{
		Body: "a comment", BodyHTML: "<p>a comment</p>",
		AuthorID: alice.ID, PostID: post.ID,
	}).Error)

	require.NoError(t, users.Delete(ctx, bob.ID))

	var count int64
	db.Model(&models.Follow{}).Where("follower_id = ? OR followed_id = ?", bob.ID, bob.ID).Count(&count)
	assert.Zero(t, count, "bob's follow edges should be gone")

	db.Model(&models.Post{}).Where("author_id = ?", bob.ID).Count(&count)
	assert.Zero(t, count, "bob's posts should be gone")

	// Alice's comment on bob's post goes too.
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count, "comments on bob's posts should be gone")

	// Alice herself is untouched.
	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
}
