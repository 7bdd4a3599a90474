package repository

import (
	"context"
	"testing"
	"time"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestPost(t *testing.T, db *gorm.DB, authorID uint, body string, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{Body: body, BodyHTML: "<p>" + body + "</p>", AuthorID: authorID, CreatedAt: at}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestPostListNewestFirstWithTotal(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, role, "writer")
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		createTestPost(t, db, author.ID, "post", base.Add(time.Duration(i)*time.Minute))
	}

	posts, total, err := repo.List(ctx, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, posts, 3)
	assert.True(t, posts[0].CreatedAt.After(posts[1].CreatedAt))
	assert.True(t, posts[1].CreatedAt.After(posts[2].CreatedAt))
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "writer", posts[0].Author.Username)
}

func TestTimelineIncludesOwnAndFollowedPosts(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	posts := NewPostRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, role, "talice")
	bob := createTestUser(t, db, role, "tbob")
	carol := createTestUser(t, db, role, "tcarol")

	require.NoError(t, follows.Follow(ctx, alice.ID, bob.ID))

	now := time.Now()
	createTestPost(t, db, alice.ID, "mine", now.Add(-3*time.Minute))
	createTestPost(t, db, bob.ID, "followed", now.Add(-2*time.Minute))
	createTestPost(t, db, carol.ID, "stranger", now.Add(-time.Minute))

	timeline, total, err := posts.Timeline(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, timeline, 2)

	// Own posts appear through the self edge; carol's never do.
	bodies := []string{timeline[0].Body, timeline[1].Body}
	assert.ElementsMatch(t, []string{"mine", "followed"}, bodies)
	// Newest first.
	assert.Equal(t, "followed", timeline[0].Body)
}

func TestTimelineEmptyForLonelyUser(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	loner := createTestUser(t, db, role, "loner")

	timeline, total, err := repo.Timeline(ctx, loner.ID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, timeline)
}

func TestPostDeleteRemovesComments(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, role, "delwriter")
	post := createTestPost(t, db, author.ID, "doomed", time.Now())
	require.NoError(t, db.Create(&models.Comment{
		Body: "on doomed", BodyHTML: "<p>on doomed</p>",
		AuthorID: author.ID, PostID: post.ID,
	}).Error)

	require.NoError(t, repo.Delete(ctx, post.ID))

	var count int64
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)

	_, err := repo.GetByID(ctx, post.ID)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestCountByAuthor(t *testing.T) {
	db := setupTestDB(t)
	role := seedRoles(t, db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, role, "counter")
	other := createTestUser(t, db, role, "othercounter")
	createTestPost(t, db, author.ID, "one", time.Now())
	createTestPost(t, db, author.ID, "two", time.Now())
	createTestPost(t, db, other.ID, "theirs", time.Now())

	count, err := repo.CountByAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
