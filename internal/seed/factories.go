// Package seed provides helpers to create demo data for development and
// testing.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"quill/internal/markup"
	"quill/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a confirmed sample user on the given
// role. Optional override functions may modify the user before saving.
func (f *Factory) CreateUser(role *models.Role, overrides ...func(*models.User)) (*models.User, error) {
	username := strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(10, 999))
	email := strings.ToLower(gofakeit.Email())

	user := &models.User{
		Username:   username,
		Email:      email,
		Confirmed:  true,
		Name:       gofakeit.Name(),
		Location:   gofakeit.City(),
		AboutMe:    gofakeit.Sentence(12),
		AvatarHash: models.GravatarHash(email),
		RoleID:     role.ID,
		Role:       role,
	}
	if err := user.SetPassword("password123"); err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(user)
	}

	// Mirror the registration transaction: the user and their self edge.
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Follow{FollowerID: user.ID, FollowedID: user.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a markdown post authored by the user with a realistic
// created_at spread over the last maxDays days.
func (f *Factory) CreatePost(author *models.User, maxDays int) (*models.Post, error) {
	body := markdownBody(f.rand)
	post := &models.Post{
		Body:      body,
		BodyHTML:  markup.Render(body),
		AuthorID:  author.ID,
		CreatedAt: f.pastTime(maxDays),
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment on the post.
func (f *Factory) CreateComment(author *models.User, post *models.Post) (*models.Comment, error) {
	body := gofakeit.Sentence(f.rand.Intn(15) + 3)
	comment := &models.Comment{
		Body:      body,
		BodyHTML:  markup.Render(body),
		AuthorID:  author.ID,
		PostID:    post.ID,
		CreatedAt: f.pastTime(7),
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow persists a follow edge, ignoring duplicates.
func (f *Factory) CreateFollow(follower, followed *models.User) error {
	edge := &models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
	err := f.db.Create(edge).Error
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
		return nil
	}
	return err
}

func (f *Factory) pastTime(maxDays int) time.Time {
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(f.rand.Intn(maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// markdownBody produces a body exercising the markdown pipeline: headings,
// emphasis, lists and bare URLs.
func markdownBody(r *rand.Rand) string {
	var b strings.Builder

	switch r.Intn(4) {
	case 0:
		fmt.Fprintf(&b, "# %s\n\n", gofakeit.Sentence(4))
	case 1:
		fmt.Fprintf(&b, "## %s\n\n", gofakeit.Sentence(3))
	}

	fmt.Fprintf(&b, "%s **%s** %s\n\n",
		gofakeit.Sentence(6), gofakeit.Word(), gofakeit.Sentence(8))

	if r.Intn(3) == 0 {
		for i := 0; i < r.Intn(3)+2; i++ {
			fmt.Fprintf(&b, "- %s\n", gofakeit.Sentence(4))
		}
		b.WriteString("\n")
	}
	if r.Intn(3) == 0 {
		fmt.Fprintf(&b, "More at %s\n", gofakeit.URL())
	}

	return strings.TrimSpace(b.String())
}
