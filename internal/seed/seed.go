// Package seed provides helpers to create demo data for development and
// testing.
package seed

import (
	"context"
	"fmt"
	"log"

	"quill/internal/models"
	"quill/internal/repository"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	NumComments int
	ShouldClean bool
}

// Seed populates the database with demo users, a follow mesh, markdown
// posts and comments. Roles are seeded first so users can be attached.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database with %d users, %d posts, %d comments...",
		opts.NumUsers, opts.NumPosts, opts.NumComments)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	ctx := context.Background()
	roleRepo := repository.NewRoleRepository(db)
	if err := roleRepo.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}
	defaultRole, err := roleRepo.GetDefault(ctx)
	if err != nil {
		return fmt.Errorf("failed to load default role: %w", err)
	}
	modRole, err := roleRepo.GetByName(ctx, "Moderator")
	if err != nil {
		return fmt.Errorf("failed to load moderator role: %w", err)
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		role := defaultRole
		// Roughly one moderator per ten users.
		if i > 0 && i%10 == 0 {
			role = modRole
		}
		user, err := f.CreateUser(role)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("created %d users", len(users))

	// Follow mesh: each user follows a handful of others.
	edges := 0
	for _, follower := range users {
		n := f.rand.Intn(len(users)/2 + 1)
		for j := 0; j < n; j++ {
			followed := users[f.rand.Intn(len(users))]
			if followed.ID == follower.ID {
				continue
			}
			if err := f.CreateFollow(follower, followed); err != nil {
				return fmt.Errorf("failed to create follow edge: %w", err)
			}
			edges++
		}
	}
	log.Printf("created %d follow edges", edges)

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.rand.Intn(len(users))]
		post, err := f.CreatePost(author, 90)
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}
	log.Printf("created %d posts", len(posts))

	if len(posts) > 0 {
		for i := 0; i < opts.NumComments; i++ {
			author := users[f.rand.Intn(len(users))]
			post := posts[f.rand.Intn(len(posts))]
			if _, err := f.CreateComment(author, post); err != nil {
				return fmt.Errorf("failed to create comment: %w", err)
			}
		}
		log.Printf("created %d comments", opts.NumComments)
	}

	log.Println("Seeding complete")
	return nil
}

// clearData removes seeded content in dependency order. Roles are kept.
func clearData(db *gorm.DB) error {
	for _, model := range []interface{}{
		&models.Comment{},
		&models.Post{},
		&models.Follow{},
		&models.User{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
