// Package server contains the HTTP handlers for the application's API
// endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const maxPerPage = 100

// Pagination holds the parsed page-based query parameters.
type Pagination struct {
	Page    int
	PerPage int
}

// Offset converts the page number to a row offset.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// parsePagination extracts page and per_page query parameters, defaulting
// per_page to the configured page size.
func (s *Server) parsePagination(c *fiber.Ctx) Pagination {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	perPage := c.QueryInt("per_page", s.config.PostsPerPage)
	if perPage <= 0 {
		perPage = s.config.PostsPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return Pagination{Page: page, PerPage: perPage}
}

// envelope builds the standard paginated collection body: the items under a
// resource-named key plus absolute prev/next URLs (null at the edges) and
// the total count.
func envelope(c *fiber.Ctx, key string, items any, page Pagination, total int64) fiber.Map {
	var prev, next *string
	if page.Page > 1 {
		u := pageURL(c, page.Page-1)
		prev = &u
	}
	if int64(page.Offset()+page.PerPage) < total {
		u := pageURL(c, page.Page+1)
		next = &u
	}

	return fiber.Map{
		key:     items,
		"prev":  prev,
		"next":  next,
		"count": total,
	}
}

// pageURL builds an absolute link to a neighbouring page. A caller-chosen
// per_page carries over so prev/next walk the same page size.
func pageURL(c *fiber.Ctx, page int) string {
	u := fmt.Sprintf("%s%s?page=%d", c.BaseURL(), c.Path(), page)
	if perPage := c.Query("per_page"); perPage != "" {
		u += "&per_page=" + url.QueryEscape(perPage)
	}
	return u
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// respondServiceError maps AppError codes from the service layer onto HTTP
// statuses. Unknown errors become 500s.
func respondServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "VALIDATION_ERROR":
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		case "UNAUTHORIZED":
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		case "FORBIDDEN":
			return models.RespondWithError(c, fiber.StatusForbidden, appErr)
		case "NOT_FOUND":
			return models.RespondWithError(c, fiber.StatusNotFound, appErr)
		}
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, err)
}

// userJSON is the public representation of a user profile.
type userJSON struct {
	Username       string    `json:"username"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	AboutMe        string    `json:"about_me"`
	MemberSince    time.Time `json:"member_since"`
	LastSeen       time.Time `json:"last_seen"`
	AvatarURL      string    `json:"avatar_url"`
	PostsCount     int64     `json:"posts_count"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
}

// serializeUser builds the profile representation, including graph and post
// counts. The self follow edge is excluded from both counts.
func (s *Server) serializeUser(ctx context.Context, u *models.User) (*userJSON, error) {
	followers, following, err := s.followRepo.Counts(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.CountByAuthor(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &userJSON{
		Username:       u.Username,
		Name:           u.Name,
		Location:       u.Location,
		AboutMe:        u.AboutMe,
		MemberSince:    u.MemberSince,
		LastSeen:       u.LastSeen,
		AvatarURL:      u.AvatarURL(256),
		PostsCount:     posts,
		FollowersCount: followers,
		FollowingCount: following,
	}, nil
}

// userSummaryJSON is the compact representation used in follower listings.
type userSummaryJSON struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	LastSeen  time.Time `json:"last_seen"`
}

func serializeUserSummaries(users []models.User) []userSummaryJSON {
	out := make([]userSummaryJSON, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, userSummaryJSON{
			Username:  u.Username,
			Name:      u.Name,
			AvatarURL: u.AvatarURL(64),
			LastSeen:  u.LastSeen,
		})
	}
	return out
}

// postJSON is the public representation of a post.
type postJSON struct {
	ID        uint      `json:"id"`
	Body      string    `json:"body"`
	BodyHTML  string    `json:"body_html"`
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"`
	AuthorID  uint      `json:"author_id"`
}

func serializePost(p *models.Post) postJSON {
	out := postJSON{
		ID:        p.ID,
		Body:      p.Body,
		BodyHTML:  p.BodyHTML,
		Timestamp: p.CreatedAt,
		AuthorID:  p.AuthorID,
	}
	if p.Author != nil {
		out.Author = p.Author.Username
	}
	return out
}

func serializePosts(posts []models.Post) []postJSON {
	out := make([]postJSON, 0, len(posts))
	for i := range posts {
		out = append(out, serializePost(&posts[i]))
	}
	return out
}

// commentJSON is the public representation of a comment.
type commentJSON struct {
	ID        uint      `json:"id"`
	Body      string    `json:"body"`
	BodyHTML  string    `json:"body_html"`
	Disabled  bool      `json:"disabled"`
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"`
	AuthorID  uint      `json:"author_id"`
	PostID    uint      `json:"post_id"`
}

func serializeComment(cm *models.Comment) commentJSON {
	out := commentJSON{
		ID:        cm.ID,
		Body:      cm.Body,
		BodyHTML:  cm.BodyHTML,
		Disabled:  cm.Disabled,
		Timestamp: cm.CreatedAt,
		AuthorID:  cm.AuthorID,
		PostID:    cm.PostID,
	}
	if cm.Author != nil {
		out.Author = cm.Author.Username
	}
	return out
}

func serializeComments(comments []models.Comment) []commentJSON {
	out := make([]commentJSON, 0, len(comments))
	for i := range comments {
		out = append(out, serializeComment(&comments[i]))
	}
	return out
}
