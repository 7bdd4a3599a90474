package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"quill/internal/models"
)

func TestListPostsAnonymously(t *testing.T) {
	t.Parallel()

	s, app := newTestServer(t)
	john := registerTestUser(t, s, "john", "User")
	auth := basicAuth(john.Email, "password123")

	for i := 1; i <= 3; i++ {
		resp, _ := doRequest(t, app, http.MethodPost, "/api/v1/posts", auth,
			map[string]any{"body": fmt.Sprintf("post number %d", i)})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create post %d: got %d", i, resp.StatusCode)
		}
	}

	// Reading the feed needs no credentials.
	resp, body := doRequest(t, app, http.MethodGet, "/api/v1/posts", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	posts, _ := body["posts"].([]any)
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if body["count"] != float64(3) {
		t.Fatalf("expected count 3, got %v", body["count"])
	}
	if body["prev"] != nil || body["next"] != nil {
		t.Fatalf("expected null prev/next on a single page, got %v / %v", body["prev"], body["next"])
	}

	// Newest first.
	first, _ := posts[0].(map[string]any)
	if first["body"] != "post number 3" {
		t.Fatalf("expected newest post first, got %v", first["body"])
	}
	if first["author"] != "john" {
		t.Fatalf("expected author username, got %v", first["author"])
	}
}

func TestPostPaginationLinks(t *testing.T) {
	t.Parallel()

	s, app := newTestServer(t)
	john := registerTestUser(t, s, "john", "User")
	auth := basicAuth(john.Email, "password123")

	for i := 0; i < 5; i++ {
		resp, _ := doRequest(t, app, http.MethodPost, "/api/v1/posts", auth,
			map[string]any{"body": fmt.Sprintf("post %d", i)})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create post: got %d", resp.StatusCode)
		}
	}

	_, body := doRequest(t, app, http.MethodGet, "/api/v1/posts?per_page=2", "", nil)
	if body["prev"] != nil {
		t.Fatalf("first page must have null prev, got %v", body["prev"])
	}
	next, _ := body["next"].(string)
	if !strings.Contains(next, "/api/v1/posts?page=2") {
		t.Fatalf("unexpected next link %q", next)
	}
	if !strings.Contains(next, "per_page=2") {
		t.Fatalf("next link must keep the requested page size, got %q", next)
	}

	_, body = doRequest(t, app, http.MethodGet, "/api/v1/posts?page=3&per_page=2", "", nil)
	prev, _ := body["prev"].(string)
	if !strings.Contains(prev, "/api/v1/posts?page=2") {
		t.Fatalf("unexpected prev link %q", prev)
	}
	if !strings.Contains(prev, "per_page=2") {
		t.Fatalf("prev link must keep the requested page size, got %q", prev)
	}
	if body["next"] != nil {
		t.Fatalf("last page must have null next, got %v", body["next"])
	}
	posts, _ := body["posts"].([]any)
	if len(posts) != 1 {
		t.Fatalf("expected 1 post on the last page, got %d", len(posts))
	}
}

func TestCreatePostRendersBody(t *testing.T) {
	t.Parallel()

	s, app := newTestServer(t)
	john := registerTestUser(t, s, "john", "User")

	resp, body := doRequest(t, app, http.MethodPost, "/api/v1/posts",
		basicAuth(john.Email, "password123"),
		map[string]any{"body": "# Hello\n\nSome **bold** text."})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "/api/v1/posts/") {
		t.Fatalf("unexpected Location header %q", loc)
	}
	html, _ := body["body_html"].(string)
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Fatalf("markdown not rendered: %q", html)
	}
}

func TestCreatePostStripsScript(t *testing.T) {
	t.Parallel()

	s, app := newTestServer(t)
	john := registerTestUser(t, s, "john", "User")

	resp, body := doRequest(t, app, http.MethodPost, "/api/v1/posts",
		basicAuth(john.Email, "password123"),
		map[string]any{"body": "hi <script>alert(1)</script> there"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	html, _ := body["body_html"].(string)
	if strings.Contains(html, "<script") || strings.Contains(html, "alert(1)") {
		t.Fatalf("script content survived sanitization: %q", html)
	}
	// The raw body keeps what the author wrote.
	if raw, _ := body["body"].(string); !strings.Contains(raw, "<script>") {
		t.Fatalf("raw body should be untouched: %q", raw)
	}
}

func TestCreatePostRejections(t *testing.T) {
	t.Parallel()

	s, app := newTestServer(t)
	john := registerTestUser(t, s, "john", "User")

	// Anonymous callers lack the write permission.
	resp, _ := doRequest(t, app, http.MethodPost, "/api/v1/posts", "",
		map[string]any{"body": "hello"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for anonymous, got %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, app, http.MethodPost, "/api/v1/posts",
		basicAuth(john.Email, "password123"), map[string]any{"body": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank body, got %d", resp.StatusCode)
	}

	var count int64
	if err := s.db.Model(&models.Post{}).Count(&count).Error; err != nil {
		t.Fatalf("count posts: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected posts must not be stored, found %d", count)
	}
}

func TestUpdatePostReRendersAndGuards(t *testing.T) {
	t.Parallel()

	s, app := newTestServer(t)
	john := registerTestUser(t, s, "john", "User")
	susan := registerTestUser(t, s, "susan", "User")
	johnAuth := basicAuth(john.Email, "password123")

	resp, created := doRequest(t, app, http.MethodPost, "/api/v1/posts", johnAuth,
		map[string]any{"body": "original"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: got %d", resp.StatusCode)
	}
	postID := created["id"].(float64)
	target := fmt.Sprintf("/api/v1/posts/%.0f", postID)

	// Another regular user may not edit.
	resp, _ = doRequest(t, app, http.MethodPut, target,
		basicAuth(susan.Email, "password123"), map[string]any{"body": "hijacked"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author, got %d", resp.StatusCode)
	}

	// The author may, and the HTML is derived from the new body.
	resp, body := doRequest(t, app, http.MethodPut, target, johnAuth,
		map[string]any{"body": "now *emphasized*"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if html, _ := body["body_html"].(string); !strings.Contains(html, "<em>emphasized</em>") {
		t.Fatalf("body_html not re-rendered: %q", html)
	}
}

func TestAdminMayDeleteAnyPost(t *testing.T) {
	t.Parallel()

	s, app := newTestServer(t)
	john := registerTestUser(t, s, "john", "User")
	admin := registerTestUser(t, s, "root", "Administrator")

	resp, created := doRequest(t, app, http.MethodPost, "/api/v1/posts",
		basicAuth(john.Email, "password123"), map[string]any{"body": "to be removed"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: got %d", resp.StatusCode)
	}
	target := fmt.Sprintf("/api/v1/posts/%.0f", created["id"].(float64))

	resp, _ = doRequest(t, app, http.MethodDelete, target,
		basicAuth(admin.Email, "password123"), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, app, http.MethodGet, target, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestGetPostInvalidID(t *testing.T) {
	t.Parallel()

	_, app := newTestServer(t)

	for _, target := range []string{"/api/v1/posts/abc", "/api/v1/posts/0", "/api/v1/posts/-4"} {
		resp, _ := doRequest(t, app, http.MethodGet, target, "", nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.StatusCode)
		}
	}
}

func TestUserPostsAndTimeline(t *testing.T) {
	t.Parallel()

	s, app := newTestServer(t)
	john := registerTestUser(t, s, "john", "User")
	susan := registerTestUser(t, s, "susan", "User")
	johnAuth := basicAuth(john.Email, "password123")
	susanAuth := basicAuth(susan.Email, "password123")

	if resp, _ := doRequest(t, app, http.MethodPost, "/api/v1/posts", johnAuth,
		map[string]any{"body": "john writes"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create john post: got %d", resp.StatusCode)
	}
	if resp, _ := doRequest(t, app, http.MethodPost, "/api/v1/posts", susanAuth,
		map[string]any{"body": "susan writes"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create susan post: got %d", resp.StatusCode)
	}

	// Susan's own timeline carries her post before she follows anyone.
	_, body := doRequest(t, app, http.MethodGet, "/api/v1/users/susan/timeline", "", nil)
	posts, _ := body["posts"].([]any)
	if len(posts) != 1 {
		t.Fatalf("expected 1 timeline post, got %v", body)
	}

	if resp, _ := doRequest(t, app, http.MethodPost, "/api/v1/users/john/follow", susanAuth, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("follow: got %d", resp.StatusCode)
	}

	_, body = doRequest(t, app, http.MethodGet, "/api/v1/users/susan/timeline", "", nil)
	posts, _ = body["posts"].([]any)
	if len(posts) != 2 {
		t.Fatalf("expected 2 timeline posts after following john, got %v", body)
	}

	// Per-user post listings stay scoped to the author.
	_, body = doRequest(t, app, http.MethodGet, "/api/v1/users/susan/posts", "", nil)
	posts, _ = body["posts"].([]any)
	if len(posts) != 1 {
		t.Fatalf("expected 1 authored post, got %v", body)
	}
}
