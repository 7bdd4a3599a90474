package service

import (
	"context"
	"strings"
	"sync"

	"quill/internal/models"
)

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[uint]*models.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return models.NewValidationError("Username or email already taken")
		}
	}
	user.ID = f.nextID
	f.nextID++
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

// GetByID mirrors the real repository's cache-aside contract: the copy it
// hands out never carries the password hash.
func (f *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[user.ID]; ok {
		u.Name = user.Name
		u.Location = user.Location
		u.AboutMe = user.AboutMe
	}
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id uint, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (f *fakeUserRepo) UpdateEmail(_ context.Context, id uint, email, avatarHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Email = email
		u.AvatarHash = avatarHash
	}
	return nil
}

func (f *fakeUserRepo) MarkConfirmed(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Confirmed = true
	}
	return nil
}

func (f *fakeUserRepo) Ping(context.Context, uint) error { return nil }

func (f *fakeUserRepo) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) List(context.Context, int, int) ([]models.User, error) {
	return nil, nil
}

// fakeRoleRepo serves the fixed role table without a database.
type fakeRoleRepo struct {
	def   *models.Role
	mod   *models.Role
	admin *models.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		def:   &models.Role{ID: 1, Name: "User", Permissions: models.PermFollow | models.PermComment | models.PermWriteArticle, IsDefault: true},
		mod:   &models.Role{ID: 2, Name: "Moderator", Permissions: models.PermFollow | models.PermComment | models.PermWriteArticle | models.PermModerateComments},
		admin: &models.Role{ID: 3, Name: "Administrator", Permissions: models.PermAll},
	}
}

func (f *fakeRoleRepo) Seed(context.Context) error { return nil }

func (f *fakeRoleRepo) GetByName(_ context.Context, name string) (*models.Role, error) {
	switch name {
	case "User":
		return f.def, nil
	case "Moderator":
		return f.mod, nil
	case "Administrator":
		return f.admin, nil
	}
	return nil, models.NewNotFoundError("Role", name)
}

func (f *fakeRoleRepo) GetDefault(context.Context) (*models.Role, error)       { return f.def, nil }
func (f *fakeRoleRepo) GetAdministrator(context.Context) (*models.Role, error) { return f.admin, nil }

// recordingMailer captures dispatched mail instead of sending it.
type recordingMailer struct {
	mu    sync.Mutex
	sends []mailRecord
}

type mailRecord struct {
	Template string
	To       string
	Token    string
}

func (m *recordingMailer) record(template, to, tok string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, mailRecord{Template: template, To: to, Token: tok})
}

func (m *recordingMailer) SendConfirmation(to, _, tok string)  { m.record("confirm", to, tok) }
func (m *recordingMailer) SendChangeEmail(to, _, tok string)   { m.record("change_email", to, tok) }
func (m *recordingMailer) SendPasswordReset(to, _, tok string) { m.record("reset_password", to, tok) }

func (m *recordingMailer) last() (mailRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sends) == 0 {
		return mailRecord{}, false
	}
	return m.sends[len(m.sends)-1], true
}

// fakeFollowRepo is an in-memory FollowRepository.
type fakeFollowRepo struct {
	mu    sync.Mutex
	edges map[[2]uint]bool
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{edges: map[[2]uint]bool{}}
}

func (f *fakeFollowRepo) Follow(_ context.Context, followerID, followedID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edges[[2]uint{followerID, followedID}] = true
	return nil
}

func (f *fakeFollowRepo) Unfollow(_ context.Context, followerID, followedID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.edges, [2]uint{followerID, followedID})
	return nil
}

func (f *fakeFollowRepo) IsFollowing(_ context.Context, followerID, followedID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edges[[2]uint{followerID, followedID}], nil
}

func (f *fakeFollowRepo) Followers(context.Context, uint, int, int) ([]models.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeFollowRepo) Following(context.Context, uint, int, int) ([]models.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeFollowRepo) Counts(context.Context, uint) (int64, int64, error) {
	return 0, 0, nil
}

// fakePostRepo is an in-memory PostRepository.
type fakePostRepo struct {
	mu     sync.Mutex
	nextID uint
	posts  map[uint]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{nextID: 1, posts: map[uint]*models.Post{}}
}

func (f *fakePostRepo) Create(_ context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post.ID = f.nextID
	f.nextID++
	cp := *post
	f.posts[post.ID] = &cp
	return nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id uint) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakePostRepo) Update(_ context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *post
	f.posts[post.ID] = &cp
	return nil
}

func (f *fakePostRepo) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) List(context.Context, int, int) ([]models.Post, int64, error) {
	return nil, 0, nil
}

func (f *fakePostRepo) ListByAuthor(context.Context, uint, int, int) ([]models.Post, int64, error) {
	return nil, 0, nil
}

func (f *fakePostRepo) Timeline(context.Context, uint, int, int) ([]models.Post, int64, error) {
	return nil, 0, nil
}

func (f *fakePostRepo) CountByAuthor(context.Context, uint) (int64, error) { return 0, nil }

// fakeCommentRepo is an in-memory CommentRepository.
type fakeCommentRepo struct {
	mu       sync.Mutex
	nextID   uint
	comments map[uint]*models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{nextID: 1, comments: map[uint]*models.Comment{}}
}

func (f *fakeCommentRepo) Create(_ context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment.ID = f.nextID
	f.nextID++
	cp := *comment
	f.comments[comment.ID] = &cp
	return nil
}

func (f *fakeCommentRepo) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cm, ok := f.comments[id]
	if !ok {
		return nil, models.NewNotFoundError("Comment", id)
	}
	cp := *cm
	return &cp, nil
}

func (f *fakeCommentRepo) SetDisabled(_ context.Context, id uint, disabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cm, ok := f.comments[id]
	if !ok {
		return models.NewNotFoundError("Comment", id)
	}
	cm.Disabled = disabled
	return nil
}

func (f *fakeCommentRepo) List(context.Context, int, int) ([]models.Comment, int64, error) {
	return nil, 0, nil
}

func (f *fakeCommentRepo) ListByPost(context.Context, uint, int, int) ([]models.Comment, int64, error) {
	return nil, 0, nil
}

func (f *fakeCommentRepo) ListByAuthor(context.Context, uint, int, int) ([]models.Comment, int64, error) {
	return nil, 0, nil
}
