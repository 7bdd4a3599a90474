// Package models contains data structures for the application's domain models.
package models

// Identity is who a request is acting as: either an authenticated user or the
// anonymous caller. Both variants answer capability checks, so handlers never
// branch on nil.
type Identity interface {
	// Can reports whether the identity holds every bit of the permission.
	Can(p Permission) bool
	// IsAdministrator reports whether the identity can administer the site.
	IsAdministrator() bool
	// IsAnonymous reports whether this is the anonymous variant.
	IsAnonymous() bool
	// User returns the backing user, or nil for the anonymous variant.
	User() *User
}

// AuthenticatedIdentity wraps a user resolved from credentials.
type AuthenticatedIdentity struct {
	user *User
}

// NewAuthenticatedIdentity returns an Identity backed by the given user.
func NewAuthenticatedIdentity(u *User) *AuthenticatedIdentity {
	return &AuthenticatedIdentity{user: u}
}

func (a *AuthenticatedIdentity) Can(p Permission) bool   { return a.user != nil && a.user.Can(p) }
func (a *AuthenticatedIdentity) IsAdministrator() bool   { return a.user != nil && a.user.IsAdministrator() }
func (a *AuthenticatedIdentity) IsAnonymous() bool       { return false }
func (a *AuthenticatedIdentity) User() *User             { return a.user }

// AnonymousIdentity is the caller with no credentials. It holds no
// permissions and never panics on capability checks.
type AnonymousIdentity struct{}

func (AnonymousIdentity) Can(Permission) bool    { return false }
func (AnonymousIdentity) IsAdministrator() bool  { return false }
func (AnonymousIdentity) IsAnonymous() bool      { return true }
func (AnonymousIdentity) User() *User            { return nil }
