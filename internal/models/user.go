// Package models contains data structures for the application's domain models.
package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a registered account. The password is write-only: only the
// bcrypt hash is stored and there is no way to read the plaintext back.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null;index" json:"username"`
	Email        string    `gorm:"unique;not null;index" json:"-"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Confirmed    bool      `gorm:"not null;default:false" json:"-"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	AboutMe      string    `gorm:"type:text" json:"about_me"`
	AvatarHash   string    `json:"-"`
	RoleID       uint      `gorm:"not null;index" json:"-"`
	Role         *Role     `gorm:"foreignKey:RoleID" json:"-"`
	MemberSince  time.Time `gorm:"autoCreateTime" json:"member_since"`
	LastSeen     time.Time `gorm:"autoCreateTime" json:"last_seen"`

	Posts    []Post    `gorm:"foreignKey:AuthorID" json:"-"`
	Comments []Comment `gorm:"foreignKey:AuthorID" json:"-"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// SetPassword stores a salted bcrypt hash of plain. Each call salts anew, so
// the same input never produces the same stored hash twice.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// GravatarHash computes the md5 hex digest of the lower-cased email. It is
// stored on the user so avatar URLs survive later email changes uncomputed.
func GravatarHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

// AvatarURL builds a gravatar URL for the user at the given pixel size.
func (u *User) AvatarURL(size int) string {
	hash := u.AvatarHash
	if hash == "" {
		hash = GravatarHash(u.Email)
	}
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon&r=g&s=%d", hash, size)
}

// Can reports whether the user's role grants the permission. A user with no
// loaded role has no permissions.
func (u *User) Can(p Permission) bool {
	return u.Role != nil && u.Role.HasPermission(p)
}

// IsAdministrator reports whether the user holds the ADMINISTER bit.
func (u *User) IsAdministrator() bool {
	return u.Can(PermAdminister)
}
