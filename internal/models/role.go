// Package models contains data structures for the application's domain models.
package models

// Permission is a bitmask of capabilities a role grants. Permissions are
// composed with bitwise OR and tested with AND-equality.
type Permission int

const (
	// PermFollow allows following other users.
	PermFollow Permission = 0x01
	// PermComment allows commenting on posts.
	PermComment Permission = 0x02
	// PermWriteArticle allows authoring posts.
	PermWriteArticle Permission = 0x04
	// PermModerateComments allows disabling and restoring other users' comments.
	PermModerateComments Permission = 0x08
	// PermAdminister grants full administration of the site.
	PermAdminister Permission = 0x80
)

// PermAll is every permission bit set.
const PermAll Permission = 0xff

// Role is a named bundle of permissions. Exactly one role is the default
// assigned to new users.
type Role struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"unique;not null" json:"name"`
	Permissions Permission `gorm:"not null" json:"permissions"`
	IsDefault   bool       `gorm:"not null;default:false;index" json:"is_default"`

	Users []User `gorm:"foreignKey:RoleID" json:"-"`
}

// TableName specifies the table name for GORM
func (Role) TableName() string {
	return "roles"
}

// HasPermission reports whether the role grants every bit of p.
func (r *Role) HasPermission(p Permission) bool {
	return r.Permissions&p == p
}

// RoleDefinition describes one entry of the fixed role table used for seeding.
type RoleDefinition struct {
	Name        string
	Permissions Permission
	IsDefault   bool
}

// DefaultRoles is the fixed role table. Seeding upserts by name, so re-running
// it updates permissions and the default flag without duplicating rows.
func DefaultRoles() []RoleDefinition {
	return []RoleDefinition{
		{Name: "User", Permissions: PermFollow | PermComment | PermWriteArticle, IsDefault: true},
		{Name: "Moderator", Permissions: PermFollow | PermComment | PermWriteArticle | PermModerateComments},
		{Name: "Administrator", Permissions: PermAll},
	}
}
