// Package models contains data structures for the application's domain models.
package models

import "time"

// Post represents an article authored by a user. BodyHTML is derived from
// Body by the markup pipeline at every write; it is never set directly.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	BodyHTML  string    `gorm:"type:text" json:"body_html"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`
	UpdatedAt time.Time `json:"-"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}
