// Package models contains data structures for the application's domain models.
package models

import "time"

// Follow is a directed edge in the social graph: follower follows followed.
// The pair is unique, so a duplicate insert under a concurrent race fails
// with a constraint violation that callers treat as already-followed.
//
// Every user follows themself. The self-edge is created with the account and
// lets the timeline query read "posts by anyone I follow" and naturally
// include the user's own posts.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follows_edge;index" json:"follower_id"`
	FollowedID uint      `gorm:"not null;uniqueIndex:idx_follows_edge;index" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`

	Follower User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followed User `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
