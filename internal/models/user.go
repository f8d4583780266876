// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered author on the platform.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`

	// Denormalized counters, maintained transactionally by the follow and
	// content repositories.
	FollowersCount int `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount int `gorm:"not null;default:0" json:"following_count"`
	ContentCount   int `gorm:"not null;default:0" json:"content_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Snippets []Snippet `gorm:"foreignKey:AuthorID" json:"snippets,omitempty"`
	Docs     []Doc     `gorm:"foreignKey:AuthorID" json:"docs,omitempty"`
	Bugs     []Bug     `gorm:"foreignKey:AuthorID" json:"bugs,omitempty"`
}

// UserCompact is the author summary embedded in feed items and notifications.
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// ToCompact returns the summary form used in enriched responses.
func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
