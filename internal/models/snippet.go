package models

import (
	"time"

	"gorm.io/gorm"
)

// Snippet is a shareable piece of code.
type Snippet struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"not null" json:"title"`
	Content  string `gorm:"type:text;not null" json:"content"`
	Language string `gorm:"index" json:"language"`
	Tags     string `gorm:"index" json:"tags"`
	IsPublic bool   `gorm:"not null;default:true;index" json:"is_public"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`

	// Computed at query time, not persisted.
	LikesCount     int  `gorm:"->" json:"likes_count"`
	CommentsCount  int  `gorm:"->" json:"comments_count"`
	BookmarksCount int  `gorm:"->" json:"bookmarks_count"`
	Liked          bool `gorm:"->" json:"liked"`
	Bookmarked     bool `gorm:"->" json:"bookmarked"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
