package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is attached to exactly one content item; exactly one of SnippetID,
// DocID, BugID is set. ParentID is set for replies.
type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Content  string `gorm:"type:text;not null" json:"content"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`

	SnippetID *uint `gorm:"index" json:"snippet_id,omitempty"`
	DocID     *uint `gorm:"index" json:"doc_id,omitempty"`
	BugID     *uint `gorm:"index" json:"bug_id,omitempty"`

	ParentID *uint     `gorm:"index" json:"parent_id,omitempty"`
	Parent   *Comment  `gorm:"foreignKey:ParentID" json:"-"`
	Replies  []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
