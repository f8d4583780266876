package models

import (
	"time"
)

// Like marks a user's like on one content item. Exactly one of SnippetID,
// DocID, BugID is set. Uniqueness per (user, item) is enforced by the
// repository's toggle semantics.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	SnippetID *uint     `gorm:"index" json:"snippet_id,omitempty"`
	DocID     *uint     `gorm:"index" json:"doc_id,omitempty"`
	BugID     *uint     `gorm:"index" json:"bug_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
