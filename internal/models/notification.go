package models

import (
	"time"
)

// Notification types.
const (
	NotificationTypeLike            = "LIKE"
	NotificationTypeComment         = "COMMENT"
	NotificationTypeFollow          = "FOLLOW"
	NotificationTypeReply           = "REPLY"
	NotificationTypeBugStatusUpdate = "BUG_STATUS_UPDATE"
)

// Notification is a persisted, user-visible record of an action taken by
// another user. RecipientID is never equal to SenderID; the notification
// service refuses to create self-notifications.
type Notification struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Type        string `gorm:"not null;index" json:"type"`
	RecipientID uint   `gorm:"not null;index" json:"recipient_id"`
	SenderID    uint   `gorm:"not null" json:"sender_id"`
	Read        bool   `gorm:"not null;default:false;index" json:"read"`

	// Denormalized sender display fields so clients can render without a
	// second lookup.
	SenderUsername string `json:"sender_username"`
	SenderAvatar   string `json:"sender_avatar"`

	SnippetID *uint `json:"snippet_id,omitempty"`
	DocID     *uint `json:"doc_id,omitempty"`
	BugID     *uint `json:"bug_id,omitempty"`
	CommentID *uint `json:"comment_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Recipient User `gorm:"foreignKey:RecipientID" json:"-"`
	Sender    User `gorm:"foreignKey:SenderID" json:"-"`
}

// ValidNotificationType reports whether t is a recognized notification type.
func ValidNotificationType(t string) bool {
	switch t {
	case NotificationTypeLike, NotificationTypeComment, NotificationTypeFollow,
		NotificationTypeReply, NotificationTypeBugStatusUpdate:
		return true
	}
	return false
}
