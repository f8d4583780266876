package models

import (
	"time"
)

// UserPreferences holds per-user notification toggles. A disabled type is
// neither persisted nor pushed. Rows are created lazily with all types on.
type UserPreferences struct {
	ID              uint `gorm:"primaryKey" json:"id"`
	UserID          uint `gorm:"not null;uniqueIndex" json:"user_id"`
	NotifyLikes     bool `gorm:"not null;default:true" json:"notify_likes"`
	NotifyComments  bool `gorm:"not null;default:true" json:"notify_comments"`
	NotifyFollows   bool `gorm:"not null;default:true" json:"notify_follows"`
	NotifyReplies   bool `gorm:"not null;default:true" json:"notify_replies"`
	NotifyBugStatus bool `gorm:"not null;default:true" json:"notify_bug_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Allows reports whether the preferences permit a notification of the given type.
func (p *UserPreferences) Allows(notificationType string) bool {
	switch notificationType {
	case NotificationTypeLike:
		return p.NotifyLikes
	case NotificationTypeComment:
		return p.NotifyComments
	case NotificationTypeFollow:
		return p.NotifyFollows
	case NotificationTypeReply:
		return p.NotifyReplies
	case NotificationTypeBugStatusUpdate:
		return p.NotifyBugStatus
	}
	return true
}

// DefaultPreferences returns the lazily-created row with every type enabled.
func DefaultPreferences(userID uint) *UserPreferences {
	return &UserPreferences{
		UserID:          userID,
		NotifyLikes:     true,
		NotifyComments:  true,
		NotifyFollows:   true,
		NotifyReplies:   true,
		NotifyBugStatus: true,
	}
}
