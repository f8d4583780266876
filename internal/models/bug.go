package models

import (
	"time"

	"gorm.io/gorm"
)

// Bug status values.
const (
	BugStatusOpen       = "open"
	BugStatusInProgress = "in_progress"
	BugStatusResolved   = "resolved"
)

// Bug severity values.
const (
	BugSeverityLow      = "low"
	BugSeverityMedium   = "medium"
	BugSeverityHigh     = "high"
	BugSeverityCritical = "critical"
)

// Bug is a time-limited bug report. A bug is visible only while ExpiresAt is in
// the future; an hourly sweep deletes expired rows, but every read path filters
// on ExpiresAt independently since the sweep may lag.
type Bug struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Status      string    `gorm:"not null;default:open;index" json:"status"`
	Severity    string    `gorm:"not null;default:medium" json:"severity"`
	Tags        string    `gorm:"index" json:"tags"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID" json:"author"`

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

// Active reports whether the bug has not yet expired.
func (b *Bug) Active(now time.Time) bool {
	return b.ExpiresAt.After(now)
}

// ValidBugStatus reports whether s is a recognized status value.
func ValidBugStatus(s string) bool {
	switch s {
	case BugStatusOpen, BugStatusInProgress, BugStatusResolved:
		return true
	}
	return false
}

// ValidBugSeverity reports whether s is a recognized severity value.
func ValidBugSeverity(s string) bool {
	switch s {
	case BugSeverityLow, BugSeverityMedium, BugSeverityHigh, BugSeverityCritical:
		return true
	}
	return false
}
