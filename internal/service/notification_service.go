package service

import (
	"context"
	"log"

	"snipstream/internal/models"
	"snipstream/internal/observability"
	"snipstream/internal/realtime"
	"snipstream/internal/repository"
)

// NotificationService creates and queries user notifications.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	preferenceRepo   repository.PreferenceRepository
	dispatcher       *realtime.Dispatcher
}

// CreateNotificationInput carries one triggering action. At most one of the
// content references is set.
type CreateNotificationInput struct {
	RecipientID uint
	SenderID    uint
	Type        string
	SnippetID   *uint
	DocID       *uint
	BugID       *uint
	CommentID   *uint
}

// NewNotificationService creates a notification service.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	preferenceRepo repository.PreferenceRepository,
	dispatcher *realtime.Dispatcher,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		preferenceRepo:   preferenceRepo,
		dispatcher:       dispatcher,
	}
}

// Create persists a notification and pushes it to the recipient's private
// channel. Self-actions are suppressed entirely: when the recipient is the
// sender, nothing is written and nothing is published. A recipient preference
// disabling the type suppresses it the same way. Duplicate trigger data is
// not deduplicated; two identical calls create two rows.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) error {
	if input.RecipientID == input.SenderID {
		return nil
	}
	if !models.ValidNotificationType(input.Type) {
		return models.NewValidationError("Unknown notification type")
	}

	prefs, err := s.preferenceRepo.GetOrCreate(ctx, input.RecipientID)
	if err != nil {
		return err
	}
	if !prefs.Allows(input.Type) {
		return nil
	}

	sender, err := s.userRepo.GetByID(ctx, input.SenderID)
	if err != nil {
		return err
	}

	notification := &models.Notification{
		Type:           input.Type,
		RecipientID:    input.RecipientID,
		SenderID:       input.SenderID,
		SenderUsername: sender.Username,
		SenderAvatar:   sender.Avatar,
		SnippetID:      input.SnippetID,
		DocID:          input.DocID,
		BugID:          input.BugID,
		CommentID:      input.CommentID,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}
	observability.NotificationsCreated.WithLabelValues(input.Type).Inc()

	// Push after the row is durable. Publish failures are the dispatcher's
	// problem; they never fail the triggering action.
	if s.dispatcher != nil {
		s.dispatcher.PublishToUser(ctx, input.RecipientID, realtime.Event{
			Type:    realtime.EventNewNotification,
			Payload: notification,
		})
	}
	return nil
}

// List returns one page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.ListByRecipient(ctx, userID, limit, offset)
}

// MarkRead marks the given notification ids read for userID; an empty list
// marks all. IDs owned by other users are silently filtered, never mutated.
func (s *NotificationService) MarkRead(ctx context.Context, userID uint, ids []uint) error {
	return s.notificationRepo.MarkRead(ctx, userID, ids)
}

// UnreadCount returns the badge count for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, userID)
}

// GetPreferences returns the user's notification toggles, creating defaults
// on first access.
func (s *NotificationService) GetPreferences(ctx context.Context, userID uint) (*models.UserPreferences, error) {
	return s.preferenceRepo.GetOrCreate(ctx, userID)
}

// UpdatePreferencesInput carries the full toggle set.
type UpdatePreferencesInput struct {
	NotifyLikes     bool `json:"notify_likes"`
	NotifyComments  bool `json:"notify_comments"`
	NotifyFollows   bool `json:"notify_follows"`
	NotifyReplies   bool `json:"notify_replies"`
	NotifyBugStatus bool `json:"notify_bug_status"`
}

// UpdatePreferences replaces the user's notification toggles.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID uint, input UpdatePreferencesInput) (*models.UserPreferences, error) {
	prefs, err := s.preferenceRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs.NotifyLikes = input.NotifyLikes
	prefs.NotifyComments = input.NotifyComments
	prefs.NotifyFollows = input.NotifyFollows
	prefs.NotifyReplies = input.NotifyReplies
	prefs.NotifyBugStatus = input.NotifyBugStatus
	if err := s.preferenceRepo.Update(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// notify is the fire-and-forget form used by other services after their own
// mutation has committed: errors are logged and swallowed.
func (s *NotificationService) notify(ctx context.Context, input CreateNotificationInput) {
	if err := s.Create(ctx, input); err != nil {
		log.Printf("failed to create %s notification for user %d: %v", input.Type, input.RecipientID, err)
	}
}
