package service

import (
	"context"
	"log"
	"strings"
	"time"

	"snipstream/internal/models"
	"snipstream/internal/realtime"
	"snipstream/internal/repository"
)

const (
	minBugTTL     = time.Hour
	maxBugTTL     = 30 * 24 * time.Hour
	defaultBugTTL = 7 * 24 * time.Hour
)

// BugService manages time-limited bug reports.
type BugService struct {
	bugRepo       repository.BugRepository
	userRepo      repository.UserRepository
	dispatcher    *realtime.Dispatcher
	notifications *NotificationService
}

// CreateBugInput carries a new bug report. A zero TTL gets the default.
type CreateBugInput struct {
	AuthorID    uint
	Title       string
	Description string
	Severity    string
	Tags        []string
	TTL         time.Duration
}

// NewBugService creates a bug service.
func NewBugService(
	bugRepo repository.BugRepository,
	userRepo repository.UserRepository,
	dispatcher *realtime.Dispatcher,
	notifications *NotificationService,
) *BugService {
	return &BugService{
		bugRepo:       bugRepo,
		userRepo:      userRepo,
		dispatcher:    dispatcher,
		notifications: notifications,
	}
}

// Create validates and stores a bug report, then fans it out to followers.
func (s *BugService) Create(ctx context.Context, in CreateBugInput) (*models.Bug, error) {
	if err := validateTitleAndBody(in.Title, in.Description); err != nil {
		return nil, err
	}
	severity := in.Severity
	if severity == "" {
		severity = models.BugSeverityMedium
	}
	if !models.ValidBugSeverity(severity) {
		return nil, models.NewValidationError("Unknown bug severity")
	}
	ttl := in.TTL
	if ttl == 0 {
		ttl = defaultBugTTL
	}
	if ttl < minBugTTL || ttl > maxBugTTL {
		return nil, models.NewValidationError("Bug lifetime must be between 1 hour and 30 days")
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	bug := &models.Bug{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      models.BugStatusOpen,
		Severity:    severity,
		Tags:        tags,
		ExpiresAt:   time.Now().Add(ttl),
		AuthorID:    in.AuthorID,
	}
	if err := s.bugRepo.Create(ctx, bug); err != nil {
		return nil, err
	}
	if err := s.userRepo.AdjustContentCount(ctx, in.AuthorID, 1); err != nil {
		log.Printf("failed to bump content count for user %d: %v", in.AuthorID, err)
	}

	if s.dispatcher != nil {
		s.dispatcher.PublishToFollowers(ctx, in.AuthorID, realtime.Event{
			Type:    realtime.EventNewBug,
			Payload: bug,
		})
	}
	return bug, nil
}

// Get returns one active bug with viewer-specific flags. Expired bugs read as
// not found regardless of sweep timing.
func (s *BugService) Get(ctx context.Context, id, viewerID uint) (*models.Bug, error) {
	return s.bugRepo.GetByID(ctx, id, viewerID)
}

// ListByAuthor returns an author's active bugs, newest first.
func (s *BugService) ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Bug, error) {
	limit, offset = clampPagination(limit, offset)
	return s.bugRepo.ListByAuthor(ctx, authorID, limit, offset, viewerID)
}

// Search finds active bugs by substring and/or tag set.
func (s *BugService) Search(ctx context.Context, query string, tags []string, limit, offset int, viewerID uint) ([]*models.Bug, error) {
	if query == "" && len(tags) == 0 {
		return nil, models.NewValidationError("Search query or tags required")
	}
	limit, offset = clampPagination(limit, offset)
	return s.bugRepo.Search(ctx, query, tags, limit, offset, viewerID)
}

// UpdateStatus moves a bug through its lifecycle. Only the author may change
// status. Watchers of the bug's live room see the change, and the author gets
// a notification when someone else triggers it (which cannot happen today, but
// the engine suppresses the self-case anyway).
func (s *BugService) UpdateStatus(ctx context.Context, bugID, userID uint, status string) (*models.Bug, error) {
	if !models.ValidBugStatus(status) {
		return nil, models.NewValidationError("Unknown bug status")
	}
	bug, err := s.bugRepo.GetByID(ctx, bugID, userID)
	if err != nil {
		return nil, err
	}
	if bug.AuthorID != userID {
		return nil, models.NewForbiddenError("Only the author can update this bug")
	}
	if err := s.bugRepo.UpdateStatus(ctx, bugID, status); err != nil {
		return nil, err
	}
	bug.Status = status

	if s.dispatcher != nil {
		s.dispatcher.PublishToContent(ctx, models.KindBug, bugID, realtime.Event{
			Type:    realtime.EventBugStatusUpdated,
			Payload: map[string]interface{}{"id": bugID, "status": status},
		})
	}
	if s.notifications != nil {
		bugRef := bugID
		s.notifications.notify(ctx, CreateNotificationInput{
			RecipientID: bug.AuthorID,
			SenderID:    userID,
			Type:        models.NotificationTypeBugStatusUpdate,
			BugID:       &bugRef,
		})
	}
	return bug, nil
}

// Delete removes a bug before its expiry.
func (s *BugService) Delete(ctx context.Context, bugID, userID uint) error {
	bug, err := s.bugRepo.GetByID(ctx, bugID, userID)
	if err != nil {
		return err
	}
	if bug.AuthorID != userID {
		return models.NewForbiddenError("Only the author can delete this bug")
	}
	if err := s.bugRepo.Delete(ctx, bugID); err != nil {
		return err
	}
	if err := s.userRepo.AdjustContentCount(ctx, userID, -1); err != nil {
		log.Printf("failed to drop content count for user %d: %v", userID, err)
	}
	return nil
}
