package service

import (
	"context"

	"snipstream/internal/models"
	"snipstream/internal/realtime"
	"snipstream/internal/repository"
)

// InteractionService handles likes and bookmarks across the three content
// kinds.
type InteractionService struct {
	likeRepo      repository.LikeRepository
	bookmarkRepo  repository.BookmarkRepository
	snippetRepo   repository.SnippetRepository
	docRepo       repository.DocRepository
	bugRepo       repository.BugRepository
	dispatcher    *realtime.Dispatcher
	notifications *NotificationService
}

// NewInteractionService creates an interaction service.
func NewInteractionService(
	likeRepo repository.LikeRepository,
	bookmarkRepo repository.BookmarkRepository,
	snippetRepo repository.SnippetRepository,
	docRepo repository.DocRepository,
	bugRepo repository.BugRepository,
	dispatcher *realtime.Dispatcher,
	notifications *NotificationService,
) *InteractionService {
	return &InteractionService{
		likeRepo:      likeRepo,
		bookmarkRepo:  bookmarkRepo,
		snippetRepo:   snippetRepo,
		docRepo:       docRepo,
		bugRepo:       bugRepo,
		dispatcher:    dispatcher,
		notifications: notifications,
	}
}

func (s *InteractionService) contentAuthor(ctx context.Context, kind models.ContentKind, contentID uint) (uint, error) {
	switch kind {
	case models.KindSnippet:
		snippet, err := s.snippetRepo.GetByID(ctx, contentID, 0)
		if err != nil {
			return 0, err
		}
		return snippet.AuthorID, nil
	case models.KindDoc:
		doc, err := s.docRepo.GetByID(ctx, contentID, 0)
		if err != nil {
			return 0, err
		}
		return doc.AuthorID, nil
	case models.KindBug:
		bug, err := s.bugRepo.GetByID(ctx, contentID, 0)
		if err != nil {
			return 0, err
		}
		return bug.AuthorID, nil
	}
	return 0, models.NewValidationError("Unknown content type")
}

// ToggleLike flips the user's like on an item and reports the new state. A
// fresh like notifies the item's author (never on un-like, so a toggle cycle
// produces one notification, not two) and the item's live room sees the new
// count.
func (s *InteractionService) ToggleLike(ctx context.Context, userID uint, kind models.ContentKind, contentID uint) (bool, int64, error) {
	authorID, err := s.contentAuthor(ctx, kind, contentID)
	if err != nil {
		return false, 0, err
	}

	liked, err := s.likeRepo.Toggle(ctx, userID, kind, contentID)
	if err != nil {
		return false, 0, err
	}
	count, err := s.likeRepo.Count(ctx, kind, contentID)
	if err != nil {
		return false, 0, err
	}

	if s.dispatcher != nil {
		s.dispatcher.PublishToContent(ctx, kind, contentID, realtime.Event{
			Type: realtime.EventLikeUpdated,
			Payload: map[string]interface{}{
				"kind":        kind,
				"id":          contentID,
				"likes_count": count,
			},
		})
	}
	if liked && s.notifications != nil {
		notification := CreateNotificationInput{
			RecipientID: authorID,
			SenderID:    userID,
			Type:        models.NotificationTypeLike,
		}
		ref := contentID
		switch kind {
		case models.KindSnippet:
			notification.SnippetID = &ref
		case models.KindDoc:
			notification.DocID = &ref
		case models.KindBug:
			notification.BugID = &ref
		}
		s.notifications.notify(ctx, notification)
	}
	return liked, count, nil
}

// ToggleBookmark flips the user's bookmark on an item. Bookmarks are private:
// no notification, no room event.
func (s *InteractionService) ToggleBookmark(ctx context.Context, userID uint, kind models.ContentKind, contentID uint) (bool, error) {
	if _, err := s.contentAuthor(ctx, kind, contentID); err != nil {
		return false, err
	}
	return s.bookmarkRepo.Toggle(ctx, userID, kind, contentID)
}

// ListBookmarks returns one page of the user's bookmarks, newest first.
func (s *InteractionService) ListBookmarks(ctx context.Context, userID uint, limit, offset int) ([]models.Bookmark, error) {
	limit, offset = clampPagination(limit, offset)
	return s.bookmarkRepo.ListByUser(ctx, userID, limit, offset)
}
