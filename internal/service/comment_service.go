package service

import (
	"context"
	"strings"

	"snipstream/internal/models"
	"snipstream/internal/realtime"
	"snipstream/internal/repository"
)

const maxCommentLen = 4096

// CommentService manages comments and replies on content items.
type CommentService struct {
	commentRepo   repository.CommentRepository
	snippetRepo   repository.SnippetRepository
	docRepo       repository.DocRepository
	bugRepo       repository.BugRepository
	dispatcher    *realtime.Dispatcher
	notifications *NotificationService
}

// CreateCommentInput carries a new comment or reply.
type CreateCommentInput struct {
	AuthorID  uint
	Kind      models.ContentKind
	ContentID uint
	ParentID  *uint
	Content   string
}

// NewCommentService creates a comment service.
func NewCommentService(
	commentRepo repository.CommentRepository,
	snippetRepo repository.SnippetRepository,
	docRepo repository.DocRepository,
	bugRepo repository.BugRepository,
	dispatcher *realtime.Dispatcher,
	notifications *NotificationService,
) *CommentService {
	return &CommentService{
		commentRepo:   commentRepo,
		snippetRepo:   snippetRepo,
		docRepo:       docRepo,
		bugRepo:       bugRepo,
		dispatcher:    dispatcher,
		notifications: notifications,
	}
}

// contentAuthor resolves the owning item's author, verifying the item exists
// and is visible.
func (s *CommentService) contentAuthor(ctx context.Context, kind models.ContentKind, contentID uint) (uint, error) {
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

// Create stores a comment, notifies the content author (COMMENT) or the
// parent comment's author (REPLY), and pushes the comment to the item's live
// room. Self-comments produce no notification.
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long")
	}

	contentAuthorID, err := s.contentAuthor(ctx, in.Kind, in.ContentID)
	if err != nil {
		return nil, err
	}

	var parent *models.Comment
	if in.ParentID != nil {
		parent, err = s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.ParentID != nil {
			return nil, models.NewValidationError("Replies cannot be nested further")
		}
	}

	comment := &models.Comment{
		Content:  in.Content,
		AuthorID: in.AuthorID,
		ParentID: in.ParentID,
	}
	contentID := in.ContentID
	switch in.Kind {
	case models.KindSnippet:
		comment.SnippetID = &contentID
	case models.KindDoc:
		comment.DocID = &contentID
	case models.KindBug:
		comment.BugID = &contentID
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		s.dispatcher.PublishToContent(ctx, in.Kind, in.ContentID, realtime.Event{
			Type:    realtime.EventNewComment,
			Payload: comment,
		})
	}
	if s.notifications != nil {
		notification := CreateNotificationInput{
			SenderID:  in.AuthorID,
			CommentID: &comment.ID,
		}
		switch in.Kind {
		case models.KindSnippet:
			notification.SnippetID = &contentID
		case models.KindDoc:
			notification.DocID = &contentID
		case models.KindBug:
			notification.BugID = &contentID
		}
		if parent != nil {
			notification.RecipientID = parent.AuthorID
			notification.Type = models.NotificationTypeReply
		} else {
			notification.RecipientID = contentAuthorID
			notification.Type = models.NotificationTypeComment
		}
		s.notifications.notify(ctx, notification)
	}
	return comment, nil
}

// List returns one page of top-level comments for a content item, replies
// included.
func (s *CommentService) List(ctx context.Context, kind models.ContentKind, contentID uint, limit, offset int) ([]models.Comment, error) {
	if _, err := s.contentAuthor(ctx, kind, contentID); err != nil {
		return nil, err
	}
	limit, offset = clampPagination(limit, offset)
	return s.commentRepo.ListByContent(ctx, kind, contentID, limit, offset)
}

// Delete removes the caller's own comment.
func (s *CommentService) Delete(ctx context.Context, commentID, userID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != userID {
		return models.NewForbiddenError("Only the author can delete this comment")
	}
	return s.commentRepo.Delete(ctx, commentID)
}
