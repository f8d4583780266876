package service

import (
	"context"
	"log"
	"strings"

	"snipstream/internal/models"
	"snipstream/internal/realtime"
	"snipstream/internal/repository"
)

// DocService manages long-form documentation posts.
type DocService struct {
	docRepo    repository.DocRepository
	userRepo   repository.UserRepository
	dispatcher *realtime.Dispatcher
}

// CreateDocInput carries a new doc.
type CreateDocInput struct {
	AuthorID uint
	Title    string
	Body     string
	Tags     []string
	IsPublic bool
}

// UpdateDocInput carries an edit; zero-value fields are left unchanged.
type UpdateDocInput struct {
	AuthorID uint
	DocID    uint
	Title    string
	Body     string
	Tags     []string
}

// NewDocService creates a doc service.
func NewDocService(
	docRepo repository.DocRepository,
	userRepo repository.UserRepository,
	dispatcher *realtime.Dispatcher,
) *DocService {
	return &DocService{docRepo: docRepo, userRepo: userRepo, dispatcher: dispatcher}
}

// Create validates and stores a doc, then fans it out to followers.
func (s *DocService) Create(ctx context.Context, in CreateDocInput) (*models.Doc, error) {
	if err := validateTitleAndBody(in.Title, in.Body); err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	doc := &models.Doc{
		Title:    strings.TrimSpace(in.Title),
		Body:     in.Body,
		Tags:     tags,
		IsPublic: in.IsPublic,
		AuthorID: in.AuthorID,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.userRepo.AdjustContentCount(ctx, in.AuthorID, 1); err != nil {
		log.Printf("failed to bump content count for user %d: %v", in.AuthorID, err)
	}

	if s.dispatcher != nil && doc.IsPublic {
		s.dispatcher.PublishToFollowers(ctx, in.AuthorID, realtime.Event{
			Type:    realtime.EventNewDoc,
			Payload: doc,
		})
	}
	return doc, nil
}

// Get returns one doc with viewer-specific flags.
func (s *DocService) Get(ctx context.Context, id, viewerID uint) (*models.Doc, error) {
	return s.docRepo.GetByID(ctx, id, viewerID)
}

// ListByAuthor returns an author's docs, newest first.
func (s *DocService) ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Doc, error) {
	limit, offset = clampPagination(limit, offset)
	return s.docRepo.ListByAuthor(ctx, authorID, limit, offset, viewerID)
}

// Search finds docs by substring and/or tag set.
func (s *DocService) Search(ctx context.Context, query string, tags []string, limit, offset int, viewerID uint) ([]*models.Doc, error) {
	if query == "" && len(tags) == 0 {
		return nil, models.NewValidationError("Search query or tags required")
	}
	limit, offset = clampPagination(limit, offset)
	return s.docRepo.Search(ctx, query, tags, limit, offset, viewerID)
}

// Update applies an author's edit.
func (s *DocService) Update(ctx context.Context, in UpdateDocInput) (*models.Doc, error) {
	doc, err := s.docRepo.GetByID(ctx, in.DocID, in.AuthorID)
	if err != nil {
		return nil, err
	}
	if doc.AuthorID != in.AuthorID {
		return nil, models.NewForbiddenError("Only the author can edit this doc")
	}

	if in.Title != "" {
		if len(in.Title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 200 characters)")
		}
		doc.Title = strings.TrimSpace(in.Title)
	}
	if in.Body != "" {
		if len(in.Body) > maxContentLen {
			return nil, models.NewValidationError("Content too long")
		}
		doc.Body = in.Body
	}
	if in.Tags != nil {
		tags, err := normalizeTags(in.Tags)
		if err != nil {
			return nil, err
		}
		doc.Tags = tags
	}

	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a doc and its engagement rows.
func (s *DocService) Delete(ctx context.Context, docID, userID uint) error {
	doc, err := s.docRepo.GetByID(ctx, docID, userID)
	if err != nil {
		return err
	}
	if doc.AuthorID != userID {
		return models.NewForbiddenError("Only the author can delete this doc")
	}
	if err := s.docRepo.Delete(ctx, docID); err != nil {
		return err
	}
	if err := s.userRepo.AdjustContentCount(ctx, userID, -1); err != nil {
		log.Printf("failed to drop content count for user %d: %v", userID, err)
	}
	return nil
}
