package service

import (
	"context"
	"log"
	"strings"

	"snipstream/internal/models"
	"snipstream/internal/realtime"
	"snipstream/internal/repository"
)

const (
	maxTitleLen   = 200
	maxContentLen = 65536
	maxTagsLen    = 500
)

// SnippetService manages code snippets.
type SnippetService struct {
	snippetRepo repository.SnippetRepository
	userRepo    repository.UserRepository
	dispatcher  *realtime.Dispatcher
}

// CreateSnippetInput carries a new snippet.
type CreateSnippetInput struct {
	AuthorID uint
	Title    string
	Content  string
	Language string
	Tags     []string
	IsPublic bool
}

// UpdateSnippetInput carries an edit; zero-value fields are left unchanged.
type UpdateSnippetInput struct {
	AuthorID  uint
	SnippetID uint
	Title     string
	Content   string
	Language  string
	Tags      []string
}

// NewSnippetService creates a snippet service.
func NewSnippetService(
	snippetRepo repository.SnippetRepository,
	userRepo repository.UserRepository,
	dispatcher *realtime.Dispatcher,
) *SnippetService {
	return &SnippetService{snippetRepo: snippetRepo, userRepo: userRepo, dispatcher: dispatcher}
}

func normalizeTags(tags []string) (string, error) {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if strings.Contains(tag, ",") {
			return "", models.NewValidationError("Tags must not contain commas")
		}
		cleaned = append(cleaned, tag)
	}
	joined := strings.Join(cleaned, ",")
	if len(joined) > maxTagsLen {
		return "", models.NewValidationError("Too many tags")
	}
	return joined, nil
}

func validateTitleAndBody(title, body string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 200 characters)")
	}
	if strings.TrimSpace(body) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(body) > maxContentLen {
		return models.NewValidationError("Content too long")
	}
	return nil
}

// Create validates and stores a snippet, then fans the new item out to the
// author's followers.
func (s *SnippetService) Create(ctx context.Context, in CreateSnippetInput) (*models.Snippet, error) {
	if err := validateTitleAndBody(in.Title, in.Content); err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	snippet := &models.Snippet{
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		Language: strings.ToLower(strings.TrimSpace(in.Language)),
		Tags:     tags,
		IsPublic: in.IsPublic,
		AuthorID: in.AuthorID,
	}
	if err := s.snippetRepo.Create(ctx, snippet); err != nil {
		return nil, err
	}
	if err := s.userRepo.AdjustContentCount(ctx, in.AuthorID, 1); err != nil {
		log.Printf("failed to bump content count for user %d: %v", in.AuthorID, err)
	}

	if s.dispatcher != nil && snippet.IsPublic {
		s.dispatcher.PublishToFollowers(ctx, in.AuthorID, realtime.Event{
			Type:    realtime.EventNewSnippet,
			Payload: snippet,
		})
	}
	return snippet, nil
}

// Get returns one snippet with viewer-specific flags.
func (s *SnippetService) Get(ctx context.Context, id, viewerID uint) (*models.Snippet, error) {
	return s.snippetRepo.GetByID(ctx, id, viewerID)
}

// ListByAuthor returns an author's snippets, newest first.
func (s *SnippetService) ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Snippet, error) {
	limit, offset = clampPagination(limit, offset)
	return s.snippetRepo.ListByAuthor(ctx, authorID, limit, offset, viewerID)
}

// Search finds snippets by substring and/or tag set.
func (s *SnippetService) Search(ctx context.Context, query string, tags []string, limit, offset int, viewerID uint) ([]*models.Snippet, error) {
	if query == "" && len(tags) == 0 {
		return nil, models.NewValidationError("Search query or tags required")
	}
	limit, offset = clampPagination(limit, offset)
	return s.snippetRepo.Search(ctx, query, tags, limit, offset, viewerID)
}

// Update applies an author's edit.
func (s *SnippetService) Update(ctx context.Context, in UpdateSnippetInput) (*models.Snippet, error) {
	snippet, err := s.snippetRepo.GetByID(ctx, in.SnippetID, in.AuthorID)
	if err != nil {
		return nil, err
	}
	if snippet.AuthorID != in.AuthorID {
		return nil, models.NewForbiddenError("Only the author can edit this snippet")
	}

	if in.Title != "" {
		if len(in.Title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 200 characters)")
		}
		snippet.Title = strings.TrimSpace(in.Title)
	}
	if in.Content != "" {
		if len(in.Content) > maxContentLen {
			return nil, models.NewValidationError("Content too long")
		}
		snippet.Content = in.Content
	}
	if in.Language != "" {
		snippet.Language = strings.ToLower(strings.TrimSpace(in.Language))
	}
	if in.Tags != nil {
		tags, err := normalizeTags(in.Tags)
		if err != nil {
			return nil, err
		}
		snippet.Tags = tags
	}

	if err := s.snippetRepo.Update(ctx, snippet); err != nil {
		return nil, err
	}
	return snippet, nil
}

// Delete removes a snippet and its engagement rows.
func (s *SnippetService) Delete(ctx context.Context, snippetID, userID uint) error {
	snippet, err := s.snippetRepo.GetByID(ctx, snippetID, userID)
	if err != nil {
		return err
	}
	if snippet.AuthorID != userID {
		return models.NewForbiddenError("Only the author can delete this snippet")
	}
	if err := s.snippetRepo.Delete(ctx, snippetID); err != nil {
		return err
	}
	if err := s.userRepo.AdjustContentCount(ctx, userID, -1); err != nil {
		log.Printf("failed to drop content count for user %d: %v", userID, err)
	}
	return nil
}

func clampPagination(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
