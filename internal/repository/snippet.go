package repository

import (
	"context"
	"errors"

	"snipstream/internal/models"

	"gorm.io/gorm"
)

// SnippetRepository defines the interface for snippet data operations
type SnippetRepository interface {
	Create(ctx context.Context, snippet *models.Snippet) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Snippet, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, limit int, viewerID uint) ([]*models.Snippet, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Snippet, error)
	ListPublic(ctx context.Context, limit, offset int) ([]*models.Snippet, error)
	Search(ctx context.Context, query string, tags []string, limit, offset int, viewerID uint) ([]*models.Snippet, error)
	CountByAuthors(ctx context.Context, authorIDs []uint) (int64, error)
	Update(ctx context.Context, snippet *models.Snippet) error
	Delete(ctx context.Context, id uint) error
}

type snippetRepository struct {
	db *gorm.DB
}

// NewSnippetRepository creates a new snippet repository
func NewSnippetRepository(db *gorm.DB) SnippetRepository {
	return &snippetRepository{db: db}
}

// applyDetails selects the aggregate counts and, for a signed-in viewer, the
// viewer's own like/bookmark membership as computed columns.
func (r *snippetRepository) applyDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "snippets.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.snippet_id = snippets.id AND comments.deleted_at IS NULL) as comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.snippet_id = snippets.id) as likes_count, " +
		"(SELECT COUNT(*) FROM bookmarks WHERE bookmarks.snippet_id = snippets.id) as bookmarks_count"

	if viewerID != 0 {
		return db.Select(selectQuery+
			", EXISTS(SELECT 1 FROM likes WHERE likes.snippet_id = snippets.id AND likes.user_id = ?) as liked"+
			", EXISTS(SELECT 1 FROM bookmarks WHERE bookmarks.snippet_id = snippets.id AND bookmarks.user_id = ?) as bookmarked",
			viewerID, viewerID)
	}

	return db.Select(selectQuery + ", 0 as liked, 0 as bookmarked")
}

func (r *snippetRepository) Create(ctx context.Context, snippet *models.Snippet) error {
	if err := r.db.WithContext(ctx).Create(snippet).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *snippetRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Snippet, error) {
	var snippet models.Snippet
	err := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		First(&snippet, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Snippet", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &snippet, nil
}

// ListByAuthors returns public snippets by the given authors, newest first.
// This is the feed candidate query: limit bounds the per-kind query cost.
func (r *snippetRepository) ListByAuthors(ctx context.Context, authorIDs []uint, limit int, viewerID uint) ([]*models.Snippet, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var snippets []*models.Snippet
	err := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("author_id IN ? AND is_public = ?", authorIDs, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&snippets).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return snippets, nil
}

func (r *snippetRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Snippet, error) {
	var snippets []*models.Snippet
	q := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("author_id = ?", authorID)
	if viewerID != authorID {
		q = q.Where("is_public = ?", true)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&snippets).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return snippets, nil
}

// ListPublic returns the most recent public snippets system-wide, unfiltered by
// the follow graph. Used by the empty-feed fallback; carries no viewer flags.
func (r *snippetRepository) ListPublic(ctx context.Context, limit, offset int) ([]*models.Snippet, error) {
	var snippets []*models.Snippet
	err := r.applyDetails(r.db.WithContext(ctx), 0).
		Preload("Author").
		Where("is_public = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&snippets).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return snippets, nil
}

func (r *snippetRepository) Search(ctx context.Context, query string, tags []string, limit, offset int, viewerID uint) ([]*models.Snippet, error) {
	var snippets []*models.Snippet
	q := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("is_public = ?", true)
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(snippets.title) LIKE LOWER(?) OR LOWER(snippets.content) LIKE LOWER(?)", like, like)
	}
	if cond, args := anyTagCondition("snippets", tags); cond != "" {
		q = q.Where(cond, args...)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&snippets).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return snippets, nil
}

func (r *snippetRepository) CountByAuthors(ctx context.Context, authorIDs []uint) (int64, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Snippet{}).
		Where("author_id IN ? AND is_public = ?", authorIDs, true).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *snippetRepository) Update(ctx context.Context, snippet *models.Snippet) error {
	if err := r.db.WithContext(ctx).Save(snippet).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the snippet and its dependent rows in one transaction.
func (r *snippetRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snippet_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("snippet_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("snippet_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Snippet{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
