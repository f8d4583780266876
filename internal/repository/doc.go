package repository

import (
	"context"
	"errors"

	"snipstream/internal/models"

	"gorm.io/gorm"
)

// DocRepository defines the interface for doc data operations
type DocRepository interface {
	Create(ctx context.Context, doc *models.Doc) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Doc, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, limit int, viewerID uint) ([]*models.Doc, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Doc, error)
	Search(ctx context.Context, query string, tags []string, limit, offset int, viewerID uint) ([]*models.Doc, error)
	CountByAuthors(ctx context.Context, authorIDs []uint) (int64, error)
	Update(ctx context.Context, doc *models.Doc) error
	Delete(ctx context.Context, id uint) error
}

type docRepository struct {
	db *gorm.DB
}

// NewDocRepository creates a new doc repository
func NewDocRepository(db *gorm.DB) DocRepository {
	return &docRepository{db: db}
}

func (r *docRepository) applyDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "docs.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.doc_id = docs.id AND comments.deleted_at IS NULL) as comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.doc_id = docs.id) as likes_count, " +
		"(SELECT COUNT(*) FROM bookmarks WHERE bookmarks.doc_id = docs.id) as bookmarks_count"

	if viewerID != 0 {
		return db.Select(selectQuery+
			", EXISTS(SELECT 1 FROM likes WHERE likes.doc_id = docs.id AND likes.user_id = ?) as liked"+
			", EXISTS(SELECT 1 FROM bookmarks WHERE bookmarks.doc_id = docs.id AND bookmarks.user_id = ?) as bookmarked",
			viewerID, viewerID)
	}

	return db.Select(selectQuery + ", 0 as liked, 0 as bookmarked")
}

func (r *docRepository) Create(ctx context.Context, doc *models.Doc) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *docRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Doc, error) {
	var doc models.Doc
	err := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		First(&doc, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Doc", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &doc, nil
}

// ListByAuthors returns public docs by the given authors, newest first.
func (r *docRepository) ListByAuthors(ctx context.Context, authorIDs []uint, limit int, viewerID uint) ([]*models.Doc, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var docs []*models.Doc
	err := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("author_id IN ? AND is_public = ?", authorIDs, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return docs, nil
}

func (r *docRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Doc, error) {
	var docs []*models.Doc
	q := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("author_id = ?", authorID)
	if viewerID != authorID {
		q = q.Where("is_public = ?", true)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return docs, nil
}

func (r *docRepository) Search(ctx context.Context, query string, tags []string, limit, offset int, viewerID uint) ([]*models.Doc, error) {
	var docs []*models.Doc
	q := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("is_public = ?", true)
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(docs.title) LIKE LOWER(?) OR LOWER(docs.body) LIKE LOWER(?)", like, like)
	}
	if cond, args := anyTagCondition("docs", tags); cond != "" {
		q = q.Where(cond, args...)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return docs, nil
}

func (r *docRepository) CountByAuthors(ctx context.Context, authorIDs []uint) (int64, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Doc{}).
		Where("author_id IN ? AND is_public = ?", authorIDs, true).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *docRepository) Update(ctx context.Context, doc *models.Doc) error {
	if err := r.db.WithContext(ctx).Save(doc).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the doc and its dependent rows in one transaction.
func (r *docRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doc_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("doc_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("doc_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Doc{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
