package repository

import (
	"context"
	"errors"

	"snipstream/internal/models"

	"gorm.io/gorm"
)

// BookmarkRepository defines the interface for bookmark data operations
type BookmarkRepository interface {
	Toggle(ctx context.Context, userID uint, kind models.ContentKind, contentID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Bookmark, error)
}

type bookmarkRepository struct {
	db *gorm.DB
}

// NewBookmarkRepository creates a new bookmark repository
func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

func (r *bookmarkRepository) Toggle(ctx context.Context, userID uint, kind models.ContentKind, contentID uint) (bool, error) {
	bookmarked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Bookmark
		err := tx.Where("user_id = ? AND "+contentColumn(kind)+" = ?", userID, contentID).
			First(&existing).Error
		switch {
		case err == nil:
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			bookmark := models.Bookmark{UserID: userID}
			switch kind {
			case models.KindSnippet:
				bookmark.SnippetID = &contentID
			case models.KindDoc:
				bookmark.DocID = &contentID
			case models.KindBug:
				bookmark.BugID = &contentID
			}
			bookmarked = true
			return tx.Create(&bookmark).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return bookmarked, nil
}

func (r *bookmarkRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookmarks).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookmarks, nil
}
