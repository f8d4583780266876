package repository

import (
	"context"
	"errors"

	"snipstream/internal/models"

	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	// Toggle flips the viewer's like on a content item and reports the
	// resulting state (true when the item is now liked).
	Toggle(ctx context.Context, userID uint, kind models.ContentKind, contentID uint) (bool, error)
	HasLiked(ctx context.Context, userID uint, kind models.ContentKind, contentID uint) (bool, error)
	Count(ctx context.Context, kind models.ContentKind, contentID uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Toggle(ctx context.Context, userID uint, kind models.ContentKind, contentID uint) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.Where("user_id = ? AND "+contentColumn(kind)+" = ?", userID, contentID).
			First(&existing).Error
		switch {
		case err == nil:
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.Like{UserID: userID}
			switch kind {
			case models.KindSnippet:
				like.SnippetID = &contentID
			case models.KindDoc:
				like.DocID = &contentID
			case models.KindBug:
				like.BugID = &contentID
			}
			liked = true
			return tx.Create(&like).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return liked, nil
}

func (r *likeRepository) HasLiked(ctx context.Context, userID uint, kind models.ContentKind, contentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND "+contentColumn(kind)+" = ?", userID, contentID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *likeRepository) Count(ctx context.Context, kind models.ContentKind, contentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where(contentColumn(kind)+" = ?", contentID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
