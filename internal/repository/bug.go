package repository

import (
	"context"
	"errors"
	"time"

	"snipstream/internal/models"

	"gorm.io/gorm"
)

// BugRepository defines the interface for bug report data operations.
// Every read filters on expires_at independently of the cleanup sweep, which
// is best-effort and may lag.
type BugRepository interface {
	Create(ctx context.Context, bug *models.Bug) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Bug, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, limit int, viewerID uint) ([]*models.Bug, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Bug, error)
	Search(ctx context.Context, query string, tags []string, limit, offset int, viewerID uint) ([]*models.Bug, error)
	CountByAuthors(ctx context.Context, authorIDs []uint) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	Update(ctx context.Context, bug *models.Bug) error
	Delete(ctx context.Context, id uint) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type bugRepository struct {
	db *gorm.DB
}

// NewBugRepository creates a new bug repository
func NewBugRepository(db *gorm.DB) BugRepository {
	return &bugRepository{db: db}
}

func (r *bugRepository) applyDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "bugs.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.bug_id = bugs.id AND comments.deleted_at IS NULL) as comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.bug_id = bugs.id) as likes_count, " +
		"(SELECT COUNT(*) FROM bookmarks WHERE bookmarks.bug_id = bugs.id) as bookmarks_count"

	if viewerID != 0 {
		return db.Select(selectQuery+
			", EXISTS(SELECT 1 FROM likes WHERE likes.bug_id = bugs.id AND likes.user_id = ?) as liked"+
			", EXISTS(SELECT 1 FROM bookmarks WHERE bookmarks.bug_id = bugs.id AND bookmarks.user_id = ?) as bookmarked",
			viewerID, viewerID)
	}

	return db.Select(selectQuery + ", 0 as liked, 0 as bookmarked")
}

func (r *bugRepository) Create(ctx context.Context, bug *models.Bug) error {
	if err := r.db.WithContext(ctx).Create(bug).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *bugRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Bug, error) {
	var bug models.Bug
	err := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("expires_at > ?", time.Now()).
		First(&bug, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Bug", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &bug, nil
}

// ListByAuthors returns active bugs by the given authors, newest first.
func (r *bugRepository) ListByAuthors(ctx context.Context, authorIDs []uint, limit int, viewerID uint) ([]*models.Bug, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var bugs []*models.Bug
	err := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("author_id IN ? AND expires_at > ?", authorIDs, time.Now()).
		Order("created_at DESC").
		Limit(limit).
		Find(&bugs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bugs, nil
}

func (r *bugRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Bug, error) {
	var bugs []*models.Bug
	err := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("author_id = ? AND expires_at > ?", authorID, time.Now()).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bugs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bugs, nil
}

func (r *bugRepository) Search(ctx context.Context, query string, tags []string, limit, offset int, viewerID uint) ([]*models.Bug, error) {
	var bugs []*models.Bug
	q := r.applyDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Where("expires_at > ?", time.Now())
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(bugs.title) LIKE LOWER(?) OR LOWER(bugs.description) LIKE LOWER(?)", like, like)
	}
	if cond, args := anyTagCondition("bugs", tags); cond != "" {
		q = q.Where(cond, args...)
	}
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bugs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bugs, nil
}

func (r *bugRepository) CountByAuthors(ctx context.Context, authorIDs []uint) (int64, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Bug{}).
		Where("author_id IN ? AND expires_at > ?", authorIDs, time.Now()).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *bugRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Bug{}).
		Where("id = ? AND expires_at > ?", id, time.Now()).
		Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Bug", id)
	}
	return nil
}

func (r *bugRepository) Update(ctx context.Context, bug *models.Bug) error {
	if err := r.db.WithContext(ctx).Save(bug).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the bug and its dependent rows in one transaction.
func (r *bugRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bug_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bug_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bug_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Bug{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteExpired removes every bug whose expiry has passed, with dependent rows,
// all-or-nothing. Returns the number of bugs removed.
func (r *bugRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Bug{}).
			Where("expires_at <= ?", now).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("bug_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bug_id IN ?", ids).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bug_id IN ?", ids).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Bug{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return removed, nil
}
