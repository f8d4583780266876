package repository

import (
	"context"
	"errors"

	"snipstream/internal/models"

	"gorm.io/gorm"
)

// PreferenceRepository defines the interface for notification preference data operations
type PreferenceRepository interface {
	// GetOrCreate returns the user's preferences, creating the default row
	// on first access.
	GetOrCreate(ctx context.Context, userID uint) (*models.UserPreferences, error)
	Update(ctx context.Context, prefs *models.UserPreferences) error
}

type preferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) GetOrCreate(ctx context.Context, userID uint) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err == nil {
		return &prefs, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	created := models.DefaultPreferences(userID)
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		// Lost a race with a concurrent first access; re-read the winner's row.
		var again models.UserPreferences
		if readErr := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&again).Error; readErr == nil {
			return &again, nil
		}
		return nil, models.NewInternalError(err)
	}
	return created, nil
}

func (r *preferenceRepository) Update(ctx context.Context, prefs *models.UserPreferences) error {
	if err := r.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
