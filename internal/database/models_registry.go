package database

import "snipstream/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Snippet{},
		&models.Doc{},
		&models.Bug{},
		&models.Comment{},
		&models.Like{},
		&models.Bookmark{},
		&models.Notification{},
		&models.UserPreferences{},
	}
}
