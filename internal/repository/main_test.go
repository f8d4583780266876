package repository

import (
	"testing"
	"time"

	"snipstream/internal/database"
	"snipstream/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB returns an isolated in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Username: gofakeit.Username() + gofakeit.DigitN(4),
		Email:    gofakeit.Email(),
		Password: "hashed-password",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestSnippet(t *testing.T, db *gorm.DB, authorID uint, createdAt time.Time) *models.Snippet {
	t.Helper()
	snippet := &models.Snippet{
		Title:    gofakeit.Sentence(3),
		Content:  "func main() {}",
		Language: "go",
		IsPublic: true,
		AuthorID: authorID,
	}
	require.NoError(t, db.Create(snippet).Error)
	if !createdAt.IsZero() {
		require.NoError(t, db.Model(snippet).UpdateColumn("created_at", createdAt).Error)
		snippet.CreatedAt = createdAt
	}
	return snippet
}

func createTestBug(t *testing.T, db *gorm.DB, authorID uint, expiresAt time.Time) *models.Bug {
	t.Helper()
	bug := &models.Bug{
		Title:       gofakeit.Sentence(3),
		Description: gofakeit.Sentence(8),
		Status:      models.BugStatusOpen,
		Severity:    models.BugSeverityMedium,
		ExpiresAt:   expiresAt,
		AuthorID:    authorID,
	}
	require.NoError(t, db.Create(bug).Error)
	return bug
}
