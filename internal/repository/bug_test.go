package repository

import (
	"context"
	"testing"
	"time"

	"snipstream/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBugRepository_ExpiredBugsAreInvisible(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBugRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	active := createTestBug(t, db, author.ID, time.Now().Add(24*time.Hour))
	expired := createTestBug(t, db, author.ID, time.Now().Add(-time.Minute))

	// Even though the sweep has not run, the expired row is filtered on read.
	bugs, err := repo.ListByAuthors(ctx, []uint{author.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, bugs, 1)
	assert.Equal(t, active.ID, bugs[0].ID)

	_, err = repo.GetByID(ctx, expired.ID, 0)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	count, err := repo.CountByAuthors(ctx, []uint{author.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBugRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBugRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	bug := createTestBug(t, db, author.ID, time.Now().Add(time.Hour))

	require.NoError(t, repo.UpdateStatus(ctx, bug.ID, models.BugStatusResolved))

	got, err := repo.GetByID(ctx, bug.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, models.BugStatusResolved, got.Status)

	err = repo.UpdateStatus(ctx, 99999, models.BugStatusResolved)
	require.Error(t, err)
}

func TestBugRepository_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBugRepository(db)
	likeRepo := NewLikeRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	viewer := createTestUser(t, db)
	keep := createTestBug(t, db, author.ID, time.Now().Add(time.Hour))
	gone := createTestBug(t, db, author.ID, time.Now().Add(-time.Hour))

	// Attach a like to the expired bug so the cascade is exercised.
	_, err := likeRepo.Toggle(ctx, viewer.ID, models.KindBug, gone.ID)
	require.NoError(t, err)

	deleted, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var bugCount int64
	require.NoError(t, db.Model(&models.Bug{}).Count(&bugCount).Error)
	assert.Equal(t, int64(1), bugCount)

	var likeCount int64
	require.NoError(t, db.Model(&models.Like{}).Where("bug_id = ?", gone.ID).Count(&likeCount).Error)
	assert.Equal(t, int64(0), likeCount)

	_, err = repo.GetByID(ctx, keep.ID, 0)
	require.NoError(t, err)
}

func TestBugRepository_ViewerDetails(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBugRepository(db)
	likeRepo := NewLikeRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	viewer := createTestUser(t, db)
	bug := createTestBug(t, db, author.ID, time.Now().Add(time.Hour))

	liked, err := likeRepo.Toggle(ctx, viewer.ID, models.KindBug, bug.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := repo.GetByID(ctx, bug.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.True(t, got.Liked)

	asAnon, err := repo.GetByID(ctx, bug.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, asAnon.LikesCount)
	assert.False(t, asAnon.Liked)
}
