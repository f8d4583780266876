package repository

import (
	"context"
	"testing"

	"snipstream/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_CreateAndCounters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db)
	bob := createTestUser(t, db)

	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))

	var follower, followed models.User
	require.NoError(t, db.First(&follower, alice.ID).Error)
	require.NoError(t, db.First(&followed, bob.ID).Error)
	assert.Equal(t, 1, follower.FollowingCount)
	assert.Equal(t, 1, followed.FollowersCount)

	exists, err := repo.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFollowRepository_CreateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db)
	bob := createTestUser(t, db)

	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Counters must not drift on a repeated follow.
	var followed models.User
	require.NoError(t, db.First(&followed, bob.ID).Error)
	assert.Equal(t, 1, followed.FollowersCount)
}

func TestFollowRepository_DeleteIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db)
	bob := createTestUser(t, db)

	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Delete(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Delete(ctx, alice.ID, bob.ID))

	var followed models.User
	require.NoError(t, db.First(&followed, bob.ID).Error)
	assert.Equal(t, 0, followed.FollowersCount)

	exists, err := repo.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFollowRepository_FollowerIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	fan1 := createTestUser(t, db)
	fan2 := createTestUser(t, db)
	bystander := createTestUser(t, db)

	require.NoError(t, repo.Create(ctx, fan1.ID, author.ID))
	require.NoError(t, repo.Create(ctx, fan2.ID, author.ID))

	ids, err := repo.FollowerIDs(ctx, author.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{fan1.ID, fan2.ID}, ids)
	assert.NotContains(t, ids, bystander.ID)

	following, err := repo.FollowingIDs(ctx, fan1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{author.ID}, following)
}
