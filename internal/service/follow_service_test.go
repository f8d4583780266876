package service

import (
	"context"
	"testing"

	"snipstream/internal/database"
	"snipstream/internal/models"
	"snipstream/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newFollowFixture(t *testing.T) (*FollowService, *NotificationService, *gorm.DB) {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)

	notifications := NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		repository.NewPreferenceRepository(db),
		nil,
	)
	follows := NewFollowService(
		repository.NewFollowRepository(db),
		repository.NewUserRepository(db),
		notifications,
	)
	return follows, notifications, db
}

func TestFollowService_FollowNotifies(t *testing.T) {
	follows, notifications, db := newFollowFixture(t)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	bob := &models.User{Username: "bob", Email: "bob@example.com", Password: "x"}
	require.NoError(t, db.Create(alice).Error)
	require.NoError(t, db.Create(bob).Error)

	require.NoError(t, follows.Follow(ctx, alice.ID, bob.ID))

	count, err := notifications.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// A repeated follow stays silent.
	require.NoError(t, follows.Follow(ctx, alice.ID, bob.ID))
	count, err = notifications.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestFollowService_SelfFollowRejected(t *testing.T) {
	follows, _, db := newFollowFixture(t)

	user := &models.User{Username: "narcissus", Email: "n@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	err := follows.Follow(context.Background(), user.ID, user.ID)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestFollowService_FollowUnknownUser(t *testing.T) {
	follows, _, db := newFollowFixture(t)

	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	err := follows.Follow(context.Background(), user.ID, 99999)
	require.Error(t, err)
}
