package service

import (
	"context"
	"testing"
	"time"

	"snipstream/internal/database"
	"snipstream/internal/models"
	"snipstream/internal/realtime"
	"snipstream/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type notificationFixture struct {
	db        *gorm.DB
	rdb       *redis.Client
	service   *NotificationService
	notifRepo repository.NotificationRepository
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	notifRepo := repository.NewNotificationRepository(db)
	dispatcher := realtime.NewDispatcher(
		repository.NewFollowRepository(db),
		realtime.NewNotifier(rdb),
		nil,
	)
	service := NewNotificationService(
		notifRepo,
		repository.NewUserRepository(db),
		repository.NewPreferenceRepository(db),
		dispatcher,
	)
	return &notificationFixture{db: db, rdb: rdb, service: service, notifRepo: notifRepo}
}

func (f *notificationFixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Password: "x", Avatar: username + ".png"}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

// subscribeUserChannel watches the recipient's Redis channel.
func (f *notificationFixture) subscribeUserChannel(t *testing.T, userID uint) <-chan *redis.Message {
	t.Helper()
	sub := f.rdb.PSubscribe(context.Background(), "events:user:*")
	t.Cleanup(func() { _ = sub.Close() })
	return sub.Channel()
}

func TestNotificationService_SelfActionSuppressed(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	user := f.user(t, "solo")
	messages := f.subscribeUserChannel(t, user.ID)

	err := f.service.Create(ctx, CreateNotificationInput{
		RecipientID: user.ID,
		SenderID:    user.ID,
		Type:        models.NotificationTypeLike,
	})
	require.NoError(t, err)

	// No row written.
	var count int64
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// No publish either.
	assert.Never(t, func() bool {
		select {
		case <-messages:
			return true
		default:
			return false
		}
	}, 200*time.Millisecond, 10*time.Millisecond)
}

func TestNotificationService_CreatePersistsAndPublishes(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	recipient := f.user(t, "recipient")
	sender := f.user(t, "sender")
	messages := f.subscribeUserChannel(t, recipient.ID)

	err := f.service.Create(ctx, CreateNotificationInput{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Type:        models.NotificationTypeFollow,
	})
	require.NoError(t, err)

	stored, err := f.notifRepo.ListByRecipient(ctx, recipient.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotificationTypeFollow, stored[0].Type)
	assert.Equal(t, "sender", stored[0].SenderUsername)
	assert.Equal(t, "sender.png", stored[0].SenderAvatar)
	assert.False(t, stored[0].Read)

	assert.Eventually(t, func() bool {
		select {
		case msg := <-messages:
			return msg.Channel == realtime.UserChannel(recipient.ID)
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestNotificationService_NoDeduplication(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	recipient := f.user(t, "recipient")
	sender := f.user(t, "sender")

	in := CreateNotificationInput{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Type:        models.NotificationTypeLike,
	}
	require.NoError(t, f.service.Create(ctx, in))
	require.NoError(t, f.service.Create(ctx, in))

	count, err := f.service.UnreadCount(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNotificationService_PreferenceSuppression(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	recipient := f.user(t, "recipient")
	sender := f.user(t, "sender")

	prefs, err := f.service.GetPreferences(ctx, recipient.ID)
	require.NoError(t, err)
	assert.True(t, prefs.NotifyLikes)

	_, err = f.service.UpdatePreferences(ctx, recipient.ID, UpdatePreferencesInput{
		NotifyLikes:     false,
		NotifyComments:  true,
		NotifyFollows:   true,
		NotifyReplies:   true,
		NotifyBugStatus: true,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Create(ctx, CreateNotificationInput{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Type:        models.NotificationTypeLike,
	}))
	require.NoError(t, f.service.Create(ctx, CreateNotificationInput{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Type:        models.NotificationTypeComment,
	}))

	count, err := f.service.UnreadCount(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "only the comment notification lands")
}

func TestNotificationService_MarkReadScoping(t *testing.T) {
	f := newNotificationFixture(t)
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	sender := f.user(t, "sender")

	require.NoError(t, f.service.Create(ctx, CreateNotificationInput{
		RecipientID: bob.ID, SenderID: sender.ID, Type: models.NotificationTypeFollow,
	}))
	bobNotifs, err := f.service.List(ctx, bob.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, bobNotifs, 1)

	// Alice marking Bob's id is a silent no-op.
	require.NoError(t, f.service.MarkRead(ctx, alice.ID, []uint{bobNotifs[0].ID}))

	count, err := f.service.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationService_UnknownType(t *testing.T) {
	f := newNotificationFixture(t)

	recipient := f.user(t, "recipient")
	sender := f.user(t, "sender")

	err := f.service.Create(context.Background(), CreateNotificationInput{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Type:        "SHOUTED_AT",
	})
	require.Error(t, err)
}
