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

func newInteractionFixture(t *testing.T) (*InteractionService, *NotificationService, *gorm.DB) {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)

	notifications := NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		repository.NewPreferenceRepository(db),
		nil,
	)
	interactions := NewInteractionService(
		repository.NewLikeRepository(db),
		repository.NewBookmarkRepository(db),
		repository.NewSnippetRepository(db),
		repository.NewDocRepository(db),
		repository.NewBugRepository(db),
		nil,
		notifications,
	)
	return interactions, notifications, db
}

func TestInteractionService_LikeToggleCycleNotifiesOnce(t *testing.T) {
	interactions, notifications, db := newInteractionFixture(t)
	ctx := context.Background()

	author := &models.User{Username: "author", Email: "a@example.com", Password: "x"}
	fan := &models.User{Username: "fan", Email: "f@example.com", Password: "x"}
	require.NoError(t, db.Create(author).Error)
	require.NoError(t, db.Create(fan).Error)
	snippet := &models.Snippet{Title: "s", Content: "c", IsPublic: true, AuthorID: author.ID}
	require.NoError(t, db.Create(snippet).Error)

	liked, count, err := interactions.ToggleLike(ctx, fan.ID, models.KindSnippet, snippet.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	liked, count, err = interactions.ToggleLike(ctx, fan.ID, models.KindSnippet, snippet.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)

	// One like/unlike cycle produces exactly one notification.
	unread, err := notifications.UnreadCount(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestInteractionService_SelfLikeStoresNoNotification(t *testing.T) {
	interactions, notifications, db := newInteractionFixture(t)
	ctx := context.Background()

	author := &models.User{Username: "author", Email: "a@example.com", Password: "x"}
	require.NoError(t, db.Create(author).Error)
	snippet := &models.Snippet{Title: "s", Content: "c", IsPublic: true, AuthorID: author.ID}
	require.NoError(t, db.Create(snippet).Error)

	liked, _, err := interactions.ToggleLike(ctx, author.ID, models.KindSnippet, snippet.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	unread, err := notifications.UnreadCount(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestInteractionService_ToggleLikeUnknownContent(t *testing.T) {
	interactions, _, db := newInteractionFixture(t)

	user := &models.User{Username: "u", Email: "u@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	_, _, err := interactions.ToggleLike(context.Background(), user.ID, models.KindDoc, 404)
	require.Error(t, err)
}

func TestInteractionService_Bookmarks(t *testing.T) {
	interactions, _, db := newInteractionFixture(t)
	ctx := context.Background()

	author := &models.User{Username: "author", Email: "a@example.com", Password: "x"}
	reader := &models.User{Username: "reader", Email: "r@example.com", Password: "x"}
	require.NoError(t, db.Create(author).Error)
	require.NoError(t, db.Create(reader).Error)
	doc := &models.Doc{Title: "d", Body: "b", IsPublic: true, AuthorID: author.ID}
	require.NoError(t, db.Create(doc).Error)

	bookmarked, err := interactions.ToggleBookmark(ctx, reader.ID, models.KindDoc, doc.ID)
	require.NoError(t, err)
	assert.True(t, bookmarked)

	list, err := interactions.ListBookmarks(ctx, reader.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	bookmarked, err = interactions.ToggleBookmark(ctx, reader.ID, models.KindDoc, doc.ID)
	require.NoError(t, err)
	assert.False(t, bookmarked)
}
