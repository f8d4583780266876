package realtime

import (
	"context"
	"testing"
	"time"

	"snipstream/internal/database"
	"snipstream/internal/models"
	"snipstream/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDispatcherTest(t *testing.T) (*Dispatcher, *Registry, repository.FollowRepository) {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	follows := repository.NewFollowRepository(db)
	registry := NewRegistry()
	notifier := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, registry.StartWiring(ctx, notifier))

	return NewDispatcher(follows, notifier, registry), registry, follows
}

func TestDispatcher_PublishToFollowers(t *testing.T) {
	dispatcher, registry, follows := setupDispatcherTest(t)
	ctx := context.Background()

	// author=1, follower=2, bystander=3
	require.NoError(t, follows.Create(ctx, 2, 1))

	author := registerTestClient(t, registry, 1)
	follower := registerTestClient(t, registry, 2)
	bystander := registerTestClient(t, registry, 3)

	dispatcher.PublishToFollowers(ctx, 1, Event{
		Type:    EventNewSnippet,
		Payload: map[string]interface{}{"id": 10},
	})

	received := func(c *Client) func() bool {
		return func() bool {
			select {
			case <-c.Send:
				return true
			default:
				return false
			}
		}
	}

	// The author and the follower both get the event.
	assert.Eventually(t, received(author), time.Second, 10*time.Millisecond)
	assert.Eventually(t, received(follower), time.Second, 10*time.Millisecond)

	// A non-follower never does.
	assert.Never(t, received(bystander), 200*time.Millisecond, 10*time.Millisecond)
}

func TestDispatcher_PublishToUser(t *testing.T) {
	dispatcher, registry, _ := setupDispatcherTest(t)
	ctx := context.Background()

	recipient := registerTestClient(t, registry, 7)
	other := registerTestClient(t, registry, 8)

	dispatcher.PublishToUser(ctx, 7, Event{Type: EventNewNotification, Payload: map[string]interface{}{"id": 1}})

	assert.Eventually(t, func() bool {
		select {
		case <-recipient.Send:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	assert.Never(t, func() bool {
		select {
		case <-other.Send:
			return true
		default:
			return false
		}
	}, 200*time.Millisecond, 10*time.Millisecond)
}

func TestDispatcher_PublishToContent(t *testing.T) {
	dispatcher, registry, _ := setupDispatcherTest(t)
	ctx := context.Background()

	watcher := registerTestClient(t, registry, 1)
	registry.Join(watcher, ContentTopic(models.KindBug, 5))

	dispatcher.PublishToContent(ctx, models.KindBug, 5, Event{
		Type:    EventBugStatusUpdated,
		Payload: map[string]interface{}{"id": 5, "status": models.BugStatusResolved},
	})

	assert.Eventually(t, func() bool {
		select {
		case msg := <-watcher.Send:
			return len(msg) > 0
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestDispatcher_NoRedisFallsBackToLocal(t *testing.T) {
	db, err := database.ConnectTest()
	require.NoError(t, err)
	follows := repository.NewFollowRepository(db)
	registry := NewRegistry()
	dispatcher := NewDispatcher(follows, NewNotifier(nil), registry)

	recipient := registerTestClient(t, registry, 1)
	dispatcher.PublishToUser(context.Background(), 1, Event{Type: EventNewNotification})

	// Local delivery is synchronous.
	assert.Len(t, drain(recipient), 1)
}
