package realtime

import (
	"context"
	"log"
	"runtime/debug"

	"snipstream/internal/models"
	"snipstream/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes platform events into Redis channels. A nil Redis client
// turns every publish into a no-op, which keeps tests and single-node dev
// setups working without Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends an event payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload []byte) error {
	if n.rdb == nil {
		return nil
	}
	err := n.rdb.Publish(ctx, channelFor(UserTopic(userID)), payload).Err()
	if err != nil {
		observability.RedisErrors.WithLabelValues("publish").Inc()
	}
	return err
}

// PublishContent sends an event payload to a content item's channel.
func (n *Notifier) PublishContent(ctx context.Context, kind models.ContentKind, contentID uint, payload []byte) error {
	if n.rdb == nil {
		return nil
	}
	err := n.rdb.Publish(ctx, channelFor(ContentTopic(kind, contentID)), payload).Err()
	if err != nil {
		observability.RedisErrors.WithLabelValues("publish").Inc()
	}
	return err
}

// StartPatternSubscriber subscribes to the event channel patterns and calls
// onMessage for each incoming message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, channelPrefix+"user:*", channelPrefix+"content:*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
