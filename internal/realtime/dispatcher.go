package realtime

import (
	"context"
	"log"

	"snipstream/internal/models"
	"snipstream/internal/observability"
	"snipstream/internal/repository"
)

// Dispatcher fans platform events out to their audience. Events travel
// through Redis so every server instance delivers to its local connections;
// without Redis they go straight to the local registry. Each event reaches a
// connection at most once.
//
// Delivery is best-effort: failures are logged and swallowed, they never
// surface to the request that triggered the event.
type Dispatcher struct {
	follows  repository.FollowRepository
	notifier *Notifier
	registry *Registry
}

// NewDispatcher creates a dispatcher over the given follow graph and transports.
func NewDispatcher(follows repository.FollowRepository, notifier *Notifier, registry *Registry) *Dispatcher {
	return &Dispatcher{follows: follows, notifier: notifier, registry: registry}
}

// PublishToUser delivers an event to one user's connections.
func (d *Dispatcher) PublishToUser(ctx context.Context, userID uint, event Event) {
	data, err := event.Encode()
	if err != nil {
		observability.FanoutFailures.WithLabelValues("encode").Inc()
		log.Printf("failed to marshal %s event: %v", event.Type, err)
		return
	}
	d.deliverUser(ctx, userID, event.Type, data)
}

// PublishToFollowers delivers an event to everyone following authorID, and to
// the author's own connections.
func (d *Dispatcher) PublishToFollowers(ctx context.Context, authorID uint, event Event) {
	data, err := event.Encode()
	if err != nil {
		observability.FanoutFailures.WithLabelValues("encode").Inc()
		log.Printf("failed to marshal %s event: %v", event.Type, err)
		return
	}

	followerIDs, err := d.follows.FollowerIDs(ctx, authorID)
	if err != nil {
		observability.FanoutFailures.WithLabelValues("audience").Inc()
		log.Printf("failed to resolve followers of user %d for %s event: %v", authorID, event.Type, err)
		followerIDs = nil
	}

	d.deliverUser(ctx, authorID, event.Type, data)
	for _, id := range followerIDs {
		if id == authorID {
			continue
		}
		d.deliverUser(ctx, id, event.Type, data)
	}
}

// PublishToContent delivers an event to every connection watching one
// content item.
func (d *Dispatcher) PublishToContent(ctx context.Context, kind models.ContentKind, contentID uint, event Event) {
	data, err := event.Encode()
	if err != nil {
		observability.FanoutFailures.WithLabelValues("encode").Inc()
		log.Printf("failed to marshal %s event: %v", event.Type, err)
		return
	}

	if d.notifier != nil && d.notifier.rdb != nil {
		if err := d.notifier.PublishContent(ctx, kind, contentID, data); err != nil {
			observability.FanoutFailures.WithLabelValues("publish").Inc()
			log.Printf("failed to publish %s event to %s %d: %v", event.Type, kind, contentID, err)
		}
		return
	}
	if d.registry != nil {
		d.registry.Publish(ContentTopic(kind, contentID), data)
	}
}

func (d *Dispatcher) deliverUser(ctx context.Context, userID uint, eventType string, data []byte) {
	if d.notifier != nil && d.notifier.rdb != nil {
		if err := d.notifier.PublishUser(ctx, userID, data); err != nil {
			observability.FanoutFailures.WithLabelValues("publish").Inc()
			log.Printf("failed to publish %s event to user %d: %v", eventType, userID, err)
		}
		return
	}
	if d.registry != nil {
		d.registry.Publish(UserTopic(userID), data)
	}
}
