package realtime

import (
	"context"
	"errors"
	"log"
	"sync"

	"snipstream/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Registry tracks websocket connections and their topic subscriptions. Every
// connection is implicitly subscribed to its user topic; content topics are
// joined and left explicitly.
type Registry struct {
	mu           sync.RWMutex
	conns        map[uint]map[*Client]struct{}
	topics       map[string]map[*Client]struct{}
	clientTopics map[*Client]map[string]struct{}
	totalConns   int
	shutdown     chan struct{}
}

// NewRegistry creates an empty subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:        make(map[uint]map[*Client]struct{}),
		topics:       make(map[string]map[*Client]struct{}),
		clientTopics: make(map[*Client]map[string]struct{}),
		shutdown:     make(chan struct{}),
	}
}

// Register adds a connection for userID and joins it to the user topic.
// Returns an error when connection limits are exceeded.
func (r *Registry) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	r.mu.Lock()

	if r.totalConns >= maxTotalConns {
		r.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	m, ok := r.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		r.conns[userID] = m
	}

	if len(m) >= maxConnsPerUser {
		r.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := newClient(r, conn, userID)
	m[client] = struct{}{}
	r.totalConns++
	r.joinLocked(client, UserTopic(userID))
	r.mu.Unlock()

	observability.WebSocketConnections.Inc()
	return client, nil
}

// UnregisterClient removes the connection and every topic subscription it
// holds.
func (r *Registry) UnregisterClient(client *Client) {
	r.mu.Lock()
	removed := false
	if m, ok := r.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			r.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(r.conns, client.UserID)
		}
	}
	for topic := range r.clientTopics[client] {
		r.leaveLocked(client, topic)
	}
	delete(r.clientTopics, client)
	if removed {
		// Wakes the write pump; late TrySend callers recover from the close.
		close(client.Send)
	}
	r.mu.Unlock()

	if removed {
		observability.WebSocketConnections.Dec()
	}
}

// Join subscribes the client to a topic. Joining a topic the client is
// already in is a no-op.
func (r *Registry) Join(client *Client, topic string) {
	r.mu.Lock()
	r.joinLocked(client, topic)
	r.mu.Unlock()
}

// Leave unsubscribes the client from a topic. Leaving a topic the client is
// not in is a no-op.
func (r *Registry) Leave(client *Client, topic string) {
	r.mu.Lock()
	r.leaveLocked(client, topic)
	r.mu.Unlock()
}

func (r *Registry) joinLocked(client *Client, topic string) {
	members, ok := r.topics[topic]
	if !ok {
		members = make(map[*Client]struct{})
		r.topics[topic] = members
	}
	members[client] = struct{}{}

	subs, ok := r.clientTopics[client]
	if !ok {
		subs = make(map[string]struct{})
		r.clientTopics[client] = subs
	}
	subs[topic] = struct{}{}
}

func (r *Registry) leaveLocked(client *Client, topic string) {
	if members, ok := r.topics[topic]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(r.topics, topic)
		}
	}
	if subs, ok := r.clientTopics[client]; ok {
		delete(subs, topic)
	}
}

// Publish delivers a payload to every client subscribed to the topic, once
// per connection.
func (r *Registry) Publish(topic string, message []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.topics[topic] {
		c.TrySend(message)
	}
}

// Subscribers reports the current number of connections on a topic.
func (r *Registry) Subscribers(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics[topic])
}

// StartWiring connects the Notifier to this registry: Redis messages on the
// event channels are forwarded to the matching local topic.
func (r *Registry) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		topic, ok := topicFor(channel)
		if !ok {
			log.Printf("invalid event channel: %s", channel)
			return
		}
		r.Publish(topic, []byte(payload))
	})
}

// Shutdown gracefully closes all websocket connections.
func (r *Registry) Shutdown(_ context.Context) error {
	close(r.shutdown)

	r.mu.Lock()
	for userID, userConns := range r.conns {
		for client := range userConns {
			close(client.Send)
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for user %d: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}
	r.conns = make(map[uint]map[*Client]struct{})
	r.topics = make(map[string]map[*Client]struct{})
	r.clientTopics = make(map[*Client]map[string]struct{})
	r.totalConns = 0
	r.mu.Unlock()

	return nil
}
