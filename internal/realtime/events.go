// Package realtime provides websocket delivery of platform events backed by
// Redis pub/sub, so every server instance sees every published event.
package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"snipstream/internal/models"
)

// Event names carried in the websocket envelope.
const (
	EventNewSnippet       = "new-snippet"
	EventNewDoc           = "new-doc"
	EventNewBug           = "new-bug"
	EventNewNotification  = "new_notification"
	EventBugStatusUpdated = "bug-status-updated"
	EventNewComment       = "new-comment"
	EventLikeUpdated      = "like-updated"
)

// channelPrefix namespaces every Redis channel this package publishes on.
const channelPrefix = "events:"

// Event is the wire envelope delivered to websocket clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Encode marshals the event envelope.
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %q: %w", e.Type, err)
	}
	return data, nil
}

// UserTopic is the topic every authenticated connection is implicitly joined
// to. It receives the user's personal notifications and followed-author posts.
func UserTopic(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// ContentTopic is the topic for live updates on one content item. Clients join
// and leave it explicitly while viewing the item.
func ContentTopic(kind models.ContentKind, contentID uint) string {
	return "content:" + string(kind) + ":" + strconv.FormatUint(uint64(contentID), 10)
}

// channelFor maps a topic to its Redis channel.
func channelFor(topic string) string {
	return channelPrefix + topic
}

// UserChannel derives the Redis channel name for a user topic.
func UserChannel(userID uint) string {
	return channelFor(UserTopic(userID))
}

// ContentChannel derives the Redis channel name for a content topic.
func ContentChannel(kind models.ContentKind, contentID uint) string {
	return channelFor(ContentTopic(kind, contentID))
}

// topicFor maps a Redis channel back to a topic. The second return is false
// for channels outside this package's namespace.
func topicFor(channel string) (string, bool) {
	topic, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok || topic == "" {
		return "", false
	}
	return topic, true
}
