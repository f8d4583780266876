package server

import (
	"encoding/json"

	"snipstream/internal/middleware"
	"snipstream/internal/models"
	"snipstream/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// wsCommand is the inbound message shape on the realtime socket. Clients join
// and leave content rooms explicitly; their personal topic is implicit.
type wsCommand struct {
	Type    string `json:"type"`
	Payload struct {
		Kind models.ContentKind `json:"kind"`
		ID   uint               `json:"id"`
	} `json:"payload"`
}

// WebsocketHandler handles the realtime event socket. Every authenticated
// connection is implicitly subscribed to its own user topic; join/leave
// commands manage per-content subscriptions while the client views an item.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		client, err := s.registry.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration refused", "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *realtime.Client, message []byte) {
			var cmd wsCommand
			if err := json.Unmarshal(message, &cmd); err != nil {
				middleware.Logger.Debug("invalid websocket message", "user_id", userID)
				return
			}

			switch cmd.Type {
			case "join-content-room":
				if !models.ValidContentKind(string(cmd.Payload.Kind)) || cmd.Payload.ID == 0 {
					return
				}
				s.registry.Join(c, realtime.ContentTopic(cmd.Payload.Kind, cmd.Payload.ID))

				ack, _ := json.Marshal(realtime.Event{
					Type: "joined",
					Payload: map[string]interface{}{
						"kind": cmd.Payload.Kind,
						"id":   cmd.Payload.ID,
					},
				})
				c.TrySend(ack)

			case "leave-content-room":
				if !models.ValidContentKind(string(cmd.Payload.Kind)) || cmd.Payload.ID == 0 {
					return
				}
				s.registry.Leave(c, realtime.ContentTopic(cmd.Payload.Kind, cmd.Payload.ID))
			}
		}

		welcome, _ := json.Marshal(realtime.Event{
			Type:    "connected",
			Payload: map[string]interface{}{"user_id": userID},
		})
		client.TrySend(welcome)

		go client.WritePump()

		// Read pump runs in the handler goroutine; it unregisters the client
		// and drops all topic memberships on exit.
		client.ReadPump()
	})
}
