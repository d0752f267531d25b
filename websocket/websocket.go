package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"debatehub/db"
	"debatehub/internal/ratelimit"
	"debatehub/models"
	"debatehub/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// In production, adjust the CheckOrigin function to allow only trusted origins.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var registry = NewRegistry()

// messageLimiter caps chat throughput per user. Nil means no limiting.
var messageLimiter *ratelimit.Limiter

const storeTimeout = 10 * time.Second

// SetMessageLimiter installs the chat flood-control limiter. Called once at
// startup, before any connections are accepted.
func SetMessageLimiter(l *ratelimit.Limiter) {
	messageLimiter = l
}

// DebateRoomHandler upgrades the connection and runs the per-connection event
// loop. Every inbound event is validated before it touches room state, and a
// bad event only ever produces an error event back to the offending
// connection; it never takes down the loop or another room.
func DebateRoomHandler(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if cookie, err := c.Cookie("token"); err == nil {
			token = cookie
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
		return
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		log.Printf("WebSocket connection failed: invalid token - %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	client := NewClient(conn, claims.UserID, claims.Name)
	log.Printf("Client %s connected (%s)", client.Name, client.ID)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			handleDisconnect(client)
			break
		}

		var event Event
		if err := json.Unmarshal(msg, &event); err != nil {
			log.Printf("Failed to parse event from %s: %v", client.Name, err)
			client.SafeWriteJSON(errorEvent("invalid event payload"))
			continue
		}
		if err := event.Validate(); err != nil {
			log.Printf("Rejected event from %s: %v", client.Name, err)
			client.SafeWriteJSON(errorEvent(err.Error()))
			continue
		}

		switch event.Type {
		case EventJoinRoom:
			handleJoinRoom(client, event)
		case EventChooseRole:
			handleChooseRole(client, event)
		case EventStartDebate:
			handleStartDebate(client, event)
		case EventSendMessage:
			handleSendMessage(client, event)
		case EventEndDebate:
			handleEndDebate(client, event)
		case EventLeaveRoom:
			handleLeaveRoom(client, event)
		}
	}

	log.Printf("Connection closed for %s (%s)", client.Name, client.ID)
}

// broadcast fans an event out to every connection in the room.
func broadcast(roomID string, v any) {
	for _, cl := range registry.Clients(roomID) {
		if err := cl.SafeWriteJSON(v); err != nil {
			log.Printf("WebSocket write error in room %s: %v", roomID, err)
		}
	}
}

// handleJoinRoom registers presence and answers with the room's durable state.
// The debate store stays authoritative for membership; the registry only
// mirrors who is connected.
func handleJoinRoom(client *Client, event Event) {
	if event.Name != "" {
		client.Name = event.Name
	}
	roster := registry.Join(event.RoomID, client)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	debate, err := db.Debates.Debate(ctx, event.RoomID)
	if err != nil {
		if err == db.ErrNotFound {
			client.SafeWriteJSON(errorEvent("Room not found"))
		} else {
			log.Printf("Failed to load room %s: %v", event.RoomID, err)
			client.SafeWriteJSON(errorEvent("Failed to load room"))
		}
	} else {
		client.SafeWriteJSON(map[string]any{
			"type":   EventRoomInfo,
			"roomId": debate.RoomID,
			"topic":  debate.Topic,
			"mode":   debate.Type,
			"status": debate.Status,
		})
	}

	log.Printf("%s joined room %s (%d connected)", client.Name, event.RoomID, len(roster))
	broadcast(event.RoomID, rosterEvent(event.RoomID, roster))
}

// handleChooseRole is a silent no-op when the room or entry is unknown.
func handleChooseRole(client *Client, event Event) {
	role, ok := models.ParseRole(event.Role)
	if !ok {
		client.SafeWriteJSON(errorEvent("unknown role"))
		return
	}

	roster, changed := registry.SetRole(event.RoomID, client.UserID, role)
	if !changed {
		return
	}
	log.Printf("%s chose role %s in room %s", client.Name, role, event.RoomID)
	broadcast(event.RoomID, rosterEvent(event.RoomID, roster))
}

// handleStartDebate is broadcast-only; repeating it corrupts nothing.
func handleStartDebate(client *Client, event Event) {
	log.Printf("Debate started in room %s", event.RoomID)
	broadcast(event.RoomID, map[string]any{
		"type":   EventDebateStarted,
		"roomId": event.RoomID,
	})
}

// handleSendMessage relays a message to the whole room. Messages are not
// persisted here; the transcript is captured once, when the debate ends.
func handleSendMessage(client *Client, event Event) {
	if registry.Role(event.RoomID, client.UserID) == models.RoleNone {
		client.SafeWriteJSON(errorEvent("choose a role before sending messages"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if !messageLimiter.Allow(ctx, "chat:"+client.UserID) {
		client.SafeWriteJSON(errorEvent("sending messages too fast, slow down"))
		return
	}

	timestamp := event.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}
	broadcast(event.RoomID, map[string]any{
		"type":      EventReceiveMessage,
		"roomId":    event.RoomID,
		"userId":    client.UserID,
		"name":      client.Name,
		"team":      event.Team,
		"text":      event.Text,
		"timestamp": timestamp,
	})
}

// handleEndDebate tells the room the debate is over and retires the session.
// Persisting the transcript happens through the HTTP end endpoint; this only
// fans out the outcome.
func handleEndDebate(client *Client, event Event) {
	log.Printf("Broadcasting debate end to room %s", event.RoomID)
	broadcast(event.RoomID, map[string]any{
		"type":   EventDebateEnded,
		"roomId": event.RoomID,
		"result": event.Result,
	})
	registry.Drop(event.RoomID)
}

func handleLeaveRoom(client *Client, event Event) {
	roster, removed := registry.Leave(event.RoomID, client.UserID)
	if !removed {
		return
	}
	log.Printf("%s left room %s", client.Name, event.RoomID)
	broadcast(event.RoomID, rosterEvent(event.RoomID, roster))
}

func handleDisconnect(client *Client) {
	roomID, roster, removed := registry.Disconnect(client.ID)
	if !removed {
		return
	}
	log.Printf("%s disconnected from room %s", client.Name, roomID)
	broadcast(roomID, rosterEvent(roomID, roster))
}
