package websocket

import (
	"encoding/json"
	"fmt"
)

// Client-to-server event types.
const (
	EventJoinRoom    = "joinRoom"
	EventChooseRole  = "chooseRole"
	EventStartDebate = "startDebate"
	EventSendMessage = "sendMessage"
	EventEndDebate   = "endDebate"
	EventLeaveRoom   = "leaveRoom"
)

// Server-to-client event types.
const (
	EventRoomInfo           = "roomInfo"
	EventUpdateParticipants = "updateParticipants"
	EventReceiveMessage     = "receiveMessage"
	EventDebateStarted      = "debateStarted"
	EventDebateEnded        = "debateEnded"
	EventError              = "error"
)

// Event is the tagged wire format for realtime traffic. Which fields are
// meaningful depends on Type; Validate checks them at the transport boundary
// before anything reaches the room coordinator.
type Event struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"roomId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Role      string          `json:"role,omitempty"`
	Team      string          `json:"team,omitempty"`
	Text      string          `json:"text,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Validate checks that the event names a known type and carries the fields
// that type requires.
func (e *Event) Validate() error {
	switch e.Type {
	case EventJoinRoom, EventStartDebate, EventEndDebate, EventLeaveRoom:
		if e.RoomID == "" {
			return fmt.Errorf("%s event missing roomId", e.Type)
		}
	case EventChooseRole:
		if e.RoomID == "" {
			return fmt.Errorf("%s event missing roomId", e.Type)
		}
		if e.Role == "" {
			return fmt.Errorf("%s event missing role", e.Type)
		}
	case EventSendMessage:
		if e.RoomID == "" {
			return fmt.Errorf("%s event missing roomId", e.Type)
		}
		if e.Text == "" {
			return fmt.Errorf("%s event missing text", e.Type)
		}
	case "":
		return fmt.Errorf("event missing type")
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

func errorEvent(message string) map[string]any {
	return map[string]any{"type": EventError, "message": message}
}

func rosterEvent(roomID string, members []Member) map[string]any {
	return map[string]any{
		"type":         EventUpdateParticipants,
		"roomId":       roomID,
		"participants": members,
	}
}
