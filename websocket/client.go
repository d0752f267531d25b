package websocket

import (
	"sync"

	"debatehub/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one live connection inside a room session.
type Client struct {
	ID     string
	UserID string
	Name   string
	Role   models.Role

	conn    *websocket.Conn
	writeMu sync.Mutex
}

func NewClient(conn *websocket.Conn, userID, name string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		conn:   conn,
	}
}

// SafeWriteJSON serializes writes to the underlying connection. gorilla
// permits only one concurrent writer per connection.
func (c *Client) SafeWriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.WriteJSON(v)
}

// Member is the wire-level roster entry broadcast to a room.
type Member struct {
	UserID string      `json:"userId"`
	Name   string      `json:"name"`
	Role   models.Role `json:"role"`
}
