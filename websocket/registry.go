package websocket

import (
	"sync"

	"debatehub/models"
)

// Registry is the process-local, best-effort presence view of every room.
// The durable roster lives in the debate store; this only tracks who is
// connected right now and what role they picked. Nothing here survives a
// restart.
//
// A reverse index from connection id to room id makes disconnect cleanup a
// single lookup instead of a scan over every room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*roomSession
	conns map[string]string // connection id -> room id
}

// roomSession holds the live members of one room. Each room carries its own
// mutex so mutations to different rooms never serialize on each other.
type roomSession struct {
	mu      sync.Mutex
	clients []*Client
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*roomSession),
		conns: make(map[string]string),
	}
}

// Join adds the client to the room, creating the room session lazily. A
// client with the same userId already present is replaced rather than
// duplicated: the new connection takes over the entry and keeps any role the
// previous connection had chosen. Returns the updated roster.
func (r *Registry) Join(roomID string, c *Client) []Member {
	r.mu.Lock()
	room, exists := r.rooms[roomID]
	if !exists {
		room = &roomSession{}
		r.rooms[roomID] = room
	}
	r.conns[c.ID] = roomID

	room.mu.Lock()
	replaced := false
	for i, existing := range room.clients {
		if existing.UserID == c.UserID {
			if c.Role == models.RoleNone {
				c.Role = existing.Role
			}
			delete(r.conns, existing.ID)
			room.clients[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		room.clients = append(room.clients, c)
	}
	roster := room.rosterLocked()
	room.mu.Unlock()
	r.mu.Unlock()

	return roster
}

// SetRole records the role chosen by a user. It is a silent no-op when the
// room or the user entry is absent; the bool reports whether anything changed.
func (r *Registry) SetRole(roomID, userID string, role models.Role) ([]Member, bool) {
	r.mu.RLock()
	room, exists := r.rooms[roomID]
	r.mu.RUnlock()
	if !exists {
		return nil, false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	for _, c := range room.clients {
		if c.UserID == userID {
			c.Role = role
			return room.rosterLocked(), true
		}
	}
	return nil, false
}

// Role returns the role the user currently holds in the room.
func (r *Registry) Role(roomID, userID string) models.Role {
	r.mu.RLock()
	room, exists := r.rooms[roomID]
	r.mu.RUnlock()
	if !exists {
		return models.RoleNone
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	for _, c := range room.clients {
		if c.UserID == userID {
			return c.Role
		}
	}
	return models.RoleNone
}

// Leave removes the user's entry from the room. The bool reports whether an
// entry was removed.
func (r *Registry) Leave(roomID, userID string) ([]Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, exists := r.rooms[roomID]
	if !exists {
		return nil, false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	for i, c := range room.clients {
		if c.UserID == userID {
			delete(r.conns, c.ID)
			room.clients = append(room.clients[:i], room.clients[i+1:]...)
			return room.rosterLocked(), true
		}
	}
	return nil, false
}

// Disconnect removes whatever entry the connection holds, resolving the room
// through the reverse index. Returns the room id and updated roster so the
// caller can re-broadcast presence.
func (r *Registry) Disconnect(connID string) (string, []Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roomID, exists := r.conns[connID]
	if !exists {
		return "", nil, false
	}
	delete(r.conns, connID)

	room, exists := r.rooms[roomID]
	if !exists {
		return "", nil, false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	for i, c := range room.clients {
		if c.ID == connID {
			room.clients = append(room.clients[:i], room.clients[i+1:]...)
			return roomID, room.rosterLocked(), true
		}
	}
	return "", nil, false
}

// Drop retires the whole room session, typically when the debate ends.
func (r *Registry) Drop(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, exists := r.rooms[roomID]
	if !exists {
		return
	}
	room.mu.Lock()
	for _, c := range room.clients {
		delete(r.conns, c.ID)
	}
	room.mu.Unlock()
	delete(r.rooms, roomID)
}

// Clients returns a snapshot of the room's connections for fan-out.
func (r *Registry) Clients(roomID string) []*Client {
	r.mu.RLock()
	room, exists := r.rooms[roomID]
	r.mu.RUnlock()
	if !exists {
		return nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	out := make([]*Client, len(room.clients))
	copy(out, room.clients)
	return out
}

// Members returns the current roster of the room.
func (r *Registry) Members(roomID string) []Member {
	r.mu.RLock()
	room, exists := r.rooms[roomID]
	r.mu.RUnlock()
	if !exists {
		return nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return room.rosterLocked()
}

func (s *roomSession) rosterLocked() []Member {
	roster := make([]Member, 0, len(s.clients))
	for _, c := range s.clients {
		roster = append(roster, Member{UserID: c.UserID, Name: c.Name, Role: c.Role})
	}
	return roster
}
