package domain

import (
	"sync"
	"time"
)

type ConnectionID string

func (id ConnectionID) String() string { return string(id) }

// Connection is one live transport session. Role and room are negotiated on
// join and may change over the connection's lifetime, so they are guarded.
type Connection struct {
	ID          ConnectionID
	Identity    Identity
	ConnectedAt time.Time

	mu          sync.RWMutex
	role        Role
	roomID      RoomID
	interviewID InterviewID
	closed      bool
}

func NewConnection(id ConnectionID, identity Identity) *Connection {
	return &Connection{
		ID:          id,
		Identity:    identity,
		ConnectedAt: time.Now(),
	}
}

func (c *Connection) UserID() UserID {
	return c.Identity.UserID
}

// Bind attaches the connection to the room of an interview with the role the
// access service granted for it.
func (c *Connection) Bind(roomID RoomID, interviewID InterviewID, role Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
	c.interviewID = interviewID
	c.role = role
}

// Unbind clears the room binding if the connection is still bound to roomID.
func (c *Connection) Unbind(roomID RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.roomID != roomID {
		return false
	}
	c.roomID = ""
	c.interviewID = ""
	c.role = RoleNone
	return true
}

// Binding returns the bound room (empty when unbound) and negotiated role.
func (c *Connection) Binding() (RoomID, Role) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID, c.role
}

func (c *Connection) InRoom(roomID RoomID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return roomID != "" && c.roomID == roomID
}

// BoundTo reports whether the connection joined roomID for interviewID.
func (c *Connection) BoundTo(roomID RoomID, interviewID InterviewID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return roomID != "" && c.roomID == roomID && c.interviewID == interviewID
}

func (c *Connection) MarkClosed() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Connection) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Member is a transport-level room participant.
type Member struct {
	ConnectionID ConnectionID `json:"-"`
	UserID       UserID       `json:"userId"`
	Role         Role         `json:"role"`
	Name         string       `json:"name,omitempty"`
}
