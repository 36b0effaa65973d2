package signal

import (
	"sort"
	"sync"

	"interviewsignal/internal/core/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub tracks live clients and the rooms they are in. Its room membership is
// the ground truth the coordinator reconciles against.
type Hub struct {
	mu      sync.RWMutex
	clients map[domain.ConnectionID]*client
	rooms   map[domain.RoomID]map[domain.ConnectionID]*client

	logger *zap.SugaredLogger
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[domain.ConnectionID]*client),
		rooms:   make(map[domain.RoomID]map[domain.ConnectionID]*client),
		logger:  logger,
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.session.ID] = c
	h.mu.Unlock()
}

// remove drops c from the hub and every room it was in.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[c.session.ID]; ok && current == c {
		delete(h.clients, c.session.ID)
	}
	for roomID := range c.rooms {
		h.leaveLocked(c.session.ID, roomID)
	}
}

func (h *Hub) leaveLocked(connID domain.ConnectionID, roomID domain.RoomID) {
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if c, ok := members[connID]; ok {
		delete(c.rooms, roomID)
		delete(members, connID)
	}
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// RoomMembers lists open connections in the room, oldest first.
func (h *Hub) RoomMembers(roomID domain.RoomID) []domain.Member {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[roomID]))
	for _, c := range h.rooms[roomID] {
		if !c.session.Closed() {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].session.ConnectedAt.Before(clients[j].session.ConnectedAt)
	})

	members := make([]domain.Member, 0, len(clients))
	for _, c := range clients {
		_, role := c.session.Binding()
		members = append(members, domain.Member{
			ConnectionID: c.session.ID,
			UserID:       c.session.UserID(),
			Role:         role,
			Name:         c.session.Identity.Name,
		})
	}
	return members
}

func (h *Hub) Connection(connID domain.ConnectionID) (*domain.Connection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return nil, false
	}
	return c.session, true
}

func (h *Hub) JoinRoom(connID domain.ConnectionID, roomID domain.RoomID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok || c.session.Closed() {
		return domain.ErrConnectionGone
	}
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[domain.ConnectionID]*client)
		h.rooms[roomID] = members
	}
	members[connID] = c
	c.rooms[roomID] = struct{}{}
	return nil
}

func (h *Hub) LeaveRoom(connID domain.ConnectionID, roomID domain.RoomID) {
	h.mu.Lock()
	h.leaveLocked(connID, roomID)
	h.mu.Unlock()
}

func (h *Hub) SendToConnection(connID domain.ConnectionID, event string, payload interface{}) error {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return domain.ErrConnectionGone
	}

	msg, err := encodeFrame(event, "", payload)
	if err != nil {
		return err
	}
	return c.enqueue(msg)
}

func (h *Hub) EmitToRoom(roomID domain.RoomID, event string, payload interface{}, except domain.ConnectionID) int {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.rooms[roomID]))
	for id, c := range h.rooms[roomID] {
		if id != except {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	return h.fanOut(targets, event, payload)
}

func (h *Hub) Broadcast(event string, payload interface{}) int {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	return h.fanOut(targets, event, payload)
}

func (h *Hub) fanOut(targets []*client, event string, payload interface{}) int {
	if len(targets) == 0 {
		return 0
	}
	msg, err := encodeFrame(event, "", payload)
	if err != nil {
		h.logger.Errorw("failed to encode frame", "event", event, "error", err)
		return 0
	}

	n := 0
	for _, c := range targets {
		if c.enqueue(msg) == nil {
			n++
		}
	}
	return n
}

// Disconnect closes the connection after flushing frames already queued.
func (h *Hub) Disconnect(connID domain.ConnectionID, reason string) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if ok {
		c.shutdown(websocket.ClosePolicyViolation, reason)
	}
}

// CloseAll closes every client, used on server shutdown.
func (h *Hub) CloseAll(reason string) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.shutdown(websocket.CloseGoingAway, reason)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
