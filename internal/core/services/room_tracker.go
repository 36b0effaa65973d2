package services

import (
	"sort"
	"sync"

	"interviewsignal/internal/core/domain"
)

type trackedRoom struct {
	interviewID domain.InterviewID
	members     map[domain.UserID]struct{}
}

// RoomTracker caches which users are believed to be in each room and which
// interview the room belongs to. The cache is only trusted after Reconcile
// has pruned it against live transport membership.
type RoomTracker struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*trackedRoom
}

func NewRoomTracker() *RoomTracker {
	return &RoomTracker{
		rooms: make(map[domain.RoomID]*trackedRoom),
	}
}

// Reconcile drops every cached user that has no live connection in the room
// and returns the removed ghosts.
func (t *RoomTracker) Reconcile(roomID domain.RoomID, live []domain.UserID) []domain.UserID {
	alive := make(map[domain.UserID]struct{}, len(live))
	for _, id := range live {
		alive[id] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[roomID]
	if !ok {
		return nil
	}

	var ghosts []domain.UserID
	for id := range room.members {
		if _, ok := alive[id]; !ok {
			delete(room.members, id)
			ghosts = append(ghosts, id)
		}
	}
	if len(room.members) == 0 {
		delete(t.rooms, roomID)
	}

	sort.Slice(ghosts, func(i, j int) bool { return ghosts[i] < ghosts[j] })
	return ghosts
}

// Add records userID in the room. The first admitted join binds the room to
// its interview until the room empties.
func (t *RoomTracker) Add(roomID domain.RoomID, interviewID domain.InterviewID, userID domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[roomID]
	if !ok {
		room = &trackedRoom{
			interviewID: interviewID,
			members:     make(map[domain.UserID]struct{}),
		}
		t.rooms[roomID] = room
	}
	room.members[userID] = struct{}{}
}

// Interview returns the interview the room is bound to, if it is tracked.
func (t *RoomTracker) Interview(roomID domain.RoomID) (domain.InterviewID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.rooms[roomID]
	if !ok {
		return "", false
	}
	return room.interviewID, true
}

// Remove deletes userID from the room and drops the room once empty.
func (t *RoomTracker) Remove(roomID domain.RoomID, userID domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := room.members[userID]; !ok {
		return false
	}
	delete(room.members, userID)
	if len(room.members) == 0 {
		delete(t.rooms, roomID)
	}
	return true
}

func (t *RoomTracker) Contains(roomID domain.RoomID, userID domain.UserID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = room.members[userID]
	return ok
}

// Members returns the cached user ids for a room in stable order.
func (t *RoomTracker) Members(roomID domain.RoomID) []domain.UserID {
	t.mu.RLock()
	var out []domain.UserID
	if room, ok := t.rooms[roomID]; ok {
		out = make([]domain.UserID, 0, len(room.members))
		for id := range room.members {
			out = append(out, id)
		}
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *RoomTracker) Delete(roomID domain.RoomID) {
	t.mu.Lock()
	delete(t.rooms, roomID)
	t.mu.Unlock()
}

func (t *RoomTracker) RoomCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}
