package services

import (
	"sort"
	"sync"

	"interviewsignal/internal/core/domain"
)

// PresenceRegistry maps each online user to its single current connection.
// A newer registration for the same user overwrites the older one.
type PresenceRegistry struct {
	mu      sync.RWMutex
	entries map[domain.UserID]domain.PresenceEntry
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries: make(map[domain.UserID]domain.PresenceEntry),
	}
}

// Register stores entry and returns the entry it replaced, if that entry
// belonged to a different connection.
func (r *PresenceRegistry) Register(entry domain.PresenceEntry) *domain.PresenceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.entries[entry.UserID]
	r.entries[entry.UserID] = entry
	if !ok || prev.ConnectionID == entry.ConnectionID {
		return nil
	}
	return &prev
}

// Unregister removes the user's entry only while it still references connID,
// so a late disconnect of an old tab cannot clobber a newer one.
func (r *PresenceRegistry) Unregister(userID domain.UserID, connID domain.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[userID]
	if !ok || entry.ConnectionID != connID {
		return false
	}
	delete(r.entries, userID)
	return true
}

func (r *PresenceRegistry) IsOnline(userID domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[userID]
	return ok
}

func (r *PresenceRegistry) Lookup(userID domain.UserID) (domain.PresenceEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[userID]
	return entry, ok
}

// Snapshot returns all entries ordered by connection time.
func (r *PresenceRegistry) Snapshot() []domain.PresenceEntry {
	r.mu.RLock()
	out := make([]domain.PresenceEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry)
	}
	r.mu.RUnlock()

	sortByConnectedAt(out)
	return out
}

func sortByConnectedAt(entries []domain.PresenceEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ConnectedAt.Equal(entries[j].ConnectedAt) {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].ConnectedAt.Before(entries[j].ConnectedAt)
	})
}

func (r *PresenceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
