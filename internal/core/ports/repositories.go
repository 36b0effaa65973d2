package ports

import (
	"context"

	"interviewsignal/internal/core/domain"
)

// PresenceStore mirrors the local Presence Registry into shared storage so
// every instance can answer who is online across the cluster. The in-process
// registry stays authoritative for this instance.
type PresenceStore interface {
	Store(ctx context.Context, entry domain.PresenceEntry) error
	// Remove deletes the entry only while it still references connID.
	Remove(ctx context.Context, userID domain.UserID, connID domain.ConnectionID) (bool, error)
	// Refresh extends the entry's TTL if it still references connID.
	Refresh(ctx context.Context, userID domain.UserID, connID domain.ConnectionID) error
	List(ctx context.Context) ([]domain.PresenceEntry, error)
	// Lookup returns nil when the user has no shared entry.
	Lookup(ctx context.Context, userID domain.UserID) (*domain.PresenceEntry, error)
}

// PresencePublisher fans presence changes out to other instances.
type PresencePublisher interface {
	PublishPresence(ctx context.Context, update domain.PresenceUpdate) error
}
