package ports

import (
	"context"

	"interviewsignal/internal/core/domain"
)

// SignalCoordinator is what the WebSocket transport dispatches client events
// to. Each call returns the ack payload for the caller or an error that the
// transport renders as a failed ack / interview:error event.
type SignalCoordinator interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
	Connect(ctx context.Context, conn *domain.Connection)
	Disconnect(ctx context.Context, conn *domain.Connection)
	KeepAlive(ctx context.Context, conn *domain.Connection)

	Join(ctx context.Context, conn *domain.Connection, req domain.RoomRequest) (*domain.JoinAck, error)
	Leave(ctx context.Context, conn *domain.Connection, req domain.RoomRequest) error
	Relay(ctx context.Context, conn *domain.Connection, env domain.SignalEnvelope) (*domain.RelayResult, error)
	SetRecording(ctx context.Context, conn *domain.Connection, req domain.RoomRequest, recording bool) error
	EndInterview(ctx context.Context, conn *domain.Connection, req domain.RoomRequest) error
	SendChat(ctx context.Context, conn *domain.Connection, req domain.ChatRequest) (*domain.ChatMessage, error)
}

// PresenceQuery backs the read-only HTTP presence API.
type PresenceQuery interface {
	PresenceSnapshot(ctx context.Context) []domain.PresenceEntry
	IsOnline(ctx context.Context, userID domain.UserID) bool
	RoomMembers(roomID domain.RoomID) []domain.Member
}

// UserNotifier delivers out-of-room notifications to a user's current
// connection, e.g. a new conversation announcement from the chat service.
type UserNotifier interface {
	NotifyUser(userID domain.UserID, event string, payload interface{}) bool
}
