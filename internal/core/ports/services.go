package ports

import (
	"context"
	"time"

	"interviewsignal/internal/core/domain"
)

// IdentityVerifier turns a bearer token into a verified identity.
type IdentityVerifier interface {
	ResolveIdentity(ctx context.Context, token string) (domain.Identity, error)
}

// AccountDirectory resolves account state for an identity. It returns
// domain.ErrAccountNotFound for unknown users.
type AccountDirectory interface {
	LookupAccount(ctx context.Context, userID domain.UserID) (domain.Identity, error)
}

// AccessService authorizes interview participation. Results are never cached.
type AccessService interface {
	JoinInterview(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID) (*domain.JoinResult, error)
	CheckInterviewAccess(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID) (*domain.AccessResult, error)
}

// ChatStore durably stores in-interview chat messages.
type ChatStore interface {
	PersistChatMessage(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID, content string) (*domain.ChatMessage, error)
}

// Transport is the live connection layer. Its room membership is the ground
// truth the room tracker reconciles against.
type Transport interface {
	RoomMembers(roomID domain.RoomID) []domain.Member
	Connection(connID domain.ConnectionID) (*domain.Connection, bool)
	JoinRoom(connID domain.ConnectionID, roomID domain.RoomID) error
	LeaveRoom(connID domain.ConnectionID, roomID domain.RoomID)

	// SendToConnection queues one frame. It never blocks.
	SendToConnection(connID domain.ConnectionID, event string, payload interface{}) error
	// EmitToRoom queues a frame for every room member except the given
	// connection and returns how many were queued.
	EmitToRoom(roomID domain.RoomID, event string, payload interface{}, except domain.ConnectionID) int
	Broadcast(event string, payload interface{}) int

	Disconnect(connID domain.ConnectionID, reason string)
}

type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	ConnectionRejected(reason string)
	SessionReplaced()
	SetOnlineUsers(n int)
	SetActiveRooms(n int)
	JoinCompleted(outcome string, duration time.Duration)
	GhostsRemoved(n int)
	SignalRelayed(signalType string, delivered bool)
	ControlEvent(event, outcome string)
	CollaboratorCall(service, operation, outcome string, duration time.Duration)
}
