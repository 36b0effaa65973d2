package services

import (
	"context"
	"sync"
	"testing"

	"interviewsignal/internal/core/domain"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

type frame struct {
	To      domain.ConnectionID
	Event   string
	Payload interface{}
}

// fakeTransport keeps rooms and records every queued frame.
type fakeTransport struct {
	mu           sync.Mutex
	conns        map[domain.ConnectionID]*domain.Connection
	rooms        map[domain.RoomID][]domain.ConnectionID
	frames       []frame
	disconnected []domain.ConnectionID
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		conns: make(map[domain.ConnectionID]*domain.Connection),
		rooms: make(map[domain.RoomID][]domain.ConnectionID),
	}
}

func (f *fakeTransport) add(conn *domain.Connection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conns[conn.ID] = conn
}

// drop simulates the hub removing a closed connection.
func (f *fakeTransport) drop(connID domain.ConnectionID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns, connID)
	for room := range f.rooms {
		f.removeLocked(connID, room)
	}
}

func (f *fakeTransport) removeLocked(connID domain.ConnectionID, roomID domain.RoomID) {
	ids := f.rooms[roomID]
	for i, id := range ids {
		if id == connID {
			f.rooms[roomID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(f.rooms[roomID]) == 0 {
		delete(f.rooms, roomID)
	}
}

func (f *fakeTransport) RoomMembers(roomID domain.RoomID) []domain.Member {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Member
	for _, id := range f.rooms[roomID] {
		conn := f.conns[id]
		_, role := conn.Binding()
		out = append(out, domain.Member{
			ConnectionID: id,
			UserID:       conn.UserID(),
			Role:         role,
			Name:         conn.Identity.Name,
		})
	}
	return out
}

func (f *fakeTransport) Connection(connID domain.ConnectionID) (*domain.Connection, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn, ok := f.conns[connID]
	return conn, ok
}

func (f *fakeTransport) JoinRoom(connID domain.ConnectionID, roomID domain.RoomID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conns[connID]; !ok {
		return domain.ErrConnectionGone
	}
	for _, id := range f.rooms[roomID] {
		if id == connID {
			return nil
		}
	}
	f.rooms[roomID] = append(f.rooms[roomID], connID)
	return nil
}

func (f *fakeTransport) LeaveRoom(connID domain.ConnectionID, roomID domain.RoomID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(connID, roomID)
}

func (f *fakeTransport) SendToConnection(connID domain.ConnectionID, event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conns[connID]; !ok {
		return domain.ErrConnectionGone
	}
	f.frames = append(f.frames, frame{To: connID, Event: event, Payload: payload})
	return nil
}

func (f *fakeTransport) EmitToRoom(roomID domain.RoomID, event string, payload interface{}, except domain.ConnectionID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range f.rooms[roomID] {
		if id == except {
			continue
		}
		f.frames = append(f.frames, frame{To: id, Event: event, Payload: payload})
		n++
	}
	return n
}

func (f *fakeTransport) Broadcast(event string, payload interface{}) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.conns {
		f.frames = append(f.frames, frame{To: id, Event: event, Payload: payload})
	}
	return len(f.conns)
}

func (f *fakeTransport) Disconnect(connID domain.ConnectionID, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = append(f.disconnected, connID)
}

func (f *fakeTransport) framesFor(connID domain.ConnectionID, event string) []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []frame
	for _, fr := range f.frames {
		if fr.To == connID && fr.Event == event {
			out = append(out, fr)
		}
	}
	return out
}

func (f *fakeTransport) framesOf(event string) []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []frame
	for _, fr := range f.frames {
		if fr.Event == event {
			out = append(out, fr)
		}
	}
	return out
}

type mockAccess struct {
	mock.Mock
}

func (m *mockAccess) JoinInterview(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID) (*domain.JoinResult, error) {
	args := m.Called(ctx, interviewID, userID)
	if r := args.Get(0); r != nil {
		return r.(*domain.JoinResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccess) CheckInterviewAccess(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID) (*domain.AccessResult, error) {
	args := m.Called(ctx, interviewID, userID)
	if r := args.Get(0); r != nil {
		return r.(*domain.AccessResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockChat struct {
	mock.Mock
}

func (m *mockChat) PersistChatMessage(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID, content string) (*domain.ChatMessage, error) {
	args := m.Called(ctx, interviewID, userID, content)
	if r := args.Get(0); r != nil {
		return r.(*domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPresenceStore struct {
	mock.Mock
}

func (m *mockPresenceStore) Store(ctx context.Context, entry domain.PresenceEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockPresenceStore) Remove(ctx context.Context, userID domain.UserID, connID domain.ConnectionID) (bool, error) {
	args := m.Called(ctx, userID, connID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPresenceStore) Refresh(ctx context.Context, userID domain.UserID, connID domain.ConnectionID) error {
	return m.Called(ctx, userID, connID).Error(0)
}

func (m *mockPresenceStore) List(ctx context.Context) ([]domain.PresenceEntry, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]domain.PresenceEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPresenceStore) Lookup(ctx context.Context, userID domain.UserID) (*domain.PresenceEntry, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.(*domain.PresenceEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishPresence(ctx context.Context, update domain.PresenceUpdate) error {
	return m.Called(ctx, update).Error(0)
}

type harness struct {
	coord     *Coordinator
	transport *fakeTransport
	access    *mockAccess
	chat      *mockChat
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		transport: newFakeTransport(),
		access:    new(mockAccess),
		chat:      new(mockChat),
	}
	h.coord = NewCoordinator(CoordinatorDeps{
		Verifier:  NewIdentityVerifier(testSecret, "", nil),
		Access:    h.access,
		Chat:      h.chat,
		Transport: h.transport,
	}, CoordinatorConfig{DisconnectSuperseded: true}, zaptest.NewLogger(t).Sugar())
	return h
}

// connect admits a new connection for user.
func (h *harness) connect(user string, name string) *domain.Connection {
	conn := domain.NewConnection(
		domain.ConnectionID("conn-"+user+"-"+name),
		domain.Identity{UserID: domain.UserID(user), Name: name, Active: true},
	)
	h.transport.add(conn)
	h.coord.Connect(context.Background(), conn)
	return conn
}

// close mirrors the transport's close path: hub removal, then Disconnect.
func (h *harness) close(conn *domain.Connection) {
	conn.MarkClosed()
	h.transport.drop(conn.ID)
	h.coord.Disconnect(context.Background(), conn)
}

func (h *harness) allowJoin(user string, interview string, role domain.Role) {
	h.access.On("JoinInterview", mock.Anything, domain.InterviewID(interview), domain.UserID(user)).
		Return(&domain.JoinResult{CanJoin: true, UserRole: role}, nil)
}

func (h *harness) allowAccess(user string, interview string, hasAccess, isRecruiter bool) {
	h.access.On("CheckInterviewAccess", mock.Anything, domain.InterviewID(interview), domain.UserID(user)).
		Return(&domain.AccessResult{HasAccess: hasAccess, IsRecruiter: isRecruiter}, nil)
}

func room(roomID, interviewID string) domain.RoomRequest {
	return domain.RoomRequest{RoomID: domain.RoomID(roomID), InterviewID: domain.InterviewID(interviewID)}
}
