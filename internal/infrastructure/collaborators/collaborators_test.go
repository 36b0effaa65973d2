package collaborators

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"interviewsignal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordedCall struct {
	service, operation, outcome string
}

type recordingMetrics struct {
	calls []recordedCall
}

func (m *recordingMetrics) ConnectionOpened()                   {}
func (m *recordingMetrics) ConnectionClosed()                   {}
func (m *recordingMetrics) ConnectionRejected(string)           {}
func (m *recordingMetrics) SessionReplaced()                    {}
func (m *recordingMetrics) SetOnlineUsers(int)                  {}
func (m *recordingMetrics) SetActiveRooms(int)                  {}
func (m *recordingMetrics) JoinCompleted(string, time.Duration) {}
func (m *recordingMetrics) GhostsRemoved(int)                   {}
func (m *recordingMetrics) SignalRelayed(string, bool)          {}
func (m *recordingMetrics) ControlEvent(string, string)         {}
func (m *recordingMetrics) CollaboratorCall(service, op, outcome string, _ time.Duration) {
	m.calls = append(m.calls, recordedCall{service, op, outcome})
}

func newConfig(srv *httptest.Server) Config {
	return Config{BaseURL: srv.URL + "/api/", ServiceKey: "svc-key", Timeout: time.Second}
}

func TestAccessClient_JoinInterview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/interviews/iv-1/join", r.URL.Path)
		assert.Equal(t, "svc-key", r.Header.Get(serviceKeyHeader))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u1", body["userId"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"canJoin":true,"userRole":"candidate","interview":{"title":"Go"}}`))
	}))
	defer srv.Close()

	metrics := &recordingMetrics{}
	client := NewAccessClient(newConfig(srv), metrics, zaptest.NewLogger(t).Sugar())

	result, err := client.JoinInterview(context.Background(), "iv-1", "u1")
	require.NoError(t, err)
	assert.True(t, result.CanJoin)
	assert.Equal(t, domain.RoleCandidate, result.UserRole)
	assert.JSONEq(t, `{"title":"Go"}`, string(result.Interview))
	assert.Equal(t, []recordedCall{{"access", "join", "ok"}}, metrics.calls)
}

func TestAccessClient_CheckInterviewAccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/interviews/iv-1/access", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("userId"))
		_, _ = w.Write([]byte(`{"hasAccess":true,"isRecruiter":true}`))
	}))
	defer srv.Close()

	client := NewAccessClient(newConfig(srv), nil, zaptest.NewLogger(t).Sugar())

	result, err := client.CheckInterviewAccess(context.Background(), "iv-1", "u1")
	require.NoError(t, err)
	assert.True(t, result.HasAccess)
	assert.True(t, result.IsRecruiter)
}

func TestAccessClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	metrics := &recordingMetrics{}
	client := NewAccessClient(newConfig(srv), metrics, zaptest.NewLogger(t).Sugar())

	_, err := client.JoinInterview(context.Background(), "iv-1", "u1")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.False(t, statusErr.ClientError())
	assert.Equal(t, "error", metrics.calls[0].outcome)
}

func TestAccessClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := newConfig(srv)
	srv.Close()

	client := NewAccessClient(cfg, nil, zaptest.NewLogger(t).Sugar())
	_, err := client.CheckInterviewAccess(context.Background(), "iv-1", "u1")
	require.Error(t, err)
	assert.Error(t, client.Ping(context.Background()))
}

func TestChatClient_PersistChatMessage(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/interviews/iv-1/messages", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["content"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": domain.ChatMessage{ID: "m1", InterviewID: "iv-1", SenderID: "u1", Content: body["content"], CreatedAt: created},
		})
	}))
	defer srv.Close()

	client := NewChatClient(newConfig(srv), nil, zaptest.NewLogger(t).Sugar())

	msg, err := client.PersistChatMessage(context.Background(), "iv-1", "u1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	assert.True(t, created.Equal(msg.CreatedAt))
}

func TestChatClient_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewChatClient(newConfig(srv), nil, zaptest.NewLogger(t).Sugar())

	_, err := client.PersistChatMessage(context.Background(), "iv-1", "u1", "hello")
	assert.ErrorIs(t, err, errEmptyChatResponse)
}

func TestAccountClient_LookupAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/u1":
			_, _ = w.Write([]byte(`{"id":"u1","name":"Ada","role":"recruiter","active":true}`))
		case "/api/users/u2":
			_, _ = w.Write([]byte(`{"name":"Bob","active":false}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewAccountClient(newConfig(srv), nil, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	identity, err := client.LookupAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: "u1", Name: "Ada", Role: domain.RoleRecruiter, Active: true}, identity)

	identity, err = client.LookupAccount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u2"), identity.UserID)
	assert.False(t, identity.Active)

	_, err = client.LookupAccount(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrAccountNotFound))
}
