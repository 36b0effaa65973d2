package reliability

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/infrastructure/collaborators"
	"interviewsignal/pkg/circuitbreaker"
	"interviewsignal/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAccess struct{ mock.Mock }

func (m *mockAccess) JoinInterview(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID) (*domain.JoinResult, error) {
	args := m.Called(ctx, interviewID, userID)
	result, _ := args.Get(0).(*domain.JoinResult)
	return result, args.Error(1)
}

func (m *mockAccess) CheckInterviewAccess(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID) (*domain.AccessResult, error) {
	args := m.Called(ctx, interviewID, userID)
	result, _ := args.Get(0).(*domain.AccessResult)
	return result, args.Error(1)
}

type mockChat struct{ mock.Mock }

func (m *mockChat) PersistChatMessage(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID, content string) (*domain.ChatMessage, error) {
	args := m.Called(ctx, interviewID, userID, content)
	result, _ := args.Get(0).(*domain.ChatMessage)
	return result, args.Error(1)
}

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) LookupAccount(ctx context.Context, userID domain.UserID) (domain.Identity, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.Identity), args.Error(1)
}

func fastRetry() retry.Config {
	return retry.Config{
		Enabled:      true,
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func breakerConfig(threshold int) circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig()
	cfg.FailureThreshold = threshold
	cfg.Timeout = time.Hour
	return cfg
}

var errUnavailable = errors.New("connection refused")

func TestAccessWrapper_RetriesTransientFailures(t *testing.T) {
	access := &mockAccess{}
	access.On("JoinInterview", mock.Anything, domain.InterviewID("iv-1"), domain.UserID("u1")).
		Return(nil, errUnavailable).Once()
	access.On("JoinInterview", mock.Anything, domain.InterviewID("iv-1"), domain.UserID("u1")).
		Return(&domain.JoinResult{CanJoin: true, UserRole: domain.RoleCandidate}, nil).Once()

	w := NewAccessWrapper(access, fastRetry(), breakerConfig(5), zap.NewNop().Sugar())

	result, err := w.JoinInterview(context.Background(), "iv-1", "u1")
	require.NoError(t, err)
	assert.True(t, result.CanJoin)
	access.AssertNumberOfCalls(t, "JoinInterview", 2)
}

func TestAccessWrapper_DoesNotRetryClientErrors(t *testing.T) {
	access := &mockAccess{}
	rejected := &collaborators.StatusError{Service: "access", Operation: "check_access", StatusCode: http.StatusNotFound}
	access.On("CheckInterviewAccess", mock.Anything, mock.Anything, mock.Anything).Return(nil, rejected)

	w := NewAccessWrapper(access, fastRetry(), breakerConfig(1), zap.NewNop().Sugar())

	_, err := w.CheckInterviewAccess(context.Background(), "iv-1", "u1")
	assert.ErrorIs(t, err, rejected)
	access.AssertNumberOfCalls(t, "CheckInterviewAccess", 1)
	assert.Equal(t, circuitbreaker.StateClosed, w.BreakerStats().State)
}

func TestAccessWrapper_BreakerOpensAndStopsCalls(t *testing.T) {
	access := &mockAccess{}
	access.On("CheckInterviewAccess", mock.Anything, mock.Anything, mock.Anything).Return(nil, errUnavailable)

	w := NewAccessWrapper(access, fastRetry(), breakerConfig(2), zap.NewNop().Sugar())

	_, err := w.CheckInterviewAccess(context.Background(), "iv-1", "u1")
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	access.AssertNumberOfCalls(t, "CheckInterviewAccess", 2)

	_, err = w.CheckInterviewAccess(context.Background(), "iv-1", "u1")
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	access.AssertNumberOfCalls(t, "CheckInterviewAccess", 2)
}

func TestChatWrapper_NeverRetries(t *testing.T) {
	chat := &mockChat{}
	chat.On("PersistChatMessage", mock.Anything, domain.InterviewID("iv-1"), domain.UserID("u1"), "hi").
		Return(nil, errUnavailable)

	w := NewChatWrapper(chat, breakerConfig(5), zap.NewNop().Sugar())

	_, err := w.PersistChatMessage(context.Background(), "iv-1", "u1", "hi")
	assert.ErrorIs(t, err, errUnavailable)
	chat.AssertNumberOfCalls(t, "PersistChatMessage", 1)
	assert.Equal(t, 1, w.BreakerStats().FailureCount)
}

func TestAccountWrapper_UnknownAccountIsNotAFailure(t *testing.T) {
	accounts := &mockAccounts{}
	accounts.On("LookupAccount", mock.Anything, domain.UserID("ghost")).Return(domain.Identity{}, domain.ErrAccountNotFound)
	accounts.On("LookupAccount", mock.Anything, domain.UserID("u1")).Return(domain.Identity{UserID: "u1", Active: true}, nil)

	w := NewAccountWrapper(accounts, fastRetry(), breakerConfig(1), zap.NewNop().Sugar())

	_, err := w.LookupAccount(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	accounts.AssertNumberOfCalls(t, "LookupAccount", 1)

	identity, err := w.LookupAccount(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, identity.Active)
}
