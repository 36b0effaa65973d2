package reliability

import (
	"context"
	"errors"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/core/ports"
	"interviewsignal/internal/infrastructure/collaborators"
	"interviewsignal/pkg/circuitbreaker"
	"interviewsignal/pkg/retry"

	"go.uber.org/zap"
)

// isCallerError reports answers that say the request was wrong, not that
// the dependency is unhealthy.
func isCallerError(err error) bool {
	if errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *collaborators.StatusError
	return errors.As(err, &statusErr) && statusErr.ClientError()
}

func retryable(err error) bool {
	return !isCallerError(err) && !errors.Is(err, circuitbreaker.ErrOpen)
}

// newBreaker builds a breaker that ignores caller errors and logs
// transitions under the collaborator's name.
func newBreaker(service string, cfg circuitbreaker.Config, logger *zap.SugaredLogger) *circuitbreaker.CircuitBreaker {
	cfg.IsFailure = func(err error) bool { return !isCallerError(err) }
	cb := circuitbreaker.New(cfg)
	cb.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Infow("circuit breaker state changed",
			"service", service,
			"from", from.String(),
			"to", to.String(),
		)
	})
	return cb
}

func withRetryable(cfg retry.Config) retry.Config {
	cfg.Retryable = retryable
	return cfg
}

// AccessWrapper retries idempotent access lookups behind a breaker.
type AccessWrapper struct {
	service ports.AccessService
	retry   retry.Config
	breaker *circuitbreaker.CircuitBreaker
}

var _ ports.AccessService = (*AccessWrapper)(nil)

func NewAccessWrapper(service ports.AccessService, retryCfg retry.Config, cbCfg circuitbreaker.Config, logger *zap.SugaredLogger) *AccessWrapper {
	return &AccessWrapper{
		service: service,
		retry:   withRetryable(retryCfg),
		breaker: newBreaker("access", cbCfg, logger),
	}
}

func (w *AccessWrapper) JoinInterview(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID) (*domain.JoinResult, error) {
	return retry.DoWithResult(ctx, w.retry, func(ctx context.Context) (*domain.JoinResult, error) {
		return circuitbreaker.Execute(ctx, w.breaker, func(ctx context.Context) (*domain.JoinResult, error) {
			return w.service.JoinInterview(ctx, interviewID, userID)
		})
	})
}

func (w *AccessWrapper) CheckInterviewAccess(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID) (*domain.AccessResult, error) {
	return retry.DoWithResult(ctx, w.retry, func(ctx context.Context) (*domain.AccessResult, error) {
		return circuitbreaker.Execute(ctx, w.breaker, func(ctx context.Context) (*domain.AccessResult, error) {
			return w.service.CheckInterviewAccess(ctx, interviewID, userID)
		})
	})
}

func (w *AccessWrapper) BreakerStats() circuitbreaker.Stats {
	return w.breaker.Stats()
}

// ChatWrapper only guards chat persistence with a breaker. A retried
// POST could store the message twice.
type ChatWrapper struct {
	service ports.ChatStore
	breaker *circuitbreaker.CircuitBreaker
}

var _ ports.ChatStore = (*ChatWrapper)(nil)

func NewChatWrapper(service ports.ChatStore, cbCfg circuitbreaker.Config, logger *zap.SugaredLogger) *ChatWrapper {
	return &ChatWrapper{
		service: service,
		breaker: newBreaker("chat", cbCfg, logger),
	}
}

func (w *ChatWrapper) PersistChatMessage(ctx context.Context, interviewID domain.InterviewID, userID domain.UserID, content string) (*domain.ChatMessage, error) {
	return circuitbreaker.Execute(ctx, w.breaker, func(ctx context.Context) (*domain.ChatMessage, error) {
		return w.service.PersistChatMessage(ctx, interviewID, userID, content)
	})
}

func (w *ChatWrapper) BreakerStats() circuitbreaker.Stats {
	return w.breaker.Stats()
}

// AccountWrapper retries account lookups during admission.
type AccountWrapper struct {
	directory ports.AccountDirectory
	retry     retry.Config
	breaker   *circuitbreaker.CircuitBreaker
}

var _ ports.AccountDirectory = (*AccountWrapper)(nil)

func NewAccountWrapper(directory ports.AccountDirectory, retryCfg retry.Config, cbCfg circuitbreaker.Config, logger *zap.SugaredLogger) *AccountWrapper {
	return &AccountWrapper{
		directory: directory,
		retry:     withRetryable(retryCfg),
		breaker:   newBreaker("accounts", cbCfg, logger),
	}
}

func (w *AccountWrapper) LookupAccount(ctx context.Context, userID domain.UserID) (domain.Identity, error) {
	return retry.DoWithResult(ctx, w.retry, func(ctx context.Context) (domain.Identity, error) {
		return circuitbreaker.Execute(ctx, w.breaker, func(ctx context.Context) (domain.Identity, error) {
			return w.directory.LookupAccount(ctx, userID)
		})
	})
}
