package collaborators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"interviewsignal/internal/core/ports"
	"interviewsignal/pkg/tracing"

	"go.uber.org/zap"
)

const serviceKeyHeader = "X-Service-Key"

// StatusError is a non-2xx answer from a collaborator.
type StatusError struct {
	Service    string
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Service, e.Operation, e.StatusCode)
}

// ClientError reports whether the collaborator rejected the request itself.
// Such answers are not retried and do not trip the breaker.
func (e *StatusError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// httpClient is the JSON plumbing shared by the access, chat and account
// clients.
type httpClient struct {
	service    string
	baseURL    string
	serviceKey string
	http       *http.Client
	metrics    ports.Metrics
	logger     *zap.SugaredLogger
}

func newHTTPClient(service string, cfg Config, metrics ports.Metrics, logger *zap.SugaredLogger) *httpClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpClient{
		service:    service,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		http:       &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

func (c *httpClient) do(ctx context.Context, operation, method, path string, body, out interface{}) (err error) {
	ctx, span := tracing.TraceCollaboratorCall(ctx, c.service, operation)
	defer span.End()

	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			tracing.RecordError(ctx, err)
		}
		if c.metrics != nil {
			c.metrics.CollaboratorCall(c.service, operation, outcome, time.Since(start))
		}
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.serviceKey != "" {
		req.Header.Set(serviceKeyHeader, c.serviceKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", c.service, operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", c.service, operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debugw("collaborator returned error status",
			"service", c.service,
			"operation", operation,
			"status", resp.StatusCode,
		)
		return &StatusError{
			Service:    c.service,
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", c.service, operation, err)
	}
	return nil
}

// Ping reports whether the collaborator answers HTTP at all. Any status
// counts; only transport failures are errors.
func (c *httpClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", c.service, err)
	}
	resp.Body.Close()
	return nil
}
