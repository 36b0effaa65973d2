package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	expected := "INVALID_INPUT: test error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, ErrCodeInternal, "wrapped error", 500)

	if !errors.Is(err, originalErr) {
		t.Errorf("errors.Is should find the cause")
	}
	if !strings.Contains(err.Error(), "original error") {
		t.Errorf("Error() should contain cause, got: %v", err.Error())
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	err.WithContext("field", "value").WithContext("count", 42)

	if err.Context["field"] != "value" {
		t.Errorf("Context[field] = %v, want 'value'", err.Context["field"])
	}
	if err.Context["count"] != 42 {
		t.Errorf("Context[count] = %v, want 42", err.Context["count"])
	}
}

func TestTaxonomyConstructors(t *testing.T) {
	cases := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
		reason string
	}{
		{"admission", NewAdmissionError("invalid_token", "bad token", nil), ErrCodeUnauthorized, http.StatusUnauthorized, "invalid_token"},
		{"validation", NewValidationError("missing_parameters", "missing"), ErrCodeInvalidInput, http.StatusBadRequest, "missing_parameters"},
		{"authorization", NewAuthorizationError("not_recruiter", "no"), ErrCodeForbidden, http.StatusForbidden, "not_recruiter"},
		{"dependency", NewDependencyError(errors.New("dial tcp")), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{"rate limit", NewRateLimitError(), ErrCodeRateLimit, http.StatusTooManyRequests, "rate_limited"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("Code = %v, want %v", tc.err.Code, tc.code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("HTTPStatus = %v, want %v", tc.err.HTTPStatus, tc.status)
			}
			if tc.err.Reason != tc.reason {
				t.Errorf("Reason = %v, want %v", tc.err.Reason, tc.reason)
			}
		})
	}
}

func TestDependencyError_HidesCause(t *testing.T) {
	err := NewDependencyError(errors.New("connection refused"))
	if strings.Contains(err.Message, "refused") {
		t.Errorf("Message should be generic, got %q", err.Message)
	}
}

func TestGetAppError(t *testing.T) {
	appErr := NewAuthorizationError("no_access", "no access to this interview")

	if got := GetAppError(appErr); got != appErr {
		t.Errorf("GetAppError() = %v, want %v", got, appErr)
	}

	wrapped := fmt.Errorf("join failed: %w", appErr)
	if got := GetAppError(wrapped); got != appErr {
		t.Errorf("GetAppError() should unwrap, got %v", got)
	}

	if GetAppError(errors.New("plain")) != nil {
		t.Errorf("GetAppError() should return nil for plain errors")
	}
	if GetAppError(nil) != nil {
		t.Errorf("GetAppError(nil) should return nil")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewAuthorizationError("no_access", "denied"))
	if !HasCode(err, ErrCodeForbidden) {
		t.Errorf("HasCode should match FORBIDDEN")
	}
	if HasCode(err, ErrCodeInvalidInput) {
		t.Errorf("HasCode should not match INVALID_INPUT")
	}
}
