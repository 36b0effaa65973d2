package domain

import "errors"

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrConnectionGone   = errors.New("connection not found")
	ErrAccountNotFound  = errors.New("account not found")
	ErrAccountInactive  = errors.New("account inactive")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Stable reason codes returned to clients alongside an error code.
const (
	ReasonMissingParameters = "missing_parameters"
	ReasonInvalidParameters = "invalid_parameters"
	ReasonCannotJoin        = "cannot_join"
	ReasonNotRecruiter      = "not_recruiter"
	ReasonNoAccess          = "no_access"
	ReasonNotInRoom         = "not_in_room"
	ReasonServiceError      = "service_unavailable"
	ReasonMissingToken      = "missing_token"
	ReasonInvalidToken      = "invalid_token"
	ReasonTokenExpired      = "token_expired"
	ReasonUnknownAccount    = "unknown_account"
	ReasonInactiveAccount   = "inactive_account"
	ReasonInvalidMessage    = "invalid_message"
	ReasonUnknownEvent      = "unknown_event"
	ReasonRateLimited       = "rate_limited"
)
