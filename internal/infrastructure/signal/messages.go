package signal

import (
	"encoding/json"

	"interviewsignal/internal/core/domain"
	apperrors "interviewsignal/pkg/errors"
)

// inboundFrame is what clients send: {"event", "ack", "data"}.
type inboundFrame struct {
	Event string          `json:"event"`
	Ack   string          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outboundFrame is what the server sends. Ack is only set on acks.
type outboundFrame struct {
	Event string      `json:"event"`
	Ack   string      `json:"ack,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// relayFrame is the data of offer/answer/ice-candidate/signal events.
type relayFrame struct {
	RoomID      domain.RoomID      `json:"roomId"`
	InterviewID domain.InterviewID `json:"interviewId"`
	To          domain.UserID      `json:"to,omitempty"`
	Payload     json.RawMessage    `json:"payload,omitempty"`
}

type errorPayload struct {
	Success bool   `json:"success"`
	Event   string `json:"event,omitempty"`
	Code    string `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

type successPayload struct {
	Success bool                `json:"success"`
	Message *domain.ChatMessage `json:"message,omitempty"`
}

func encodeFrame(event, ack string, data interface{}) ([]byte, error) {
	return json.Marshal(outboundFrame{Event: event, Ack: ack, Data: data})
}

func newErrorPayload(event string, err error) errorPayload {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		appErr = apperrors.NewInternalError("internal error")
	}
	return errorPayload{
		Event:   event,
		Code:    string(appErr.Code),
		Reason:  appErr.Reason,
		Message: appErr.Message,
	}
}
