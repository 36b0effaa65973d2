package domain

import (
	"encoding/json"
	"time"
)

// SignalType identifies a WebRTC negotiation payload. The payload itself is
// opaque to the server.
type SignalType string

const (
	SignalOffer        SignalType = "offer"
	SignalAnswer       SignalType = "answer"
	SignalICECandidate SignalType = "ice-candidate"
	SignalUnified      SignalType = "unified"
)

// SignalEnvelope exists only for the duration of a relay.
type SignalEnvelope struct {
	Type        SignalType      `json:"type"`
	From        UserID          `json:"from"`
	To          UserID          `json:"to,omitempty"`
	RoomID      RoomID          `json:"roomId"`
	InterviewID InterviewID     `json:"interviewId"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// RelayResult reports the local forward step only.
type RelayResult struct {
	Success    bool `json:"success"`
	Delivered  bool `json:"delivered"`
	Recipients int  `json:"recipients"`
}

// Wire event names.
const (
	EventJoin           = "interview:join"
	EventLeave          = "interview:leave"
	EventOffer          = "interview:offer"
	EventAnswer         = "interview:answer"
	EventICECandidate   = "interview:ice-candidate"
	EventSignal         = "interview:signal"
	EventUserJoined     = "interview:user-joined"
	EventUserLeft       = "interview:user-left"
	EventPeerDisconnect = "interview:peer-disconnected"
	EventStartRecording = "interview:start-recording"
	EventStopRecording  = "interview:stop-recording"
	EventRecordingStart = "interview:recording-started"
	EventRecordingStop  = "interview:recording-stopped"
	EventEnd            = "interview:end"
	EventEnded          = "interview:ended"
	EventChatMessage    = "interview:chat-message"
	EventError          = "interview:error"
	EventPresence       = "user:presence"
	EventSessionReplace = "session:replaced"
	EventAck            = "ack"
)

// SignalTypeForEvent maps a relay event to its envelope type.
func SignalTypeForEvent(event string) (SignalType, bool) {
	switch event {
	case EventOffer:
		return SignalOffer, true
	case EventAnswer:
		return SignalAnswer, true
	case EventICECandidate:
		return SignalICECandidate, true
	case EventSignal:
		return SignalUnified, true
	}
	return "", false
}

// Event returns the wire event a relayed envelope is delivered on.
func (t SignalType) Event() string {
	switch t {
	case SignalOffer:
		return EventOffer
	case SignalAnswer:
		return EventAnswer
	case SignalICECandidate:
		return EventICECandidate
	default:
		return EventSignal
	}
}
