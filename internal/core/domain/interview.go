package domain

import (
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v3"
)

type RoomID string

type InterviewID string

func (id RoomID) String() string      { return string(id) }
func (id InterviewID) String() string { return string(id) }

// RoomRequest addresses an interview room. Most client events carry it.
type RoomRequest struct {
	RoomID      RoomID      `json:"roomId"`
	InterviewID InterviewID `json:"interviewId"`
}

// JoinResult is returned by the access service for every join attempt.
type JoinResult struct {
	CanJoin   bool            `json:"canJoin"`
	UserRole  Role            `json:"userRole"`
	Interview json.RawMessage `json:"interview,omitempty"`
}

// AccessResult is returned by the access service for control operations.
type AccessResult struct {
	HasAccess   bool `json:"hasAccess"`
	IsRecruiter bool `json:"isRecruiter"`
}

// JoinAck is sent back to a connection that was admitted into a room.
type JoinAck struct {
	Success             bool               `json:"success"`
	RoomID              RoomID             `json:"roomId"`
	UserRole            Role               `json:"userRole"`
	ExistingUsers       []Member           `json:"existingUsers"`
	ShouldInitiateOffer bool               `json:"shouldInitiateOffer"`
	Interview           json.RawMessage    `json:"interview,omitempty"`
	ICEServers          []webrtc.ICEServer `json:"iceServers,omitempty"`
}

type ChatRequest struct {
	RoomID      RoomID      `json:"roomId"`
	InterviewID InterviewID `json:"interviewId"`
	Message     string      `json:"message"`
}

// ChatMessage is a message stored by the chat persistence service.
type ChatMessage struct {
	ID          string      `json:"id"`
	InterviewID InterviewID `json:"interviewId"`
	SenderID    UserID      `json:"senderId"`
	Content     string      `json:"content"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// RoomEvent is the payload of membership and control notifications.
type RoomEvent struct {
	UserID       UserID       `json:"userId"`
	Role         Role         `json:"role,omitempty"`
	Name         string       `json:"name,omitempty"`
	ConnectionID ConnectionID `json:"connectionId,omitempty"`
	InterviewID  InterviewID  `json:"interviewId,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`

	// ShouldInitiateOffer is set on user-joined events sent to a waiting
	// candidate when a recruiter arrives.
	ShouldInitiateOffer bool `json:"shouldInitiateOffer,omitempty"`
}

const (
	LeaveReasonDisconnect = "disconnect"
	LeaveReasonLeft       = "left"
	LeaveReasonEnded      = "ended"
)
