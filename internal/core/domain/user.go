package domain

import "time"

type UserID string

func (id UserID) String() string { return string(id) }

// Role is the part a user plays in an interview.
type Role string

const (
	RoleNone      Role = ""
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
)

func (r Role) Valid() bool {
	return r == RoleRecruiter || r == RoleCandidate
}

// Identity is the verified owner of a connection.
type Identity struct {
	UserID UserID `json:"userId"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role,omitempty"`
	Active bool   `json:"active"`
}

// PresenceEntry is the registry value for one online user.
type PresenceEntry struct {
	UserID       UserID       `json:"userId"`
	ConnectionID ConnectionID `json:"connectionId"`
	User         Identity     `json:"user"`
	ConnectedAt  time.Time    `json:"connectedAt"`
}

// PresenceUpdate is the payload of a user:presence event.
type PresenceUpdate struct {
	UserID   UserID     `json:"userId"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}
