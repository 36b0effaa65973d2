package validation

import (
	"strings"
	"testing"
)

func TestValidateRoomID(t *testing.T) {
	tests := []struct {
		name    string
		roomID  string
		wantErr bool
	}{
		{"object id", "65f1c2a9e4b0a1b2c3d4e5f6", false},
		{"uuid", "2b1f0c6e-7d4a-4c1e-9a55-1f0e6a7b8c9d", false},
		{"prefixed", "interview:r1", false},
		{"empty", "", true},
		{"spaces", "room 1", true},
		{"slash", "room/1", true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoomID(tt.roomID)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRoomID() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateInterviewAndUserID(t *testing.T) {
	if err := ValidateInterviewID("i1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateInterviewID(""); err == nil {
		t.Error("expected error for empty interview ID")
	}
	if err := ValidateUserID("user_42"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateUserID("<script>"); err == nil {
		t.Error("expected error for invalid user ID")
	}
}

func TestValidateChatMessage(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"simple", "hello", false},
		{"unicode", "привет 👋", false},
		{"at limit", strings.Repeat("x", MaxChatMessageLength), false},
		{"empty", "", true},
		{"whitespace only", "   \n\t", true},
		{"over limit", strings.Repeat("x", MaxChatMessageLength+1), true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChatMessage(tt.content)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChatMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http", "http://localhost:3000/api", false},
		{"https", "https://access.internal/api", false},
		{"empty", "", true},
		{"ws scheme", "ws://localhost", true},
		{"no host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateICEServerURL(t *testing.T) {
	for _, ok := range []string{"stun:stun.l.google.com:19302", "turn:turn.example.com:3478?transport=udp", "turns:turn.example.com:443"} {
		if err := ValidateICEServerURL(ok); err != nil {
			t.Errorf("ValidateICEServerURL(%q) unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "stun:", "http://stun.example.com"} {
		if err := ValidateICEServerURL(bad); err == nil {
			t.Errorf("ValidateICEServerURL(%q) expected error", bad)
		}
	}
}
