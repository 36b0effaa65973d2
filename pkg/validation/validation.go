package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxIDLength          = 128
	MaxChatMessageLength = 4000
)

var (
	// IDRegex matches room, interview and user ids: opaque tokens such as
	// document ids or uuids.
	IDRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)
)

func validateID(id, field string) error {
	if id == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%s is too long (max %d characters)", field, MaxIDLength)
	}
	if !IDRegex.MatchString(id) {
		return fmt.Errorf("invalid %s format", field)
	}
	return nil
}

// ValidateRoomID validates a signaling room id
func ValidateRoomID(roomID string) error {
	return validateID(roomID, "room ID")
}

// ValidateInterviewID validates an interview id
func ValidateInterviewID(interviewID string) error {
	return validateID(interviewID, "interview ID")
}

// ValidateUserID validates a user id
func ValidateUserID(userID string) error {
	return validateID(userID, "user ID")
}

// ValidateChatMessage validates in-interview chat content
func ValidateChatMessage(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("message is required")
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("message contains invalid characters")
	}
	return ValidateStringLength(content, 1, MaxChatMessageLength, "message")
}

// ValidateURL validates URL format
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme (must be http or https)")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ValidateICEServerURL validates a STUN/TURN url handed to clients
func ValidateICEServerURL(urlStr string) error {
	for _, prefix := range []string{"stun:", "stuns:", "turn:", "turns:"} {
		if strings.HasPrefix(urlStr, prefix) && len(urlStr) > len(prefix) {
			return nil
		}
	}
	return fmt.Errorf("invalid ICE server URL %q (must start with stun:, stuns:, turn: or turns:)", urlStr)
}

// ValidateStringLength validates string length
func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}
