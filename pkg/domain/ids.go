package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "facegate/pkg/domain-errors"
)

// SessionID identifies one verification attempt. Always a valid, non-nil UUID.
type SessionID uuid.UUID

// NewSessionID mints a fresh session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// ParseSessionID validates an external session id string.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseSessionID(s string) (SessionID, error) {
	if s == "" {
		return SessionID{}, dErrors.New(dErrors.CodeInvalidInput, "session id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, dErrors.New(dErrors.CodeInvalidInput, "session id is not a valid UUID")
	}
	if u == uuid.Nil {
		return SessionID{}, dErrors.New(dErrors.CodeInvalidInput, "session id must not be the nil UUID")
	}
	return SessionID(u), nil
}

func (id SessionID) String() string { return uuid.UUID(id).String() }

func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders the id as its canonical UUID string in JSON and logs.
func (id SessionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *SessionID) UnmarshalText(text []byte) error {
	parsed, err := ParseSessionID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// UserID is the stable identifier of an enrolled person. It is caller-assigned
// (badge number, HR id), so it stays a validated string rather than a UUID.
type UserID string

const maxUserIDLen = 64

// ParseUserID validates a user identifier at the trust boundary.
func ParseUserID(s string) (UserID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user id must not be empty")
	}
	if len(s) > maxUserIDLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user id exceeds maximum length")
	}
	for _, r := range s {
		if !isUserIDRune(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "user id contains invalid characters")
		}
	}
	return UserID(s), nil
}

func isUserIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '.', r == '@':
		return true
	}
	return false
}

func (id UserID) String() string { return string(id) }

func (id UserID) IsNil() bool { return id == "" }
