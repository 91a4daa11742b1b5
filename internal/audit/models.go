package audit

import (
	"time"

	id "facegate/pkg/domain"
)

// Action names the thing that happened. Keep values stable: they end up in
// downstream audit storage.
type Action string

const (
	ActionSessionOpened         Action = "session_opened"
	ActionSessionTransition     Action = "session_transition"
	ActionSessionExpired        Action = "session_expired"
	ActionAttendanceRecorded    Action = "attendance_recorded"
	ActionAttendanceDuplicate   Action = "attendance_duplicate"
	ActionAttendanceUnpersisted Action = "attendance_unpersisted"
	ActionEnrollmentSaved       Action = "enrollment_saved"
	ActionEnrollmentRemoved     Action = "enrollment_removed"
)

// Event is emitted from domain logic to capture key pipeline actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time    `json:"timestamp"`
	Action    Action       `json:"action"`
	SessionID id.SessionID `json:"session_id,omitempty"`
	UserID    id.UserID    `json:"user_id,omitempty"`
	FromState string       `json:"from_state,omitempty"`
	ToState   string       `json:"to_state,omitempty"`
	Outcome   string       `json:"outcome,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	// Device is the capture device description, when the transport knows it.
	Device string `json:"device,omitempty"`
}

// Sink receives events for persistence or forwarding.
type Sink interface {
	Append(event Event) error
}
