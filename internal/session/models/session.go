package models

import (
	"time"

	"facegate/internal/decision"
	"facegate/internal/liveness"
	id "facegate/pkg/domain"
)

// State is the position of a session in the verification pipeline.
type State string

const (
	StateIdle                State = "idle"
	StateAwaitingRecognition State = "awaiting_recognition"
	StateAwaitingLiveness    State = "awaiting_liveness"
	StateDeciding            State = "deciding"
	StateVerified            State = "verified"
	StateSuspicious          State = "suspicious"
	StateUnknownUser         State = "unknown_user"
	StateInvalid             State = "invalid"
	StateExpired             State = "expired"
)

// Terminal reports whether the state is final. All terminal states are final;
// a new attempt requires a new session.
func (s State) Terminal() bool {
	switch s {
	case StateVerified, StateSuspicious, StateUnknownUser, StateInvalid, StateExpired:
		return true
	}
	return false
}

// transitions lists the legal forward edges of the state machine. Expired is
// reachable from any non-terminal state and is handled separately.
var transitions = map[State][]State{
	StateIdle:                {StateAwaitingRecognition},
	StateAwaitingRecognition: {StateAwaitingLiveness, StateUnknownUser},
	StateAwaitingLiveness:    {StateDeciding},
	StateDeciding:            {StateVerified, StateSuspicious, StateUnknownUser, StateInvalid},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	if to == StateExpired {
		return !from.Terminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StateForOutcome maps a decision outcome to its terminal state.
func StateForOutcome(o decision.Outcome) State {
	switch o {
	case decision.OutcomeVerified:
		return StateVerified
	case decision.OutcomeSuspicious:
		return StateSuspicious
	case decision.OutcomeUnknownUser:
		return StateUnknownUser
	default:
		return StateInvalid
	}
}

// Candidate is the recognized identity carried from the recognition phase
// into the decision.
type Candidate struct {
	UserID      id.UserID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Confidence  float64   `json:"confidence"`
}

// Session is one bounded verification attempt. Owned exclusively by the
// session manager and mutated only through defined transitions.
type Session struct {
	ID        id.SessionID `json:"id"`
	State     State        `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	// ExpiresAt bounds the whole attempt, not individual frames.
	ExpiresAt time.Time `json:"expires_at"`
	// Attempts counts recognition submissions that did not match.
	Attempts  int        `json:"attempts"`
	Candidate *Candidate `json:"candidate,omitempty"`
	// Liveness capture accumulation; zero until the liveness phase opens.
	LivenessOpenedAt time.Time      `json:"liveness_opened_at,omitzero"`
	Liveness         liveness.Tally `json:"liveness"`
	LastFrameAt      time.Time      `json:"last_frame_at,omitzero"`
	// Outcome and Message are set when the session reaches a terminal state.
	Outcome decision.Outcome `json:"outcome,omitempty"`
	Message string           `json:"message,omitempty"`
	// Unpersisted marks a Verified outcome whose attendance write failed.
	// The decision stands; an operator reconciles the record later.
	Unpersisted bool `json:"unpersisted,omitempty"`
}

// ExpiredAt reports whether the session deadline passed at now.
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// TransitionEvent is the observable record of a state change, consumed by the
// reporting interface and the audit trail.
type TransitionEvent struct {
	SessionID id.SessionID `json:"session_id"`
	From      State        `json:"from"`
	To        State        `json:"to"`
	At        time.Time    `json:"at"`
}
