// Package decision holds the fixed outcome matrix for verification attempts.
// It is pure domain logic: no I/O, no side effects, independently testable.
package decision

// RecognitionVerdict is the identity half of the decision input.
type RecognitionVerdict string

const (
	RecognitionMatched RecognitionVerdict = "matched"
	RecognitionNoMatch RecognitionVerdict = "no_match"
)

// LivenessVerdict is the presence half of the decision input.
type LivenessVerdict string

const (
	LivenessLive         LivenessVerdict = "live"
	LivenessNotLive      LivenessVerdict = "not_live"
	LivenessInconclusive LivenessVerdict = "inconclusive"
)

// Outcome labels a terminal session. Derived, never stored independently.
type Outcome string

const (
	OutcomeVerified    Outcome = "verified"
	OutcomeSuspicious  Outcome = "suspicious"
	OutcomeUnknownUser Outcome = "unknown_user"
	OutcomeInvalid     Outcome = "invalid"
)
