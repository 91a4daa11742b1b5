package decision

// Decide applies the fixed decision matrix:
//
//	Matched + Live                  -> Verified
//	Matched + NotLive/Inconclusive  -> Suspicious (possible photo/replay)
//	NoMatch + Live                  -> UnknownUser (live person, not enrolled)
//	NoMatch + NotLive/Inconclusive  -> Invalid
//
// No other inputs influence the outcome; keep it that way so the matrix stays
// independently testable.
func Decide(recognition RecognitionVerdict, liveness LivenessVerdict) Outcome {
	matched := recognition == RecognitionMatched
	live := liveness == LivenessLive

	switch {
	case matched && live:
		return OutcomeVerified
	case matched && !live:
		return OutcomeSuspicious
	case !matched && live:
		return OutcomeUnknownUser
	default:
		return OutcomeInvalid
	}
}
