package session

// RetryController bounds recognition attempts within a session. The liveness
// phase is bounded by its time window instead, so it never consults this.
type RetryController struct {
	limit int
}

func NewRetryController(limit int) *RetryController {
	return &RetryController{limit: limit}
}

// Remaining returns how many recognition submissions are left after the given
// number of failed attempts.
func (r *RetryController) Remaining(attempts int) int {
	left := r.limit - attempts
	if left < 0 {
		return 0
	}
	return left
}

// Exhausted reports whether the attempt budget is spent.
func (r *RetryController) Exhausted(attempts int) bool {
	return attempts >= r.limit
}
