package ledger

import (
	"time"

	id "facegate/pkg/domain"
)

// Record is one confirmed presence. Append-only: at most one record exists per
// (user, calendar day), which is the system's core consistency guarantee.
type Record struct {
	UserID           id.UserID
	Day              Day
	Time             time.Time
	Confidence       float64
	LivenessVerified bool
	SessionID        id.SessionID
}

// Day is a calendar day in the deployment timezone, formatted YYYY-MM-DD.
// The timezone choice is explicit configuration, never an implicit UTC midnight.
type Day string

// DayOf computes the calendar day of t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	return Day(t.In(loc).Format("2006-01-02"))
}

func (d Day) String() string { return string(d) }

// Result is the outcome of a Record call.
type Result string

const (
	// ResultOk: the record was appended.
	ResultOk Result = "ok"
	// ResultDuplicateRejected: attendance already exists for (user, day).
	// Expected outcome, not an error; nothing was overwritten.
	ResultDuplicateRejected Result = "duplicate_rejected"
	// ResultStorageFailure: the append failed; no partial record is visible.
	ResultStorageFailure Result = "storage_failure"
)
