package enrollment

import (
	"time"

	id "facegate/pkg/domain"
)

// Record holds one enrolled person: identity metadata plus the embedding the
// recognition gate compares against. Records are immutable once written; a
// re-registration replaces the whole record for that user id.
type Record struct {
	UserID       id.UserID
	DisplayName  string
	Embedding    []float32
	ModelVersion string
	EnrolledAt   time.Time
}

// Clone returns a deep copy so callers can never mutate a stored embedding.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Embedding = make([]float32, len(r.Embedding))
	copy(cp.Embedding, r.Embedding)
	return &cp
}
