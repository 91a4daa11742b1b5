package ledger

import (
	"context"

	id "facegate/pkg/domain"
)

// Store appends attendance records. Append must return sentinel.ErrDuplicate
// when a record for the same (user, day) already exists, and must be
// all-or-nothing: a failed append leaves nothing visible.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Exists(ctx context.Context, userID id.UserID, day Day) (bool, error)
	ListByDay(ctx context.Context, day Day) ([]Record, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]Record, error)
}
