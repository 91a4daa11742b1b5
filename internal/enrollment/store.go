package enrollment

import (
	"context"

	id "facegate/pkg/domain"
)

// Store persists enrollment records. Save replaces any existing record for the
// same user id (re-registration); implementations must swap the record
// atomically so concurrent readers never observe a half-written embedding.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, userID id.UserID) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	Delete(ctx context.Context, userID id.UserID) error
}
