// Package store holds session persistence behind a narrow interface so
// session lifetime and locking stay visible and testable.
package store

import (
	"context"

	"facegate/internal/session/models"
	id "facegate/pkg/domain"
)

// Store persists sessions. Implementations must return sentinel.ErrNotFound
// for unknown ids. ListNonTerminal feeds the expiry sweep; ListUnpersisted
// feeds operator reconciliation of verified-but-unwritten attendance.
type Store interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) error
	ListNonTerminal(ctx context.Context) ([]*models.Session, error)
	ListUnpersisted(ctx context.Context) ([]*models.Session, error)
}
