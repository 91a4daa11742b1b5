package ledger

import (
	"context"
	"sync"

	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
)

// InMemory keeps records in arrival order with a uniqueness index on
// (user, day). The map check makes Append atomic on its own, independent of
// the ledger's keyed locking above it.
type InMemory struct {
	mu      sync.RWMutex
	records []Record
	byKey   map[string]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{byKey: make(map[string]struct{})}
}

func key(userID id.UserID, day Day) string {
	return userID.String() + "|" + day.String()
}

func (s *InMemory) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(rec.UserID, rec.Day)
	if _, ok := s.byKey[k]; ok {
		return sentinel.ErrDuplicate
	}
	s.records = append(s.records, rec)
	s.byKey[k] = struct{}{}
	return nil
}

func (s *InMemory) Exists(_ context.Context, userID id.UserID, day Day) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byKey[key(userID, day)]
	return ok, nil
}

func (s *InMemory) ListByDay(_ context.Context, day Day) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, rec := range s.records {
		if rec.Day == day {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}
