package enrollment

import (
	"context"
	"sort"
	"sync"

	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
)

// InMemory keeps enrollments in a map guarded by a RWMutex. Records are stored
// as immutable pointers and replaced copy-on-write, so a reader holding a
// record from before a re-registration keeps a consistent snapshot.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.UserID]*Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.UserID]*Record)}
}

func (s *InMemory) Save(_ context.Context, rec *Record) error {
	stored := rec.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.UserID] = stored
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[userID]; ok {
		return rec, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, userID)
	return nil
}
