package store

import (
	"context"
	"sync"

	"facegate/internal/session/models"
	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
)

// InMemory keeps sessions in a map guarded by a RWMutex. Sessions are stored
// as copies so callers cannot mutate store state behind the manager's back.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[id.SessionID]*models.Session)}
}

func (s *InMemory) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return sentinel.ErrDuplicate
	}
	s.sessions[session.ID] = clone(session)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[sessionID]; ok {
		return clone(session), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.sessions[session.ID] = clone(session)
	return nil
}

func (s *InMemory) ListNonTerminal(_ context.Context) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Session
	for _, session := range s.sessions {
		if !session.State.Terminal() {
			out = append(out, clone(session))
		}
	}
	return out, nil
}

func (s *InMemory) ListUnpersisted(_ context.Context) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Session
	for _, session := range s.sessions {
		if session.Unpersisted {
			out = append(out, clone(session))
		}
	}
	return out, nil
}

func clone(session *models.Session) *models.Session {
	cp := *session
	if session.Candidate != nil {
		cand := *session.Candidate
		cp.Candidate = &cand
	}
	return &cp
}
