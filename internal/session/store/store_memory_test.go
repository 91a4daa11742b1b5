package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"facegate/internal/session/models"
	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
)

type InMemorySessionStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func TestInMemorySessionStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemorySessionStoreSuite))
}

func (s *InMemorySessionStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *InMemorySessionStoreSuite) session(state models.State) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        id.NewSessionID(),
		State:     state,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Minute),
	}
}

func (s *InMemorySessionStoreSuite) TestCreateAndFind() {
	session := s.session(models.StateIdle)
	s.Require().NoError(s.store.Create(s.ctx, session))

	found, err := s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, found.ID)
	s.Equal(models.StateIdle, found.State)
}

func (s *InMemorySessionStoreSuite) TestCreateDuplicate() {
	session := s.session(models.StateIdle)
	s.Require().NoError(s.store.Create(s.ctx, session))
	s.ErrorIs(s.store.Create(s.ctx, session), sentinel.ErrDuplicate)
}

func (s *InMemorySessionStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, id.NewSessionID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySessionStoreSuite) TestUpdate() {
	session := s.session(models.StateIdle)
	s.Require().NoError(s.store.Create(s.ctx, session))

	session.State = models.StateAwaitingRecognition
	session.Attempts = 1
	s.Require().NoError(s.store.Update(s.ctx, session))

	found, err := s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(models.StateAwaitingRecognition, found.State)
	s.Equal(1, found.Attempts)
}

func (s *InMemorySessionStoreSuite) TestUpdateMissing() {
	s.ErrorIs(s.store.Update(s.ctx, s.session(models.StateIdle)), sentinel.ErrNotFound)
}

// The store hands out copies: mutating a returned session must not leak back
// without an explicit Update.
func (s *InMemorySessionStoreSuite) TestReadsAreIsolated() {
	session := s.session(models.StateIdle)
	s.Require().NoError(s.store.Create(s.ctx, session))

	found, err := s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	found.State = models.StateExpired

	again, err := s.store.FindByID(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(models.StateIdle, again.State)
}

func (s *InMemorySessionStoreSuite) TestListNonTerminal() {
	open := s.session(models.StateAwaitingLiveness)
	done := s.session(models.StateVerified)
	s.Require().NoError(s.store.Create(s.ctx, open))
	s.Require().NoError(s.store.Create(s.ctx, done))

	sessions, err := s.store.ListNonTerminal(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal(open.ID, sessions[0].ID)
}

func (s *InMemorySessionStoreSuite) TestListUnpersisted() {
	flagged := s.session(models.StateVerified)
	flagged.Unpersisted = true
	clean := s.session(models.StateVerified)
	s.Require().NoError(s.store.Create(s.ctx, flagged))
	s.Require().NoError(s.store.Create(s.ctx, clean))

	sessions, err := s.store.ListUnpersisted(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal(flagged.ID, sessions[0].ID)
}
