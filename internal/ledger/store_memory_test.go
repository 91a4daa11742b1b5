package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
)

type InMemoryLedgerStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func TestInMemoryLedgerStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryLedgerStoreSuite))
}

func (s *InMemoryLedgerStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *InMemoryLedgerStoreSuite) TestAppendAndExists() {
	rec := Record{UserID: "alice", Day: "2026-03-14", Time: time.Now(), SessionID: id.NewSessionID()}
	s.Require().NoError(s.store.Append(s.ctx, rec))

	exists, err := s.store.Exists(s.ctx, "alice", "2026-03-14")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.Exists(s.ctx, "alice", "2026-03-15")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *InMemoryLedgerStoreSuite) TestAppendDuplicate() {
	rec := Record{UserID: "alice", Day: "2026-03-14", Time: time.Now(), SessionID: id.NewSessionID()}
	s.Require().NoError(s.store.Append(s.ctx, rec))
	s.ErrorIs(s.store.Append(s.ctx, rec), sentinel.ErrDuplicate)
}

func (s *InMemoryLedgerStoreSuite) TestListByDayArrivalOrder() {
	for _, user := range []id.UserID{"carol", "alice", "bob"} {
		s.Require().NoError(s.store.Append(s.ctx, Record{UserID: user, Day: "2026-03-14"}))
	}
	s.Require().NoError(s.store.Append(s.ctx, Record{UserID: "alice", Day: "2026-03-15"}))

	records, err := s.store.ListByDay(s.ctx, "2026-03-14")
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal(id.UserID("carol"), records[0].UserID)
	s.Equal(id.UserID("alice"), records[1].UserID)
	s.Equal(id.UserID("bob"), records[2].UserID)
}

func (s *InMemoryLedgerStoreSuite) TestListByUser() {
	s.Require().NoError(s.store.Append(s.ctx, Record{UserID: "alice", Day: "2026-03-14"}))
	s.Require().NoError(s.store.Append(s.ctx, Record{UserID: "bob", Day: "2026-03-14"}))
	s.Require().NoError(s.store.Append(s.ctx, Record{UserID: "alice", Day: "2026-03-15"}))

	records, err := s.store.ListByUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(records, 2)
}
