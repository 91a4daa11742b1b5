package ledger

import (
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "facegate/pkg/domain"
)

// failingStore returns an error from Append while Exists reports absent, which
// exercises the storage failure path.
type failingStore struct {
	*InMemory
	failAppend bool
}

func (s *failingStore) Append(ctx context.Context, rec Record) error {
	if s.failAppend {
		return errors.New("disk on fire")
	}
	return s.InMemory.Append(ctx, rec)
}

type LedgerSuite struct {
	suite.Suite
	ctx    context.Context
	store  *InMemory
	ledger *Ledger
	loc    *time.Location
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.ledger = New(s.store, log.New(log.Writer(), "", 0))
	s.loc = time.UTC
}

func (s *LedgerSuite) record(userID string, at time.Time) Record {
	return Record{
		UserID:           id.UserID(userID),
		Day:              DayOf(at, s.loc),
		Time:             at,
		Confidence:       0.93,
		LivenessVerified: true,
		SessionID:        id.NewSessionID(),
	}
}

func (s *LedgerSuite) TestFirstRecordAccepted() {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.Equal(ResultOk, s.ledger.Record(s.ctx, s.record("alice", at)))

	records, err := s.ledger.ListByDay(s.ctx, DayOf(at, s.loc))
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *LedgerSuite) TestSecondRecordSameDayRejected() {
	morning := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	evening := morning.Add(8 * time.Hour)

	s.Equal(ResultOk, s.ledger.Record(s.ctx, s.record("alice", morning)))
	s.Equal(ResultDuplicateRejected, s.ledger.Record(s.ctx, s.record("alice", evening)))

	records, err := s.ledger.ListByUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(morning, records[0].Time, "the original record must not be overwritten")
}

func (s *LedgerSuite) TestNextDayAccepted() {
	day1 := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Hour)

	s.Equal(ResultOk, s.ledger.Record(s.ctx, s.record("alice", day1)))
	s.Equal(ResultOk, s.ledger.Record(s.ctx, s.record("alice", day2)))

	records, err := s.ledger.ListByUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(records, 2)
}

func (s *LedgerSuite) TestDifferentUsersIndependent() {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.Equal(ResultOk, s.ledger.Record(s.ctx, s.record("alice", at)))
	s.Equal(ResultOk, s.ledger.Record(s.ctx, s.record("bob", at)))
}

func (s *LedgerSuite) TestStorageFailure() {
	store := &failingStore{InMemory: NewInMemory(), failAppend: true}
	ledger := New(store, log.New(log.Writer(), "", 0))
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	s.Equal(ResultStorageFailure, ledger.Record(s.ctx, s.record("alice", at)))

	// A failed append must not leave anything behind; a retry succeeds.
	store.failAppend = false
	s.Equal(ResultOk, ledger.Record(s.ctx, s.record("alice", at)))
}

// TestConcurrentDuplicateRace hammers one (user, day) key from many
// goroutines. Exactly one write may win regardless of interleaving.
func (s *LedgerSuite) TestConcurrentDuplicateRace() {
	const attempts = 50
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	results := make(chan Result, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.ledger.Record(s.ctx, s.record("alice", at))
		}()
	}
	wg.Wait()
	close(results)

	var ok, dup int
	for res := range results {
		switch res {
		case ResultOk:
			ok++
		case ResultDuplicateRejected:
			dup++
		default:
			s.Failf("unexpected result", "%v", res)
		}
	}
	s.Equal(1, ok)
	s.Equal(attempts-1, dup)

	records, err := s.ledger.ListByUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(records, 1)
}

func TestDayOf(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 23:30 UTC on the 14th is already the 15th in Tokyo.
	at := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	if got := DayOf(at, time.UTC); got != "2026-03-14" {
		t.Errorf("UTC day = %s, want 2026-03-14", got)
	}
	if got := DayOf(at, tokyo); got != "2026-03-15" {
		t.Errorf("Tokyo day = %s, want 2026-03-15", got)
	}
}
