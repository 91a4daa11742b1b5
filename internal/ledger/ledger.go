// Package ledger persists verified outcomes exactly once per (user, day).
package ledger

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
)

var (
	recordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facegate_ledger_records_written_total",
		Help: "Attendance records successfully appended",
	})
	duplicatesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facegate_ledger_duplicates_rejected_total",
		Help: "Attendance writes rejected because a record already existed for (user, day)",
	})
	storageFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facegate_ledger_storage_failures_total",
		Help: "Attendance appends that failed at the storage layer",
	})
)

// Ledger serializes writes per (user, day) and enforces the dedup invariant.
// The lock scope is per key, not global: unrelated users and days proceed
// concurrently.
type Ledger struct {
	store Store
	log   *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store Store, logger *log.Logger) *Ledger {
	return &Ledger{
		store: store,
		log:   logger,
		locks: make(map[string]*sync.Mutex),
	}
}

// Record appends rec unless a record for (user, day) already exists.
// The check and the append happen under the per-key lock; the store's own
// uniqueness guarantee backs this up, so a failed append never leaves a
// partial record visible.
func (l *Ledger) Record(ctx context.Context, rec Record) Result {
	lock := l.keyLock(rec.UserID, rec.Day)
	lock.Lock()
	defer lock.Unlock()

	exists, err := l.store.Exists(ctx, rec.UserID, rec.Day)
	if err != nil {
		storageFailures.Inc()
		l.log.Printf("ledger: existence check failed for user=%s day=%s: %v", rec.UserID, rec.Day, err)
		return ResultStorageFailure
	}
	if exists {
		duplicatesRejected.Inc()
		return ResultDuplicateRejected
	}

	if err := l.store.Append(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			duplicatesRejected.Inc()
			return ResultDuplicateRejected
		}
		storageFailures.Inc()
		l.log.Printf("ledger: append failed for user=%s day=%s: %v", rec.UserID, rec.Day, err)
		return ResultStorageFailure
	}

	recordsWritten.Inc()
	return ResultOk
}

// ListByDay returns the day's records in arrival order.
func (l *Ledger) ListByDay(ctx context.Context, day Day) ([]Record, error) {
	return l.store.ListByDay(ctx, day)
}

// ListByUser returns a user's records in arrival order.
func (l *Ledger) ListByUser(ctx context.Context, userID id.UserID) ([]Record, error) {
	return l.store.ListByUser(ctx, userID)
}

func (l *Ledger) keyLock(userID id.UserID, day Day) *sync.Mutex {
	k := userID.String() + "|" + day.String()
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[k]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[k] = lock
	}
	return lock
}
