package session

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically expires overdue sessions. Expiry is the cancellation
// mechanism for abandoned attempts; the manager's lazy check covers sessions
// that are still being accessed.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	log      *log.Logger
}

func NewSweeper(manager *Manager, interval time.Duration, logger *log.Logger) *Sweeper {
	return &Sweeper{manager: manager, interval: interval, log: logger}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			expired, err := s.manager.SweepExpired(ctx)
			if err != nil {
				s.log.Printf("session sweep failed: %v", err)
				continue
			}
			if expired > 0 {
				s.log.Printf("session sweep expired %d sessions", expired)
			}
		}
	}
}
