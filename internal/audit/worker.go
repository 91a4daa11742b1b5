package audit

import (
	"context"
	"log"
)

// Worker consumes audit events from the publisher inbox and fans them out to
// sinks. A failing sink is logged and skipped; audit must not bring the
// pipeline down.
type Worker struct {
	inbox <-chan Event
	sinks []Sink
	log   *log.Logger
}

func NewWorker(inbox <-chan Event, logger *log.Logger, sinks ...Sink) *Worker {
	return &Worker{inbox: inbox, sinks: sinks, log: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Append(event); err != nil {
					w.log.Printf("audit sink append failed: %v", err)
				}
			}
		}
	}
}
