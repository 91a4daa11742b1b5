package audit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
	Name: "facegate_audit_events_dropped_total",
	Help: "Audit events dropped because the inbox was full",
})

// Publisher hands events to the background worker through a bounded inbox.
// Emitting never blocks the pipeline: if the inbox is full the event is
// dropped and counted, because a slow audit sink must not stall verification.
type Publisher struct {
	inbox chan Event
}

func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{inbox: make(chan Event, buffer)}
}

// Emit queues one event, stamping the time if the caller left it zero.
func (p *Publisher) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		droppedEvents.Inc()
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }
