package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the verification pipeline.
type Metrics struct {
	SessionsOpened      prometheus.Counter
	Outcomes            *prometheus.CounterVec
	SessionsExpired     prometheus.Counter
	RecognitionRetries  prometheus.Counter
	UnpersistedOutcomes prometheus.Counter
}

// New creates and registers all pipeline metrics.
func New() *Metrics {
	return &Metrics{
		SessionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facegate_sessions_opened_total",
			Help: "Verification sessions opened",
		}),
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "facegate_session_outcomes_total",
			Help: "Terminal session outcomes by label",
		}, []string{"outcome"}),
		SessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facegate_sessions_expired_total",
			Help: "Sessions moved to expired by sweep or lazy check",
		}),
		RecognitionRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facegate_recognition_retries_total",
			Help: "Recognition submissions that did not match and consumed a retry",
		}),
		UnpersistedOutcomes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "facegate_unpersisted_outcomes_total",
			Help: "Verified outcomes whose attendance write failed and awaits reconciliation",
		}),
	}
}
