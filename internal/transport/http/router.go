package httptransport

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all public endpoints. Session routes are open to capture
// devices; enrollment management, attendance reporting, and reconciliation
// sit behind operator auth.
func NewRouter(
	logger *log.Logger,
	jwtSigningKey string,
	sessions *SessionHandler,
	enrollments *EnrollmentHandler,
	attendance *AttendanceHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	sessions.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(OperatorAuth(jwtSigningKey))
		enrollments.Register(r)
		attendance.Register(r)
		r.Get("/sessions/unpersisted", sessions.handleUnpersisted)
	})

	return r
}
