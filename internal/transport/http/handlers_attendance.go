package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"facegate/internal/ledger"
	id "facegate/pkg/domain"
	dErrors "facegate/pkg/domain-errors"
)

// AttendanceService is the read side of the ledger for reporting.
type AttendanceService interface {
	ListByDay(ctx context.Context, day ledger.Day) ([]ledger.Record, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]ledger.Record, error)
}

type AttendanceHandler struct {
	attendance AttendanceService
}

func NewAttendanceHandler(attendance AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

func (h *AttendanceHandler) Register(r chi.Router) {
	r.Get("/attendance/day/{day}", h.handleListByDay)
	r.Get("/attendance/user/{userID}", h.handleListByUser)
}

type attendanceResponse struct {
	UserID           string    `json:"user_id"`
	Day              string    `json:"day"`
	Time             time.Time `json:"time"`
	Confidence       float64   `json:"confidence"`
	LivenessVerified bool      `json:"liveness_verified"`
	SessionID        string    `json:"session_id"`
}

func toAttendanceResponses(records []ledger.Record) []attendanceResponse {
	out := make([]attendanceResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, attendanceResponse{
			UserID:           rec.UserID.String(),
			Day:              rec.Day.String(),
			Time:             rec.Time,
			Confidence:       rec.Confidence,
			LivenessVerified: rec.LivenessVerified,
			SessionID:        rec.SessionID.String(),
		})
	}
	return out
}

func (h *AttendanceHandler) handleListByDay(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "day")
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "day must be formatted YYYY-MM-DD"))
		return
	}
	records, err := h.attendance.ListByDay(r.Context(), ledger.Day(raw))
	if err != nil {
		writeError(w, dErrors.Wrap(dErrors.CodeInternal, "list attendance", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": toAttendanceResponses(records)})
}

func (h *AttendanceHandler) handleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.attendance.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, dErrors.Wrap(dErrors.CodeInternal, "list attendance", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": toAttendanceResponses(records)})
}
