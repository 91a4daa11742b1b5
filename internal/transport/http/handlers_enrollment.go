package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"facegate/internal/enrollment"
	id "facegate/pkg/domain"
	dErrors "facegate/pkg/domain-errors"
)

// EnrollmentService is the slice of the enrollment service the transport needs.
type EnrollmentService interface {
	Register(ctx context.Context, userID id.UserID, displayName string, embedding []float32, modelVersion string) (*enrollment.Record, error)
	Lookup(ctx context.Context, userID id.UserID) (*enrollment.Record, error)
	List(ctx context.Context) ([]*enrollment.Record, error)
	Remove(ctx context.Context, userID id.UserID) error
}

// EnrollmentHandler exposes registration management. All routes sit behind
// operator auth; capture devices never touch enrollments.
type EnrollmentHandler struct {
	enrollments EnrollmentService
}

func NewEnrollmentHandler(enrollments EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

func (h *EnrollmentHandler) Register(r chi.Router) {
	r.Put("/enrollments/{userID}", h.handleRegister)
	r.Get("/enrollments/{userID}", h.handleLookup)
	r.Get("/enrollments", h.handleList)
	r.Delete("/enrollments/{userID}", h.handleRemove)
}

type enrollmentRequest struct {
	DisplayName  string    `json:"display_name"`
	Embedding    []float32 `json:"embedding"`
	ModelVersion string    `json:"model_version"`
}

type enrollmentResponse struct {
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	ModelVersion string    `json:"model_version"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

func toEnrollmentResponse(rec *enrollment.Record) enrollmentResponse {
	return enrollmentResponse{
		UserID:       rec.UserID.String(),
		DisplayName:  rec.DisplayName,
		ModelVersion: rec.ModelVersion,
		EnrolledAt:   rec.EnrolledAt,
	}
}

func (h *EnrollmentHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req enrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	rec, err := h.enrollments.Register(r.Context(), userID, req.DisplayName, req.Embedding, req.ModelVersion)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnrollmentResponse(rec))
}

func (h *EnrollmentHandler) handleLookup(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.enrollments.Lookup(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnrollmentResponse(rec))
}

func (h *EnrollmentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.enrollments.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]enrollmentResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toEnrollmentResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"enrollments": out})
}

func (h *EnrollmentHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.enrollments.Remove(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
