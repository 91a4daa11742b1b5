package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"facegate/internal/liveness"
	"facegate/internal/recognition"
	"facegate/internal/session/models"
	id "facegate/pkg/domain"
	dErrors "facegate/pkg/domain-errors"
)

// SessionService is the slice of the session manager the transport needs.
type SessionService interface {
	Open(ctx context.Context, device string) (*models.Session, error)
	Get(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	SubmitRecognition(ctx context.Context, sessionID id.SessionID, emb recognition.Embedding) (*models.Session, error)
	SubmitLiveness(ctx context.Context, sessionID id.SessionID, frame liveness.Frame) (*models.Session, error)
	Cancel(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	ListUnpersisted(ctx context.Context) ([]*models.Session, error)
	RetriesRemaining(session *models.Session) int
}

// SessionHandler exposes the verification pipeline to capture devices.
type SessionHandler struct {
	sessions SessionService
}

func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type sessionResponse struct {
	SessionID         string            `json:"session_id"`
	State             string            `json:"state"`
	ExpiresAt         time.Time         `json:"expires_at"`
	AttemptsRemaining int               `json:"attempts_remaining"`
	BlinkCount        int               `json:"blink_count"`
	FrameCount        int               `json:"frame_count"`
	Candidate         *models.Candidate `json:"candidate,omitempty"`
	Outcome           string            `json:"outcome,omitempty"`
	Message           string            `json:"message,omitempty"`
	Unpersisted       bool              `json:"unpersisted,omitempty"`
}

func (h *SessionHandler) toResponse(s *models.Session) sessionResponse {
	return sessionResponse{
		SessionID:         s.ID.String(),
		State:             string(s.State),
		ExpiresAt:         s.ExpiresAt,
		AttemptsRemaining: h.sessions.RetriesRemaining(s),
		BlinkCount:        s.Liveness.Blinks,
		FrameCount:        s.Liveness.Frames,
		Candidate:         s.Candidate,
		Outcome:           string(s.Outcome),
		Message:           s.Message,
		Unpersisted:       s.Unpersisted,
	}
}

func (h *SessionHandler) Register(r chi.Router) {
	r.Post("/sessions", h.handleOpen)
	r.Get("/sessions/{sessionID}", h.handleGet)
	r.Post("/sessions/{sessionID}/recognition", h.handleRecognition)
	r.Post("/sessions/{sessionID}/liveness", h.handleLiveness)
	r.Delete("/sessions/{sessionID}", h.handleCancel)
}

func (h *SessionHandler) handleOpen(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Open(r.Context(), deviceFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toResponse(session))
}

func (h *SessionHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(session))
}

type recognitionRequest struct {
	Embedding    []float32 `json:"embedding"`
	ModelVersion string    `json:"model_version"`
}

func (h *SessionHandler) handleRecognition(w http.ResponseWriter, r *http.Request) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req recognitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	session, err := h.sessions.SubmitRecognition(r.Context(), sessionID, recognition.Embedding{
		Vector:       req.Embedding,
		ModelVersion: req.ModelVersion,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(session))
}

type livenessRequest struct {
	FaceVisible bool      `json:"face_visible"`
	Blink       bool      `json:"blink"`
	CapturedAt  time.Time `json:"captured_at,omitzero"`
}

func (h *SessionHandler) handleLiveness(w http.ResponseWriter, r *http.Request) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req livenessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	session, err := h.sessions.SubmitLiveness(r.Context(), sessionID, liveness.Frame{
		FaceVisible: req.FaceVisible,
		Blink:       req.Blink,
		CapturedAt:  req.CapturedAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(session))
}

func (h *SessionHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	session, err := h.sessions.Cancel(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(session))
}

// handleUnpersisted lists verified sessions awaiting attendance reconciliation.
func (h *SessionHandler) handleUnpersisted(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListUnpersisted(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, h.toResponse(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// deviceFromRequest renders the capture device from the User-Agent header.
func deviceFromRequest(r *http.Request) string {
	raw := r.UserAgent()
	if raw == "" {
		return "unknown"
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	device := name + " " + version
	if os := ua.OS(); os != "" {
		device += " on " + os
	}
	return device
}
