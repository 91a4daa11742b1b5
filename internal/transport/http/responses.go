package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "facegate/pkg/domain-errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain error codes onto HTTP statuses so handlers never
// hand-pick status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeConflict:
		status = http.StatusConflict
	case dErrors.CodeInvalidState:
		status = http.StatusConflict
	case dErrors.CodeUnauthorized:
		status = http.StatusUnauthorized
	}
	msg := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) {
		msg = de.Message
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: string(dErrors.CodeOf(err))})
}
