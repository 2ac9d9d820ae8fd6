package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/logging"
)

const (
	msgValidationFailed = "Validation failed"
	msgInternal         = "Internal server error"
)

type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_SERVER_ERROR"
	}
	return "ERROR"
}

func statusFromKind(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidState:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, details any) {
	writeJSON(w, status, ErrorEnvelope{
		Success: false,
		Error: ErrorBody{
			Code:      codeFromStatus(status),
			Message:   message,
			Details:   details,
			Path:      r.URL.Path,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
}

func writeValidationError(w http.ResponseWriter, r *http.Request, details ...FieldError) {
	var d any
	if len(details) > 0 {
		d = details
	}
	writeError(w, r, http.StatusUnprocessableEntity, msgValidationFailed, d)
}

// writeServiceError maps a service error to the envelope. Untyped errors are
// logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, msgInternal, nil)
		return
	}
	writeError(w, r, statusFromKind(kind), domain.MessageOf(err), nil)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
