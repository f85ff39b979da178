package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/reunite-dev/reunite/internal/entity"
)

// errorBody is the unified JSON error response. Code mirrors the
// workflow error taxonomy so clients can branch without parsing text.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Entity  string `json:"entity,omitempty"`
	ID      string `json:"id,omitempty"`
}

// statusFor maps workflow error codes onto HTTP status codes.
func statusFor(code entity.ErrorCode) int {
	switch code {
	case entity.ErrCodeNotFound:
		return http.StatusNotFound
	case entity.ErrCodePermissionDenied:
		return http.StatusForbidden
	case entity.ErrCodeInvalidState, entity.ErrCodeAlreadyResolved:
		return http.StatusConflict
	case entity.ErrCodeValidation:
		return http.StatusBadRequest
	case entity.ErrCodeAborted:
		// The retry budget is exhausted; the request may succeed later.
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err as a structured error response. Errors outside
// the workflow taxonomy are logged and masked as internal errors.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := entity.CodeOf(err)
	if code == "" {
		slog.Error("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Code:    "INTERNAL",
			Message: "internal error",
		})
		return
	}

	body := errorBody{Code: string(code), Message: err.Error()}
	var we *entity.Error
	if errors.As(err, &we) {
		body.Message = we.Message
		body.Entity = we.Collection
		body.ID = we.ID
	}
	writeJSON(w, statusFor(code), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
