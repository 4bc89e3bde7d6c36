package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"ollamakit/internal/manager"
	"ollamakit/internal/settings"
	"ollamakit/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
// ollama.Error implements it.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case manager.IsConversationNotFound(err):
		return http.StatusNotFound
	case manager.IsInvalidName(err), errors.Is(err, manager.ErrEmptyPrompt), errors.Is(err, settings.ErrNotObject):
		return http.StatusBadRequest
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
