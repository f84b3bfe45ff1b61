package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/skymessage/skymessage/internal/fault"
)

// writeJSON writes a JSON response with the given status code.
// Note: If encoding fails after WriteHeader is called, there's no way to
// notify the client since the status code is already sent. The error is
// logged for debugging but doesn't affect the response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// writeFault maps a pipeline error onto the HTTP error vocabulary.
// The wrapped error's message is passed through on every status,
// including upstream failures: the API is consumed by our own client,
// and the provider message is the only diagnostic it gets.
func writeFault(w http.ResponseWriter, err error) {
	writeError(w, fault.HTTPStatus(err), errorCode(err), err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, fault.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, fault.ErrNotFound):
		return "not_found"
	case errors.Is(err, fault.ErrConflict):
		return "conflict"
	case errors.Is(err, fault.ErrUpstream):
		return "upstream_error"
	case errors.Is(err, fault.ErrParse):
		return "parse_error"
	default:
		return "internal_error"
	}
}
