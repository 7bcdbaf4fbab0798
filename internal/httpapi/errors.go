package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"lazycare/internal/generation"
	"lazycare/internal/history"
	"lazycare/internal/profile"
	"lazycare/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps service errors to HTTP status codes. Generation failures
// keep their message so clients can see what went wrong.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case errors.Is(err, generation.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, history.ErrNotFound), errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &he):
		return he.StatusCode()
	default:
		return http.StatusInternalServerError
	}
}
