package generation

import (
	"errors"
	"net/http"
)

// ErrEmptyInput is returned when a prompt or user input is blank.
var ErrEmptyInput = errors.New("input must not be empty")

// dependencyUnavailableError signals a missing runtime (e.g. llama support not
// built, llama-server not reachable) so the HTTP layer returns 503 instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string   { return e.msg }
func (e dependencyUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var d dependencyUnavailableError
	return errors.As(err, &d)
}

// GenerationError wraps a backend failure. The message of the cause is kept
// so callers can surface it.
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsGenerationError reports whether err came from a backend call.
func IsGenerationError(err error) bool {
	var g *GenerationError
	return errors.As(err, &g)
}
