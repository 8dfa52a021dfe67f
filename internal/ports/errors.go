package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur during backend interactions.
var (
	// ErrModelUnavailable indicates the local model backend cannot serve
	// requests. Extractors translate this into a soft-failed signal.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidResponse indicates that the backend returned a response
	// that could not be decoded even after repair.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrRateLimited indicates that the backend throttled the request.
	ErrRateLimited = errors.New("rate limited")
)

// LLMError represents an error from the local model backend.
type LLMError struct {
	// Model is the identifier of the model that generated the error.
	Model string

	// Operation is the name of the operation that failed.
	Operation string

	// Err is the underlying error that occurred.
	Err error
}

// Error implements the error interface for LLMError.
func (e *LLMError) Error() string {
	return fmt.Sprintf("LLM error: model=%s, operation=%s, err=%v", e.Model, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *LLMError) Unwrap() error { return e.Err }

// NewLLMError creates a new LLMError with the given details.
func NewLLMError(model, operation string, err error) *LLMError {
	return &LLMError{Model: model, Operation: operation, Err: err}
}
