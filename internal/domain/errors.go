package domain

import (
	"errors"
	"fmt"
)

// Hard input errors rejected before the pipeline starts. These surface to
// the caller; they are never absorbed into a Verdict.
var (
	// ErrEmptySubmission indicates the submission body text is empty.
	ErrEmptySubmission = errors.New("submission text is empty")

	// ErrEmptySubject indicates the submission carries no subject claim.
	ErrEmptySubject = errors.New("submission subject is empty")

	// ErrNoSignals indicates the aggregator received nothing to decide on.
	ErrNoSignals = errors.New("no signal scores provided for aggregation")

	// ErrInvalidConfiguration indicates configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// IsolationBreachError is the fatal integrity failure raised when an
// extractor attempts outbound network access inside the isolation boundary.
// It aborts the run without a Verdict: a possibly-compromised result must
// never be returned.
type IsolationBreachError struct {
	// Extractor names the component that attempted the connection, when
	// attributable.
	Extractor string

	// Network is the attempted network ("tcp", "udp").
	Network string

	// Address is the destination the extractor tried to reach.
	Address string
}

// Error implements the error interface for IsolationBreachError.
func (e *IsolationBreachError) Error() string {
	if e.Extractor != "" {
		return fmt.Sprintf("isolation breach: extractor %s attempted outbound %s connection to %s", e.Extractor, e.Network, e.Address)
	}
	return fmt.Sprintf("isolation breach: outbound %s connection attempted to %s", e.Network, e.Address)
}

// IsIsolationBreach reports whether err is, or wraps, an IsolationBreachError.
func IsIsolationBreach(err error) bool {
	var breach *IsolationBreachError
	return errors.As(err, &breach)
}

// ValidationError aggregates multiple validation failures for one entity.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity, Errors: make([]string, 0)}
}
