package llm

import (
	"errors"
)

// Common errors returned by the client and backends.
var (
	// ErrUnknownBackend indicates an unrecognized backend identifier.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrEmptyResponse indicates the backend returned an empty response body.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrNoResponseChoice indicates the backend's response contained no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")

	// ErrBackendDisabled indicates the disabled backend was asked to
	// complete a prompt. Callers should consult Available first.
	ErrBackendDisabled = errors.New("model backend is disabled")

	// ErrNoJSONPayload indicates no brace-delimited payload was found in
	// the model output.
	ErrNoJSONPayload = errors.New("no JSON payload found in model output")

	// ErrUnrepairableJSON indicates the payload could not be decoded even
	// after every repair pass.
	ErrUnrepairableJSON = errors.New("JSON payload could not be repaired")
)
