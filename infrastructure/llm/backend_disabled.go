package llm

import (
	"context"
)

// disabledBackend is the neutral implementation of the judged-similarity
// capability. It never serves a completion; extractors consult Ping and
// substitute their soft-fail score, so disabling the model can never block
// a verdict.
type disabledBackend struct{}

// NewDisabledBackend returns the neutral no-op backend.
func NewDisabledBackend() CoreLLM { return disabledBackend{} }

// DoRequest always fails; the backend exists so configuration without a
// model still wires a complete pipeline.
func (disabledBackend) DoRequest(context.Context, string, map[string]any) (string, error) {
	return "", ErrBackendDisabled
}

// Ping always reports unavailable.
func (disabledBackend) Ping(context.Context) bool { return false }

// GetModel returns the placeholder model name.
func (disabledBackend) GetModel() string { return "disabled" }
