package embedding

import (
	"context"
	"errors"

	"github.com/scholarseal/veritas/internal/ports"
)

var _ ports.Embedder = Disabled{}

// ErrDisabled indicates the embedding stage is configured off.
var ErrDisabled = errors.New("embedding backend is disabled")

// Disabled is an Embedder that reports itself unavailable. Used when no
// embedding backend is configured so the semantic stage degrades to its
// flagged neutral score instead of failing the run.
type Disabled struct{}

// Embed always fails; callers should consult Available first.
func (Disabled) Embed(context.Context, []string) ([][]float32, error) {
	return nil, ErrDisabled
}

// Available always reports false.
func (Disabled) Available(context.Context) bool { return false }
