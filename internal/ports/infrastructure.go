package ports

import (
	"context"
	"time"
)

// LLMClient defines the judged-similarity capability: a locally hosted
// language model invoked in isolation. Implementations handle
// backend-specific details like request formatting and response parsing.
// The disabled/neutral implementation reports unavailability so the
// pipeline can substitute a soft-fail score; selection between
// implementations is a configuration concern.
type LLMClient interface {
	// Complete sends a completion request to the local model.
	// It returns the generated text and any error encountered.
	//
	// The options map allows backend flexibility without changing the
	// interface. Common options include:
	//   - "temperature": float64 (0.0-1.0)
	//   - "max_tokens": int
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// Available reports whether the backing model can currently serve
	// requests. Extractors consult this before issuing a prompt so an
	// absent model degrades to a neutral score instead of an error.
	Available(ctx context.Context) bool

	// GetModel returns the model identifier being used by this client.
	GetModel() string
}

// Embedder defines the dense-embedding capability used by the semantic
// similarity extractor. Implementations encode batches in a single call so
// the extractor can embed the submission and every reference together.
type Embedder interface {
	// Embed encodes the given texts into fixed-length dense vectors,
	// one per input, preserving order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Available reports whether the embedding backend can currently serve
	// requests.
	Available(ctx context.Context) bool
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations should integrate with observability platforms
// like Prometheus or custom monitoring solutions.
type MetricsCollector interface {
	// RecordExtraction records one extractor run: its latency and whether
	// it produced a measured or substituted score.
	RecordExtraction(signal string, duration time.Duration, unavailable bool)

	// RecordVerdict increments the verdict counter for the given status.
	RecordVerdict(status string)

	// RecordBreach increments the isolation-breach counter.
	RecordBreach()
}
