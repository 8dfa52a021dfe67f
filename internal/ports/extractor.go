// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/scholarseal/veritas/internal/domain"
)

// Extractor is the fundamental building block of the decision pipeline.
// Each Extractor computes one independent similarity or authenticity signal
// from the submission and, where applicable, the reference corpus.
// Extractors must be stateless across requests and thread-safe for
// concurrent execution; any per-request caching is owned by the extractor
// and scoped to a single Extract call.
type Extractor interface {
	// Name returns the unique identifier for this extractor, which is also
	// the name of the signal it produces.
	Name() string

	// Extract computes the extractor's SignalScore for one submission.
	// Extractors are side-effect-free given their inputs: the submission
	// and corpus must not be modified.
	//
	// Recoverable backend failures (model missing, timeout, malformed
	// output) must not surface as errors; the extractor returns a neutral,
	// flagged SignalScore instead so the pipeline never aborts on a soft
	// failure. An error return is reserved for hard failures such as an
	// isolation breach.
	//
	// The context parameter carries cancellation and deadline propagation;
	// extractors should return promptly when it is done.
	Extract(ctx context.Context, sub *domain.Submission, corpus *domain.ReferenceCorpus) (domain.SignalScore, error)

	// Validate checks if the extractor is properly configured and ready
	// for execution. It is called during engine construction.
	// Return nil if validation passes, or an error describing what is
	// invalid.
	Validate() error
}
