package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/scholarseal/veritas/internal/domain"
	"github.com/scholarseal/veritas/internal/ports"
)

// SandboxExecutor runs a set of signal extractors concurrently under a
// shared deadline and network confinement. Extractors are independent,
// so one stage failing never discards another stage's work: any error
// short of an isolation breach is converted into a flagged unavailable
// score for that signal alone.
//
// An isolation breach is the single run-fatal condition. The breach
// error cancels the group, every in-flight extractor is abandoned, and
// Run returns the breach so the caller can refuse to produce a verdict.
type SandboxExecutor struct {
	extractors []ports.Extractor
	guard      *NetworkGuard
	metrics    ports.MetricsCollector
	logger     *slog.Logger
	timeout    time.Duration
}

// NewSandboxExecutor creates an executor over the given extractors.
// The guard must be the same one whose clients the extractors' backends
// dial through. Returns an error when any extractor fails validation.
func NewSandboxExecutor(
	extractors []ports.Extractor,
	guard *NetworkGuard,
	metrics ports.MetricsCollector,
	logger *slog.Logger,
	timeout time.Duration,
) (*SandboxExecutor, error) {
	if len(extractors) == 0 {
		return nil, fmt.Errorf("sandbox requires at least one extractor")
	}
	if guard == nil {
		return nil, fmt.Errorf("sandbox requires a network guard")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("sandbox timeout must be positive, got %s", timeout)
	}
	seen := make(map[string]struct{}, len(extractors))
	for _, ex := range extractors {
		if err := ex.Validate(); err != nil {
			return nil, fmt.Errorf("extractor %s failed validation: %w", ex.Name(), err)
		}
		if _, dup := seen[ex.Name()]; dup {
			return nil, fmt.Errorf("duplicate extractor for signal %s", ex.Name())
		}
		seen[ex.Name()] = struct{}{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SandboxExecutor{
		extractors: extractors,
		guard:      guard,
		metrics:    metrics,
		logger:     logger,
		timeout:    timeout,
	}, nil
}

// Run executes every extractor against the submission and returns one
// score per extractor, in registration order. Only an isolation breach
// makes Run fail; every other stage error degrades to a flagged
// unavailable score.
func (s *SandboxExecutor) Run(ctx context.Context, sub *domain.Submission, corpus *domain.ReferenceCorpus) ([]domain.SignalScore, error) {
	ctx, span := otel.Tracer("sandbox").Start(ctx, "sandbox.run")
	defer span.End()
	span.SetAttributes(attribute.Int("extractors", len(s.extractors)))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	scores := make([]domain.SignalScore, len(s.extractors))
	g, gctx := errgroup.WithContext(ctx)

	for i, ex := range s.extractors {
		g.Go(func() error {
			start := time.Now()
			score, err := ex.Extract(gctx, sub, corpus)
			elapsed := time.Since(start)

			if err != nil {
				if domain.IsIsolationBreach(err) {
					if s.metrics != nil {
						s.metrics.RecordBreach()
					}
					s.logger.Error("isolation breach during extraction",
						"signal", ex.Name(), "error", err)
					return err
				}
				s.logger.Warn("extraction failed, substituting unavailable score",
					"signal", ex.Name(), "error", err)
				score = unavailableSubstitute(ex.Name())
			}

			if s.metrics != nil {
				s.metrics.RecordExtraction(ex.Name(), elapsed, score.Unavailable)
			}
			scores[i] = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The guard may have recorded a breach on a dial whose error an
	// intermediate client swallowed; the record is authoritative.
	if err := s.guard.Breach(); err != nil {
		if s.metrics != nil {
			s.metrics.RecordBreach()
		}
		return nil, err
	}
	return scores, nil
}

// unavailableSubstitute builds the flagged neutral score that stands in
// for a signal whose extractor failed outright.
func unavailableSubstitute(signal string) domain.SignalScore {
	flag := signal + "_unavailable"
	switch signal {
	case domain.SignalSemantic:
		flag = domain.FlagSemanticUnavailable
	case domain.SignalJudged:
		flag = domain.FlagJudgedUnavailable
	}
	return domain.SignalScore{
		Name:        signal,
		Unavailable: true,
		Flag:        flag,
	}
}
