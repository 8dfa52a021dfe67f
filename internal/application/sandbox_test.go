package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarseal/veritas/internal/domain"
	"github.com/scholarseal/veritas/internal/ports"
)

// fakeExtractor is a scriptable ports.Extractor.
type fakeExtractor struct {
	name  string
	score domain.SignalScore
	err   error
	delay time.Duration
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) Validate() error { return nil }

func (f *fakeExtractor) Extract(ctx context.Context, _ *domain.Submission, _ *domain.ReferenceCorpus) (domain.SignalScore, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return domain.SignalScore{}, ctx.Err()
		}
	}
	return f.score, f.err
}

// stubMetrics counts collector calls.
type stubMetrics struct {
	mu          sync.Mutex
	extractions map[string]bool
	verdicts    []string
	breaches    int
}

func newStubMetrics() *stubMetrics {
	return &stubMetrics{extractions: make(map[string]bool)}
}

func (m *stubMetrics) RecordExtraction(signal string, _ time.Duration, unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractions[signal] = unavailable
}

func (m *stubMetrics) RecordVerdict(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts = append(m.verdicts, status)
}

func (m *stubMetrics) RecordBreach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breaches++
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func sandboxSubmission(t *testing.T) *domain.Submission {
	t.Helper()
	sub, err := domain.NewSubmission("a-1", "history", "The empire fell.")
	require.NoError(t, err)
	return sub
}

func TestSandboxExecutor_CollectsAllSignals(t *testing.T) {
	metrics := newStubMetrics()
	sandbox, err := NewSandboxExecutor([]ports.Extractor{
		&fakeExtractor{name: "statistical_similarity", score: domain.SignalScore{Name: "statistical_similarity", Value: 12}},
		&fakeExtractor{name: "ai_confidence", score: domain.SignalScore{Name: "ai_confidence", Value: 30}},
	}, NewNetworkGuard(), metrics, testLogger(), time.Second)
	require.NoError(t, err)

	scores, err := sandbox.Run(context.Background(), sandboxSubmission(t), &domain.ReferenceCorpus{})
	require.NoError(t, err)

	require.Len(t, scores, 2)
	assert.Equal(t, "statistical_similarity", scores[0].Name)
	assert.Equal(t, "ai_confidence", scores[1].Name)
	assert.Len(t, metrics.extractions, 2)
}

func TestSandboxExecutor_SubstitutesOnFailure(t *testing.T) {
	sandbox, err := NewSandboxExecutor([]ports.Extractor{
		&fakeExtractor{name: "statistical_similarity", score: domain.SignalScore{Name: "statistical_similarity", Value: 12}},
		&fakeExtractor{name: "semantic_similarity", err: errors.New("backend gone")},
	}, NewNetworkGuard(), nil, testLogger(), time.Second)
	require.NoError(t, err)

	scores, err := sandbox.Run(context.Background(), sandboxSubmission(t), &domain.ReferenceCorpus{})
	require.NoError(t, err)

	require.Len(t, scores, 2)
	assert.False(t, scores[0].Unavailable)
	assert.True(t, scores[1].Unavailable)
	assert.Equal(t, domain.FlagSemanticUnavailable, scores[1].Flag)
}

func TestSandboxExecutor_BreachAbortsRun(t *testing.T) {
	metrics := newStubMetrics()
	breach := &domain.IsolationBreachError{Extractor: "judged_similarity", Network: "tcp", Address: "203.0.113.9:443"}
	sandbox, err := NewSandboxExecutor([]ports.Extractor{
		&fakeExtractor{name: "statistical_similarity", score: domain.SignalScore{Name: "statistical_similarity"}, delay: 50 * time.Millisecond},
		&fakeExtractor{name: "judged_similarity", err: breach},
	}, NewNetworkGuard(), metrics, testLogger(), time.Second)
	require.NoError(t, err)

	scores, err := sandbox.Run(context.Background(), sandboxSubmission(t), &domain.ReferenceCorpus{})
	require.Error(t, err)
	assert.True(t, domain.IsIsolationBreach(err))
	assert.Nil(t, scores)
	assert.Equal(t, 1, metrics.breaches)
}

func TestSandboxExecutor_GuardRecordAborts(t *testing.T) {
	guard := NewNetworkGuard()
	// A swallowed dial failure still leaves the guard's record behind.
	_ = guard.check("semantic_similarity", "tcp", "203.0.113.9:443")

	sandbox, err := NewSandboxExecutor([]ports.Extractor{
		&fakeExtractor{name: "statistical_similarity", score: domain.SignalScore{Name: "statistical_similarity"}},
	}, guard, nil, testLogger(), time.Second)
	require.NoError(t, err)

	_, err = sandbox.Run(context.Background(), sandboxSubmission(t), &domain.ReferenceCorpus{})
	require.Error(t, err)
	assert.True(t, domain.IsIsolationBreach(err))
}

func TestNewSandboxExecutor_Validation(t *testing.T) {
	_, err := NewSandboxExecutor(nil, NewNetworkGuard(), nil, testLogger(), time.Second)
	assert.Error(t, err)

	_, err = NewSandboxExecutor([]ports.Extractor{
		&fakeExtractor{name: "x"},
		&fakeExtractor{name: "x"},
	}, NewNetworkGuard(), nil, testLogger(), time.Second)
	assert.ErrorContains(t, err, "duplicate")
}
