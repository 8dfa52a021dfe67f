package application

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/scholarseal/veritas/infrastructure/embedding"
	"github.com/scholarseal/veritas/infrastructure/extractors"
	"github.com/scholarseal/veritas/infrastructure/llm"
	"github.com/scholarseal/veritas/internal/domain"
	"github.com/scholarseal/veritas/internal/ports"
)

// Engine is the top-level integrity checker. It owns the sandbox, the
// extractor set assembled from configuration, and the decision
// aggregator, and turns one submission plus its reference corpus into
// one verdict.
//
// Engines are safe for concurrent use; every run gets its own context
// and the extractors share no per-run state.
type Engine struct {
	config     EngineConfig
	sandbox    *SandboxExecutor
	aggregator *domain.DecisionAggregator
	metrics    ports.MetricsCollector
	logger     *slog.Logger
}

// engineDeps carries the optional collaborators NewEngine accepts.
type engineDeps struct {
	metrics    ports.MetricsCollector
	logger     *slog.Logger
	aggOptions []domain.AggregatorOption
}

// EngineOption customizes engine construction.
type EngineOption func(*engineDeps)

// WithMetrics attaches a metrics collector to the engine.
func WithMetrics(m ports.MetricsCollector) EngineOption {
	return func(d *engineDeps) { d.metrics = m }
}

// WithLogger sets the engine's structured logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(d *engineDeps) { d.logger = l }
}

// WithAggregatorOptions forwards options to the decision aggregator,
// mainly injectable clocks and ID sources for reproducible output.
func WithAggregatorOptions(opts ...domain.AggregatorOption) EngineOption {
	return func(d *engineDeps) { d.aggOptions = append(d.aggOptions, opts...) }
}

// NewEngine assembles an engine from configuration: it builds the
// guarded model and embedding clients, instantiates every enabled
// extractor, and selects the decision policy for the configured mode.
func NewEngine(config EngineConfig, opts ...EngineOption) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	deps := engineDeps{logger: slog.Default()}
	for _, opt := range opts {
		opt(&deps)
	}

	guard := NewNetworkGuard()

	client, err := buildLLMClient(config, guard)
	if err != nil {
		return nil, err
	}

	exs, err := buildExtractors(config, guard, client)
	if err != nil {
		return nil, err
	}

	sandbox, err := NewSandboxExecutor(exs, guard, deps.metrics, deps.logger, config.RunTimeout)
	if err != nil {
		return nil, err
	}

	policy := domain.StandardPolicy()
	if config.Mode == ModeStrict {
		policy = domain.StrictPolicy()
	}

	return &Engine{
		config:     config,
		sandbox:    sandbox,
		aggregator: domain.NewDecisionAggregator(policy, deps.aggOptions...),
		metrics:    deps.metrics,
		logger:     deps.logger,
	}, nil
}

// Validate runs the full pipeline for one submission: concurrent signal
// extraction in the sandbox followed by deterministic aggregation.
//
// The error return is reserved for conditions under which no verdict may
// be produced at all: invalid input, an isolation breach, or a cancelled
// context. Degraded backends do not error; they surface as unavailable
// signals inside the verdict.
func (e *Engine) Validate(ctx context.Context, sub *domain.Submission, corpus *domain.ReferenceCorpus) (*domain.Verdict, error) {
	if sub == nil {
		return nil, domain.ErrEmptySubmission
	}
	if corpus == nil {
		corpus = &domain.ReferenceCorpus{}
	}

	e.logger.Info("starting integrity check",
		"submission", sub.ID,
		"subject", sub.Subject,
		"references", len(corpus.ValidReferences()),
		"mode", e.config.Mode)

	scores, err := e.sandbox.Run(ctx, sub, corpus)
	if err != nil {
		return nil, fmt.Errorf("signal extraction failed: %w", err)
	}

	verdict, err := e.aggregator.Aggregate(sub, scores)
	if err != nil {
		return nil, fmt.Errorf("aggregating signals: %w", err)
	}

	if e.metrics != nil {
		e.metrics.RecordVerdict(string(verdict.Status))
	}
	e.logger.Info("integrity check complete",
		"submission", sub.ID,
		"status", verdict.Status,
		"composite_score", verdict.CompositeScore,
		"unavailable_signals", verdict.UnavailableSignals,
		"failure_reason", verdict.FailureReason)

	return verdict, nil
}

// buildLLMClient constructs the guarded model client, or nil when no
// backend is configured.
func buildLLMClient(config EngineConfig, guard *NetworkGuard) (ports.LLMClient, error) {
	if config.LLM.Backend == "" {
		return nil, nil
	}

	var middleware []llm.Middleware
	if config.LLM.Timeout > 0 {
		middleware = append(middleware, llm.TimeoutMiddleware(config.LLM.Timeout))
	}
	if config.LLM.RequestsPerSecond > 0 {
		middleware = append(middleware, llm.RateLimitMiddleware(rate.Limit(config.LLM.RequestsPerSecond), 1))
	}

	client, err := llm.NewClient(llm.ClientConfig{
		Backend:    config.LLM.Backend,
		BaseURL:    config.LLM.BaseURL,
		Model:      config.LLM.Model,
		Timeout:    config.LLM.Timeout,
		HTTPClient: guard.GuardedClient(domain.SignalJudged, config.LLM.Timeout),
		Middleware: middleware,
	})
	if err != nil {
		return nil, fmt.Errorf("building llm client: %w", err)
	}
	return client, nil
}

// buildExtractors instantiates the configured extraction stages. The
// self-contained stages always run; model-backed stages are added only
// when their toggles and backends line up.
func buildExtractors(config EngineConfig, guard *NetworkGuard, client ports.LLMClient) ([]ports.Extractor, error) {
	lexical, err := extractors.NewLexicalExtractor(extractors.DefaultLexicalConfig())
	if err != nil {
		return nil, err
	}
	ngram, err := extractors.NewNGramExtractor(extractors.DefaultLexicalConfig())
	if err != nil {
		return nil, err
	}
	authenticity, err := extractors.NewAuthenticityExtractor(extractors.DefaultAuthenticityConfig())
	if err != nil {
		return nil, err
	}

	var relevanceClient ports.LLMClient
	if config.Signals.RelevanceModel {
		relevanceClient = client
	}
	relevance, err := extractors.NewRelevanceExtractor(relevanceClient, extractors.DefaultRelevanceConfig())
	if err != nil {
		return nil, err
	}

	exs := []ports.Extractor{lexical, ngram, authenticity, relevance}

	var embedder ports.Embedder = embedding.Disabled{}
	if config.Signals.Semantic {
		embedder, err = embedding.NewOllamaEmbedder(embedding.OllamaConfig{
			BaseURL:    config.Embedding.BaseURL,
			Model:      config.Embedding.Model,
			Timeout:    config.Embedding.Timeout,
			HTTPClient: guard.GuardedClient(domain.SignalSemantic, config.Embedding.Timeout),
		})
		if err != nil {
			return nil, fmt.Errorf("building embedder: %w", err)
		}
	}
	semantic, err := extractors.NewSemanticExtractor(embedder, extractors.DefaultSemanticConfig())
	if err != nil {
		return nil, err
	}
	exs = append(exs, semantic)

	if config.Signals.Judged && client != nil {
		judged, err := extractors.NewJudgedExtractor(client, extractors.DefaultJudgedConfig())
		if err != nil {
			return nil, err
		}
		exs = append(exs, judged)
	}

	return exs, nil
}
