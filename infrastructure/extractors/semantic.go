package extractors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/scholarseal/veritas/internal/domain"
	"github.com/scholarseal/veritas/internal/ports"
)

var _ ports.Extractor = (*SemanticExtractor)(nil)

// SemanticConfig defines the configuration parameters for the
// SemanticExtractor.
type SemanticConfig struct {
	// MaxChars truncates each text before embedding so oversized
	// submissions do not blow the backend's context window.
	MaxChars int `validate:"min=100,max=100000"`

	// CacheTTL bounds how long embedding vectors are reused across
	// requests for identical texts. Re-validating the same document is
	// common, so caching saves the dominant cost of the signal.
	CacheTTL time.Duration `validate:"min=0"`
}

// DefaultSemanticConfig returns the default semantic configuration.
func DefaultSemanticConfig() SemanticConfig {
	return SemanticConfig{
		MaxChars: 2000,
		CacheTTL: 10 * time.Minute,
	}
}

// SemanticExtractor computes the semantic_similarity signal: cosine
// similarity between dense embeddings of the submission and each
// reference, reduced by maximum over references and scaled to [0,100].
//
// The extractor embeds the submission and all references in a single batch
// call per request, with a content-addressed cache in front so repeated
// texts are never re-encoded. It fails soft: when the embedding backend is
// unavailable it returns 0 with the semantic_unavailable flag rather than
// aborting the pipeline.
type SemanticExtractor struct {
	config   SemanticConfig
	embedder ports.Embedder
	cache    *gocache.Cache
	tracer   trace.Tracer
}

// NewSemanticExtractor creates a SemanticExtractor backed by the given
// embedder. Returns an error if the embedder is nil or configuration
// validation fails.
func NewSemanticExtractor(embedder ports.Embedder, config SemanticConfig) (*SemanticExtractor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder", ErrNilDependency)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &SemanticExtractor{
		config:   config,
		embedder: embedder,
		cache:    gocache.New(config.CacheTTL, 2*config.CacheTTL),
		tracer:   otel.Tracer("semantic-extractor"),
	}, nil
}

// Name returns the signal identifier this extractor produces.
func (se *SemanticExtractor) Name() string { return domain.SignalSemantic }

// Validate checks that the extractor is ready for execution.
func (se *SemanticExtractor) Validate() error {
	if se.embedder == nil {
		return fmt.Errorf("%w: embedder", ErrNilDependency)
	}
	if err := validate.Struct(se.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Extract embeds the submission together with every valid reference and
// returns the maximum cosine similarity, with the winning reference as
// evidence. Backend unavailability and embedding errors degrade to a
// flagged zero score.
func (se *SemanticExtractor) Extract(ctx context.Context, sub *domain.Submission, corpus *domain.ReferenceCorpus) (domain.SignalScore, error) {
	ctx, span := se.tracer.Start(ctx, "semantic.extract")
	defer span.End()

	refs := corpus.ValidReferences()
	if len(refs) == 0 {
		return emptyCorpusScore(domain.SignalSemantic), nil
	}

	if !se.embedder.Available(ctx) {
		span.SetAttributes(attribute.Bool("unavailable", true))
		return unavailableScore(domain.SignalSemantic, domain.FlagSemanticUnavailable), nil
	}

	texts := make([]string, 0, len(refs)+1)
	texts = append(texts, truncate(sub.Text, se.config.MaxChars))
	for _, ref := range refs {
		texts = append(texts, truncate(ref.Text, se.config.MaxChars))
	}

	vectors, err := se.embedBatch(ctx, texts)
	if err != nil {
		span.RecordError(err)
		return unavailableScore(domain.SignalSemantic, domain.FlagSemanticUnavailable), nil
	}

	subVec := vectors[0]
	best := 0.0
	var bestRef domain.Reference
	for i, ref := range refs {
		sim := cosineVectors(subVec, vectors[i+1])
		if sim > best {
			best = sim
			bestRef = ref
		}
	}

	score := clamp(best * 100)
	span.SetAttributes(attribute.Float64("score", score))

	return domain.SignalScore{
		Name:  domain.SignalSemantic,
		Value: score,
		Evidence: domain.Evidence{
			TopReference:    bestRef.Title,
			TopReferenceURL: bestRef.URL,
		},
	}, nil
}

// embedBatch resolves each text against the cache and encodes the misses
// in one backend call, preserving input order in the result.
func (se *SemanticExtractor) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	missing := make([]string, 0, len(texts))
	missingIdx := make([]int, 0, len(texts))

	for i, text := range texts {
		key := cacheKey(text)
		if cached, ok := se.cache.Get(key); ok {
			vectors[i] = cached.([]float32)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		encoded, err := se.embedder.Embed(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("embedding batch of %d texts: %w", len(missing), err)
		}
		if len(encoded) != len(missing) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", ports.ErrInvalidResponse, len(encoded), len(missing))
		}
		for j, vec := range encoded {
			vectors[missingIdx[j]] = vec
			se.cache.Set(cacheKey(missing[j]), vec, gocache.DefaultExpiration)
		}
	}

	return vectors, nil
}

// unavailableScore is the soft-fail substitute for a signal whose backend
// could not produce a measurement.
func unavailableScore(name, flag string) domain.SignalScore {
	return domain.SignalScore{
		Name:        name,
		Value:       0,
		Unavailable: true,
		Flag:        flag,
	}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

// cosineVectors computes the cosine similarity of two dense vectors,
// clamped to [0,1] so antipodal embeddings read as no similarity.
func cosineVectors(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	if sim < 0 {
		return 0
	}
	return sim
}
