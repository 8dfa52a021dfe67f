package extractors

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/scholarseal/veritas/internal/domain"
	"github.com/scholarseal/veritas/internal/ports"
)

var (
	_ ports.Extractor = (*LexicalExtractor)(nil)
	_ ports.Extractor = (*NGramExtractor)(nil)
)

// LexicalConfig defines the configuration parameters shared by the
// lexical-family extractors.
type LexicalConfig struct {
	// NGramSize is the n-gram width used for the Jaccard overlap figure.
	// Texts shorter than the width degrade to unigram overlap.
	NGramSize int `validate:"min=1,max=5"`
}

// DefaultLexicalConfig returns the default lexical configuration:
// trigram overlap, matching the upstream comparison granularity.
func DefaultLexicalConfig() LexicalConfig {
	return LexicalConfig{NGramSize: 3}
}

// LexicalExtractor computes the statistical_similarity signal: a cosine
// similarity over term-frequency vectors between the submission and each
// reference, reduced by maximum over references. It is deterministic and
// pure, carrying no hidden state.
type LexicalExtractor struct {
	config LexicalConfig
	tracer trace.Tracer
}

// NewLexicalExtractor creates a LexicalExtractor with the given
// configuration. Returns an error if configuration validation fails.
func NewLexicalExtractor(config LexicalConfig) (*LexicalExtractor, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &LexicalExtractor{
		config: config,
		tracer: otel.Tracer("lexical-extractor"),
	}, nil
}

// Name returns the signal identifier this extractor produces.
func (le *LexicalExtractor) Name() string { return domain.SignalStatistical }

// Validate checks that the extractor is ready for execution.
func (le *LexicalExtractor) Validate() error {
	if err := validate.Struct(le.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Extract scores the submission against every valid reference and returns
// the maximum term-frequency cosine, scaled to [0,100], with the winning
// reference recorded as evidence. An empty corpus degrades the signal to
// zero confidence rather than failing.
func (le *LexicalExtractor) Extract(ctx context.Context, sub *domain.Submission, corpus *domain.ReferenceCorpus) (domain.SignalScore, error) {
	_, span := le.tracer.Start(ctx, "lexical.extract")
	defer span.End()

	refs := corpus.ValidReferences()
	if len(refs) == 0 {
		return emptyCorpusScore(domain.SignalStatistical), nil
	}

	subFreq := termFrequencies(tokenize(sub.Text))

	best := 0.0
	var bestRef domain.Reference
	for _, ref := range refs {
		sim := cosineFrequency(subFreq, termFrequencies(tokenize(ref.Text)))
		if sim > best {
			best = sim
			bestRef = ref
		}
	}

	score := clamp(best * 100)
	span.SetAttributes(
		attribute.Float64("score", score),
		attribute.Int("references", len(refs)),
	)

	return domain.SignalScore{
		Name:  domain.SignalStatistical,
		Value: score,
		Evidence: domain.Evidence{
			TopReference:    bestRef.Title,
			TopReferenceURL: bestRef.URL,
		},
	}, nil
}

// NGramExtractor computes the ngram_similarity signal: the Jaccard overlap
// of n-gram sets between the submission and each reference, reduced by
// maximum over references. It reports alongside the TF-cosine figure and
// carries no failure threshold of its own.
type NGramExtractor struct {
	config LexicalConfig
	tracer trace.Tracer
}

// NewNGramExtractor creates an NGramExtractor with the given configuration.
func NewNGramExtractor(config LexicalConfig) (*NGramExtractor, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &NGramExtractor{
		config: config,
		tracer: otel.Tracer("ngram-extractor"),
	}, nil
}

// Name returns the signal identifier this extractor produces.
func (ne *NGramExtractor) Name() string { return domain.SignalNGram }

// Validate checks that the extractor is ready for execution.
func (ne *NGramExtractor) Validate() error {
	if err := validate.Struct(ne.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Extract computes the maximum n-gram Jaccard overlap over references,
// scaled to [0,100]. Texts shorter than the n-gram size fall back to
// unigram overlap inside ngrams.
func (ne *NGramExtractor) Extract(ctx context.Context, sub *domain.Submission, corpus *domain.ReferenceCorpus) (domain.SignalScore, error) {
	_, span := ne.tracer.Start(ctx, "ngram.extract")
	defer span.End()

	refs := corpus.ValidReferences()
	if len(refs) == 0 {
		return emptyCorpusScore(domain.SignalNGram), nil
	}

	subGrams := gramSet(tokenize(sub.Text), ne.config.NGramSize)

	best := 0.0
	var bestRef domain.Reference
	for _, ref := range refs {
		sim := jaccard(subGrams, gramSet(tokenize(ref.Text), ne.config.NGramSize))
		if sim > best {
			best = sim
			bestRef = ref
		}
	}

	score := clamp(best * 100)
	span.SetAttributes(attribute.Float64("score", score))

	return domain.SignalScore{
		Name:  domain.SignalNGram,
		Value: score,
		Evidence: domain.Evidence{
			TopReference:    bestRef.Title,
			TopReferenceURL: bestRef.URL,
		},
	}, nil
}

// emptyCorpusScore is the zero-confidence substitute for corpus-dependent
// signals when no usable reference text was supplied.
func emptyCorpusScore(name string) domain.SignalScore {
	return domain.SignalScore{
		Name:        name,
		Value:       0,
		Unavailable: true,
		Flag:        domain.FlagCorpusEmpty,
	}
}

func termFrequencies(words []string) map[string]int {
	freq := make(map[string]int, len(words))
	for _, w := range words {
		freq[w]++
	}
	return freq
}

// cosineFrequency computes the cosine similarity of two term-frequency
// vectors, in [0,1].
func cosineFrequency(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot float64
	for term, fa := range a {
		if fb, ok := b[term]; ok {
			dot += float64(fa) * float64(fb)
		}
	}
	if dot == 0 {
		return 0
	}
	var magA, magB float64
	for _, f := range a {
		magA += float64(f) * float64(f)
	}
	for _, f := range b {
		magB += float64(f) * float64(f)
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func gramSet(words []string, n int) map[string]struct{} {
	grams := ngrams(words, n)
	set := make(map[string]struct{}, len(grams))
	for _, g := range grams {
		set[g] = struct{}{}
	}
	return set
}

// jaccard computes |a∩b| / |a∪b| over gram sets, in [0,1].
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for g := range a {
		if _, ok := b[g]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
