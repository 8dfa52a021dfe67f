package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/scholarseal/veritas/infrastructure/llm"
	"github.com/scholarseal/veritas/internal/domain"
	"github.com/scholarseal/veritas/internal/ports"
)

var _ ports.Extractor = (*JudgedExtractor)(nil)

// judgedPrompt asks the local model for a strictly delimited payload: one
// similarity percentage and one formulaic-writing flag. Keeping the
// requested schema tiny makes small local models far more likely to comply.
const judgedPrompt = `You are grading an academic submission for originality.

Submission:
{{.Submission}}

Reference excerpt:
{{.References}}

Rate how similar the submission is to the reference material, where 0 means
fully original and 100 means copied or closely paraphrased. Also state
whether the submission reads as formulaic, non-human writing.

Answer with ONLY a JSON object, no other text:
{"similarity": <0-100>, "formulaic": <true|false>}`

// JudgedConfig defines the configuration parameters for the
// JudgedExtractor.
type JudgedConfig struct {
	// Timeout is the hard wall-clock bound on one model invocation. On
	// expiry the extractor substitutes its neutral score.
	Timeout time.Duration `validate:"required,min=1s"`

	// MaxSubmissionChars truncates the submission in the prompt.
	MaxSubmissionChars int `validate:"min=100,max=20000"`

	// MaxReferenceChars bounds the compact reference excerpt built from
	// the corpus.
	MaxReferenceChars int `validate:"min=100,max=20000"`

	// NeutralScore is the substitute value reported when the model is
	// unavailable or unparseable. It sits below every failure threshold
	// and the signal is flagged unavailable besides, so the substitute
	// can never fail a submission.
	NeutralScore float64 `validate:"min=0,max=100"`

	// Temperature controls sampling randomness; zero keeps grading
	// repeatable.
	Temperature float64 `validate:"min=0,max=1"`

	// MaxTokens bounds the model's answer length.
	MaxTokens int `validate:"min=16,max=2000"`
}

// DefaultJudgedConfig returns the default judged-similarity configuration.
func DefaultJudgedConfig() JudgedConfig {
	return JudgedConfig{
		Timeout:            20 * time.Second,
		MaxSubmissionChars: 2000,
		MaxReferenceChars:  1500,
		NeutralScore:       30,
		Temperature:        0,
		MaxTokens:          128,
	}
}

// judgedResponse is the expected payload from the model after lenient
// decoding.
type judgedResponse struct {
	Similarity float64 `json:"similarity" validate:"min=0,max=100"`
	Formulaic  bool    `json:"formulaic"`
}

// JudgedExtractor computes the judged_similarity signal by prompting a
// locally hosted language model to rate paraphrase/originality and flag
// formulaic writing. It is the only extractor expected to block for a
// non-trivial duration and therefore the only one under an explicit
// timeout.
//
// The extractor is defensive end to end: model unavailability, timeout,
// and irrecoverable parse failure all degrade to the neutral score with
// the judged_unavailable flag. The verdict never depends on this signal
// being present.
type JudgedExtractor struct {
	config   JudgedConfig
	client   ports.LLMClient
	template *template.Template
}

// NewJudgedExtractor creates a JudgedExtractor backed by the given model
// client. Returns an error if the client is nil or configuration
// validation fails.
func NewJudgedExtractor(client ports.LLMClient, config JudgedConfig) (*JudgedExtractor, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: llm client", ErrNilDependency)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	tmpl, err := template.New("judgedPrompt").Parse(judgedPrompt)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	return &JudgedExtractor{
		config:   config,
		client:   client,
		template: tmpl,
	}, nil
}

// Name returns the signal identifier this extractor produces.
func (je *JudgedExtractor) Name() string { return domain.SignalJudged }

// Validate checks that the extractor is ready for execution.
func (je *JudgedExtractor) Validate() error {
	if je.client == nil {
		return fmt.Errorf("%w: llm client", ErrNilDependency)
	}
	if err := validate.Struct(je.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Extract issues a single structured prompt under the configured timeout
// and leniently decodes the answer. Every recoverable failure path returns
// the flagged neutral score; Extract never returns an error for backend
// trouble.
func (je *JudgedExtractor) Extract(ctx context.Context, sub *domain.Submission, corpus *domain.ReferenceCorpus) (domain.SignalScore, error) {
	ctx, span := otel.Tracer("judged-extractor").Start(ctx, "judged.extract")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, je.config.Timeout)
	defer cancel()

	if !je.client.Available(ctx) {
		span.SetAttributes(attribute.Bool("unavailable", true))
		return je.neutral(), nil
	}

	prompt, err := je.buildPrompt(sub, corpus)
	if err != nil {
		span.RecordError(err)
		return je.neutral(), nil
	}

	raw, err := je.client.Complete(ctx, prompt, map[string]any{
		"temperature": je.config.Temperature,
		"max_tokens":  je.config.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		return je.neutral(), nil
	}

	resp, ok := je.parse(raw)
	if !ok {
		span.SetAttributes(attribute.Bool("parse_failed", true))
		return je.neutral(), nil
	}

	score := clamp(resp.Similarity)
	span.SetAttributes(
		attribute.Float64("score", score),
		attribute.Bool("formulaic", resp.Formulaic),
	)

	return domain.SignalScore{
		Name:  domain.SignalJudged,
		Value: score,
		Evidence: domain.Evidence{
			Formulaic: resp.Formulaic,
			Comment:   fmt.Sprintf("model %s rated similarity %.0f%%", je.client.GetModel(), score),
		},
	}, nil
}

// buildPrompt renders the judged prompt with the truncated submission and
// a compact representative excerpt of the references.
func (je *JudgedExtractor) buildPrompt(sub *domain.Submission, corpus *domain.ReferenceCorpus) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Submission string
		References string
	}{
		Submission: truncate(sub.Text, je.config.MaxSubmissionChars),
		References: je.referenceExcerpt(corpus),
	}
	if err := je.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

// referenceExcerpt builds one compact excerpt across the corpus, giving
// each reference an equal share of the budget so no single source
// dominates the model's view.
func (je *JudgedExtractor) referenceExcerpt(corpus *domain.ReferenceCorpus) string {
	refs := corpus.ValidReferences()
	if len(refs) == 0 {
		return "(no reference material supplied)"
	}
	share := je.config.MaxReferenceChars / len(refs)
	if share < 200 {
		share = 200
	}
	var parts []string
	budget := je.config.MaxReferenceChars
	for _, ref := range refs {
		if budget <= 0 {
			break
		}
		chunk := truncate(strings.TrimSpace(ref.Text), min(share, budget))
		parts = append(parts, chunk)
		budget -= len(chunk)
	}
	return strings.Join(parts, "\n---\n")
}

// parse leniently decodes the model output, falling back to bare number
// extraction when even the repaired payload is undecodable. A response
// with no number at all is a parse failure.
func (je *JudgedExtractor) parse(raw string) (judgedResponse, bool) {
	var resp judgedResponse
	if err := llm.DecodeLenient(raw, &resp); err == nil {
		if validate.Struct(resp) == nil {
			return resp, true
		}
	}

	score := llm.ExtractNumber(raw, -1)
	if score < 0 || score > 100 {
		return judgedResponse{}, false
	}
	return judgedResponse{Similarity: score}, true
}

// neutral is the flagged soft-fail substitute for the judged signal.
func (je *JudgedExtractor) neutral() domain.SignalScore {
	return domain.SignalScore{
		Name:        domain.SignalJudged,
		Value:       je.config.NeutralScore,
		Unavailable: true,
		Flag:        domain.FlagJudgedUnavailable,
	}
}
