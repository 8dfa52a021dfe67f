package extractors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/scholarseal/veritas/infrastructure/llm"
	"github.com/scholarseal/veritas/internal/domain"
	"github.com/scholarseal/veritas/internal/ports"
)

var _ ports.Extractor = (*RelevanceExtractor)(nil)

// subjectKeywords maps well-known subjects to vocabulary expected in
// on-topic submissions. Subjects outside this table fall back to matching
// the significant words of the subject name itself.
var subjectKeywords = map[string][]string{
	"physics":          {"quantum", "mechanics", "physics", "particle", "wave", "energy", "force", "mass"},
	"history":          {"history", "century", "war", "civilization", "ancient", "medieval", "empire", "revolution"},
	"mathematics":      {"mathematics", "math", "algebra", "geometry", "calculus", "theorem", "equation", "function"},
	"biology":          {"biology", "cell", "organism", "evolution", "gene", "dna", "protein", "species", "ecosystem"},
	"computer science": {"algorithm", "code", "programming", "computer", "software", "hardware", "data", "network"},
	"chemistry":        {"chemical", "reaction", "molecule", "atom", "compound", "element", "acid", "bond"},
	"literature":       {"novel", "author", "literary", "character", "plot", "narrative", "theme", "symbolism"},
}

// relevancePrompt asks the model for a single topical-relevance rating.
const relevancePrompt = `Rate from 0 to 100 how relevant the following text is to the subject "%s".
0 means completely off-topic, 100 means squarely about the subject.

Text:
%s

Answer with ONLY a JSON object, no other text:
{"relevance": <0-100>}`

// RelevanceConfig defines the configuration parameters for the
// RelevanceExtractor.
type RelevanceConfig struct {
	// CompetingRatio is the keyword-coverage fraction above which another
	// subject counts as a competing topic.
	CompetingRatio float64 `validate:"min=0,max=1"`

	// FuzzyDistance is the maximum edit distance at which a submission
	// word still counts as a keyword match. Catches minor misspellings
	// without matching unrelated words.
	FuzzyDistance int `validate:"min=0,max=3"`

	// MaxModelChars truncates the submission in the model prompt.
	MaxModelChars int `validate:"min=100,max=20000"`

	// ModelTimeout bounds the optional model-assisted rating. A slow or
	// unreachable model silently leaves the keyword score in place.
	ModelTimeout time.Duration `validate:"required,min=1s"`
}

// DefaultRelevanceConfig returns the default relevance configuration.
func DefaultRelevanceConfig() RelevanceConfig {
	return RelevanceConfig{
		CompetingRatio: 0.4,
		FuzzyDistance:  1,
		MaxModelChars:  1500,
		ModelTimeout:   15 * time.Second,
	}
}

// RelevanceExtractor computes the relevance signal: how well the
// submission text matches its claimed subject. The primary mechanism is
// keyword coverage against a per-subject vocabulary with fuzzy matching
// for misspellings, plus detection of competing subjects whose vocabulary
// fits the text better than the claimed one.
//
// When a model client is supplied the extractor also asks the model for a
// rating and keeps the lower of the two scores. The model can only make
// the extractor more suspicious, never rescue an off-topic submission.
// The model path is best-effort; any failure leaves the keyword score.
type RelevanceExtractor struct {
	config RelevanceConfig
	client ports.LLMClient
}

// NewRelevanceExtractor creates a RelevanceExtractor. The client may be
// nil, in which case only keyword analysis runs.
func NewRelevanceExtractor(client ports.LLMClient, config RelevanceConfig) (*RelevanceExtractor, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &RelevanceExtractor{config: config, client: client}, nil
}

// Name returns the signal identifier this extractor produces.
func (re *RelevanceExtractor) Name() string { return domain.SignalRelevance }

// Validate checks that the extractor is ready for execution.
func (re *RelevanceExtractor) Validate() error {
	if err := validate.Struct(re.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Extract scores topical relevance. The reference corpus plays no part
// here; relevance is judged against the claimed subject alone, so an
// empty corpus does not degrade this signal.
func (re *RelevanceExtractor) Extract(ctx context.Context, sub *domain.Submission, _ *domain.ReferenceCorpus) (domain.SignalScore, error) {
	ctx, span := otel.Tracer("relevance-extractor").Start(ctx, "relevance.extract")
	defer span.End()

	subject := strings.ToLower(strings.TrimSpace(sub.Subject))
	words := tokenize(sub.Text)
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}
	textLower := strings.ToLower(sub.Text)

	directMention := strings.Contains(textLower, subject)
	matchRatio := re.keywordRatio(subject, wordSet)
	competing, competingRatio := re.bestCompetingSubject(subject, wordSet)

	score, comment, mismatched := re.resolve(sub.Subject, directMention, matchRatio, competing, competingRatio)

	if modelScore, ok := re.modelRating(ctx, sub); ok && modelScore < score {
		score = modelScore
		comment = fmt.Sprintf("%s; model rated relevance %.0f%%", comment, modelScore)
	}

	span.SetAttributes(
		attribute.Float64("score", score),
		attribute.Bool("direct_mention", directMention),
		attribute.String("competing_subject", competing),
	)

	return domain.SignalScore{
		Name:  domain.SignalRelevance,
		Value: clamp(score),
		Evidence: domain.Evidence{
			Comment:           comment,
			MismatchedSubject: mismatched,
		},
	}, nil
}

// resolve converts keyword analysis into a relevance score following the
// tiered scheme: strong match, moderate match, competing subject, or no
// match at all.
func (re *RelevanceExtractor) resolve(subject string, direct bool, ratio float64, competing string, competingRatio float64) (score float64, comment string, mismatched string) {
	switch {
	case direct && ratio > 0.3:
		return min(100, 50+ratio*100),
			fmt.Sprintf("content matches claimed subject %q with good keyword coverage", subject), ""
	case direct || ratio > 0.2:
		return min(100, 40+ratio*100),
			fmt.Sprintf("content somewhat matches claimed subject %q", subject), ""
	case competing != "":
		return max(0, 30-competingRatio*30),
			fmt.Sprintf("content appears to be about %q rather than claimed subject %q", competing, subject),
			competing
	default:
		return 20, fmt.Sprintf("content does not appear to match claimed subject %q", subject), ""
	}
}

// keywordRatio computes the fraction of the subject's expected vocabulary
// present in the submission, tolerating small misspellings.
func (re *RelevanceExtractor) keywordRatio(subject string, wordSet map[string]struct{}) float64 {
	keywords, ok := subjectKeywords[subject]
	if !ok {
		for _, w := range strings.Fields(subject) {
			if len(w) > 3 {
				keywords = append(keywords, w)
			}
		}
	}
	if len(keywords) == 0 {
		return 0
	}
	matches := 0
	for _, kw := range keywords {
		if re.matchesWord(kw, wordSet) {
			matches++
		}
	}
	return float64(matches) / float64(len(keywords))
}

// matchesWord reports whether a keyword appears in the submission either
// exactly or within the configured edit distance.
func (re *RelevanceExtractor) matchesWord(keyword string, wordSet map[string]struct{}) bool {
	if _, ok := wordSet[keyword]; ok {
		return true
	}
	if re.config.FuzzyDistance == 0 {
		return false
	}
	for w := range wordSet {
		// Edit distance is only meaningful between words of similar
		// length; skip obviously incomparable pairs.
		if abs(len(w)-len(keyword)) > re.config.FuzzyDistance {
			continue
		}
		if len(w) < 5 {
			continue
		}
		if levenshtein.ComputeDistance(foldCaser.String(w), foldCaser.String(keyword)) <= re.config.FuzzyDistance {
			return true
		}
	}
	return false
}

// bestCompetingSubject finds the known subject other than the claimed one
// whose vocabulary best covers the text, if any clears the competing
// threshold.
func (re *RelevanceExtractor) bestCompetingSubject(claimed string, wordSet map[string]struct{}) (string, float64) {
	best := ""
	bestRatio := 0.0
	for subj, keywords := range subjectKeywords {
		if subj == claimed {
			continue
		}
		matches := 0
		for _, kw := range keywords {
			if _, ok := wordSet[kw]; ok {
				matches++
			}
		}
		ratio := float64(matches) / float64(len(keywords))
		if ratio > re.config.CompetingRatio && ratio > bestRatio {
			best = subj
			bestRatio = ratio
		}
	}
	return best, bestRatio
}

// modelRating asks the optional model for a relevance score. Returns
// false when no client is configured or anything at all goes wrong.
func (re *RelevanceExtractor) modelRating(ctx context.Context, sub *domain.Submission) (float64, bool) {
	if re.client == nil {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, re.config.ModelTimeout)
	defer cancel()
	if !re.client.Available(ctx) {
		return 0, false
	}

	prompt := fmt.Sprintf(relevancePrompt, sub.Subject, truncate(sub.Text, re.config.MaxModelChars))
	raw, err := re.client.Complete(ctx, prompt, map[string]any{"temperature": 0.0, "max_tokens": 64})
	if err != nil {
		return 0, false
	}

	var resp struct {
		Relevance float64 `json:"relevance"`
	}
	if err := llm.DecodeLenient(raw, &resp); err != nil {
		n := llm.ExtractNumber(raw, -1)
		if n < 0 || n > 100 {
			return 0, false
		}
		resp.Relevance = n
	}
	if resp.Relevance < 0 || resp.Relevance > 100 {
		return 0, false
	}
	return resp.Relevance, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
