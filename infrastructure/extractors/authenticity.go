package extractors

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/scholarseal/veritas/internal/domain"
	"github.com/scholarseal/veritas/internal/ports"
)

var _ ports.Extractor = (*AuthenticityExtractor)(nil)

// explicitAIPatterns are the self-referential phrases a language model
// leaves behind when its output is pasted verbatim. Any match is a hard
// failure condition in the aggregator, so this list holds only phrasing a
// human author would not plausibly write about themselves.
var explicitAIPatterns = []string{
	"as an ai",
	"as an assistant",
	"as a language model",
	"i don't have personal",
	"i don't have the ability",
	"i don't have access",
	"my training data",
	"my training cut",
	"my knowledge cut",
	"as of my last update",
}

// formulaicConnectives are the scaffolding phrases that machine-generated
// essays lean on. They feed the structural feature score and the evidence
// trail but never fail a submission on their own.
var formulaicConnectives = []string{
	"on one hand",
	"on the other hand",
	"in conclusion",
	"in summary",
	"furthermore",
	"moreover",
	"it is important to note",
	"it is worth noting",
	"firstly",
	"secondly",
	"lastly",
}

var (
	bulletLine   = regexp.MustCompile(`^\s*[-•*]\s`)
	numberedLine = regexp.MustCompile(`^\s*\d+\.\s`)
)

// emojiRanges covers the emoji blocks scanned for. Presence of any code
// point in these ranges is treated as a hard signal by the aggregator.
var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F300, 0x1F5FF}, // symbols and pictographs
	{0x1F680, 0x1F6FF}, // transport and map symbols
	{0x1F900, 0x1F9FF}, // supplemental symbols and pictographs
}

// AuthenticityConfig defines the configuration parameters for the
// AuthenticityExtractor. The feature weights are fixed by design and
// documented on FeatureWeights rather than learned.
type AuthenticityConfig struct {
	// RepetitionNGram is the phrase width scanned for exact repetition.
	RepetitionNGram int `validate:"min=2,max=8"`

	// RepetitionThreshold is the occurrence count above which a phrase
	// counts as repeated.
	RepetitionThreshold int `validate:"min=2,max=10"`

	// MaxEmojiEvidence caps the emoji runes carried into the verdict;
	// the full count is always reported.
	MaxEmojiEvidence int `validate:"min=1,max=50"`

	// MaxRepeatedEvidence caps the repeated-phrase list carried as
	// evidence.
	MaxRepeatedEvidence int `validate:"min=1,max=20"`
}

// DefaultAuthenticityConfig returns the default authenticity configuration.
func DefaultAuthenticityConfig() AuthenticityConfig {
	return AuthenticityConfig{
		RepetitionNGram:     4,
		RepetitionThreshold: 2,
		MaxEmojiEvidence:    5,
		MaxRepeatedEvidence: 5,
	}
}

// FeatureWeights is the fixed, documented blend reducing the five
// authenticity sub-scores into the single ai_confidence value. Variety and
// diversity read "lower is more machine-like" and are inverted before
// weighting. The weights sum to 1.
var FeatureWeights = struct {
	ParagraphConsistency float64
	SentenceVariety      float64
	LexicalDiversity     float64
	RepetitivePatterns   float64
	StructuralPatterns   float64
}{
	ParagraphConsistency: 0.25,
	SentenceVariety:      0.20,
	LexicalDiversity:     0.20,
	RepetitivePatterns:   0.20,
	StructuralPatterns:   0.15,
}

// AuthenticityExtractor computes the ai_confidence signal from the
// submission text alone: five independent stylistic/structural features, an
// explicit AI-idiom match list, and an emoji scan. It needs no corpus and
// no backend, so it never soft-fails.
type AuthenticityExtractor struct {
	config AuthenticityConfig
	tracer trace.Tracer
}

// NewAuthenticityExtractor creates an AuthenticityExtractor with the given
// configuration.
func NewAuthenticityExtractor(config AuthenticityConfig) (*AuthenticityExtractor, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &AuthenticityExtractor{
		config: config,
		tracer: otel.Tracer("authenticity-extractor"),
	}, nil
}

// Name returns the signal identifier this extractor produces.
func (ae *AuthenticityExtractor) Name() string { return domain.SignalAuthenticity }

// Validate checks that the extractor is ready for execution.
func (ae *AuthenticityExtractor) Validate() error {
	if err := validate.Struct(ae.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Extract computes the feature vector, the explicit pattern matches, and
// the emoji scan, and reduces the features into one ai_confidence score
// under FeatureWeights. The corpus argument is unused; the signal is a
// function of the submission text only.
func (ae *AuthenticityExtractor) Extract(ctx context.Context, sub *domain.Submission, _ *domain.ReferenceCorpus) (domain.SignalScore, error) {
	_, span := ae.tracer.Start(ctx, "authenticity.extract")
	defer span.End()

	text := sub.Text
	folded := foldCaser.String(text)

	repeated := ae.repeatedPhrases(text)
	structuralScore, structuralMatches := ae.structuralPatterns(text, folded)

	features := domain.FeatureVector{
		ParagraphConsistency: paragraphConsistency(text),
		SentenceVariety:      sentenceVariety(text),
		LexicalDiversity:     lexicalDiversity(text),
		RepetitivePatterns:   ae.repetitivePatterns(text, len(repeated)),
		StructuralPatterns:   structuralScore,
	}

	w := FeatureWeights
	aiConfidence := clamp(
		features.ParagraphConsistency*w.ParagraphConsistency +
			(100-features.SentenceVariety)*w.SentenceVariety +
			(100-features.LexicalDiversity)*w.LexicalDiversity +
			features.RepetitivePatterns*w.RepetitivePatterns +
			features.StructuralPatterns*w.StructuralPatterns)

	explicit := matchPhrases(folded, explicitAIPatterns)
	emojis, emojiCount := ae.scanEmojis(text)

	span.SetAttributes(
		attribute.Float64("ai_confidence", aiConfidence),
		attribute.Int("explicit_patterns", len(explicit)),
		attribute.Int("emoji_count", emojiCount),
	)

	if len(repeated) > ae.config.MaxRepeatedEvidence {
		repeated = repeated[:ae.config.MaxRepeatedEvidence]
	}

	return domain.SignalScore{
		Name:  domain.SignalAuthenticity,
		Value: aiConfidence,
		Evidence: domain.Evidence{
			Features:          &features,
			MatchedPhrases:    explicit,
			StructuralMatches: structuralMatches,
			RepeatedPhrases:   repeated,
			Emojis:            emojis,
			EmojiCount:        emojiCount,
		},
	}, nil
}

// paragraphConsistency scores how uniform the paragraph lengths are, in
// [0,100]. A coefficient of variation of zero (perfectly uniform,
// machine-style paragraphing) scores 100; a spread of one standard
// deviation per mean word scores 0. Texts with fewer than two paragraphs
// score a neutral 50 since uniformity is undefined.
func paragraphConsistency(text string) float64 {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) < 2 {
		return 50
	}
	lengths := make([]int, len(paragraphs))
	for i, p := range paragraphs {
		lengths[i] = len(strings.Fields(p))
	}
	mean, variance := meanVariance(lengths)
	if mean == 0 {
		return 50
	}
	cv := math.Sqrt(variance) / mean
	return clamp(100 * (1 - cv))
}

// sentenceVariety scores the spread of sentence lengths, in [0,100]. Low
// variety reads as suspicious, so monotonous machine pacing scores low. A
// coefficient of variation of 0.5, typical for human prose, maps to 100.
// Texts with fewer than three sentences score a neutral 50.
func sentenceVariety(text string) float64 {
	sentences := splitSentences(text)
	if len(sentences) < 3 {
		return 50
	}
	lengths := make([]int, len(sentences))
	for i, s := range sentences {
		lengths[i] = len(strings.Fields(s))
	}
	mean, variance := meanVariance(lengths)
	if mean == 0 {
		return 50
	}
	cv := math.Sqrt(variance) / mean
	return clamp(cv * 200)
}

// lexicalDiversity scores the distinct-word ratio over total words, in
// [0,100]. Texts with fewer than 20 words score a neutral 50.
func lexicalDiversity(text string) float64 {
	words := tokenize(text)
	if len(words) < 20 {
		return 50
	}
	distinct := make(map[string]struct{}, len(words))
	for _, w := range words {
		distinct[w] = struct{}{}
	}
	return clamp(float64(len(distinct)) / float64(len(words)) * 100)
}

// repeatedPhrases returns the exact phrases of the configured width that
// occur more often than the repetition threshold, most frequent first.
func (ae *AuthenticityExtractor) repeatedPhrases(text string) []string {
	words := tokenize(text)
	grams := ngrams(words, ae.config.RepetitionNGram)
	if len(grams) == 0 {
		return nil
	}
	counts := make(map[string]int, len(grams))
	for _, g := range grams {
		counts[g]++
	}
	type phraseCount struct {
		phrase string
		count  int
	}
	var repeated []phraseCount
	for phrase, count := range counts {
		if count > ae.config.RepetitionThreshold {
			repeated = append(repeated, phraseCount{phrase, count})
		}
	}
	sort.Slice(repeated, func(i, j int) bool {
		if repeated[i].count != repeated[j].count {
			return repeated[i].count > repeated[j].count
		}
		return repeated[i].phrase < repeated[j].phrase
	})
	phrases := make([]string, len(repeated))
	for i, pc := range repeated {
		phrases[i] = pc.phrase
	}
	return phrases
}

// repetitivePatterns scores how much of the text consists of exactly
// repeated phrases, in [0,100]. The ratio of repeated phrases to total
// phrases is stretched so that 20% repetition saturates the score.
func (ae *AuthenticityExtractor) repetitivePatterns(text string, repeatedCount int) float64 {
	words := tokenize(text)
	grams := ngrams(words, ae.config.RepetitionNGram)
	if len(grams) == 0 {
		return 0
	}
	return clamp(float64(repeatedCount) / float64(len(grams)) * 500)
}

// structuralPatterns scores formulaic scaffolding: connective phrases,
// bullet and numbered lists, and heading-like lines. Each connective
// occurrence and each scaffolded line contributes; the score saturates
// when a fifth of the lines are scaffolding.
func (ae *AuthenticityExtractor) structuralPatterns(text, folded string) (float64, []string) {
	matches := matchPhrases(folded, formulaicConnectives)

	lines := strings.Split(text, "\n")
	structured := 0
	total := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		total++
		switch {
		case bulletLine.MatchString(line), numberedLine.MatchString(line):
			structured++
		case trimmed == strings.ToUpper(trimmed) && len(strings.Fields(trimmed)) > 1:
			structured++
		case strings.HasSuffix(trimmed, ":"):
			structured++
		}
	}

	score := float64(len(matches)) * 10
	if total > 0 {
		score += float64(structured) / float64(total) * 500
	}
	return clamp(score), matches
}

// scanEmojis returns the emoji runes found in the text, capped at the
// configured evidence limit, together with the full count.
func (ae *AuthenticityExtractor) scanEmojis(text string) ([]string, int) {
	var found []string
	count := 0
	for _, r := range text {
		if !isEmoji(r) {
			continue
		}
		count++
		if len(found) < ae.config.MaxEmojiEvidence {
			found = append(found, string(r))
		}
	}
	return found, count
}

func isEmoji(r rune) bool {
	for _, rng := range emojiRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}

// matchPhrases returns the phrases present verbatim in the folded text,
// preserving list order.
func matchPhrases(folded string, phrases []string) []string {
	var matched []string
	for _, p := range phrases {
		if strings.Contains(folded, p) {
			matched = append(matched, p)
		}
	}
	return matched
}
