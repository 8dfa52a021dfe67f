package domain

import (
	"time"
)

// Status is the terminal outcome of a validation run.
type Status string

// Verdict statuses. A Verdict is created once per submission and never
// revised; a re-run produces a new Verdict.
const (
	StatusPassed Status = "PASSED"
	StatusFailed Status = "FAILED"
)

// PlagiarismCheck is the similarity/authenticity portion of the Verdict,
// serialized for downstream consumers (certificate issuance, dashboards).
type PlagiarismCheck struct {
	// PlagiarismDetected is true when any plagiarism threshold fired.
	PlagiarismDetected bool `json:"plagiarism_detected"`

	// PlagiarismPercentage is the documented weighted blend of the
	// similarity and stylistic signals (see CompositeWeights).
	PlagiarismPercentage float64 `json:"plagiarism_percentage"`

	// StatisticalSimilarity is the TF-cosine overlap with the best
	// matching reference, in [0,100].
	StatisticalSimilarity float64 `json:"statistical_similarity"`

	// SemanticSimilarity is the embedding cosine similarity with the best
	// matching reference, in [0,100].
	SemanticSimilarity float64 `json:"semantic_similarity"`

	// NGramSimilarity is the trigram Jaccard overlap with the best
	// matching reference, in [0,100].
	NGramSimilarity float64 `json:"ngram_similarity"`

	// AIPatternsDetected is true when any explicit AI idiom matched.
	AIPatternsDetected bool `json:"ai_patterns_detected"`

	// AIConfidence is the reduced stylistic score in [0,100].
	AIConfidence float64 `json:"ai_confidence"`

	// AIPatterns carries the explicit match list and feature breakdown.
	AIPatterns AIPatterns `json:"ai_patterns"`

	// EmojiDetected is true when any emoji code point was found.
	EmojiDetected bool `json:"emoji_detected"`

	// EmojiCount is the number of emoji code points found.
	EmojiCount int `json:"emoji_count"`

	// EmojiList holds the matched emoji runes, capped.
	EmojiList []string `json:"emoji_list,omitempty"`

	// SubjectMismatch is true when the relevance validator found the text
	// to be about something other than the claimed subject.
	SubjectMismatch bool `json:"subject_mismatch"`
}

// AIPatterns groups the stylistic evidence inside the plagiarism check.
type AIPatterns struct {
	// ExplicitPatterns lists the AI idioms and formulaic phrases that
	// matched verbatim.
	ExplicitPatterns []string `json:"explicit_patterns,omitempty"`

	// FeatureScores is the per-feature authenticity breakdown.
	FeatureScores FeatureVector `json:"feature_scores"`
}

// ContentValidation is the relevance portion of the Verdict, independent of
// the plagiarism question.
type ContentValidation struct {
	// Status is PASSED when the relevance score clears the configured
	// floor, FAILED otherwise.
	Status Status `json:"status"`

	// RelevanceScore is the topical-alignment score in [0,100].
	RelevanceScore float64 `json:"relevance_score"`

	// Comments describes the alignment or mismatch in plain language.
	Comments string `json:"comments,omitempty"`
}

// Verdict is the final outcome of a validation run: the pass/fail decision
// plus the complete evidence trail. It is owned by the aggregator, created
// once, and never mutated after emission.
type Verdict struct {
	// ID uniquely identifies this verdict (a UUID).
	ID string `json:"id"`

	// Subject echoes the submission's subject claim.
	Subject string `json:"subject"`

	// AssignmentID echoes the submission identifier.
	AssignmentID string `json:"assignment_id"`

	// Timestamp records when the verdict was composed.
	Timestamp time.Time `json:"timestamp"`

	// Status is the terminal pass/fail decision.
	Status Status `json:"status"`

	// CompositeScore is the aggregate plagiarism percentage, duplicated at
	// the top level for consumers that only need the headline figure.
	CompositeScore float64 `json:"composite_score"`

	// PlagiarismCheck is the full similarity/authenticity breakdown.
	PlagiarismCheck PlagiarismCheck `json:"plagiarism_check"`

	// ContentValidation is the relevance breakdown.
	ContentValidation ContentValidation `json:"content_validation"`

	// Signals is the raw per-signal record, including soft-fail flags, so
	// downstream consumers can weigh confidence.
	Signals []SignalScore `json:"signals"`

	// UnavailableSignals names every signal that was substituted with a
	// neutral value instead of being measured.
	UnavailableSignals []string `json:"unavailable_signals,omitempty"`

	// FailureReason is the single most severe triggered condition, empty
	// when the submission passed.
	FailureReason string `json:"failure_reason,omitempty"`

	// AllFailureReasons lists every triggered condition, most severe
	// first. Subject mismatch and plagiarism rank above stylistic flags.
	AllFailureReasons []string `json:"all_failure_reasons,omitempty"`
}

// Failed reports whether any failure condition fired.
func (v *Verdict) Failed() bool { return v.Status == StatusFailed }
