package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DecisionPolicy holds the fixed thresholds the aggregator applies. Each
// threshold is independently sufficient to fail the submission; all
// triggered conditions are reported, not just the first. Strict ">" (and
// strict "<" for the relevance floor) semantics apply throughout: a value
// exactly at the threshold does not fire.
type DecisionPolicy struct {
	// StatisticalThreshold fails the submission when the TF-cosine
	// similarity exceeds it.
	StatisticalThreshold float64

	// SemanticThreshold fails the submission when the embedding
	// similarity exceeds it.
	SemanticThreshold float64

	// JudgedThreshold fails the submission when the model-rated
	// similarity exceeds it, unless the judged signal was unavailable.
	JudgedThreshold float64

	// AIConfidenceCeiling fails the submission when the reduced stylistic
	// score exceeds it.
	AIConfidenceCeiling float64

	// RelevanceFloor marks a subject mismatch when the relevance score
	// falls below it.
	RelevanceFloor float64
}

// StandardPolicy returns the default detection thresholds.
func StandardPolicy() DecisionPolicy {
	return DecisionPolicy{
		StatisticalThreshold: 40,
		SemanticThreshold:    40,
		JudgedThreshold:      35,
		AIConfidenceCeiling:  60,
		RelevanceFloor:       35,
	}
}

// StrictPolicy returns the tightened thresholds used in strict detection
// mode: plagiarism at 35 and the stylistic ceiling at 30.
func StrictPolicy() DecisionPolicy {
	return DecisionPolicy{
		StatisticalThreshold: 35,
		SemanticThreshold:    35,
		JudgedThreshold:      35,
		AIConfidenceCeiling:  30,
		RelevanceFloor:       35,
	}
}

// CompositeWeights documents the fixed blend producing the headline
// plagiarism percentage. The weights favor direct similarity over the
// stylistic features and sum to 1.
var CompositeWeights = struct {
	Statistical, Semantic, NGram                                                                 float64
	ParagraphConsistency, SentenceVariety, LexicalDiversity, RepetitivePatterns, StructuralPatterns float64
}{
	Statistical:          0.20,
	Semantic:             0.15,
	NGram:                0.10,
	ParagraphConsistency: 0.15,
	SentenceVariety:      0.15,
	LexicalDiversity:     0.15,
	RepetitivePatterns:   0.05,
	StructuralPatterns:   0.05,
}

// DecisionAggregator composes the extractors' SignalScores into a Verdict
// under the configured policy. Aggregation is pure and idempotent:
// identical inputs always yield an identical Verdict (identity and clock
// are injectable so tests can pin them).
type DecisionAggregator struct {
	policy DecisionPolicy

	// now and newID supply the verdict timestamp and identity. They default
	// to time.Now and uuid.NewString and are overridable for deterministic
	// tests.
	now   func() time.Time
	newID func() string
}

// AggregatorOption customizes a DecisionAggregator.
type AggregatorOption func(*DecisionAggregator)

// WithClock overrides the verdict timestamp source.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *DecisionAggregator) { a.now = now }
}

// WithIDSource overrides the verdict identity source.
func WithIDSource(newID func() string) AggregatorOption {
	return func(a *DecisionAggregator) { a.newID = newID }
}

// NewDecisionAggregator creates an aggregator applying the given policy.
// The policy is an explicit constructor argument rather than process-wide
// state so the pipeline stays pure and testable.
func NewDecisionAggregator(policy DecisionPolicy, opts ...AggregatorOption) *DecisionAggregator {
	a := &DecisionAggregator{
		policy: policy,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy returns the thresholds this aggregator applies.
func (a *DecisionAggregator) Policy() DecisionPolicy { return a.policy }

// Aggregate composes the signal scores for one submission into a terminal
// Verdict. It collects every triggered failure condition, orders the
// reasons most severe first (subject mismatch, then plagiarism, then
// stylistic flags), and surfaces the top reason separately.
// Unavailable signals never fire thresholds; they are recorded on the
// Verdict instead.
func (a *DecisionAggregator) Aggregate(sub *Submission, signals []SignalScore) (*Verdict, error) {
	if sub == nil {
		return nil, ErrEmptySubmission
	}
	if len(signals) == 0 {
		return nil, ErrNoSignals
	}

	statistical := findSignal(signals, SignalStatistical)
	ngram := findSignal(signals, SignalNGram)
	semantic := findSignal(signals, SignalSemantic)
	authenticity := findSignal(signals, SignalAuthenticity)
	judged := findSignal(signals, SignalJudged)
	relevance := findSignal(signals, SignalRelevance)

	var features FeatureVector
	var explicitPatterns []string
	var emojis []string
	var emojiCount int
	if authenticity != nil {
		if authenticity.Evidence.Features != nil {
			features = *authenticity.Evidence.Features
		}
		explicitPatterns = authenticity.Evidence.MatchedPhrases
		emojis = authenticity.Evidence.Emojis
		emojiCount = authenticity.Evidence.EmojiCount
	}
	emojiDetected := emojiCount > 0

	composite := a.compositeScore(signals, features, authenticity != nil && !authenticity.Unavailable)

	var unavailable []string
	for _, sig := range signals {
		if sig.Unavailable {
			unavailable = append(unavailable, sig.Flag)
		}
	}

	// Relevance: the floor marks a subject mismatch independent of the
	// plagiarism question.
	subjectMismatch := false
	relevanceScore := 0.0
	relevanceComment := ""
	mismatchedSubject := ""
	if relevance != nil && !relevance.Unavailable {
		relevanceScore = relevance.Value
		relevanceComment = relevance.Evidence.Comment
		mismatchedSubject = relevance.Evidence.MismatchedSubject
		subjectMismatch = relevanceScore < a.policy.RelevanceFloor
	}

	var reasons []string

	if subjectMismatch {
		if mismatchedSubject != "" {
			reasons = append(reasons, fmt.Sprintf(
				"Subject-content mismatch: document claims to be about %q but reads as %q (relevance score: %.0f%%)",
				sub.Subject, mismatchedSubject, relevanceScore))
		} else {
			reasons = append(reasons, fmt.Sprintf(
				"Content not sufficiently relevant to %q (relevance score: %.0f%%)",
				sub.Subject, relevanceScore))
		}
	}

	plagiarismDetected := false
	if fired(statistical, a.policy.StatisticalThreshold) {
		plagiarismDetected = true
		reasons = append(reasons, fmt.Sprintf(
			"High plagiarism detected: statistical similarity %.1f%% exceeds %.0f%% threshold",
			statistical.Value, a.policy.StatisticalThreshold))
	}
	if fired(semantic, a.policy.SemanticThreshold) {
		plagiarismDetected = true
		reasons = append(reasons, fmt.Sprintf(
			"High plagiarism detected: semantic similarity %.1f%% exceeds %.0f%% threshold",
			semantic.Value, a.policy.SemanticThreshold))
	}
	if fired(judged, a.policy.JudgedThreshold) {
		plagiarismDetected = true
		reasons = append(reasons, fmt.Sprintf(
			"High plagiarism detected: model-judged similarity %.1f%% exceeds %.0f%% threshold",
			judged.Value, a.policy.JudgedThreshold))
	}

	aiConfidence := 0.0
	if authenticity != nil {
		aiConfidence = authenticity.Value
	}
	if fired(authenticity, a.policy.AIConfidenceCeiling) {
		reasons = append(reasons, fmt.Sprintf(
			"High confidence AI-generated content detected (%.1f%%)", aiConfidence))
	}
	if len(explicitPatterns) > 0 {
		reasons = append(reasons, fmt.Sprintf(
			"AI-generated content patterns detected: %v", explicitPatterns))
	}
	if emojiDetected {
		reasons = append(reasons, fmt.Sprintf(
			"Inappropriate emoji usage detected (%d emojis) - suggests AI-generated content", emojiCount))
	}

	status := StatusPassed
	primaryReason := ""
	if len(reasons) > 0 {
		status = StatusFailed
		primaryReason = reasons[0]
	}

	validationStatus := StatusPassed
	if subjectMismatch {
		validationStatus = StatusFailed
	}

	verdict := &Verdict{
		ID:             a.newID(),
		Subject:        sub.Subject,
		AssignmentID:   sub.ID,
		Timestamp:      a.now(),
		Status:         status,
		CompositeScore: composite,
		PlagiarismCheck: PlagiarismCheck{
			PlagiarismDetected:    plagiarismDetected,
			PlagiarismPercentage:  composite,
			StatisticalSimilarity: valueOf(statistical),
			SemanticSimilarity:    valueOf(semantic),
			NGramSimilarity:       valueOf(ngram),
			AIPatternsDetected:    len(explicitPatterns) > 0,
			AIConfidence:          aiConfidence,
			AIPatterns: AIPatterns{
				ExplicitPatterns: explicitPatterns,
				FeatureScores:    features,
			},
			EmojiDetected:   emojiDetected,
			EmojiCount:      emojiCount,
			EmojiList:       emojis,
			SubjectMismatch: subjectMismatch,
		},
		ContentValidation: ContentValidation{
			Status:         validationStatus,
			RelevanceScore: relevanceScore,
			Comments:       relevanceComment,
		},
		Signals:            signals,
		UnavailableSignals: unavailable,
		FailureReason:      primaryReason,
		AllFailureReasons:  reasons,
	}

	return verdict, nil
}

// compositeScore blends the similarity signals and the stylistic features
// into the headline plagiarism percentage using CompositeWeights. The
// variety and diversity features read "lower is more machine-like" and are
// inverted before weighting.
func (a *DecisionAggregator) compositeScore(signals []SignalScore, features FeatureVector, hasFeatures bool) float64 {
	w := CompositeWeights
	score := valueOf(findSignal(signals, SignalStatistical))*w.Statistical +
		valueOf(findSignal(signals, SignalSemantic))*w.Semantic +
		valueOf(findSignal(signals, SignalNGram))*w.NGram
	if hasFeatures {
		score += features.ParagraphConsistency*w.ParagraphConsistency +
			(100-features.SentenceVariety)*w.SentenceVariety +
			(100-features.LexicalDiversity)*w.LexicalDiversity +
			features.RepetitivePatterns*w.RepetitivePatterns +
			features.StructuralPatterns*w.StructuralPatterns
	}
	return clampScore(score)
}

// fired reports whether an available signal strictly exceeds its threshold.
func fired(sig *SignalScore, threshold float64) bool {
	return sig != nil && !sig.Unavailable && sig.Value > threshold
}

func valueOf(sig *SignalScore) float64 {
	if sig == nil || sig.Unavailable {
		return 0
	}
	return sig.Value
}

func findSignal(signals []SignalScore, name string) *SignalScore {
	for i := range signals {
		if signals[i].Name == name {
			return &signals[i]
		}
	}
	return nil
}

// clampScore bounds a score to [0,100].
func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
