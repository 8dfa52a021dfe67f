package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedAggregator(policy DecisionPolicy) *DecisionAggregator {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewDecisionAggregator(policy,
		WithClock(func() time.Time { return ts }),
		WithIDSource(func() string { return "verdict-1" }),
	)
}

func testSubmission(t *testing.T) *Submission {
	t.Helper()
	sub, err := NewSubmission("assignment-1", "history", "The Roman empire fell in the fifth century.")
	require.NoError(t, err)
	return sub
}

func score(name string, value float64) SignalScore {
	return SignalScore{Name: name, Value: value}
}

func baselineSignals() []SignalScore {
	return []SignalScore{
		score(SignalStatistical, 10),
		score(SignalNGram, 5),
		score(SignalSemantic, 12),
		{Name: SignalAuthenticity, Value: 20, Evidence: Evidence{Features: &FeatureVector{
			ParagraphConsistency: 50,
			SentenceVariety:      60,
			LexicalDiversity:     70,
			RepetitivePatterns:   10,
			StructuralPatterns:   5,
		}}},
		score(SignalRelevance, 80),
	}
}

func TestAggregate_Passes(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())

	verdict, err := agg.Aggregate(testSubmission(t), baselineSignals())
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, verdict.Status)
	assert.Empty(t, verdict.FailureReason)
	assert.Empty(t, verdict.AllFailureReasons)
	assert.False(t, verdict.PlagiarismCheck.PlagiarismDetected)
	assert.Equal(t, StatusPassed, verdict.ContentValidation.Status)
	assert.Equal(t, "verdict-1", verdict.ID)
	assert.Equal(t, "assignment-1", verdict.AssignmentID)
}

func TestAggregate_Deterministic(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())
	sub := testSubmission(t)

	first, err := agg.Aggregate(sub, baselineSignals())
	require.NoError(t, err)
	second, err := agg.Aggregate(sub, baselineSignals())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregate_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		wantStatus Status
	}{
		{name: "exactly at threshold passes", value: 40, wantStatus: StatusPassed},
		{name: "just above threshold fails", value: 40.01, wantStatus: StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := fixedAggregator(StandardPolicy())
			signals := baselineSignals()
			signals[0].Value = tt.value

			verdict, err := agg.Aggregate(testSubmission(t), signals)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, verdict.Status)
			assert.Equal(t, tt.wantStatus == StatusFailed, verdict.PlagiarismCheck.PlagiarismDetected)
		})
	}
}

func TestAggregate_StrictModeTightensThresholds(t *testing.T) {
	signals := baselineSignals()
	signals[0].Value = 37 // between strict (35) and standard (40)

	standard, err := fixedAggregator(StandardPolicy()).Aggregate(testSubmission(t), signals)
	require.NoError(t, err)
	strict, err := fixedAggregator(StrictPolicy()).Aggregate(testSubmission(t), signals)
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, standard.Status)
	assert.Equal(t, StatusFailed, strict.Status)
}

func TestAggregate_EmojiAloneFails(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())
	signals := baselineSignals()
	signals[3].Evidence.Emojis = []string{"\U0001F600"}
	signals[3].Evidence.EmojiCount = 1

	verdict, err := agg.Aggregate(testSubmission(t), signals)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, verdict.Status)
	assert.True(t, verdict.PlagiarismCheck.EmojiDetected)
	assert.Equal(t, 1, verdict.PlagiarismCheck.EmojiCount)
	assert.Contains(t, verdict.FailureReason, "emoji")
}

func TestAggregate_ExplicitPatternsFail(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())
	signals := baselineSignals()
	signals[3].Evidence.MatchedPhrases = []string{"as an ai"}

	verdict, err := agg.Aggregate(testSubmission(t), signals)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, verdict.Status)
	assert.True(t, verdict.PlagiarismCheck.AIPatternsDetected)
	assert.Contains(t, verdict.FailureReason, "patterns")
}

func TestAggregate_UnavailableSignalNeverFires(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())
	signals := baselineSignals()
	signals[2] = SignalScore{
		Name:        SignalSemantic,
		Value:       90,
		Unavailable: true,
		Flag:        FlagSemanticUnavailable,
	}

	verdict, err := agg.Aggregate(testSubmission(t), signals)
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, verdict.Status)
	assert.Contains(t, verdict.UnavailableSignals, FlagSemanticUnavailable)
	assert.Zero(t, verdict.PlagiarismCheck.SemanticSimilarity)
}

func TestAggregate_JudgedUnavailableExcluded(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())
	signals := append(baselineSignals(), SignalScore{
		Name:        SignalJudged,
		Value:       50,
		Unavailable: true,
		Flag:        FlagJudgedUnavailable,
	})

	verdict, err := agg.Aggregate(testSubmission(t), signals)
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, verdict.Status)
	assert.Contains(t, verdict.UnavailableSignals, FlagJudgedUnavailable)
}

func TestAggregate_JudgedFiresWhenAvailable(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())
	signals := append(baselineSignals(), score(SignalJudged, 36))

	verdict, err := agg.Aggregate(testSubmission(t), signals)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, verdict.Status)
	assert.True(t, verdict.PlagiarismCheck.PlagiarismDetected)
	assert.Contains(t, verdict.FailureReason, "model-judged")
}

func TestAggregate_SubjectMismatch(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())
	signals := baselineSignals()
	signals[4] = SignalScore{
		Name:  SignalRelevance,
		Value: 20,
		Evidence: Evidence{
			Comment:           "content appears to be about \"physics\"",
			MismatchedSubject: "physics",
		},
	}

	verdict, err := agg.Aggregate(testSubmission(t), signals)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, verdict.Status)
	assert.True(t, verdict.PlagiarismCheck.SubjectMismatch)
	assert.Equal(t, StatusFailed, verdict.ContentValidation.Status)
	assert.Contains(t, verdict.FailureReason, "physics")
	// Mismatch alone does not imply plagiarism.
	assert.False(t, verdict.PlagiarismCheck.PlagiarismDetected)
}

func TestAggregate_RelevanceFloorBoundary(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())
	signals := baselineSignals()
	signals[4].Value = 35 // exactly at the floor is not a mismatch

	verdict, err := agg.Aggregate(testSubmission(t), signals)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, verdict.Status)
	assert.False(t, verdict.PlagiarismCheck.SubjectMismatch)
}

func TestAggregate_ReasonOrdering(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())
	signals := baselineSignals()
	signals[0].Value = 80 // statistical plagiarism
	signals[3].Value = 75 // stylistic ceiling
	signals[3].Evidence.Emojis = []string{"\U0001F680"}
	signals[3].Evidence.EmojiCount = 1
	signals[4].Value = 10 // subject mismatch

	verdict, err := agg.Aggregate(testSubmission(t), signals)
	require.NoError(t, err)

	require.Len(t, verdict.AllFailureReasons, 4)
	assert.Contains(t, verdict.AllFailureReasons[0], "relevant")
	assert.Contains(t, verdict.AllFailureReasons[1], "statistical similarity")
	assert.Contains(t, verdict.AllFailureReasons[2], "AI-generated content detected")
	assert.Contains(t, verdict.AllFailureReasons[3], "emoji")
	assert.Equal(t, verdict.AllFailureReasons[0], verdict.FailureReason)
}

func TestAggregate_CompositeScore(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())

	verdict, err := agg.Aggregate(testSubmission(t), baselineSignals())
	require.NoError(t, err)

	// 10*.20 + 12*.15 + 5*.10 + 50*.15 + (100-60)*.15 + (100-70)*.15 +
	// 10*.05 + 5*.05
	assert.InDelta(t, 23.05, verdict.CompositeScore, 0.001)
	assert.Equal(t, verdict.CompositeScore, verdict.PlagiarismCheck.PlagiarismPercentage)
}

func TestAggregate_CompositeSkipsFeaturesWhenAuthenticityUnavailable(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())
	signals := baselineSignals()
	signals[3] = SignalScore{Name: SignalAuthenticity, Unavailable: true, Flag: "ai_confidence_unavailable"}

	verdict, err := agg.Aggregate(testSubmission(t), signals)
	require.NoError(t, err)

	// Only the similarity terms remain: 10*.20 + 12*.15 + 5*.10.
	assert.InDelta(t, 4.3, verdict.CompositeScore, 0.001)
}

func TestAggregate_InputErrors(t *testing.T) {
	agg := fixedAggregator(StandardPolicy())

	_, err := agg.Aggregate(nil, baselineSignals())
	assert.ErrorIs(t, err, ErrEmptySubmission)

	_, err = agg.Aggregate(testSubmission(t), nil)
	assert.ErrorIs(t, err, ErrNoSignals)
}
