package extractors

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthenticity(t *testing.T) *AuthenticityExtractor {
	t.Helper()
	ae, err := NewAuthenticityExtractor(DefaultAuthenticityConfig())
	require.NoError(t, err)
	return ae
}

func TestAuthenticityExtractor_HumanProse(t *testing.T) {
	ae := newAuthenticity(t)

	text := `I still remember the afternoon my grandfather showed me his war letters.
They were brittle, and some had coffee stains. Reading them changed how I think about history.

Historians argue about causes. My grandfather just talked about mud, hunger, and the friend he lost near the river. That gap between the archive and the memory is what this essay is really about, and it refuses to close neatly.`

	score, err := ae.Extract(context.Background(), mustSubmission(t, "history", text), nil)
	require.NoError(t, err)

	assert.Empty(t, score.Evidence.MatchedPhrases)
	assert.Zero(t, score.Evidence.EmojiCount)
	assert.False(t, score.Unavailable)
	require.NotNil(t, score.Evidence.Features)
}

func TestAuthenticityExtractor_ExplicitPatterns(t *testing.T) {
	ae := newAuthenticity(t)

	text := "As an AI language model, I cannot share personal opinions about the Roman empire. " +
		"However, my training data includes extensive material on its decline and eventual fall."

	score, err := ae.Extract(context.Background(), mustSubmission(t, "history", text), nil)
	require.NoError(t, err)

	assert.Contains(t, score.Evidence.MatchedPhrases, "as an ai")
	assert.Contains(t, score.Evidence.MatchedPhrases, "my training data")
}

func TestAuthenticityExtractor_Emojis(t *testing.T) {
	ae := newAuthenticity(t)

	text := "The empire fell \U0001F600 and everyone was sad \U0001F622 about it \U0001F680."
	score, err := ae.Extract(context.Background(), mustSubmission(t, "history", text), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, score.Evidence.EmojiCount)
	assert.Len(t, score.Evidence.Emojis, 3)
}

func TestAuthenticityExtractor_CheckmarkIsNotEmoji(t *testing.T) {
	ae := newAuthenticity(t)

	score, err := ae.Extract(context.Background(),
		mustSubmission(t, "history", "Done: ✓ reviewed the sources, ✔ cited them."), nil)
	require.NoError(t, err)
	assert.Zero(t, score.Evidence.EmojiCount)
}

func TestAuthenticityExtractor_EmojiEvidenceCapped(t *testing.T) {
	cfg := DefaultAuthenticityConfig()
	cfg.MaxEmojiEvidence = 2
	ae, err := NewAuthenticityExtractor(cfg)
	require.NoError(t, err)

	score, err := ae.Extract(context.Background(),
		mustSubmission(t, "history", "\U0001F600 \U0001F601 \U0001F602 \U0001F603"), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, score.Evidence.EmojiCount)
	assert.Len(t, score.Evidence.Emojis, 2)
}

func TestAuthenticityExtractor_FormulaicStructure(t *testing.T) {
	ae := newAuthenticity(t)

	text := `INTRODUCTION TO THE TOPIC

Firstly, it is important to note the following points:
- The first point is significant.
- The second point is significant.
- The third point is significant.

Furthermore, the evidence suggests a clear pattern. Moreover, the pattern repeats. In conclusion, the topic is significant.`

	score, err := ae.Extract(context.Background(), mustSubmission(t, "history", text), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, score.Evidence.StructuralMatches)
	assert.Contains(t, score.Evidence.StructuralMatches, "in conclusion")
	require.NotNil(t, score.Evidence.Features)
	assert.Greater(t, score.Evidence.Features.StructuralPatterns, 50.0)
	// Scaffolding feeds evidence, never the explicit hard-fail list.
	assert.Empty(t, score.Evidence.MatchedPhrases)
}

func TestAuthenticityExtractor_RepeatedPhrases(t *testing.T) {
	ae := newAuthenticity(t)

	phrase := "the quick brown fox jumps over the lazy dog"
	text := strings.Repeat(phrase+". ", 6)

	score, err := ae.Extract(context.Background(), mustSubmission(t, "history", text), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, score.Evidence.RepeatedPhrases)
	require.NotNil(t, score.Evidence.Features)
	assert.Greater(t, score.Evidence.Features.RepetitivePatterns, 0.0)
}

func TestAuthenticityExtractor_ShortTextNeutralFeatures(t *testing.T) {
	ae := newAuthenticity(t)

	score, err := ae.Extract(context.Background(),
		mustSubmission(t, "history", "Rome fell."), nil)
	require.NoError(t, err)

	features := score.Evidence.Features
	require.NotNil(t, features)
	assert.Equal(t, 50.0, features.ParagraphConsistency)
	assert.Equal(t, 50.0, features.SentenceVariety)
	assert.Equal(t, 50.0, features.LexicalDiversity)
}
