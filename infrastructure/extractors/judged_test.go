package extractors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarseal/veritas/internal/domain"
)

// stubLLM is a canned ports.LLMClient for extractor tests.
type stubLLM struct {
	response  string
	err       error
	available bool
	prompts   []string
}

func (s *stubLLM) Complete(_ context.Context, prompt string, _ map[string]any) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubLLM) Available(context.Context) bool { return s.available }

func (s *stubLLM) GetModel() string { return "stub-model" }

func TestJudgedExtractor_WellFormedResponse(t *testing.T) {
	client := &stubLLM{available: true, response: `{"similarity": 72, "formulaic": true}`}
	je, err := NewJudgedExtractor(client, DefaultJudgedConfig())
	require.NoError(t, err)

	score, err := je.Extract(context.Background(),
		mustSubmission(t, "history", "The empire fell."), corpusOf("reference text about the empire"))
	require.NoError(t, err)

	assert.Equal(t, domain.SignalJudged, score.Name)
	assert.Equal(t, 72.0, score.Value)
	assert.True(t, score.Evidence.Formulaic)
	assert.False(t, score.Unavailable)
}

func TestJudgedExtractor_LeniencyTowardSloppyJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
	}{
		{
			name:     "prose around the payload",
			response: "Sure! Here is my assessment: {\"similarity\": 55, \"formulaic\": false} Hope this helps.",
			want:     55,
		},
		{
			name:     "single quotes and trailing comma",
			response: "{'similarity': 41, 'formulaic': false,}",
			want:     41,
		},
		{
			name:     "unquoted keys",
			response: "{similarity: 63, formulaic: true}",
			want:     63,
		},
		{
			name:     "bare number fallback",
			response: "I would rate the similarity at about 48% overall.",
			want:     48,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubLLM{available: true, response: tt.response}
			je, err := NewJudgedExtractor(client, DefaultJudgedConfig())
			require.NoError(t, err)

			score, err := je.Extract(context.Background(),
				mustSubmission(t, "history", "The empire fell."), corpusOf("reference"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, score.Value)
			assert.False(t, score.Unavailable)
		})
	}
}

func TestJudgedExtractor_SoftFailures(t *testing.T) {
	tests := []struct {
		name   string
		client *stubLLM
	}{
		{name: "backend unavailable", client: &stubLLM{available: false}},
		{name: "request error", client: &stubLLM{available: true, err: errors.New("boom")}},
		{name: "no number in response", client: &stubLLM{available: true, response: "I cannot rate this."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			je, err := NewJudgedExtractor(tt.client, DefaultJudgedConfig())
			require.NoError(t, err)

			score, err := je.Extract(context.Background(),
				mustSubmission(t, "history", "The empire fell."), corpusOf("reference"))
			require.NoError(t, err)

			assert.True(t, score.Unavailable)
			assert.Equal(t, domain.FlagJudgedUnavailable, score.Flag)
			assert.Equal(t, DefaultJudgedConfig().NeutralScore, score.Value)
		})
	}
}

func TestJudgedExtractor_PromptContainsBothTexts(t *testing.T) {
	client := &stubLLM{available: true, response: `{"similarity": 10, "formulaic": false}`}
	je, err := NewJudgedExtractor(client, DefaultJudgedConfig())
	require.NoError(t, err)

	_, err = je.Extract(context.Background(),
		mustSubmission(t, "history", "unique submission marker"),
		corpusOf("unique reference marker"))
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "unique submission marker")
	assert.Contains(t, client.prompts[0], "unique reference marker")
}

func TestJudgedExtractor_NilClient(t *testing.T) {
	_, err := NewJudgedExtractor(nil, DefaultJudgedConfig())
	assert.ErrorIs(t, err, ErrNilDependency)
}
