package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/scholarseal/veritas/internal/ports"
)

// recordingCore is a canned CoreLLM for middleware tests.
type recordingCore struct {
	response string
	err      error
	delay    time.Duration
	calls    int
}

func (r *recordingCore) DoRequest(ctx context.Context, _ string, _ map[string]any) (string, error) {
	r.calls++
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.response, r.err
}

func (r *recordingCore) Ping(context.Context) bool { return true }

func (r *recordingCore) GetModel() string { return "test-model" }

func TestClient_Complete(t *testing.T) {
	core := &recordingCore{response: "answer"}
	client := NewClientWithCore(core)

	got, err := client.Complete(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "answer", got)
	assert.Equal(t, "test-model", client.GetModel())
	assert.True(t, client.Available(context.Background()))
}

func TestClient_WrapsErrors(t *testing.T) {
	core := &recordingCore{err: ErrEmptyResponse}
	client := NewClientWithCore(core)

	_, err := client.Complete(context.Background(), "prompt", nil)
	require.Error(t, err)

	var llmErr *ports.LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "test-model", llmErr.Model)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestDisabledBackend(t *testing.T) {
	client, err := NewClient(ClientConfig{Backend: BackendDisabled})
	require.NoError(t, err)

	assert.False(t, client.Available(context.Background()))
	_, err = client.Complete(context.Background(), "prompt", nil)
	assert.ErrorIs(t, err, ErrBackendDisabled)
}

func TestNewClient_EmptyBackendIsDisabled(t *testing.T) {
	client, err := NewClient(ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, "disabled", client.GetModel())
}

func TestNewClient_UnknownBackend(t *testing.T) {
	_, err := NewClient(ClientConfig{Backend: "mainframe"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestTimeoutMiddleware(t *testing.T) {
	core := &recordingCore{response: "slow answer", delay: 200 * time.Millisecond}
	client := NewClientWithCore(core, TimeoutMiddleware(20*time.Millisecond))

	_, err := client.Complete(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimitMiddleware(t *testing.T) {
	core := &recordingCore{response: "ok"}
	// One request per second with burst 1: the second call must block
	// until its context gives up.
	client := NewClientWithCore(core, RateLimitMiddleware(rate.Limit(1), 1))

	_, err := client.Complete(context.Background(), "first", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Complete(ctx, "second", nil)
	assert.Error(t, err)
	assert.Equal(t, 1, core.calls)
}

func TestOllamaBackend_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			var req ollamaRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "phi", req.Model)
			assert.False(t, req.Stream)
			_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "model says hi"})
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{
		Backend: BackendOllama,
		BaseURL: server.URL,
		Model:   "phi",
	})
	require.NoError(t, err)

	assert.True(t, client.Available(context.Background()))
	got, err := client.Complete(context.Background(), "hello", map[string]any{"temperature": 0.0})
	require.NoError(t, err)
	assert.Equal(t, "model says hi", got)
}

func TestOllamaBackend_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "model not loaded"})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{Backend: BackendOllama, BaseURL: server.URL, Model: "phi"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}
