package llm

import (
	"fmt"
	"net/http"
	"time"
)

// Backend identifiers accepted by NewClient.
const (
	// BackendOllama targets an Ollama-compatible local server.
	BackendOllama = "ollama"

	// BackendOpenAI targets an OpenAI-compatible local server such as
	// llama.cpp's HTTP frontend or vLLM.
	BackendOpenAI = "openai"

	// BackendDisabled selects the neutral no-op backend. The judged
	// signal soft-fails when this backend is active.
	BackendDisabled = "disabled"
)

// ClientConfig holds the configuration for constructing a Client.
type ClientConfig struct {
	// Backend selects the inference runtime (ollama, openai, disabled).
	Backend string

	// BaseURL is the local server endpoint. Only loopback endpoints are
	// expected; the sandbox's network guard rejects anything else during
	// the isolated phase.
	BaseURL string

	// Model is the model identifier to request.
	Model string

	// APIKey is the bearer token for OpenAI-compatible servers that
	// require one. Local servers usually accept any value.
	APIKey string

	// Timeout bounds each HTTP request at the transport level. The
	// judged extractor applies its own wall-clock deadline on top.
	Timeout time.Duration

	// HTTPClient overrides the transport. The sandbox injects its
	// guarded client here so every dial is monitored.
	HTTPClient *http.Client

	// Middleware is the chain applied around the backend, outermost
	// first.
	Middleware []Middleware
}

// newBackend constructs the raw CoreLLM for the configured backend.
func newBackend(config ClientConfig) (CoreLLM, error) {
	switch config.Backend {
	case BackendOllama:
		return newOllamaBackend(config)
	case BackendOpenAI:
		return newOpenAIBackend(config)
	case BackendDisabled, "":
		return NewDisabledBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, config.Backend)
	}
}
