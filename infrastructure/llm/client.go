// Package llm provides the locally hosted model backend for the
// judged-similarity capability, with built-in support for request timeouts
// and rate limiting.
//
// The package abstracts local inference runtimes (Ollama-compatible and
// OpenAI-compatible servers) behind a common interface while adding
// cross-cutting concerns through a middleware pattern. A disabled backend
// is provided so the engine degrades to neutral judged scores when no model
// is configured; selection between backends is a configuration concern.
//
// Basic usage:
//
//	client, err := llm.NewClient(llm.ClientConfig{
//	    Backend: "ollama",
//	    BaseURL: "http://localhost:11434",
//	    Model:   "phi",
//	    Middleware: []llm.Middleware{
//	        llm.TimeoutMiddleware(20 * time.Second),
//	    },
//	})
package llm

import (
	"context"
	"fmt"

	"github.com/scholarseal/veritas/internal/ports"
)

// CoreLLM defines the minimal interface that model backends must
// implement. It abstracts the raw completion call so the middleware chain
// can wrap any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt to the model and returns the response text.
	// The opts parameter allows backend-specific configuration such as
	// temperature or max tokens.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error)

	// Ping reports whether the backend can currently serve requests.
	Ping(ctx context.Context) bool

	// GetModel returns the currently configured model name.
	GetModel() string
}

// Middleware wraps a CoreLLM with additional behavior, composing in
// onion order: the first middleware in a chain is the outermost.
type Middleware func(CoreLLM) CoreLLM

// Client adapts a middleware-wrapped CoreLLM to the ports.LLMClient
// interface consumed by the extractors.
type Client struct {
	core CoreLLM
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient creates a Client for the configured backend with the
// configured middleware chain applied.
func NewClient(config ClientConfig) (*Client, error) {
	core, err := newBackend(config)
	if err != nil {
		return nil, fmt.Errorf("creating %s backend: %w", config.Backend, err)
	}
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}
	return &Client{core: core}, nil
}

// NewClientWithCore creates a Client around an existing CoreLLM. It is
// used by tests and by callers that construct backends directly.
func NewClientWithCore(core CoreLLM, middleware ...Middleware) *Client {
	for i := len(middleware) - 1; i >= 0; i-- {
		core = middleware[i](core)
	}
	return &Client{core: core}
}

// Complete sends a completion request through the middleware chain.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, err := c.core.DoRequest(ctx, prompt, options)
	if err != nil {
		return "", ports.NewLLMError(c.core.GetModel(), "complete", err)
	}
	return response, nil
}

// Available reports whether the backing model can currently serve requests.
func (c *Client) Available(ctx context.Context) bool { return c.core.Ping(ctx) }

// GetModel returns the model identifier being used by this client.
func (c *Client) GetModel() string { return c.core.GetModel() }
