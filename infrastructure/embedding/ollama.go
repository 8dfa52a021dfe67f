// Package embedding provides ports.Embedder implementations backed by
// locally hosted embedding models.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scholarseal/veritas/internal/ports"
)

var _ ports.Embedder = (*OllamaEmbedder)(nil)

// Ollama embedding API errors.
var (
	// ErrEmptyInput indicates Embed was called with no texts.
	ErrEmptyInput = errors.New("no texts to embed")

	// ErrVectorCountMismatch indicates the backend returned a different
	// number of vectors than texts submitted.
	ErrVectorCountMismatch = errors.New("embedding count does not match input count")
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultEmbedTimeout  = 30 * time.Second
)

// OllamaConfig defines the connection parameters for an Ollama embedding
// backend.
type OllamaConfig struct {
	// BaseURL is the Ollama server address. Defaults to localhost.
	BaseURL string

	// Model names the embedding model, e.g. "nomic-embed-text".
	Model string

	// Timeout bounds a single embedding request.
	Timeout time.Duration

	// HTTPClient optionally overrides the transport. Callers that need
	// network confinement inject a guarded client here.
	HTTPClient *http.Client
}

// OllamaEmbedder computes embedding vectors via the Ollama /api/embed
// endpoint. It batches all texts into a single request.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaEmbedder creates an embedder for the given configuration.
func NewOllamaEmbedder(config OllamaConfig) (*OllamaEmbedder, error) {
	if config.Model == "" {
		return nil, errors.New("embedding model name is required")
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	client := config.HTTPClient
	if client == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = defaultEmbedTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OllamaEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   config.Model,
		client:  client,
	}, nil
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Embed returns one vector per input text, in input order.
func (oe *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: oe.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oe.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := oe.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("embedding backend error: %s", parsed.Error)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVectorCountMismatch, len(parsed.Embeddings), len(texts))
	}
	return parsed.Embeddings, nil
}

// Available probes the backend with a short deadline.
func (oe *OllamaEmbedder) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oe.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := oe.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
