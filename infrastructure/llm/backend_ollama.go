package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ollamaBackend implements the CoreLLM interface for Ollama-compatible
// local servers using the /api/generate endpoint.
type ollamaBackend struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// newOllamaBackend creates an Ollama backend from the client configuration.
func newOllamaBackend(config ClientConfig) (CoreLLM, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		return nil, fmt.Errorf("ollama backend requires a model name")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			// Local models can be slow on first load.
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &ollamaBackend{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      config.Model,
		httpClient: httpClient,
	}, nil
}

// DoRequest sends a non-streaming generate request and returns the
// response text.
func (b *ollamaBackend) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	reqBody := ollamaRequest{
		Model:  b.model,
		Prompt: prompt,
		Stream: false,
	}
	if temp, ok := opts["temperature"].(float64); ok {
		reqBody.Options.Temperature = temp
	}
	if maxTokens, ok := opts["max_tokens"].(int); ok {
		reqBody.Options.NumPredict = maxTokens
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling model server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("model server error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("model server returned status %d", resp.StatusCode)
	}

	var genResp ollamaResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if genResp.Response == "" {
		return "", ErrEmptyResponse
	}
	return genResp.Response, nil
}

// Ping checks availability by listing the server's installed models.
func (b *ollamaBackend) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// GetModel returns the configured model name.
func (b *ollamaBackend) GetModel() string { return b.model }
