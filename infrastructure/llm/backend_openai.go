package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openAIBackend implements the CoreLLM interface for OpenAI-compatible
// local servers (llama.cpp server, vLLM, LM Studio). Only the chat
// completion surface is used.
type openAIBackend struct {
	client *openai.Client
	model  string
}

// newOpenAIBackend creates an OpenAI-compatible backend from the client
// configuration. A BaseURL is required: the engine never talks to the
// hosted OpenAI API, only to a local server speaking the same protocol.
func newOpenAIBackend(config ClientConfig) (CoreLLM, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("openai-compatible backend requires a base URL")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("openai-compatible backend requires a model name")
	}

	apiKey := config.APIKey
	if apiKey == "" {
		// Local servers validate presence, not value.
		apiKey = "local"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = config.BaseURL
	if config.HTTPClient != nil {
		clientConfig.HTTPClient = config.HTTPClient
	} else if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &openAIBackend{
		client: openai.NewClientWithConfig(clientConfig),
		model:  config.Model,
	}, nil
}

// DoRequest sends a chat completion request and returns the first choice.
func (b *openAIBackend) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if temp, ok := opts["temperature"].(float64); ok {
		req.Temperature = float32(temp)
	}
	if maxTokens, ok := opts["max_tokens"].(int); ok {
		req.MaxTokens = maxTokens
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoResponseChoice
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping checks availability by listing the server's models with a short
// deadline so an absent server degrades quickly.
func (b *openAIBackend) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := b.client.ListModels(ctx)
	return err == nil
}

// GetModel returns the configured model name.
func (b *openAIBackend) GetModel() string { return b.model }
