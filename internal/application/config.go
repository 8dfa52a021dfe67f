// Package application orchestrates integrity checks: it runs the signal
// extractors inside a sandbox, substitutes flagged neutral scores for
// unavailable stages, and hands the collected signals to the domain
// aggregator for a verdict.
package application

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validation modes. Strict mode tightens every decision threshold; it is
// selected per engine instance, never via global state.
const (
	ModeStandard = "standard"
	ModeStrict   = "strict"
)

// EngineConfig defines the complete configuration for an integrity
// engine: which signal stages run, where their backends live, and how
// the run as a whole is bounded.
type EngineConfig struct {
	// Mode selects the decision thresholds, "standard" or "strict".
	Mode string `koanf:"mode" validate:"required,oneof=standard strict"`

	// RunTimeout bounds the whole extraction phase. Individual stages
	// carry their own tighter timeouts besides.
	RunTimeout time.Duration `koanf:"run_timeout" validate:"required,min=1s"`

	// Signals toggles individual extraction stages. Lexical analysis is
	// always on; the model-backed stages default off so the engine works
	// with no backends at all.
	Signals SignalToggles `koanf:"signals"`

	// LLM configures the judged-similarity and relevance-assist model.
	LLM LLMSettings `koanf:"llm"`

	// Embedding configures the semantic-similarity backend.
	Embedding EmbeddingSettings `koanf:"embedding"`
}

// SignalToggles enables or disables optional extraction stages.
// Disabled stages surface in verdicts as flagged unavailable signals, the
// same way a stage that failed at runtime would.
type SignalToggles struct {
	// Semantic enables embedding-based similarity.
	Semantic bool `koanf:"semantic"`

	// Judged enables model-judged similarity.
	Judged bool `koanf:"judged"`

	// RelevanceModel enables the model assist inside the relevance
	// stage. Keyword relevance analysis always runs.
	RelevanceModel bool `koanf:"relevance_model"`
}

// LLMSettings names the local model backend used for judged similarity.
type LLMSettings struct {
	// Backend is the client implementation, "ollama" or "openai"
	// (an OpenAI-compatible local server). Empty disables the client.
	Backend string `koanf:"backend" validate:"omitempty,oneof=ollama openai"`

	// BaseURL is the backend address. Must resolve to a loopback or
	// private host; the sandbox enforces this at dial time.
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`

	// Model names the model to query.
	Model string `koanf:"model"`

	// Timeout bounds a single completion request.
	Timeout time.Duration `koanf:"timeout" validate:"omitempty,min=1s"`

	// RequestsPerSecond rate-limits completions; zero means no limit.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"min=0"`
}

// EmbeddingSettings names the local embedding backend for the semantic
// stage.
type EmbeddingSettings struct {
	// BaseURL is the embedding server address.
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`

	// Model names the embedding model.
	Model string `koanf:"model"`

	// Timeout bounds a single embedding request.
	Timeout time.Duration `koanf:"timeout" validate:"omitempty,min=1s"`
}

// DefaultEngineConfig returns a configuration that runs entirely
// self-contained: lexical, authenticity, and keyword relevance analysis
// with every model-backed stage off.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Mode:       ModeStandard,
		RunTimeout: 60 * time.Second,
	}
}

var configValidate = validator.New()

// Validate checks the configuration for structural errors and
// cross-field consistency.
func (c EngineConfig) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("engine configuration invalid: %w", err)
	}
	if c.Signals.Judged && c.LLM.Backend == "" {
		return fmt.Errorf("engine configuration invalid: judged signal enabled without an llm backend")
	}
	if c.Signals.RelevanceModel && c.LLM.Backend == "" {
		return fmt.Errorf("engine configuration invalid: relevance model assist enabled without an llm backend")
	}
	if c.Signals.Semantic && c.Embedding.Model == "" {
		return fmt.Errorf("engine configuration invalid: semantic signal enabled without an embedding model")
	}
	return nil
}
