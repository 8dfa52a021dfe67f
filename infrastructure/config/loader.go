// Package config loads the engine configuration by layering defaults,
// an optional YAML file, and environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/scholarseal/veritas/internal/application"
)

// envPrefix namespaces the engine's environment variables.
const envPrefix = "VERITAS_"

// Load builds an EngineConfig. Order of precedence (low -> high):
//  1. defaults (application.DefaultEngineConfig)
//  2. YAML file, when path is non-empty
//  3. environment variables (prefix VERITAS_)
//
// Env keys use a double underscore as the section separator so value
// names may themselves contain underscores: VERITAS_MODE -> mode,
// VERITAS_LLM__BASE_URL -> llm.base_url.
func Load(path string) (application.EngineConfig, error) {
	cfg := application.DefaultEngineConfig()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return cfg, fmt.Errorf("loading environment: %w", err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
