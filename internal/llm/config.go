// Package llm provides centralized LLM configuration and client abstractions.
// Callers depend on the Client interface; the Gemini implementation is the only provider today.
package llm

import (
	"maps"
	"os"
	"strconv"
	"time"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite condenses PRDs into outlines
	TierLite ModelTier = "lite"
	// TierStandard extracts factor records
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long or ambiguous PRDs that need more reasoning
	TierAdvanced ModelTier = "advanced"
)

// tierFallback is consulted in order when a tier has no model of its own
var tierFallback = []ModelTier{TierStandard, TierLite}

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// Defaults applied when a Config leaves a field zero
const (
	// DefaultTemperature keeps extraction output stable across runs
	DefaultTemperature float32 = 0.1
	// DefaultMaxOutputTokens bounds a factor record response with room for repair
	DefaultMaxOutputTokens int32 = 4096
	// DefaultTimeout caps a single generation call
	DefaultTimeout = 90 * time.Second
)

// Config holds the model configuration for the application
type Config struct {
	Provider        Provider
	Models          map[ModelTier]string
	Temperature     float32
	MaxOutputTokens int32
	Timeout         time.Duration
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
		Timeout:         DefaultTimeout,
	}
}

// ConfigFromEnv returns DefaultConfig with overrides from GEMINI_MODEL
// (standard tier), GEMINI_MODEL_LITE, GEMINI_MODEL_ADVANCED and
// LLM_TEMPERATURE. Unparseable values are ignored.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	overrides := map[ModelTier]string{
		TierStandard: "GEMINI_MODEL",
		TierLite:     "GEMINI_MODEL_LITE",
		TierAdvanced: "GEMINI_MODEL_ADVANCED",
	}
	for tier, key := range overrides {
		if model := os.Getenv(key); model != "" {
			cfg = cfg.WithModel(tier, model)
		}
	}
	if raw := os.Getenv("LLM_TEMPERATURE"); raw != "" {
		if t, err := strconv.ParseFloat(raw, 32); err == nil && t >= 0 {
			cfg.Temperature = float32(t)
		}
	}
	return cfg
}

// GetModel returns the model name for a tier, falling back to the standard
// and then the lite model. Empty when nothing is configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	for _, fallback := range tierFallback {
		if model, ok := c.Models[fallback]; ok {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of c using model for tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	clone := *c
	clone.Models = maps.Clone(c.Models)
	if clone.Models == nil {
		clone.Models = make(map[ModelTier]string, 1)
	}
	clone.Models[tier] = model
	return &clone
}

func (c *Config) temperature() float32 {
	if c.Temperature == 0 {
		return DefaultTemperature
	}
	return c.Temperature
}

func (c *Config) maxOutputTokens() int32 {
	if c.MaxOutputTokens <= 0 {
		return DefaultMaxOutputTokens
	}
	return c.MaxOutputTokens
}

func (c *Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
