package config

import "time"

// ProviderConfig holds common configuration for a model provider. Provider-
// specific options live in the Options map.
//
// Example YAML:
//
//	llm:
//	  provider: openai
//	  api_key: sk-...
//	  model: gpt-4o-mini
//	  timeout: 30s
type ProviderConfig struct {
	// Provider is the registered provider name (e.g. "openai", "anthropic",
	// "ollama").
	Provider string `json:"provider" mapstructure:"provider" validate:"required"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// Model is the default model identifier. Agents may override it per
	// registration via their own model field.
	Model string `json:"model" mapstructure:"model"`

	// BaseURL overrides the default API endpoint.
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// Timeout is the maximum duration for a single request. The runtime
	// imposes no per-agent deadline of its own; the provider client is
	// expected to enforce this and return a failure.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// Options holds provider-specific key-value configuration.
	Options map[string]any `json:"options" mapstructure:"options"`
}

// GetOption retrieves a typed value from the provider's Options map.
// It returns the value and true if the key exists and the type assertion
// succeeds, or the zero value of T and false otherwise.
//
// Usage:
//
//	temp, ok := config.GetOption[float64](cfg, "temperature")
func GetOption[T any](cfg ProviderConfig, key string) (T, bool) {
	var zero T
	if cfg.Options == nil {
		return zero, false
	}
	v, ok := cfg.Options[key]
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
