// Package config handles loading and validating runtime configuration using
// Viper, supporting YAML files and CHORUS_* environment variables. It also
// defines the declarative AgentSpec consumed by the agent factory registry.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/murmurlabs/chorus/core"
)

// EngineConfig holds scheduler tunables.
type EngineConfig struct {
	// MaxPhases bounds event-dispatch recursion within a turn. Events
	// emitted in the final phase are recorded but not dispatched.
	MaxPhases int `json:"max_phases" mapstructure:"max_phases" validate:"gte=1"`
}

// Config is the root configuration document.
type Config struct {
	// Engine holds scheduler tunables.
	Engine EngineConfig `json:"engine" mapstructure:"engine"`

	// LLM configures the injected model client shared by all agents.
	LLM ProviderConfig `json:"llm" mapstructure:"llm"`

	// Agents is the declarative roster.
	Agents []AgentSpec `json:"agents" mapstructure:"agents" validate:"dive"`

	// Log configures the runtime logger ("debug", "info", "warn",
	// "error"; JSON output when Log.JSON is set).
	Log LogConfig `json:"log" mapstructure:"log"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `json:"level" mapstructure:"level"`
	JSON  bool   `json:"json" mapstructure:"json"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from the named file (optional), layered under
// CHORUS_* environment variables, applies defaults, and validates the
// result.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("engine.max_phases", 2)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("log.level", "info")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, core.NewError("config.load", core.ErrInvalidInput, "reading config file", err)
		}
	}

	v.SetEnvPrefix("CHORUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.NewError("config.load", core.ErrInvalidInput, "decoding config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return core.NewError("config.validate", core.ErrInvalidInput, "invalid configuration", err)
	}
	return nil
}
