package config

import (
	"strings"

	"github.com/murmurlabs/chorus/condition"
)

// TriggerConfig describes when an agent should be considered for a run.
type TriggerConfig struct {
	// Mode is one or more trigger modes: turn_based, keyword, silence,
	// interval, event. A single string or a list are both accepted in
	// YAML; unknown modes are ignored and an empty result defaults to
	// turn_based.
	Mode []string `json:"mode" mapstructure:"mode"`

	// Cooldown is the minimum number of seconds between runs.
	Cooldown int `json:"cooldown" mapstructure:"cooldown"`

	// Keywords trigger the agent when detected in the transcript.
	// A comma-separated string or a list are both accepted.
	Keywords []string `json:"keywords" mapstructure:"keywords"`

	// SilenceThreshold is the dead-air duration in seconds that triggers
	// the agent. Zero means no silence trigger.
	SilenceThreshold int `json:"silence_threshold" mapstructure:"silence_threshold"`

	// SubscribedEvents are event names that make the agent a second-phase
	// candidate when emitted earlier in the turn.
	SubscribedEvents []string `json:"subscribed_events" mapstructure:"subscribed_events"`

	// Priority orders merge application; larger writes later and wins
	// under last-write-wins.
	Priority int `json:"priority" mapstructure:"priority"`

	// Interval is the periodic check spacing in seconds for interval
	// triggers. The engine does not interpret it; hosts schedule with it.
	Interval int `json:"interval" mapstructure:"interval"`
}

// AgentSpec is the declarative definition of one agent, typically loaded
// from YAML or a host database record.
type AgentSpec struct {
	// Name is the display name.
	Name string `json:"name" mapstructure:"name" validate:"required"`

	// ID is the stable identifier. Defaults to the lowercased name with
	// spaces replaced by underscores.
	ID string `json:"id" mapstructure:"id"`

	// Type selects the registered agent factory. Defaults to "dynamic".
	Type string `json:"type" mapstructure:"type"`

	// Text is the persona system prompt, rendered as a template with
	// access to state, memory, blackboard, user context, and agent ID.
	Text string `json:"text" mapstructure:"text"`

	// Model overrides the provider's default model for this agent.
	Model string `json:"model" mapstructure:"model"`

	// OutputFormat selects the response parsing variant ("default" or
	// "v2_raw").
	OutputFormat string `json:"output_format" mapstructure:"output_format"`

	// ContextTurns is how many trailing transcript segments the agent
	// sees. Zero or negative means all available.
	ContextTurns int `json:"context_turns" mapstructure:"context_turns"`

	// IncludeContext gates RAG documents and user context injection.
	IncludeContext *bool `json:"include_context" mapstructure:"include_context"`

	// Trigger describes when the agent runs.
	Trigger TriggerConfig `json:"trigger_config" mapstructure:"trigger_config"`

	// Conditions are preconditions evaluated by the engine before the
	// agent runs.
	Conditions *condition.Expression `json:"trigger_conditions" mapstructure:"trigger_conditions"`
}

// EffectiveID returns the spec's ID, deriving one from the name when unset.
func (s AgentSpec) EffectiveID() string {
	if s.ID != "" {
		return s.ID
	}
	return strings.ReplaceAll(strings.ToLower(s.Name), " ", "_")
}

// EffectiveType returns the spec's factory type, defaulting to "dynamic".
func (s AgentSpec) EffectiveType() string {
	if s.Type != "" {
		return s.Type
	}
	return "dynamic"
}

// WantsContext reports whether RAG documents and user context should be
// injected into the agent's prompt. Defaults to true when unset.
func (s AgentSpec) WantsContext() bool {
	if s.IncludeContext == nil {
		return true
	}
	return *s.IncludeContext
}
