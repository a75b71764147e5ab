// Package agent defines the agent contract for the Chorus runtime: the
// Agent interface, per-registration Config, the evaluation Context read
// view, observer Hooks, the lifecycle Runner (trigger-type check, cooldown
// enforcement, error capture), and a factory registry for config-driven
// construction.
//
// The engine decides trigger eligibility and evaluates trigger conditions;
// the Runner enforces cooldown and captures errors. An agent itself only
// implements Evaluate.
package agent

import (
	"context"
	"time"

	"github.com/murmurlabs/chorus/condition"
	"github.com/murmurlabs/chorus/schema"
)

// Agent is the unit the engine schedules. Implementations read the Context
// (and its blackboard snapshot) and return a Response describing every
// update they want applied; they never mutate shared state directly.
//
// Evaluate may return (nil, nil) to decline the turn without output.
type Agent interface {
	// Config returns the agent's registration configuration.
	Config() *Config

	// Evaluate runs the agent against the given context.
	Evaluate(ctx context.Context, tc *Context) (*schema.Response, error)
}

// DefaultCooldown is the cooldown applied when a Config does not set one.
const DefaultCooldown = 10 * time.Second

// MinOverriddenCooldown floors the effective cooldown when a per-turn
// override is in play, no matter how negative the modifier is.
const MinOverriddenCooldown = 5 * time.Second

// Config is the immutable per-registration configuration of an agent.
type Config struct {
	// ID is the stable identifier used by allow-lists, memory namespacing,
	// and fact attribution.
	ID string

	// Name is the display name used in insights and observer callbacks.
	Name string

	// TriggerTypes are the trigger classes the agent responds to.
	TriggerTypes []schema.TriggerType

	// Keywords trigger the agent when detected in transcript text. The
	// engine does not interpret them beyond CheckKeywordTriggers; detection
	// is the host's job.
	Keywords []string

	// SilenceThreshold is the dead-air duration in seconds after which the
	// host should trigger the agent. Zero means no silence trigger.
	SilenceThreshold int

	// Interval is the periodic check spacing in seconds for interval
	// triggers. Transparent to the engine.
	Interval int

	// Cooldown is the minimum time between runs. Zero means
	// DefaultCooldown.
	Cooldown time.Duration

	// Priority orders merge application: larger priorities write later and
	// therefore win under last-write-wins.
	Priority int

	// Model names the model this agent asks the injected client for.
	// Transparent to the engine.
	Model string

	// OutputFormat selects the agent's response parsing variant.
	// Transparent to the engine.
	OutputFormat string

	// SubscribedEvents are event names whose emission makes this agent a
	// second-phase candidate.
	SubscribedEvents []string

	// Conditions are preconditions the engine evaluates against the
	// blackboard before the agent runs.
	Conditions *condition.Expression
}

// HandlesTrigger reports whether the agent responds to the trigger type.
func (c *Config) HandlesTrigger(t schema.TriggerType) bool {
	for _, tt := range c.TriggerTypes {
		if tt == t {
			return true
		}
	}
	return false
}

// SubscribesTo reports whether the agent subscribes to the event name.
func (c *Config) SubscribesTo(name string) bool {
	for _, e := range c.SubscribedEvents {
		if e == name {
			return true
		}
	}
	return false
}

// EffectiveCooldown returns the cooldown with the per-turn override applied.
// With an override present the result is floored at MinOverriddenCooldown;
// without one the configured cooldown is used as-is.
func (c *Config) EffectiveCooldown(override *ConfigOverride) time.Duration {
	cooldown := c.Cooldown
	if cooldown == 0 {
		cooldown = DefaultCooldown
	}
	if override == nil {
		return cooldown
	}
	adjusted := cooldown + override.CooldownModifier
	if adjusted < MinOverriddenCooldown {
		return MinOverriddenCooldown
	}
	return adjusted
}

// State is the per-agent runtime state owned by the engine's registration
// record. It is read and written only from the single-writer turn loop.
type State struct {
	// LastRun is when the agent last evaluated successfully.
	LastRun time.Time
}
