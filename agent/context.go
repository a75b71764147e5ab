package agent

import (
	"time"

	"github.com/murmurlabs/chorus/blackboard"
	"github.com/murmurlabs/chorus/schema"
)

// ConfigOverride carries per-turn adjustments the host applies to a single
// agent without re-registering it.
type ConfigOverride struct {
	// CooldownModifier is added to the configured cooldown. The effective
	// cooldown is floored at MinOverriddenCooldown, no matter how negative
	// the modifier is.
	CooldownModifier time.Duration
}

// Context is the read view passed to each agent invocation. Within a phase
// every agent receives the same blackboard snapshot; the engine stamps the
// trigger, phase, and sys.* variables before fan-out.
type Context struct {
	// SessionID identifies the session.
	SessionID string

	// RecentSegments is the sliding window of conversation.
	RecentSegments []schema.TranscriptSegment

	// TriggerType is what caused this run.
	TriggerType schema.TriggerType

	// TriggerMetadata carries trigger specifics, e.g. the matched keyword
	// or the silence duration.
	TriggerMetadata map[string]any

	// Blackboard is the phase snapshot. Agents read it and never write it.
	Blackboard *blackboard.Blackboard

	// LanguageDirective optionally enforces an output language.
	LanguageDirective string

	// UserContext optionally carries the user profile / cognitive frame.
	UserContext string

	// RAGDocs are retrieved document chunks, if the host ran retrieval.
	RAGDocs []string

	// TurnCount is the host's running turn counter for the session.
	TurnCount int

	// Phase is 1 for the initial fan-out and 2 for event subscribers.
	Phase int

	// Overrides are per-turn config adjustments keyed by agent ID.
	Overrides map[string]ConfigOverride

	// SharedState is the legacy v1 view of blackboard variables, kept in
	// sync by the engine for agents written against the old schema.
	SharedState map[string]any
}

// Override returns the per-turn override for the agent, if any.
func (c *Context) Override(agentID string) *ConfigOverride {
	if c.Overrides == nil {
		return nil
	}
	if o, ok := c.Overrides[agentID]; ok {
		return &o
	}
	return nil
}

// WithPhase returns a shallow copy of the context bound to the given phase
// and blackboard snapshot, with the shared-state view refreshed from the
// snapshot's variables.
func (c *Context) WithPhase(phase int, snap *blackboard.Blackboard) *Context {
	cp := *c
	cp.Phase = phase
	cp.Blackboard = snap
	if snap != nil {
		cp.SharedState = snap.Variables()
	}
	return &cp
}
