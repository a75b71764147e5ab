package schema

import "github.com/google/uuid"

// Event is a transient broadcast signal used for inter-agent coordination
// within a turn. Events are not deduplicated: multiple events with the same
// name may coexist (e.g. several questions detected in one turn). They live
// only for the turn that produced them and are cleared before the turn
// returns.
type Event struct {
	// Name is the event name subscribers match on.
	Name string `json:"name"`

	// Payload carries event-specific data.
	Payload map[string]any `json:"payload,omitempty"`

	// SourceAgent is the ID of the agent that emitted the event.
	SourceAgent string `json:"source_agent"`

	// Timestamp is when the event was emitted, in seconds.
	Timestamp float64 `json:"timestamp"`

	// ID optionally discriminates event instances. Hosts that need
	// deduplication assign one; the runtime itself never deduplicates.
	ID string `json:"id,omitempty"`
}

// NewEvent creates an Event with a generated ID.
func NewEvent(name string, payload map[string]any, sourceAgent string, timestamp float64) Event {
	return Event{
		Name:        name,
		Payload:     payload,
		SourceAgent: sourceAgent,
		Timestamp:   timestamp,
		ID:          uuid.NewString(),
	}
}
