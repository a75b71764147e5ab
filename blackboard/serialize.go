package blackboard

import (
	"github.com/murmurlabs/chorus/schema"
)

// ToMap converts the Blackboard to a plain tree of JSON-representable values
// (maps, slices, scalars) so the host can persist a session. The result is
// deep-copied; mutating it never touches the live Blackboard.
func (b *Blackboard) ToMap() map[string]any {
	snap := b.Snapshot()

	events := make([]any, len(snap.events))
	for i, e := range snap.events {
		events[i] = eventRecord(e)
	}
	facts := make([]any, len(snap.facts))
	for i, f := range snap.facts {
		facts[i] = factRecord(f)
	}
	memory := make(map[string]any, len(snap.memory))
	for agentID, m := range snap.memory {
		memory[agentID] = m
	}
	queues := make(map[string]any, len(snap.queues))
	for name, q := range snap.queues {
		queues[name] = q
	}

	return map[string]any{
		"events":    events,
		"variables": snap.variables,
		"queues":    queues,
		"facts":     facts,
		"memory":    memory,
	}
}

// FromMap reconstructs a Blackboard from a tree produced by ToMap (or an
// equivalent decoded JSON document). Unknown keys are ignored and missing
// containers default to empty, so partial documents load cleanly.
func FromMap(data map[string]any) *Blackboard {
	b := New()
	if data == nil {
		return b
	}

	for _, raw := range asSlice(data["events"]) {
		if rec, ok := raw.(map[string]any); ok {
			b.events = append(b.events, eventFromRecord(rec))
		}
	}
	if vars, ok := data["variables"].(map[string]any); ok {
		for k, v := range vars {
			b.variables[k] = v
		}
	}
	if queues, ok := data["queues"].(map[string]any); ok {
		for name, q := range queues {
			b.queues[name] = asSlice(q)
		}
	}
	for _, raw := range asSlice(data["facts"]) {
		if rec, ok := raw.(map[string]any); ok {
			b.facts = append(b.facts, factFromRecord(rec))
		}
	}
	if memory, ok := data["memory"].(map[string]any); ok {
		for agentID, m := range memory {
			if mm, ok := m.(map[string]any); ok {
				b.memory[agentID] = mm
			}
		}
	}
	return b
}

func eventRecord(e schema.Event) map[string]any {
	rec := map[string]any{
		"name":         e.Name,
		"payload":      e.Payload,
		"source_agent": e.SourceAgent,
		"timestamp":    e.Timestamp,
	}
	if e.ID != "" {
		rec["id"] = e.ID
	}
	return rec
}

func eventFromRecord(rec map[string]any) schema.Event {
	payload, _ := rec["payload"].(map[string]any)
	return schema.Event{
		Name:        asString(rec["name"]),
		Payload:     payload,
		SourceAgent: asString(rec["source_agent"]),
		Timestamp:   asFloat(rec["timestamp"]),
		ID:          asString(rec["id"]),
	}
}

func factRecord(f schema.Fact) map[string]any {
	rec := map[string]any{
		"type":         f.Type,
		"value":        f.Value,
		"confidence":   f.Confidence,
		"source_agent": f.SourceAgent,
		"timestamp":    f.Timestamp,
	}
	if f.Key != "" {
		rec["key"] = f.Key
	}
	return rec
}

func factFromRecord(rec map[string]any) schema.Fact {
	return schema.Fact{
		Type:        asString(rec["type"]),
		Key:         asString(rec["key"]),
		Value:       rec["value"],
		Confidence:  asFloat(rec["confidence"]),
		SourceAgent: asString(rec["source_agent"]),
		Timestamp:   asFloat(rec["timestamp"]),
	}
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return 0
}
