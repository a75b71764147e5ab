package library

import (
	"github.com/murmurlabs/chorus/agent"
	"github.com/murmurlabs/chorus/schema"
)

// Format selects how a model reply is parsed into a response. The runtime
// ships a small closed set of formats as explicit variants rather than a
// mapping-driven parser; hosts with bespoke schemas implement their own
// Agent.
type Format string

const (
	// FormatDefault expects a flat reply: has_insight gates the insight,
	// message carries the content, and the structured containers
	// (variable_updates, queue_pushes, facts, events, memory_updates) sit
	// at the top level.
	FormatDefault Format = "default"

	// FormatV2Raw expects the insight nested under an "insight" object and
	// accepts a state_snapshot object as variable updates, alongside the
	// same top-level structured containers.
	FormatV2Raw Format = "v2_raw"
)

// ParseFormat maps a string onto a Format, defaulting to FormatDefault.
func ParseFormat(s string) Format {
	switch Format(s) {
	case FormatV2Raw:
		return FormatV2Raw
	}
	return FormatDefault
}

// Instruction returns the JSON-shape instruction appended to the system
// prompt for this format.
func (f Format) Instruction() string {
	switch f {
	case FormatV2Raw:
		return `IMPORTANT: Respond with a JSON object. Put your advice under "insight": {"content": "...", "type": "suggestion|warning|opportunity|fact|praise", "confidence": 0.0-1.0} or omit it when you have nothing to say. You may also include "state_snapshot" (object), "variable_updates" (object), "queue_pushes" (object of lists), "facts" (list of {"type", "key", "value", "confidence"}), "events" (list of {"name", "payload"}), and "memory_updates" (object).`
	}
	return `IMPORTANT: Respond with a JSON object: {"has_insight": boolean, "message": "...", "type": "suggestion|warning|opportunity|fact|praise", "confidence": 0.0-1.0}. You may also include "variable_updates" (object), "queue_pushes" (object of lists), "facts" (list of {"type", "key", "value", "confidence"}), "events" (list of {"name", "payload"}), and "memory_updates" (object).`
}

// Parse converts a decoded model reply into a response. Parsing is lenient:
// malformed sections are dropped rather than failing the agent, since model
// output is untrusted.
func (f Format) Parse(result map[string]any, cfg *agent.Config, timestamp float64) *schema.Response {
	resp := schema.NewResponse()
	if result == nil {
		return resp
	}

	switch f {
	case FormatV2Raw:
		if root, ok := result["insight"].(map[string]any); ok {
			appendInsight(resp, cfg, root, "content")
		}
		if snapshot, ok := result["state_snapshot"].(map[string]any); ok {
			for k, v := range snapshot {
				resp.VariableUpdates[k] = v
			}
		}
	default:
		if asBool(result["has_insight"]) {
			appendInsight(resp, cfg, result, "message")
		}
	}

	parseContainers(resp, result, cfg, timestamp)
	return resp
}

// appendInsight extracts one insight from root, reading the content from
// the named field. Empty content means the agent chose silence.
func appendInsight(resp *schema.Response, cfg *agent.Config, root map[string]any, contentField string) {
	content, _ := root[contentField].(string)
	if content == "" {
		return
	}

	typeStr, _ := root["type"].(string)
	confidence := 1.0
	if c, ok := asFloat(root["confidence"]); ok {
		confidence = c
	}

	insight := schema.NewInsight(cfg.ID, cfg.Name, schema.ParseInsightType(typeStr), content, confidence)
	if metadata, ok := root["metadata"].(map[string]any); ok {
		insight.Metadata = metadata
	}
	resp.Insights = append(resp.Insights, insight)
}

// parseContainers extracts the structured v2 containers shared by all
// formats: events, variable updates, queue pushes, facts, and memory
// updates.
func parseContainers(resp *schema.Response, result map[string]any, cfg *agent.Config, timestamp float64) {
	if rawEvents, ok := result["events"].([]any); ok {
		for _, raw := range rawEvents {
			switch ev := raw.(type) {
			case map[string]any:
				name, _ := ev["name"].(string)
				if name == "" {
					continue
				}
				payload, _ := ev["payload"].(map[string]any)
				event := schema.Event{
					Name:        name,
					Payload:     payload,
					SourceAgent: cfg.ID,
					Timestamp:   timestamp,
				}
				if id, ok := ev["id"].(string); ok {
					event.ID = id
				}
				resp.Events = append(resp.Events, event)
			case string:
				// Bare string events are the legacy shorthand.
				if ev != "" {
					resp.Events = append(resp.Events, schema.Event{
						Name:        ev,
						SourceAgent: cfg.ID,
						Timestamp:   timestamp,
					})
				}
			}
		}
	}

	if updates, ok := result["variable_updates"].(map[string]any); ok {
		for k, v := range updates {
			resp.VariableUpdates[k] = v
		}
	}

	if pushes, ok := result["queue_pushes"].(map[string]any); ok {
		for name, raw := range pushes {
			if items, ok := raw.([]any); ok && len(items) > 0 {
				resp.QueuePushes[name] = append(resp.QueuePushes[name], items...)
			}
		}
	}

	if rawFacts, ok := result["facts"].([]any); ok {
		for _, raw := range rawFacts {
			rec, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			factType, _ := rec["type"].(string)
			if factType == "" {
				factType = "unknown"
			}
			key, _ := rec["key"].(string)
			confidence := 1.0
			if c, ok := asFloat(rec["confidence"]); ok {
				confidence = c
			}
			resp.Facts = append(resp.Facts, schema.Fact{
				Type:        factType,
				Key:         key,
				Value:       rec["value"],
				Confidence:  confidence,
				SourceAgent: cfg.ID,
				Timestamp:   timestamp,
			})
		}
	}

	if updates, ok := result["memory_updates"].(map[string]any); ok {
		for k, v := range updates {
			resp.MemoryUpdates[k] = v
		}
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}
