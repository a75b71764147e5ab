package o11y

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys for turn and agent execution.
const (
	// AttrSessionID is the session being processed.
	AttrSessionID = "chorus.session_id"

	// AttrTriggerType is the trigger class of the turn.
	AttrTriggerType = "chorus.trigger_type"

	// AttrPhase is the phase number of a fan-out.
	AttrPhase = "chorus.phase"

	// AttrAgentName is the name of the agent being evaluated.
	AttrAgentName = "chorus.agent.name"

	// AttrAgentCount is the number of agents selected for a phase.
	AttrAgentCount = "chorus.agent.count"
)

// Tracer returns the runtime's tracer.
func Tracer() trace.Tracer {
	return otel.Tracer("github.com/murmurlabs/chorus/o11y")
}

// StartSpan starts a span with the given string attributes.
func StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, trace.Span) {
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, attribute.String(k, v))
	}
	return Tracer().Start(ctx, name, trace.WithAttributes(kv...))
}

// EndSpan records err (when non-nil) on the span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SetIntAttr sets an integer attribute on the span.
func SetIntAttr(span trace.Span, key string, value int) {
	span.SetAttributes(attribute.Int(key, value))
}
