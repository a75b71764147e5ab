package o11y

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meter holds the package-level OTel meter used by metric recording
// functions.
var meter metric.Meter

// Pre-registered instruments for turn and agent execution.
var (
	turnCounter      metric.Int64Counter
	turnDuration     metric.Float64Histogram
	agentRunCounter  metric.Int64Counter
	agentErrCounter  metric.Int64Counter
	agentDuration    metric.Float64Histogram
	eventsDispatched metric.Int64Counter

	meterOnce sync.Once
	meterErr  error
)

func init() {
	meter = otel.Meter("github.com/murmurlabs/chorus/o11y")
}

// initInstruments lazily creates the pre-defined metric instruments. This is
// deferred so callers can configure the meter provider before first use.
func initInstruments() error {
	meterOnce.Do(func() {
		var err error

		turnCounter, err = meter.Int64Counter(
			"chorus.turns",
			metric.WithDescription("Number of processed turns"),
			metric.WithUnit("{turn}"),
		)
		if err != nil {
			meterErr = err
			return
		}

		turnDuration, err = meter.Float64Histogram(
			"chorus.turn.duration",
			metric.WithDescription("Duration of turn processing"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			meterErr = err
			return
		}

		agentRunCounter, err = meter.Int64Counter(
			"chorus.agent.runs",
			metric.WithDescription("Number of agent evaluations"),
			metric.WithUnit("{run}"),
		)
		if err != nil {
			meterErr = err
			return
		}

		agentErrCounter, err = meter.Int64Counter(
			"chorus.agent.errors",
			metric.WithDescription("Number of failed agent evaluations"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			meterErr = err
			return
		}

		agentDuration, err = meter.Float64Histogram(
			"chorus.agent.duration",
			metric.WithDescription("Duration of agent evaluations"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			meterErr = err
			return
		}

		eventsDispatched, err = meter.Int64Counter(
			"chorus.events.dispatched",
			metric.WithDescription("Number of events dispatched to a second phase"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			meterErr = err
		}
	})
	return meterErr
}

// RecordTurn records one processed turn with its trigger type and duration.
func RecordTurn(ctx context.Context, trigger string, d time.Duration) {
	if initInstruments() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("chorus.trigger_type", trigger))
	turnCounter.Add(ctx, 1, attrs)
	turnDuration.Record(ctx, float64(d.Milliseconds()), attrs)
}

// RecordAgentRun records one agent evaluation and whether it failed.
func RecordAgentRun(ctx context.Context, agentName string, d time.Duration, failed bool) {
	if initInstruments() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("chorus.agent.name", agentName))
	agentRunCounter.Add(ctx, 1, attrs)
	agentDuration.Record(ctx, float64(d.Milliseconds()), attrs)
	if failed {
		agentErrCounter.Add(ctx, 1, attrs)
	}
}

// RecordEventsDispatched records events carried into a second phase.
func RecordEventsDispatched(ctx context.Context, n int) {
	if initInstruments() != nil {
		return
	}
	if n > 0 {
		eventsDispatched.Add(ctx, int64(n))
	}
}
