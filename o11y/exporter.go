package o11y

import (
	"context"
	"time"
)

// TurnExporter is implemented by backends that capture completed turn
// records for analysis, debugging, or cost tracking. The host bridges
// engine hooks into an exporter; the runtime never writes to one directly.
type TurnExporter interface {
	// ExportTurn sends a completed turn record to the backend.
	ExportTurn(ctx context.Context, data TurnData) error
}

// TurnData captures the observable outcome of a single turn.
type TurnData struct {
	// SessionID identifies the session.
	SessionID string

	// TriggerType is the trigger class that started the turn.
	TriggerType string

	// TurnCount is the host's running turn counter.
	TurnCount int

	// Phases is how many phases actually ran (1 or 2).
	Phases int

	// AgentNames lists the agents that evaluated, in selection order.
	AgentNames []string

	// InsightCount is the number of insights in the aggregate response.
	InsightCount int

	// EventNames lists the events emitted during the turn.
	EventNames []string

	// Duration is the wall-clock time of the turn.
	Duration time.Duration

	// Error is non-empty when the turn surfaced a chain error.
	Error string

	// Metadata carries additional key-value data such as trace IDs or
	// user-defined labels.
	Metadata map[string]any
}

// MultiExporter fans out turn records to multiple TurnExporters. All
// exporters are called even if one returns an error; the first error
// encountered is returned.
type MultiExporter struct {
	exporters []TurnExporter
}

// NewMultiExporter creates a MultiExporter that writes to all given
// exporters.
func NewMultiExporter(exporters ...TurnExporter) *MultiExporter {
	return &MultiExporter{exporters: exporters}
}

// ExportTurn sends data to every registered exporter.
func (m *MultiExporter) ExportTurn(ctx context.Context, data TurnData) error {
	var firstErr error
	for _, exp := range m.exporters {
		if err := exp.ExportTurn(ctx, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
