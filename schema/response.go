package schema

// Response is the result of one agent evaluation, and also the aggregate
// shape ProcessTurn returns to the host. All containers are optional; an
// empty Response contributes nothing to the blackboard.
type Response struct {
	// Insights is the ordered user-visible output.
	Insights []Insight `json:"insights,omitempty"`

	// VariableUpdates is applied to blackboard variables (last writer wins
	// under merge ordering).
	VariableUpdates map[string]any `json:"variable_updates,omitempty"`

	// QueuePushes maps queue names to items appended in order.
	QueuePushes map[string][]any `json:"queue_pushes,omitempty"`

	// Facts are added through the deduplication rule.
	Facts []Fact `json:"facts,omitempty"`

	// MemoryUpdates is merged into the emitting agent's private memory
	// namespace. Only meaningful on a per-agent response; the aggregate
	// response leaves it empty.
	MemoryUpdates map[string]any `json:"memory_updates,omitempty"`

	// Events are published to the blackboard for later-phase subscribers.
	Events []Event `json:"events,omitempty"`

	// Data is a free-form sidecar for arbitrary payloads such as UI actions.
	Data map[string]any `json:"data,omitempty"`

	// StateUpdates is the legacy v1 update map, superseded by
	// VariableUpdates. The engine maps it to variable writes on merge and
	// mirrors VariableUpdates back into it on the aggregate response.
	StateUpdates map[string]any `json:"state_updates,omitempty"`

	// DebugInfo carries tracing-only data (prompt messages, raw model
	// output). Never merged, never serialized.
	DebugInfo map[string]any `json:"-"`
}

// NewResponse creates an empty Response with all maps initialized, so
// callers can write into the containers without nil checks.
func NewResponse() *Response {
	return &Response{
		VariableUpdates: map[string]any{},
		QueuePushes:     map[string][]any{},
		MemoryUpdates:   map[string]any{},
		Data:            map[string]any{},
		StateUpdates:    map[string]any{},
	}
}

// Empty reports whether the response carries no output at all.
func (r *Response) Empty() bool {
	if r == nil {
		return true
	}
	return len(r.Insights) == 0 &&
		len(r.VariableUpdates) == 0 &&
		len(r.QueuePushes) == 0 &&
		len(r.Facts) == 0 &&
		len(r.MemoryUpdates) == 0 &&
		len(r.Events) == 0 &&
		len(r.Data) == 0 &&
		len(r.StateUpdates) == 0
}
