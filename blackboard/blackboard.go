// Package blackboard implements the structured shared state for a Chorus
// session. The Blackboard provides typed containers for agent coordination:
//
//   - Events: transient signals that trigger subscribed agents
//   - Variables: session-scoped key-value storage
//   - Queues: ordered FIFO lists for work items
//   - Facts: extracted knowledge with deduplication
//   - Memory: agent-private state
//
// The Blackboard is in-memory for the session lifetime; persistence is the
// host's responsibility via ToMap/FromMap. During a phase all agents evaluate
// against the same immutable Snapshot, and the engine's merge step is the
// only writer of the live instance.
package blackboard

import (
	"strings"
	"sync"

	"github.com/murmurlabs/chorus/internal/deepclone"
	"github.com/murmurlabs/chorus/schema"
)

// SysPrefix is the reserved variable namespace written by the engine
// (sys.turn_count, sys.session_id, sys.trigger_type). The convention is
// advisory: merges do not reject sys.* writes from agents.
const SysPrefix = "sys."

// Blackboard is the structured shared state of a session.
type Blackboard struct {
	mu sync.RWMutex

	events    []schema.Event
	variables map[string]any
	queues    map[string][]any
	facts     []schema.Fact
	memory    map[string]map[string]any
}

// New creates an empty Blackboard.
func New() *Blackboard {
	return &Blackboard{
		variables: map[string]any{},
		queues:    map[string][]any{},
		memory:    map[string]map[string]any{},
	}
}

// IsSysVar reports whether key is in the engine-owned sys.* namespace.
func IsSysVar(key string) bool {
	return strings.HasPrefix(key, SysPrefix)
}

// EmitEvent appends a structured event. Events are not deduplicated:
// multiple events with the same name may coexist within a turn.
func (b *Blackboard) EmitEvent(e schema.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

// ClearEvents removes all pending events. The engine calls this at the end
// of every turn.
func (b *Blackboard) ClearEvents() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

// HasEvent reports whether any event with the given name is pending.
func (b *Blackboard) HasEvent(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, e := range b.events {
		if e.Name == name {
			return true
		}
	}
	return false
}

// EventsByName returns all pending events with the given name.
func (b *Blackboard) EventsByName(name string) []schema.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []schema.Event
	for _, e := range b.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// CountEvents returns the number of pending events with the given name.
func (b *Blackboard) CountEvents(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, e := range b.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

// Events returns a copy of all pending events in emission order.
func (b *Blackboard) Events() []schema.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]schema.Event, len(b.events))
	copy(out, b.events)
	return out
}

// SetVar sets a session variable. Keys starting with "sys." are reserved
// for engine use.
func (b *Blackboard) SetVar(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.variables[key] = value
}

// Var returns a session variable and whether it exists.
func (b *Blackboard) Var(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.variables[key]
	return v, ok
}

// VarOr returns a session variable, or def when the key is absent.
func (b *Blackboard) VarOr(key string, def any) any {
	if v, ok := b.Var(key); ok {
		return v
	}
	return def
}

// DeleteVar removes a session variable.
func (b *Blackboard) DeleteVar(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.variables, key)
}

// HasVar reports whether a variable exists.
func (b *Blackboard) HasVar(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.variables[key]
	return ok
}

// Variables returns a shallow copy of the variable map.
func (b *Blackboard) Variables() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.variables))
	for k, v := range b.variables {
		out[k] = v
	}
	return out
}

// PushQueue appends an item to the named queue, creating it if needed.
func (b *Blackboard) PushQueue(name string, item any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[name] = append(b.queues[name], item)
}

// PushQueueItems appends multiple items to the named queue in order.
func (b *Blackboard) PushQueueItems(name string, items []any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[name] = append(b.queues[name], items...)
}

// PopQueue removes and returns the first item of the named queue (FIFO).
func (b *Blackboard) PopQueue(name string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := b.queues[name]
	if len(q) == 0 {
		return nil, false
	}
	item := q[0]
	b.queues[name] = q[1:]
	return item, true
}

// PeekQueue returns the first item of the named queue without removing it.
func (b *Blackboard) PeekQueue(name string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q := b.queues[name]
	if len(q) == 0 {
		return nil, false
	}
	return q[0], true
}

// QueueLen returns the length of the named queue.
func (b *Blackboard) QueueLen(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.queues[name])
}

// ClearQueue empties the named queue. The queue itself remains registered.
func (b *Blackboard) ClearQueue(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[name] = []any{}
}

// HasQueue reports whether the named queue exists.
func (b *Blackboard) HasQueue(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.queues[name]
	return ok
}

// Queue returns a copy of the named queue's items, or nil when absent.
func (b *Blackboard) Queue(name string) []any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.queues[name]
	if !ok {
		return nil
	}
	out := make([]any, len(q))
	copy(out, q)
	return out
}

// AddFact adds a fact with deduplication.
//
// When the fact's Key is empty, any existing fact of the same Type is the
// replacement candidate; otherwise the candidate is the fact matching
// (Type, Key) exactly. The new fact replaces the candidate iff its
// confidence is greater than or equal to the candidate's; lower-confidence
// adds are a no-op. Replacement moves the fact to the end of the list.
func (b *Blackboard) AddFact(f schema.Fact) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := -1
	for i, existing := range b.facts {
		if f.Matches(existing) {
			idx = i
			break
		}
	}
	if idx == -1 {
		b.facts = append(b.facts, f)
		return
	}
	if f.Confidence >= b.facts[idx].Confidence {
		b.facts = append(b.facts[:idx], b.facts[idx+1:]...)
		b.facts = append(b.facts, f)
	}
}

// Fact returns a fact by type and optional key. An empty key matches the
// first fact of the type regardless of its key.
func (b *Blackboard) Fact(factType, key string) (schema.Fact, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, f := range b.facts {
		if f.Type != factType {
			continue
		}
		if key == "" || f.Key == key {
			return f, true
		}
	}
	return schema.Fact{}, false
}

// FactsByType returns all facts of a type; keyed facts of the same type may
// coexist.
func (b *Blackboard) FactsByType(factType string) []schema.Fact {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []schema.Fact
	for _, f := range b.facts {
		if f.Type == factType {
			out = append(out, f)
		}
	}
	return out
}

// HasFact reports whether a fact exists for the type and optional key.
func (b *Blackboard) HasFact(factType, key string) bool {
	_, ok := b.Fact(factType, key)
	return ok
}

// Facts returns a copy of all facts in storage order.
func (b *Blackboard) Facts() []schema.Fact {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]schema.Fact, len(b.facts))
	copy(out, b.facts)
	return out
}

// Memory returns an agent's private memory, or nil when the agent has none.
// The returned map is a copy; mutate through SetMemory or UpdateMemory.
func (b *Blackboard) Memory(agentID string) map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.memory[agentID]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SetMemory replaces an agent's private memory wholesale.
func (b *Blackboard) SetMemory(agentID string, data map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.memory[agentID] = data
}

// UpdateMemory merges updates into an agent's private memory.
func (b *Blackboard) UpdateMemory(agentID string, updates map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.memory[agentID]
	if !ok {
		m = map[string]any{}
		b.memory[agentID] = m
	}
	for k, v := range updates {
		m[k] = v
	}
}

// HasMemory reports whether an agent has any memory stored.
func (b *Blackboard) HasMemory(agentID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.memory[agentID]) > 0
}

// Snapshot creates a deep copy of the Blackboard for phase isolation.
// The copy is fully independent: mutating the original never changes the
// snapshot and vice versa.
func (b *Blackboard) Snapshot() *Blackboard {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := New()
	snap.events = make([]schema.Event, len(b.events))
	for i, e := range b.events {
		e.Payload = deepclone.Map(e.Payload)
		snap.events[i] = e
	}
	snap.variables = deepclone.Map(b.variables)
	for name, q := range b.queues {
		snap.queues[name] = deepclone.Slice(q)
	}
	snap.facts = make([]schema.Fact, len(b.facts))
	for i, f := range b.facts {
		f.Value = deepclone.Value(f.Value)
		snap.facts[i] = f
	}
	for agentID, m := range b.memory {
		snap.memory[agentID] = deepclone.Map(m)
	}
	return snap
}
