// Package condition implements the trigger-condition language evaluated
// against blackboard state before an agent runs. Conditions let agents
// declare preconditions that gate evaluation, preventing unnecessary model
// calls.
//
// Supported operators:
//
//   - eq, neq: equality comparisons
//   - gt, gte, lt, lte: ordered comparisons
//   - in, not_in: membership against a list value
//   - contains: list membership, substring, or map-key presence
//   - exists: value is truthy (non-nil, non-empty, non-zero)
//   - present: the source key exists regardless of value
//   - not_exists: value is falsy or missing
//   - empty, not_empty: collection size checks
//   - mod: modulo check, e.g. turn_count % 5 == 0
//
// Evaluation is total: it never panics and never returns an error. Type
// mismatches and invalid operations evaluate to false; an unknown operator
// evaluates to true and is logged. The engine relies on this to keep a
// misconfigured condition from poisoning a turn.
package condition

import (
	"log/slog"
	"strings"

	"github.com/murmurlabs/chorus/blackboard"
)

// Mode values for an Expression.
const (
	// ModeAll requires every rule to pass.
	ModeAll = "all"
	// ModeAny requires at least one rule to pass.
	ModeAny = "any"
)

// Expression is a set of rules combined under a mode. A nil Expression or
// one with no rules is vacuously true.
type Expression struct {
	// Mode is "all" or "any". Defaults to "all" when empty; an unknown
	// mode evaluates to true.
	Mode string `json:"mode,omitempty" mapstructure:"mode"`

	// Rules are the individual predicates.
	Rules []Rule `json:"rules,omitempty" mapstructure:"rules"`
}

// Rule is a single predicate. Exactly one source field (Var, Fact, Queue,
// Memory, Meta) should be set; sources are checked in that order and the
// first non-empty one wins. A rule with no source never resolves a value
// and therefore fails every value-dependent operator.
type Rule struct {
	// Var resolves against blackboard variables.
	Var string `json:"var,omitempty" mapstructure:"var"`

	// Fact resolves to the value of the deduped fact of this type.
	Fact string `json:"fact,omitempty" mapstructure:"fact"`

	// FactKey narrows a Fact lookup to a (type, key) pair.
	FactKey string `json:"fact_key,omitempty" mapstructure:"fact_key"`

	// Queue resolves to the named queue's item list (empty when absent).
	Queue string `json:"queue,omitempty" mapstructure:"queue"`

	// Memory resolves against the evaluating agent's private memory. A
	// dotted key "other.k" resolves key k against agent other's memory.
	Memory string `json:"memory,omitempty" mapstructure:"memory"`

	// Meta resolves against engine-supplied metadata (turn_count, phase,
	// trigger_type, session_id).
	Meta string `json:"meta,omitempty" mapstructure:"meta"`

	// Op is the operator. Defaults to "eq" when empty.
	Op string `json:"op,omitempty" mapstructure:"op"`

	// Value is the expected operand for binary operators.
	Value any `json:"value,omitempty" mapstructure:"value"`

	// Result is the expected remainder for the mod operator (default 0).
	Result any `json:"result,omitempty" mapstructure:"result"`
}

// Evaluator evaluates trigger conditions against blackboard state.
// The zero value is usable; New sets a logger.
type Evaluator struct {
	logger *slog.Logger
}

// New creates an Evaluator that logs through the given logger. A nil logger
// falls back to slog.Default().
func New(logger *slog.Logger) *Evaluator {
	return &Evaluator{logger: logger}
}

func (ev *Evaluator) log() *slog.Logger {
	if ev.logger != nil {
		return ev.logger
	}
	return slog.Default()
}

// Evaluate reports whether the expression passes against the given
// blackboard and metadata. agentID scopes memory-source rules. A nil
// expression or empty rule list passes.
func (ev *Evaluator) Evaluate(expr *Expression, bb *blackboard.Blackboard, meta map[string]any, agentID string) bool {
	if expr == nil || len(expr.Rules) == 0 {
		return true
	}

	mode := expr.Mode
	if mode == "" {
		mode = ModeAll
	}

	switch mode {
	case ModeAll:
		for _, r := range expr.Rules {
			if !ev.evaluateRule(r, bb, meta, agentID) {
				return false
			}
		}
		return true
	case ModeAny:
		for _, r := range expr.Rules {
			if ev.evaluateRule(r, bb, meta, agentID) {
				return true
			}
		}
		return false
	}
	return true
}

// evaluateRule evaluates one rule. It never panics: a recover barrier maps
// any internal failure to false.
func (ev *Evaluator) evaluateRule(r Rule, bb *blackboard.Blackboard, meta map[string]any, agentID string) (pass bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ev.log().Debug("condition rule recovered", "panic", rec, "op", r.Op)
			pass = false
		}
	}()

	actual, keyExists := ev.resolve(r, bb, meta, agentID)
	op := r.Op
	if op == "" {
		op = "eq"
	}
	return ev.compare(actual, op, r, keyExists)
}

// resolve extracts the rule's value and key existence from its source
// container. keyExists is true when the key is present regardless of the
// stored value, which backs the "present" operator.
func (ev *Evaluator) resolve(r Rule, bb *blackboard.Blackboard, meta map[string]any, agentID string) (actual any, keyExists bool) {
	if bb == nil {
		bb = blackboard.New()
	}

	switch {
	case r.Var != "":
		return bb.Var(r.Var)

	case r.Fact != "":
		f, ok := bb.Fact(r.Fact, r.FactKey)
		if !ok {
			return nil, false
		}
		return f.Value, true

	case r.Queue != "":
		items := bb.Queue(r.Queue)
		exists := bb.HasQueue(r.Queue)
		if items == nil {
			items = []any{}
		}
		return items, exists

	case r.Memory != "":
		owner, key := agentID, r.Memory
		if before, after, found := strings.Cut(r.Memory, "."); found {
			owner, key = before, after
		}
		mem := bb.Memory(owner)
		v, ok := mem[key]
		return v, ok

	case r.Meta != "":
		v, ok := meta[r.Meta]
		return v, ok
	}
	return nil, false
}
