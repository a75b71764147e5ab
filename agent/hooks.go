package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/murmurlabs/chorus/internal/hookutil"
	"github.com/murmurlabs/chorus/schema"
)

// Skip reasons reported through Hooks.OnAgentSkipped.
const (
	// SkipNotInAllowList means the host's allow-list excluded the agent.
	SkipNotInAllowList = "not_in_allow_list"

	// SkipTriggerTypeMismatch means the turn's trigger type is not in the
	// agent's trigger set.
	SkipTriggerTypeMismatch = "trigger_type_mismatch"

	// SkipConditionsNotMet means the agent's trigger conditions evaluated
	// false.
	SkipConditionsNotMet = "conditions_not_met"

	// SkipCooldownActive means the agent ran too recently.
	SkipCooldownActive = "cooldown_active"
)

// Hooks provides optional observer callbacks invoked during turn
// processing. All fields are optional; nil hooks are skipped. Hooks are
// observational only: they cannot abort processing, and a panic inside a
// hook is logged and swallowed. Hooks are composable via ComposeHooks.
type Hooks struct {
	// OnTurnStart is called when turn processing begins.
	OnTurnStart func(ctx context.Context, tc *Context)

	// OnTurnEnd is called when turn processing finishes with the aggregate
	// response and the turn duration.
	OnTurnEnd func(ctx context.Context, resp *schema.Response, duration time.Duration)

	// OnPhaseStart is called before a phase fans out, with the names of
	// the agents selected for it.
	OnPhaseStart func(ctx context.Context, phase int, agentNames []string)

	// OnPhaseEnd is called after a phase merges, with the names of the
	// events it emitted.
	OnPhaseEnd func(ctx context.Context, phase int, eventNames []string)

	// OnAgentStart is called when an individual agent begins evaluation.
	OnAgentStart func(ctx context.Context, name string, tc *Context)

	// OnAgentFinish is called when an individual agent finishes
	// evaluation. The response is nil when the agent declined the turn or
	// failed.
	OnAgentFinish func(ctx context.Context, name string, resp *schema.Response, duration time.Duration)

	// OnAgentError is called when an individual agent fails.
	OnAgentError func(ctx context.Context, name string, err error)

	// OnAgentSkipped is called when selection or the lifecycle skips an
	// agent, with one of the Skip* reasons.
	OnAgentSkipped func(ctx context.Context, name, reason string)

	// OnChainError is called when the engine itself faults mid-turn.
	OnChainError func(ctx context.Context, err error)
}

// ComposeHooks merges multiple Hooks into a single Hooks value.
// Callbacks are called in the order the hooks were provided.
func ComposeHooks(hooks ...Hooks) Hooks {
	h := append([]Hooks{}, hooks...)
	return Hooks{
		OnTurnStart: hookutil.ComposeVoid1(h, func(hk Hooks) func(context.Context, *Context) {
			return hk.OnTurnStart
		}),
		OnTurnEnd: hookutil.ComposeVoid2(h, func(hk Hooks) func(context.Context, *schema.Response, time.Duration) {
			return hk.OnTurnEnd
		}),
		OnPhaseStart: hookutil.ComposeVoid2(h, func(hk Hooks) func(context.Context, int, []string) {
			return hk.OnPhaseStart
		}),
		OnPhaseEnd: hookutil.ComposeVoid2(h, func(hk Hooks) func(context.Context, int, []string) {
			return hk.OnPhaseEnd
		}),
		OnAgentStart: hookutil.ComposeVoid2(h, func(hk Hooks) func(context.Context, string, *Context) {
			return hk.OnAgentStart
		}),
		OnAgentFinish: hookutil.ComposeVoid3(h, func(hk Hooks) func(context.Context, string, *schema.Response, time.Duration) {
			return hk.OnAgentFinish
		}),
		OnAgentError: hookutil.ComposeVoid2(h, func(hk Hooks) func(context.Context, string, error) {
			return hk.OnAgentError
		}),
		OnAgentSkipped: hookutil.ComposeVoid2(h, func(hk Hooks) func(context.Context, string, string) {
			return hk.OnAgentSkipped
		}),
		OnChainError: hookutil.ComposeVoid1(h, func(hk Hooks) func(context.Context, error) {
			return hk.OnChainError
		}),
	}
}

// emit runs fn behind a recover barrier. Observer faults are logged and
// never reach the engine.
func emit(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("observer hook panicked", "hook", name, "panic", rec)
		}
	}()
	fn()
}

// EmitTurnStart safely invokes OnTurnStart.
func (h Hooks) EmitTurnStart(ctx context.Context, logger *slog.Logger, tc *Context) {
	if h.OnTurnStart == nil {
		return
	}
	emit(logger, "on_turn_start", func() { h.OnTurnStart(ctx, tc) })
}

// EmitTurnEnd safely invokes OnTurnEnd.
func (h Hooks) EmitTurnEnd(ctx context.Context, logger *slog.Logger, resp *schema.Response, d time.Duration) {
	if h.OnTurnEnd == nil {
		return
	}
	emit(logger, "on_turn_end", func() { h.OnTurnEnd(ctx, resp, d) })
}

// EmitPhaseStart safely invokes OnPhaseStart.
func (h Hooks) EmitPhaseStart(ctx context.Context, logger *slog.Logger, phase int, agentNames []string) {
	if h.OnPhaseStart == nil {
		return
	}
	emit(logger, "on_phase_start", func() { h.OnPhaseStart(ctx, phase, agentNames) })
}

// EmitPhaseEnd safely invokes OnPhaseEnd.
func (h Hooks) EmitPhaseEnd(ctx context.Context, logger *slog.Logger, phase int, eventNames []string) {
	if h.OnPhaseEnd == nil {
		return
	}
	emit(logger, "on_phase_end", func() { h.OnPhaseEnd(ctx, phase, eventNames) })
}

// EmitAgentStart safely invokes OnAgentStart.
func (h Hooks) EmitAgentStart(ctx context.Context, logger *slog.Logger, name string, tc *Context) {
	if h.OnAgentStart == nil {
		return
	}
	emit(logger, "on_agent_start", func() { h.OnAgentStart(ctx, name, tc) })
}

// EmitAgentFinish safely invokes OnAgentFinish.
func (h Hooks) EmitAgentFinish(ctx context.Context, logger *slog.Logger, name string, resp *schema.Response, d time.Duration) {
	if h.OnAgentFinish == nil {
		return
	}
	emit(logger, "on_agent_finish", func() { h.OnAgentFinish(ctx, name, resp, d) })
}

// EmitAgentError safely invokes OnAgentError.
func (h Hooks) EmitAgentError(ctx context.Context, logger *slog.Logger, name string, err error) {
	if h.OnAgentError == nil {
		return
	}
	emit(logger, "on_agent_error", func() { h.OnAgentError(ctx, name, err) })
}

// EmitAgentSkipped safely invokes OnAgentSkipped.
func (h Hooks) EmitAgentSkipped(ctx context.Context, logger *slog.Logger, name, reason string) {
	if h.OnAgentSkipped == nil {
		return
	}
	emit(logger, "on_agent_skipped", func() { h.OnAgentSkipped(ctx, name, reason) })
}

// EmitChainError safely invokes OnChainError.
func (h Hooks) EmitChainError(ctx context.Context, logger *slog.Logger, err error) {
	if h.OnChainError == nil {
		return
	}
	emit(logger, "on_chain_error", func() { h.OnChainError(ctx, err) })
}
