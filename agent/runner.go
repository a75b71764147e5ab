package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/murmurlabs/chorus/core"
	"github.com/murmurlabs/chorus/schema"
)

// Result is the outcome of one lifecycle-wrapped agent invocation.
type Result struct {
	// Agent is the invoked agent.
	Agent Agent

	// Response is the agent's output. On failure it carries only the
	// error insight; the merge step must not apply it.
	Response *schema.Response

	// Err is non-nil when Evaluate returned an error or panicked. The
	// agent's entire response is then discarded by the merge.
	Err error

	// SkipReason is one of the Skip* constants when the lifecycle skipped
	// the agent before evaluation.
	SkipReason string

	// Duration is the wall-clock evaluation time.
	Duration time.Duration
}

// Ran reports whether the agent actually evaluated (successfully or not).
func (r *Result) Ran() bool {
	return r.SkipReason == ""
}

// Merged reports whether the result's response is eligible for merging.
func (r *Result) Merged() bool {
	return r.Ran() && r.Err == nil && r.Response != nil
}

// Runner wraps Evaluate in the agent lifecycle: trigger-type check,
// cooldown enforcement, observer callbacks, and error capture. The engine
// decides trigger eligibility and conditions before handing an agent to the
// Runner.
type Runner struct {
	hooks  Hooks
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner creates a Runner. A nil logger falls back to slog.Default();
// a nil clock falls back to time.Now.
func NewRunner(hooks Hooks, logger *slog.Logger, now func() time.Time) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Runner{hooks: hooks, logger: logger, now: now}
}

// Run executes the lifecycle for one agent:
//
//  1. Trigger-type check (bypassed by force; the engine already filters, so
//     this is a compatibility backstop).
//  2. Cooldown check against st.LastRun with any per-turn override applied
//     (bypassed by force).
//  3. OnAgentStart, Evaluate, OnAgentFinish.
//  4. On failure the returned Result carries the error and a response whose
//     only content is an error-typed insight naming the agent.
//
// st.LastRun is updated only when Evaluate returns cleanly.
func (r *Runner) Run(ctx context.Context, ag Agent, st *State, tc *Context) *Result {
	cfg := ag.Config()
	now := r.now()
	force := tc.TriggerType == schema.TriggerForce

	// Second-phase invocations arrive via event subscription, which implies
	// eligibility regardless of the agent's declared trigger types.
	if !force && tc.Phase <= 1 && !cfg.HandlesTrigger(tc.TriggerType) {
		r.hooks.EmitAgentSkipped(ctx, r.logger, cfg.Name, SkipTriggerTypeMismatch)
		return &Result{Agent: ag, SkipReason: SkipTriggerTypeMismatch}
	}

	if !force {
		cooldown := cfg.EffectiveCooldown(tc.Override(cfg.ID))
		if !st.LastRun.IsZero() && now.Sub(st.LastRun) < cooldown {
			r.hooks.EmitAgentSkipped(ctx, r.logger, cfg.Name, SkipCooldownActive)
			return &Result{Agent: ag, SkipReason: SkipCooldownActive}
		}
	}

	r.hooks.EmitAgentStart(ctx, r.logger, cfg.Name, tc)

	start := r.now()
	resp, err := safeEvaluate(ctx, ag, tc)
	duration := r.now().Sub(start)

	if err != nil {
		r.logger.Error("agent evaluation failed", "agent", cfg.Name, "error", err)
		r.hooks.EmitAgentError(ctx, r.logger, cfg.Name, err)
		r.hooks.EmitAgentFinish(ctx, r.logger, cfg.Name, nil, duration)

		errResp := schema.NewResponse()
		errResp.Insights = append(errResp.Insights, schema.NewInsight(
			cfg.ID, cfg.Name, schema.InsightError,
			fmt.Sprintf("Agent %q encountered an error: %v", cfg.Name, err), 1.0,
		))
		return &Result{
			Agent:    ag,
			Response: errResp,
			Err:      core.NewError("agent.run", core.ErrAgentFailed, cfg.Name, err),
			Duration: duration,
		}
	}

	st.LastRun = now
	r.hooks.EmitAgentFinish(ctx, r.logger, cfg.Name, resp, duration)
	return &Result{Agent: ag, Response: resp, Duration: duration}
}

// safeEvaluate calls Evaluate behind a recover barrier so a panicking agent
// degrades to a failed one instead of taking the turn down.
func safeEvaluate(ctx context.Context, ag Agent, tc *Context) (resp *schema.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return ag.Evaluate(ctx, tc)
}
