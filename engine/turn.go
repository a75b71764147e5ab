package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/murmurlabs/chorus/agent"
	"github.com/murmurlabs/chorus/blackboard"
	"github.com/murmurlabs/chorus/core"
	"github.com/murmurlabs/chorus/o11y"
	"github.com/murmurlabs/chorus/schema"
)

// turnOptions collects the per-turn parameters of ProcessTurn.
type turnOptions struct {
	trigger  schema.TriggerType
	allowed  []string
	metadata map[string]any
}

// TurnOption configures a single ProcessTurn call.
type TurnOption func(*turnOptions)

// WithTrigger sets the turn's trigger type. Defaults to turn_based.
func WithTrigger(t schema.TriggerType) TurnOption {
	return func(o *turnOptions) {
		o.trigger = t
	}
}

// WithAllowedIDs restricts the turn to the given agent IDs. A nil list (the
// default) admits all agents; an empty list admits none. The allow-list is
// honored even under the force trigger.
func WithAllowedIDs(ids []string) TurnOption {
	return func(o *turnOptions) {
		o.allowed = ids
	}
}

// WithTriggerMetadata attaches trigger specifics, e.g. the matched keyword
// or the measured silence duration.
func WithTriggerMetadata(metadata map[string]any) TurnOption {
	return func(o *turnOptions) {
		o.metadata = metadata
	}
}

// ProcessTurn runs one scheduling cycle: stamp the context, select eligible
// agents, fan them out against a blackboard snapshot, merge their responses
// in priority order, dispatch emitted events to subscribers as a second
// phase, clear transient events, and return the aggregate response.
//
// ProcessTurn never returns nil and never panics outward; engine faults are
// reported through OnChainError and an error insight on the response.
func (e *Engine) ProcessTurn(ctx context.Context, tc *agent.Context, opts ...TurnOption) (resp *schema.Response) {
	topt := turnOptions{trigger: schema.TriggerTurnBased}
	for _, opt := range opts {
		opt(&topt)
	}

	final := schema.NewResponse()
	resp = final
	start := e.now()

	if tc == nil {
		tc = &agent.Context{}
	}
	tc.TriggerType = topt.trigger
	if topt.metadata != nil {
		tc.TriggerMetadata = topt.metadata
	} else {
		tc.TriggerMetadata = map[string]any{}
	}
	if tc.Blackboard == nil {
		tc.Blackboard = blackboard.New()
	}
	bb := tc.Blackboard

	bb.SetVar("sys.turn_count", tc.TurnCount)
	bb.SetVar("sys.session_id", tc.SessionID)
	bb.SetVar("sys.trigger_type", string(topt.trigger))
	tc.SharedState = bb.Variables()

	ctx, span := o11y.StartSpan(ctx, "chorus.turn", map[string]string{
		o11y.AttrSessionID:   tc.SessionID,
		o11y.AttrTriggerType: string(topt.trigger),
	})

	finalize := func() {
		bb.ClearEvents()
		for k, v := range final.VariableUpdates {
			final.StateUpdates[k] = v
		}
		tc.SharedState = bb.Variables()
		duration := e.now().Sub(start)
		o11y.RecordTurn(ctx, string(topt.trigger), duration)
		e.hooks.EmitTurnEnd(ctx, e.logger, final, duration)
		o11y.EndSpan(span, nil)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := core.NewError("engine.process_turn", core.ErrAgentFailed,
				fmt.Sprintf("turn processing fault: %v", rec), nil)
			e.logger.Error("turn processing fault", "error", err)
			e.hooks.EmitChainError(ctx, e.logger, err)
			final.Insights = append(final.Insights, schema.NewInsight(
				"system", "System", schema.InsightError,
				fmt.Sprintf("Turn processing fault: %v", rec), 1.0,
			))
			finalize()
		}
	}()

	e.hooks.EmitTurnStart(ctx, e.logger, tc)

	e.mu.RLock()
	roster := make([]*registration, len(e.agents))
	copy(roster, e.agents)
	e.mu.RUnlock()

	selected := e.selectPhase1(ctx, roster, bb, tc, topt)

	var pending []schema.Event
	if len(selected) > 0 {
		results := e.runPhase(ctx, 1, selected, tc)
		pending = e.merge(ctx, 1, bb, final, selected, results)
	} else {
		e.logger.Debug("no agents eligible", "trigger", topt.trigger)
	}

	for phase := 2; phase <= e.maxPhases && len(pending) > 0; phase++ {
		names := eventNames(pending)
		o11y.RecordEventsDispatched(ctx, len(pending))

		subscribers := e.selectSubscribers(ctx, roster, names, bb, tc, topt, phase)
		if len(subscribers) == 0 {
			break
		}
		results := e.runPhase(ctx, phase, subscribers, tc)
		pending = e.merge(ctx, phase, bb, final, subscribers, results)
	}

	finalize()
	return final
}

// selectPhase1 applies the three phase-1 eligibility checks: allow-list,
// trigger-type match, and trigger conditions. The force trigger bypasses
// the latter two but never the allow-list.
func (e *Engine) selectPhase1(ctx context.Context, roster []*registration, bb *blackboard.Blackboard, tc *agent.Context, topt turnOptions) []*registration {
	meta := conditionMeta(tc, topt.trigger, 1)
	force := topt.trigger == schema.TriggerForce

	var selected []*registration
	for _, reg := range roster {
		cfg := reg.agent.Config()

		if topt.allowed != nil && !containsID(topt.allowed, cfg.ID) {
			e.hooks.EmitAgentSkipped(ctx, e.logger, cfg.Name, agent.SkipNotInAllowList)
			continue
		}
		if !force && !cfg.HandlesTrigger(topt.trigger) {
			e.hooks.EmitAgentSkipped(ctx, e.logger, cfg.Name, agent.SkipTriggerTypeMismatch)
			continue
		}
		if !force && !e.evaluator.Evaluate(cfg.Conditions, bb, meta, cfg.ID) {
			e.hooks.EmitAgentSkipped(ctx, e.logger, cfg.Name, agent.SkipConditionsNotMet)
			continue
		}
		selected = append(selected, reg)
	}
	return selected
}

// selectSubscribers picks second-phase candidates: agents subscribed to at
// least one emitted event name that pass the allow-list and their trigger
// conditions under the post-merge blackboard. Subscription implies
// eligibility; the agent's trigger types are not consulted.
func (e *Engine) selectSubscribers(ctx context.Context, roster []*registration, names []string, bb *blackboard.Blackboard, tc *agent.Context, topt turnOptions, phase int) []*registration {
	meta := conditionMeta(tc, topt.trigger, phase)

	var selected []*registration
	for _, reg := range roster {
		cfg := reg.agent.Config()

		subscribed := false
		for _, name := range names {
			if cfg.SubscribesTo(name) {
				subscribed = true
				break
			}
		}
		if !subscribed {
			continue
		}
		if topt.allowed != nil && !containsID(topt.allowed, cfg.ID) {
			e.hooks.EmitAgentSkipped(ctx, e.logger, cfg.Name, agent.SkipNotInAllowList)
			continue
		}
		if !e.evaluator.Evaluate(cfg.Conditions, bb, meta, cfg.ID) {
			e.hooks.EmitAgentSkipped(ctx, e.logger, cfg.Name, agent.SkipConditionsNotMet)
			continue
		}
		selected = append(selected, reg)
	}
	return selected
}

// runPhase snapshots the blackboard and fans the selected agents out in
// parallel against it. All agents complete before the phase returns; the
// merge is a barrier.
func (e *Engine) runPhase(ctx context.Context, phase int, selected []*registration, tc *agent.Context) []*agent.Result {
	snap := tc.Blackboard.Snapshot()
	ptc := tc.WithPhase(phase, snap)

	names := make([]string, len(selected))
	for i, reg := range selected {
		names[i] = reg.agent.Config().Name
	}

	ctx, span := o11y.StartSpan(ctx, "chorus.phase", map[string]string{
		o11y.AttrPhase: strconv.Itoa(phase),
	})
	o11y.SetIntAttr(span, o11y.AttrAgentCount, len(selected))
	defer o11y.EndSpan(span, nil)

	e.hooks.EmitPhaseStart(ctx, e.logger, phase, names)

	results := make([]*agent.Result, len(selected))
	var wg sync.WaitGroup
	for i, reg := range selected {
		wg.Add(1)
		go func(i int, reg *registration) {
			defer wg.Done()
			result := e.runner.Run(ctx, reg.agent, &reg.state, ptc)
			o11y.RecordAgentRun(ctx, reg.agent.Config().Name, result.Duration, result.Err != nil)
			results[i] = result
		}(i, reg)
	}
	wg.Wait()

	return results
}

// conditionMeta builds the engine-supplied metadata visible to meta-source
// condition rules.
func conditionMeta(tc *agent.Context, trigger schema.TriggerType, phase int) map[string]any {
	return map[string]any{
		"turn_count":   tc.TurnCount,
		"phase":        phase,
		"trigger_type": string(trigger),
		"session_id":   tc.SessionID,
	}
}

// eventNames returns the unique names of the given events, in first-seen
// order.
func eventNames(events []schema.Event) []string {
	seen := make(map[string]bool, len(events))
	var names []string
	for _, ev := range events {
		if !seen[ev.Name] {
			seen[ev.Name] = true
			names = append(names, ev.Name)
		}
	}
	return names
}
