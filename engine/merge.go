package engine

import (
	"context"
	"sort"

	"github.com/murmurlabs/chorus/agent"
	"github.com/murmurlabs/chorus/blackboard"
	"github.com/murmurlabs/chorus/schema"
)

// merge applies the phase's successful responses to the live blackboard and
// the aggregate response, in ascending (priority, registration index)
// order: higher priority writes last and therefore wins under
// last-write-wins, and within equal priority the later-registered agent
// wins. It returns the events emitted this phase.
//
// Failed agents contribute only their error insight; every other container
// of a failed response is discarded (atomic failure). Skipped agents
// contribute nothing.
func (e *Engine) merge(ctx context.Context, phase int, bb *blackboard.Blackboard, final *schema.Response, selected []*registration, results []*agent.Result) []schema.Event {
	type entry struct {
		reg *registration
		res *agent.Result
	}

	var ordered []entry
	for i, res := range results {
		if res == nil {
			continue
		}
		if res.Err != nil {
			// Atomic failure: surface the error insight, drop the rest.
			if res.Response != nil {
				final.Insights = append(final.Insights, res.Response.Insights...)
			}
			continue
		}
		if !res.Merged() {
			continue
		}
		ordered = append(ordered, entry{reg: selected[i], res: res})
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		pi := ordered[i].reg.agent.Config().Priority
		pj := ordered[j].reg.agent.Config().Priority
		if pi != pj {
			return pi < pj
		}
		return ordered[i].reg.index < ordered[j].reg.index
	})

	var emitted []schema.Event
	for _, ent := range ordered {
		resp := ent.res.Response
		cfg := ent.reg.agent.Config()

		final.Insights = append(final.Insights, resp.Insights...)

		e.mergeVariables(bb, final, cfg.ID, resp)

		for name, items := range resp.QueuePushes {
			if len(items) == 0 {
				continue
			}
			bb.PushQueueItems(name, items)
			final.QueuePushes[name] = append(final.QueuePushes[name], items...)
		}

		for _, fact := range resp.Facts {
			if fact.SourceAgent == "" {
				fact.SourceAgent = cfg.ID
			}
			bb.AddFact(fact)
			final.Facts = append(final.Facts, fact)
		}

		if len(resp.MemoryUpdates) > 0 {
			bb.UpdateMemory(cfg.ID, resp.MemoryUpdates)
		}

		for _, ev := range resp.Events {
			if ev.SourceAgent == "" {
				ev.SourceAgent = cfg.ID
			}
			bb.EmitEvent(ev)
			final.Events = append(final.Events, ev)
			emitted = append(emitted, ev)
		}

		mergeData(final.Data, resp.Data)
	}

	names := eventNames(emitted)
	e.hooks.EmitPhaseEnd(ctx, e.logger, phase, names)
	return emitted
}

// mergeVariables applies a response's variable writes. Agents written
// against the legacy schema populate StateUpdates instead of
// VariableUpdates; those entries are treated as variable writes, except
// that a "memory_<agent_id>" key holding a map is routed to the agent's
// private memory namespace.
func (e *Engine) mergeVariables(bb *blackboard.Blackboard, final *schema.Response, agentID string, resp *schema.Response) {
	updates := resp.VariableUpdates
	if len(updates) == 0 && len(resp.StateUpdates) > 0 {
		memoryKey := "memory_" + agentID
		for k, v := range resp.StateUpdates {
			if k == memoryKey {
				if m, ok := v.(map[string]any); ok {
					bb.UpdateMemory(agentID, m)
					continue
				}
			}
			bb.SetVar(k, v)
			final.VariableUpdates[k] = v
		}
		return
	}
	for k, v := range updates {
		bb.SetVar(k, v)
		final.VariableUpdates[k] = v
	}
}

// mergeData merges a response's data sidecar into the aggregate: disjoint
// keys are copied, list-valued conflicts are concatenated, and anything
// else is last-writer-wins.
func mergeData(dst, src map[string]any) {
	for k, v := range src {
		existing, ok := dst[k]
		if !ok {
			dst[k] = v
			continue
		}
		existingList, eok := existing.([]any)
		incomingList, iok := v.([]any)
		if eok && iok {
			dst[k] = append(existingList, incomingList...)
			continue
		}
		dst[k] = v
	}
}
