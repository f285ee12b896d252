package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/turnwise/turnwise/core"
	"github.com/turnwise/turnwise/internal/util"
	"github.com/turnwise/turnwise/team"
	"github.com/turnwise/turnwise/tool"
)

// How much of the conversation the decision stages see. The executor and
// synthesizer always see the full history.
const (
	routerHistoryWindow   = 20
	decisionMessageWindow = 6
	toolResultTextLimit   = 2000
)

// classify picks a team label for tool filtering. Anything outside the known
// team set (including empty output) coerces to "general". A model failure
// here is unrecoverable for the turn and surfaces to the run caller.
func (g *Graph) classify(ctx context.Context, st *core.TurnState) (Stage, error) {
	safe := Reduce(tail(st.History, decisionMessageWindow))

	resp, err := g.generate(ctx, classifierInstructions, safe, nil)
	if err != nil {
		return StageEnd, err
	}

	picked := strings.ToLower(strings.TrimSpace(resp.Text))
	if _, known := g.opts.TeamFilter[picked]; !known {
		picked = team.General
	}
	st.Team = picked

	g.opts.Logger.Info("graph.classify.decided", "team", st.Team)
	return StageRoute, nil
}

// route decides how the turn proceeds. Unrecognized router output coerces to
// tool_use: when uncertain, attempt tool use rather than answer blind.
func (g *Graph) route(ctx context.Context, st *core.TurnState) (Stage, error) {
	safe := Reduce(tail(st.History, routerHistoryWindow))
	msgs := tail(safe, decisionMessageWindow)

	resp, err := g.generate(ctx, routerInstructions, msgs, nil)
	if err != nil {
		return StageEnd, err
	}

	switch core.Route(strings.ToLower(strings.TrimSpace(resp.Text))) {
	case core.RouteDirect:
		st.Route = core.RouteDirect
	case core.RouteClarification:
		st.Route = core.RouteClarification
	default:
		st.Route = core.RouteToolUse
	}

	g.opts.Logger.Info("graph.route.decided", "route", string(st.Route))

	if st.Route == core.RouteToolUse {
		return StageExecuteTools, nil
	}
	return StageSynthesize, nil
}

// executeTools runs one pass of the tool loop. At the loop ceiling it forces
// synthesis with a fallback answer without calling the model, so termination
// never depends on model behavior. Otherwise it asks the model for tool
// calls against the (team-filtered) schemas and executes all requested calls
// concurrently, appending each result to the history in request order.
func (g *Graph) executeTools(ctx context.Context, st *core.TurnState) (Stage, error) {
	if st.LoopCount >= st.LoopLimit {
		g.opts.Logger.Warn("graph.execute.loop_limit", "loop_count", st.LoopCount)
		st.Route = core.RouteSynthesize
		st.Answer = StepLimitAnswer
		return StageSynthesize, nil
	}

	schemas := g.registry.Schemas()
	if st.Team != "" {
		schemas = g.opts.TeamFilter.Allowed(schemas, st.Team)
	}

	resp, err := g.generate(ctx, executorInstructions, st.History, schemas)
	if err != nil {
		return StageEnd, err
	}

	if len(resp.ToolCalls) == 0 {
		st.Route = core.RouteSynthesize
		return StageSynthesize, nil
	}

	calls := make([]core.ToolCall, len(resp.ToolCalls))
	copy(calls, resp.ToolCalls)
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = util.NewID()
		}
	}

	// All calls of one pass run concurrently; results land at their request
	// index so history and log order match request order.
	results := make([]tool.Result, len(calls))
	var wg sync.WaitGroup
	for i := range calls {
		wg.Add(1)
		go func(idx int, call core.ToolCall) {
			defer wg.Done()
			results[idx] = g.registry.Invoke(ctx, call.Name, call.Arguments,
				tool.WithTimeout(g.opts.InvokeTimeout),
				tool.WithMaxCallDepth(g.opts.MaxCallDepth),
			)
		}(i, calls[i])
	}
	wg.Wait()

	st.Append(core.Message{Role: core.RoleAssistant, Text: resp.Text, ToolCalls: calls})
	for i, call := range calls {
		res := results[i]
		st.Append(core.ToolMessage(call.ID, resultText(res)))
		st.Record(core.Invocation{
			Tool:      call.Name,
			CallID:    call.ID,
			Arguments: call.Arguments,
			Success:   res.Success,
			Data:      res.Data,
			Error:     res.ErrorText,
			Elapsed:   res.Elapsed,
		})
	}

	// One increment per pass, not per call.
	st.LoopCount++
	st.Route = core.RouteToolUse

	g.opts.Logger.Info("graph.execute.pass_done", "calls", len(calls), "loop_count", st.LoopCount)
	return StageExecuteTools, nil
}

// synthesize produces the final answer from the reduced history. Empty model
// output keeps whatever answer is already set (the step-limit fallback) so a
// limited turn still ends gracefully.
func (g *Graph) synthesize(ctx context.Context, st *core.TurnState) (Stage, error) {
	safe := Reduce(st.History)

	resp, err := g.generate(ctx, synthesizerInstructions, safe, nil)
	if err != nil {
		return StageEnd, err
	}

	if answer := strings.TrimSpace(resp.Text); answer != "" {
		st.Answer = answer
	}
	st.Append(core.AssistantMessage(st.Answer))

	g.opts.Logger.Info("graph.synthesize.done", "answer_len", len(st.Answer))
	return StageEnd, nil
}

// resultText renders a tool result as the short plain text the model sees.
// Successful results prefer a "summary" field when the payload provides one.
func resultText(res tool.Result) string {
	if !res.Success {
		if res.ErrorText != "" {
			return "Error: " + res.ErrorText
		}
		return "Tool failed."
	}
	switch data := res.Data.(type) {
	case nil:
		return "OK."
	case string:
		return truncate(data, toolResultTextLimit)
	case map[string]any:
		if summary, ok := data["summary"].(string); ok && summary != "" {
			return summary
		}
		return truncate(fmt.Sprintf("%v", data), toolResultTextLimit)
	default:
		return truncate(fmt.Sprintf("%v", data), toolResultTextLimit)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
