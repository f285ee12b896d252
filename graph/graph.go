// Package graph implements the turn execution engine: a finite-state
// orchestration graph (classify → route → tool executor loop → synthesize)
// driving a core.TurnState to completion. The model client and tool registry
// are injected at construction; the package keeps no process-wide state, so
// multiple independently configured graphs can coexist in one process.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/turnwise/turnwise/core"
	"github.com/turnwise/turnwise/logging"
	"github.com/turnwise/turnwise/model"
	"github.com/turnwise/turnwise/team"
	"github.com/turnwise/turnwise/tool"
)

// Stage identifies one node of the orchestration graph.
type Stage string

const (
	// StageStart is the entry pseudo-stage; it performs no work.
	StageStart Stage = "start"
	// StageClassify optionally picks a team for tool filtering.
	StageClassify Stage = "classify"
	// StageRoute decides between direct answer, tool use and clarification.
	StageRoute Stage = "route"
	// StageExecuteTools runs requested tool calls and loops on itself.
	StageExecuteTools Stage = "execute_tools"
	// StageSynthesize produces the final answer.
	StageSynthesize Stage = "synthesize"
	// StageEnd is the terminal pseudo-stage.
	StageEnd Stage = "end"
)

// Monitor receives model call timings. Like the tool monitor it is
// fire-and-forget: failures are swallowed and never affect the run.
type Monitor interface {
	RecordModelCall(provider string, elapsed time.Duration, err error)
}

// NopMonitor discards all reports.
type NopMonitor struct{}

// RecordModelCall implements Monitor.
func (NopMonitor) RecordModelCall(string, time.Duration, error) {}

// Options configure a Graph.
type Options struct {
	// UseClassifier enables the optional team classification stage.
	UseClassifier bool
	// TeamFilter narrows the tool schemas offered per team.
	TeamFilter team.Filter
	// InvokeTimeout bounds each tool call made by the executor stage.
	InvokeTimeout time.Duration
	// MaxCallDepth bounds tool composition during executor passes.
	MaxCallDepth int
	// Logger for structured stage logging.
	Logger logging.Logger
	// Monitor receives model call timings.
	Monitor Monitor
}

// Graph is the compiled orchestration state machine. It is immutable after
// construction and safe to share across concurrent runs; all mutable state
// lives in the per-run core.TurnState.
type Graph struct {
	model    model.Model
	registry *tool.Registry
	opts     Options
}

// New builds a Graph over the given model and registry.
func New(m model.Model, registry *tool.Registry, optFns ...func(o *Options)) *Graph {
	opts := Options{
		UseClassifier: true,
		TeamFilter:    team.Default,
		InvokeTimeout: tool.DefaultInvokeTimeout,
		MaxCallDepth:  tool.DefaultMaxCallDepth,
		Logger:        logging.NoOpLogger{},
		Monitor:       NopMonitor{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Graph{model: m, registry: registry, opts: opts}
}

// Run drives the state machine from start to end, mutating st in place.
// Stages run strictly sequentially; only tool calls within one executor pass
// run concurrently. A model call failure aborts the run and is returned to
// the caller; tool failures are fed back into the history and never abort.
func (g *Graph) Run(ctx context.Context, st *core.TurnState) error {
	stage := StageStart
	for stage != StageEnd {
		next, err := g.step(ctx, st, stage)
		if err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}
		stage = next
	}
	return nil
}

// Snapshot pairs an executed stage with the state it produced.
type Snapshot struct {
	Stage Stage
	State *core.TurnState
}

// Stream runs the state machine like Run but yields a state snapshot after
// every productive stage, in execution order, with no stage skipped or
// reordered. The snapshot channel closes when the run terminates; the error
// channel carries at most one terminal error and then closes.
func (g *Graph) Stream(ctx context.Context, st *core.TurnState) (<-chan Snapshot, <-chan error) {
	snapshots := make(chan Snapshot, 8)
	errs := make(chan error, 1)

	go func() {
		defer close(snapshots)
		defer close(errs)

		stage := StageStart
		for stage != StageEnd {
			next, err := g.step(ctx, st, stage)
			if err != nil {
				errs <- fmt.Errorf("stage %s: %w", stage, err)
				return
			}
			if stage != StageStart {
				select {
				case snapshots <- Snapshot{Stage: stage, State: st.Clone()}:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
			stage = next
		}
	}()

	return snapshots, errs
}

// step executes one stage and returns the next one.
func (g *Graph) step(ctx context.Context, st *core.TurnState, stage Stage) (Stage, error) {
	switch stage {
	case StageStart:
		if g.opts.UseClassifier && st.Team == "" {
			return StageClassify, nil
		}
		return StageRoute, nil
	case StageClassify:
		return g.classify(ctx, st)
	case StageRoute:
		return g.route(ctx, st)
	case StageExecuteTools:
		return g.executeTools(ctx, st)
	case StageSynthesize:
		return g.synthesize(ctx, st)
	default:
		return StageEnd, fmt.Errorf("unknown stage %q", stage)
	}
}

// generate performs one model call, reporting latency to the monitor.
func (g *Graph) generate(ctx context.Context, instructions string, msgs []core.Message, tools []tool.Schema) (*model.Response, error) {
	start := time.Now()
	resp, err := g.model.Generate(ctx, model.Request{
		Instructions: instructions,
		Messages:     msgs,
		Tools:        tools,
	})

	m := g.opts.Monitor
	elapsed := time.Since(start)
	go func() {
		defer func() { _ = recover() }()
		m.RecordModelCall(g.model.Info().Provider, elapsed, err)
	}()

	return resp, err
}
