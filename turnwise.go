// Package turnwise provides a high-level façade over the turn execution
// engine (graph, tool registry, conversation store and logging), enabling
// quick construction of a tool-using conversational agent. Most applications
// interact with this package by:
//  1. Creating an Engine via New() with a model adapter (optionally overriding
//     the default in-memory store, team filter or tool set)
//  2. Registering extra tools on Registry()
//  3. Executing turns synchronously (Run) or stage-by-stage (Stream)
//
// The façade delegates orchestration to graph.Graph and persistence to the
// runner. All defaults are safe for local development and testing; production
// deployments typically supply a durable store and a structured logger.
package turnwise

import (
	"context"
	"fmt"
	"time"

	"github.com/turnwise/turnwise/core"
	"github.com/turnwise/turnwise/graph"
	"github.com/turnwise/turnwise/logging"
	"github.com/turnwise/turnwise/model"
	"github.com/turnwise/turnwise/runner"
	"github.com/turnwise/turnwise/store"
	"github.com/turnwise/turnwise/team"
	"github.com/turnwise/turnwise/tool"
	"github.com/turnwise/turnwise/tool/builtin"
)

// Options configure an Engine.
type Options struct {
	// Store persists conversations (defaults to in-memory).
	Store store.Store
	// Logger defaults to NoOp.
	Logger logging.Logger
	// ToolMonitor receives tool execution reports.
	ToolMonitor tool.Monitor
	// ModelMonitor receives model call timings.
	ModelMonitor graph.Monitor
	// TeamFilter narrows tool visibility per team.
	TeamFilter team.Filter
	// UseClassifier enables the team classification stage.
	UseClassifier bool
	// LoopLimit caps tool executor passes per turn.
	LoopLimit int
	// InvokeTimeout bounds each tool call made during a turn. Non-positive
	// values fall back to tool.DefaultInvokeTimeout.
	InvokeTimeout time.Duration
	// SkipBuiltins leaves the registry empty for callers that supply their
	// own tool set.
	SkipBuiltins bool
	// BuiltinOptions tune the built-in tool set (workspace dir, HTTP client).
	BuiltinOptions []func(o *builtin.Options)
}

// Engine aggregates the registry, graph and runner behind one handle.
type Engine struct {
	registry *tool.Registry
	graph    *graph.Graph
	runner   *runner.Runner
}

// New assembles an engine around the given model adapter. Any unset service
// falls back to an in-memory or no-op implementation.
func New(m model.Model, optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{
		Store:         store.NewInMemory(),
		Logger:        logging.NoOpLogger{},
		ToolMonitor:   tool.NopMonitor{},
		ModelMonitor:  graph.NopMonitor{},
		TeamFilter:    team.Default,
		UseClassifier: true,
		LoopLimit:     core.DefaultLoopLimit,
		InvokeTimeout: tool.DefaultInvokeTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.InvokeTimeout <= 0 {
		opts.InvokeTimeout = tool.DefaultInvokeTimeout
	}

	registry := tool.NewRegistry(func(o *tool.RegistryOptions) {
		o.Monitor = opts.ToolMonitor
		o.Logger = opts.Logger
		o.InvokeTimeout = opts.InvokeTimeout
	})
	if !opts.SkipBuiltins {
		if err := builtin.RegisterAll(registry, opts.BuiltinOptions...); err != nil {
			return nil, fmt.Errorf("register built-in tools: %w", err)
		}
	}

	g := graph.New(m, registry, func(o *graph.Options) {
		o.UseClassifier = opts.UseClassifier
		o.TeamFilter = opts.TeamFilter
		o.InvokeTimeout = opts.InvokeTimeout
		o.Logger = opts.Logger
		o.Monitor = opts.ModelMonitor
	})

	r := runner.New(g, func(o *runner.Options) {
		o.Store = opts.Store
		o.Logger = opts.Logger
		o.LoopLimit = opts.LoopLimit
	})

	return &Engine{registry: registry, graph: g, runner: r}, nil
}

// Registry exposes the tool registry for registering additional tools.
func (e *Engine) Registry() *tool.Registry { return e.registry }

// Runner exposes the underlying turn runner, e.g. for the scheduler.
func (e *Engine) Runner() *runner.Runner { return e.runner }

// Run executes one turn to completion.
func (e *Engine) Run(ctx context.Context, input string, optFns ...func(o *runner.RunOptions)) (*core.TurnState, error) {
	return e.runner.Run(ctx, input, optFns...)
}

// Stream executes one turn, yielding a snapshot after every stage.
func (e *Engine) Stream(ctx context.Context, input string, optFns ...func(o *runner.RunOptions)) (<-chan graph.Snapshot, <-chan error) {
	return e.runner.Stream(ctx, input, optFns...)
}
