// Package runner drives the orchestration graph for one user input: it
// assembles the initial TurnState (pulling prior history from the
// conversation store when one is configured), runs the graph to completion
// and hands the final state back for delivery and persistence. A failing or
// absent store never fails a turn.
package runner

import (
	"context"
	"fmt"

	"github.com/turnwise/turnwise/core"
	"github.com/turnwise/turnwise/graph"
	"github.com/turnwise/turnwise/internal/util"
	"github.com/turnwise/turnwise/logging"
	"github.com/turnwise/turnwise/store"
)

// Options configure a Runner.
type Options struct {
	// Store persists conversations; defaults to in-memory.
	Store store.Store
	// Logger for structured run logging.
	Logger logging.Logger
	// LoopLimit caps tool executor passes per turn.
	LoopLimit int
}

// RunOptions tune a single run.
type RunOptions struct {
	// ConversationID selects the stored conversation; a fresh id is
	// generated when empty.
	ConversationID string
	// TeamOverride pins the team and skips the classifier stage.
	TeamOverride string
	// PriorHistory bypasses the store for this run.
	PriorHistory []core.Message
}

// WithConversationID selects the stored conversation.
func WithConversationID(id string) func(o *RunOptions) {
	return func(o *RunOptions) { o.ConversationID = id }
}

// WithTeamOverride pins the team for the run, skipping classification.
func WithTeamOverride(team string) func(o *RunOptions) {
	return func(o *RunOptions) { o.TeamOverride = team }
}

// WithPriorHistory supplies the prior conversation directly, bypassing the
// store for this run.
func WithPriorHistory(history []core.Message) func(o *RunOptions) {
	return func(o *RunOptions) { o.PriorHistory = history }
}

// Runner executes turns against one configured graph. Public methods are
// safe for concurrent use; every run owns its own TurnState.
type Runner struct {
	graph     *graph.Graph
	store     store.Store
	logger    logging.Logger
	loopLimit int
}

// New constructs a Runner with optional overrides.
func New(g *graph.Graph, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Store:     store.NewInMemory(),
		Logger:    logging.NoOpLogger{},
		LoopLimit: core.DefaultLoopLimit,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		graph:     g,
		store:     opts.Store,
		logger:    opts.Logger,
		loopLimit: opts.LoopLimit,
	}
}

// Run executes one turn to completion and returns the final state. The final
// state carries the answer, the full invocation log and the route/team tags.
// Model-call failures propagate; tool failures are already folded into the
// state by the graph.
func (r *Runner) Run(ctx context.Context, input string, optFns ...func(o *RunOptions)) (*core.TurnState, error) {
	st := r.prepare(ctx, input, optFns)

	if err := r.graph.Run(ctx, st); err != nil {
		return nil, fmt.Errorf("run turn: %w", err)
	}

	r.persist(ctx, st)
	return st, nil
}

// Stream executes one turn, yielding a state snapshot after every stage in
// execution order. The snapshot channel closes when the run terminates; the
// error channel carries at most one terminal error. The final snapshot's
// state is persisted just like in Run.
func (r *Runner) Stream(ctx context.Context, input string, optFns ...func(o *RunOptions)) (<-chan graph.Snapshot, <-chan error) {
	st := r.prepare(ctx, input, optFns)

	snapshots := make(chan graph.Snapshot, 8)
	errs := make(chan error, 1)

	go func() {
		defer close(snapshots)
		defer close(errs)

		inner, innerErrs := r.graph.Stream(ctx, st)
		for snap := range inner {
			select {
			case snapshots <- snap:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if err := <-innerErrs; err != nil {
			errs <- err
			return
		}
		r.persist(ctx, st)
	}()

	return snapshots, errs
}

// prepare builds the initial turn state, loading prior history from the
// store unless the caller supplied it. Store failures degrade to an empty
// history.
func (r *Runner) prepare(ctx context.Context, input string, optFns []func(o *RunOptions)) *core.TurnState {
	var opts RunOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ConversationID == "" {
		opts.ConversationID = util.NewID()
	}

	prior := opts.PriorHistory
	if prior == nil && r.store != nil {
		loaded, err := r.store.Load(ctx, opts.ConversationID)
		if err != nil {
			r.logger.Warn("runner.store.load_failed", "conversation_id", opts.ConversationID, "error", err.Error())
		} else {
			prior = loaded
		}
	}

	st := core.NewTurnState(input, prior)
	st.ConversationID = opts.ConversationID
	st.Team = opts.TeamOverride
	if r.loopLimit > 0 {
		st.LoopLimit = r.loopLimit
	}
	return st
}

// persist saves the post-run state best-effort.
func (r *Runner) persist(ctx context.Context, st *core.TurnState) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, st.ConversationID, st.History, st.Invocations); err != nil {
		r.logger.Warn("runner.store.save_failed", "conversation_id", st.ConversationID, "error", err.Error())
	}
}
