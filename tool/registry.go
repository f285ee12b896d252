package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/turnwise/turnwise/internal/util"
	"github.com/turnwise/turnwise/logging"
)

// DefaultInvokeTimeout bounds a single handler execution.
const DefaultInvokeTimeout = 30 * time.Second

// DefaultMaxCallDepth bounds tool composition (tools invoking tools).
const DefaultMaxCallDepth = 2

// Registry holds named tools and executes them with timeouts, argument
// validation and a composition depth guard.
//
// Concurrency: Invoke is safe to call concurrently for different names and
// for the same name. Register/Unregister take the write lock only around the
// table mutation itself; invocations already in flight are never blocked.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Definition

	monitor Monitor
	logger  logging.Logger
	timeout time.Duration
}

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	// Monitor receives fire-and-forget execution reports.
	Monitor Monitor
	// Logger for structured invocation logging.
	Logger logging.Logger
	// InvokeTimeout is the default per-call wall clock limit.
	InvokeTimeout time.Duration
}

// NewRegistry constructs an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		Monitor:       NopMonitor{},
		Logger:        logging.NoOpLogger{},
		InvokeTimeout: DefaultInvokeTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		tools:   make(map[string]*Definition),
		monitor: opts.Monitor,
		logger:  opts.Logger,
		timeout: opts.InvokeTimeout,
	}
}

// Register adds a built-in tool. Built-ins are permanent: registering over
// an existing built-in name fails, and built-ins cannot be unregistered.
// Registration errors are configuration errors and surface immediately,
// before any run can reference the tool.
func (r *Registry) Register(name, description string, schema map[string]any, handler Handler) error {
	return r.register(name, description, schema, handler, false)
}

// RegisterDynamic adds a runtime-configured tool. Re-registering a dynamic
// name overwrites the previous definition; the name can later be removed
// with Unregister.
func (r *Registry) RegisterDynamic(name, description string, schema map[string]any, handler Handler) error {
	return r.register(name, description, schema, handler, true)
}

func (r *Registry) register(name, description string, schema map[string]any, handler Handler, dynamic bool) error {
	if name == "" {
		return NewError(name, "tool name must not be empty", CodeValidation)
	}
	if handler == nil {
		return NewError(name, "tool handler must not be nil", CodeValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tools[name]; ok && !existing.dynamic {
		return NewError(name, "built-in tool already registered", CodeValidation)
	}
	r.tools[name] = &Definition{
		Name:        name,
		Description: description,
		Schema:      schema,
		Handler:     handler,
		dynamic:     dynamic,
	}
	return nil
}

// Unregister removes a dynamically added tool and reports whether removal
// occurred. Built-ins are never removed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.tools[name]
	if !ok || !def.dynamic {
		return false
	}
	delete(r.tools, name)
	return true
}

// Schemas returns the declarative description of every registered tool,
// sorted by name so the order is stable within a process.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	schemas := make([]Schema, 0, len(r.tools))
	for _, def := range r.tools {
		schemas = append(schemas, Schema{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Schema,
		})
	}
	r.mu.RUnlock()

	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas
}

// InvokeOptions tune a single invocation.
type InvokeOptions struct {
	// Timeout overrides the registry default per-call limit.
	Timeout time.Duration
	// CallDepth is the composition depth of this call (0 = orchestration).
	CallDepth int
	// MaxCallDepth is the composition ceiling.
	MaxCallDepth int
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) func(o *InvokeOptions) {
	return func(o *InvokeOptions) { o.Timeout = d }
}

// WithCallDepth sets the composition depth of the invocation.
func WithCallDepth(depth int) func(o *InvokeOptions) {
	return func(o *InvokeOptions) { o.CallDepth = depth }
}

// WithMaxCallDepth overrides the composition ceiling.
func WithMaxCallDepth(depth int) func(o *InvokeOptions) {
	return func(o *InvokeOptions) { o.MaxCallDepth = depth }
}

// Invoke executes a tool by name. Every failure mode (unknown name, depth
// exceeded, bad arguments, handler error, timeout) is returned as a failed
// Result, never as a panic or an aborted run. A timeout only bounds how long
// the caller waits: cancellation is best-effort via the handler's context and
// side effects beyond the deadline are not retracted.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any, optFns ...func(o *InvokeOptions)) Result {
	opts := InvokeOptions{
		Timeout:      r.timeout,
		MaxCallDepth: DefaultMaxCallDepth,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()

	if opts.CallDepth > opts.MaxCallDepth {
		r.logger.Warn("tool.invoke.depth_exceeded", "tool", name, "depth", opts.CallDepth)
		return r.finish(name, Failure("max tool call depth exceeded"), start)
	}

	r.mu.RLock()
	def, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("tool.invoke.not_found", "tool", name)
		return r.finish(name, Failure(fmt.Sprintf("unknown tool: %s", name)), start)
	}

	if err := util.ValidateParameters(args, def.Schema); err != nil {
		r.logger.Warn("tool.invoke.validation_failed", "tool", name, "error", err.Error())
		return r.finish(name, Failure(fmt.Sprintf("parameter validation failed: %v", err)), start)
	}

	callCtx, cancel := context.WithTimeout(
		withMaxCallDepth(withCallDepth(ctx, opts.CallDepth), opts.MaxCallDepth),
		opts.Timeout,
	)
	defer cancel()

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", rec)}
			}
		}()
		res, err := def.Handler(callCtx, args)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			// Handlers that surface the context error get the same report as
			// an expired call context, so the result never depends on which
			// select branch wins the race.
			if errors.Is(out.err, context.DeadlineExceeded) || errors.Is(out.err, context.Canceled) {
				return r.finishInterrupted(name, out.err, opts.Timeout, start)
			}
			r.logger.Error("tool.invoke.error", "tool", name, "error", out.err.Error())
			return r.finish(name, Failure(out.err.Error()), start)
		}
		res := Success(nil)
		if out.res != nil {
			res = *out.res
		}
		r.logger.Info("tool.invoke.done", "tool", name, "success", res.Success, "duration_ms", time.Since(start).Milliseconds())
		return r.finish(name, res, start)
	case <-callCtx.Done():
		return r.finishInterrupted(name, callCtx.Err(), opts.Timeout, start)
	}
}

// finishInterrupted reports a call cut short by its context. Expired
// deadlines are timeouts; anything else is a caller-initiated cancellation
// and must not be mislabeled as one.
func (r *Registry) finishInterrupted(name string, cause error, timeout time.Duration, start time.Time) Result {
	if errors.Is(cause, context.DeadlineExceeded) {
		r.logger.Warn("tool.invoke.timeout", "tool", name, "timeout", timeout)
		return r.finish(name, Failure(fmt.Sprintf("timed out after %gs", timeout.Seconds())), start)
	}
	r.logger.Warn("tool.invoke.cancelled", "tool", name)
	return r.finish(name, Failure("invocation cancelled"), start)
}

// finish normalizes a result (elapsed time, the failure invariant) and
// reports it to the monitor without ever blocking or propagating a monitor
// failure.
func (r *Registry) finish(name string, res Result, start time.Time) Result {
	if res.Elapsed == 0 {
		res.Elapsed = time.Since(start)
	}
	if !res.Success {
		res.Data = nil
		if res.ErrorText == "" {
			res.ErrorText = "tool failed"
		}
	}

	m := r.monitor
	go func() {
		defer func() { _ = recover() }()
		m.RecordToolCall(name, res.Success)
	}()

	return res
}
