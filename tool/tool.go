// Package tool implements the capability subsystem: a concurrent registry of
// named operations with declared argument schemas, per-call timeouts, bounded
// composition depth and a fire-and-forget observability hook. Tool failures
// are values, not panics: every invocation returns a Result that the
// orchestration feeds back into the conversation.
package tool

import (
	"context"
	"fmt"
	"time"
)

// Error codes used by the tool layer.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeTimeout    = "TIMEOUT"
	CodeNotFound   = "NOT_FOUND"
	CodeMaxDepth   = "MAX_DEPTH"
)

// Error represents errors that occur during tool registration or execution.
type Error struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewError creates a new Error with the specified details.
func NewError(tool, message, code string) *Error {
	return &Error{Tool: tool, Message: message, Code: code}
}

// Result is the uniform outcome of every tool invocation. Success=false
// implies Data is nil and ErrorText is non-empty. Elapsed is filled by the
// registry when the handler did not set it.
type Result struct {
	Success   bool           `json:"success"`
	Data      any            `json:"data,omitempty"`
	ErrorText string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Elapsed   time.Duration  `json:"elapsed"`
}

// Failure builds a failed Result with the given error text.
func Failure(errText string) Result {
	return Result{Success: false, ErrorText: errText}
}

// Success builds a successful Result carrying data.
func Success(data any) Result {
	return Result{Success: true, Data: data}
}

// Handler executes one tool call with its already-validated arguments. The
// context carries the invocation deadline and the current composition depth;
// handlers must be safe to run concurrently and must not assume exclusive
// access to any run's state. A handler may return a Result directly (to set
// Data, Metadata or Elapsed itself) or just an error, which the registry
// wraps into a failed Result.
type Handler func(ctx context.Context, args map[string]any) (*Result, error)

// Definition holds the metadata and handler for a single registered tool.
// Identity is the unique Name, stable for the registry's lifetime.
type Definition struct {
	Name        string
	Description string
	// Schema is a minimal JSON-Schema-like object map ("type", "properties",
	// "required") describing accepted arguments.
	Schema  map[string]any
	Handler Handler

	dynamic bool
}

// Dynamic reports whether the definition was added at runtime (and can
// therefore be removed or overwritten).
func (d *Definition) Dynamic() bool { return d.dynamic }

// Schema is the declarative description of one tool presented to the model
// as an available action.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Monitor receives fire-and-forget execution reports. Implementations must
// not block; the registry calls them on a separate goroutine and swallows
// panics, so a failing monitor can never break an invocation.
type Monitor interface {
	RecordToolCall(name string, success bool)
}

// NopMonitor discards all reports.
type NopMonitor struct{}

// RecordToolCall implements Monitor.
func (NopMonitor) RecordToolCall(string, bool) {}

type depthKey struct{}

// CallDepth returns the composition depth of the current invocation: 0 for
// calls made by the orchestration, higher when a tool dispatches another
// tool through the registry.
func CallDepth(ctx context.Context) int {
	if d, ok := ctx.Value(depthKey{}).(int); ok {
		return d
	}
	return 0
}

func withCallDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthKey{}, depth)
}

type maxDepthKey struct{}

// MaxCallDepth returns the composition ceiling in effect for the current
// invocation. Composing tools pass it along so that a non-default ceiling
// survives every hop, not just the first.
func MaxCallDepth(ctx context.Context) int {
	if d, ok := ctx.Value(maxDepthKey{}).(int); ok {
		return d
	}
	return DefaultMaxCallDepth
}

func withMaxCallDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, maxDepthKey{}, depth)
}
