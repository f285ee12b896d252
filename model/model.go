// Package model defines the minimal interface the orchestration needs from a
// language model: one Generate call turning conversation messages (and
// optionally tool schemas) into text or tool call requests. Provider
// adapters live in the subpackages; ScriptedModel is an in-memory fake for
// tests and examples.
package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/turnwise/turnwise/core"
	"github.com/turnwise/turnwise/tool"
)

// Request is the normalized model input produced by graph stages.
type Request struct {
	// Instructions is the system prompt for this call.
	Instructions string
	// Messages is the (already reduced, when required) conversation.
	Messages []core.Message
	// Tools, when non-empty, exposes the given schemas for function calling.
	// A nil slice requests a plain text-only response.
	Tools []tool.Schema
}

// Response is the normalized model output.
type Response struct {
	// Text is the assistant text, possibly empty when only tools were
	// requested.
	Text string
	// ToolCalls carries the model's requested tool invocations, each with a
	// correlation id.
	ToolCalls []core.ToolCall
	// FinishReason is the provider's stop reason ("stop", "tool_calls", ...).
	FinishReason string
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the single collaborator interface consumed by the orchestration
// graph. Generate must honor context cancellation; any returned error is
// unrecoverable for the turn and propagates to the run caller.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// ScriptedModel replays a fixed sequence of responses (or errors), one per
// Generate call. It is safe for concurrent use and records every request it
// received for assertions.
type ScriptedModel struct {
	mu        sync.Mutex
	steps     []scriptStep
	next      int
	requests  []Request
	exhausted string
}

type scriptStep struct {
	resp *Response
	err  error
}

// NewScriptedModel constructs an empty scripted model. Responses run in the
// order they were added; once the script is exhausted further calls return
// a canned text response so open-ended tests do not fail on extra calls.
func NewScriptedModel() *ScriptedModel {
	return &ScriptedModel{exhausted: "ok"}
}

// AddText enqueues a plain text response.
func (m *ScriptedModel) AddText(text string) *ScriptedModel {
	return m.add(&Response{Text: text, FinishReason: "stop"}, nil)
}

// AddToolCalls enqueues a response requesting the given tool calls.
func (m *ScriptedModel) AddToolCalls(calls ...core.ToolCall) *ScriptedModel {
	return m.add(&Response{ToolCalls: calls, FinishReason: "tool_calls"}, nil)
}

// AddError enqueues a model failure.
func (m *ScriptedModel) AddError(err error) *ScriptedModel {
	return m.add(nil, err)
}

func (m *ScriptedModel) add(resp *Response, err error) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, scriptStep{resp: resp, err: err})
	return m
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if m.next >= len(m.steps) {
		return &Response{Text: m.exhausted, FinishReason: "stop"}, nil
	}
	step := m.steps[m.next]
	m.next++
	if step.err != nil {
		return nil, fmt.Errorf("scripted model error: %w", step.err)
	}
	return step.resp, nil
}

// Info implements Model.
func (m *ScriptedModel) Info() Info {
	return Info{Name: "scripted", Provider: "scripted", SupportsTools: true}
}

// Requests returns a copy of every request seen so far, in call order.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns how many Generate calls were made.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
