package core

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks input provided by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks model output, possibly carrying tool calls.
	RoleAssistant Role = "assistant"
	// RoleSystem marks instructions injected by the orchestration.
	RoleSystem Role = "system"
	// RoleTool marks the result of a tool call, correlated via ToolCallID.
	RoleTool Role = "tool"
)

// ToolCall is a model-requested tool invocation. The ID correlates the
// request with its RoleTool result message.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is one entry of the conversation history. Assistant messages may
// carry ToolCalls; tool messages carry the ToolCallID they answer.
type Message struct {
	Role       Role       `json:"role"`
	Text       string     `json:"text,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// UserMessage builds a user message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Text: text} }

// AssistantMessage builds a plain assistant message.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Text: text} }

// SystemMessage builds a system message.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Text: text} }

// ToolMessage builds a tool result message correlated to a tool call id.
func ToolMessage(callID, text string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Text: text}
}

// Invocation is one append-only record of a tool call performed during a
// turn: what was asked, whether it worked, what came back and how long it took.
type Invocation struct {
	Tool      string         `json:"tool"`
	CallID    string         `json:"call_id,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Success   bool           `json:"success"`
	Data      any            `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Elapsed   time.Duration  `json:"elapsed"`
}
