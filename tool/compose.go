package tool

import (
	"context"
	"fmt"
)

// ComposeToolName is the registry name of the composition tool.
const ComposeToolName = "run_tool"

var composeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"tool_name": map[string]any{
			"type":        "string",
			"description": "Name of the tool to run (e.g. web_search, calculator)",
		},
		"tool_arguments": map[string]any{
			"type":        "object",
			"description": "Arguments for the tool as a JSON object",
		},
	},
	"required": []string{"tool_name", "tool_arguments"},
}

// RegisterCompose adds the run_tool built-in, which lets the model (or
// another tool) invoke a second tool by name. Each hop increments the call
// depth carried on the context and forwards the ceiling in effect, so
// unbounded recursion trips the registry's depth guard instead of looping
// forever.
func RegisterCompose(r *Registry) error {
	handler := func(ctx context.Context, args map[string]any) (*Result, error) {
		name, _ := args["tool_name"].(string)
		if name == "" {
			return nil, NewError(ComposeToolName, "tool_name must be a non-empty string", CodeValidation)
		}
		inner, _ := args["tool_arguments"].(map[string]any)
		if inner == nil {
			inner = map[string]any{}
		}

		res := r.Invoke(ctx, name, inner,
			WithCallDepth(CallDepth(ctx)+1),
			WithMaxCallDepth(MaxCallDepth(ctx)),
		)
		return &res, nil
	}

	return r.Register(
		ComposeToolName,
		fmt.Sprintf("Call another tool by name with given arguments. Use for multi-step workflows (e.g. search then summarize). Do not call %s from within %s.", ComposeToolName, ComposeToolName),
		composeSchema,
		handler,
	)
}
