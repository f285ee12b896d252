package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeInvokesInnerTool(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("echo", "d", echoSchema(), echoHandler))
	require.NoError(t, RegisterCompose(r))

	res := r.Invoke(context.Background(), ComposeToolName, map[string]any{
		"tool_name":      "echo",
		"tool_arguments": map[string]any{"text": "hi"},
	})
	require.True(t, res.Success)
	data, ok := res.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi", data["echo"])
}

func TestComposeUnknownInnerTool(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterCompose(r))

	res := r.Invoke(context.Background(), ComposeToolName, map[string]any{
		"tool_name":      "ghost",
		"tool_arguments": map[string]any{},
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorText, "unknown tool: ghost")
}

func TestComposeDepthCeiling(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("leaf", "d", nil, func(context.Context, map[string]any) (*Result, error) {
		res := Success("leaf")
		return &res, nil
	}))
	require.NoError(t, RegisterCompose(r))

	// run_tool -> run_tool -> leaf sits at the default ceiling of 2.
	nested := map[string]any{
		"tool_name": ComposeToolName,
		"tool_arguments": map[string]any{
			"tool_name":      "leaf",
			"tool_arguments": map[string]any{},
		},
	}
	res := r.Invoke(context.Background(), ComposeToolName, nested)
	assert.True(t, res.Success)

	// One hop deeper trips the guard.
	tripled := map[string]any{
		"tool_name": ComposeToolName,
		"tool_arguments": map[string]any{
			"tool_name":      ComposeToolName,
			"tool_arguments": nested["tool_arguments"],
		},
	}
	res = r.Invoke(context.Background(), ComposeToolName, map[string]any{
		"tool_name":      ComposeToolName,
		"tool_arguments": tripled,
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorText, "max tool call depth exceeded")
}

func TestComposeHonorsConfiguredDepthCeiling(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("leaf", "d", nil, func(context.Context, map[string]any) (*Result, error) {
		res := Success("leaf")
		return &res, nil
	}))
	require.NoError(t, RegisterCompose(r))

	call := map[string]any{
		"tool_name":      "leaf",
		"tool_arguments": map[string]any{},
	}

	// A ceiling of zero rejects even a single hop.
	res := r.Invoke(context.Background(), ComposeToolName, call, WithMaxCallDepth(0))
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorText, "max tool call depth exceeded")

	// A raised ceiling admits nesting the default rejects. The ceiling rides
	// the context, so it survives every hop, not just the first.
	nested := call
	for i := 0; i < 2; i++ {
		nested = map[string]any{
			"tool_name":      ComposeToolName,
			"tool_arguments": nested,
		}
	}
	res = r.Invoke(context.Background(), ComposeToolName, nested, WithMaxCallDepth(3))
	require.True(t, res.Success)
	assert.Equal(t, "leaf", res.Data)
}

func TestComposeRejectsMissingName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterCompose(r))

	res := r.Invoke(context.Background(), ComposeToolName, map[string]any{
		"tool_name":      "",
		"tool_arguments": map[string]any{},
	})
	assert.False(t, res.Success)
}
