package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnwise/turnwise/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadUnknownConversation(t *testing.T) {
	s := newTestStore(t)

	history, err := s.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	history := []core.Message{
		core.UserMessage("weather in Paris?"),
		{
			Role: core.RoleAssistant,
			ToolCalls: []core.ToolCall{{
				ID:        "call-1",
				Name:      "weather",
				Arguments: map[string]any{"location": "Paris"},
			}},
		},
		core.ToolMessage("call-1", "18°C"),
		core.AssistantMessage("It is 18°C in Paris."),
	}
	invocations := []core.Invocation{{
		Tool:    "weather",
		CallID:  "call-1",
		Success: true,
		Elapsed: 120 * time.Millisecond,
	}}

	require.NoError(t, s.Save(ctx, "c1", history, invocations))

	got, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, core.RoleUser, got[0].Role)
	assert.Equal(t, "weather in Paris?", got[0].Text)

	require.Len(t, got[1].ToolCalls, 1)
	assert.Equal(t, "call-1", got[1].ToolCalls[0].ID)
	assert.Equal(t, "weather", got[1].ToolCalls[0].Name)
	assert.Equal(t, "Paris", got[1].ToolCalls[0].Arguments["location"])

	assert.Equal(t, core.RoleTool, got[2].Role)
	assert.Equal(t, "call-1", got[2].ToolCallID)
	assert.Equal(t, "It is 18°C in Paris.", got[3].Text)
}

func TestSaveReplacesHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "c1", []core.Message{core.UserMessage("v1")}, nil))
	require.NoError(t, s.Save(ctx, "c1", []core.Message{
		core.UserMessage("v1"),
		core.AssistantMessage("a1"),
		core.UserMessage("v2"),
	}, nil))

	got, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "v2", got[2].Text)
}

func TestConversationsAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a", []core.Message{core.UserMessage("for a")}, nil))
	require.NoError(t, s.Save(ctx, "b", []core.Message{core.UserMessage("for b")}, nil))

	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "for a", got[0].Text)
}
