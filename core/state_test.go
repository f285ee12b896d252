package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTurnStateAppendsUserMessage(t *testing.T) {
	st := NewTurnState("hello", nil)

	require.Len(t, st.History, 1)
	assert.Equal(t, RoleUser, st.History[0].Role)
	assert.Equal(t, "hello", st.History[0].Text)
	assert.Equal(t, RouteUnset, st.Route)
	assert.Equal(t, DefaultLoopLimit, st.LoopLimit)
}

func TestNewTurnStateCopiesPriorHistory(t *testing.T) {
	prior := []Message{
		UserMessage("earlier"),
		AssistantMessage("noted"),
	}
	st := NewTurnState("now", prior)

	require.Len(t, st.History, 3)
	assert.Equal(t, "earlier", st.History[0].Text)
	assert.Equal(t, "now", st.History[2].Text)

	// Mutating the state must not touch the caller's slice.
	st.Append(UserMessage("extra"))
	assert.Len(t, prior, 2)
}

func TestCloneIsolatesSlices(t *testing.T) {
	st := NewTurnState("hi", nil)
	st.Record(Invocation{Tool: "weather"})

	c := st.Clone()
	st.Append(AssistantMessage("later"))
	st.Record(Invocation{Tool: "calculator"})

	assert.Len(t, c.History, 1)
	assert.Len(t, c.Invocations, 1)
	assert.Len(t, st.History, 2)
	assert.Len(t, st.Invocations, 2)
}

func TestCloneNil(t *testing.T) {
	var st *TurnState
	assert.Nil(t, st.Clone())
}

func TestMessageConstructors(t *testing.T) {
	u := UserMessage("q")
	assert.Equal(t, RoleUser, u.Role)

	a := AssistantMessage("a")
	assert.Equal(t, RoleAssistant, a.Role)

	s := SystemMessage("s")
	assert.Equal(t, RoleSystem, s.Role)

	tm := ToolMessage("call-1", "result")
	assert.Equal(t, RoleTool, tm.Role)
	assert.Equal(t, "call-1", tm.ToolCallID)
	assert.Equal(t, "result", tm.Text)
}
