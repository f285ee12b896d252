package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnwise/turnwise/core"
)

func TestScriptedModelReplaysInOrder(t *testing.T) {
	m := NewScriptedModel().
		AddText("first").
		AddToolCalls(core.ToolCall{ID: "c1", Name: "weather"}).
		AddError(errors.New("bad step"))

	ctx := context.Background()

	resp, err := m.Generate(ctx, Request{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)

	resp, err = m.Generate(ctx, Request{})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "weather", resp.ToolCalls[0].Name)

	_, err = m.Generate(ctx, Request{})
	assert.Error(t, err)
}

func TestScriptedModelExhaustedScript(t *testing.T) {
	m := NewScriptedModel()

	resp, err := m.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}

func TestScriptedModelRecordsRequests(t *testing.T) {
	m := NewScriptedModel().AddText("x")

	_, err := m.Generate(context.Background(), Request{
		Instructions: "be brief",
		Messages:     []core.Message{core.UserMessage("hi")},
	})
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "be brief", reqs[0].Instructions)
	assert.Equal(t, 1, m.Calls())
}

func TestScriptedModelHonorsCancellation(t *testing.T) {
	m := NewScriptedModel().AddText("never")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Calls())
}
