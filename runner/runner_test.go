package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnwise/turnwise/core"
	"github.com/turnwise/turnwise/graph"
	"github.com/turnwise/turnwise/model"
	"github.com/turnwise/turnwise/store"
	"github.com/turnwise/turnwise/tool"
)

func newDirectGraph(t *testing.T, answer string) (*graph.Graph, *model.ScriptedModel) {
	t.Helper()
	m := model.NewScriptedModel().
		AddText("direct").
		AddText(answer)
	g := graph.New(m, tool.NewRegistry(), func(o *graph.Options) {
		o.UseClassifier = false
	})
	return g, m
}

func TestRunPersistsConversation(t *testing.T) {
	g, _ := newDirectGraph(t, "hello there")
	st := store.NewInMemory()
	r := New(g, func(o *Options) { o.Store = st })

	result, err := r.Run(context.Background(), "hi", WithConversationID("c1"))
	require.NoError(t, err)
	assert.Equal(t, "hello there", result.Answer)
	assert.Equal(t, "c1", result.ConversationID)

	saved, err := st.Load(context.Background(), "c1")
	require.NoError(t, err)
	require.NotEmpty(t, saved)
	assert.Equal(t, "hi", saved[0].Text)
	assert.Equal(t, "hello there", saved[len(saved)-1].Text)
}

func TestRunGeneratesConversationID(t *testing.T) {
	g, _ := newDirectGraph(t, "ok")
	r := New(g)

	result, err := r.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.NotEmpty(t, result.ConversationID)
}

func TestRunLoadsPriorHistory(t *testing.T) {
	g, m := newDirectGraph(t, "you said apples")
	st := store.NewInMemory()
	require.NoError(t, st.Save(context.Background(), "c1", []core.Message{
		core.UserMessage("I like apples"),
		core.AssistantMessage("Noted."),
	}, nil))

	r := New(g, func(o *Options) { o.Store = st })
	result, err := r.Run(context.Background(), "what do I like?", WithConversationID("c1"))
	require.NoError(t, err)

	// Prior turns precede the new user message.
	require.GreaterOrEqual(t, len(result.History), 3)
	assert.Equal(t, "I like apples", result.History[0].Text)
	assert.Equal(t, "what do I like?", result.History[2].Text)
	assert.Equal(t, 2, m.Calls())
}

func TestRunWithPriorHistoryBypassesStore(t *testing.T) {
	g, _ := newDirectGraph(t, "ok")
	st := store.NewInMemory()
	require.NoError(t, st.Save(context.Background(), "c1", []core.Message{core.UserMessage("stored")}, nil))

	r := New(g, func(o *Options) { o.Store = st })
	result, err := r.Run(context.Background(), "fresh",
		WithConversationID("c1"),
		WithPriorHistory([]core.Message{core.UserMessage("supplied")}),
	)
	require.NoError(t, err)
	assert.Equal(t, "supplied", result.History[0].Text)
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]core.Message, error) {
	return nil, errors.New("load failed")
}

func (failingStore) Save(context.Context, string, []core.Message, []core.Invocation) error {
	return errors.New("save failed")
}

func TestRunToleratesFailingStore(t *testing.T) {
	g, _ := newDirectGraph(t, "still fine")
	r := New(g, func(o *Options) { o.Store = failingStore{} })

	result, err := r.Run(context.Background(), "hi", WithConversationID("c1"))
	require.NoError(t, err)
	assert.Equal(t, "still fine", result.Answer)
}

func TestRunTeamOverride(t *testing.T) {
	m := model.NewScriptedModel().
		AddText("direct").
		AddText("ok")
	g := graph.New(m, tool.NewRegistry()) // classifier enabled
	r := New(g)

	result, err := r.Run(context.Background(), "hi", WithTeamOverride("code"))
	require.NoError(t, err)
	assert.Equal(t, "code", result.Team)
	// Overriding the team skips the classifier call.
	assert.Equal(t, 2, m.Calls())
}

func TestRunAppliesLoopLimit(t *testing.T) {
	g, _ := newDirectGraph(t, "ok")
	r := New(g, func(o *Options) { o.LoopLimit = 2 })

	result, err := r.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, 2, result.LoopLimit)
}

func TestRunModelErrorPropagates(t *testing.T) {
	m := model.NewScriptedModel().AddError(errors.New("provider down"))
	g := graph.New(m, tool.NewRegistry(), func(o *graph.Options) {
		o.UseClassifier = false
	})
	r := New(g)

	_, err := r.Run(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run turn")
}

func TestStreamYieldsSnapshotsAndPersists(t *testing.T) {
	g, _ := newDirectGraph(t, "streamed answer")
	st := store.NewInMemory()
	r := New(g, func(o *Options) { o.Store = st })

	snapshots, errs := r.Stream(context.Background(), "hi", WithConversationID("c1"))

	var stages []graph.Stage
	for snap := range snapshots {
		stages = append(stages, snap.Stage)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, []graph.Stage{graph.StageRoute, graph.StageSynthesize}, stages)

	saved, err := st.Load(context.Background(), "c1")
	require.NoError(t, err)
	assert.NotEmpty(t, saved)
}
