package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnwise/turnwise/graph"
	"github.com/turnwise/turnwise/model"
	"github.com/turnwise/turnwise/runner"
	"github.com/turnwise/turnwise/tool"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	g := graph.New(model.NewScriptedModel(), tool.NewRegistry(), func(o *graph.Options) {
		o.UseClassifier = false
	})
	return New(runner.New(g))
}

func TestAddAndRemoveJob(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.Add(Job{ID: "daily", Prompt: "summarize", Cron: "0 9 * * *"}))
	assert.Equal(t, []string{"daily"}, s.Jobs())

	assert.True(t, s.Remove("daily"))
	assert.False(t, s.Remove("daily"))
	assert.Empty(t, s.Jobs())
}

func TestAddReplacesExistingJob(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.Add(Job{ID: "daily", Prompt: "v1", Cron: "0 9 * * *"}))
	require.NoError(t, s.Add(Job{ID: "daily", Prompt: "v2", Cron: "0 18 * * *"}))

	assert.Equal(t, []string{"daily"}, s.Jobs())
}

func TestAddRejectsBadJobs(t *testing.T) {
	s := newTestScheduler(t)

	assert.Error(t, s.Add(Job{ID: "", Cron: "0 9 * * *"}))
	assert.Error(t, s.Add(Job{ID: "bad", Cron: "not a cron expression"}))
	assert.Empty(t, s.Jobs())
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Add(Job{ID: "hourly", Prompt: "check", Cron: "0 * * * *"}))

	s.Start()
	s.Stop()
}
