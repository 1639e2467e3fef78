package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesforge/platform/internal/domain/workflow"
	"github.com/salesforge/platform/internal/platform/config"
)

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		PollInterval:  10 * time.Millisecond,
		PollBatchSize: 10,
		ResumeWorkers: 2,
		ActionRetry:   testRetry(),
	}
}

func waitingRun(t *testing.T, runs *stubRunStore) workflow.Run {
	t.Helper()
	resume := time.Now().UTC().Add(-time.Minute)
	run := testRun()
	run.Status = workflow.RunWaiting
	run.CurrentStep = 1
	run.ResumeAt = &resume
	run.Steps = []workflow.StepResult{{Index: 0, Type: workflow.ActionWait, Attempts: 1}}
	_, err := runs.CreateRun(context.Background(), run)
	require.NoError(t, err)

	claimed := *run
	claimed.Status = workflow.RunRunning
	return claimed
}

func TestPoller_ResumesDueRun(t *testing.T) {
	t.Parallel()
	runs := newStubRunStore()
	f := newActionFixture()
	exec := NewExecutor(runs, f.actions, testRetry(), nil, testLogger())
	workflows := &stubWorkflowStore{workflows: []workflow.Workflow{{
		ID: "wf-1", OrgID: "org-1", Enabled: true,
		Trigger: "lead.created",
		Actions: []workflow.Action{
			{Type: workflow.ActionWait, Params: map[string]string{"duration": "1h"}},
			emailAction(),
		},
	}}}
	p := NewPoller(runs, workflows, exec, testEngineConfig(), testLogger())

	runs.due = []workflow.Run{waitingRun(t, runs)}
	p.tick(context.Background())

	stored, err := runs.GetRun(context.Background(), "org-1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.RunCompleted, stored.Status)
	assert.Equal(t, 2, stored.CurrentStep)
	assert.Nil(t, stored.ResumeAt)
	assert.Len(t, f.email.sent, 1)
}

func TestPoller_ResumedRunSeesUpdatedActions(t *testing.T) {
	t.Parallel()
	runs := newStubRunStore()
	f := newActionFixture()
	exec := NewExecutor(runs, f.actions, testRetry(), nil, testLogger())
	// The workflow was edited during the wait: the email step was replaced
	// with an adjust_score step.
	workflows := &stubWorkflowStore{workflows: []workflow.Workflow{{
		ID: "wf-1", OrgID: "org-1", Enabled: true,
		Trigger: "lead.created",
		Actions: []workflow.Action{
			{Type: workflow.ActionWait, Params: map[string]string{"duration": "1h"}},
			{Type: workflow.ActionAdjustScore, Params: map[string]string{"delta": "10"}},
		},
	}}}
	p := NewPoller(runs, workflows, exec, testEngineConfig(), testLogger())

	runs.due = []workflow.Run{waitingRun(t, runs)}
	p.tick(context.Background())

	stored, err := runs.GetRun(context.Background(), "org-1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.RunCompleted, stored.Status)
	assert.Empty(t, f.email.sent)
	require.Len(t, f.leads.calls, 1)
	assert.Equal(t, 10, f.leads.calls[0].delta)
}

func TestPoller_DeletedWorkflowFailsRun(t *testing.T) {
	t.Parallel()
	runs := newStubRunStore()
	f := newActionFixture()
	exec := NewExecutor(runs, f.actions, testRetry(), nil, testLogger())
	p := NewPoller(runs, &stubWorkflowStore{}, exec, testEngineConfig(), testLogger())

	runs.due = []workflow.Run{waitingRun(t, runs)}
	p.tick(context.Background())

	stored, err := runs.GetRun(context.Background(), "org-1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.RunFailed, stored.Status)
	assert.Contains(t, stored.Error, "workflow deleted")
}

func TestPoller_StartClose(t *testing.T) {
	t.Parallel()
	runs := newStubRunStore()
	f := newActionFixture()
	exec := NewExecutor(runs, f.actions, testRetry(), nil, testLogger())
	p := NewPoller(runs, &stubWorkflowStore{}, exec, testEngineConfig(), testLogger())

	p.Start()
	time.Sleep(30 * time.Millisecond)
	p.Close()
}
