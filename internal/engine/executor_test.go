package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/workflow"
)

func emailAction() workflow.Action {
	return workflow.Action{
		Type:   workflow.ActionSendEmail,
		Params: map[string]string{"subject": "Hi", "template": "welcome"},
	}
}

func startedRun(t *testing.T, runs *stubRunStore) *workflow.Run {
	t.Helper()
	run := testRun()
	_, err := runs.CreateRun(context.Background(), run)
	require.NoError(t, err)
	return run
}

func TestExecutor_CompletesRun(t *testing.T) {
	t.Parallel()
	runs := newStubRunStore()
	f := newActionFixture()
	exec := NewExecutor(runs, f.actions, testRetry(), nil, testLogger())
	run := startedRun(t, runs)

	actions := []workflow.Action{
		emailAction(),
		{Type: workflow.ActionCreateTask, Params: map[string]string{"title": "follow up"}},
	}
	err := exec.ExecuteRun(context.Background(), actions, run)

	require.NoError(t, err)
	stored, err := runs.GetRun(context.Background(), "org-1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.RunCompleted, stored.Status)
	assert.Equal(t, 2, stored.CurrentStep)
	require.Len(t, stored.Steps, 2)
	assert.Equal(t, 1, stored.Steps[0].Attempts)
	assert.Empty(t, stored.Steps[0].Error)
	assert.Len(t, f.email.sent, 1)
	assert.Len(t, f.tasks.created, 1)
}

func TestExecutor_WaitParksRun(t *testing.T) {
	t.Parallel()
	runs := newStubRunStore()
	f := newActionFixture()
	exec := NewExecutor(runs, f.actions, testRetry(), nil, testLogger())
	run := startedRun(t, runs)

	actions := []workflow.Action{
		{Type: workflow.ActionWait, Params: map[string]string{"duration": "48h"}},
		emailAction(),
	}
	err := exec.ExecuteRun(context.Background(), actions, run)

	require.NoError(t, err)
	stored, err := runs.GetRun(context.Background(), "org-1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.RunWaiting, stored.Status)
	assert.Equal(t, 1, stored.CurrentStep)
	require.NotNil(t, stored.ResumeAt)
	assert.WithinDuration(t, time.Now().UTC().Add(48*time.Hour), *stored.ResumeAt, time.Minute)

	// Steps after the wait do not execute yet.
	assert.Empty(t, f.email.sent)
}

func TestExecutor_ResumesFromCursor(t *testing.T) {
	t.Parallel()
	runs := newStubRunStore()
	f := newActionFixture()
	exec := NewExecutor(runs, f.actions, testRetry(), nil, testLogger())
	run := startedRun(t, runs)
	run.Status = workflow.RunWaiting
	run.CurrentStep = 1
	run.Steps = []workflow.StepResult{{Index: 0, Type: workflow.ActionWait, Attempts: 1}}

	actions := []workflow.Action{
		{Type: workflow.ActionWait, Params: map[string]string{"duration": "48h"}},
		emailAction(),
	}
	err := exec.ExecuteRun(context.Background(), actions, run)

	require.NoError(t, err)
	stored, err := runs.GetRun(context.Background(), "org-1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.RunCompleted, stored.Status)
	assert.Equal(t, 2, stored.CurrentStep)
	assert.Len(t, stored.Steps, 2)
	assert.Len(t, f.email.sent, 1)
}

func TestExecutor_RetriesTransientFailure(t *testing.T) {
	t.Parallel()
	runs := newStubRunStore()
	f := newActionFixture()
	f.email.failures = 1
	exec := NewExecutor(runs, f.actions, testRetry(), nil, testLogger())
	run := startedRun(t, runs)

	err := exec.ExecuteRun(context.Background(), []workflow.Action{emailAction()}, run)

	require.NoError(t, err)
	stored, err := runs.GetRun(context.Background(), "org-1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.RunCompleted, stored.Status)
	require.Len(t, stored.Steps, 1)
	assert.Equal(t, 2, stored.Steps[0].Attempts)
	assert.Len(t, f.email.sent, 1)
}

func TestExecutor_FailsRunAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	runs := newStubRunStore()
	f := newActionFixture()
	f.email.failures = 10
	exec := NewExecutor(runs, f.actions, testRetry(), nil, testLogger())
	run := startedRun(t, runs)

	err := exec.ExecuteRun(context.Background(), []workflow.Action{emailAction()}, run)

	assert.ErrorIs(t, err, domain.ErrUnavailable)
	stored, gerr := runs.GetRun(context.Background(), "org-1", "run-1")
	require.NoError(t, gerr)
	assert.Equal(t, workflow.RunFailed, stored.Status)
	assert.Contains(t, stored.Error, "action 0")
	require.Len(t, stored.Steps, 1)
	assert.Equal(t, testRetry().MaxAttempts, stored.Steps[0].Attempts)
	assert.NotEmpty(t, stored.Steps[0].Error)
}

func TestExecutor_PermanentErrorSkipsRetry(t *testing.T) {
	t.Parallel()
	runs := newStubRunStore()
	f := newActionFixture()
	f.email.failures = 10
	f.email.err = domain.ErrValidation
	exec := NewExecutor(runs, f.actions, testRetry(), nil, testLogger())
	run := startedRun(t, runs)

	err := exec.ExecuteRun(context.Background(), []workflow.Action{emailAction()}, run)

	assert.ErrorIs(t, err, domain.ErrValidation)
	stored, gerr := runs.GetRun(context.Background(), "org-1", "run-1")
	require.NoError(t, gerr)
	assert.Equal(t, workflow.RunFailed, stored.Status)
	require.Len(t, stored.Steps, 1)
	assert.Equal(t, 1, stored.Steps[0].Attempts)
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	t.Parallel()
	cfg := testRetry()

	first := backoff(1, cfg)
	assert.GreaterOrEqual(t, first, time.Duration(float64(cfg.InitialInterval)*0.75))
	assert.LessOrEqual(t, first, time.Duration(float64(cfg.InitialInterval)*1.25))

	// Far past the cap, jitter stays within ±25% of MaxInterval.
	tenth := backoff(10, cfg)
	assert.LessOrEqual(t, tenth, time.Duration(float64(cfg.MaxInterval)*1.25))
	assert.GreaterOrEqual(t, tenth, time.Duration(float64(cfg.MaxInterval)*0.75))
}
