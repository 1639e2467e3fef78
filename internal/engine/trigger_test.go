package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/workflow"
)

func leadCreatedSignal() domain.Signal {
	return domain.NewSignal(domain.SignalLeadCreated, "org-1", domain.SubjectLead, "lead-1",
		map[string]string{"email": "ada@initech.com", "source": "webinar", "score": "0"})
}

func triggerFixture(workflows ...workflow.Workflow) (*Trigger, *stubRunStore, *actionFixture) {
	runs := newStubRunStore()
	f := newActionFixture()
	exec := NewExecutor(runs, f.actions, testRetry(), nil, testLogger())
	trig := NewTrigger(&stubWorkflowStore{workflows: workflows}, runs, exec, testLogger())
	return trig, runs, f
}

func TestTrigger_MatchingWorkflowRunsToCompletion(t *testing.T) {
	t.Parallel()
	trig, runs, f := triggerFixture(workflow.Workflow{
		ID: "wf-1", OrgID: "org-1", Enabled: true,
		Trigger: domain.SignalLeadCreated,
		Actions: []workflow.Action{emailAction()},
	})

	err := trig.Handle(context.Background(), leadCreatedSignal())

	require.NoError(t, err)
	all := runs.all()
	require.Len(t, all, 1)
	run := all[0]
	assert.Equal(t, workflow.RunCompleted, run.Status)
	assert.Equal(t, "wf-1", run.WorkflowID)
	assert.Equal(t, "lead-1", run.SubjectID)
	assert.Equal(t, domain.SignalLeadCreated, run.SignalType)
	assert.Equal(t, "webinar", run.SignalFields["source"])
	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "ada@initech.com", f.email.sent[0].To)
}

func TestTrigger_ConditionsGateExecution(t *testing.T) {
	t.Parallel()
	trig, runs, f := triggerFixture(workflow.Workflow{
		ID: "wf-1", OrgID: "org-1", Enabled: true,
		Trigger: domain.SignalLeadCreated,
		Conditions: workflow.ConditionGroup{Conditions: []workflow.Condition{
			{Field: "source", Op: workflow.OpEq, Value: "cold-call"},
		}},
		Actions: []workflow.Action{emailAction()},
	})

	err := trig.Handle(context.Background(), leadCreatedSignal())

	require.NoError(t, err)
	assert.Empty(t, runs.all())
	assert.Empty(t, f.email.sent)
}

func TestTrigger_EachMatchGetsItsOwnRun(t *testing.T) {
	t.Parallel()
	trig, runs, _ := triggerFixture(
		workflow.Workflow{
			ID: "wf-1", OrgID: "org-1", Enabled: true,
			Trigger: domain.SignalLeadCreated,
			Actions: []workflow.Action{emailAction()},
		},
		workflow.Workflow{
			ID: "wf-2", OrgID: "org-1", Enabled: true,
			Trigger: domain.SignalLeadCreated,
			Actions: []workflow.Action{{Type: workflow.ActionAdjustScore, Params: map[string]string{"delta": "5"}}},
		},
		workflow.Workflow{
			ID: "wf-other-trigger", OrgID: "org-1", Enabled: true,
			Trigger: domain.SignalDealCreated,
			Actions: []workflow.Action{emailAction()},
		},
	)

	err := trig.Handle(context.Background(), leadCreatedSignal())

	require.NoError(t, err)
	all := runs.all()
	require.Len(t, all, 2)
	ids := map[string]bool{}
	for _, r := range all {
		ids[r.WorkflowID] = true
		assert.Equal(t, workflow.RunCompleted, r.Status)
	}
	assert.True(t, ids["wf-1"])
	assert.True(t, ids["wf-2"])
}

func TestTrigger_OneFailingRunDoesNotStopOthers(t *testing.T) {
	t.Parallel()
	trig, runs, f := triggerFixture(
		workflow.Workflow{
			ID: "wf-bad", OrgID: "org-1", Enabled: true,
			Trigger: domain.SignalLeadCreated,
			Actions: []workflow.Action{{Type: workflow.ActionCallWebhook, Params: map[string]string{"url": "https://hooks.example.com/x"}}},
		},
		workflow.Workflow{
			ID: "wf-good", OrgID: "org-1", Enabled: true,
			Trigger: domain.SignalLeadCreated,
			Actions: []workflow.Action{emailAction()},
		},
	)
	f.webhooks.err = domain.ErrForbidden

	err := trig.Handle(context.Background(), leadCreatedSignal())

	assert.ErrorIs(t, err, domain.ErrForbidden)
	statuses := map[string]workflow.RunStatus{}
	for _, r := range runs.all() {
		statuses[r.WorkflowID] = r.Status
	}
	assert.Equal(t, workflow.RunFailed, statuses["wf-bad"])
	assert.Equal(t, workflow.RunCompleted, statuses["wf-good"])
	assert.Len(t, f.email.sent, 1)
}
