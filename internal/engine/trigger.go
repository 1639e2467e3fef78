package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/workflow"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time check that Trigger implements ports.SignalHandler.
var _ ports.SignalHandler = (*Trigger)(nil)

// Trigger is the bus subscriber that starts workflow runs. For each signal
// it loads the org's enabled workflows with a matching trigger, evaluates
// their conditions against the signal fields, and executes a run per match.
// Subscribe it with no type filter so new workflow triggers need no code
// change.
type Trigger struct {
	workflows ports.WorkflowStore
	runs      ports.RunStore
	executor  *Executor
	logger    *slog.Logger
	now       func() time.Time
}

// NewTrigger creates the workflow trigger subscriber.
func NewTrigger(workflows ports.WorkflowStore, runs ports.RunStore, executor *Executor, logger *slog.Logger) *Trigger {
	return &Trigger{
		workflows: workflows,
		runs:      runs,
		executor:  executor,
		logger:    logger,
		now:       time.Now,
	}
}

// Name identifies the subscriber in logs and metrics.
func (t *Trigger) Name() string { return "workflow-engine" }

// Handle starts a run for every enabled workflow whose trigger and
// conditions match the signal. Workflows run sequentially on the bus worker;
// one failing run does not stop the others.
func (t *Trigger) Handle(ctx context.Context, sig domain.Signal) error {
	matches, err := t.workflows.ListEnabledByTrigger(ctx, sig.OrgID, sig.Type)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to list triggered workflows",
			slog.String("operation", "Trigger.Handle"),
			slog.String("org_id", sig.OrgID),
			slog.String("signal_type", sig.Type),
			slog.Any("error", err),
		)
		return err
	}

	var errs []error
	for i := range matches {
		w := &matches[i]
		if !w.Conditions.Match(sig.Fields) {
			continue
		}
		if err := t.startRun(ctx, w, sig); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// startRun persists a new run with the signal's fields frozen onto it, then
// executes it.
func (t *Trigger) startRun(ctx context.Context, w *workflow.Workflow, sig domain.Signal) error {
	now := t.now().UTC()
	run := &workflow.Run{
		ID:           uuid.NewString(),
		OrgID:        sig.OrgID,
		WorkflowID:   w.ID,
		SignalID:     sig.ID,
		SignalType:   sig.Type,
		SubjectID:    sig.SubjectID,
		SignalFields: sig.Fields,
		Status:       workflow.RunPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := t.runs.CreateRun(ctx, run)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to create run",
			slog.String("operation", "Trigger.Handle"),
			slog.String("org_id", sig.OrgID),
			slog.String("workflow_id", w.ID),
			slog.Any("error", err),
		)
		return err
	}

	t.logger.InfoContext(ctx, "workflow triggered",
		slog.String("org_id", sig.OrgID),
		slog.String("workflow_id", w.ID),
		slog.String("run_id", created.ID),
		slog.String("signal_type", sig.Type),
	)
	return t.executor.ExecuteRun(ctx, w.Actions, created)
}
