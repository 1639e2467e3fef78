// Package engine executes workflow automations: the Trigger subscriber turns
// matching bus signals into runs, the Executor walks a run's action list with
// per-action retries, and the Poller resumes runs parked by wait actions. The
// Scheduler drives sequence email sends on the same polling cadence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/workflow"
	"github.com/salesforge/platform/internal/platform/config"
	"github.com/salesforge/platform/internal/platform/telemetry"
	"github.com/salesforge/platform/internal/ports"
)

// Executor walks a run's action list from its step cursor, persisting the
// run after every step so a crash resumes where it left off. Actions retry
// on transient failures; a wait action parks the run and returns.
type Executor struct {
	runs    ports.RunStore
	actions *Actions
	retry   config.RetryConfig
	metrics *telemetry.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewExecutor creates an Executor. If metrics is nil, metric recording is
// skipped.
func NewExecutor(runs ports.RunStore, actions *Actions, retry config.RetryConfig, metrics *telemetry.Metrics, logger *slog.Logger) *Executor {
	return &Executor{
		runs:    runs,
		actions: actions,
		retry:   retry,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// ExecuteRun advances the run through actions, starting at its current step.
// It returns nil when the run completes or parks on a wait; a failed run is
// persisted as failed and the action's error returned.
func (e *Executor) ExecuteRun(ctx context.Context, actions []workflow.Action, run *workflow.Run) error {
	run.Status = workflow.RunRunning
	run.ResumeAt = nil

	for i := run.CurrentStep; i < len(actions); i++ {
		act := actions[i]

		if act.Type == workflow.ActionWait {
			d, err := act.WaitDuration()
			if err != nil {
				return e.failRun(ctx, run, i, act, err)
			}
			resume := e.now().UTC().Add(d)
			run.Status = workflow.RunWaiting
			run.ResumeAt = &resume
			run.CurrentStep = i + 1
			run.Steps = append(run.Steps, workflow.StepResult{
				Index:      i,
				Type:       act.Type,
				Attempts:   1,
				FinishedAt: e.now().UTC(),
			})
			if err := e.saveRun(ctx, run); err != nil {
				return err
			}
			e.logger.InfoContext(ctx, "run waiting",
				slog.String("org_id", run.OrgID),
				slog.String("run_id", run.ID),
				slog.Time("resume_at", resume),
			)
			return nil
		}

		attempts, err := e.executeWithRetry(ctx, run, act)
		e.recordAction(ctx, act.Type, err)
		if err != nil {
			run.Steps = append(run.Steps, workflow.StepResult{
				Index:      i,
				Type:       act.Type,
				Attempts:   attempts,
				Error:      err.Error(),
				FinishedAt: e.now().UTC(),
			})
			return e.failRun(ctx, run, i, act, err)
		}

		run.Steps = append(run.Steps, workflow.StepResult{
			Index:      i,
			Type:       act.Type,
			Attempts:   attempts,
			FinishedAt: e.now().UTC(),
		})
		run.CurrentStep = i + 1
		if err := e.saveRun(ctx, run); err != nil {
			return err
		}
	}

	run.Status = workflow.RunCompleted
	if err := e.saveRun(ctx, run); err != nil {
		return err
	}
	e.recordRun(ctx, run)
	return nil
}

// executeWithRetry runs one action, retrying transient failures with
// exponential backoff and jitter. It returns the number of attempts made.
func (e *Executor) executeWithRetry(ctx context.Context, run *workflow.Run, act workflow.Action) (int, error) {
	maxAttempts := e.retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = e.actions.Execute(ctx, run, act)
		if lastErr == nil {
			return attempt, nil
		}
		if permanent(lastErr) || attempt == maxAttempts {
			return attempt, lastErr
		}

		delay := backoff(attempt, e.retry)
		e.logger.WarnContext(ctx, "retrying action",
			slog.String("org_id", run.OrgID),
			slog.String("run_id", run.ID),
			slog.String("action_type", act.Type.String()),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("backoff", delay),
			slog.Any("error", lastErr),
		)

		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(delay):
		}
	}
	return maxAttempts, lastErr
}

// permanent reports whether retrying the action cannot change the outcome.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrForbidden)
}

// failRun marks the run failed at the given step and persists it.
func (e *Executor) failRun(ctx context.Context, run *workflow.Run, step int, act workflow.Action, cause error) error {
	run.Status = workflow.RunFailed
	run.CurrentStep = step
	run.ResumeAt = nil
	run.Error = fmt.Sprintf("action %d (%s): %v", step, act.Type, cause)

	if err := e.saveRun(ctx, run); err != nil {
		return err
	}
	e.recordRun(ctx, run)
	e.logger.ErrorContext(ctx, "run failed",
		slog.String("org_id", run.OrgID),
		slog.String("run_id", run.ID),
		slog.String("workflow_id", run.WorkflowID),
		slog.Int("step", step),
		slog.String("action_type", act.Type.String()),
		slog.Any("error", cause),
	)
	return cause
}

func (e *Executor) saveRun(ctx context.Context, run *workflow.Run) error {
	run.UpdatedAt = e.now().UTC()
	if _, err := e.runs.UpdateRun(ctx, run); err != nil {
		e.logger.ErrorContext(ctx, "failed to persist run",
			slog.String("operation", "ExecuteRun"),
			slog.String("org_id", run.OrgID),
			slog.String("run_id", run.ID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

func (e *Executor) recordAction(ctx context.Context, actionType workflow.ActionType, err error) {
	if e.metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	e.metrics.ActionsExecuted.Add(ctx, 1, metric.WithAttributes(
		telemetry.AttrActionType.String(actionType.String()),
		telemetry.AttrResult.String(result),
	))
}

func (e *Executor) recordRun(ctx context.Context, run *workflow.Run) {
	if e.metrics == nil {
		return
	}
	e.metrics.WorkflowRuns.Add(ctx, 1, metric.WithAttributes(
		telemetry.AttrResult.String(run.Status.String()),
	))
}
