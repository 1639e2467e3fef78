package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/salesforge/platform/internal/domain/workflow"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time check that WorkflowService implements ports.WorkflowService.
var _ ports.WorkflowService = (*WorkflowService)(nil)

// WorkflowService implements ports.WorkflowService: CRUD over workflow
// definitions plus read access to their runs. Execution itself lives in the
// engine; this service only manages definitions.
type WorkflowService struct {
	workflows ports.WorkflowStore
	runs      ports.RunStore
	logger    *slog.Logger
}

// NewWorkflowService creates a WorkflowService.
func NewWorkflowService(workflows ports.WorkflowStore, runs ports.RunStore, logger *slog.Logger) *WorkflowService {
	return &WorkflowService{
		workflows: workflows,
		runs:      runs,
		logger:    logger,
	}
}

// ListWorkflows returns the org's workflows matching the filter.
func (s *WorkflowService) ListWorkflows(ctx context.Context, orgID string, filter workflow.Filter) ([]workflow.Workflow, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	workflows, err := s.workflows.ListWorkflows(ctx, orgID, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list workflows",
			slog.String("operation", "ListWorkflows"),
			slog.String("org_id", orgID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return workflows, nil
}

// GetWorkflow returns a single workflow by ID.
func (s *WorkflowService) GetWorkflow(ctx context.Context, orgID, id string) (*workflow.Workflow, error) {
	w, err := s.workflows.GetWorkflow(ctx, orgID, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch workflow",
			slog.String("operation", "GetWorkflow"),
			slog.String("org_id", orgID),
			slog.String("workflow_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}
	return w, nil
}

// CreateWorkflow validates and creates a workflow definition.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	w.ID = uuid.NewString()
	w.CreatedAt = now
	w.UpdatedAt = now

	created, err := s.workflows.CreateWorkflow(ctx, w)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create workflow",
			slog.String("operation", "CreateWorkflow"),
			slog.String("org_id", w.OrgID),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "workflow created",
		slog.String("org_id", created.OrgID),
		slog.String("workflow_id", created.ID),
		slog.String("trigger", created.Trigger),
	)
	return created, nil
}

// UpdateWorkflow validates and replaces a workflow's definition. Waiting
// runs resumed after the update continue from their step cursor against the
// updated action list.
func (s *WorkflowService) UpdateWorkflow(ctx context.Context, orgID, id string, w *workflow.Workflow) (*workflow.Workflow, error) {
	existing, err := s.workflows.GetWorkflow(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	existing.Name = w.Name
	existing.Enabled = w.Enabled
	existing.Trigger = w.Trigger
	existing.Conditions = w.Conditions
	existing.Actions = w.Actions

	if err := existing.Validate(); err != nil {
		return nil, err
	}
	existing.UpdatedAt = time.Now().UTC()

	updated, err := s.workflows.UpdateWorkflow(ctx, existing)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update workflow",
			slog.String("operation", "UpdateWorkflow"),
			slog.String("org_id", orgID),
			slog.String("workflow_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}
	return updated, nil
}

// DeleteWorkflow removes a workflow definition. Past runs are retained.
func (s *WorkflowService) DeleteWorkflow(ctx context.Context, orgID, id string) error {
	if err := s.workflows.DeleteWorkflow(ctx, orgID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete workflow",
			slog.String("operation", "DeleteWorkflow"),
			slog.String("org_id", orgID),
			slog.String("workflow_id", id),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// SetEnabled enables or disables a workflow.
func (s *WorkflowService) SetEnabled(ctx context.Context, orgID, id string, enabled bool) error {
	if err := s.workflows.SetEnabled(ctx, orgID, id, enabled); err != nil {
		s.logger.ErrorContext(ctx, "failed to toggle workflow",
			slog.String("operation", "SetEnabled"),
			slog.String("org_id", orgID),
			slog.String("workflow_id", id),
			slog.Bool("enabled", enabled),
			slog.Any("error", err),
		)
		return err
	}
	s.logger.InfoContext(ctx, "workflow toggled",
		slog.String("org_id", orgID),
		slog.String("workflow_id", id),
		slog.Bool("enabled", enabled),
	)
	return nil
}

// ListRuns returns a workflow's runs, newest first.
func (s *WorkflowService) ListRuns(ctx context.Context, orgID, workflowID string, limit, offset int) ([]workflow.Run, error) {
	limit, offset = clampPage(limit, offset)

	runs, err := s.runs.ListRuns(ctx, orgID, workflowID, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list runs",
			slog.String("operation", "ListRuns"),
			slog.String("org_id", orgID),
			slog.String("workflow_id", workflowID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return runs, nil
}

// GetRun returns a single run by ID.
func (s *WorkflowService) GetRun(ctx context.Context, orgID, runID string) (*workflow.Run, error) {
	run, err := s.runs.GetRun(ctx, orgID, runID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch run",
			slog.String("operation", "GetRun"),
			slog.String("org_id", orgID),
			slog.String("run_id", runID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return run, nil
}
