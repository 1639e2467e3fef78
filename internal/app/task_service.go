package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/task"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time check that TaskService implements ports.TaskService.
var _ ports.TaskService = (*TaskService)(nil)

// TaskService implements ports.TaskService.
type TaskService struct {
	tasks  ports.TaskStore
	bus    ports.SignalBus
	logger *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(tasks ports.TaskStore, bus ports.SignalBus, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		bus:    bus,
		logger: logger,
	}
}

// ListTasks returns the org's tasks matching the filter.
func (s *TaskService) ListTasks(ctx context.Context, orgID string, filter task.Filter) ([]task.Task, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	tasks, err := s.tasks.ListTasks(ctx, orgID, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list tasks",
			slog.String("operation", "ListTasks"),
			slog.String("org_id", orgID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return tasks, nil
}

// GetTask returns a single task by ID.
func (s *TaskService) GetTask(ctx context.Context, orgID, id string) (*task.Task, error) {
	t, err := s.tasks.GetTask(ctx, orgID, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch task",
			slog.String("operation", "GetTask"),
			slog.String("org_id", orgID),
			slog.String("task_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}
	return t, nil
}

// CreateTask validates and creates a task.
func (s *TaskService) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	if t.Status == "" {
		t.Status = task.StatusOpen
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now

	created, err := s.tasks.CreateTask(ctx, t)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create task",
			slog.String("operation", "CreateTask"),
			slog.String("org_id", t.OrgID),
			slog.Any("error", err),
		)
		return nil, err
	}
	return created, nil
}

// UpdateTask validates and updates a task. Transitioning to done publishes
// task.completed; reopening a done task does not publish anything.
func (s *TaskService) UpdateTask(ctx context.Context, orgID, id string, t *task.Task) (*task.Task, error) {
	existing, err := s.tasks.GetTask(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	wasDone := existing.Status == task.StatusDone

	existing.Title = t.Title
	existing.DueAt = t.DueAt
	existing.RelatedKind = t.RelatedKind
	existing.RelatedID = t.RelatedID
	if t.Status != "" {
		existing.Status = t.Status
	}

	if err := existing.Validate(); err != nil {
		return nil, err
	}
	existing.UpdatedAt = time.Now().UTC()

	updated, err := s.tasks.UpdateTask(ctx, existing)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update task",
			slog.String("operation", "UpdateTask"),
			slog.String("org_id", orgID),
			slog.String("task_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}

	if !wasDone && updated.Status == task.StatusDone {
		s.bus.Publish(ctx, domain.NewSignal(
			domain.SignalTaskCompleted, orgID, domain.SubjectTask, updated.ID, map[string]string{
				"title":        updated.Title,
				"related_kind": string(updated.RelatedKind),
				"related_id":   updated.RelatedID,
			}))
	}
	return updated, nil
}

// DeleteTask removes a task.
func (s *TaskService) DeleteTask(ctx context.Context, orgID, id string) error {
	if err := s.tasks.DeleteTask(ctx, orgID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete task",
			slog.String("operation", "DeleteTask"),
			slog.String("org_id", orgID),
			slog.String("task_id", id),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
