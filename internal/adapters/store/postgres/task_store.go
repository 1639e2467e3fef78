package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/task"
	"github.com/salesforge/platform/internal/ports"
)

var _ ports.TaskStore = (*TaskStore)(nil)

// TaskStore persists tasks.
type TaskStore struct {
	db *sqlx.DB
}

// NewTaskStore creates a PostgreSQL-backed TaskStore.
func NewTaskStore(db *sqlx.DB) *TaskStore {
	return &TaskStore{db: db}
}

type taskRow struct {
	ID          string     `db:"id"`
	OrgID       string     `db:"org_id"`
	Title       string     `db:"title"`
	Status      string     `db:"status"`
	DueAt       *time.Time `db:"due_at"`
	RelatedKind string     `db:"related_kind"`
	RelatedID   string     `db:"related_id"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r taskRow) toDomain() *task.Task {
	return &task.Task{
		ID:          r.ID,
		OrgID:       r.OrgID,
		Title:       r.Title,
		Status:      task.Status(r.Status),
		DueAt:       r.DueAt,
		RelatedKind: domain.SubjectKind(r.RelatedKind),
		RelatedID:   r.RelatedID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (s *TaskStore) ListTasks(ctx context.Context, orgID string, filter task.Filter) ([]task.Task, error) {
	query := `SELECT * FROM tasks WHERE org_id = :org_id`
	args := map[string]any{
		"org_id": orgID,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}
	if filter.Status != "" {
		query += ` AND status = :status`
		args["status"] = string(filter.Status)
	}
	if filter.RelatedID != "" {
		query += ` AND related_id = :related_id`
		args["related_id"] = filter.RelatedID
	}
	query += ` ORDER BY created_at DESC LIMIT :limit OFFSET :offset`

	rows, err := s.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		var row taskRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		tasks = append(tasks, *row.toDomain())
	}
	return tasks, rows.Err()
}

func (s *TaskStore) GetTask(ctx context.Context, orgID, id string) (*task.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM tasks WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

func (s *TaskStore) CreateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, org_id, title, status, due_at, related_kind,
		                    related_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.OrgID, t.Title, string(t.Status), t.DueAt, string(t.RelatedKind),
		t.RelatedID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (s *TaskStore) UpdateTask(ctx context.Context, t *task.Task) (*task.Task, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = $3, status = $4, due_at = $5, related_kind = $6,
		                  related_id = $7, updated_at = $8
		 WHERE org_id = $1 AND id = $2`,
		t.OrgID, t.ID, t.Title, string(t.Status), t.DueAt, string(t.RelatedKind),
		t.RelatedID, t.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskStore) DeleteTask(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}
