package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/salesforge/platform/internal/domain/workflow"
	"github.com/salesforge/platform/internal/ports"
)

var _ ports.WorkflowStore = (*WorkflowStore)(nil)

// WorkflowStore persists workflow definitions. Condition trees and action
// lists are stored as JSONB.
type WorkflowStore struct {
	db *sqlx.DB
}

// NewWorkflowStore creates a PostgreSQL-backed WorkflowStore.
func NewWorkflowStore(db *sqlx.DB) *WorkflowStore {
	return &WorkflowStore{db: db}
}

type workflowRow struct {
	ID         string         `db:"id"`
	OrgID      string         `db:"org_id"`
	Name       string         `db:"name"`
	Enabled    bool           `db:"enabled"`
	Trigger    string         `db:"trigger"`
	Conditions types.JSONText `db:"conditions"`
	Actions    types.JSONText `db:"actions"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (r workflowRow) toDomain() (*workflow.Workflow, error) {
	w := &workflow.Workflow{
		ID:        r.ID,
		OrgID:     r.OrgID,
		Name:      r.Name,
		Enabled:   r.Enabled,
		Trigger:   r.Trigger,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := unmarshalJSON(r.Conditions, &w.Conditions); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.Actions, &w.Actions); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WorkflowStore) scanList(rows *sqlx.Rows) ([]workflow.Workflow, error) {
	defer rows.Close()

	workflows := []workflow.Workflow{}
	for rows.Next() {
		var row workflowRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		w, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, *w)
	}
	return workflows, rows.Err()
}

func (s *WorkflowStore) ListWorkflows(ctx context.Context, orgID string, filter workflow.Filter) ([]workflow.Workflow, error) {
	query := `SELECT * FROM workflows WHERE org_id = :org_id`
	args := map[string]any{
		"org_id": orgID,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}
	if filter.Trigger != "" {
		query += ` AND trigger = :trigger`
		args["trigger"] = filter.Trigger
	}
	if filter.Enabled != nil {
		query += ` AND enabled = :enabled`
		args["enabled"] = *filter.Enabled
	}
	query += ` ORDER BY created_at DESC LIMIT :limit OFFSET :offset`

	rows, err := s.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, mapError(err)
	}
	return s.scanList(rows)
}

func (s *WorkflowStore) ListEnabledByTrigger(ctx context.Context, orgID, trigger string) ([]workflow.Workflow, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT * FROM workflows WHERE org_id = $1 AND trigger = $2 AND enabled
		 ORDER BY created_at`, orgID, trigger)
	if err != nil {
		return nil, mapError(err)
	}
	return s.scanList(rows)
}

func (s *WorkflowStore) GetWorkflow(ctx context.Context, orgID, id string) (*workflow.Workflow, error) {
	var row workflowRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM workflows WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain()
}

func (s *WorkflowStore) CreateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	conditions, err := marshalJSON(w.Conditions)
	if err != nil {
		return nil, err
	}
	actions, err := marshalJSON(w.Actions)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflows (id, org_id, name, enabled, trigger, conditions,
		                        actions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.ID, w.OrgID, w.Name, w.Enabled, w.Trigger, conditions, actions,
		w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return w, nil
}

func (s *WorkflowStore) UpdateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	conditions, err := marshalJSON(w.Conditions)
	if err != nil {
		return nil, err
	}
	actions, err := marshalJSON(w.Actions)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE workflows SET name = $3, enabled = $4, trigger = $5,
		                      conditions = $6, actions = $7, updated_at = $8
		 WHERE org_id = $1 AND id = $2`,
		w.OrgID, w.ID, w.Name, w.Enabled, w.Trigger, conditions, actions, w.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WorkflowStore) DeleteWorkflow(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM workflows WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (s *WorkflowStore) SetEnabled(ctx context.Context, orgID, id string, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE workflows SET enabled = $3, updated_at = $4
		 WHERE org_id = $1 AND id = $2`,
		orgID, id, enabled, time.Now().UTC())
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}
