package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/salesforge/platform/internal/domain/workflow"
	"github.com/salesforge/platform/internal/ports"
)

var _ ports.RunStore = (*RunStore)(nil)

// claimLease is how long a claimed row stays invisible to other pollers.
// It must exceed the worst-case execution time of one batch item (bounded
// by the action retry policy); after that a row whose claimer crashed
// becomes due again.
const claimLease = 5 * time.Minute

// RunStore persists workflow runs. ClaimDueRuns uses SKIP LOCKED so several
// poller instances can share the due-run backlog without double execution.
type RunStore struct {
	db *sqlx.DB
}

// NewRunStore creates a PostgreSQL-backed RunStore.
func NewRunStore(db *sqlx.DB) *RunStore {
	return &RunStore{db: db}
}

type runRow struct {
	ID           string         `db:"id"`
	OrgID        string         `db:"org_id"`
	WorkflowID   string         `db:"workflow_id"`
	SignalID     string         `db:"signal_id"`
	SignalType   string         `db:"signal_type"`
	SubjectID    string         `db:"subject_id"`
	SignalFields types.JSONText `db:"signal_fields"`
	Status       string         `db:"status"`
	CurrentStep  int            `db:"current_step"`
	Steps        types.JSONText `db:"steps"`
	Error        string         `db:"error"`
	ResumeAt     *time.Time     `db:"resume_at"`
	ClaimedUntil *time.Time     `db:"claimed_until"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r runRow) toDomain() (*workflow.Run, error) {
	run := &workflow.Run{
		ID:          r.ID,
		OrgID:       r.OrgID,
		WorkflowID:  r.WorkflowID,
		SignalID:    r.SignalID,
		SignalType:  r.SignalType,
		SubjectID:   r.SubjectID,
		Status:      workflow.RunStatus(r.Status),
		CurrentStep: r.CurrentStep,
		Error:       r.Error,
		ResumeAt:    r.ResumeAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	run.SignalFields = map[string]string{}
	if err := unmarshalJSON(r.SignalFields, &run.SignalFields); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.Steps, &run.Steps); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *RunStore) CreateRun(ctx context.Context, r *workflow.Run) (*workflow.Run, error) {
	fields, err := marshalJSON(r.SignalFields)
	if err != nil {
		return nil, err
	}
	steps, err := marshalJSON(r.Steps)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflow_runs (id, org_id, workflow_id, signal_id, signal_type,
		                            subject_id, signal_fields, status, current_step,
		                            steps, error, resume_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		r.ID, r.OrgID, r.WorkflowID, r.SignalID, r.SignalType, r.SubjectID,
		fields, string(r.Status), r.CurrentStep, steps, r.Error, r.ResumeAt,
		r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

func (s *RunStore) UpdateRun(ctx context.Context, r *workflow.Run) (*workflow.Run, error) {
	steps, err := marshalJSON(r.Steps)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE workflow_runs SET status = $3, current_step = $4, steps = $5,
		                          error = $6, resume_at = $7, updated_at = $8,
		                          claimed_until = NULL
		 WHERE org_id = $1 AND id = $2`,
		r.OrgID, r.ID, string(r.Status), r.CurrentStep, steps, r.Error,
		r.ResumeAt, r.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RunStore) GetRun(ctx context.Context, orgID, id string) (*workflow.Run, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM workflow_runs WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain()
}

func (s *RunStore) ListRuns(ctx context.Context, orgID, workflowID string, limit, offset int) ([]workflow.Run, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT * FROM workflow_runs WHERE org_id = $1 AND workflow_id = $2
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		orgID, workflowID, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	runs := []workflow.Run{}
	for rows.Next() {
		var row runRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		run, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (s *RunStore) ClaimDueRuns(ctx context.Context, now time.Time, limit int) ([]workflow.Run, error) {
	// The claim takes a lease rather than flipping status: the row stays
	// 'waiting' until the executor persists real progress, so a claimer
	// that crashes strands nothing. The lease expires and the run becomes
	// due again on a later tick.
	rows, err := s.db.QueryxContext(ctx,
		`UPDATE workflow_runs SET claimed_until = $3, updated_at = $1
		 WHERE (org_id, id) IN (
		     SELECT org_id, id FROM workflow_runs
		     WHERE status = 'waiting' AND resume_at <= $1
		       AND (claimed_until IS NULL OR claimed_until <= $1)
		     ORDER BY resume_at
		     LIMIT $2
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		now, limit, now.Add(claimLease))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	runs := []workflow.Run{}
	for rows.Next() {
		var row runRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		run, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
