package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/salesforge/platform/internal/domain/sequence"
	"github.com/salesforge/platform/internal/ports"
)

var _ ports.SequenceStore = (*SequenceStore)(nil)

// SequenceStore persists sequences and enrollments. The partial unique index
// on active enrollments enforces one active enrollment per lead per
// sequence; the insert surfaces it as domain.ErrConflict.
type SequenceStore struct {
	db *sqlx.DB
}

// NewSequenceStore creates a PostgreSQL-backed SequenceStore.
func NewSequenceStore(db *sqlx.DB) *SequenceStore {
	return &SequenceStore{db: db}
}

type sequenceRow struct {
	ID        string         `db:"id"`
	OrgID     string         `db:"org_id"`
	Name      string         `db:"name"`
	Steps     types.JSONText `db:"steps"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r sequenceRow) toDomain() (*sequence.Sequence, error) {
	s := &sequence.Sequence{
		ID:        r.ID,
		OrgID:     r.OrgID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := unmarshalJSON(r.Steps, &s.Steps); err != nil {
		return nil, err
	}
	return s, nil
}

type enrollmentRow struct {
	ID           string     `db:"id"`
	OrgID        string     `db:"org_id"`
	SequenceID   string     `db:"sequence_id"`
	LeadID       string     `db:"lead_id"`
	Status       string     `db:"status"`
	CurrentStep  int        `db:"current_step"`
	NextSendAt   *time.Time `db:"next_send_at"`
	ClaimedUntil *time.Time `db:"claimed_until"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (r enrollmentRow) toDomain() *sequence.Enrollment {
	return &sequence.Enrollment{
		ID:          r.ID,
		OrgID:       r.OrgID,
		SequenceID:  r.SequenceID,
		LeadID:      r.LeadID,
		Status:      sequence.EnrollmentStatus(r.Status),
		CurrentStep: r.CurrentStep,
		NextSendAt:  r.NextSendAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (s *SequenceStore) ListSequences(ctx context.Context, orgID string, limit, offset int) ([]sequence.Sequence, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT * FROM sequences WHERE org_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	sequences := []sequence.Sequence{}
	for rows.Next() {
		var row sequenceRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		seq, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, *seq)
	}
	return sequences, rows.Err()
}

func (s *SequenceStore) GetSequence(ctx context.Context, orgID, id string) (*sequence.Sequence, error) {
	var row sequenceRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM sequences WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain()
}

func (s *SequenceStore) CreateSequence(ctx context.Context, seq *sequence.Sequence) (*sequence.Sequence, error) {
	steps, err := marshalJSON(seq.Steps)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sequences (id, org_id, name, steps, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		seq.ID, seq.OrgID, seq.Name, steps, seq.CreatedAt, seq.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return seq, nil
}

func (s *SequenceStore) UpdateSequence(ctx context.Context, seq *sequence.Sequence) (*sequence.Sequence, error) {
	steps, err := marshalJSON(seq.Steps)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sequences SET name = $3, steps = $4, updated_at = $5
		 WHERE org_id = $1 AND id = $2`,
		seq.OrgID, seq.ID, seq.Name, steps, seq.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return seq, nil
}

func (s *SequenceStore) DeleteSequence(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sequences WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (s *SequenceStore) CreateEnrollment(ctx context.Context, e *sequence.Enrollment) (*sequence.Enrollment, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sequence_enrollments (id, org_id, sequence_id, lead_id, status,
		                                   current_step, next_send_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.OrgID, e.SequenceID, e.LeadID, string(e.Status),
		e.CurrentStep, e.NextSendAt, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

func (s *SequenceStore) UpdateEnrollment(ctx context.Context, e *sequence.Enrollment) (*sequence.Enrollment, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sequence_enrollments SET status = $3, current_step = $4,
		                                 next_send_at = $5, updated_at = $6,
		                                 claimed_until = NULL
		 WHERE org_id = $1 AND id = $2`,
		e.OrgID, e.ID, string(e.Status), e.CurrentStep, e.NextSendAt, e.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *SequenceStore) GetEnrollment(ctx context.Context, orgID, id string) (*sequence.Enrollment, error) {
	var row enrollmentRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM sequence_enrollments WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

func (s *SequenceStore) ListEnrollments(ctx context.Context, orgID, sequenceID string, limit, offset int) ([]sequence.Enrollment, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT * FROM sequence_enrollments WHERE org_id = $1 AND sequence_id = $2
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		orgID, sequenceID, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	enrollments := []sequence.Enrollment{}
	for rows.Next() {
		var row enrollmentRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, *row.toDomain())
	}
	return enrollments, rows.Err()
}

func (s *SequenceStore) ClaimDueEnrollments(ctx context.Context, now time.Time, limit int) ([]sequence.Enrollment, error) {
	// The claim takes a lease; next_send_at is left in place so a crashed
	// sender strands nothing. The sender sets the real next step time (or
	// terminal status) when it finishes, which also releases the lease.
	rows, err := s.db.QueryxContext(ctx,
		`UPDATE sequence_enrollments SET claimed_until = $3, updated_at = $1
		 WHERE (org_id, id) IN (
		     SELECT org_id, id FROM sequence_enrollments
		     WHERE status = 'active' AND next_send_at <= $1
		       AND (claimed_until IS NULL OR claimed_until <= $1)
		     ORDER BY next_send_at
		     LIMIT $2
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		now, limit, now.Add(claimLease))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	enrollments := []sequence.Enrollment{}
	for rows.Next() {
		var row enrollmentRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, *row.toDomain())
	}
	return enrollments, rows.Err()
}

func (s *SequenceStore) ExitActiveEnrollmentsForLead(ctx context.Context, orgID, leadID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sequence_enrollments SET status = 'exited', next_send_at = NULL,
		                                 claimed_until = NULL, updated_at = $3
		 WHERE org_id = $1 AND lead_id = $2 AND status = 'active'`,
		orgID, leadID, time.Now().UTC())
	return mapError(err)
}
