package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/ports"
)

var _ ports.LeadStore = (*LeadStore)(nil)

// LeadStore persists leads.
type LeadStore struct {
	db *sqlx.DB
}

// NewLeadStore creates a PostgreSQL-backed LeadStore.
func NewLeadStore(db *sqlx.DB) *LeadStore {
	return &LeadStore{db: db}
}

type leadRow struct {
	ID         string         `db:"id"`
	OrgID      string         `db:"org_id"`
	Email      string         `db:"email"`
	FirstName  string         `db:"first_name"`
	LastName   string         `db:"last_name"`
	Company    string         `db:"company"`
	Phone      string         `db:"phone"`
	Source     string         `db:"source"`
	Status     string         `db:"status"`
	Score      int            `db:"score"`
	Attributes types.JSONText `db:"attributes"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (r leadRow) toDomain() (*lead.Lead, error) {
	attrs := map[string]string{}
	if err := unmarshalJSON(r.Attributes, &attrs); err != nil {
		return nil, err
	}
	return &lead.Lead{
		ID:         r.ID,
		OrgID:      r.OrgID,
		Email:      r.Email,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Company:    r.Company,
		Phone:      r.Phone,
		Source:     r.Source,
		Status:     lead.Status(r.Status),
		Score:      r.Score,
		Attributes: attrs,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func (s *LeadStore) ListLeads(ctx context.Context, orgID string, filter lead.Filter) ([]lead.Lead, error) {
	query := `SELECT * FROM leads WHERE org_id = :org_id`
	args := map[string]any{
		"org_id": orgID,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}
	if filter.Status != "" {
		query += ` AND status = :status`
		args["status"] = string(filter.Status)
	}
	if filter.Source != "" {
		query += ` AND source = :source`
		args["source"] = filter.Source
	}
	if filter.MinScore != nil {
		query += ` AND score >= :min_score`
		args["min_score"] = *filter.MinScore
	}
	query += ` ORDER BY created_at DESC LIMIT :limit OFFSET :offset`

	rows, err := s.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	leads := []lead.Lead{}
	for rows.Next() {
		var row leadRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		l, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

func (s *LeadStore) GetLead(ctx context.Context, orgID, id string) (*lead.Lead, error) {
	var row leadRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM leads WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain()
}

func (s *LeadStore) CreateLead(ctx context.Context, l *lead.Lead) (*lead.Lead, error) {
	attrs, err := marshalJSON(l.Attributes)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, org_id, email, first_name, last_name, company, phone,
		                    source, status, score, attributes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		l.ID, l.OrgID, l.Email, l.FirstName, l.LastName, l.Company, l.Phone,
		l.Source, string(l.Status), l.Score, attrs, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return l, nil
}

func (s *LeadStore) UpdateLead(ctx context.Context, l *lead.Lead) (*lead.Lead, error) {
	attrs, err := marshalJSON(l.Attributes)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET email = $3, first_name = $4, last_name = $5, company = $6,
		                  phone = $7, source = $8, status = $9, score = $10,
		                  attributes = $11, updated_at = $12
		 WHERE org_id = $1 AND id = $2`,
		l.OrgID, l.ID, l.Email, l.FirstName, l.LastName, l.Company,
		l.Phone, l.Source, string(l.Status), l.Score, attrs, l.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LeadStore) DeleteLead(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM leads WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (s *LeadStore) AdjustScore(ctx context.Context, orgID, id string, delta int) (*lead.Lead, error) {
	var row leadRow
	err := s.db.GetContext(ctx, &row,
		`UPDATE leads SET score = GREATEST(score + $3, 0), updated_at = $4
		 WHERE org_id = $1 AND id = $2
		 RETURNING *`,
		orgID, id, delta, time.Now().UTC())
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain()
}
