package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/salesforge/platform/internal/domain/deal"
	"github.com/salesforge/platform/internal/ports"
)

var _ ports.DealStore = (*DealStore)(nil)

// DealStore persists deals.
type DealStore struct {
	db *sqlx.DB
}

// NewDealStore creates a PostgreSQL-backed DealStore.
func NewDealStore(db *sqlx.DB) *DealStore {
	return &DealStore{db: db}
}

type dealRow struct {
	ID          string     `db:"id"`
	OrgID       string     `db:"org_id"`
	ContactID   string     `db:"contact_id"`
	Name        string     `db:"name"`
	Stage       string     `db:"stage"`
	AmountCents int64      `db:"amount_cents"`
	Currency    string     `db:"currency"`
	CloseDate   *time.Time `db:"close_date"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r dealRow) toDomain() *deal.Deal {
	return &deal.Deal{
		ID:          r.ID,
		OrgID:       r.OrgID,
		ContactID:   r.ContactID,
		Name:        r.Name,
		Stage:       deal.Stage(r.Stage),
		AmountCents: r.AmountCents,
		Currency:    r.Currency,
		CloseDate:   r.CloseDate,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (s *DealStore) ListDeals(ctx context.Context, orgID string, filter deal.Filter) ([]deal.Deal, error) {
	query := `SELECT * FROM deals WHERE org_id = :org_id`
	args := map[string]any{
		"org_id": orgID,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}
	if filter.Stage != "" {
		query += ` AND stage = :stage`
		args["stage"] = string(filter.Stage)
	}
	if filter.ContactID != "" {
		query += ` AND contact_id = :contact_id`
		args["contact_id"] = filter.ContactID
	}
	query += ` ORDER BY created_at DESC LIMIT :limit OFFSET :offset`

	rows, err := s.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	deals := []deal.Deal{}
	for rows.Next() {
		var row dealRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		deals = append(deals, *row.toDomain())
	}
	return deals, rows.Err()
}

func (s *DealStore) GetDeal(ctx context.Context, orgID, id string) (*deal.Deal, error) {
	var row dealRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM deals WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

func (s *DealStore) CreateDeal(ctx context.Context, d *deal.Deal) (*deal.Deal, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deals (id, org_id, contact_id, name, stage, amount_cents,
		                    currency, close_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.OrgID, d.ContactID, d.Name, string(d.Stage), d.AmountCents,
		d.Currency, d.CloseDate, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

func (s *DealStore) UpdateDeal(ctx context.Context, d *deal.Deal) (*deal.Deal, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE deals SET contact_id = $3, name = $4, stage = $5, amount_cents = $6,
		                  currency = $7, close_date = $8, updated_at = $9
		 WHERE org_id = $1 AND id = $2`,
		d.OrgID, d.ID, d.ContactID, d.Name, string(d.Stage), d.AmountCents,
		d.Currency, d.CloseDate, d.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DealStore) DeleteDeal(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM deals WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}
