package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/salesforge/platform/internal/domain/contact"
	"github.com/salesforge/platform/internal/ports"
)

var _ ports.ContactStore = (*ContactStore)(nil)

// ContactStore persists contacts.
type ContactStore struct {
	db *sqlx.DB
}

// NewContactStore creates a PostgreSQL-backed ContactStore.
func NewContactStore(db *sqlx.DB) *ContactStore {
	return &ContactStore{db: db}
}

type contactRow struct {
	ID        string    `db:"id"`
	OrgID     string    `db:"org_id"`
	LeadID    string    `db:"lead_id"`
	Email     string    `db:"email"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Company   string    `db:"company"`
	Phone     string    `db:"phone"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r contactRow) toDomain() *contact.Contact {
	return &contact.Contact{
		ID:        r.ID,
		OrgID:     r.OrgID,
		LeadID:    r.LeadID,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Company:   r.Company,
		Phone:     r.Phone,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (s *ContactStore) ListContacts(ctx context.Context, orgID string, filter contact.Filter) ([]contact.Contact, error) {
	query := `SELECT * FROM contacts WHERE org_id = :org_id`
	args := map[string]any{
		"org_id": orgID,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}
	if filter.Company != "" {
		query += ` AND company = :company`
		args["company"] = filter.Company
	}
	query += ` ORDER BY created_at DESC LIMIT :limit OFFSET :offset`

	rows, err := s.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	contacts := []contact.Contact{}
	for rows.Next() {
		var row contactRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		contacts = append(contacts, *row.toDomain())
	}
	return contacts, rows.Err()
}

func (s *ContactStore) GetContact(ctx context.Context, orgID, id string) (*contact.Contact, error) {
	var row contactRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM contacts WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

func (s *ContactStore) CreateContact(ctx context.Context, c *contact.Contact) (*contact.Contact, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, org_id, lead_id, email, first_name, last_name,
		                       company, phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.OrgID, c.LeadID, c.Email, c.FirstName, c.LastName,
		c.Company, c.Phone, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (s *ContactStore) UpdateContact(ctx context.Context, c *contact.Contact) (*contact.Contact, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET email = $3, first_name = $4, last_name = $5,
		                     company = $6, phone = $7, updated_at = $8
		 WHERE org_id = $1 AND id = $2`,
		c.OrgID, c.ID, c.Email, c.FirstName, c.LastName, c.Company, c.Phone, c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactStore) DeleteContact(ctx context.Context, orgID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}
