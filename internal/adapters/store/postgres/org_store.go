package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/salesforge/platform/internal/domain/org"
	"github.com/salesforge/platform/internal/ports"
)

var _ ports.OrgStore = (*OrgStore)(nil)

// OrgStore persists organizations and users.
type OrgStore struct {
	db *sqlx.DB
}

// NewOrgStore creates a PostgreSQL-backed OrgStore.
func NewOrgStore(db *sqlx.DB) *OrgStore {
	return &OrgStore{db: db}
}

type orgRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Slug       string    `db:"slug"`
	Plan       string    `db:"plan"`
	APIKeyHash string    `db:"api_key_hash"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r orgRow) toDomain() *org.Organization {
	return &org.Organization{
		ID:         r.ID,
		Name:       r.Name,
		Slug:       r.Slug,
		Plan:       org.Plan(r.Plan),
		APIKeyHash: r.APIKeyHash,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type userRow struct {
	ID        string    `db:"id"`
	OrgID     string    `db:"org_id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r userRow) toDomain() *org.User {
	return &org.User{
		ID:        r.ID,
		OrgID:     r.OrgID,
		Email:     r.Email,
		Name:      r.Name,
		Role:      org.Role(r.Role),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (s *OrgStore) GetOrg(ctx context.Context, id string) (*org.Organization, error) {
	var row orgRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM organizations WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

func (s *OrgStore) GetOrgByAPIKeyHash(ctx context.Context, hash string) (*org.Organization, error) {
	var row orgRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM organizations WHERE api_key_hash = $1`, hash)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

func (s *OrgStore) CreateOrg(ctx context.Context, o *org.Organization) (*org.Organization, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, slug, plan, api_key_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.Name, o.Slug, string(o.Plan), o.APIKeyHash, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return o, nil
}

func (s *OrgStore) GetUserByEmail(ctx context.Context, orgID, email string) (*org.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM users WHERE org_id = $1 AND email = $2`, orgID, email)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

func (s *OrgStore) CreateUser(ctx context.Context, u *org.User) (*org.User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, org_id, email, name, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.OrgID, u.Email, u.Name, string(u.Role), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}
