// Package postgres implements the persistence ports on PostgreSQL via sqlx.
// One store type per aggregate; all queries are org-scoped and sentinel
// errors (domain.ErrNotFound, domain.ErrConflict) are mapped here so the
// application layer never sees driver errors.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/platform/config"

	_ "embed"
)

//go:embed schema.sql
var schema string

// Open connects to PostgreSQL, applies pool settings, and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg *config.StoreConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema. Every statement is idempotent, so
// running it on boot is safe.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Checker reports database connectivity for the readiness endpoint. It
// satisfies ports.HealthChecker via structural typing.
type Checker struct {
	db *sqlx.DB
}

// NewChecker creates a health checker for the given connection pool.
func NewChecker(db *sqlx.DB) *Checker {
	return &Checker{db: db}
}

// Name identifies the component in readiness responses.
func (c *Checker) Name() string { return "postgres" }

// HealthCheck pings the database.
func (c *Checker) HealthCheck(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// mapError translates driver errors into domain sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return domain.ErrConflict
	}
	return err
}

// requireRow returns domain.ErrNotFound when a write touched no rows.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// marshalJSON encodes a JSON column value, treating nil as an empty object.
func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	return b, nil
}

// unmarshalJSON decodes a JSON column into dest, tolerating empty columns.
func unmarshalJSON(data []byte, dest any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal json column: %w", err)
	}
	return nil
}
