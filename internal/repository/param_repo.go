package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type ParamSQLite struct {
	db *sql.DB
}

func NewParamSQLite(db *sql.DB) *ParamSQLite { return &ParamSQLite{db: db} }

var _ ParamRepo = (*ParamSQLite)(nil)

const (
	selectParamsSQL = `SELECT key, value FROM policy_params WHERE site = ? ORDER BY key`
	upsertParamSQL  = `
		INSERT INTO policy_params (site, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(site, key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`
)

// List returns the overrides stored for site, keyed by parameter name.
func (r *ParamSQLite) List(ctx context.Context, site string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, selectParamsSQL, site)
	if err != nil {
		return nil, fmt.Errorf("query params for %q: %w", site, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan param: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Set upserts one override.
func (r *ParamSQLite) Set(ctx context.Context, site, key, value string) error {
	if _, err := r.db.ExecContext(ctx, upsertParamSQL, site, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert param %s/%s: %w", site, key, err)
	}
	return nil
}
