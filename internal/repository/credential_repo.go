package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pump_control/internal/models"
)

type CredentialSQLite struct {
	db *sql.DB
}

func NewCredentialSQLite(db *sql.DB) *CredentialSQLite {
	return &CredentialSQLite{db: db}
}

var _ CredentialRepo = (*CredentialSQLite)(nil)

const (
	credentialRowID = 1

	upsertCredentialSQL = `
		INSERT INTO sensaphone_credentials (id, token, account_id, issued_at, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token=excluded.token,
			account_id=excluded.account_id,
			issued_at=excluded.issued_at,
			expires_at=excluded.expires_at,
			updated_at=excluded.updated_at
	`

	selectCredentialSQL = `
		SELECT token, account_id, issued_at, expires_at
		FROM sensaphone_credentials WHERE id=?
	`
)

// Put replaces the stored credential (id always 1). Times are written as UTC.
func (r *CredentialSQLite) Put(ctx context.Context, c models.Credential) error {
	if c.Token == "" {
		return fmt.Errorf("%w: empty session token", models.ErrInvalidInput)
	}
	_, err := r.db.ExecContext(ctx, upsertCredentialSQL,
		credentialRowID,
		c.Token,
		c.AccountID,
		c.IssuedAt.UTC(),
		c.ExpiresAt.UTC(),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

// Get loads the stored credential, or nil if there is none.
func (r *CredentialSQLite) Get(ctx context.Context) (*models.Credential, error) {
	var c models.Credential
	err := r.db.QueryRowContext(ctx, selectCredentialSQL, credentialRowID).
		Scan(&c.Token, &c.AccountID, &c.IssuedAt, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select credential: %w", err)
	}
	c.IssuedAt = c.IssuedAt.UTC()
	c.ExpiresAt = c.ExpiresAt.UTC()
	return &c, nil
}
