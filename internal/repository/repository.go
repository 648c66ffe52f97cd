package repository

import (
	"context"
	"database/sql"

	"pump_control/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// CredentialRepo stores the one cached Sensaphone session. Get returns
// (nil, nil) when nothing has been stored yet.
type CredentialRepo interface {
	Get(ctx context.Context) (*models.Credential, error)
	Put(ctx context.Context, c models.Credential) error
}

type AuditRepo interface {
	Append(ctx context.Context, r models.AuditRecord) error
	List(ctx context.Context, f models.AuditFilter) ([]models.AuditRecord, error)
}

// ParamRepo holds operator overrides of site policy values.
type ParamRepo interface {
	List(ctx context.Context, site string) (map[string]string, error)
	Set(ctx context.Context, site, key, value string) error
}

type Repository struct {
	Credentials CredentialRepo
	Audit       AuditRepo
	Params      ParamRepo
	Auth        Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Credentials: NewCredentialSQLite(db),
		Audit:       NewAuditSQLite(db),
		Params:      NewParamSQLite(db),
		Auth:        NewUserRepository(db),
	}
}
