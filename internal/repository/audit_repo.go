package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pump_control/internal/models"

	"github.com/google/uuid"
)

type AuditSQLite struct {
	db *sql.DB
}

func NewAuditSQLite(db *sql.DB) *AuditSQLite { return &AuditSQLite{db: db} }

var _ AuditRepo = (*AuditSQLite)(nil)

const (
	insertAuditSQL = `
		INSERT INTO audit_records (id, occurred_at, site, status_code, status, narrative, error, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	selectAuditSQL = `SELECT id, occurred_at, site, status_code, status, narrative, error, payload FROM audit_records`
)

// auditPayload is the JSON column holding the structured parts of a record.
type auditPayload struct {
	Event    models.Event          `json:"event"`
	Decision *models.Decision      `json:"decision,omitempty"`
	Result   *models.CommandResult `json:"result,omitempty"`
	Snapshot *models.Snapshot      `json:"snapshot,omitempty"`
}

// Append inserts a record. If ID or OccurredAt are empty, they're set.
func (r *AuditSQLite) Append(ctx context.Context, rec models.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(auditPayload{
		Event:    rec.Event,
		Decision: rec.Decision,
		Result:   rec.Result,
		Snapshot: rec.Snapshot,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	var errPtr *string
	if rec.Error != "" {
		errPtr = &rec.Error
	}

	_, err = r.db.ExecContext(ctx, insertAuditSQL,
		rec.ID,
		rec.OccurredAt.UTC(),
		rec.Site,
		rec.StatusCode,
		string(rec.Status),
		rec.Narrative,
		errPtr,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// List returns records filtered by [From, To] (inclusive), site and status, ordered ASC.
func (r *AuditSQLite) List(ctx context.Context, f models.AuditFilter) ([]models.AuditRecord, error) {
	var (
		conds []string
		args  []any
	)

	if !f.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, f.To.UTC())
	}
	if site := strings.TrimSpace(f.Site); site != "" {
		conds = append(conds, "site = ?")
		args = append(args, site)
	}
	if status := strings.ToLower(strings.TrimSpace(string(f.Status))); status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}

	q := selectAuditSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	out := make([]models.AuditRecord, 0, 64)
	for rows.Next() {
		var (
			rec        models.AuditRecord
			status     string
			errStr     sql.NullString
			payloadStr sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.OccurredAt, &rec.Site, &rec.StatusCode, &status, &rec.Narrative, &errStr, &payloadStr); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.OccurredAt = rec.OccurredAt.UTC()
		rec.Status = models.TerminalStatus(status)
		rec.Error = errStr.String

		if payloadStr.Valid && payloadStr.String != "" {
			var p auditPayload
			if err := json.Unmarshal([]byte(payloadStr.String), &p); err != nil {
				return nil, fmt.Errorf("decode audit payload %s: %w", rec.ID, err)
			}
			rec.Event, rec.Decision, rec.Result, rec.Snapshot = p.Event, p.Decision, p.Result, p.Snapshot
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
