package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pump_control/internal/models"
	"pump_control/internal/repository"
)

const maxAuditLimit = 1000

type AuditLogService struct {
	auditRepo repository.AuditRepo
}

func NewAuditLogService(auditRepo repository.AuditRepo) *AuditLogService {
	return &AuditLogService{auditRepo: auditRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: from must be <= to")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f models.AuditFilter) (models.AuditFilter, error) {
	f.From = normalizeToUTC(f.From)
	f.To = normalizeToUTC(f.To)
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return models.AuditFilter{}, fmt.Errorf("%w: %w", models.ErrInvalidInput, errInvalidTimeRange)
	}

	f.Site = strings.ToLower(strings.TrimSpace(f.Site))
	f.Status = models.TerminalStatus(strings.ToLower(strings.TrimSpace(string(f.Status))))
	switch f.Status {
	case "", models.StatusOK, models.StatusNoOp, models.StatusInvalidInput, models.StatusPowerOut, models.StatusUpstreamFailure:
	default:
		return models.AuditFilter{}, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, f.Status)
	}

	if f.Limit < 0 {
		return models.AuditFilter{}, fmt.Errorf("%w: negative limit", models.ErrInvalidInput)
	}
	if f.Limit == 0 || f.Limit > maxAuditLimit {
		f.Limit = maxAuditLimit
	}
	return f, nil
}

func (s *AuditLogService) List(ctx context.Context, f models.AuditFilter) ([]models.AuditRecord, error) {
	f, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.auditRepo.List(ctx, f)
}
