// Package audit ships cycle records to optional downstream sinks next to the
// SQLite audit table.
package audit

import (
	"context"
	"errors"

	"pump_control/internal/models"
)

// Sink receives one record per finished cycle.
type Sink interface {
	Publish(ctx context.Context, rec models.AuditRecord) error
}

// Multi fans a record out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, rec models.AuditRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
