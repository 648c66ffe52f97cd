package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"pump_control/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

var auditCols = []string{"id", "occurred_at", "site", "status_code", "status", "narrative", "error", "payload"}

func TestAuditAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewAuditSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(insertAuditSQL)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(),
			"88k", 200, "ok", "88k Tank Low 19.5",
			nil, // no error
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Append(ctx(t), models.AuditRecord{
		Site:       "88k",
		StatusCode: 200,
		Status:     models.StatusOK,
		Narrative:  "88k Tank Low 19.5",
		Event:      models.ScheduledTick(),
		Decision:   &models.Decision{DesiredValue: models.Value(1), Status: models.StatusOK},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAuditAppend_DBError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewAuditSQLite(db)

	mock.ExpectExec("INSERT INTO audit_records").
		WillReturnError(errors.New("down"))

	err = repo.Append(ctx(t), models.AuditRecord{Site: "spring", Error: "boom"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestAuditList_NoFilters_DecodesPayload(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewAuditSQLite(db)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	payload := `{"event":{"pump":"off","reason":{"type":"email_alarm","value":true}},"decision":{"desired_value":0,"narrative":"x","terminal_status":"ok"}}`

	rows := sqlmock.NewRows(auditCols).
		AddRow("1", now, "spring", 200, "ok", "x", nil, payload).
		AddRow("2", now.Add(time.Hour), "88k", 502, "upstream_failure", "y", "transport", nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectAuditSQL + " ORDER BY occurred_at ASC")).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), models.AuditFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].Event.RequestedPumpState != models.PumpOff || got[0].Event.Reason == nil || got[0].Event.Reason.Type != models.ReasonEmailAlarm {
		t.Fatalf("event not decoded: %+v", got[0].Event)
	}
	if got[0].Decision == nil || !got[0].Decision.Wants(models.OutputOff) {
		t.Fatalf("decision not decoded: %+v", got[0].Decision)
	}
	if got[1].Error != "transport" || got[1].Decision != nil || got[1].Status != models.StatusUpstreamFailure {
		t.Fatalf("unexpected second record: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAuditList_WithFilters_OrderAndArgs(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewAuditSQLite(db)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := selectAuditSQL + ` WHERE occurred_at >= ? AND occurred_at <= ? AND site = ? AND status = ? ORDER BY occurred_at ASC LIMIT ?`

	rows := sqlmock.NewRows(auditCols).
		AddRow("3", from, "88k", 503, "power_out", "88k Power Out", nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(from, to, "88k", "power_out", 10).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), models.AuditFilter{
		From: from, To: to, Site: " 88k ", Status: "POWER_OUT", Limit: 10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "3" || got[0].StatusCode != 503 {
		t.Fatalf("unexpected results: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAuditList_ScanError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewAuditSQLite(db)

	rows := sqlmock.NewRows(auditCols).
		// occurred_at wrong type to force scan error
		AddRow("x", 123, "88k", 200, "ok", "msg", nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectAuditSQL)).
		WillReturnRows(rows)

	if _, err := repo.List(ctx(t), models.AuditFilter{}); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
}

func TestAuditList_BadPayload(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewAuditSQLite(db)

	rows := sqlmock.NewRows(auditCols).
		AddRow("x", time.Now(), "88k", 200, "ok", "msg", nil, "{not json")
	mock.ExpectQuery(regexp.QuoteMeta(selectAuditSQL)).WillReturnRows(rows)

	if _, err := repo.List(ctx(t), models.AuditFilter{}); err == nil {
		t.Fatalf("expected payload decode error")
	}
}
