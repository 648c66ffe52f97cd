package repository

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestParamSQLite_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewParamSQLite(db)

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("high_level", "23.5").
		AddRow("on_hour", "20")
	mock.ExpectQuery(regexp.QuoteMeta(selectParamsSQL)).
		WithArgs("88k").
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), "88k")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got["high_level"] != "23.5" || got["on_hour"] != "20" {
		t.Fatalf("unexpected params: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestParamSQLite_Set(t *testing.T) {
	tests := []struct {
		name    string
		execErr error
		wantErr bool
	}{
		{name: "success"},
		{name: "exec error", execErr: errors.New("readonly"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock new: %v", err)
			}
			defer db.Close()

			exp := mock.ExpectExec(regexp.QuoteMeta(upsertParamSQL)).
				WithArgs("spring", "on_hour", "21", sqlmock.AnyArg())
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err = NewParamSQLite(db).Set(ctx(t), "spring", "on_hour", "21")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("mock expectations: %v", err)
			}
		})
	}
}
