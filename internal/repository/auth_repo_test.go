package repository

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"pump_control/internal/models"
)

func newUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewUserRepository(db), mock
}

func TestUserRepository_CreateStoresOperatorRole(t *testing.T) {
	tests := []struct {
		name    string
		result  sql.Result
		execErr error
		wantID  int
		wantErr string
	}{
		{name: "inserted", result: sqlmock.NewResult(42, 1), wantID: 42},
		{name: "exec fails", execErr: errors.New("disk I/O error"), wantErr: "insert operator"},
		{name: "no insert id", result: sqlmock.NewErrorResult(errors.New("unsupported")), wantErr: "last insert id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newUserRepo(t)
			exp := mock.ExpectExec(insertUserSQL).WithArgs("pumpops", "bcrypt-hash", models.RoleOperator)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			id, err := repo.Create("pumpops", "bcrypt-hash")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("want error containing %q, got %v", tt.wantErr, err)
				}
				if id != 0 {
					t.Errorf("id on error: want 0, got %d", id)
				}
				return
			}
			if err != nil || id != tt.wantID {
				t.Fatalf("want id %d, got %d (%v)", tt.wantID, id, err)
			}
		})
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	cols := []string{"id", "username", "password_hash", "role"}

	t.Run("found with role", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery(selectUserByUsernameSQL).WithArgs("pumpops").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(7, "pumpops", "h", "viewer"))

		u, err := repo.GetByUsername("pumpops")
		if err != nil {
			t.Fatalf("GetByUsername: %v", err)
		}
		want := models.User{ID: 7, Username: "pumpops", PasswordHash: "h", Role: "viewer"}
		if u == nil || *u != want {
			t.Fatalf("want %+v, got %+v", want, u)
		}
	})

	t.Run("blank role reads as operator", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery(selectUserByUsernameSQL).WithArgs("legacy").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, "legacy", "h", ""))

		u, err := repo.GetByUsername("legacy")
		if err != nil || u == nil || u.Role != models.RoleOperator {
			t.Fatalf("want operator role, got %+v (%v)", u, err)
		}
	})

	t.Run("missing account", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery(selectUserByUsernameSQL).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		u, err := repo.GetByUsername("ghost")
		if err != nil || u != nil {
			t.Fatalf("want (nil, nil), got (%+v, %v)", u, err)
		}
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery(selectUserByUsernameSQL).WithArgs("pumpops").WillReturnError(errors.New("database is locked"))

		u, err := repo.GetByUsername("pumpops")
		if err == nil || u != nil || !strings.Contains(err.Error(), "select operator") {
			t.Fatalf("want wrapped error, got (%+v, %v)", u, err)
		}
	})
}
