package db

import (
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"skysafe/backend/authz"
	"skysafe/backend/server/api"
)

func TestCreateUser(t *testing.T) {
	it(func() {
		u := &api.User{
			ID:       "u-1",
			Username: "pilot",
			Email:    "pilot@example.com",
			Roles:    []string{"DefaultUser", "Pilot"},
		}
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE username = \\?").
			WithArgs("pilot").
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE email = \\?").
			WithArgs("pilot@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectExec("INSERT\\s+INTO users").
			WithArgs("u-1", "pilot", "pilot@example.com", "hash", "", "").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO user_roles").
			WithArgs("u-1", "DefaultUser").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO user_roles").
			WithArgs("u-1", "Pilot").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if err := CreateUser(mockDB, u, "hash"); err != nil {
			t.Errorf("CreateUser() error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE username = \\?").
			WithArgs("pilot").
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))

		u := &api.User{ID: "u-1", Username: "pilot", Email: "pilot@example.com"}
		err := CreateUser(mockDB, u, "hash")
		if !errors.Is(err, ErrDuplicateUsername) {
			t.Errorf("CreateUser() error = %v, want ErrDuplicateUsername", err)
		}
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("ErrDuplicateUsername does not wrap ErrDuplicate")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE username = \\?").
			WithArgs("pilot2").
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE email = \\?").
			WithArgs("pilot@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))

		u := &api.User{ID: "u-2", Username: "pilot2", Email: "pilot@example.com"}
		if err := CreateUser(mockDB, u, "hash"); !errors.Is(err, ErrDuplicateEmail) {
			t.Errorf("CreateUser() error = %v, want ErrDuplicateEmail", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestCreateUserLosesInsertRace(t *testing.T) {
	it(func() {
		// Both pre-insert checks pass, then the UNIQUE key fires
		// because a concurrent registration got there first. The raw
		// driver error must still map to the field-specific sentinel.
		cases := []struct {
			name    string
			message string
			want    error
		}{
			{"email key", "Duplicate entry 'pilot@example.com' for key 'users.email'", ErrDuplicateEmail},
			{"username key", "Duplicate entry 'pilot' for key 'users.username'", ErrDuplicateUsername},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE username = \\?").
					WithArgs("pilot").
					WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
				mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE email = \\?").
					WithArgs("pilot@example.com").
					WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
				mock.ExpectBegin()
				mock.ExpectExec("INSERT\\s+INTO users").
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: tc.message})
				mock.ExpectRollback()

				u := &api.User{ID: "u-1", Username: "pilot", Email: "pilot@example.com"}
				if err := CreateUser(mockDB, u, "hash"); !errors.Is(err, tc.want) {
					t.Errorf("CreateUser() error = %v, want %v", err, tc.want)
				}
			})
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetUserByUsername(t *testing.T) {
	it(func() {
		created := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT id, username, email, password_hash, .+ FROM users WHERE username = \\?").
			WithArgs("pilot").
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "username", "email", "password_hash", "first_name", "last_name", "created_at"}).
				AddRow("u-1", "pilot", "pilot@example.com", "hash", "Alex", "Berg", created))
		mock.ExpectQuery("SELECT role FROM user_roles WHERE user_id = \\?").
			WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("DefaultUser").AddRow("Pilot"))

		u, hash, err := GetUserByUsername(mockDB, "pilot")
		if err != nil {
			t.Errorf("GetUserByUsername() error: %v", err)
		}
		if hash != "hash" || len(u.Roles) != 2 {
			t.Errorf("GetUserByUsername() = %+v, hash %q", u, hash)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestSetUserRoles(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM user_roles WHERE user_id = \\?").
			WithArgs("u-1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("INSERT INTO user_roles").
			WithArgs("u-1", authz.RoleRegistrar).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if err := SetUserRoles(mockDB, "u-1", []authz.Role{authz.RoleRegistrar}); err != nil {
			t.Errorf("SetUserRoles() error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestDeleteUserNotFound(t *testing.T) {
	it(func() {
		mock.ExpectExec("DELETE FROM users WHERE id = \\?").
			WithArgs("u-404").
			WillReturnResult(sqlmock.NewResult(0, 0))

		if err := DeleteUser(mockDB, "u-404"); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteUser() error = %v, want ErrNotFound", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}
