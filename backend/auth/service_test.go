package auth

import (
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"skysafe/backend/authz"
	"skysafe/backend/server/api"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewService(nil, "test-secret")
	user := &api.User{
		ID:       "u-123",
		Username: "pilot.one",
		Roles:    []string{"Pilot", "OrgAdmin"},
	}

	token, err := s.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}

	p, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if p.ID != user.ID || p.Username != user.Username {
		t.Errorf("principal = %+v, want id %s username %s", p, user.ID, user.Username)
	}
	if len(p.Roles) != 2 || !p.HasRole(authz.RolePilot) || !p.HasRole(authz.RoleOrgAdmin) {
		t.Errorf("roles = %v, want Pilot and OrgAdmin", p.Roles)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService(nil, "secret-a")
	verifier := NewService(nil, "secret-b")

	token, err := issuer.IssueToken(&api.User{ID: "u-1", Username: "x", Roles: []string{"Pilot"}})
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted a token signed with another secret")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	s := NewService(nil, "test-secret")
	claims := jwt.MapClaims{
		"sub":      "u-1",
		"username": "x",
		"roles":    []string{"Pilot"},
		"iat":      time.Now().Add(-48 * time.Hour).Unix(),
		"exp":      time.Now().Add(-24 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		t.Fatalf("SignedString() error: %v", err)
	}
	if _, err := s.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted an expired token")
	}
}

func TestValidateTokenDropsUnknownRoles(t *testing.T) {
	s := NewService(nil, "test-secret")
	token, err := s.IssueToken(&api.User{ID: "u-1", Username: "x", Roles: []string{"Pilot", "Wizard"}})
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}
	p, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if len(p.Roles) != 1 || p.Roles[0] != authz.RolePilot {
		t.Errorf("roles = %v, want only Pilot", p.Roles)
	}
}

func TestLogin(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer mockDB.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	userCols := []string{"id", "username", "email", "password_hash", "first_name", "last_name", "created_at"}

	s := NewService(mockDB, "test-secret")

	t.Run("valid credentials", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email, password_hash, first_name, last_name, created_at").
			WithArgs("pilot.one").
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow("u-1", "pilot.one", "p@example.com", string(hash), "Pia", "Lot", time.Now()))
		mock.ExpectQuery("SELECT role FROM user_roles").
			WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("Pilot"))

		token, user, err := s.Login("pilot.one", "correct horse")
		if err != nil {
			t.Fatalf("Login() error: %v", err)
		}
		if token == "" || user.ID != "u-1" {
			t.Errorf("Login() = (%q, %+v)", token, user)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email, password_hash, first_name, last_name, created_at").
			WithArgs("pilot.one").
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow("u-1", "pilot.one", "p@example.com", string(hash), "Pia", "Lot", time.Now()))
		mock.ExpectQuery("SELECT role FROM user_roles").
			WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("Pilot"))

		if _, _, err := s.Login("pilot.one", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email, password_hash, first_name, last_name, created_at").
			WithArgs("nobody").
			WillReturnRows(sqlmock.NewRows(userCols))

		if _, _, err := s.Login("nobody", "anything"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
		}
	})
}
