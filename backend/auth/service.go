// Package auth issues and validates credentials. Password hashing and
// token mechanics live here; user rows live in backend/db.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"skysafe/backend/authz"
	"skysafe/backend/db"
	"skysafe/backend/server/api"
)

const tokenTTL = 24 * time.Hour

// ErrInvalidCredentials deliberately covers both unknown-user and
// wrong-password so login failures do not leak which one it was.
var ErrInvalidCredentials = errors.New("invalid username or password")

type Service struct {
	db        *sql.DB
	jwtSecret []byte
}

func NewService(database *sql.DB, jwtSecret string) *Service {
	return &Service{
		db:        database,
		jwtSecret: []byte(jwtSecret),
	}
}

// Register creates a user with the given role set. Self-registration
// passes the submitter roles; admin provisioning passes whatever the
// admin chose.
func (s *Service) Register(args api.RegisterArgs, roles []authz.Role) (*api.User, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(args.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &api.User{
		ID:        uuid.NewString(),
		Username:  args.Username,
		Email:     args.Email,
		FirstName: args.FirstName,
		LastName:  args.LastName,
		Roles:     authz.RoleStrings(roles),
		CreatedAt: time.Now().UTC(),
	}
	if err := db.CreateUser(s.db, user, string(passwordHash)); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the password and returns a signed token plus the
// user record.
func (s *Service) Login(username, password string) (string, *api.User, error) {
	user, hash, err := db.GetUserByUsername(s.db, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueToken signs a JWT carrying the user's identity and role set.
func (s *Service) IssueToken(user *api.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"roles":    user.Roles,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a bearer token back into the request
// principal.
func (s *Service) ValidateToken(tokenString string) (authz.Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return authz.Principal{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return authz.Principal{}, errors.New("invalid token claims")
	}

	p := authz.Principal{}
	if sub, ok := claims["sub"].(string); ok {
		p.ID = sub
	}
	if username, ok := claims["username"].(string); ok {
		p.Username = username
	}
	if p.ID == "" {
		return authz.Principal{}, errors.New("token has no subject")
	}
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, raw := range rawRoles {
			if role, ok := raw.(string); ok && authz.ValidRole(authz.Role(role)) {
				p.Roles = append(p.Roles, authz.Role(role))
			}
		}
	}
	return p, nil
}
