package db

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"

	"skysafe/backend/authz"
	"skysafe/backend/server/api"
	"skysafe/common"
)

// Field-specific duplicate errors so registration forms can attach
// the problem to the right input.
var (
	ErrDuplicateUsername = fmt.Errorf("username %w", ErrDuplicate)
	ErrDuplicateEmail    = fmt.Errorf("email %w", ErrDuplicate)
)

// CreateUser inserts a user plus its role rows in one transaction.
func CreateUser(db *sql.DB, u *api.User, passwordHash string) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, u.Username).Scan(&count); err != nil {
		log.Errorf("Error checking username %s: %v", u.Username, err)
		return err
	}
	if count > 0 {
		return ErrDuplicateUsername
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, u.Email).Scan(&count); err != nil {
		log.Errorf("Error checking email for %s: %v", u.Username, err)
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}

	tx, err := db.Begin()
	if err != nil {
		log.Errorf("Error creating transaction: %v", err)
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT
	  INTO users (id, username, email, password_hash, first_name, last_name)
	  VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, passwordHash, u.FirstName, u.LastName)
	common.LogResult("createUser", result, err, true)
	if err != nil {
		// A concurrent registration can slip past the checks above
		// and lose on the UNIQUE key instead.
		if isDuplicateEntry(err, "email") {
			return ErrDuplicateEmail
		}
		if isDuplicateEntry(err, "") {
			return ErrDuplicateUsername
		}
		log.Errorf("Error inserting user %s: %v", u.Username, err)
		return err
	}

	for _, role := range u.Roles {
		result, err = tx.Exec(`INSERT INTO user_roles (user_id, role) VALUES (?, ?)`, u.ID, role)
		common.LogResult("createUserRole", result, err, true)
		if err != nil {
			log.Errorf("Error inserting role %s for user %s: %v", role, u.Username, err)
			return err
		}
	}

	return tx.Commit()
}

// GetUserByUsername fetches a user with its role set, plus the stored
// password hash for login verification.
func GetUserByUsername(db *sql.DB, username string) (*api.User, string, error) {
	var (
		u    api.User
		hash string
	)
	err := db.QueryRow(`SELECT id, username, email, password_hash, first_name, last_name, created_at
	  FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Email, &hash, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	if err != nil {
		log.Errorf("Error reading user %s: %v", username, err)
		return nil, "", err
	}
	if u.Roles, err = userRoles(db, u.ID); err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

// GetUser fetches a user by ID with its role set.
func GetUser(db *sql.DB, id string) (*api.User, error) {
	var u api.User
	err := db.QueryRow(`SELECT id, username, email, first_name, last_name, created_at
	  FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		log.Errorf("Error reading user %s: %v", id, err)
		return nil, err
	}
	if u.Roles, err = userRoles(db, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users with their roles.
func ListUsers(db *sql.DB) ([]api.User, error) {
	rows, err := db.Query(`SELECT id, username, email, first_name, last_name, created_at
	  FROM users ORDER BY username`)
	if err != nil {
		log.Errorf("Error listing users: %v", err)
		return nil, err
	}
	defer rows.Close()

	users := []api.User{}
	for rows.Next() {
		var u api.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].Roles, err = userRoles(db, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// DeleteUser removes a user; role and membership rows cascade.
func DeleteUser(db *sql.DB, id string) error {
	result, err := db.Exec(`DELETE FROM users WHERE id = ?`, id)
	common.LogResult("deleteUser", result, err, true)
	if err != nil {
		log.Errorf("Error deleting user %s: %v", id, err)
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetUserRoles replaces a user's role set.
func SetUserRoles(db *sql.DB, userID string, roles []authz.Role) error {
	tx, err := db.Begin()
	if err != nil {
		log.Errorf("Error creating transaction: %v", err)
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM user_roles WHERE user_id = ?`, userID); err != nil {
		log.Errorf("Error clearing roles for user %s: %v", userID, err)
		return err
	}
	for _, role := range roles {
		if _, err := tx.Exec(`INSERT INTO user_roles (user_id, role) VALUES (?, ?)`, userID, role); err != nil {
			log.Errorf("Error inserting role %s for user %s: %v", role, userID, err)
			return err
		}
	}
	return tx.Commit()
}

func userRoles(db *sql.DB, userID string) ([]string, error) {
	rows, err := db.Query(`SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, userID)
	if err != nil {
		log.Errorf("Error reading roles for user %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
