package db

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
	"github.com/google/uuid"

	"skysafe/backend/authz"
	"skysafe/backend/server/api"
	"skysafe/common"
)

// CreateOrganization inserts a new organization. Code collisions map
// to ErrDuplicate.
func CreateOrganization(db *sql.DB, name, code string) (*api.Organization, error) {
	var existing int
	if err := db.QueryRow(`SELECT COUNT(*) FROM organizations WHERE code = ?`, code).Scan(&existing); err != nil {
		log.Errorf("Error checking org code %s: %v", code, err)
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("organization code %s: %w", code, ErrDuplicate)
	}

	org := &api.Organization{ID: uuid.NewString(), Name: name, Code: code}
	result, err := db.Exec(`INSERT INTO organizations (id, name, code) VALUES (?, ?, ?)`,
		org.ID, org.Name, org.Code)
	common.LogResult("createOrganization", result, err, true)
	if err != nil {
		if isDuplicateEntry(err, "") {
			return nil, fmt.Errorf("organization code %s: %w", code, ErrDuplicate)
		}
		log.Errorf("Error inserting organization %s: %v", code, err)
		return nil, err
	}
	return org, nil
}

// ListOrganizations returns all organizations ordered by name.
func ListOrganizations(db *sql.DB) ([]api.Organization, error) {
	rows, err := db.Query(`SELECT id, name, code FROM organizations ORDER BY name`)
	if err != nil {
		log.Errorf("Error listing organizations: %v", err)
		return nil, err
	}
	defer rows.Close()

	orgs := []api.Organization{}
	for rows.Next() {
		var org api.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Code); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// GetOrganization fetches one organization by ID.
func GetOrganization(db *sql.DB, id string) (*api.Organization, error) {
	var org api.Organization
	err := db.QueryRow(`SELECT id, name, code FROM organizations WHERE id = ?`, id).
		Scan(&org.ID, &org.Name, &org.Code)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization %s: %w", id, ErrNotFound)
	}
	if err != nil {
		log.Errorf("Error reading organization %s: %v", id, err)
		return nil, err
	}
	return &org, nil
}

// ResolveAdminOrg finds the organization an OrgAdmin manages: first
// an exact match of the username against an org code, then the
// admin's first membership row. ErrNotFound means unresolved; the
// caller decides what scope that falls back to.
func ResolveAdminOrg(db *sql.DB, p authz.Principal) (*api.Organization, error) {
	var org api.Organization
	err := db.QueryRow(`SELECT id, name, code FROM organizations WHERE code = ?`, p.Username).
		Scan(&org.ID, &org.Name, &org.Code)
	if err == nil {
		return &org, nil
	}
	if err != sql.ErrNoRows {
		log.Errorf("Error matching org code for %s: %v", p.Username, err)
		return nil, err
	}

	err = db.QueryRow(`SELECT o.id, o.name, o.code
	  FROM organizations o JOIN organization_members m ON m.org_id = o.id
	  WHERE m.user_id = ? LIMIT 1`, p.ID).
		Scan(&org.ID, &org.Name, &org.Code)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("organization for admin %s: %w", p.Username, ErrNotFound)
	}
	if err != nil {
		log.Errorf("Error resolving org membership for %s: %v", p.Username, err)
		return nil, err
	}
	return &org, nil
}

// AddMember adds a user to an organization. Returns false without
// error when the membership already exists.
func AddMember(db *sql.DB, orgID, userID string) (bool, error) {
	var existing int
	err := db.QueryRow(`SELECT COUNT(*) FROM organization_members WHERE org_id = ? AND user_id = ?`,
		orgID, userID).Scan(&existing)
	if err != nil {
		log.Errorf("Error checking membership %s/%s: %v", orgID, userID, err)
		return false, err
	}
	if existing > 0 {
		return false, nil
	}

	result, err := db.Exec(`INSERT INTO organization_members (org_id, user_id) VALUES (?, ?)`,
		orgID, userID)
	common.LogResult("addMember", result, err, true)
	if err != nil {
		if isDuplicateEntry(err, "") {
			return false, nil
		}
		log.Errorf("Error adding member %s to org %s: %v", userID, orgID, err)
		return false, err
	}
	return true, nil
}

// RemoveMember removes a membership. ErrNotFound when it was not
// there to begin with.
func RemoveMember(db *sql.DB, orgID, userID string) error {
	result, err := db.Exec(`DELETE FROM organization_members WHERE org_id = ? AND user_id = ?`,
		orgID, userID)
	common.LogResult("removeMember", result, err, false)
	if err != nil {
		log.Errorf("Error removing member %s from org %s: %v", userID, orgID, err)
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("membership of %s in %s: %w", userID, orgID, ErrNotFound)
	}
	return nil
}

// ListMembers returns the users belonging to an organization.
func ListMembers(db *sql.DB, orgID string) ([]api.User, error) {
	rows, err := db.Query(`SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.created_at
	  FROM users u JOIN organization_members m ON m.user_id = u.id
	  WHERE m.org_id = ? ORDER BY u.username`, orgID)
	if err != nil {
		log.Errorf("Error listing members of org %s: %v", orgID, err)
		return nil, err
	}
	defer rows.Close()

	members := []api.User{}
	for rows.Next() {
		var u api.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, u)
	}
	return members, rows.Err()
}
