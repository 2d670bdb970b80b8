package db

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// Schema is the full database layout. Every statement is idempotent
// so service startup can run it unconditionally.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(36) PRIMARY KEY,
    username VARCHAR(100) NOT NULL UNIQUE,
    email VARCHAR(256) NOT NULL UNIQUE,
    password_hash VARCHAR(256) NOT NULL,
    first_name VARCHAR(100) NOT NULL DEFAULT '',
    last_name VARCHAR(100) NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_roles (
    user_id VARCHAR(36) NOT NULL,
    role VARCHAR(32) NOT NULL,
    PRIMARY KEY (user_id, role),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS organizations (
    id VARCHAR(36) PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    code VARCHAR(50) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS organization_members (
    org_id VARCHAR(36) NOT NULL,
    user_id VARCHAR(36) NOT NULL,
    PRIMARY KEY (org_id, user_id),
    FOREIGN KEY (org_id) REFERENCES organizations(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS obstacle_types (
    code VARCHAR(20) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    sort_order INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS reports (
    id VARCHAR(36) PRIMARY KEY,
    owner_id VARCHAR(36) NOT NULL,
    latitude DECIMAL(12, 9) NULL,
    longitude DECIMAL(12, 9) NULL,
    geometry JSON NULL,
    height_ft INT NULL,
    obstacle_type VARCHAR(20) NULL,
    description TEXT NULL,
    registrar_comment TEXT NULL,
    status ENUM('Draft', 'Pending', 'Approved', 'Rejected') NOT NULL DEFAULT 'Draft',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NULL,
    FOREIGN KEY (owner_id) REFERENCES users(id),
    FOREIGN KEY (obstacle_type) REFERENCES obstacle_types(code),
    INDEX idx_reports_owner (owner_id),
    INDEX idx_reports_status (status)
);

CREATE TABLE IF NOT EXISTS notifications (
    id VARCHAR(36) PRIMARY KEY,
    user_id VARCHAR(36) NOT NULL,
    report_id VARCHAR(36) NULL,
    title VARCHAR(100) NOT NULL,
    message VARCHAR(500) NOT NULL,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
    INDEX idx_notifications_user (user_id, is_read)
);
`

// obstacleTypeSeed is the immutable reference data, ordered the way
// the client picker presents it.
var obstacleTypeSeed = []struct {
	Code      string
	Name      string
	SortOrder int
}{
	{"CRANE", "Crane", 10},
	{"MAST", "Mast", 20},
	{"TOWER", "Tower", 30},
	{"POWERLINE", "Power line", 40},
	{"BUILDING", "Building", 50},
	{"OTHER", "Other", 60},
}

// InitializeSchema creates the tables and seeds reference data.
// Requires a DSN with multiStatements enabled.
func InitializeSchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	for _, ot := range obstacleTypeSeed {
		_, err := db.Exec(`INSERT INTO obstacle_types (code, name, sort_order) VALUES (?, ?, ?)
		                   ON DUPLICATE KEY UPDATE name = ?, sort_order = ?`,
			ot.Code, ot.Name, ot.SortOrder, ot.Name, ot.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to seed obstacle type %s: %w", ot.Code, err)
		}
	}
	log.Info("Database schema initialized")
	return nil
}
