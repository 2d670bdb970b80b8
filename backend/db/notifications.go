package db

import (
	"database/sql"
	"fmt"
	"unicode/utf8"

	"github.com/apex/log"
	"github.com/google/uuid"

	"skysafe/backend/server/api"
	"skysafe/common"
)

const (
	NotificationTitleMaxLen   = 100
	NotificationMessageMaxLen = 500
)

// CreateNotification stores an unread notification for a user,
// optionally linked to a report. Title and message are truncated to
// the column bounds rather than failing a status change over a long
// obstacle description.
func CreateNotification(db *sql.DB, userID, reportID, title, message string) (*api.Notification, error) {
	if title == "" || message == "" {
		return nil, fmt.Errorf("notification title and message are required")
	}
	title = truncate(title, NotificationTitleMaxLen)
	message = truncate(message, NotificationMessageMaxLen)

	n := &api.Notification{
		ID:       uuid.NewString(),
		UserID:   userID,
		ReportID: reportID,
		Title:    title,
		Message:  message,
	}
	var report interface{}
	if reportID != "" {
		report = reportID
	}
	result, err := db.Exec(`INSERT
	  INTO notifications (id, user_id, report_id, title, message)
	  VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.UserID, report, n.Title, n.Message)
	common.LogResult("createNotification", result, err, true)
	if err != nil {
		log.Errorf("Error inserting notification for user %s: %v", userID, err)
		return nil, err
	}
	return n, nil
}

// ListNotifications returns a user's notifications, newest first.
func ListNotifications(db *sql.DB, userID string) ([]api.Notification, error) {
	rows, err := db.Query(`SELECT id, user_id, report_id, title, message, is_read, created_at
	  FROM notifications WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		log.Errorf("Error listing notifications for user %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	notifications := []api.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// UnreadCount counts a user's unread notifications.
func UnreadCount(db *sql.DB, userID string) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`,
		userID).Scan(&count)
	if err != nil {
		log.Errorf("Error counting unread notifications for user %s: %v", userID, err)
		return 0, err
	}
	return count, nil
}

// GetNotification fetches one notification scoped to its owner, so a
// user can never read another user's notification by guessing IDs.
func GetNotification(db *sql.DB, id, userID string) (*api.Notification, error) {
	row := db.QueryRow(`SELECT id, user_id, report_id, title, message, is_read, created_at
	  FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	if err != nil {
		log.Errorf("Error reading notification %s: %v", id, err)
		return nil, err
	}
	return n, nil
}

// MarkRead flips one notification to read, scoped to its owner.
func MarkRead(db *sql.DB, id, userID string) error {
	result, err := db.Exec(`UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`,
		id, userID)
	common.LogResult("markRead", result, err, false)
	if err != nil {
		log.Errorf("Error marking notification %s read: %v", id, err)
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		// Either absent or it was already read and MySQL skipped the
		// no-op write; re-check existence to tell the two apart.
		var exists int
		if err := db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE id = ? AND user_id = ?`,
			id, userID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("notification %s: %w", id, ErrNotFound)
		}
	}
	return nil
}

// MarkAllRead flips every unread notification of one user. Other
// users' rows are untouched.
func MarkAllRead(db *sql.DB, userID string) error {
	result, err := db.Exec(`UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE`,
		userID)
	common.LogResult("markAllRead", result, err, false)
	if err != nil {
		log.Errorf("Error marking notifications read for user %s: %v", userID, err)
	}
	return err
}

func scanNotification(row rowScanner) (*api.Notification, error) {
	var (
		n        api.Notification
		reportID sql.NullString
	)
	err := row.Scan(&n.ID, &n.UserID, &reportID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.ReportID = reportID.String
	return &n, nil
}

// truncate cuts to at most max bytes without splitting a rune, so a
// message ending in multi-byte text stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
