package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/shopspring/decimal"

	"skysafe/backend/geom"
	"skysafe/backend/server/api"
	"skysafe/common"
)

const reportColumns = `r.id, r.owner_id, u.username, r.latitude, r.longitude, r.geometry,
	r.height_ft, r.obstacle_type, r.description, r.registrar_comment, r.status,
	r.created_at, r.updated_at`

// SaveReport inserts a new report row.
func SaveReport(db *sql.DB, r *api.Report) error {
	lat, lon := coordValues(r)
	geometry, err := geometryValue(r)
	if err != nil {
		return err
	}

	result, err := db.Exec(`INSERT
	  INTO reports (id, owner_id, latitude, longitude, geometry, height_ft,
	                obstacle_type, description, status, created_at)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OwnerID, lat, lon, geometry, heightValue(r),
		typeValue(r), r.Description, r.Status, r.CreatedAt)
	common.LogResult("saveReport", result, err, true)
	if err != nil {
		log.Errorf("Error inserting report: %v", err)
		return err
	}
	return nil
}

// UpdateReport rewrites the mutable fields of a draft. Clearing the
// geometry clears the coordinates with it: all three columns are
// always written together.
func UpdateReport(db *sql.DB, r *api.Report) error {
	lat, lon := coordValues(r)
	geometry, err := geometryValue(r)
	if err != nil {
		return err
	}

	result, err := db.Exec(`UPDATE reports
	  SET latitude = ?, longitude = ?, geometry = ?, height_ft = ?,
	      obstacle_type = ?, description = ?, status = ?, updated_at = ?
	  WHERE id = ?`,
		lat, lon, geometry, heightValue(r),
		typeValue(r), r.Description, r.Status, r.UpdatedAt, r.ID)
	common.LogResult("updateReport", result, err, true)
	if err != nil {
		log.Errorf("Error updating report %s: %v", r.ID, err)
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("report %s: %w", r.ID, ErrNotFound)
	}
	return nil
}

// GetReport fetches one report by ID.
func GetReport(db *sql.DB, id string) (*api.Report, error) {
	row := db.QueryRow(`SELECT `+reportColumns+`
	  FROM reports r JOIN users u ON u.id = r.owner_id
	  WHERE r.id = ?`, id)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		log.Errorf("Error reading report %s: %v", id, err)
		return nil, err
	}
	return r, nil
}

// SetReportStatus records a review outcome and stamps updated_at.
func SetReportStatus(db *sql.DB, id, status, comment string, when time.Time) error {
	result, err := db.Exec(`UPDATE reports
	  SET status = ?, registrar_comment = ?, updated_at = ?
	  WHERE id = ?`, status, comment, when, id)
	common.LogResult("setReportStatus", result, err, true)
	if err != nil {
		log.Errorf("Error setting status of report %s: %v", id, err)
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteReport removes a report unconditionally.
func DeleteReport(db *sql.DB, id string) error {
	result, err := db.Exec(`DELETE FROM reports WHERE id = ?`, id)
	common.LogResult("deleteReport", result, err, true)
	if err != nil {
		log.Errorf("Error deleting report %s: %v", id, err)
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	return nil
}

// ReportFilter narrows and orders a report listing. Zero value lists
// everything, newest first.
type ReportFilter struct {
	OwnerID  string
	Statuses []string
	// OrgID restricts to owners who are members of that organization.
	// AnyOrg instead restricts to owners with at least one membership.
	OrgID  string
	AnyOrg bool
	SortBy string // date, user, obstacle, status
	Asc    bool
}

// sortColumns whitelists ORDER BY targets. Anything else falls back
// to the default.
var sortColumns = map[string]string{
	"date":     "r.created_at",
	"user":     "u.username",
	"obstacle": "r.obstacle_type",
	"status":   "r.status",
}

// ListReports runs a filtered listing query.
func ListReports(db *sql.DB, f ReportFilter) ([]api.Report, error) {
	query := `SELECT ` + reportColumns + `
	  FROM reports r JOIN users u ON u.id = r.owner_id`
	var where []string
	var args []interface{}

	if f.OwnerID != "" {
		where = append(where, "r.owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if len(f.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.Statuses)), ", ")
		where = append(where, "r.status IN ("+placeholders+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.OrgID != "" {
		where = append(where, "r.owner_id IN (SELECT user_id FROM organization_members WHERE org_id = ?)")
		args = append(args, f.OrgID)
	} else if f.AnyOrg {
		where = append(where, "r.owner_id IN (SELECT user_id FROM organization_members)")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = sortColumns["date"]
	}
	dir := "DESC"
	if f.Asc {
		dir = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", col, dir)

	rows, err := db.Query(query, args...)
	if err != nil {
		log.Errorf("Error listing reports: %v", err)
		return nil, err
	}
	defer rows.Close()

	reports := []api.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			log.Errorf("Error scanning report row: %v", err)
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*api.Report, error) {
	var (
		r         api.Report
		lat, lon  sql.NullString
		geometry  sql.NullString
		heightFt  sql.NullInt64
		obstacle  sql.NullString
		desc      sql.NullString
		comment   sql.NullString
		updatedAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.OwnerID, &r.OwnerName, &lat, &lon, &geometry,
		&heightFt, &obstacle, &desc, &comment, &r.Status, &r.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if lat.Valid && lon.Valid {
		latDec, err := decimal.NewFromString(lat.String)
		if err != nil {
			return nil, fmt.Errorf("bad latitude %q: %w", lat.String, err)
		}
		lonDec, err := decimal.NewFromString(lon.String)
		if err != nil {
			return nil, fmt.Errorf("bad longitude %q: %w", lon.String, err)
		}
		r.Latitude, r.Longitude = &latDec, &lonDec
	}
	if geometry.Valid && geometry.String != "" {
		g, err := geom.Parse([]byte(geometry.String))
		if err != nil {
			return nil, fmt.Errorf("bad geometry for report %s: %w", r.ID, err)
		}
		r.Geometry = g
	}
	if heightFt.Valid {
		h := int(heightFt.Int64)
		r.HeightFt = &h
	}
	r.ObstacleType = obstacle.String
	r.Description = desc.String
	r.RegistrarComment = comment.String
	if updatedAt.Valid {
		t := updatedAt.Time
		r.UpdatedAt = &t
	}
	return &r, nil
}

func coordValues(r *api.Report) (interface{}, interface{}) {
	if r.Latitude == nil || r.Longitude == nil {
		return nil, nil
	}
	return r.Latitude.String(), r.Longitude.String()
}

func geometryValue(r *api.Report) (interface{}, error) {
	if r.Geometry == nil {
		return nil, nil
	}
	data, err := json.Marshal(r.Geometry)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize geometry: %w", err)
	}
	return string(data), nil
}

func heightValue(r *api.Report) interface{} {
	if r.HeightFt == nil {
		return nil
	}
	return *r.HeightFt
}

func typeValue(r *api.Report) interface{} {
	if r.ObstacleType == "" {
		return nil
	}
	return r.ObstacleType
}
