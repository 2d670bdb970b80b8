package db

import (
	"database/sql"

	"github.com/apex/log"

	"skysafe/backend/server/api"
)

// ListObstacleTypes returns the seeded reference data in picker order.
func ListObstacleTypes(db *sql.DB) ([]api.ObstacleType, error) {
	rows, err := db.Query(`SELECT code, name, sort_order FROM obstacle_types ORDER BY sort_order`)
	if err != nil {
		log.Errorf("Error listing obstacle types: %v", err)
		return nil, err
	}
	defer rows.Close()

	types := []api.ObstacleType{}
	for rows.Next() {
		var ot api.ObstacleType
		if err := rows.Scan(&ot.Code, &ot.Name, &ot.SortOrder); err != nil {
			return nil, err
		}
		types = append(types, ot)
	}
	return types, rows.Err()
}

// ObstacleTypeExists validates a submitted obstacle type code.
func ObstacleTypeExists(db *sql.DB, code string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM obstacle_types WHERE code = ?`, code).Scan(&count)
	if err != nil {
		log.Errorf("Error checking obstacle type %s: %v", code, err)
		return false, err
	}
	return count > 0, nil
}
