package dal

import (
	"database/sql"
	"fmt"

	"github.com/Billy-Davies-2/lottery-draft/internal/models"
)

// scanRecords reads (name, points) rows in query order
func scanRecords(rows *sql.Rows) ([]models.TeamRecord, error) {
	defer rows.Close()

	records := []models.TeamRecord{}
	for rows.Next() {
		var rec models.TeamRecord
		if err := rows.Scan(&rec.Name, &rec.Points); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read team rows: %w", err)
	}

	return records, nil
}
