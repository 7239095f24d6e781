package dal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Billy-Davies-2/lottery-draft/internal/models"
)

// SQLiteDAL implements TeamStore using SQLite
type SQLiteDAL struct {
	db *sql.DB
}

// NewSQLiteDAL opens (or creates) the SQLite database at dbPath
func NewSQLiteDAL(dbPath string) (*SQLiteDAL, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// One writer at a time; avoids SQLITE_BUSY on ReplaceTeams
	db.SetMaxOpenConns(1)

	dal := &SQLiteDAL{db: db}

	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return dal, nil
}

func (s *SQLiteDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lottery_teams (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		points REAL NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create lottery_teams: %w", err)
	}
	return nil
}

func (s *SQLiteDAL) LoadTeams(ctx context.Context) ([]models.TeamRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, points FROM lottery_teams ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	return scanRecords(rows)
}

// ReplaceTeams swaps the whole team list in one transaction. Row order is
// kept as the draw order of the pool.
func (s *SQLiteDAL) ReplaceTeams(ctx context.Context, records []models.TeamRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM lottery_teams"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lottery_teams (position, name, points) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, i, rec.Name, rec.Points); err != nil {
			return fmt.Errorf("failed to insert team %q: %w", rec.Name, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteDAL) CountTeams(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lottery_teams").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteDAL) Close() error {
	return s.db.Close()
}
