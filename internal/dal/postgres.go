package dal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Billy-Davies-2/lottery-draft/internal/logger"
	"github.com/Billy-Davies-2/lottery-draft/internal/models"
)

// PostgresDAL implements TeamStore using PostgreSQL
type PostgresDAL struct {
	db *sql.DB
}

// NewPostgresDAL creates a new PostgreSQL store optimized for CloudNativePG
func NewPostgresDAL(ctx context.Context, connString string) (*PostgresDAL, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	// CloudNativePG default max_connections is 100
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute) // recycle across failovers
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err := pingWithRetry(ctx, db, 5, 5*time.Second); err != nil {
		db.Close()
		return nil, err
	}

	dal := &PostgresDAL{db: db}

	if err := dal.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return dal, nil
}

// pingWithRetry waits out DNS propagation delays in Kubernetes
func pingWithRetry(ctx context.Context, db *sql.DB, maxRetries int, retryDelay time.Duration) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		err := db.PingContext(pingCtx)
		cancel()

		if err == nil {
			return nil
		}

		lastErr = err
		logger.Warn("Postgres ping failed", "attempt", i+1, "max_retries", maxRetries, "error", err)

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("failed to ping postgres: %w", ctx.Err())
			case <-time.After(retryDelay):
			}
		}
	}

	return fmt.Errorf("failed to ping postgres after %d retries: %w", maxRetries, lastErr)
}

func (p *PostgresDAL) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS lottery_teams (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		points DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create lottery_teams: %w", err)
	}
	return nil
}

func (p *PostgresDAL) LoadTeams(ctx context.Context) ([]models.TeamRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT name, points FROM lottery_teams ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	return scanRecords(rows)
}

func (p *PostgresDAL) ReplaceTeams(ctx context.Context, records []models.TeamRecord) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM lottery_teams"); err != nil {
		return err
	}

	for i, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lottery_teams (position, name, points) VALUES ($1, $2, $3)
		`, i, rec.Name, rec.Points)
		if err != nil {
			return fmt.Errorf("failed to insert team %q: %w", rec.Name, err)
		}
	}

	return tx.Commit()
}

func (p *PostgresDAL) CountTeams(ctx context.Context) (int, error) {
	var count int
	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lottery_teams").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (p *PostgresDAL) Close() error {
	return p.db.Close()
}
