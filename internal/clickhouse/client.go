package clickhouse

import (
	"context"
	"fmt"
	"sort"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Billy-Davies-2/lottery-draft/internal/logger"
	"github.com/Billy-Davies-2/lottery-draft/internal/models"
)

// Result is one team's finishing rank in one competition
type Result struct {
	Competition string
	TeamName    string
	Rank        int
}

// Client provides ClickHouse integration for lottery points. Points are
// computed from the competition_results table.
type Client struct {
	conn        driver.Conn
	playerCount int
}

// NewClient creates a new ClickHouse client
func NewClient(ctx context.Context, addr, database, username, password string, playerCount int) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{conn: conn, playerCount: playerCount}, nil
}

// Results retrieves every finishing rank recorded for the season
func (c *Client) Results(ctx context.Context) ([]Result, error) {
	query := `
		SELECT
			competition,
			team_name,
			toInt32(finishing_rank) AS finishing_rank
		FROM competition_results
		ORDER BY competition, finishing_rank
	`

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query competition results: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var r Result
		var rank int32
		if err := rows.Scan(&r.Competition, &r.TeamName, &rank); err != nil {
			return nil, err
		}
		r.Rank = int(rank)
		results = append(results, r)
	}

	return results, rows.Err()
}

// LoadTeams implements the lottery team source
func (c *Client) LoadTeams(ctx context.Context) ([]models.TeamRecord, error) {
	results, err := c.Results(ctx)
	if err != nil {
		return nil, err
	}

	records := Aggregate(results, c.playerCount)
	logger.Debug("Loaded teams from ClickHouse", "results", len(results), "teams", len(records))
	return records, nil
}

// RankPoints is the lottery points a finishing rank earns in one competition.
// Last place (rank == playerCount) earns the most; ranks outside
// 1..playerCount earn nothing.
func RankPoints(rank, playerCount int) float64 {
	if rank < 1 || rank > playerCount {
		return 0
	}
	return float64(rank)
}

// Aggregate sums rank points per team across competitions. Teams are ordered
// by points, highest first, then by name.
func Aggregate(results []Result, playerCount int) []models.TeamRecord {
	totals := make(map[string]float64)
	for _, r := range results {
		totals[r.TeamName] += RankPoints(r.Rank, playerCount)
	}

	records := make([]models.TeamRecord, 0, len(totals))
	for name, points := range totals {
		records = append(records, models.TeamRecord{Name: name, Points: points})
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Points != records[j].Points {
			return records[i].Points > records[j].Points
		}
		return records[i].Name < records[j].Name
	})

	return records
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
