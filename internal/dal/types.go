package dal

import (
	"context"

	"github.com/Billy-Davies-2/lottery-draft/internal/models"
)

// TeamStore is a persistent team list. Every store is also a lottery team
// source through LoadTeams.
type TeamStore interface {
	LoadTeams(ctx context.Context) ([]models.TeamRecord, error)
	ReplaceTeams(ctx context.Context, records []models.TeamRecord) error
	CountTeams(ctx context.Context) (int, error)
	Close() error
}
