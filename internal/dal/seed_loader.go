package dal

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Billy-Davies-2/lottery-draft/internal/logger"
	"github.com/Billy-Davies-2/lottery-draft/internal/models"
	"github.com/Billy-Davies-2/lottery-draft/internal/source"
)

// SeedIfEmpty fills an empty store with records. A store that already holds
// teams is left alone.
func SeedIfEmpty(ctx context.Context, store TeamStore, records []models.TeamRecord) (bool, error) {
	count, err := store.CountTeams(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count teams: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if err := store.ReplaceTeams(ctx, records); err != nil {
		return false, fmt.Errorf("failed to seed teams: %w", err)
	}

	logger.Info("Seeded team store", "teams", len(records))
	return true, nil
}

// SeedFromFile seeds an empty store from a CSV file. When the file does not
// exist the default league is used instead.
func SeedFromFile(ctx context.Context, store TeamStore, path string) (bool, error) {
	records, err := source.NewFileSource(path).LoadTeams(ctx)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("Seed file not found, using default teams", "path", path)
		records = DefaultTeams()
	} else if err != nil {
		return false, err
	}

	return SeedIfEmpty(ctx, store, records)
}
