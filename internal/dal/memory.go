package dal

import (
	"context"
	"sync"

	"github.com/Billy-Davies-2/lottery-draft/internal/models"
)

// MemoryDAL implements TeamStore using in-memory storage
type MemoryDAL struct {
	mu      sync.RWMutex
	records []models.TeamRecord
}

// NewMemoryDAL creates a new in-memory store holding the default league
func NewMemoryDAL() *MemoryDAL {
	return &MemoryDAL{records: DefaultTeams()}
}

// NewMemoryDALWith creates an in-memory store holding records
func NewMemoryDALWith(records []models.TeamRecord) *MemoryDAL {
	return &MemoryDAL{records: cloneRecords(records)}
}

func (m *MemoryDAL) LoadTeams(ctx context.Context) ([]models.TeamRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Create a copy so callers cannot mutate the store
	return cloneRecords(m.records), nil
}

func (m *MemoryDAL) ReplaceTeams(ctx context.Context, records []models.TeamRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = cloneRecords(records)
	return nil
}

func (m *MemoryDAL) CountTeams(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MemoryDAL) Close() error {
	return nil
}

func cloneRecords(records []models.TeamRecord) []models.TeamRecord {
	out := make([]models.TeamRecord, len(records))
	copy(out, records)
	return out
}

// DefaultTeams is a 12 team league whose points add up to a complete four
// competition season (312).
func DefaultTeams() []models.TeamRecord {
	return []models.TeamRecord{
		{Name: "Fluffy Foxes", Points: 48},
		{Name: "Cuddly Bears", Points: 44},
		{Name: "Snuggly Bunnies", Points: 40},
		{Name: "Cozy Cats", Points: 36},
		{Name: "Soft Sheep", Points: 32},
		{Name: "Gentle Giraffes", Points: 28},
		{Name: "Kindly Koalas", Points: 24},
		{Name: "Lazy Lions", Points: 20},
		{Name: "Plush Pandas", Points: 16},
		{Name: "Uppity Unicorns", Points: 12},
		{Name: "Tiny Tigers", Points: 8},
		{Name: "Patient Puppies", Points: 4},
	}
}
