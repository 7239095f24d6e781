// Package lottery implements the weighted lottery draft: teams are drawn one
// at a time without replacement, each with probability proportional to its
// points among the teams still in the pool.
package lottery

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/Billy-Davies-2/lottery-draft/internal/logger"
	"github.com/Billy-Davies-2/lottery-draft/internal/models"
)

const (
	DefaultPlayerCount      = 12
	DefaultCompetitionCount = 4
)

// Source supplies the ordered team list the engine is built from
type Source interface {
	LoadTeams(ctx context.Context) ([]models.TeamRecord, error)
}

// Options configures an Engine
type Options struct {
	PlayerCount      int
	CompetitionCount int
	Sampler          Sampler
}

// Engine holds the state of a single draft. All methods are safe for
// concurrent use.
type Engine struct {
	mu        sync.RWMutex
	source    Source
	opts      Options
	remaining []models.Team
	picked    []models.Team
	integrity models.Integrity
}

// New builds an engine and loads it from src. An unavailable source is not
// fatal: the engine starts with zero teams and the failure is logged.
func New(ctx context.Context, src Source, opts Options) *Engine {
	if opts.PlayerCount <= 0 {
		opts.PlayerCount = DefaultPlayerCount
	}
	if opts.CompetitionCount <= 0 {
		opts.CompetitionCount = DefaultCompetitionCount
	}
	if opts.Sampler == nil {
		opts.Sampler = NewSampler(0)
	}

	e := &Engine{
		source: src,
		opts:   opts,
	}
	e.remaining, e.integrity = e.load(ctx)
	e.picked = []models.Team{}

	logger.Info("Lottery draft loaded",
		"teams", len(e.remaining),
		"player_count", opts.PlayerCount,
		"points_ok", e.integrity.OK)

	return e
}

// Triangular returns n*(n+1)/2, or 0 for n < 1
func Triangular(n int) int {
	if n < 1 {
		return 0
	}
	return n * (n + 1) / 2
}

// ExpectedPoints is the points total a complete team list should carry
func ExpectedPoints(playerCount, competitionCount int) float64 {
	return float64(Triangular(playerCount) * competitionCount)
}

func (e *Engine) load(ctx context.Context) ([]models.Team, models.Integrity) {
	var records []models.TeamRecord
	if e.source == nil {
		logger.Warn("No team source configured, starting with zero teams")
	} else {
		var err error
		records, err = e.source.LoadTeams(ctx)
		if err != nil {
			logger.Warn("Team source unavailable, starting with zero teams", "error", err)
			records = nil
		}
	}

	teams := make([]models.Team, 0, len(records))
	seen := make(map[models.TeamKey]bool, len(records))
	skipped := 0
	sum := 0.0

	for _, rec := range records {
		name := strings.TrimSpace(rec.Name)
		switch {
		case name == "":
			logger.Warn("Skipping team with empty name", "points", rec.Points)
			skipped++
			continue
		case math.IsNaN(rec.Points) || math.IsInf(rec.Points, 0) || rec.Points < 0:
			logger.Warn("Skipping team with invalid points", "team", name, "points", rec.Points)
			skipped++
			continue
		case math.IsInf(sum+rec.Points, 0):
			logger.Warn("Skipping team whose points overflow the pool total", "team", name, "points", rec.Points)
			skipped++
			continue
		}

		key := models.TeamKey(name)
		if seen[key] {
			logger.Warn("Skipping duplicate team", "team", name)
			skipped++
			continue
		}
		seen[key] = true

		teams = append(teams, models.Team{
			Name:   name,
			Key:    key,
			Points: rec.Points,
		})
		sum += rec.Points
	}

	expected := ExpectedPoints(e.opts.PlayerCount, e.opts.CompetitionCount)
	integrity := models.Integrity{
		OK:       math.Abs(sum-expected) < 1e-9,
		Sum:      sum,
		Expected: expected,
		Skipped:  skipped,
	}
	if !integrity.OK {
		integrity.Warning = fmt.Sprintf("lottery pick points of teams: %g is not correct, should be: %g", sum, expected)
		logger.Warn("Lottery points integrity check failed", "sum", sum, "expected", expected)
	}

	recalculate(teams)
	return teams, integrity
}

// recalculate sets each team's percentage of the pool's total points. A pool
// whose points are all zero is split evenly.
func recalculate(teams []models.Team) {
	if len(teams) == 0 {
		return
	}

	total := 0.0
	for _, t := range teams {
		total += t.Points
	}

	for i := range teams {
		if total <= 0 {
			teams[i].Percentage = 100 / float64(len(teams))
			continue
		}
		teams[i].Percentage = teams[i].Points / total * 100
	}
}

// DrawNext draws the next pick. It returns ErrDraftComplete once PlayerCount
// picks have been made and ErrNoTeams when the pool is empty; neither
// changes any state.
func (e *Engine) DrawNext() (models.Team, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drawLocked()
}

// DrawPick draws the next pick and returns it together with the state after
// the draw, taken atomically.
func (e *Engine) DrawPick() (models.PickResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	team, err := e.drawLocked()
	if err != nil {
		return models.PickResult{}, err
	}

	return models.PickResult{
		ChosenTeam: team,
		PickNumber: len(e.picked),
		State:      e.snapshotLocked(),
	}, nil
}

func (e *Engine) drawLocked() (models.Team, error) {
	if len(e.picked) >= e.opts.PlayerCount {
		return models.Team{}, ErrDraftComplete
	}
	if len(e.remaining) == 0 {
		return models.Team{}, ErrNoTeams
	}

	weights := make([]float64, len(e.remaining))
	for i, t := range e.remaining {
		weights[i] = t.Percentage
	}

	idx := e.opts.Sampler.Pick(weights)
	if idx < 0 || idx >= len(e.remaining) {
		idx = len(e.remaining) - 1
	}

	chosen := e.remaining[idx]
	e.picked = append(e.picked, chosen)
	e.remaining = removeTeam(e.remaining, chosen.Key)
	recalculate(e.remaining)

	logger.Info("Lottery pick drawn",
		"pick_number", len(e.picked),
		"team", chosen.Name,
		"key", chosen.Key,
		"odds", round1(chosen.Percentage))

	return display(chosen), nil
}

// removeTeam drops the team with the given key, keeping pool order
func removeTeam(teams []models.Team, key models.TeamKey) []models.Team {
	out := teams[:0]
	for _, t := range teams {
		if t.Key != key {
			out = append(out, t)
		}
	}
	return out
}

// Rename changes a team's display name. Teams still in the pool are searched
// first, then teams already drawn. The identity key is never modified. An
// unknown key is reported before a blank name.
func (e *Engine) Rename(key models.TeamKey, newName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	team, drawn := e.findLocked(key)
	if team == nil {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, key)
	}

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrInvalidName
	}

	team.Name = newName
	logger.Info("Team renamed", "key", key, "name", newName, "drawn", drawn)
	return nil
}

func (e *Engine) findLocked(key models.TeamKey) (*models.Team, bool) {
	for i := range e.remaining {
		if e.remaining[i].Key == key {
			return &e.remaining[i], false
		}
	}
	for i := range e.picked {
		if e.picked[i].Key == key {
			return &e.picked[i], true
		}
	}
	return nil, false
}

// State returns a snapshot of the draft. Percentages are rounded to one
// decimal place.
func (e *Engine) State() models.DraftState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() models.DraftState {
	state := models.DraftState{
		Teams:       make([]models.Team, len(e.remaining)),
		DraftOrder:  make([]models.Team, len(e.picked)),
		IsComplete:  len(e.picked) >= e.opts.PlayerCount,
		PickNumber:  len(e.picked),
		PlayerCount: e.opts.PlayerCount,
		Integrity:   e.integrity,
	}

	for i, t := range e.remaining {
		state.Teams[i] = display(t)
	}
	for i, t := range e.picked {
		state.DraftOrder[i] = display(t)
	}

	return state
}

// Reset discards all draft state and reloads the team list from the source.
// The source is read before the lock is taken so a slow source does not
// block readers.
func (e *Engine) Reset(ctx context.Context) models.DraftState {
	remaining, integrity := e.load(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.remaining = remaining
	e.picked = []models.Team{}
	e.integrity = integrity

	logger.Info("Lottery draft reset", "teams", len(remaining))
	return e.snapshotLocked()
}

// Integrity returns the result of the last load's points check
func (e *Engine) Integrity() models.Integrity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.integrity
}

// PlayerCount is the number of picks that completes the draft
func (e *Engine) PlayerCount() int {
	return e.opts.PlayerCount
}

func display(t models.Team) models.Team {
	t.Percentage = round1(t.Percentage)
	return t
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
