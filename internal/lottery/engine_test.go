package lottery

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/Billy-Davies-2/lottery-draft/internal/models"
)

type staticSource []models.TeamRecord

func (s staticSource) LoadTeams(ctx context.Context) ([]models.TeamRecord, error) {
	out := make([]models.TeamRecord, len(s))
	copy(out, s)
	return out, nil
}

type failingSource struct{}

func (failingSource) LoadTeams(ctx context.Context) ([]models.TeamRecord, error) {
	return nil, errors.New("draft_perc.csv file not found")
}

// scriptedSampler returns the scripted indexes in order, then 0
type scriptedSampler struct {
	mu   sync.Mutex
	next []int
}

func (s *scriptedSampler) Pick(weights []float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.next) == 0 {
		return 0
	}
	idx := s.next[0]
	s.next = s.next[1:]
	return idx
}

func abcSource() staticSource {
	return staticSource{
		{Name: "A", Points: 10},
		{Name: "B", Points: 5},
		{Name: "C", Points: 5},
	}
}

// leagueSource returns 12 teams whose points sum to triangular(12)*4
func leagueSource() staticSource {
	names := []string{"Lakers", "Celtics", "Bulls", "Knicks", "Heat", "Spurs",
		"Suns", "Nets", "Jazz", "Magic", "Kings", "Hawks"}
	src := make(staticSource, len(names))
	for i, name := range names {
		src[i] = models.TeamRecord{Name: name, Points: float64(4 * (12 - i))}
	}
	return src
}

func newEngine(t *testing.T, src Source, players int, sampler Sampler) *Engine {
	t.Helper()
	return New(context.Background(), src, Options{
		PlayerCount:      players,
		CompetitionCount: 4,
		Sampler:          sampler,
	})
}

func percentSum(teams []models.Team) float64 {
	sum := 0.0
	for _, t := range teams {
		sum += t.Percentage
	}
	return sum
}

func TestTriangular(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{-3, 0},
		{0, 0},
		{1, 1},
		{3, 6},
		{12, 78},
	}
	for _, tt := range tests {
		if got := Triangular(tt.n); got != tt.want {
			t.Errorf("Triangular(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}

	if got := ExpectedPoints(12, 4); got != 312 {
		t.Errorf("ExpectedPoints(12, 4) = %v, want 312", got)
	}
}

func TestNewComputesInitialPercentages(t *testing.T) {
	e := newEngine(t, abcSource(), 12, &scriptedSampler{})

	state := e.State()
	want := map[models.TeamKey]float64{"A": 50, "B": 25, "C": 25}
	if len(state.Teams) != 3 {
		t.Fatalf("expected 3 teams, got %d", len(state.Teams))
	}
	for _, team := range state.Teams {
		if team.Percentage != want[team.Key] {
			t.Errorf("team %s: expected %v%%, got %v%%", team.Key, want[team.Key], team.Percentage)
		}
	}
	if len(state.DraftOrder) != 0 {
		t.Errorf("expected empty draft order, got %d", len(state.DraftOrder))
	}
	if state.IsComplete {
		t.Error("fresh draft should not be complete")
	}
}

func TestNewKeepsSourceOrder(t *testing.T) {
	e := newEngine(t, leagueSource(), 12, &scriptedSampler{})

	state := e.State()
	for i, rec := range leagueSource() {
		if state.Teams[i].Key != models.TeamKey(rec.Name) {
			t.Errorf("position %d: expected %s, got %s", i, rec.Name, state.Teams[i].Key)
		}
		if state.Teams[i].Name != rec.Name {
			t.Errorf("position %d: display name should default to %s, got %s", i, rec.Name, state.Teams[i].Name)
		}
	}
}

func TestIntegrityCheck(t *testing.T) {
	ok := newEngine(t, leagueSource(), 12, &scriptedSampler{})
	if integrity := ok.Integrity(); !integrity.OK {
		t.Errorf("expected integrity OK for 312 points, got %+v", integrity)
	}

	bad := newEngine(t, abcSource(), 12, &scriptedSampler{})
	integrity := bad.Integrity()
	if integrity.OK {
		t.Fatal("expected integrity warning for 20 points")
	}
	if integrity.Sum != 20 || integrity.Expected != 312 {
		t.Errorf("unexpected integrity values: %+v", integrity)
	}
	if integrity.Warning == "" {
		t.Error("expected a warning message")
	}

	// the draft still proceeds
	if _, err := bad.DrawNext(); err != nil {
		t.Errorf("draw should proceed despite integrity warning: %v", err)
	}
}

func TestScenarioThreeTeams(t *testing.T) {
	e := newEngine(t, abcSource(), 12, &scriptedSampler{next: []int{0}})

	first, err := e.DrawNext()
	if err != nil {
		t.Fatalf("DrawNext() failed: %v", err)
	}
	if first.Key != "A" {
		t.Fatalf("expected A to be drawn, got %s", first.Key)
	}
	if first.Percentage != 50 {
		t.Errorf("drawn team should carry its odds at draw time, got %v", first.Percentage)
	}

	state := e.State()
	if len(state.Teams) != 2 {
		t.Fatalf("expected 2 remaining teams, got %d", len(state.Teams))
	}
	for _, team := range state.Teams {
		if team.Percentage != 50 {
			t.Errorf("team %s: expected 50%% after A drawn, got %v", team.Key, team.Percentage)
		}
	}

	for i := 0; i < 2; i++ {
		if _, err := e.DrawNext(); err != nil {
			t.Fatalf("draw %d failed: %v", i+2, err)
		}
	}

	state = e.State()
	if len(state.Teams) != 0 {
		t.Errorf("expected empty pool, got %d teams", len(state.Teams))
	}
	if len(state.DraftOrder) != 3 {
		t.Errorf("expected 3 picks, got %d", len(state.DraftOrder))
	}
	if state.IsComplete {
		t.Error("draft should not be complete with 3 of 12 picks")
	}

	if _, err := e.DrawNext(); !errors.Is(err, ErrNoTeams) {
		t.Errorf("expected ErrNoTeams, got %v", err)
	}
}

func TestScenarioThreeTeamsThreePlayers(t *testing.T) {
	e := newEngine(t, abcSource(), 3, NewSampler(7))

	for i := 0; i < 3; i++ {
		if _, err := e.DrawNext(); err != nil {
			t.Fatalf("draw %d failed: %v", i+1, err)
		}
	}

	if !e.State().IsComplete {
		t.Error("draft should be complete after 3 of 3 picks")
	}
	if _, err := e.DrawNext(); !errors.Is(err, ErrDraftComplete) {
		t.Errorf("expected ErrDraftComplete, got %v", err)
	}
}

func TestDrawWhenCompleteIsNoop(t *testing.T) {
	e := newEngine(t, abcSource(), 1, NewSampler(1))

	if _, err := e.DrawNext(); err != nil {
		t.Fatalf("DrawNext() failed: %v", err)
	}
	before := e.State()

	_, err := e.DrawNext()
	if !errors.Is(err, ErrDraftComplete) {
		t.Fatalf("expected ErrDraftComplete, got %v", err)
	}
	if !IsRejection(err) {
		t.Error("ErrDraftComplete should be a rejection")
	}

	if after := e.State(); !reflect.DeepEqual(before, after) {
		t.Errorf("state changed on rejected draw:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestCompletionCheckedBeforeEmptyPool(t *testing.T) {
	e := newEngine(t, abcSource(), 3, NewSampler(3))
	for i := 0; i < 3; i++ {
		e.DrawNext()
	}

	if _, err := e.DrawNext(); !errors.Is(err, ErrDraftComplete) {
		t.Errorf("complete and empty draft should report ErrDraftComplete, got %v", err)
	}
}

func TestDrawInvariants(t *testing.T) {
	e := newEngine(t, leagueSource(), 12, NewSampler(99))
	total := len(leagueSource())

	for n := 1; n <= total; n++ {
		if _, err := e.DrawNext(); err != nil {
			t.Fatalf("draw %d failed: %v", n, err)
		}

		state := e.State()
		if len(state.DraftOrder) != n {
			t.Errorf("after %d draws: expected %d picks, got %d", n, n, len(state.DraftOrder))
		}
		if len(state.Teams) != total-n {
			t.Errorf("after %d draws: expected %d remaining, got %d", n, total-n, len(state.Teams))
		}
		if state.PickNumber != n {
			t.Errorf("after %d draws: pick number %d", n, state.PickNumber)
		}

		picked := make(map[models.TeamKey]bool)
		for _, team := range state.DraftOrder {
			picked[team.Key] = true
		}
		for _, team := range state.Teams {
			if picked[team.Key] {
				t.Errorf("team %s is both remaining and picked", team.Key)
			}
		}

		sum := percentSum(state.Teams)
		if len(state.Teams) == 0 {
			if sum != 0 {
				t.Errorf("empty pool percentages should sum to 0, got %v", sum)
			}
		} else if math.Abs(sum-100) > 0.5 {
			t.Errorf("after %d draws: percentages sum to %v", n, sum)
		}
	}

	if !e.State().IsComplete {
		t.Error("draft should be complete after 12 picks")
	}
}

func TestDrawPickReturnsConsistentState(t *testing.T) {
	e := newEngine(t, abcSource(), 12, &scriptedSampler{next: []int{1}})

	result, err := e.DrawPick()
	if err != nil {
		t.Fatalf("DrawPick() failed: %v", err)
	}
	if result.ChosenTeam.Key != "B" {
		t.Errorf("expected B, got %s", result.ChosenTeam.Key)
	}
	if result.PickNumber != 1 {
		t.Errorf("expected pick number 1, got %d", result.PickNumber)
	}
	if len(result.State.DraftOrder) != 1 || result.State.DraftOrder[0].Key != "B" {
		t.Errorf("state should include the new pick: %+v", result.State.DraftOrder)
	}

	// remaining A:10, C:5
	for _, team := range result.State.Teams {
		want := map[models.TeamKey]float64{"A": 66.7, "C": 33.3}[team.Key]
		if team.Percentage != want {
			t.Errorf("team %s: expected %v, got %v", team.Key, want, team.Percentage)
		}
	}
}

func TestRenameScenario(t *testing.T) {
	e := newEngine(t, leagueSource(), 12, &scriptedSampler{next: []int{0}})

	if err := e.Rename("Lakers", "LA Lakers"); err != nil {
		t.Fatalf("Rename() failed: %v", err)
	}

	state := e.State()
	if state.Teams[0].Name != "LA Lakers" {
		t.Errorf("expected display name 'LA Lakers', got %q", state.Teams[0].Name)
	}
	if state.Teams[0].Key != "Lakers" {
		t.Errorf("identity key should stay 'Lakers', got %q", state.Teams[0].Key)
	}

	// still addressable by the original key
	if err := e.Rename("Lakers", "Los Angeles Lakers"); err != nil {
		t.Errorf("second rename by original key failed: %v", err)
	}
	if err := e.Rename("LA Lakers", "nope"); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("rename by display name should not match, got %v", err)
	}

	// rename carries through the draw
	drawn, err := e.DrawNext()
	if err != nil {
		t.Fatalf("DrawNext() failed: %v", err)
	}
	if drawn.Name != "Los Angeles Lakers" {
		t.Errorf("drawn team should show new name, got %q", drawn.Name)
	}
	if got := e.State().DraftOrder[0].Name; got != "Los Angeles Lakers" {
		t.Errorf("draft order should show new name, got %q", got)
	}
}

func TestRenamePickedTeam(t *testing.T) {
	e := newEngine(t, abcSource(), 12, &scriptedSampler{next: []int{2}})

	if _, err := e.DrawNext(); err != nil {
		t.Fatalf("DrawNext() failed: %v", err)
	}
	if err := e.Rename("C", "Team C"); err != nil {
		t.Fatalf("renaming a drawn team should succeed: %v", err)
	}
	if got := e.State().DraftOrder[0].Name; got != "Team C" {
		t.Errorf("expected 'Team C', got %q", got)
	}
}

func TestRenameUnknownTeam(t *testing.T) {
	e := newEngine(t, abcSource(), 12, &scriptedSampler{})
	before := e.State()

	err := e.Rename("Z", "Zebras")
	if !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
	if after := e.State(); !reflect.DeepEqual(before, after) {
		t.Error("state changed on failed rename")
	}
}

func TestRenameUnknownTeamWithBlankName(t *testing.T) {
	e := newEngine(t, abcSource(), 12, &scriptedSampler{})

	if err := e.Rename("Z", ""); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("expected ErrTeamNotFound, got %v", err)
	}
}

func TestRenameEmptyName(t *testing.T) {
	e := newEngine(t, abcSource(), 12, &scriptedSampler{})

	if err := e.Rename("A", "   "); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
	if got := e.State().Teams[0].Name; got != "A" {
		t.Errorf("name should be unchanged, got %q", got)
	}
}

func TestResetRestoresSource(t *testing.T) {
	e := newEngine(t, leagueSource(), 12, NewSampler(5))
	fresh := e.State()

	e.Rename("Bulls", "Chicago")
	for i := 0; i < 5; i++ {
		if _, err := e.DrawNext(); err != nil {
			t.Fatalf("draw %d failed: %v", i+1, err)
		}
	}

	reset := e.Reset(context.Background())
	if !reflect.DeepEqual(fresh, reset) {
		t.Errorf("reset state differs from fresh state:\nfresh %+v\nreset %+v", fresh, reset)
	}
	if !reflect.DeepEqual(fresh, e.State()) {
		t.Error("State() after reset differs from fresh state")
	}
}

func TestMissingSourceStartsEmpty(t *testing.T) {
	e := newEngine(t, failingSource{}, 12, nil)

	state := e.State()
	if len(state.Teams) != 0 {
		t.Errorf("expected zero teams, got %d", len(state.Teams))
	}
	if state.Integrity.OK {
		t.Error("zero points should fail the integrity check")
	}
	if _, err := e.DrawNext(); !errors.Is(err, ErrNoTeams) {
		t.Errorf("expected ErrNoTeams, got %v", err)
	}

	nilSource := newEngine(t, nil, 12, nil)
	if _, err := nilSource.DrawNext(); !errors.Is(err, ErrNoTeams) {
		t.Errorf("expected ErrNoTeams for nil source, got %v", err)
	}
}

func TestInvalidRecordsSkipped(t *testing.T) {
	src := staticSource{
		{Name: "A", Points: 10},
		{Name: "  ", Points: 5},
		{Name: "B", Points: -1},
		{Name: "A", Points: 3},
		{Name: " C ", Points: 10},
		{Name: "D", Points: math.NaN()},
	}
	e := newEngine(t, src, 12, &scriptedSampler{})

	state := e.State()
	if len(state.Teams) != 2 {
		t.Fatalf("expected 2 valid teams, got %d: %+v", len(state.Teams), state.Teams)
	}
	if state.Teams[1].Key != "C" {
		t.Errorf("names should be trimmed, got %q", state.Teams[1].Key)
	}
	if state.Integrity.Skipped != 4 {
		t.Errorf("expected 4 skipped records, got %d", state.Integrity.Skipped)
	}
	if state.Integrity.Sum != 20 {
		t.Errorf("expected sum 20, got %v", state.Integrity.Sum)
	}
}

func TestOverflowingPointsSkipped(t *testing.T) {
	src := staticSource{
		{Name: "A", Points: math.MaxFloat64},
		{Name: "B", Points: math.MaxFloat64},
		{Name: "C", Points: 1},
	}
	e := newEngine(t, src, 12, &scriptedSampler{})

	state := e.State()
	if len(state.Teams) != 2 || state.Teams[0].Key != "A" || state.Teams[1].Key != "C" {
		t.Fatalf("expected A and C to remain, got %+v", state.Teams)
	}
	if math.IsInf(state.Integrity.Sum, 0) || state.Integrity.Skipped != 1 {
		t.Errorf("unexpected integrity: %+v", state.Integrity)
	}

	total := 0.0
	for _, team := range state.Teams {
		total += team.Percentage
	}
	if math.Abs(total-100) > 0.2 {
		t.Errorf("percentages should sum to 100, got %v", total)
	}
	if _, err := json.Marshal(state); err != nil {
		t.Errorf("state should encode: %v", err)
	}
}

func TestZeroPointsSplitEvenly(t *testing.T) {
	src := staticSource{
		{Name: "A", Points: 0},
		{Name: "B", Points: 0},
		{Name: "C", Points: 0},
		{Name: "D", Points: 0},
	}
	e := newEngine(t, src, 12, NewSampler(11))

	for _, team := range e.State().Teams {
		if team.Percentage != 25 {
			t.Errorf("team %s: expected 25%%, got %v", team.Key, team.Percentage)
		}
	}
	if _, err := e.DrawNext(); err != nil {
		t.Fatalf("zero point pool should still draw: %v", err)
	}
}

func TestZeroPointTeamDrawnLast(t *testing.T) {
	src := staticSource{
		{Name: "Nobody", Points: 0},
		{Name: "A", Points: 3},
		{Name: "B", Points: 1},
	}
	e := newEngine(t, src, 12, NewSampler(21))

	for i := 0; i < 2; i++ {
		team, err := e.DrawNext()
		if err != nil {
			t.Fatalf("draw %d failed: %v", i+1, err)
		}
		if team.Key == "Nobody" {
			t.Fatalf("zero point team drawn while others remain (draw %d)", i+1)
		}
	}

	last, _ := e.DrawNext()
	if last.Key != "Nobody" {
		t.Errorf("expected zero point team last, got %s", last.Key)
	}
}

func TestConcurrentDraws(t *testing.T) {
	e := newEngine(t, leagueSource(), 12, NewSampler(17))

	var wg sync.WaitGroup
	var mu sync.Mutex
	drawn := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if _, err := e.DrawNext(); err == nil {
					mu.Lock()
					drawn++
					mu.Unlock()
				}
				e.Rename("Heat", "Miami")
				e.State()
			}
		}(i)
	}
	wg.Wait()

	if drawn != 12 {
		t.Errorf("expected exactly 12 successful draws, got %d", drawn)
	}

	state := e.State()
	seen := make(map[models.TeamKey]bool)
	for _, team := range state.DraftOrder {
		if seen[team.Key] {
			t.Errorf("team %s drawn twice", team.Key)
		}
		seen[team.Key] = true
	}
	if len(state.Teams)+len(state.DraftOrder) != 12 {
		t.Errorf("team count not conserved: %d + %d", len(state.Teams), len(state.DraftOrder))
	}
}
