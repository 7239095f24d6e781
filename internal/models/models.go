package models

// TeamKey is the stable identity of a team. It is the name the team was
// loaded with and never changes, even when the display name is edited.
type TeamKey string

// TeamRecord is a raw (name, points) row produced by a team source
type TeamRecord struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
}

// Team represents a team in the lottery pool
type Team struct {
	Name       string  `json:"team_name"`
	Key        TeamKey `json:"original_name"`
	Points     float64 `json:"team_lottery_pick_points"`
	Percentage float64 `json:"team_lottery_pick_perc"`
}

// Integrity describes the load-time points check. Sum is what the source
// supplied, Expected is triangular(players) * competitions.
type Integrity struct {
	OK       bool    `json:"ok"`
	Sum      float64 `json:"sum"`
	Expected float64 `json:"expected"`
	Skipped  int     `json:"skipped,omitempty"`
	Warning  string  `json:"warning,omitempty"`
}

// DraftState is a point-in-time snapshot of the draft
type DraftState struct {
	Teams       []Team    `json:"teams"`
	DraftOrder  []Team    `json:"draft_order"`
	IsComplete  bool      `json:"is_complete"`
	PickNumber  int       `json:"pick_number"`
	PlayerCount int       `json:"player_count"`
	Integrity   Integrity `json:"integrity"`
}

// PickResult is returned after a successful draw
type PickResult struct {
	ChosenTeam Team       `json:"chosen_team"`
	PickNumber int        `json:"pick_number"`
	State      DraftState `json:"state"`
}
