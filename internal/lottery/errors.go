package lottery

import "errors"

var (
	// ErrDraftComplete is returned by a draw once every pick has been made
	ErrDraftComplete = errors.New("draft is complete")
	// ErrNoTeams is returned by a draw when the pool is empty
	ErrNoTeams = errors.New("no teams available")
	// ErrTeamNotFound is returned when no team has the given identity key
	ErrTeamNotFound = errors.New("team not found")
	// ErrInvalidName is returned when a rename supplies an empty display name
	ErrInvalidName = errors.New("team name must not be empty")
)

// IsRejection reports whether err is an expected draw rejection rather than
// a failure
func IsRejection(err error) bool {
	return errors.Is(err, ErrDraftComplete) || errors.Is(err, ErrNoTeams)
}
