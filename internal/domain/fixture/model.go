package fixture

import "time"

// Fixture is one scheduled match between two teams. Gameweek is nil for
// fixtures the league has not assigned to a round yet.
type Fixture struct {
	ID             int
	Gameweek       *int
	HomeTeamID     int
	AwayTeamID     int
	HomeDifficulty int
	AwayDifficulty int
	KickoffAt      time.Time
	Finished       bool
}

// InGameweek reports whether the fixture is scheduled in the given round.
func (f Fixture) InGameweek(gw int) bool {
	return f.Gameweek != nil && *f.Gameweek == gw
}

// DifficultyFor returns the difficulty rating (1=easiest .. 5=hardest)
// faced by the given team, and whether the team plays in this fixture.
func (f Fixture) DifficultyFor(teamID int) (int, bool) {
	switch teamID {
	case f.HomeTeamID:
		return f.HomeDifficulty, true
	case f.AwayTeamID:
		return f.AwayDifficulty, true
	default:
		return 0, false
	}
}

// IsHomeFor reports whether the given team plays this fixture at home.
func (f Fixture) IsHomeFor(teamID int) bool {
	return f.HomeTeamID == teamID
}
