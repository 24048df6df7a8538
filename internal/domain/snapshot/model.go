package snapshot

import (
	"time"

	"github.com/fplstack/insights/internal/domain/gameweek"
	"github.com/fplstack/insights/internal/domain/player"
	"github.com/fplstack/insights/internal/domain/team"
)

// DropStats counts raw records the normalizer discarded because their
// cross-references could not be resolved within the same payload.
type DropStats struct {
	PlayersMissingTeam   int
	FixturesMissingTeam  int
	FixturesSameTeam     int
	DuplicateCurrentGW   int
	DuplicateNextGW      int
	UnknownPositionCodes int
	UnknownStatusCodes   int
}

func (d DropStats) Total() int {
	return d.PlayersMissingTeam + d.FixturesMissingTeam + d.FixturesSameTeam +
		d.DuplicateCurrentGW + d.DuplicateNextGW
}

// Snapshot is one normalized, internally consistent set of entities
// produced from one fetch cycle. It is immutable after creation and safe
// to share by reference across concurrent readers.
type Snapshot struct {
	Players   []player.Player
	Teams     []team.Team
	Gameweeks []gameweek.Gameweek

	TeamsByID   map[int]team.Team
	PlayersByID map[int]player.Player

	FetchedAt time.Time
	Drops     DropStats
}

// CurrentGameweek returns the current gameweek, falling back to the next
// one and then the first, mirroring upstream semantics around season
// boundaries. ok is false when the snapshot has no gameweeks at all.
func (s *Snapshot) CurrentGameweek() (gameweek.Gameweek, bool) {
	for _, gw := range s.Gameweeks {
		if gw.IsCurrent {
			return gw, true
		}
	}
	for _, gw := range s.Gameweeks {
		if gw.IsNext {
			return gw, true
		}
	}
	if len(s.Gameweeks) > 0 {
		return s.Gameweeks[0], true
	}
	return gameweek.Gameweek{}, false
}

// ActiveGameweek returns the current gameweek, falling back to the next
// one. Unlike CurrentGameweek it does not fall back to the first
// gameweek, so ok is false once a season has fully finished.
func (s *Snapshot) ActiveGameweek() (gameweek.Gameweek, bool) {
	for _, gw := range s.Gameweeks {
		if gw.IsCurrent {
			return gw, true
		}
	}
	for _, gw := range s.Gameweeks {
		if gw.IsNext {
			return gw, true
		}
	}
	return gameweek.Gameweek{}, false
}

// Team resolves a team reference within this snapshot.
func (s *Snapshot) Team(id int) (team.Team, bool) {
	t, ok := s.TeamsByID[id]
	return t, ok
}

// Player resolves a player reference within this snapshot.
func (s *Snapshot) Player(id int) (player.Player, bool) {
	p, ok := s.PlayersByID[id]
	return p, ok
}
