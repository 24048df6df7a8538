package player

import (
	"fmt"
	"strings"
)

// Position is one of the four canonical FPL position codes.
type Position string

const (
	PositionGoalkeeper Position = "GKP"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
	PositionUnknown    Position = "UNK"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

// Status reflects a player's availability flag from the upstream code table.
type Status string

const (
	StatusAvailable Status = "available"
	StatusInjured   Status = "injured"
	StatusSuspended Status = "suspended"
	StatusUnknown   Status = "unknown"
)

// Rating is a numeric metric that may be unknown when the upstream value
// was missing or not parseable as a number.
type Rating struct {
	Value float64
	Known bool
}

func KnownRating(v float64) Rating {
	return Rating{Value: v, Known: true}
}

// Get returns the value and whether it is known. Callers filtering or
// ranking on a rating must skip unknown values rather than treat them
// as zero.
func (r Rating) Get() (float64, bool) {
	return r.Value, r.Known
}

// Player is one entry of a normalized snapshot. Price is kept in tenths of
// a million, matching the upstream fixed-point representation.
type Player struct {
	ID            int
	Name          string
	WebName       string
	TeamID        int
	TeamName      string
	TeamShort     string
	Position      Position
	PriceTenths   int
	Form          Rating
	Points        int
	PointsPerGame Rating
	Ownership     Rating
	Status        Status
	News          string
	Minutes       int
	Goals         int
	Assists       int
	CleanSheets   int
	Bonus         int
}

// Price returns the display price in millions, one decimal of precision.
func (p Player) Price() float64 {
	return float64(p.PriceTenths) / 10.0
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be positive")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if p.TeamID <= 0 {
		return fmt.Errorf("player team id must be positive")
	}
	if _, ok := AllPositions[p.Position]; !ok && p.Position != PositionUnknown {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	return nil
}

// positionSynonyms maps free-text position input to canonical codes. The
// upstream code table and user-entered filters both funnel through here.
var positionSynonyms = map[string]Position{
	"gkp":         PositionGoalkeeper,
	"gk":          PositionGoalkeeper,
	"goalkeeper":  PositionGoalkeeper,
	"goalkeepers": PositionGoalkeeper,
	"keeper":      PositionGoalkeeper,
	"keepers":     PositionGoalkeeper,
	"def":         PositionDefender,
	"defender":    PositionDefender,
	"defenders":   PositionDefender,
	"defence":     PositionDefender,
	"defense":     PositionDefender,
	"mid":         PositionMidfielder,
	"midfielder":  PositionMidfielder,
	"midfielders": PositionMidfielder,
	"midfield":    PositionMidfielder,
	"fwd":         PositionForward,
	"forward":     PositionForward,
	"forwards":    PositionForward,
	"striker":     PositionForward,
	"strikers":    PositionForward,
	"attacker":    PositionForward,
	"attackers":   PositionForward,
}

// NormalizePosition maps free-text input to a canonical position code.
// Unmatched input is passed back unchanged with ok=false so callers can
// flag it instead of failing.
func NormalizePosition(input string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return input, false
	}
	if pos, ok := positionSynonyms[trimmed]; ok {
		return string(pos), true
	}
	return input, false
}

// NormalizeStatus maps the upstream single-letter status code to a Status.
// Unknown codes map to StatusUnknown, never an error, since the upstream
// code table changes over time.
func NormalizeStatus(code string) Status {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "a":
		return StatusAvailable
	case "i":
		return StatusInjured
	case "s":
		return StatusSuspended
	default:
		return StatusUnknown
	}
}
