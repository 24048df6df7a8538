package fplapi

import (
	"bytes"
	"strconv"
)

// Number tolerates the upstream habit of shipping numeric stats as JSON
// strings ("4.5"), numbers, or null. The raw text is kept so unparseable
// values can be surfaced as-is instead of silently becoming zero.
type Number string

func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*n = ""
		return nil
	}
	if trimmed[0] == '"' {
		unquoted, err := strconv.Unquote(string(trimmed))
		if err != nil {
			*n = Number(trimmed)
			return nil
		}
		*n = Number(unquoted)
		return nil
	}
	*n = Number(trimmed)
	return nil
}

// Float parses the value; ok is false for missing or non-numeric input.
func (n Number) Float() (float64, bool) {
	if n == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (n Number) String() string { return string(n) }

// BootstrapStatic is the bulk snapshot document: all players, teams,
// gameweeks, and the position code table in one payload.
type BootstrapStatic struct {
	Events       []RawGameweek    `json:"events" validate:"required"`
	Teams        []RawTeam        `json:"teams" validate:"required"`
	Elements     []RawElement     `json:"elements" validate:"required"`
	ElementTypes []RawElementType `json:"element_types" validate:"required"`
}

type RawGameweek struct {
	ID           int    `json:"id" validate:"required"`
	Name         string `json:"name"`
	DeadlineTime string `json:"deadline_time"`
	IsCurrent    bool   `json:"is_current"`
	IsNext       bool   `json:"is_next"`
	IsPrevious   bool   `json:"is_previous"`
	Finished     bool   `json:"finished"`
}

type RawTeam struct {
	ID                  int    `json:"id" validate:"required"`
	Name                string `json:"name" validate:"required"`
	ShortName           string `json:"short_name"`
	StrengthOverallHome int    `json:"strength_overall_home"`
	StrengthOverallAway int    `json:"strength_overall_away"`
}

type RawElement struct {
	ID                int    `json:"id" validate:"required"`
	FirstName         string `json:"first_name"`
	SecondName        string `json:"second_name"`
	WebName           string `json:"web_name"`
	Team              int    `json:"team" validate:"required"`
	ElementType       int    `json:"element_type" validate:"required"`
	NowCost           int    `json:"now_cost"`
	TotalPoints       int    `json:"total_points"`
	Form              Number `json:"form"`
	PointsPerGame     Number `json:"points_per_game"`
	SelectedByPercent Number `json:"selected_by_percent"`
	Status            string `json:"status"`
	News              string `json:"news"`
	Minutes           int    `json:"minutes"`
	GoalsScored       int    `json:"goals_scored"`
	Assists           int    `json:"assists"`
	CleanSheets       int    `json:"clean_sheets"`
	Bonus             int    `json:"bonus"`
}

type RawElementType struct {
	ID                int    `json:"id" validate:"required"`
	SingularName      string `json:"singular_name"`
	SingularNameShort string `json:"singular_name_short"`
}

// RawFixture is one row of the fixtures list. Event is nil for fixtures
// not yet assigned to a gameweek.
type RawFixture struct {
	ID              int    `json:"id" validate:"required"`
	Event           *int   `json:"event"`
	TeamH           int    `json:"team_h" validate:"required"`
	TeamA           int    `json:"team_a" validate:"required"`
	TeamHDifficulty int    `json:"team_h_difficulty"`
	TeamADifficulty int    `json:"team_a_difficulty"`
	KickoffTime     string `json:"kickoff_time"`
	Finished        bool   `json:"finished"`
}

// PlayerSummary is the per-player detail document with per-gameweek
// history and the remaining fixtures for the player's team.
type PlayerSummary struct {
	History  []RawHistoryRound   `json:"history"`
	Fixtures []RawSummaryFixture `json:"fixtures"`
}

type RawHistoryRound struct {
	Round        int  `json:"round"`
	TotalPoints  int  `json:"total_points"`
	Minutes      int  `json:"minutes"`
	GoalsScored  int  `json:"goals_scored"`
	Assists      int  `json:"assists"`
	CleanSheets  int  `json:"clean_sheets"`
	Bonus        int  `json:"bonus"`
	OpponentTeam int  `json:"opponent_team"`
	WasHome      bool `json:"was_home"`
}

type RawSummaryFixture struct {
	ID         int    `json:"id"`
	Event      *int   `json:"event"`
	TeamH      int    `json:"team_h"`
	TeamA      int    `json:"team_a"`
	Difficulty int    `json:"difficulty"`
	IsHome     bool   `json:"is_home"`
	KickoffAt  string `json:"kickoff_time"`
}
