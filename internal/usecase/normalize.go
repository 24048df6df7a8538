package usecase

import (
	"strings"
	"time"

	"github.com/fplstack/insights/external/fplapi"
	"github.com/fplstack/insights/internal/domain/fixture"
	"github.com/fplstack/insights/internal/domain/gameweek"
	"github.com/fplstack/insights/internal/domain/player"
	"github.com/fplstack/insights/internal/domain/snapshot"
	"github.com/fplstack/insights/internal/domain/team"
)

// normalizeSnapshot maps a validated bootstrap document into an immutable
// entity graph. It is total: any payload that decoded gets a snapshot.
// Missing numerics default to zero, missing strings to empty, unknown
// code-table values to explicit Unknown sentinels. Records whose
// cross-references do not resolve inside the same payload are dropped and
// counted.
func normalizeSnapshot(doc *fplapi.BootstrapStatic, now time.Time) *snapshot.Snapshot {
	snap := &snapshot.Snapshot{
		Teams:       make([]team.Team, 0, len(doc.Teams)),
		Players:     make([]player.Player, 0, len(doc.Elements)),
		Gameweeks:   make([]gameweek.Gameweek, 0, len(doc.Events)),
		TeamsByID:   make(map[int]team.Team, len(doc.Teams)),
		PlayersByID: make(map[int]player.Player, len(doc.Elements)),
		FetchedAt:   now,
	}

	for _, raw := range doc.Teams {
		if raw.ID <= 0 {
			continue
		}
		t := team.Team{
			ID:           raw.ID,
			Name:         raw.Name,
			Short:        raw.ShortName,
			StrengthHome: raw.StrengthOverallHome,
			StrengthAway: raw.StrengthOverallAway,
		}
		snap.Teams = append(snap.Teams, t)
		snap.TeamsByID[t.ID] = t
	}

	positions := normalizePositionTable(doc.ElementTypes, &snap.Drops)

	seenCurrent, seenNext := false, false
	for _, raw := range doc.Events {
		if raw.ID <= 0 {
			continue
		}
		gw := gameweek.Gameweek{
			ID:         raw.ID,
			Name:       raw.Name,
			IsCurrent:  raw.IsCurrent,
			IsNext:     raw.IsNext,
			IsPrevious: raw.IsPrevious,
			Finished:   raw.Finished,
			Deadline:   parseUpstreamTime(raw.DeadlineTime),
		}
		// At most one current and one next gameweek per snapshot;
		// first occurrence wins.
		if gw.IsCurrent {
			if seenCurrent {
				gw.IsCurrent = false
				snap.Drops.DuplicateCurrentGW++
			}
			seenCurrent = true
		}
		if gw.IsNext {
			if seenNext {
				gw.IsNext = false
				snap.Drops.DuplicateNextGW++
			}
			seenNext = true
		}
		snap.Gameweeks = append(snap.Gameweeks, gw)
	}

	for _, raw := range doc.Elements {
		if raw.ID <= 0 {
			continue
		}
		t, ok := snap.TeamsByID[raw.Team]
		if !ok {
			snap.Drops.PlayersMissingTeam++
			continue
		}

		pos, ok := positions[raw.ElementType]
		if !ok {
			pos = player.PositionUnknown
			snap.Drops.UnknownPositionCodes++
		}
		status := player.NormalizeStatus(raw.Status)
		if status == player.StatusUnknown && strings.TrimSpace(raw.Status) != "" {
			snap.Drops.UnknownStatusCodes++
		}

		p := player.Player{
			ID:            raw.ID,
			Name:          playerDisplayName(raw),
			WebName:       raw.WebName,
			TeamID:        t.ID,
			TeamName:      t.Name,
			TeamShort:     t.Short,
			Position:      pos,
			PriceTenths:   raw.NowCost,
			Form:          normalizeRating(raw.Form),
			Points:        raw.TotalPoints,
			PointsPerGame: normalizeRating(raw.PointsPerGame),
			Ownership:     normalizeRating(raw.SelectedByPercent),
			Status:        status,
			News:          raw.News,
			Minutes:       raw.Minutes,
			Goals:         raw.GoalsScored,
			Assists:       raw.Assists,
			CleanSheets:   raw.CleanSheets,
			Bonus:         raw.Bonus,
		}
		snap.Players = append(snap.Players, p)
		snap.PlayersByID[p.ID] = p
	}

	return snap
}

// normalizeFixtures maps raw fixture rows against an existing snapshot.
// Rows referencing teams absent from the snapshot, or listing the same
// team on both sides, are dropped and counted.
func normalizeFixtures(rows []fplapi.RawFixture, snap *snapshot.Snapshot) ([]fixture.Fixture, snapshot.DropStats) {
	var drops snapshot.DropStats
	out := make([]fixture.Fixture, 0, len(rows))

	for _, raw := range rows {
		if raw.ID <= 0 {
			continue
		}
		if raw.TeamH == raw.TeamA {
			drops.FixturesSameTeam++
			continue
		}
		if _, ok := snap.TeamsByID[raw.TeamH]; !ok {
			drops.FixturesMissingTeam++
			continue
		}
		if _, ok := snap.TeamsByID[raw.TeamA]; !ok {
			drops.FixturesMissingTeam++
			continue
		}

		f := fixture.Fixture{
			ID:             raw.ID,
			HomeTeamID:     raw.TeamH,
			AwayTeamID:     raw.TeamA,
			HomeDifficulty: raw.TeamHDifficulty,
			AwayDifficulty: raw.TeamADifficulty,
			KickoffAt:      parseUpstreamTime(raw.KickoffTime),
			Finished:       raw.Finished,
		}
		if raw.Event != nil {
			event := *raw.Event
			f.Gameweek = &event
		}
		out = append(out, f)
	}

	return out, drops
}

// normalizePositionTable resolves the upstream element_type table to
// canonical position codes. Codes the synonym table does not recognise
// map to the Unknown sentinel rather than failing, since the upstream
// code table changes over time.
func normalizePositionTable(types []fplapi.RawElementType, drops *snapshot.DropStats) map[int]player.Position {
	table := make(map[int]player.Position, len(types))
	for _, raw := range types {
		if raw.ID <= 0 {
			continue
		}
		code := raw.SingularNameShort
		if code == "" {
			code = raw.SingularName
		}
		normalized, ok := player.NormalizePosition(code)
		if !ok {
			table[raw.ID] = player.PositionUnknown
			drops.UnknownPositionCodes++
			continue
		}
		table[raw.ID] = player.Position(normalized)
	}
	return table
}

func playerDisplayName(raw fplapi.RawElement) string {
	name := strings.TrimSpace(strings.TrimSpace(raw.FirstName) + " " + strings.TrimSpace(raw.SecondName))
	if name == "" {
		name = raw.WebName
	}
	return name
}

// normalizeRating parses a duck-typed upstream metric. Missing values
// default to a known zero; present but non-numeric values stay unknown so
// downstream filters can skip them rather than misread them as zero.
func normalizeRating(n fplapi.Number) player.Rating {
	if n == "" {
		return player.KnownRating(0)
	}
	if v, ok := n.Float(); ok {
		return player.KnownRating(v)
	}
	return player.Rating{}
}

func parseUpstreamTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
