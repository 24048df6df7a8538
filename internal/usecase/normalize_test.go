package usecase

import (
	"testing"
	"time"

	"github.com/fplstack/insights/external/fplapi"
	"github.com/fplstack/insights/internal/domain/player"
)

func intPtr(v int) *int { return &v }

func testBootstrap() *fplapi.BootstrapStatic {
	return &fplapi.BootstrapStatic{
		Events: []fplapi.RawGameweek{
			{ID: 1, Name: "Gameweek 1", IsPrevious: true, Finished: true, DeadlineTime: "2026-08-14T17:30:00Z"},
			{ID: 2, Name: "Gameweek 2", IsCurrent: true},
			{ID: 3, Name: "Gameweek 3", IsNext: true},
		},
		Teams: []fplapi.RawTeam{
			{ID: 1, Name: "Arsenal", ShortName: "ARS", StrengthOverallHome: 1350, StrengthOverallAway: 1380},
			{ID: 2, Name: "Brentford", ShortName: "BRE", StrengthOverallHome: 1100, StrengthOverallAway: 1080},
		},
		ElementTypes: []fplapi.RawElementType{
			{ID: 1, SingularName: "Goalkeeper", SingularNameShort: "GKP"},
			{ID: 3, SingularName: "Midfielder", SingularNameShort: "MID"},
		},
		Elements: []fplapi.RawElement{
			{
				ID: 10, FirstName: "Bukayo", SecondName: "Saka", WebName: "Saka",
				Team: 1, ElementType: 3, NowCost: 100, TotalPoints: 96,
				Form: "5.5", PointsPerGame: "6.0", SelectedByPercent: "45.2",
				Status: "a", Minutes: 1200, GoalsScored: 6, Assists: 8, Bonus: 12,
			},
			{
				ID: 11, WebName: "Raya", Team: 1, ElementType: 1,
				NowCost: 55, TotalPoints: 60, Status: "i", News: "Knock, 75% chance",
			},
		},
	}
}

func TestNormalizeSnapshot_ReferentialIntegrity(t *testing.T) {
	t.Parallel()

	doc := testBootstrap()
	// A player whose team id resolves to nothing in the same payload must
	// be dropped, not surfaced with dangling references.
	doc.Elements = append(doc.Elements, fplapi.RawElement{ID: 12, WebName: "Ghost", Team: 99, ElementType: 3})

	snap := normalizeSnapshot(doc, time.Now())

	if len(snap.Players) != 2 {
		t.Fatalf("players: got=%d want=2", len(snap.Players))
	}
	for _, p := range snap.Players {
		if _, ok := snap.TeamsByID[p.TeamID]; !ok {
			t.Fatalf("player %d references unknown team %d", p.ID, p.TeamID)
		}
		if p.TeamName == "" || p.TeamShort == "" {
			t.Fatalf("player %d missing denormalized team fields: %+v", p.ID, p)
		}
	}
	if snap.Drops.PlayersMissingTeam != 1 {
		t.Fatalf("drop count: got=%d want=1", snap.Drops.PlayersMissingTeam)
	}
}

func TestNormalizeSnapshot_PlayerFields(t *testing.T) {
	t.Parallel()

	snap := normalizeSnapshot(testBootstrap(), time.Now())

	saka, ok := snap.PlayersByID[10]
	if !ok {
		t.Fatal("player 10 missing")
	}
	if saka.Name != "Bukayo Saka" {
		t.Errorf("name: got=%q", saka.Name)
	}
	if saka.Position != player.PositionMidfielder {
		t.Errorf("position: got=%s", saka.Position)
	}
	if got := saka.Price(); got != 10.0 {
		t.Errorf("price: got=%v want=10.0", got)
	}
	if v, known := saka.Form.Get(); !known || v != 5.5 {
		t.Errorf("form: got=%v known=%t", v, known)
	}
	if saka.Status != player.StatusAvailable {
		t.Errorf("status: got=%s", saka.Status)
	}

	raya := snap.PlayersByID[11]
	// Name falls back to web_name when first/second are absent.
	if raya.Name != "Raya" {
		t.Errorf("fallback name: got=%q", raya.Name)
	}
	if raya.Status != player.StatusInjured {
		t.Errorf("status: got=%s", raya.Status)
	}
	// Missing numeric strings normalize to a known zero, not unknown.
	if v, known := raya.Form.Get(); !known || v != 0 {
		t.Errorf("missing form: got=%v known=%t", v, known)
	}
}

func TestNormalizeSnapshot_DuplicateCurrentFirstWins(t *testing.T) {
	t.Parallel()

	doc := testBootstrap()
	doc.Events = append(doc.Events, fplapi.RawGameweek{ID: 4, Name: "Gameweek 4", IsCurrent: true})

	snap := normalizeSnapshot(doc, time.Now())

	current := 0
	for _, gw := range snap.Gameweeks {
		if gw.IsCurrent {
			current++
			if gw.ID != 2 {
				t.Errorf("current gameweek: got=%d want=2", gw.ID)
			}
		}
	}
	if current != 1 {
		t.Fatalf("current flags: got=%d want=1", current)
	}
	if snap.Drops.DuplicateCurrentGW != 1 {
		t.Fatalf("duplicate count: got=%d want=1", snap.Drops.DuplicateCurrentGW)
	}
}

func TestNormalizeSnapshot_UnknownPositionCode(t *testing.T) {
	t.Parallel()

	doc := testBootstrap()
	doc.ElementTypes = append(doc.ElementTypes, fplapi.RawElementType{ID: 9, SingularNameShort: "ZZZ"})
	doc.Elements = append(doc.Elements, fplapi.RawElement{ID: 13, WebName: "Mystery", Team: 2, ElementType: 9})

	snap := normalizeSnapshot(doc, time.Now())

	p, ok := snap.PlayersByID[13]
	if !ok {
		t.Fatal("player with unknown position must survive")
	}
	if p.Position != player.PositionUnknown {
		t.Fatalf("position: got=%s want=%s", p.Position, player.PositionUnknown)
	}
	if snap.Drops.UnknownPositionCodes == 0 {
		t.Fatal("unknown position not counted")
	}
}

func TestNormalizeRating_UnparseableStaysUnknown(t *testing.T) {
	t.Parallel()

	r := normalizeRating(fplapi.Number("N/A"))
	if _, known := r.Get(); known {
		t.Fatal("non-numeric text must stay unknown")
	}
	r = normalizeRating(fplapi.Number(""))
	if v, known := r.Get(); !known || v != 0 {
		t.Fatal("missing value must normalize to known zero")
	}
}

func TestNormalizeFixtures_DropsBadRows(t *testing.T) {
	t.Parallel()

	snap := normalizeSnapshot(testBootstrap(), time.Now())
	rows := []fplapi.RawFixture{
		{ID: 1, Event: intPtr(2), TeamH: 1, TeamA: 2, TeamHDifficulty: 2, TeamADifficulty: 4},
		{ID: 2, TeamH: 1, TeamA: 2, TeamHDifficulty: 3, TeamADifficulty: 3}, // unscheduled
		{ID: 3, Event: intPtr(2), TeamH: 1, TeamA: 1},                       // same team both sides
		{ID: 4, Event: intPtr(2), TeamH: 1, TeamA: 77},                      // unknown away team
	}

	fixtures, drops := normalizeFixtures(rows, snap)

	if len(fixtures) != 2 {
		t.Fatalf("fixtures: got=%d want=2", len(fixtures))
	}
	if fixtures[0].Gameweek == nil || *fixtures[0].Gameweek != 2 {
		t.Errorf("gameweek pointer: %+v", fixtures[0].Gameweek)
	}
	if fixtures[1].Gameweek != nil {
		t.Errorf("unscheduled fixture must keep nil gameweek: %+v", fixtures[1].Gameweek)
	}
	if drops.FixturesSameTeam != 1 || drops.FixturesMissingTeam != 1 {
		t.Fatalf("drops: %+v", drops)
	}
}
