package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fplstack/insights/internal/domain/fixture"
	"github.com/fplstack/insights/internal/platform/logging"
)

const (
	maxEaseScore = 10.0
	minEaseScore = 1.0

	AssessmentExcellent     = "excellent"
	AssessmentGood          = "good"
	AssessmentAverage       = "average"
	AssessmentDifficult     = "difficult"
	AssessmentVeryDifficult = "very difficult"
	AssessmentNoFixtures    = "no upcoming fixtures"
)

// FixtureDetail is one upcoming fixture from a single team's perspective.
type FixtureDetail struct {
	FixtureID     int       `json:"fixtureId"`
	Gameweek      int       `json:"gameweek"`
	OpponentID    int       `json:"opponentId"`
	Opponent      string    `json:"opponent"`
	OpponentShort string    `json:"opponentShort"`
	IsHome        bool      `json:"isHome"`
	Difficulty    int       `json:"difficulty"`
	KickoffAt     time.Time `json:"kickoffAt"`
}

// FixtureOutlook is the difficulty summary over a team's next fixtures.
// HasScore is false when there are no scheduled fixtures to score; the
// numeric fields are zero in that case and must not be read as a rating.
type FixtureOutlook struct {
	TeamID        int             `json:"teamId"`
	TeamName      string          `json:"teamName"`
	Fixtures      []FixtureDetail `json:"fixtures"`
	AvgDifficulty float64         `json:"avgDifficulty"`
	HomeFixtures  int             `json:"homeFixtures"`
	HasScore      bool            `json:"hasScore"`
	EaseScore     float64         `json:"easeScore"`
	Assessment    string          `json:"assessment"`
}

// PlayerFixtureOutlook pairs a player with their team's outlook.
type PlayerFixtureOutlook struct {
	PlayerID   int    `json:"playerId"`
	PlayerName string `json:"playerName"`
	Position   string `json:"position"`
	FixtureOutlook
}

// GameweekAnomaly flags a team with an unusual fixture count in one
// gameweek: zero (blank) or more than one (double).
type GameweekAnomaly struct {
	Gameweek     int    `json:"gameweek"`
	TeamID       int    `json:"teamId"`
	TeamName     string `json:"teamName"`
	FixtureCount int    `json:"fixtureCount"`
}

// FixtureAnalyzerService scores upcoming fixture difficulty and detects
// blank and double gameweeks from the normalized dataset.
type FixtureAnalyzerService struct {
	data   *DatasetService
	logger *logging.Logger
}

func NewFixtureAnalyzerService(data *DatasetService, logger *logging.Logger) *FixtureAnalyzerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FixtureAnalyzerService{data: data, logger: logger}
}

// AnalyzePlayerFixtures scores the next n scheduled fixtures for the
// player's team, with the home-share adjustment applied.
func (s *FixtureAnalyzerService) AnalyzePlayerFixtures(ctx context.Context, playerID, n int) (PlayerFixtureOutlook, error) {
	ctx, span := startUsecaseSpan(ctx, "fixtures.AnalyzePlayer")
	defer span.End()

	if n <= 0 {
		return PlayerFixtureOutlook{}, fmt.Errorf("%w: fixture count must be positive", ErrInvalidInput)
	}

	snap, err := s.data.Snapshot(ctx)
	if err != nil {
		return PlayerFixtureOutlook{}, err
	}
	p, ok := snap.Player(playerID)
	if !ok {
		return PlayerFixtureOutlook{}, fmt.Errorf("%w: player %d", ErrNotFound, playerID)
	}

	outlook, err := s.teamOutlook(ctx, p.TeamID, n, true)
	if err != nil {
		return PlayerFixtureOutlook{}, err
	}
	return PlayerFixtureOutlook{
		PlayerID:       p.ID,
		PlayerName:     p.Name,
		Position:       string(p.Position),
		FixtureOutlook: outlook,
	}, nil
}

// TeamEaseScore scores a team's next n scheduled fixtures. homeAdjust
// toggles the home-share adjustment; off gives the raw difficulty score.
func (s *FixtureAnalyzerService) TeamEaseScore(ctx context.Context, teamID, n int, homeAdjust bool) (FixtureOutlook, error) {
	ctx, span := startUsecaseSpan(ctx, "fixtures.TeamEaseScore")
	defer span.End()

	if n <= 0 {
		return FixtureOutlook{}, fmt.Errorf("%w: fixture count must be positive", ErrInvalidInput)
	}
	return s.teamOutlook(ctx, teamID, n, homeAdjust)
}

func (s *FixtureAnalyzerService) teamOutlook(ctx context.Context, teamID, n int, homeAdjust bool) (FixtureOutlook, error) {
	snap, err := s.data.Snapshot(ctx)
	if err != nil {
		return FixtureOutlook{}, err
	}
	t, ok := snap.Team(teamID)
	if !ok {
		return FixtureOutlook{}, fmt.Errorf("%w: team %d", ErrNotFound, teamID)
	}

	upcoming, err := s.upcomingTeamFixtures(ctx, teamID, n)
	if err != nil {
		return FixtureOutlook{}, err
	}

	outlook := FixtureOutlook{
		TeamID:     t.ID,
		TeamName:   t.Name,
		Fixtures:   make([]FixtureDetail, 0, len(upcoming)),
		Assessment: AssessmentNoFixtures,
	}

	totalDifficulty := 0
	for _, f := range upcoming {
		isHome := f.IsHomeFor(teamID)
		difficulty, _ := f.DifficultyFor(teamID)

		opponentID := f.HomeTeamID
		if isHome {
			opponentID = f.AwayTeamID
		}
		opponent, _ := snap.Team(opponentID)

		detail := FixtureDetail{
			FixtureID:     f.ID,
			OpponentID:    opponentID,
			Opponent:      opponent.Name,
			OpponentShort: opponent.Short,
			IsHome:        isHome,
			Difficulty:    difficulty,
			KickoffAt:     f.KickoffAt,
		}
		if f.Gameweek != nil {
			detail.Gameweek = *f.Gameweek
		}
		outlook.Fixtures = append(outlook.Fixtures, detail)

		totalDifficulty += difficulty
		if isHome {
			outlook.HomeFixtures++
		}
	}

	if len(outlook.Fixtures) == 0 {
		return outlook, nil
	}

	outlook.AvgDifficulty = float64(totalDifficulty) / float64(len(outlook.Fixtures))
	adjustment := 0.0
	if homeAdjust {
		homePct := float64(outlook.HomeFixtures) / float64(len(outlook.Fixtures)) * 100
		adjustment = (homePct - 50) / 100
	}
	outlook.EaseScore = easeScore(outlook.AvgDifficulty, adjustment)
	outlook.HasScore = true
	outlook.Assessment = assessEase(outlook.EaseScore)
	return outlook, nil
}

// upcomingTeamFixtures returns the team's next n scheduled fixtures from
// the current gameweek on, in chronological order. Fixtures without a
// gameweek assignment are skipped.
func (s *FixtureAnalyzerService) upcomingTeamFixtures(ctx context.Context, teamID, n int) ([]fixture.Fixture, error) {
	snap, err := s.data.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.data.Fixtures(ctx)
	if err != nil {
		return nil, err
	}

	start := 1
	if gw, ok := snap.CurrentGameweek(); ok {
		start = gw.ID
	}

	upcoming := make([]fixture.Fixture, 0, n)
	for _, f := range all {
		if f.Gameweek == nil || *f.Gameweek < start || f.Finished {
			continue
		}
		if f.HomeTeamID != teamID && f.AwayTeamID != teamID {
			continue
		}
		upcoming = append(upcoming, f)
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		if *upcoming[i].Gameweek != *upcoming[j].Gameweek {
			return *upcoming[i].Gameweek < *upcoming[j].Gameweek
		}
		return upcoming[i].KickoffAt.Before(upcoming[j].KickoffAt)
	})

	if len(upcoming) > n {
		upcoming = upcoming[:n]
	}
	return upcoming, nil
}

// BlankGameweeks lists teams with no fixture in a gameweek, over the next
// n gameweeks starting at the current one.
func (s *FixtureAnalyzerService) BlankGameweeks(ctx context.Context, n int) ([]GameweekAnomaly, error) {
	ctx, span := startUsecaseSpan(ctx, "fixtures.BlankGameweeks")
	defer span.End()

	return s.gameweekAnomalies(ctx, n, func(count int) bool { return count == 0 })
}

// DoubleGameweeks lists teams with more than one fixture in a gameweek,
// over the next n gameweeks starting at the current one.
func (s *FixtureAnalyzerService) DoubleGameweeks(ctx context.Context, n int) ([]GameweekAnomaly, error) {
	ctx, span := startUsecaseSpan(ctx, "fixtures.DoubleGameweeks")
	defer span.End()

	return s.gameweekAnomalies(ctx, n, func(count int) bool { return count > 1 })
}

func (s *FixtureAnalyzerService) gameweekAnomalies(ctx context.Context, n int, match func(count int) bool) ([]GameweekAnomaly, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: gameweek window must be positive", ErrInvalidInput)
	}

	snap, err := s.data.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.data.Fixtures(ctx)
	if err != nil {
		return nil, err
	}

	// A finished season has neither a current nor a next gameweek, and
	// nothing left to flag.
	active, ok := snap.ActiveGameweek()
	if !ok {
		return nil, nil
	}
	start := active.ID

	// The window is capped to gameweeks the league actually schedules;
	// near the season's end it may hold fewer than n rounds.
	window := make([]int, 0, n)
	for _, gw := range snap.Gameweeks {
		if gw.ID >= start && gw.ID < start+n {
			window = append(window, gw.ID)
		}
	}
	sort.Ints(window)

	// counts[gameweek][teamID] over the window; teams absent from a
	// gameweek's map played zero fixtures in it.
	counts := make(map[int]map[int]int, len(window))
	for _, gw := range window {
		counts[gw] = make(map[int]int, len(snap.Teams))
	}
	for _, f := range all {
		if f.Gameweek == nil {
			continue
		}
		perTeam, ok := counts[*f.Gameweek]
		if !ok {
			continue
		}
		perTeam[f.HomeTeamID]++
		perTeam[f.AwayTeamID]++
	}

	var anomalies []GameweekAnomaly
	for _, gw := range window {
		for _, t := range snap.Teams {
			count := counts[gw][t.ID]
			if !match(count) {
				continue
			}
			anomalies = append(anomalies, GameweekAnomaly{
				Gameweek:     gw,
				TeamID:       t.ID,
				TeamName:     t.Name,
				FixtureCount: count,
			})
		}
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		if anomalies[i].Gameweek != anomalies[j].Gameweek {
			return anomalies[i].Gameweek < anomalies[j].Gameweek
		}
		return anomalies[i].TeamName < anomalies[j].TeamName
	})
	return anomalies, nil
}

// easeScore maps average difficulty (1 easiest, 5 hardest) onto a 1-10
// scale where higher means easier, then applies the caller's adjustment
// and clamps.
func easeScore(avgDifficulty, adjustment float64) float64 {
	score := (6-avgDifficulty)*2 + adjustment
	if score > maxEaseScore {
		return maxEaseScore
	}
	if score < minEaseScore {
		return minEaseScore
	}
	return score
}

func assessEase(score float64) string {
	switch {
	case score >= 8.5:
		return AssessmentExcellent
	case score >= 7:
		return AssessmentGood
	case score >= 5.5:
		return AssessmentAverage
	case score >= 4:
		return AssessmentDifficult
	default:
		return AssessmentVeryDifficult
	}
}
