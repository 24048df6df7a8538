package usecase

import (
	"context"
	"fmt"

	"github.com/fplstack/insights/internal/domain/player"
	"github.com/fplstack/insights/internal/platform/logging"
)

// DefaultComparisonMetrics is the metric set used when the caller does
// not name any.
var DefaultComparisonMetrics = []string{"total_points", "form", "goals", "assists", "bonus"}

type comparisonMetric struct {
	get func(player.Player) (float64, bool)
	// lowerBetter inverts the ranking: for price, the cheaper player
	// wins the metric.
	lowerBetter bool
}

var comparisonMetrics = map[string]comparisonMetric{
	"total_points":    {get: func(p player.Player) (float64, bool) { return float64(p.Points), true }},
	"points":          {get: func(p player.Player) (float64, bool) { return float64(p.Points), true }},
	"form":            {get: func(p player.Player) (float64, bool) { return p.Form.Get() }},
	"price":           {get: func(p player.Player) (float64, bool) { return p.Price(), true }, lowerBetter: true},
	"ownership":       {get: func(p player.Player) (float64, bool) { return p.Ownership.Get() }},
	"points_per_game": {get: func(p player.Player) (float64, bool) { return p.PointsPerGame.Get() }},
	"goals":           {get: func(p player.Player) (float64, bool) { return float64(p.Goals), true }},
	"assists":         {get: func(p player.Player) (float64, bool) { return float64(p.Assists), true }},
	"clean_sheets":    {get: func(p player.Player) (float64, bool) { return float64(p.CleanSheets), true }},
	"minutes":         {get: func(p player.Player) (float64, bool) { return float64(p.Minutes), true }},
	"bonus":           {get: func(p player.Player) (float64, bool) { return float64(p.Bonus), true }},
}

// ComparedPlayer is the identity block of one comparison participant.
type ComparedPlayer struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	WebName  string  `json:"webName"`
	Team     string  `json:"team"`
	Position string  `json:"position"`
	Price    float64 `json:"price"`
}

// MetricValue is one player's value for one metric. Known is false when
// the upstream value could not be read as a number.
type MetricValue struct {
	Value float64 `json:"value"`
	Known bool    `json:"known"`
}

// MetricComparison holds every player's value for one metric. Ranked is
// false when the metric awarded no point: a tie at the top, or any
// participant with an unknown value.
type MetricComparison struct {
	Metric       string              `json:"metric"`
	Values       map[int]MetricValue `json:"values"`
	Ranked       bool                `json:"ranked"`
	BestPlayerID int                 `json:"bestPlayerId,omitempty"`
}

type ComparisonResult struct {
	Players        []ComparedPlayer   `json:"players"`
	Metrics        []MetricComparison `json:"metrics"`
	BestPerformers map[string]int     `json:"bestPerformers"`
	Tally          map[int]int        `json:"tally"`
}

// ComparisonService compares players metric by metric and tallies wins.
type ComparisonService struct {
	data   *DatasetService
	logger *logging.Logger
}

func NewComparisonService(data *DatasetService, logger *logging.Logger) *ComparisonService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ComparisonService{data: data, logger: logger}
}

// ComparePlayers compares two or more players over the named metrics
// (the default set when metrics is empty). Each metric awards one point
// to its clear best performer; ties and metrics with any unknown value
// award none.
func (s *ComparisonService) ComparePlayers(ctx context.Context, playerIDs []int, metrics []string) (ComparisonResult, error) {
	ctx, span := startUsecaseSpan(ctx, "comparison.ComparePlayers")
	defer span.End()

	if len(playerIDs) < 2 {
		return ComparisonResult{}, fmt.Errorf("%w: comparison needs at least two players", ErrInvalidInput)
	}
	if len(metrics) == 0 {
		metrics = DefaultComparisonMetrics
	}
	for _, name := range metrics {
		if _, ok := comparisonMetrics[name]; !ok {
			return ComparisonResult{}, fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, name)
		}
	}

	snap, err := s.data.Snapshot(ctx)
	if err != nil {
		return ComparisonResult{}, err
	}

	seen := make(map[int]bool, len(playerIDs))
	participants := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		if seen[id] {
			return ComparisonResult{}, fmt.Errorf("%w: player %d listed twice", ErrInvalidInput, id)
		}
		seen[id] = true
		p, ok := snap.Player(id)
		if !ok {
			return ComparisonResult{}, fmt.Errorf("%w: player %d", ErrNotFound, id)
		}
		participants = append(participants, p)
	}

	result := ComparisonResult{
		Players:        make([]ComparedPlayer, 0, len(participants)),
		Metrics:        make([]MetricComparison, 0, len(metrics)),
		BestPerformers: make(map[string]int),
		Tally:          make(map[int]int, len(participants)),
	}
	for _, p := range participants {
		result.Players = append(result.Players, ComparedPlayer{
			ID:       p.ID,
			Name:     p.Name,
			WebName:  p.WebName,
			Team:     p.TeamName,
			Position: string(p.Position),
			Price:    p.Price(),
		})
		result.Tally[p.ID] = 0
	}

	for _, name := range metrics {
		metric := comparisonMetrics[name]
		comparison := MetricComparison{
			Metric: name,
			Values: make(map[int]MetricValue, len(participants)),
		}

		allKnown := true
		for _, p := range participants {
			v, known := metric.get(p)
			comparison.Values[p.ID] = MetricValue{Value: v, Known: known}
			if !known {
				allKnown = false
			}
		}

		if allKnown {
			if bestID, ok := clearWinner(participants, comparison.Values, metric.lowerBetter); ok {
				comparison.Ranked = true
				comparison.BestPlayerID = bestID
				result.BestPerformers[name] = bestID
				result.Tally[bestID]++
			}
		}
		result.Metrics = append(result.Metrics, comparison)
	}

	return result, nil
}

// clearWinner returns the single best participant, or ok=false on a tie
// at the top.
func clearWinner(participants []player.Player, values map[int]MetricValue, lowerBetter bool) (int, bool) {
	bestID := participants[0].ID
	best := values[bestID].Value
	tied := false

	for _, p := range participants[1:] {
		v := values[p.ID].Value
		better := v > best
		if lowerBetter {
			better = v < best
		}
		switch {
		case better:
			bestID, best, tied = p.ID, v, false
		case v == best:
			tied = true
		}
	}
	if tied {
		return 0, false
	}
	return bestID, true
}
