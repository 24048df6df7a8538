package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fplstack/insights/internal/domain/player"
	"github.com/fplstack/insights/internal/platform/logging"
)

const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"

	defaultSortKey = "points"
)

// PlayerQuery is an AND-combination of filter criteria. Nil numeric
// bounds are unset; a query with no criteria matches every player.
type PlayerQuery struct {
	Position      string
	Team          string
	MinPrice      *float64
	MaxPrice      *float64
	MinPoints     *int
	MinOwnership  *float64
	MaxOwnership  *float64
	MinForm       *float64
	OnlyAvailable bool

	SortBy    string
	SortOrder string
	Limit     int
}

// FilterSummary is computed over the full filtered set, before the limit
// truncates the player list.
type FilterSummary struct {
	TotalMatches  int            `json:"totalMatches"`
	AveragePoints float64        `json:"averagePoints"`
	AveragePrice  float64        `json:"averagePrice"`
	ByPosition    map[string]int `json:"byPosition"`
	ByTeam        map[string]int `json:"byTeam"`
	Notes         []string       `json:"notes,omitempty"`
}

type FilterResult struct {
	Players []player.Player `json:"players"`
	Summary FilterSummary   `json:"summary"`
}

// AnalyticsService filters, sorts, and summarizes the player set from
// the current snapshot.
type AnalyticsService struct {
	data   *DatasetService
	logger *logging.Logger
}

func NewAnalyticsService(data *DatasetService, logger *logging.Logger) *AnalyticsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AnalyticsService{data: data, logger: logger}
}

// FilterPlayers applies the query's criteria, sorts the matches, computes
// summary statistics over the whole filtered set, then truncates to the
// query limit. A player whose rating is unknown is skipped only by the
// checks on that rating, not excluded outright.
func (s *AnalyticsService) FilterPlayers(ctx context.Context, query PlayerQuery) (FilterResult, error) {
	ctx, span := startUsecaseSpan(ctx, "analytics.FilterPlayers")
	defer span.End()

	less, err := sortComparator(query.SortBy, query.SortOrder)
	if err != nil {
		return FilterResult{}, err
	}

	snap, err := s.data.Snapshot(ctx)
	if err != nil {
		return FilterResult{}, err
	}

	var notes []string
	position := ""
	if query.Position != "" {
		normalized, ok := player.NormalizePosition(query.Position)
		if !ok {
			notes = append(notes, fmt.Sprintf("unrecognized position %q ignored", query.Position))
		} else {
			position = normalized
		}
	}
	teamNeedle := strings.ToLower(strings.TrimSpace(query.Team))

	matched := make([]player.Player, 0, len(snap.Players))
	for _, p := range snap.Players {
		if position != "" && string(p.Position) != position {
			continue
		}
		if teamNeedle != "" && !matchesTeam(p, teamNeedle) {
			continue
		}
		if query.MinPrice != nil && p.Price() < *query.MinPrice {
			continue
		}
		if query.MaxPrice != nil && p.Price() > *query.MaxPrice {
			continue
		}
		if query.MinPoints != nil && p.Points < *query.MinPoints {
			continue
		}
		if !ratingWithin(p.Ownership, query.MinOwnership, query.MaxOwnership) {
			continue
		}
		if !ratingWithin(p.Form, query.MinForm, nil) {
			continue
		}
		if query.OnlyAvailable && p.Status != player.StatusAvailable {
			continue
		}
		matched = append(matched, p)
	}

	sort.SliceStable(matched, less(matched))

	summary := summarize(matched)
	summary.Notes = notes

	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	return FilterResult{Players: matched, Summary: summary}, nil
}

// ratingWithin checks optional bounds against a rating. Unknown ratings
// pass: an unparseable upstream value must not silently exclude a player
// from unrelated queries, only bounds on that value are unanswerable.
func ratingWithin(r player.Rating, min, max *float64) bool {
	if min == nil && max == nil {
		return true
	}
	v, known := r.Get()
	if !known {
		return true
	}
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}

func matchesTeam(p player.Player, needle string) bool {
	return strings.Contains(strings.ToLower(p.TeamName), needle) ||
		strings.Contains(strings.ToLower(p.TeamShort), needle)
}

func summarize(players []player.Player) FilterSummary {
	summary := FilterSummary{
		TotalMatches: len(players),
		ByPosition:   make(map[string]int),
		ByTeam:       make(map[string]int),
	}
	if len(players) == 0 {
		return summary
	}

	totalPoints, totalPrice := 0, 0.0
	for _, p := range players {
		totalPoints += p.Points
		totalPrice += p.Price()
		summary.ByPosition[string(p.Position)]++
		summary.ByTeam[p.TeamName]++
	}
	summary.AveragePoints = float64(totalPoints) / float64(len(players))
	summary.AveragePrice = totalPrice / float64(len(players))
	return summary
}

// sortComparator resolves a sort key and order into a comparator factory.
// Numeric keys compare numerically with unknown ratings ordered last;
// text keys compare lexicographically.
func sortComparator(key, order string) (func([]player.Player) func(i, j int) bool, error) {
	if key == "" {
		key = defaultSortKey
	}
	if order == "" {
		order = SortOrderDesc
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return nil, fmt.Errorf("%w: sort order %q", ErrInvalidInput, order)
	}
	desc := order == SortOrderDesc

	if numeric, ok := numericSortKeys[key]; ok {
		return func(players []player.Player) func(i, j int) bool {
			return func(i, j int) bool {
				vi, oki := numeric(players[i])
				vj, okj := numeric(players[j])
				if oki != okj {
					return oki // unknown values always sort last
				}
				if !oki {
					return false
				}
				if desc {
					return vi > vj
				}
				return vi < vj
			}
		}, nil
	}

	text, ok := textSortKeys[key]
	if !ok {
		return nil, fmt.Errorf("%w: sort key %q", ErrInvalidInput, key)
	}
	return func(players []player.Player) func(i, j int) bool {
		return func(i, j int) bool {
			si, sj := text(players[i]), text(players[j])
			if desc {
				return si > sj
			}
			return si < sj
		}
	}, nil
}

var numericSortKeys = map[string]func(player.Player) (float64, bool){
	"points":          func(p player.Player) (float64, bool) { return float64(p.Points), true },
	"total_points":    func(p player.Player) (float64, bool) { return float64(p.Points), true },
	"price":           func(p player.Player) (float64, bool) { return p.Price(), true },
	"form":            func(p player.Player) (float64, bool) { return p.Form.Get() },
	"ownership":       func(p player.Player) (float64, bool) { return p.Ownership.Get() },
	"points_per_game": func(p player.Player) (float64, bool) { return p.PointsPerGame.Get() },
	"minutes":         func(p player.Player) (float64, bool) { return float64(p.Minutes), true },
	"goals":           func(p player.Player) (float64, bool) { return float64(p.Goals), true },
	"assists":         func(p player.Player) (float64, bool) { return float64(p.Assists), true },
	"clean_sheets":    func(p player.Player) (float64, bool) { return float64(p.CleanSheets), true },
	"bonus":           func(p player.Player) (float64, bool) { return float64(p.Bonus), true },
}

var textSortKeys = map[string]func(player.Player) string{
	"name":     func(p player.Player) string { return p.Name },
	"web_name": func(p player.Player) string { return p.WebName },
	"team":     func(p player.Player) string { return p.TeamName },
	"position": func(p player.Player) string { return string(p.Position) },
	"status":   func(p player.Player) string { return string(p.Status) },
}
