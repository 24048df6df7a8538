package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fplstack/insights/internal/domain/player"
)

const defaultSearchLimit = 5

// Match score bands, strongest first. The points bonus below breaks
// ties inside a band without ever jumping across bands.
const (
	scoreExactFullName  = 100
	scoreExactWebName   = 90
	scoreInitials       = 85
	scoreExactLastName  = 80
	scoreAllPartsPrefix = 75
	scoreExactFirstName = 70
	scorePartsInOrder   = 50
	scoreSubstring      = 40
	scorePartOfFullName = 30
	scorePartOfWebName  = 25

	maxPointsBonus = 20
)

// PlayerMatch is one search hit with the score that ranked it.
type PlayerMatch struct {
	Player player.Player `json:"player"`
	Score  int           `json:"score"`
}

// FindPlayersByName resolves a free-text name to players, tolerant of
// partial names, nicknames, and initials. Results are ordered best match
// first; limit <= 0 applies the default.
func (s *DatasetService) FindPlayersByName(ctx context.Context, name string, limit int) ([]PlayerMatch, error) {
	ctx, span := startUsecaseSpan(ctx, "dataset.FindPlayersByName")
	defer span.End()

	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil, fmt.Errorf("%w: search name is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]PlayerMatch, 0, limit)
	for _, p := range snap.Players {
		score := scoreNameMatch(p, query)
		if score <= 0 {
			continue
		}
		matches = append(matches, PlayerMatch{Player: p, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Player.Name < matches[j].Player.Name
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func scoreNameMatch(p player.Player, query string) int {
	fullName := strings.ToLower(p.Name)
	webName := strings.ToLower(p.WebName)
	nameParts := strings.Fields(fullName)
	queryParts := strings.Fields(query)

	base := 0
	switch {
	case query == fullName:
		base = scoreExactFullName
	case query == webName:
		base = scoreExactWebName
	case matchesInitials(nameParts, query):
		base = scoreInitials
	case len(nameParts) > 0 && query == nameParts[len(nameParts)-1]:
		base = scoreExactLastName
	case len(queryParts) > 1 && allPartsArePrefixes(nameParts, queryParts):
		base = scoreAllPartsPrefix
	case len(nameParts) > 0 && query == nameParts[0]:
		base = scoreExactFirstName
	case len(queryParts) > 1 && partsAppearInOrder(fullName, queryParts):
		base = scorePartsInOrder
	case strings.Contains(fullName, query) || strings.Contains(webName, query):
		base = scoreSubstring
	case anyPartMatches(nameParts, queryParts):
		base = scorePartOfFullName
	case anyPartMatches(strings.Fields(webName), queryParts):
		base = scorePartOfWebName
	}
	if base == 0 {
		return 0
	}

	bonus := p.Points / 25
	if bonus > maxPointsBonus {
		bonus = maxPointsBonus
	}
	return base + bonus
}

// matchesInitials matches "bs" against "Bukayo Saka". Single-letter
// queries are excluded; one initial is not a search.
func matchesInitials(nameParts []string, query string) bool {
	if len(query) < 2 || len(query) != len(nameParts) {
		return false
	}
	for i, part := range nameParts {
		if part == "" || query[i] != part[0] {
			return false
		}
	}
	return true
}

func allPartsArePrefixes(nameParts, queryParts []string) bool {
	if len(queryParts) > len(nameParts) {
		return false
	}
	for i, qp := range queryParts {
		if !strings.HasPrefix(nameParts[i], qp) {
			return false
		}
	}
	return true
}

func partsAppearInOrder(fullName string, queryParts []string) bool {
	rest := fullName
	for _, qp := range queryParts {
		idx := strings.Index(rest, qp)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(qp):]
	}
	return true
}

func anyPartMatches(nameParts, queryParts []string) bool {
	for _, qp := range queryParts {
		for _, np := range nameParts {
			if strings.Contains(np, qp) {
				return true
			}
		}
	}
	return false
}
