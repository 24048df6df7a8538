package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fplstack/insights/external/fplapi"
	"github.com/fplstack/insights/internal/domain/fixture"
	"github.com/fplstack/insights/internal/domain/gameweek"
	"github.com/fplstack/insights/internal/domain/snapshot"
	"github.com/fplstack/insights/internal/domain/team"
	"github.com/fplstack/insights/internal/platform/cache"
	"github.com/fplstack/insights/internal/platform/logging"
)

const (
	cacheKeyBootstrap = "bootstrap-static"
	cacheKeyFixtures  = "fixtures"

	defaultTTL             = time.Hour
	defaultPrefetchWorkers = 4
)

// SportsDataClient is the upstream fetch surface the dataset layer
// depends on; external/fplapi.Client satisfies it.
type SportsDataClient interface {
	GetBootstrapStatic(ctx context.Context) (*fplapi.BootstrapStatic, []fplapi.Warning, error)
	GetFixtures(ctx context.Context) ([]fplapi.RawFixture, []fplapi.Warning, error)
	GetPlayerSummary(ctx context.Context, playerID int) (*fplapi.PlayerSummary, error)
}

type DatasetTTL struct {
	Static   time.Duration
	Fixtures time.Duration
	Summary  time.Duration
}

func (t DatasetTTL) normalized() DatasetTTL {
	if t.Static <= 0 {
		t.Static = defaultTTL
	}
	if t.Fixtures <= 0 {
		t.Fixtures = defaultTTL
	}
	if t.Summary <= 0 {
		t.Summary = defaultTTL
	}
	return t
}

// DatasetService resolves normalized datasets through the shared cache.
// Analytics components never talk to the upstream directly: every miss
// funnels through the store's single-flight fetch, which in turn respects
// the process-wide rate limiter inside the client.
type DatasetService struct {
	client          SportsDataClient
	store           *cache.Store
	logger          *logging.Logger
	ttl             DatasetTTL
	prefetchWorkers int
	now             func() time.Time
}

func NewDatasetService(client SportsDataClient, store *cache.Store, logger *logging.Logger, ttl DatasetTTL) *DatasetService {
	if logger == nil {
		logger = logging.Default()
	}
	return &DatasetService{
		client:          client,
		store:           store,
		logger:          logger,
		ttl:             ttl.normalized(),
		prefetchWorkers: defaultPrefetchWorkers,
		now:             time.Now,
	}
}

// Snapshot returns the normalized entity graph for the current bootstrap
// document, fetching and normalizing at most once per TTL window.
func (s *DatasetService) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "dataset.Snapshot")
	defer span.End()

	value, err := s.store.GetOrFetch(ctx, cacheKeyBootstrap, s.ttl.Static, func(ctx context.Context) (any, error) {
		doc, warnings, err := s.client.GetBootstrapStatic(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch bootstrap static: %w", err)
		}

		snap := normalizeSnapshot(doc, s.now())
		if dropped := snap.Drops.Total(); dropped > 0 || len(warnings) > 0 {
			s.logger.WarnContext(ctx, "bootstrap snapshot normalized with issues",
				"dropped_records", dropped,
				"players_missing_team", snap.Drops.PlayersMissingTeam,
				"unknown_positions", snap.Drops.UnknownPositionCodes,
				"shape_warnings", len(warnings),
			)
		} else {
			s.logger.DebugContext(ctx, "bootstrap snapshot normalized",
				"players", len(snap.Players),
				"teams", len(snap.Teams),
				"gameweeks", len(snap.Gameweeks),
			)
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}

	snap, ok := value.(*snapshot.Snapshot)
	if !ok {
		return nil, fmt.Errorf("unexpected cached snapshot type %T", value)
	}
	return snap, nil
}

// Fixtures returns the normalized fixtures list, cross-referenced against
// the current snapshot's teams.
func (s *DatasetService) Fixtures(ctx context.Context) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "dataset.Fixtures")
	defer span.End()

	value, err := s.store.GetOrFetch(ctx, cacheKeyFixtures, s.ttl.Fixtures, func(ctx context.Context) (any, error) {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve snapshot for fixtures: %w", err)
		}

		rows, _, err := s.client.GetFixtures(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch fixtures: %w", err)
		}

		fixtures, drops := normalizeFixtures(rows, snap)
		if dropped := drops.FixturesMissingTeam + drops.FixturesSameTeam; dropped > 0 {
			s.logger.WarnContext(ctx, "fixtures normalized with drops",
				"dropped", dropped,
				"missing_team_refs", drops.FixturesMissingTeam,
				"same_team_rows", drops.FixturesSameTeam,
			)
		}
		return fixtures, nil
	})
	if err != nil {
		return nil, err
	}

	fixtures, ok := value.([]fixture.Fixture)
	if !ok {
		return nil, fmt.Errorf("unexpected cached fixtures type %T", value)
	}
	return fixtures, nil
}

// Teams lists the snapshot's teams.
func (s *DatasetService) Teams(ctx context.Context) ([]team.Team, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Teams, nil
}

// CurrentGameweek resolves the current (or, at season edges, next) round.
func (s *DatasetService) CurrentGameweek(ctx context.Context) (gameweek.Gameweek, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return gameweek.Gameweek{}, err
	}
	gw, ok := snap.CurrentGameweek()
	if !ok {
		return gameweek.Gameweek{}, fmt.Errorf("%w: no gameweeks in snapshot", ErrNotFound)
	}
	return gw, nil
}

// PlayerSummary resolves a per-player detail document through the cache.
func (s *DatasetService) PlayerSummary(ctx context.Context, playerID int) (*fplapi.PlayerSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "dataset.PlayerSummary")
	defer span.End()

	if playerID <= 0 {
		return nil, fmt.Errorf("%w: player id must be positive", ErrInvalidInput)
	}

	key := fmt.Sprintf("element-summary/%d", playerID)
	value, err := s.store.GetOrFetch(ctx, key, s.ttl.Summary, func(ctx context.Context) (any, error) {
		doc, err := s.client.GetPlayerSummary(ctx, playerID)
		if err != nil {
			return nil, fmt.Errorf("fetch player summary player_id=%d: %w", playerID, err)
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	doc, ok := value.(*fplapi.PlayerSummary)
	if !ok {
		return nil, fmt.Errorf("unexpected cached summary type %T", value)
	}
	return doc, nil
}

// HistoryRound is one gameweek of a player's season history.
type HistoryRound struct {
	Gameweek    int  `json:"gameweek"`
	Points      int  `json:"points"`
	Minutes     int  `json:"minutes"`
	Goals       int  `json:"goals"`
	Assists     int  `json:"assists"`
	CleanSheets int  `json:"cleanSheets"`
	Bonus       int  `json:"bonus"`
	WasHome     bool `json:"wasHome"`
}

// PlayerGameweekHistory returns the last n rounds of a player's history,
// most recent last. n <= 0 returns the whole season.
func (s *DatasetService) PlayerGameweekHistory(ctx context.Context, playerID, n int) ([]HistoryRound, error) {
	doc, err := s.PlayerSummary(ctx, playerID)
	if err != nil {
		return nil, err
	}

	rounds := make([]HistoryRound, 0, len(doc.History))
	for _, raw := range doc.History {
		rounds = append(rounds, HistoryRound{
			Gameweek:    raw.Round,
			Points:      raw.TotalPoints,
			Minutes:     raw.Minutes,
			Goals:       raw.GoalsScored,
			Assists:     raw.Assists,
			CleanSheets: raw.CleanSheets,
			Bonus:       raw.Bonus,
			WasHome:     raw.WasHome,
		})
	}
	if n > 0 && len(rounds) > n {
		rounds = rounds[len(rounds)-n:]
	}
	return rounds, nil
}

// PrefetchPlayerSummaries warms the summary cache for a set of players
// using a bounded worker pool. Failures are logged and skipped; warming
// is best-effort and never fails a query.
func (s *DatasetService) PrefetchPlayerSummaries(ctx context.Context, playerIDs []int) {
	if len(playerIDs) == 0 {
		return
	}

	pool, err := ants.NewPool(s.prefetchWorkers)
	if err != nil {
		s.logger.WarnContext(ctx, "create prefetch pool failed", "error", err)
		return
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, playerID := range playerIDs {
		id := playerID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if _, err := s.PlayerSummary(ctx, id); err != nil {
				s.logger.DebugContext(ctx, "prefetch player summary failed", "player_id", id, "error", err)
			}
		}); err != nil {
			workers.Done()
			s.logger.WarnContext(ctx, "submit prefetch task failed", "player_id", id, "error", err)
		}
	}
	workers.Wait()
}
