package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fplstack/insights/external/fplapi"
	"github.com/fplstack/insights/internal/platform/cache"
	"github.com/fplstack/insights/internal/platform/logging"
)

type fakeClient struct {
	bootstrap      *fplapi.BootstrapStatic
	fixtures       []fplapi.RawFixture
	summaries      map[int]*fplapi.PlayerSummary
	bootstrapCalls atomic.Int32
	fixtureCalls   atomic.Int32
	summaryCalls   atomic.Int32
	err            error
}

func (f *fakeClient) GetBootstrapStatic(context.Context) (*fplapi.BootstrapStatic, []fplapi.Warning, error) {
	f.bootstrapCalls.Add(1)
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.bootstrap, nil, nil
}

func (f *fakeClient) GetFixtures(context.Context) ([]fplapi.RawFixture, []fplapi.Warning, error) {
	f.fixtureCalls.Add(1)
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.fixtures, nil, nil
}

func (f *fakeClient) GetPlayerSummary(_ context.Context, playerID int) (*fplapi.PlayerSummary, error) {
	f.summaryCalls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.summaries[playerID]
	if !ok {
		return nil, errors.New("no such player")
	}
	return doc, nil
}

func newTestDataset(client *fakeClient) *DatasetService {
	return NewDatasetService(client, cache.NewStore(), logging.NewNop(), DatasetTTL{})
}

func TestDatasetService_SnapshotIsCached(t *testing.T) {
	t.Parallel()

	client := &fakeClient{bootstrap: testBootstrap()}
	svc := newTestDataset(client)

	for i := 0; i < 3; i++ {
		snap, err := svc.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if len(snap.Players) != 2 {
			t.Fatalf("players: got=%d want=2", len(snap.Players))
		}
	}
	if got := client.bootstrapCalls.Load(); got != 1 {
		t.Fatalf("upstream fetched %d times, want 1", got)
	}
}

func TestDatasetService_FixturesResolveAgainstSnapshot(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		bootstrap: testBootstrap(),
		fixtures: []fplapi.RawFixture{
			{ID: 1, Event: intPtr(2), TeamH: 1, TeamA: 2, TeamHDifficulty: 2, TeamADifficulty: 4},
			{ID: 2, Event: intPtr(2), TeamH: 1, TeamA: 50},
		},
	}
	svc := newTestDataset(client)

	fixtures, err := svc.Fixtures(context.Background())
	if err != nil {
		t.Fatalf("Fixtures: %v", err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("fixtures: got=%d want=1", len(fixtures))
	}
	if client.bootstrapCalls.Load() != 1 || client.fixtureCalls.Load() != 1 {
		t.Fatalf("calls: bootstrap=%d fixtures=%d", client.bootstrapCalls.Load(), client.fixtureCalls.Load())
	}
}

func TestDatasetService_UpstreamErrorPropagatesAndIsNotCached(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: errors.New("upstream down")}
	svc := newTestDataset(client)

	if _, err := svc.Snapshot(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	client.err = nil
	client.bootstrap = testBootstrap()
	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("recovery fetch: %v", err)
	}
	if got := client.bootstrapCalls.Load(); got != 2 {
		t.Fatalf("upstream fetched %d times, want 2 (failure must not be cached)", got)
	}
}

func TestDatasetService_CurrentGameweek(t *testing.T) {
	t.Parallel()

	svc := newTestDataset(&fakeClient{bootstrap: testBootstrap()})

	gw, err := svc.CurrentGameweek(context.Background())
	if err != nil {
		t.Fatalf("CurrentGameweek: %v", err)
	}
	if gw.ID != 2 || !gw.IsCurrent {
		t.Fatalf("unexpected gameweek: %+v", gw)
	}
}

func TestDatasetService_PlayerGameweekHistoryWindow(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		bootstrap: testBootstrap(),
		summaries: map[int]*fplapi.PlayerSummary{
			10: {History: []fplapi.RawHistoryRound{
				{Round: 1, TotalPoints: 2},
				{Round: 2, TotalPoints: 9},
				{Round: 3, TotalPoints: 6},
			}},
		},
	}
	svc := newTestDataset(client)

	rounds, err := svc.PlayerGameweekHistory(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("PlayerGameweekHistory: %v", err)
	}
	if len(rounds) != 2 || rounds[0].Gameweek != 2 || rounds[1].Gameweek != 3 {
		t.Fatalf("unexpected window: %+v", rounds)
	}

	if _, err := svc.PlayerGameweekHistory(context.Background(), 0, 2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDatasetService_PrefetchWarmsSummaryCache(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		bootstrap: testBootstrap(),
		summaries: map[int]*fplapi.PlayerSummary{
			10: {History: []fplapi.RawHistoryRound{{Round: 1}}},
			11: {History: []fplapi.RawHistoryRound{{Round: 1}}},
		},
	}
	svc := newTestDataset(client)

	svc.PrefetchPlayerSummaries(context.Background(), []int{10, 11})
	if got := client.summaryCalls.Load(); got != 2 {
		t.Fatalf("summary calls after prefetch: got=%d want=2", got)
	}

	// Subsequent reads hit the warmed cache.
	if _, err := svc.PlayerSummary(context.Background(), 10); err != nil {
		t.Fatalf("PlayerSummary: %v", err)
	}
	if got := client.summaryCalls.Load(); got != 2 {
		t.Fatalf("cache not warmed, summary calls=%d", got)
	}
}

func TestDatasetService_SnapshotExpiresByTTL(t *testing.T) {
	t.Parallel()

	client := &fakeClient{bootstrap: testBootstrap()}
	current := time.Now()
	store := cache.NewStore(cache.WithNow(func() time.Time { return current }))
	svc := NewDatasetService(client, store, logging.NewNop(), DatasetTTL{Static: time.Minute})

	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	current = current.Add(2 * time.Minute)
	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot after expiry: %v", err)
	}
	if got := client.bootstrapCalls.Load(); got != 2 {
		t.Fatalf("upstream fetched %d times, want 2", got)
	}
}
