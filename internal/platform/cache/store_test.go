package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errLoaderFailed = errors.New("loader failed")

func TestStore_GetOrFetch_SingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrFetch(context.Background(), "same-key", time.Minute, loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errors.New("unexpected value")
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrFetch_UsesCachedValueWithinTTL(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrFetch(context.Background(), "k", time.Minute, loader); err != nil {
		t.Fatalf("first GetOrFetch error: %v", err)
	}
	if _, err := store.GetOrFetch(context.Background(), "k", time.Minute, loader); err != nil {
		t.Fatalf("second GetOrFetch error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrFetch_RefetchesAfterExpiry(t *testing.T) {
	t.Parallel()

	store := NewStore()
	now := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	var calls atomic.Int32
	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return calls.Load(), nil
	}

	if _, err := store.GetOrFetch(context.Background(), "k", time.Minute, loader); err != nil {
		t.Fatalf("GetOrFetch error: %v", err)
	}

	now = now.Add(2 * time.Minute)

	v, err := store.GetOrFetch(context.Background(), "k", time.Minute, loader)
	if err != nil {
		t.Fatalf("GetOrFetch error: %v", err)
	}
	if got, _ := v.(int32); got != 2 {
		t.Fatalf("expected refreshed value, got %v", v)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
}

func TestStore_GetOrFetch_DoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var calls atomic.Int32

	failing := func(context.Context) (any, error) {
		calls.Add(1)
		return nil, errLoaderFailed
	}

	if _, err := store.GetOrFetch(context.Background(), "k", time.Minute, failing); !errors.Is(err, errLoaderFailed) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("failure must not be cached")
	}

	// The key stays absent so the next call retries.
	if _, err := store.GetOrFetch(context.Background(), "k", time.Minute, failing); !errors.Is(err, errLoaderFailed) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
}

func TestStore_GetOrFetch_ErrorReachesAllWaiters(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return nil, errLoaderFailed
	}

	const workers = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := store.GetOrFetch(context.Background(), "k", time.Minute, loader)
			results <- err
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	for err := range results {
		if !errors.Is(err, errLoaderFailed) {
			t.Fatalf("waiter got %v, want loader error", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_DifferentKeysDoNotBlockEachOther(t *testing.T) {
	t.Parallel()

	store := NewStore()
	release := make(chan struct{})

	slow := func(context.Context) (any, error) {
		<-release
		return "slow", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.GetOrFetch(context.Background(), "slow-key", time.Minute, slow)
	}()

	fast := func(context.Context) (any, error) { return "fast", nil }
	fastDone := make(chan struct{})
	go func() {
		defer close(fastDone)
		if _, err := store.GetOrFetch(context.Background(), "fast-key", time.Minute, fast); err != nil {
			t.Errorf("fast key error: %v", err)
		}
	}()

	select {
	case <-fastDone:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch for a different key blocked behind an in-flight fetch")
	}

	close(release)
	<-done
}

func TestStore_GetOrFetch_LoaderSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	store := NewStore()

	loader := func(ctx context.Context) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(30 * time.Millisecond):
			return "completed", nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The abandoned caller's cancellation must not poison the fetch.
	v, err := store.GetOrFetch(ctx, "k", time.Minute, loader)
	if err != nil {
		t.Fatalf("GetOrFetch error: %v", err)
	}
	if got, _ := v.(string); got != "completed" {
		t.Fatalf("unexpected value: %v", v)
	}
}

func TestStore_StaleFallbackServesExpiredEntryOnFailure(t *testing.T) {
	t.Parallel()

	store := NewStore(WithStaleFallback())
	now := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	loader := func(context.Context) (any, error) { return "v1", nil }
	if _, err := store.GetOrFetch(context.Background(), "k", time.Minute, loader); err != nil {
		t.Fatalf("GetOrFetch error: %v", err)
	}

	now = now.Add(2 * time.Minute)

	failing := func(context.Context) (any, error) { return nil, errLoaderFailed }
	v, stale, err := store.GetOrFetchStale(context.Background(), "k", time.Minute, failing)
	if err != nil {
		t.Fatalf("stale fallback should swallow the refresh error, got %v", err)
	}
	if !stale {
		t.Fatal("expected stale=true for expired fallback value")
	}
	if got, _ := v.(string); got != "v1" {
		t.Fatalf("unexpected stale value: %v", v)
	}
}

func TestStore_NoStaleFallbackByDefault(t *testing.T) {
	t.Parallel()

	store := NewStore()
	now := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	loader := func(context.Context) (any, error) { return "v1", nil }
	if _, err := store.GetOrFetch(context.Background(), "k", time.Minute, loader); err != nil {
		t.Fatalf("GetOrFetch error: %v", err)
	}

	now = now.Add(2 * time.Minute)

	failing := func(context.Context) (any, error) { return nil, errLoaderFailed }
	if _, err := store.GetOrFetch(context.Background(), "k", time.Minute, failing); !errors.Is(err, errLoaderFailed) {
		t.Fatalf("expected refresh error without stale fallback, got %v", err)
	}
}
