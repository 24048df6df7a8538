package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fplstack/insights/internal/platform/resilience"
)

// entry is immutable once stored: refreshes replace it wholesale so a
// concurrent reader sees either the old value or the new one, never a mix.
type entry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.After(now)
}

// Store is a keyed TTL cache with single-flight fetch coalescing: for a
// given key at most one loader runs at a time, and every concurrent caller
// receives that loader's result or error. Failures are never cached.
// Expiry is lazy; there is no background sweeper.
type Store struct {
	mu            sync.RWMutex
	entries       map[string]entry
	staleFallback bool
	flight        resilience.SingleFlight
	now           func() time.Time
}

type Option func(*Store)

// WithStaleFallback makes a failed refresh of an expired key return the
// expired value instead of the error. Callers that need to tell fresh
// from stale data should use GetOrFetchStale.
func WithStaleFallback() Option {
	return func(s *Store) { s.staleFallback = true }
}

// WithNow overrides the clock, for tests that control expiry.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached value when present and unexpired.
func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	now := s.now()
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || e.expired(now) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key with the given TTL, replacing any previous
// entry wholesale.
func (s *Store) Set(_ context.Context, key string, value any, ttl time.Duration) {
	if key == "" || ttl <= 0 {
		return
	}

	now := s.now()
	s.mu.Lock()
	s.entries[key] = entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GetOrFetch resolves key through the cache, running loader at most once
// per key under concurrent callers. See GetOrFetchStale for the stale
// fallback variant.
func (s *Store) GetOrFetch(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) (any, error)) (any, error) {
	value, _, err := s.GetOrFetchStale(ctx, key, ttl, loader)
	return value, err
}

// GetOrFetchStale behaves like GetOrFetch and additionally reports whether
// the returned value came from an expired entry. stale can only be true
// when the store was built WithStaleFallback and the refresh failed; the
// error is swallowed in that case, by explicit contract with the caller.
//
// The loader runs detached from the caller's cancellation: a caller
// abandoning the query does not fail the fetch for other waiters on the
// same key.
func (s *Store) GetOrFetchStale(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) (any, error)) (any, bool, error) {
	if loader == nil {
		return nil, false, fmt.Errorf("loader is required")
	}
	if key == "" {
		value, err := loader(ctx)
		return value, false, err
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, false, nil
	}

	detached := context.WithoutCancel(ctx)
	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(detached, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(detached)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(detached, key, loaded, ttl)
		return loaded, nil
	})
	if err != nil {
		if s.staleFallback {
			if staleValue, ok := s.staleEntry(key); ok {
				return staleValue, true, nil
			}
		}
		return nil, false, err
	}

	return value, false, nil
}

// staleEntry returns an expired entry still held for fallback use.
func (s *Store) staleEntry(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.value, true
}
