package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-report/internal/weather"
)

// DefaultLifetime is how long a report stays fresh unless configured otherwise.
const DefaultLifetime = time.Hour

type entry struct {
	report    weather.Report
	createdAt time.Time
}

// MemoryStore is a concurrency-safe, time-bounded in-process report cache.
// Expired entries are dropped lazily on Get and by a full sweep on every Set.
// There is no capacity bound.
type MemoryStore struct {
	mu sync.Mutex

	data map[weather.LocationKey]entry

	// lifetime is read at comparison time, never stamped into entries.
	lifetime time.Duration
	now      func() time.Time
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a MemoryStore. A non-positive lifetime falls back to
// DefaultLifetime.
func NewMemoryStore(lifetime time.Duration, opts ...Option) *MemoryStore {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	s := &MemoryStore{
		data:     make(map[weather.LocationKey]entry),
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached report for key. An entry whose age has reached the
// lifetime is deleted and reported as a miss.
func (s *MemoryStore) Get(_ context.Context, key weather.LocationKey) (weather.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.createdAt) >= s.lifetime {
		delete(s.data, key)
		return nil, false
	}
	return e.report, true
}

// Set stores report under key with a fresh timestamp, then sweeps the whole
// map. The sweep is O(n) per write.
func (s *MemoryStore) Set(_ context.Context, key weather.LocationKey, report weather.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry{report: report, createdAt: s.now()}
	s.sweepLocked()
}

// Sweep evicts every expired entry and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *MemoryStore) sweepLocked() int {
	now := s.now()
	removed := 0
	for k, e := range s.data {
		if now.Sub(e.createdAt) > s.lifetime {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Lifetime returns the current freshness window.
func (s *MemoryStore) Lifetime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifetime
}

// SetLifetime changes the freshness window for all subsequent comparisons,
// including entries already stored.
func (s *MemoryStore) SetLifetime(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.lifetime = d
	s.mu.Unlock()
}
