package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-report/internal/weather"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(lifetime time.Duration) (*MemoryStore, *manualClock) {
	clock := &manualClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewMemoryStore(lifetime, WithClock(clock.Now)), clock
}

var (
	osloKey  = weather.LocationKey{City: "oslo", Country: "no", Units: weather.UnitsMetric}
	parisKey = weather.LocationKey{City: "paris", Country: "fr", Units: weather.UnitsMetric}
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	ctx := context.Background()
	report := weather.Report{"temp": 4.2, "humidity": float64(81)}

	s.Set(ctx, osloKey, report)

	got, ok := s.Get(ctx, osloKey)
	require.True(t, ok)
	assert.Equal(t, report, got)
}

func TestMemoryStore_MissOnUnknownKey(t *testing.T) {
	s, _ := newTestStore(time.Hour)

	got, ok := s.Get(context.Background(), osloKey)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestMemoryStore_KeyIncludesUnits(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	ctx := context.Background()

	s.Set(ctx, osloKey, weather.Report{"temp": 4.2})

	imperial := osloKey
	imperial.Units = weather.UnitsImperial
	_, ok := s.Get(ctx, imperial)
	assert.False(t, ok)
}

func TestMemoryStore_OverwriteRefreshesTimestamp(t *testing.T) {
	s, clock := newTestStore(time.Hour)
	ctx := context.Background()

	s.Set(ctx, osloKey, weather.Report{"temp": 1.0})
	clock.Advance(50 * time.Minute)
	s.Set(ctx, osloKey, weather.Report{"temp": 2.0})
	clock.Advance(50 * time.Minute)

	got, ok := s.Get(ctx, osloKey)
	require.True(t, ok)
	assert.Equal(t, 2.0, got["temp"])
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_LazyExpiryOnGet(t *testing.T) {
	s, clock := newTestStore(time.Hour)
	ctx := context.Background()

	s.Set(ctx, osloKey, weather.Report{"temp": 4.2})

	clock.Advance(time.Hour - time.Second)
	_, ok := s.Get(ctx, osloKey)
	assert.True(t, ok, "entry younger than lifetime must be served")

	clock.Advance(time.Second)
	_, ok = s.Get(ctx, osloKey)
	assert.False(t, ok, "entry whose age equals lifetime must not be served")
	assert.Zero(t, s.Len(), "expired entry must be deleted on read")
}

func TestMemoryStore_SetSweepsExpiredEntries(t *testing.T) {
	s, clock := newTestStore(time.Hour)
	ctx := context.Background()

	s.Set(ctx, osloKey, weather.Report{"temp": 4.2})
	clock.Advance(61 * time.Minute)

	s.Set(ctx, parisKey, weather.Report{"temp": 11.0})

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get(ctx, parisKey)
	assert.True(t, ok)
}

func TestMemoryStore_SweepKeepsFreshEntries(t *testing.T) {
	s, clock := newTestStore(3 * time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Set(ctx, weather.LocationKey{City: fmt.Sprintf("c%d", i), Country: "us", Units: weather.UnitsMetric}, weather.Report{})
		clock.Advance(20 * time.Minute)
	}
	require.Equal(t, 5, s.Len())

	// Ages are now 100, 80, 60, 40 and 20 minutes.
	s.SetLifetime(50 * time.Minute)
	removed := s.Sweep()
	assert.Equal(t, 3, removed)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStore_SetLifetimeAppliesToExistingEntries(t *testing.T) {
	s, clock := newTestStore(time.Hour)
	ctx := context.Background()

	s.Set(ctx, osloKey, weather.Report{"temp": 4.2})
	clock.Advance(30 * time.Minute)

	s.SetLifetime(10 * time.Minute)
	assert.Equal(t, 10*time.Minute, s.Lifetime())

	_, ok := s.Get(ctx, osloKey)
	assert.False(t, ok)
}

func TestMemoryStore_SetLifetimeIgnoresNonPositive(t *testing.T) {
	s, _ := newTestStore(time.Hour)

	s.SetLifetime(0)
	s.SetLifetime(-time.Minute)
	assert.Equal(t, time.Hour, s.Lifetime())
}

func TestNewMemoryStore_DefaultsLifetime(t *testing.T) {
	assert.Equal(t, DefaultLifetime, NewMemoryStore(0).Lifetime())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := weather.LocationKey{City: fmt.Sprintf("city-%d", i%4), Country: "us", Units: weather.UnitsMetric}
			for j := 0; j < 100; j++ {
				s.Set(ctx, key, weather.Report{"n": float64(j)})
				s.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, s.Len())
}

func TestMemoryStore_SatisfiesCache(t *testing.T) {
	var _ weather.Cache = NewMemoryStore(time.Hour)
}
