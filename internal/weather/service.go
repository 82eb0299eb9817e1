package weather

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/i474232898/weather-report/internal/logger"
)

// Service composes validation, the report cache and the upstream provider.
type Service struct {
	cache    Cache
	provider Provider
	log      logger.Logger

	// coalesce collapses concurrent misses for one key into a single fetch.
	coalesce bool
	group    singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// WithCoalescing makes concurrent cache misses for the same key share one
// provider call. Off by default: every miss fetches and the last write wins.
func WithCoalescing(enabled bool) Option {
	return func(s *Service) {
		s.coalesce = enabled
	}
}

// NewService creates a new Service.
func NewService(cache Cache, provider Provider, opts ...Option) *Service {
	s := &Service{
		cache:    cache,
		provider: provider,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "report_service")
	return s
}

// GetReport returns the current weather metrics for a location, served from
// the cache when a fresh entry exists. Errors are *ReportError values.
func (s *Service) GetReport(ctx context.Context, city, state, country, units string) (Report, error) {
	key, err := Normalize(city, state, country, units)
	if err != nil {
		return nil, err
	}

	log := logger.ForContext(ctx, s.log)
	if report, ok := s.cache.Get(ctx, key); ok {
		log.Debugf("cache hit for %s", key)
		return report, nil
	}
	log.Debugf("cache miss for %s", key)

	if !s.coalesce {
		return s.fetchAndCache(ctx, key)
	}

	ch := s.group.DoChan(key.String(), func() (interface{}, error) {
		// The shared fetch must outlive any single waiter.
		return s.fetchAndCache(context.WithoutCancel(ctx), key)
	})
	select {
	case <-ctx.Done():
		return nil, unavailable(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Report), nil
	}
}

// FetchAndStore always asks the provider and overwrites the cache entry for
// loc, regardless of whether a fresh entry exists.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) error {
	key, err := Normalize(loc.City, loc.State, loc.Country, loc.Units)
	if err != nil {
		return err
	}
	_, err = s.fetchAndCache(ctx, key)
	return err
}

func (s *Service) fetchAndCache(ctx context.Context, key LocationKey) (Report, error) {
	log := logger.ForContext(ctx, s.log)
	resp, err := s.provider.Fetch(ctx, key.Query(), key.Units)
	if err != nil {
		log.Warnf("provider %s fetch failed for %s: %v", s.provider.Name(), key, err)
		return nil, unavailable(err)
	}

	if !resp.Success() {
		log.Infof("provider %s answered %d for %s", s.provider.Name(), resp.StatusCode, key)
		return nil, errProvider(resp.StatusCode, resp.Body)
	}

	report, rerr := extractMain(resp.Body)
	if rerr != nil {
		log.Errorf("provider %s returned unusable body for %s: %s", s.provider.Name(), key, rerr.Message)
		return nil, rerr
	}

	s.cache.Set(ctx, key, report)
	return report, nil
}

func extractMain(body []byte) (Report, *ReportError) {
	var payload struct {
		Main json.RawMessage `json:"main"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errMalformed("body is not a JSON object")
	}
	if len(payload.Main) == 0 || string(payload.Main) == "null" {
		return nil, errMalformed(`missing "main" field`)
	}

	var report Report
	if err := json.Unmarshal(payload.Main, &report); err != nil {
		return nil, errMalformed(`"main" is not an object`)
	}
	return report, nil
}

// unavailable maps a transport-level failure to a ReportError. Timeouts
// become 504, everything else 503.
func unavailable(err error) *ReportError {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return errUnavailable(http.StatusGatewayTimeout, err)
	}
	return errUnavailable(http.StatusServiceUnavailable, err)
}
