package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-report/internal/logger"
	"github.com/i474232898/weather-report/internal/weather"
)

// Sweeper evicts expired cache entries and reports how many went.
type Sweeper interface {
	Sweep() int
}

// Warmer refreshes the cached report of one location.
type Warmer interface {
	FetchAndStore(ctx context.Context, loc weather.Location) error
}

// Config selects which background jobs run. A zero interval or nil
// dependency disables the corresponding job.
type Config struct {
	Sweeper       Sweeper
	SweepInterval time.Duration

	Warmer       Warmer
	Locations    []weather.Location
	WarmInterval time.Duration
	WarmTimeout  time.Duration
}

// Scheduler runs periodic cache maintenance.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       Config
	log       logger.Logger
}

// New creates a new Scheduler.
func New(cfg Config, log logger.Logger) *Scheduler {
	if cfg.WarmTimeout <= 0 {
		cfg.WarmTimeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cfg:       cfg,
		log:       log.WithField("component", "scheduler"),
	}
}

// Start registers the enabled jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	jobs := 0

	if s.cfg.Sweeper != nil && s.cfg.SweepInterval > 0 {
		if _, err := s.scheduler.Every(s.cfg.SweepInterval).WaitForSchedule().Do(s.sweep); err != nil {
			return err
		}
		jobs++
	}

	if s.cfg.Warmer != nil && s.cfg.WarmInterval > 0 && len(s.cfg.Locations) > 0 {
		if _, err := s.scheduler.Every(s.cfg.WarmInterval).Do(s.warm); err != nil {
			return err
		}
		jobs++
	}

	if jobs == 0 {
		s.log.Infof("no background jobs configured; nothing to schedule")
		return nil
	}

	s.scheduler.StartAsync()
	s.log.Infof("started %d background job(s)", jobs)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) sweep() {
	if n := s.cfg.Sweeper.Sweep(); n > 0 {
		s.log.Debugf("swept %d expired cache entries", n)
	}
}

func (s *Scheduler) warm() {
	s.log.Debugf("warming %d location(s)", len(s.cfg.Locations))

	var wg sync.WaitGroup
	for _, loc := range s.cfg.Locations {
		wg.Add(1)
		go func(loc weather.Location) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WarmTimeout)
			defer cancel()

			if err := s.cfg.Warmer.FetchAndStore(ctx, loc); err != nil {
				s.log.Warnf("warm-up failed for %s,%s: %v", loc.City, loc.Country, err)
			}
		}(loc)
	}
	wg.Wait()
}
