package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-report/internal/api/http"
	"github.com/i474232898/weather-report/internal/common"
	"github.com/i474232898/weather-report/internal/config"
	"github.com/i474232898/weather-report/internal/logger"
	"github.com/i474232898/weather-report/internal/scheduler"
	"github.com/i474232898/weather-report/internal/store"
	"github.com/i474232898/weather-report/internal/weather"
	"github.com/i474232898/weather-report/internal/weather/providers"
)

const serviceName = "weather-report"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "").Errorf("failed to load config: %v", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Env).WithField("service", serviceName)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey,
		providers.WithBaseURL(cfg.OpenWeatherBaseURL),
		providers.WithRateLimit(cfg.ProviderRatePerMinute),
	)

	// Report cache: in-process by default, Redis when shared across instances.
	var (
		cache   weather.Cache
		sweeper scheduler.Sweeper
		health  httpapi.CacheHealth
	)
	switch cfg.CacheBackend {
	case "redis":
		client, err := store.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Errorf("failed to initialise redis cache: %v", err)
			os.Exit(1)
		}
		redisStore := store.NewRedisStore(client, cfg.CacheLifetime, log)
		defer redisStore.Close()
		cache = redisStore
		health.Ping = redisStore.Ping
	default:
		memStore := store.NewMemoryStore(cfg.CacheLifetime)
		cache = memStore
		sweeper = memStore
		health.Size = memStore.Len
	}
	log.Infof("using %s cache with lifetime %s", cfg.CacheBackend, cfg.CacheLifetime)

	service := weather.NewService(cache, provider,
		weather.WithLogger(log),
		weather.WithCoalescing(cfg.CacheCoalesce),
	)

	// Background cache maintenance.
	sched := scheduler.New(scheduler.Config{
		Sweeper:       sweeper,
		SweepInterval: cfg.CacheSweepInterval,
		Warmer:        service,
		Locations:     cfg.WarmLocations,
		WarmInterval:  cfg.WarmInterval,
		WarmTimeout:   cfg.HTTPTimeout,
	}, log)
	if err := sched.Start(); err != nil {
		log.Errorf("failed to start scheduler: %v", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(common.RequestID())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${respHeader:X-Request-ID} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())

	httpapi.RegisterHealth(app, serviceName, health)
	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Infof("listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Warnf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
}
