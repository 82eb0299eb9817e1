package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/i474232898/weather-report/internal/weather"
)

type AppConfig struct {
	Env      string
	LogLevel string
	Port     string

	OpenWeatherAPIKey  string `validate:"required"`
	OpenWeatherBaseURL string `validate:"required,url"`

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration `validate:"gt=0"`
	// ProviderRatePerMinute caps outbound calls (0 = unlimited).
	ProviderRatePerMinute int `validate:"gte=0"`

	CacheLifetime      time.Duration `validate:"gt=0"`
	CacheBackend       string        `validate:"oneof=memory redis"`
	CacheSweepInterval time.Duration `validate:"gte=0"` // 0 disables the background sweep
	CacheCoalesce      bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Locations kept warm in the cache.
	WarmLocations []weather.Location
	WarmInterval  time.Duration `validate:"gte=0"`
}

var validate = validator.New()

// Load reads configuration from the environment (and a .env file if present)
// with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Infof("no .env file found or error loading it: %v", err)
	}
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("HTTP_TIMEOUT", "8s")
	v.SetDefault("PROVIDER_RATE_PER_MINUTE", 60)
	v.SetDefault("CACHE_LIFETIME_HOURS", 1.0)
	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_SWEEP_INTERVAL", "10m")
	v.SetDefault("CACHE_COALESCE", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("WARM_INTERVAL", "30m")
	v.SetDefault("WARM_UNITS", "metric")

	return v
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Env:                   v.GetString("APP_ENV"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		Port:                  v.GetString("PORT"),
		OpenWeatherAPIKey:     v.GetString("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL:    v.GetString("OPENWEATHER_BASE_URL"),
		ProviderRatePerMinute: v.GetInt("PROVIDER_RATE_PER_MINUTE"),
		CacheBackend:          strings.ToLower(v.GetString("CACHE_BACKEND")),
		CacheCoalesce:         v.GetBool("CACHE_COALESCE"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
	}

	var err error
	if cfg.HTTPTimeout, err = parseDuration(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.CacheSweepInterval, err = parseDuration(v, "CACHE_SWEEP_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.WarmInterval, err = parseDuration(v, "WARM_INTERVAL"); err != nil {
		return nil, err
	}

	// Lifetime is configured in (possibly fractional) hours.
	hours := v.GetFloat64("CACHE_LIFETIME_HOURS")
	cfg.CacheLifetime = time.Duration(hours * float64(time.Hour))

	locs, err := loadWarmLocations(v)
	if err != nil {
		return nil, err
	}
	cfg.WarmLocations = locs

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func loadWarmLocations(v *viper.Viper) ([]weather.Location, error) {
	city := v.GetString("WEATHER_LOCATION_CITY")
	country := v.GetString("WEATHER_LOCATION_COUNTRY")
	if strings.TrimSpace(city) == "" {
		return nil, nil
	}

	cities := strings.Split(city, ",")
	countries := strings.Split(country, ",")
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}

	units := v.GetString("WARM_UNITS")
	locs := make([]weather.Location, 0, len(cities))
	for i := range cities {
		locs = append(locs, weather.Location{
			City:    strings.TrimSpace(cities[i]),
			Country: strings.TrimSpace(countries[i]),
			Units:   units,
		})
	}

	return locs, nil
}
