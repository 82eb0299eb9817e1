package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/i474232898/weather-report/internal/logger"
	"github.com/i474232898/weather-report/internal/weather"
)

const redisKeyPrefix = "weather:report:"

// RedisStore is a report cache shared between processes. Entries carry their
// creation time so Get applies the same freshness rule as MemoryStore; Redis
// TTLs take the place of the write-time sweep.
type RedisStore struct {
	client   *redis.Client
	lifetime time.Duration
	now      func() time.Time
	log      logger.Logger
}

type redisEntry struct {
	CreatedAt time.Time      `json:"createdAt"`
	Report    weather.Report `json:"report"`
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, lifetime time.Duration, log logger.Logger) *RedisStore {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &RedisStore{
		client:   client,
		lifetime: lifetime,
		now:      time.Now,
		log:      log.WithField("component", "redis_store"),
	}
}

// Get returns a fresh report for key. Redis failures are logged and treated
// as a miss.
func (s *RedisStore) Get(ctx context.Context, key weather.LocationKey) (weather.Report, bool) {
	rk := redisKey(key)

	data, err := s.client.Get(ctx, rk).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warnf("redis get %s failed: %v", rk, err)
		}
		return nil, false
	}

	var e redisEntry
	if err := json.Unmarshal(data, &e); err != nil {
		s.log.Warnf("dropping undecodable entry %s: %v", rk, err)
		s.del(ctx, rk)
		return nil, false
	}

	if s.now().Sub(e.CreatedAt) >= s.lifetime {
		s.del(ctx, rk)
		return nil, false
	}
	return e.Report, true
}

// Set writes report with a TTL equal to the lifetime. Failures are logged and
// the write is dropped.
func (s *RedisStore) Set(ctx context.Context, key weather.LocationKey, report weather.Report) {
	rk := redisKey(key)

	data, err := json.Marshal(redisEntry{CreatedAt: s.now(), Report: report})
	if err != nil {
		s.log.Errorf("encode entry %s: %v", rk, err)
		return
	}
	if err := s.client.Set(ctx, rk, data, s.lifetime).Err(); err != nil {
		s.log.Warnf("redis set %s failed: %v", rk, err)
	}
}

// Ping checks the connection for health reporting.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) del(ctx context.Context, rk string) {
	if err := s.client.Del(ctx, rk).Err(); err != nil {
		s.log.Warnf("redis del %s failed: %v", rk, err)
	}
}

func redisKey(key weather.LocationKey) string {
	return redisKeyPrefix + key.String()
}
