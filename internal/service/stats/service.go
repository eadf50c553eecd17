// Package stats serves the marketplace overview numbers, cached in
// Redis so the landing page does not hit the database on every load.
package stats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"medagenda/backend/internal/store"
)

const cacheKey = "stats:overview"

// Overview is the public counters block.
type Overview struct {
	Patients      int64   `json:"patients"`
	Practitioners int64   `json:"practitioners"`
	AverageRating float64 `json:"average_rating"`
}

// Cache is the subset of the Redis API the service uses.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Service struct {
	accounts     store.AccountRepository
	appointments store.AppointmentRepository
	cache        Cache
	ttl          time.Duration
}

func NewService(accounts store.AccountRepository, appointments store.AppointmentRepository, cache Cache, ttl time.Duration) *Service {
	return &Service{
		accounts:     accounts,
		appointments: appointments,
		cache:        cache,
		ttl:          ttl,
	}
}

// Get returns the overview, from cache when fresh. Cache failures fall
// through to the database.
func (s *Service) Get(ctx context.Context) (Overview, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached Overview
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	patients, err := s.accounts.CountPatients(ctx)
	if err != nil {
		return Overview{}, err
	}
	practitioners, err := s.accounts.CountPractitioners(ctx)
	if err != nil {
		return Overview{}, err
	}
	avg, err := s.appointments.AverageRating(ctx)
	if err != nil {
		return Overview{}, err
	}

	overview := Overview{
		Patients:      patients,
		Practitioners: practitioners,
		AverageRating: avg,
	}

	if s.cache != nil {
		if raw, err := json.Marshal(overview); err == nil {
			_ = s.cache.Set(ctx, cacheKey, string(raw), s.ttl)
		}
	}

	return overview, nil
}

// RedisCache adapts a Redis client to the Cache interface.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}
