// Package cache provides Redis-backed badge storage: a primary store for
// deployments where Redis is the source of truth, and a read-aside decorator
// over a slower durable store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

// CacheClient defines the subset of Redis commands the stores need.
type CacheClient interface {
	// Get decodes the value into dest or returns ErrCacheMiss.
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Key is where the badge count lives in Redis.
const Key = badge.Namespace + ":" + badge.Key

type record struct {
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisStore keeps the badge count in Redis with no expiry.
type RedisStore struct {
	cache CacheClient
}

func NewRedisStore(cache CacheClient) *RedisStore {
	return &RedisStore{cache: cache}
}

func (s *RedisStore) Save(ctx context.Context, count int) error {
	if err := s.cache.Set(ctx, Key, record{Count: count, UpdatedAt: time.Now().UTC()}, 0); err != nil {
		return fmt.Errorf("failed to save badge count: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (int, error) {
	var rec record
	err := s.cache.Get(ctx, Key, &rec)
	if errors.Is(err, ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load badge count: %w", err)
	}
	return rec.Count, nil
}

// CachedStore adds read-aside caching to any badge.Store.
type CachedStore struct {
	realStore badge.Store
	cache     CacheClient
	ttl       time.Duration
	logger    *slog.Logger
}

func NewCachedStore(realStore badge.Store, cache CacheClient, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
		logger:    logger.With("component", "CachedBadgeStore"),
	}
}

// Load serves from the cache and falls back to the real store on any cache error.
func (s *CachedStore) Load(ctx context.Context) (int, error) {
	var rec record
	if err := s.cache.Get(ctx, Key, &rec); err == nil {
		return rec.Count, nil
	}

	count, err := s.realStore.Load(ctx)
	if err != nil {
		return 0, err
	}

	// Populating the cache is best effort.
	_ = s.cache.Set(ctx, Key, record{Count: count, UpdatedAt: time.Now().UTC()}, s.ttl)
	return count, nil
}

// Save writes through to the real store, then overwrites the cached value so a
// concurrent Load cannot leave an older count behind. Once the real store has
// the count, cache failures are logged and never reported.
func (s *CachedStore) Save(ctx context.Context, count int) error {
	if err := s.realStore.Save(ctx, count); err != nil {
		return err
	}

	err := s.cache.Set(ctx, Key, record{Count: count, UpdatedAt: time.Now().UTC()}, s.ttl)
	if err == nil {
		return nil
	}
	s.logger.Warn("Failed to refresh cached badge count, invalidating", "count", count, "err", err)
	if err := s.cache.Del(ctx, Key); err != nil {
		s.logger.Error("Failed to invalidate cached badge count", "err", err)
	}
	return nil
}
