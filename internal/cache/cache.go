// Package cache keeps student profiles and match statistics in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"program-matching/internal/common/logger"
	"program-matching/internal/models"
)

const (
	profileKeyPrefix = "profile:"
	statsKeyPrefix   = "match:stats:"
)

func ProfileKey(userID string) string { return profileKeyPrefix + userID }

func StatsKey(userID string) string { return statsKeyPrefix + userID }

// ProfileCache stores profiles as JSON under profile:<userId>.
type ProfileCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{redis: client, ttl: ttl}
}

// Get returns the cached profile, or nil on a miss.
func (c *ProfileCache) Get(ctx context.Context, userID string) (*models.StudentProfile, error) {
	var p models.StudentProfile
	ok, err := getJSON(ctx, c.redis, ProfileKey(userID), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (c *ProfileCache) Set(ctx context.Context, p *models.StudentProfile) error {
	return setJSON(ctx, c.redis, ProfileKey(p.UserID), p, c.ttl)
}

func (c *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.redis.Del(ctx, ProfileKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate profile cache: %w", err)
	}
	return nil
}

// StatsCache stores per-user tier counts under match:stats:<userId>.
type StatsCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{redis: client, ttl: ttl}
}

// Get returns the cached stats, or nil on a miss.
func (c *StatsCache) Get(ctx context.Context, userID string) (*models.MatchStats, error) {
	var s models.MatchStats
	ok, err := getJSON(ctx, c.redis, StatsKey(userID), &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

func (c *StatsCache) Set(ctx context.Context, userID string, stats *models.MatchStats) error {
	return setJSON(ctx, c.redis, StatsKey(userID), stats, c.ttl)
}

func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.redis.Del(ctx, StatsKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate stats cache: %w", err)
	}
	return nil
}

func getJSON(ctx context.Context, client *redis.Client, key string, dst any) (bool, error) {
	val, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, client *redis.Client, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// ProfileStore is the source of truth behind the profile cache.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
	UpsertProfile(ctx context.Context, p *models.StudentProfile) error
}

// CachedProfiles reads profiles through the cache. Cache failures are
// logged and never fail the lookup.
type CachedProfiles struct {
	cache  *ProfileCache
	store  ProfileStore
	logger logger.Logger
}

func NewCachedProfiles(cache *ProfileCache, store ProfileStore, log logger.Logger) *CachedProfiles {
	return &CachedProfiles{
		cache:  cache,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "profile-cache"}),
	}
}

func (p *CachedProfiles) GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	cached, err := p.cache.Get(ctx, userID)
	if err != nil {
		p.logger.Warn("profile cache read failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
	if cached != nil {
		return cached, nil
	}

	profile, err := p.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, profile); err != nil {
		p.logger.Warn("profile cache write failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
	return profile, nil
}

// SaveProfile writes p to the store and then refreshes the cached copy.
// When the refresh fails the cached entry is dropped so the next read goes
// to the store.
func (p *CachedProfiles) SaveProfile(ctx context.Context, profile *models.StudentProfile) error {
	if err := p.store.UpsertProfile(ctx, profile); err != nil {
		return err
	}

	if err := p.cache.Set(ctx, profile); err != nil {
		p.logger.Warn("profile cache write failed", map[string]interface{}{
			"userId": profile.UserID,
			"error":  err.Error(),
		})
		if err := p.cache.Invalidate(ctx, profile.UserID); err != nil {
			p.logger.Warn("profile cache invalidation failed", map[string]interface{}{
				"userId": profile.UserID,
				"error":  err.Error(),
			})
		}
	}
	return nil
}
