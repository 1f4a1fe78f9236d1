// Package cache is the Redis-backed coherence layer between the stats store
// and the read path. Reads are cache-aside with a bounded TTL; writes never
// touch the cache directly. The processor invalidates the affected keys
// after every confirmed store write.
//
// Entries are always recomputable from the store, so a dropped entry costs
// latency, never correctness.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Loader fetches a value from the system of record on cache miss. A nil
// result with nil error means "no data" and is not cached.
type Loader func(ctx context.Context) ([]byte, error)

// Cache wraps a Redis client with the stats TTL policy.
type Cache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Cache with the given TTL for stats snapshots.
func New(rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

// GetOrLoad returns the cached snapshot for key, or calls loader on miss and
// populates the cache with the result. Cache infrastructure failures degrade
// to the loader; the read path must keep working when Redis does not.
func (c *Cache) GetOrLoad(ctx context.Context, key string, loader Loader) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		return data, true, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed, falling back to store", "key", key, "error", err)
	}

	data, err = loader(ctx)
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}

	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		// Best effort: the snapshot is already in hand, serve it anyway.
		c.logger.Warn("cache populate failed", "key", key, "error", err)
	}
	return data, false, nil
}

// Invalidate deletes the player and team stats keys for a season in one
// transaction, so a reader never observes one key refreshed and the other
// stale from the same write. Errors propagate to the caller: a failed
// invalidation is a processing failure for that envelope.
func (c *Cache) Invalidate(ctx context.Context, playerID, teamID, seasonID string) error {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, PlayerStatsKey(playerID, seasonID))
	pipe.Del(ctx, TeamStatsKey(teamID, seasonID))

	if _, err := pipe.Exec(ctx); err != nil {
		pipe.Discard()
		return fmt.Errorf("invalidate stats cache for player %s team %s: %w", playerID, teamID, err)
	}

	c.logger.Debug("invalidated stats cache",
		"player_id", playerID, "team_id", teamID, "season_id", seasonID)
	return nil
}
