// Package processor turns validated game events into persisted stat records.
// One record per envelope, written exactly once, followed by cache
// invalidation for the affected player and team.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hoopslive/hoops-data/internal/event"
	"github.com/hoopslive/hoops-data/internal/store"
)

// ErrNoActiveSeason is raised when no season is marked active at processing
// time. Fatal for the envelope: nothing is written.
var ErrNoActiveSeason = errors.New("no active season found")

// StatsStore is the persistence surface the processor needs.
type StatsStore interface {
	ActiveSeason(ctx context.Context) (*store.Season, error)
	InsertStatEvent(ctx context.Context, rec store.StatRecord) (eventID, version int64, err error)
}

// CacheInvalidator drops the stats cache entries made stale by a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, playerID, teamID, seasonID string) error
}

// Processor resolves the active season, persists the stat record, and
// invalidates the affected cache keys, in that order. Invalidation only
// runs after a confirmed write; a crash between the two leaves a stale cache
// entry bounded by the cache TTL, which is accepted.
type Processor struct {
	store  StatsStore
	cache  CacheInvalidator
	logger *slog.Logger
}

// New wires the processor to its collaborators.
func New(st StatsStore, cache CacheInvalidator, logger *slog.Logger) *Processor {
	return &Processor{store: st, cache: cache, logger: logger}
}

// Process handles one validated game event end to end.
func (p *Processor) Process(ctx context.Context, ev event.GameEvent) error {
	season, err := p.store.ActiveSeason(ctx)
	if err != nil {
		return fmt.Errorf("resolve active season: %w", err)
	}
	if season == nil {
		return ErrNoActiveSeason
	}

	rec := store.StatRecord{
		PlayerID:  ev.PlayerID,
		GameID:    ev.GameID,
		TeamID:    ev.TeamID,
		SeasonID:  season.ID,
		StatType:  ev.Kind,
		StatValue: ev.Value,
		Version:   ev.Version,
	}

	eventID, version, err := p.store.InsertStatEvent(ctx, rec)
	if err != nil {
		return fmt.Errorf("persist stat event: %w", err)
	}
	// The store's version is authoritative; reconcile rather than assume.
	if version != rec.Version {
		p.logger.Warn("store adjusted stat event version",
			"event_id", eventID, "sent", rec.Version, "stored", version)
	}

	if err := p.cache.Invalidate(ctx, ev.PlayerID, ev.TeamID, season.ID); err != nil {
		return fmt.Errorf("invalidate after stat event %d: %w", eventID, err)
	}

	p.logger.Debug("processed game event",
		"event_id", eventID,
		"player_id", ev.PlayerID,
		"team_id", ev.TeamID,
		"season_id", season.ID,
		"stat_type", string(ev.Kind),
		"stat_value", ev.Value)
	return nil
}
