// Package store is the stats system of record. It persists immutable stat
// records and serves the aggregate views the read path caches.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hoopslive/hoops-data/internal/db"
	"github.com/hoopslive/hoops-data/internal/event"
)

// Season is a scoring period. Exactly one season is expected active at any
// time; resolution happens per processed event so transitions are observed
// promptly.
type Season struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// StatRecord is one persisted stat event. Immutable once written: one record
// per processed envelope, no upsert or merge.
type StatRecord struct {
	EventID   int64          `json:"eventId"`
	PlayerID  string         `json:"playerId"`
	GameID    string         `json:"gameId"`
	TeamID    string         `json:"teamId"`
	SeasonID  string         `json:"seasonId"`
	StatType  event.StatType `json:"statType"`
	StatValue float64        `json:"statValue"`
	Version   int64          `json:"version"`
}

// PlayerStats is the per-game aggregate snapshot served by the read path.
type PlayerStats struct {
	PlayerID string  `json:"playerId"`
	TeamID   string  `json:"teamId"`
	SeasonID string  `json:"seasonId"`
	Games    int     `json:"games"`
	PPG      float64 `json:"ppg"`
	APG      float64 `json:"apg"`
	RPG      float64 `json:"rpg"`
	SPG      float64 `json:"spg"`
	BPG      float64 `json:"bpg"`
	TOPG     float64 `json:"topg"`
	MPG      float64 `json:"mpg"`
}

// TeamStats mirrors PlayerStats at team granularity.
type TeamStats struct {
	TeamID   string  `json:"teamId"`
	SeasonID string  `json:"seasonId"`
	Games    int     `json:"games"`
	PPG      float64 `json:"ppg"`
	APG      float64 `json:"apg"`
	RPG      float64 `json:"rpg"`
	SPG      float64 `json:"spg"`
	BPG      float64 `json:"bpg"`
	TOPG     float64 `json:"topg"`
	MPG      float64 `json:"mpg"`
}

// Store runs the prepared statements registered in the db package.
type Store struct {
	pool *db.Pool
}

// New creates a Store over the shared connection pool.
func New(pool *db.Pool) *Store {
	return &Store{pool: pool}
}

// InsertStatEvent persists a stat record and returns the store-assigned event
// id together with the authoritative version. Callers must treat the returned
// version, not their own, as final.
func (s *Store) InsertStatEvent(ctx context.Context, rec StatRecord) (eventID, version int64, err error) {
	err = s.pool.QueryRow(ctx, "insert_stat_event",
		rec.PlayerID, rec.GameID, rec.TeamID, rec.SeasonID,
		string(rec.StatType), rec.StatValue, rec.Version,
	).Scan(&eventID, &version)
	if err != nil {
		return 0, 0, fmt.Errorf("insert stat event: %w", err)
	}
	return eventID, version, nil
}

// ActiveSeason returns the currently active season, or nil when none is
// marked active. Absence is a processing-time condition, not a storage
// error, so it does not come back as one.
func (s *Store) ActiveSeason(ctx context.Context) (*Season, error) {
	var season Season
	err := s.pool.QueryRow(ctx, "active_season").Scan(&season.ID, &season.Name, &season.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active season: %w", err)
	}
	return &season, nil
}

// PlayerStats fetches a player's per-game averages for a season. Returns nil
// when the player has no stats for that season.
func (s *Store) PlayerStats(ctx context.Context, playerID, seasonID string) (*PlayerStats, error) {
	var st PlayerStats
	err := s.pool.QueryRow(ctx, "player_stats", playerID, seasonID).Scan(
		&st.PlayerID, &st.TeamID, &st.SeasonID,
		&st.Games, &st.PPG, &st.APG, &st.RPG, &st.SPG, &st.BPG, &st.TOPG, &st.MPG,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query player stats: %w", err)
	}
	return &st, nil
}

// TeamStats fetches a team's per-game averages for a season. Returns nil when
// the team has no stats for that season.
func (s *Store) TeamStats(ctx context.Context, teamID, seasonID string) (*TeamStats, error) {
	var st TeamStats
	err := s.pool.QueryRow(ctx, "team_stats", teamID, seasonID).Scan(
		&st.TeamID, &st.SeasonID,
		&st.Games, &st.PPG, &st.APG, &st.RPG, &st.SPG, &st.BPG, &st.TOPG, &st.MPG,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query team stats: %w", err)
	}
	return &st, nil
}
