// Package seed provisions the database schema and optional demo data.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

// Result tracks counts and errors from a provisioning run.
type Result struct {
	SeasonsUpserted int
	EventsInserted  int
	Errors          []string
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("seasons=%d events=%d errors=%d",
		r.SeasonsUpserted, r.EventsInserted, len(r.Errors))
}

// schemaStatements creates the tables and aggregate views the processor and
// read path depend on. Idempotent; safe to run against an existing database.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS seasons (
		season_id  TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		active     BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// At most one season may be active.
	`CREATE UNIQUE INDEX IF NOT EXISTS seasons_single_active_idx
		ON seasons (active) WHERE active`,

	`CREATE TABLE IF NOT EXISTS player_stat_events (
		event_id   BIGSERIAL PRIMARY KEY,
		player_id  TEXT NOT NULL,
		game_id    TEXT NOT NULL,
		team_id    TEXT NOT NULL,
		season_id  TEXT NOT NULL REFERENCES seasons(season_id),
		stat_type  TEXT NOT NULL,
		stat_value NUMERIC NOT NULL,
		version    BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS player_stat_events_player_season_idx
		ON player_stat_events (player_id, season_id)`,

	`CREATE INDEX IF NOT EXISTS player_stat_events_team_season_idx
		ON player_stat_events (team_id, season_id)`,

	`CREATE OR REPLACE VIEW player_avg_stats_view AS
		SELECT
			player_id,
			MAX(team_id) AS team_id,
			season_id,
			COUNT(DISTINCT game_id)::int AS games,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'point'), 0)
				/ COUNT(DISTINCT game_id) AS ppg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'assist'), 0)
				/ COUNT(DISTINCT game_id) AS apg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'rebound'), 0)
				/ COUNT(DISTINCT game_id) AS rpg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'steal'), 0)
				/ COUNT(DISTINCT game_id) AS spg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'block'), 0)
				/ COUNT(DISTINCT game_id) AS bpg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'turnover'), 0)
				/ COUNT(DISTINCT game_id) AS topg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'minutes_played'), 0)
				/ COUNT(DISTINCT game_id) AS mpg
		FROM player_stat_events
		GROUP BY player_id, season_id`,

	`CREATE OR REPLACE VIEW team_avg_stats_view AS
		SELECT
			team_id,
			season_id,
			COUNT(DISTINCT game_id)::int AS games,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'point'), 0)
				/ COUNT(DISTINCT game_id) AS ppg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'assist'), 0)
				/ COUNT(DISTINCT game_id) AS apg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'rebound'), 0)
				/ COUNT(DISTINCT game_id) AS rpg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'steal'), 0)
				/ COUNT(DISTINCT game_id) AS spg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'block'), 0)
				/ COUNT(DISTINCT game_id) AS bpg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'turnover'), 0)
				/ COUNT(DISTINCT game_id) AS topg,
			COALESCE(SUM(stat_value) FILTER (WHERE stat_type = 'minutes_played'), 0)
				/ COUNT(DISTINCT game_id) AS mpg
		FROM player_stat_events
		GROUP BY team_id, season_id`,
}

// EnsureSchema creates all tables, indexes, and views. Uses a plain
// connection rather than the shared pool because the pool prepares statements
// against these objects on connect, which fails before they exist.
func EnsureSchema(ctx context.Context, conn *pgx.Conn, logger *slog.Logger) error {
	for _, stmt := range schemaStatements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	logger.Info("Schema ensured",
		"tables", []string{"seasons", "player_stat_events"},
		"views", []string{"player_avg_stats_view", "team_avg_stats_view"})
	return nil
}

// SeedDemo inserts a pair of seasons and a small slate of stat events so the
// read path has something to serve on a fresh install.
func SeedDemo(ctx context.Context, conn *pgx.Conn, logger *slog.Logger) Result {
	var result Result

	seasons := []struct {
		id     string
		name   string
		active bool
	}{
		{"2024-25", "2024-25 Season", false},
		{"2025-26", "2025-26 Season", true},
	}
	for _, s := range seasons {
		_, err := conn.Exec(ctx, `
			INSERT INTO seasons (season_id, name, active)
			VALUES ($1, $2, $3)
			ON CONFLICT (season_id) DO UPDATE SET name = EXCLUDED.name`,
			s.id, s.name, s.active)
		if err != nil {
			result.AddErrorf("upsert season %s: %v", s.id, err)
			continue
		}
		result.SeasonsUpserted++
	}

	events := []struct {
		playerID, gameID, teamID, statType string
		value                              float64
	}{
		{"jt0", "2025110101", "BOS", "point", 3},
		{"jt0", "2025110101", "BOS", "point", 2},
		{"jt0", "2025110101", "BOS", "rebound", 8},
		{"jt0", "2025110101", "BOS", "assist", 5},
		{"jt0", "2025110101", "BOS", "minutes_played", 36.5},
		{"jb7", "2025110101", "BOS", "point", 2},
		{"jb7", "2025110101", "BOS", "steal", 2},
		{"jb7", "2025110101", "BOS", "minutes_played", 34.0},
		{"jt0", "2025110302", "BOS", "point", 3},
		{"jt0", "2025110302", "BOS", "turnover", 2},
		{"jt0", "2025110302", "BOS", "minutes_played", 38.2},
	}
	for _, e := range events {
		_, err := conn.Exec(ctx, `
			INSERT INTO player_stat_events (
				player_id, game_id, team_id, season_id,
				stat_type, stat_value, version
			)
			VALUES ($1, $2, $3, '2025-26', $4, $5, 1)`,
			e.playerID, e.gameID, e.teamID, e.statType, e.value)
		if err != nil {
			result.AddErrorf("insert demo event %s/%s: %v", e.playerID, e.statType, err)
			continue
		}
		result.EventsInserted++
	}

	logger.Info("Demo data seeded", "summary", result.Summary())
	return result
}
