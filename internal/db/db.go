// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoopslive/hoops-data/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the processor and read
// path use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Processor: stat event persistence. The store echoes the version
		// back so the processor can reconcile its local copy.
		"insert_stat_event": `
			INSERT INTO player_stat_events (
				player_id, game_id, team_id, season_id,
				stat_type, stat_value, version
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING event_id, version`,

		// Processor: season resolution
		"active_season": "SELECT season_id, name, active FROM seasons WHERE active = true LIMIT 1",

		// Read path: per-game averages from the aggregate views
		"player_stats": `
			SELECT player_id, team_id, season_id,
			       games, ppg, apg, rpg, spg, bpg, topg, mpg
			FROM player_avg_stats_view
			WHERE player_id = $1 AND season_id = $2`,
		"team_stats": `
			SELECT team_id, season_id,
			       games, ppg, apg, rpg, spg, bpg, topg, mpg
			FROM team_avg_stats_view
			WHERE team_id = $1 AND season_id = $2`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
