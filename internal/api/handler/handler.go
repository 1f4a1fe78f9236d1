// Package handler provides HTTP handlers for the ingestion and read APIs.
// The ingest path validates and publishes; the read path serves aggregates
// through the cache-aside layer. Handlers never touch the stream or the
// store beyond the interfaces below.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoopslive/hoops-data/internal/api/respond"
	"github.com/hoopslive/hoops-data/internal/cache"
	"github.com/hoopslive/hoops-data/internal/db"
	"github.com/hoopslive/hoops-data/internal/event"
	"github.com/hoopslive/hoops-data/internal/store"
)

// EventPublisher appends a validated event to the durable stream.
type EventPublisher interface {
	Publish(ctx context.Context, ev event.GameEvent) error
}

// StatsReader is the read surface of the stats store.
type StatsReader interface {
	ActiveSeason(ctx context.Context) (*store.Season, error)
	PlayerStats(ctx context.Context, playerID, seasonID string) (*store.PlayerStats, error)
	TeamStats(ctx context.Context, teamID, seasonID string) (*store.TeamStats, error)
}

// StatsCache is the read-through layer in front of StatsReader.
type StatsCache interface {
	GetOrLoad(ctx context.Context, key string, loader cache.Loader) ([]byte, bool, error)
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	publisher EventPublisher
	reader    StatsReader
	cache     StatsCache
	pool      *db.Pool
	rdb       redis.UniversalClient
	logger    *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(publisher EventPublisher, reader StatsReader, statsCache StatsCache, pool *db.Pool, rdb redis.UniversalClient, logger *slog.Logger) *Handler {
	return &Handler{
		publisher: publisher,
		reader:    reader,
		cache:     statsCache,
		pool:      pool,
		rdb:       rdb,
		logger:    logger,
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Hoops Data API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckRedis verifies stream/cache connectivity.
func (h *Handler) HealthCheckRedis(w http.ResponseWriter, r *http.Request) {
	if err := h.rdb.Ping(r.Context()).Err(); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"redis":     "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"redis":     "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
