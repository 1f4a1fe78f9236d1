// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/processor.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Stream constants shared by producer and processor
// --------------------------------------------------------------------------

const (
	// GameEventsStream is the durable log all game events are appended to.
	GameEventsStream = "game-events-stream"
	// GameEventsGroup is the consumer group shared by processor instances.
	GameEventsGroup = "game-events-processors"
	// DeadLetterStream receives failed envelopes when the DLQ is enabled.
	DeadLetterStream = "game-events-dlq"
)

// --------------------------------------------------------------------------
// Config struct populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Redis (stream + cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Stream consumer
	StreamBatchSize    int
	StreamPollInterval time.Duration
	StreamPollTimeout  time.Duration
	StreamMaxErrors    int
	DeadLetterEnabled  bool

	// Cache
	StatsCacheTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envOr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		StreamBatchSize:    envInt("STREAM_BATCH_SIZE", 100),
		StreamPollInterval: time.Duration(envInt("STREAM_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		StreamPollTimeout:  time.Duration(envInt("STREAM_POLL_TIMEOUT_MS", 1000)) * time.Millisecond,
		StreamMaxErrors:    envInt("STREAM_MAX_ERRORS", 10),
		DeadLetterEnabled:  envBool("STREAM_DLQ_ENABLED", false),

		StatsCacheTTL: time.Duration(envInt("STATS_CACHE_TTL_SECONDS", 300)) * time.Second,
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
