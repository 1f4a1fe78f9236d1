// Package maintenance runs periodic background tasks as Go tickers. The
// stream is an append-only log, so without retention it grows forever;
// trimming and lag reporting run inside the processor since it is already a
// persistent, long-running service.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoopslive/hoops-data/internal/config"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	TrimInterval time.Duration // Stream retention trimming
	LagInterval  time.Duration // Consumer group lag reporting
	MaxStreamLen int64         // Approximate retention bound per stream
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		TrimInterval: 15 * time.Minute,
		LagInterval:  1 * time.Minute,
		MaxStreamLen: 1_000_000,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, rdb redis.UniversalClient, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"trim", cfg.TrimInterval,
		"lag", cfg.LagInterval,
		"max_stream_len", cfg.MaxStreamLen)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Trim: bound stream growth with approximate MAXLEN trimming
	if cfg.TrimInterval > 0 {
		t := time.NewTicker(cfg.TrimInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { trimStreams(ctx, rdb, cfg.MaxStreamLen, logger) })
	}

	// Lag: report stream length and unacknowledged envelope counts
	if cfg.LagInterval > 0 {
		t := time.NewTicker(cfg.LagInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { reportLag(ctx, rdb, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// trimStreams applies approximate MAXLEN retention to the game events stream
// and the dead-letter stream. Approximate trimming lets Redis drop whole
// macro nodes instead of counting entries exactly.
func trimStreams(ctx context.Context, rdb redis.UniversalClient, maxLen int64, logger *slog.Logger) {
	for _, s := range []string{config.GameEventsStream, config.DeadLetterStream} {
		n, err := rdb.XTrimMaxLenApprox(ctx, s, maxLen, 0).Result()
		if err != nil {
			logger.Warn("Trim: failed to trim stream", "stream", s, "error", err)
		} else if n > 0 {
			logger.Info("Trim: dropped old envelopes", "stream", s, "count", n)
		}
	}
}

// reportLag logs the stream length and the group's pending envelope count.
// A growing pending count means a consumer read envelopes and died before
// acknowledging them.
func reportLag(ctx context.Context, rdb redis.UniversalClient, logger *slog.Logger) {
	length, err := rdb.XLen(ctx, config.GameEventsStream).Result()
	if err != nil {
		logger.Warn("Lag: failed to read stream length", "error", err)
		return
	}

	pending, err := rdb.XPending(ctx, config.GameEventsStream, config.GameEventsGroup).Result()
	if err != nil {
		// The group may not exist yet on a fresh deployment.
		logger.Debug("Lag: failed to read pending summary", "error", err)
		return
	}

	logger.Info("Stream lag",
		"stream", config.GameEventsStream,
		"length", length,
		"pending", pending.Count,
		"consumers", len(pending.Consumers))
}
