package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoopslive/hoops-data/internal/event"
)

// serviceName identifies this producer in stream init metadata.
const serviceName = "game-event-ingest"

// Producer appends validated game events to the durable stream. The stream
// append is the only shared mutable resource between concurrent request
// handlers; the log serializes writers, so the producer carries no locking.
type Producer struct {
	rdb    redis.UniversalClient
	stream string
	logger *slog.Logger

	// Flips once EnsureStream succeeds. Check-then-act races across
	// processes are fine: duplicate init envelopes are metadata and
	// consumers ack them without dispatch.
	initialized atomic.Bool
}

// NewProducer creates a Producer for the given stream.
func NewProducer(rdb redis.UniversalClient, stream string, logger *slog.Logger) *Producer {
	return &Producer{rdb: rdb, stream: stream, logger: logger}
}

// EnsureStream makes an empty stream observable by appending an init metadata
// envelope when the stream does not exist yet. Idempotent.
func (p *Producer) EnsureStream(ctx context.Context) error {
	n, err := p.rdb.Exists(ctx, p.stream).Result()
	if err != nil {
		return fmt.Errorf("check stream %s: %w", p.stream, err)
	}
	if n == 0 {
		id, err := p.rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			Values: map[string]any{
				fieldType:      typeStreamInit,
				fieldService:   serviceName,
				fieldTimestamp: time.Now().UTC().Format(time.RFC3339),
			},
		}).Result()
		if err != nil {
			return fmt.Errorf("initialize stream %s: %w", p.stream, err)
		}
		p.logger.Info("initialized game events stream", "stream", p.stream, "id", id)
	}
	p.initialized.Store(true)
	return nil
}

// Publish serializes the event and appends it to the stream. The first call
// per process lazily ensures the stream exists. Append failures surface to
// the caller synchronously; there is no retry here, the transport boundary
// decides the client-visible outcome.
func (p *Producer) Publish(ctx context.Context, ev event.GameEvent) error {
	if !p.initialized.Load() {
		if err := p.EnsureStream(ctx); err != nil {
			return err
		}
	}

	payload, err := ev.Encode()
	if err != nil {
		return err
	}

	id, err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{fieldData: string(payload)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish game event: %w", err)
	}

	p.logger.Debug("published game event",
		"id", id, "game_id", ev.GameID, "player_id", ev.PlayerID, "event", string(ev.Kind))
	return nil
}
