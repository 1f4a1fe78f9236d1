package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Broker wraps the durable log's consumer-group operations. It owns no
// state beyond the client; group cursors and pending sets live in Redis.
type Broker struct {
	rdb    redis.UniversalClient
	logger *slog.Logger
}

// NewBroker creates a Broker over the shared Redis client.
func NewBroker(rdb redis.UniversalClient, logger *slog.Logger) *Broker {
	return &Broker{rdb: rdb, logger: logger}
}

// CreateConsumerGroup idempotently creates the stream (if absent) and the
// consumer group on it. "group already exists" is success; anything else
// propagates.
func (b *Broker) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := b.rdb.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			b.logger.Info("consumer group already exists", "stream", stream, "group", group)
			return nil
		}
		return fmt.Errorf("create consumer group %s on %s: %w", group, stream, err)
	}
	b.logger.Info("created consumer group", "stream", stream, "group", group)
	return nil
}

// ReadBatch returns up to count unconsumed envelopes for this group and
// consumer, blocking up to block when none are immediately available. A
// timeout is an empty result, not an error.
func (b *Broker) ReadBatch(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Envelope, error) {
	res, err := b.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stream %s as %s/%s: %w", stream, group, consumer, err)
	}

	var envelopes []Envelope
	for _, xs := range res {
		for _, msg := range xs.Messages {
			fields := make(map[string]string, len(msg.Values))
			for k, v := range msg.Values {
				if s, ok := v.(string); ok {
					fields[k] = s
				} else {
					fields[k] = fmt.Sprint(v)
				}
			}
			envelopes = append(envelopes, Envelope{ID: msg.ID, Fields: fields})
		}
	}
	return envelopes, nil
}

// Ack marks an envelope as processed for the group. Acknowledgment is
// permanent: the envelope leaves the group's pending set regardless of how
// processing went.
func (b *Broker) Ack(ctx context.Context, stream, group, id string) error {
	if err := b.rdb.XAck(ctx, stream, group, id).Err(); err != nil {
		return fmt.Errorf("ack %s on %s: %w", id, stream, err)
	}
	return nil
}

// Append adds an envelope to a stream. Used by the consumer for the optional
// dead-letter stream.
func (b *Broker) Append(ctx context.Context, stream string, fields map[string]any) (string, error) {
	id, err := b.rdb.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: fields}).Result()
	if err != nil {
		return "", fmt.Errorf("append to stream %s: %w", stream, err)
	}
	return id, nil
}
