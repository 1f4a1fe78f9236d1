package stream

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*Broker, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewBroker(rdb, slog.Default()), rdb
}

func TestCreateConsumerGroupIdempotent(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, b.CreateConsumerGroup(ctx, "test-stream", "test-group"))
	// Second creation hits BUSYGROUP, which is swallowed as success.
	require.NoError(t, b.CreateConsumerGroup(ctx, "test-stream", "test-group"))
}

func TestReadBatchReturnsAppendOrder(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, b.CreateConsumerGroup(ctx, "test-stream", "test-group"))
	for _, payload := range []string{"first", "second", "third"} {
		_, err := b.Append(ctx, "test-stream", map[string]any{"data": payload})
		require.NoError(t, err)
	}

	envelopes, err := b.ReadBatch(ctx, "test-stream", "test-group", "c1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, envelopes, 3)
	assert.Equal(t, "first", envelopes[0].Data())
	assert.Equal(t, "second", envelopes[1].Data())
	assert.Equal(t, "third", envelopes[2].Data())
}

func TestReadBatchHonorsCount(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, b.CreateConsumerGroup(ctx, "test-stream", "test-group"))
	for i := 0; i < 5; i++ {
		_, err := b.Append(ctx, "test-stream", map[string]any{"data": "x"})
		require.NoError(t, err)
	}

	envelopes, err := b.ReadBatch(ctx, "test-stream", "test-group", "c1", 2, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, envelopes, 2)
}

func TestReadBatchEmptyOnTimeout(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, b.CreateConsumerGroup(ctx, "test-stream", "test-group"))

	envelopes, err := b.ReadBatch(ctx, "test-stream", "test-group", "c1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, envelopes)
}

func TestAckRemovesFromPending(t *testing.T) {
	b, _ := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, b.CreateConsumerGroup(ctx, "test-stream", "test-group"))
	_, err := b.Append(ctx, "test-stream", map[string]any{"data": "payload"})
	require.NoError(t, err)

	envelopes, err := b.ReadBatch(ctx, "test-stream", "test-group", "c1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, envelopes, 1)

	require.NoError(t, b.Ack(ctx, "test-stream", "test-group", envelopes[0].ID))

	// Nothing new to read and nothing pending after the ack.
	envelopes, err = b.ReadBatch(ctx, "test-stream", "test-group", "c1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, envelopes)
}

func TestEnvelopeMetadataDetection(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   bool
	}{
		{"no data field", map[string]string{"init": "true"}, true},
		{"stream init marker", map[string]string{"data": "x", "type": "STREAM_INIT"}, true},
		{"init metadata envelope", map[string]string{"type": "STREAM_INIT", "service": "game-event-ingest"}, true},
		{"data envelope", map[string]string{"data": `{"event":"point"}`}, false},
		{"data with other type", map[string]string{"data": "x", "type": "other"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Envelope{ID: "1-0", Fields: tt.fields}
			assert.Equal(t, tt.want, env.IsMetadata())
		})
	}
}
