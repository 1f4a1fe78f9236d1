package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hoopslive/hoops-data/internal/config"
	"github.com/hoopslive/hoops-data/internal/event"
)

// EventProcessor handles one decoded game event.
type EventProcessor interface {
	Process(ctx context.Context, ev event.GameEvent) error
}

// MessageBroker is the stream surface the consumer loop needs.
type MessageBroker interface {
	CreateConsumerGroup(ctx context.Context, stream, group string) error
	ReadBatch(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Envelope, error)
	Ack(ctx context.Context, stream, group, id string) error
	Append(ctx context.Context, stream string, fields map[string]any) (string, error)
}

// ConsumerConfig controls the polling loop.
type ConsumerConfig struct {
	Stream               string
	Group                string
	Consumer             string
	BatchSize            int64
	PollInterval         time.Duration
	PollTimeout          time.Duration
	MaxConsecutiveErrors int
	// DeadLetterStream receives failed envelopes before they are
	// acknowledged. Empty means failed envelopes are dropped silently.
	DeadLetterStream string
}

// DefaultConsumerConfig returns production defaults with a fresh per-process
// consumer identity.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Stream:               config.GameEventsStream,
		Group:                config.GameEventsGroup,
		Consumer:             ConsumerName(),
		BatchSize:            100,
		PollInterval:         time.Second,
		PollTimeout:          time.Second,
		MaxConsecutiveErrors: 10,
	}
}

// ConsumerName derives a unique per-process consumer identity so multiple
// processor instances can share the group without colliding on one name.
func ConsumerName() string {
	return "processor-" + uuid.NewString()[:8]
}

// Consumer is the scheduled polling loop: read a batch, dispatch each
// envelope in log order, acknowledge every envelope exactly once regardless
// of outcome. Sustained failure trips a circuit breaker that pauses polling
// until a success resets the counter.
type Consumer struct {
	broker MessageBroker
	proc   EventProcessor
	cfg    ConsumerConfig
	logger *slog.Logger

	// Only touched from the loop goroutine; ticks never overlap.
	consecutiveErrors int
}

// NewConsumer wires the loop to its collaborators.
func NewConsumer(broker MessageBroker, proc EventProcessor, cfg ConsumerConfig, logger *slog.Logger) *Consumer {
	return &Consumer{broker: broker, proc: proc, cfg: cfg, logger: logger}
}

// Init ensures the stream and consumer group exist. Call once before Run.
func (c *Consumer) Init(ctx context.Context) error {
	return c.broker.CreateConsumerGroup(ctx, c.cfg.Stream, c.cfg.Group)
}

// Run polls on a fixed interval until ctx is cancelled. Blocks; intended to
// be called with `go` or as the main loop of the processor binary.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("stream consumer started",
		"stream", c.cfg.Stream,
		"group", c.cfg.Group,
		"consumer", c.cfg.Consumer,
		"batch_size", c.cfg.BatchSize,
		"poll_interval", c.cfg.PollInterval)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Tick(ctx)
		case <-ctx.Done():
			c.logger.Info("stream consumer stopped")
			return
		}
	}
}

// Tick runs one poll/dispatch cycle. Envelope processing is strictly
// sequential; the only blocking point is the bounded ReadBatch wait.
func (c *Consumer) Tick(ctx context.Context) {
	if c.consecutiveErrors >= c.cfg.MaxConsecutiveErrors {
		c.logger.Error("too many consecutive errors, pausing stream processing",
			"consecutive_errors", c.consecutiveErrors)
		return
	}

	envelopes, err := c.broker.ReadBatch(ctx,
		c.cfg.Stream, c.cfg.Group, c.cfg.Consumer,
		c.cfg.BatchSize, c.cfg.PollTimeout)
	if err != nil {
		c.consecutiveErrors++
		c.logger.Error("error reading from stream",
			"consecutive_errors", c.consecutiveErrors, "error", err)
		return
	}
	if len(envelopes) == 0 {
		return
	}

	for _, env := range envelopes {
		if env.IsMetadata() {
			c.logger.Debug("skipping metadata envelope", "id", env.ID)
			c.ack(ctx, env.ID)
			continue
		}

		if err := c.dispatch(ctx, env); err != nil {
			c.consecutiveErrors++
			c.logger.Error("error processing game event",
				"id", env.ID, "consecutive_errors", c.consecutiveErrors, "error", err)
			c.deadLetter(ctx, env)
		} else {
			c.consecutiveErrors = 0
		}

		// Acknowledge regardless of outcome: a permanently failing
		// envelope must not block the group's progress, at the cost of
		// dropping it (or parking it on the dead-letter stream).
		c.ack(ctx, env.ID)
	}
}

func (c *Consumer) dispatch(ctx context.Context, env Envelope) error {
	ev, err := event.Decode([]byte(env.Data()))
	if err != nil {
		return err
	}
	return c.proc.Process(ctx, ev)
}

// ack removes the envelope from the group's pending set. A failed ack leaves
// the envelope eligible for redelivery and counts as a cycle error, so a
// broker that stops accepting acks trips the breaker like any other fault.
func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.broker.Ack(ctx, c.cfg.Stream, c.cfg.Group, id); err != nil {
		c.consecutiveErrors++
		c.logger.Warn("failed to acknowledge envelope",
			"id", id, "consecutive_errors", c.consecutiveErrors, "error", err)
	}
}

// deadLetter copies a failed envelope to the dead-letter stream, tagging it
// with its source id. Best effort; a DLQ failure never blocks the ack.
func (c *Consumer) deadLetter(ctx context.Context, env Envelope) {
	if c.cfg.DeadLetterStream == "" {
		return
	}
	fields := make(map[string]any, len(env.Fields)+1)
	for k, v := range env.Fields {
		fields[k] = v
	}
	fields["source_id"] = env.ID
	if _, err := c.broker.Append(ctx, c.cfg.DeadLetterStream, fields); err != nil {
		c.logger.Warn("failed to dead-letter envelope", "id", env.ID, "error", err)
	}
}
