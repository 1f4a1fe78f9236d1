// Command processor is the Hoops Data stream processor CLI.
//
// Usage:
//
//	hoops-processor run
//	hoops-processor run --batch-size 50 --dlq
//	hoops-processor stream init
//	hoops-processor db init --demo
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/hoopslive/hoops-data/internal/cache"
	"github.com/hoopslive/hoops-data/internal/config"
	"github.com/hoopslive/hoops-data/internal/db"
	"github.com/hoopslive/hoops-data/internal/maintenance"
	"github.com/hoopslive/hoops-data/internal/processor"
	"github.com/hoopslive/hoops-data/internal/seed"
	"github.com/hoopslive/hoops-data/internal/store"
	"github.com/hoopslive/hoops-data/internal/stream"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "hoops-processor",
		Short: "Hoops Data stream processor CLI",
	}

	root.AddCommand(runCmd())
	root.AddCommand(streamCmd())
	root.AddCommand(dbCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var (
		batchSize int64
		dlq       bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Consume game events from the stream and persist stat records",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			pool, err := db.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			rdb, err := connectRedis(ctx, cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			statsStore := store.New(pool)
			statsCache := cache.New(rdb, cfg.StatsCacheTTL, logger)
			proc := processor.New(statsStore, statsCache, logger)
			broker := stream.NewBroker(rdb, logger)

			consumerCfg := stream.DefaultConsumerConfig()
			consumerCfg.BatchSize = int64(cfg.StreamBatchSize)
			if batchSize > 0 {
				consumerCfg.BatchSize = batchSize
			}
			consumerCfg.PollInterval = cfg.StreamPollInterval
			consumerCfg.PollTimeout = cfg.StreamPollTimeout
			consumerCfg.MaxConsecutiveErrors = cfg.StreamMaxErrors
			if dlq || cfg.DeadLetterEnabled {
				consumerCfg.DeadLetterStream = config.DeadLetterStream
			}

			consumer := stream.NewConsumer(broker, proc, consumerCfg, logger)
			if err := consumer.Init(ctx); err != nil {
				return fmt.Errorf("initialize consumer group: %w", err)
			}

			// Stream retention and lag reporting run alongside the loop
			go maintenance.Start(ctx, rdb, maintenance.DefaultConfig(), logger)

			consumer.Run(ctx)
			return nil
		},
	}
	cmd.Flags().Int64Var(&batchSize, "batch-size", 0, "Max envelopes read per poll (0 = use STREAM_BATCH_SIZE)")
	cmd.Flags().BoolVar(&dlq, "dlq", false, "Copy failed envelopes to the dead-letter stream")
	return cmd
}

// --------------------------------------------------------------------------
// stream command
// --------------------------------------------------------------------------

func streamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream administration",
	}
	cmd.AddCommand(streamInitCmd())
	return cmd
}

func streamInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the game events stream and consumer group",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			rdb, err := connectRedis(ctx, cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			producer := stream.NewProducer(rdb, config.GameEventsStream, logger)
			if err := producer.EnsureStream(ctx); err != nil {
				return err
			}

			broker := stream.NewBroker(rdb, logger)
			if err := broker.CreateConsumerGroup(ctx, config.GameEventsStream, config.GameEventsGroup); err != nil {
				return err
			}

			logger.Info("Stream initialized",
				"stream", config.GameEventsStream,
				"group", config.GameEventsGroup)
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// db command
// --------------------------------------------------------------------------

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database administration",
	}
	cmd.AddCommand(dbInitCmd())
	return cmd
}

func dbInitCmd() *cobra.Command {
	var demo bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the schema, optionally with demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// Plain connection: the pool prepares statements against the
			// schema on connect, which fails before the schema exists.
			conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer conn.Close(ctx)

			if err := seed.EnsureSchema(ctx, conn, logger); err != nil {
				return err
			}
			if demo {
				result := seed.SeedDemo(ctx, conn, logger)
				for _, e := range result.Errors {
					logger.Error("seed error", "error", e)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "Insert demo seasons and stat events")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}
