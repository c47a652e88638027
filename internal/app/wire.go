package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/quantfold/trendbot/internal/blob/s3"
	"github.com/quantfold/trendbot/internal/cache/redis"
	"github.com/quantfold/trendbot/internal/config"
	"github.com/quantfold/trendbot/internal/domain"
	"github.com/quantfold/trendbot/internal/notify"
	"github.com/quantfold/trendbot/internal/store/postgres"
	"github.com/quantfold/trendbot/internal/tradelog"
)

// Dependencies bundles the optional backing services the bot can run with.
// Any of the fields may be nil when the corresponding backend is disabled in
// the configuration; callers must check before use.
type Dependencies struct {
	// TradeStore is the durable trade log (Postgres). Nil when disabled.
	TradeStore domain.TradeStore

	// MarketCache and SignalBus are Redis-backed. Nil when disabled.
	MarketCache domain.MarketCache
	SignalBus   domain.SignalBus

	// Archiver moves aged trade rows to object storage. Nil unless both
	// Postgres and S3 are enabled.
	Archiver domain.Archiver

	// TradeLog fans out trade records to every enabled sink (CSV files,
	// Postgres). Nil when no sink is enabled.
	TradeLog domain.TradeLog

	// Notifier delivers operational events. Always non-nil; with no senders
	// configured it is a no-op.
	Notifier *notify.Notifier
}

// Wire constructs concrete implementations for every enabled backend and
// returns them together with a cleanup function that releases resources in
// reverse construction order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL trade store ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.TradeStore = postgres.NewTradeStore(pgClient.Pool())
	}

	// --- Redis market cache and signal bus ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.MarketCache = redis.NewMarketCache(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- S3 archival (validated to require Postgres) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.TradeStore, logger)
	}

	// --- Trade log sinks ---
	var sinks []domain.TradeLog
	if cfg.TradeLog.Enabled {
		csvLog, err := tradelog.NewCSVLog(cfg.TradeLog.Dir)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: trade log: %w", err)
		}
		closers = append(closers, func() { _ = csvLog.Close() })
		sinks = append(sinks, csvLog)
	}
	if deps.TradeStore != nil {
		sinks = append(sinks, deps.TradeStore)
	}
	if len(sinks) > 0 {
		deps.TradeLog = tradelog.NewMulti(logger, sinks...)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
