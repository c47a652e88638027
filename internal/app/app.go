// Package app provides the top-level application lifecycle for the trend
// bot. It wires together the optional backends (trade store, cache, blob
// storage, notifications), builds the feed and control loop, and runs them
// until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantfold/trendbot/internal/config"
	"github.com/quantfold/trendbot/internal/crypto"
	"github.com/quantfold/trendbot/internal/domain"
	"github.com/quantfold/trendbot/internal/executor"
	"github.com/quantfold/trendbot/internal/feed"
	"github.com/quantfold/trendbot/internal/market"
	"github.com/quantfold/trendbot/internal/platform/binance"
	"github.com/quantfold/trendbot/internal/position"
	"github.com/quantfold/trendbot/internal/strategy"
)

// candleCapacity bounds the in-memory close history used by the detector.
const candleCapacity = 1000

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires dependencies, builds the executor
// for the configured mode, starts the feed and control loop goroutines, and
// blocks until the context is cancelled or a subsystem fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("symbol", a.cfg.Loop.Symbol),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	exec, err := a.buildExecutor()
	if err != nil {
		return fmt.Errorf("app: build executor: %w", err)
	}

	symbol := a.cfg.Loop.Symbol
	candles := market.NewCandleSeries(candleCapacity)
	book := market.NewBook()
	tracker := position.NewTracker(symbol)

	dispatcher := strategy.NewDispatcher(
		a.planParams(),
		book,
		exec,
		tracker,
		deps.TradeLog,
		deps.Notifier,
		position.UpdatePolicy(strings.ToLower(a.cfg.Strategy.PositionUpdates)),
		a.logger,
	)

	wsURL := binance.StreamURL(a.cfg.Binance.WSHost, symbol, a.cfg.Loop.KlineInterval)
	marketFeed := feed.NewMarketFeed(wsURL, symbol, candles, book, deps.MarketCache, deps.Notifier, a.logger)

	controller := NewController(ControllerConfig{
		Symbol:     symbol,
		Warmup:     a.cfg.Loop.Warmup.Duration,
		Cadence:    a.cfg.Loop.Cadence.Duration,
		Candles:    candles,
		Book:       book,
		Dispatcher: dispatcher,
		Tracker:    tracker,
		Cache:      deps.MarketCache,
		Bus:        deps.SignalBus,
		Notifier:   deps.Notifier,
		Logger:     a.logger,
	})

	if err := deps.Notifier.Startup(ctx, symbol,
		fmt.Sprintf("mode=%s cadence=%s", a.cfg.Mode, a.cfg.Loop.Cadence.Duration),
	); err != nil {
		a.logger.Debug("startup notification failed", slog.String("error", err.Error()))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer marketFeed.Close()
		return marketFeed.Run(ctx)
	})

	g.Go(func() error {
		return controller.Run(ctx)
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			return a.runArchiveLoop(ctx, deps.Archiver)
		})
	}

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// buildExecutor selects the order executor for the configured mode. Both
// variants are wrapped with a per-submit timeout so a stuck venue call cannot
// stall the control loop.
func (a *App) buildExecutor() (domain.OrderExecutor, error) {
	var inner domain.OrderExecutor

	switch strings.ToLower(a.cfg.Mode) {
	case "trade":
		secret, err := crypto.LoadSecret(crypto.SecretConfig{
			RawSecret:           a.cfg.Binance.APISecret,
			EncryptedSecretPath: a.cfg.Binance.EncryptedSecretPath,
			Password:            a.cfg.Binance.SecretPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("load api secret: %w", err)
		}
		auth := &crypto.HMACAuth{Key: a.cfg.Binance.APIKey, Secret: secret}
		rest := binance.NewRESTClient(a.cfg.Binance.RESTHost, auth)
		inner = executor.NewLive(rest, a.logger)
	case "paper":
		inner = executor.NewPaper(a.logger)
	default:
		return nil, fmt.Errorf("unsupported mode %q", a.cfg.Mode)
	}

	return executor.WithTimeout(inner, a.cfg.Loop.OrderTimeout.Duration), nil
}

func (a *App) planParams() strategy.PlanParams {
	return strategy.PlanParams{
		Symbol:           a.cfg.Loop.Symbol,
		NotionalPerOrder: a.cfg.Strategy.NotionalPerOrder,
		LadderRungs:      a.cfg.Strategy.LadderRungs,
		LadderStepPct:    a.cfg.Strategy.LadderStepPct,
		QuoteOffsetPct:   a.cfg.Strategy.QuoteOffsetPct,
		GridStepPct:      a.cfg.Strategy.GridStepPct,
	}
}

// runArchiveLoop periodically moves trade rows older than the retention
// window into object storage. One run happens immediately at startup so a
// bot restarted after downtime catches up without waiting a full interval.
func (a *App) runArchiveLoop(ctx context.Context, archiver domain.Archiver) error {
	interval := a.cfg.Archive.Interval.Duration
	retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour

	runOnce := func() {
		cutoff := time.Now().UTC().Add(-retention)
		archived, err := archiver.ArchiveTrades(ctx, cutoff)
		if err != nil {
			a.logger.ErrorContext(ctx, "trade archival failed",
				slog.Time("cutoff", cutoff),
				slog.String("error", err.Error()),
			)
			return
		}
		if archived > 0 {
			a.logger.InfoContext(ctx, "trade archival complete",
				slog.Int64("archived", archived),
				slog.Time("cutoff", cutoff),
			)
		}
	}

	runOnce()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			runOnce()
		}
	}
}
