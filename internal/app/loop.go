package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/quantfold/trendbot/internal/domain"
	"github.com/quantfold/trendbot/internal/market"
	"github.com/quantfold/trendbot/internal/notify"
	"github.com/quantfold/trendbot/internal/position"
	"github.com/quantfold/trendbot/internal/signal"
)

// Redis channel and stream names for per-cycle decision events.
const (
	signalChannel = "signals"
	signalStream  = "signals"
)

// PlanDispatcher turns a signal into submitted orders for the current book.
type PlanDispatcher interface {
	Dispatch(ctx context.Context, sig domain.Signal) error
}

// ControllerConfig collects everything the control loop needs. Cache, Bus,
// and Notifier are optional.
type ControllerConfig struct {
	Symbol     string
	Warmup     time.Duration
	Cadence    time.Duration
	Candles    *market.CandleSeries
	Book       *market.Book
	Dispatcher PlanDispatcher
	Tracker    *position.Tracker
	Cache      domain.MarketCache
	Bus        domain.SignalBus
	Notifier   *notify.Notifier
	Logger     *slog.Logger
}

// Controller is the periodic decision loop: every cadence tick it derives a
// signal from the accumulated closes, dispatches the matching order plan, and
// reports position and PnL. It holds no market state of its own; the feed
// goroutine owns the candle series and book.
type Controller struct {
	cfg    ControllerConfig
	logger *slog.Logger
	last   domain.Signal
}

// NewController creates a control loop from cfg.
func NewController(cfg ControllerConfig) *Controller {
	return &Controller{
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("component", "controller")),
	}
}

// Run blocks until ctx is cancelled. The initial warmup delay lets the feed
// accumulate enough closes for the detector before the first cycle.
func (c *Controller) Run(ctx context.Context) error {
	if c.cfg.Warmup > 0 {
		c.logger.Info("warming up",
			slog.String("symbol", c.cfg.Symbol),
			slog.Duration("warmup", c.cfg.Warmup),
		)
		timer := time.NewTimer(c.cfg.Warmup)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(c.cfg.Cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.runCycle(ctx); err != nil {
				return err
			}
		}
	}
}

// runCycle executes one decision cycle. Only context cancellation is
// returned as an error; everything else is logged and the loop keeps going.
func (c *Controller) runCycle(ctx context.Context) error {
	closes := c.cfg.Candles.SnapshotCloses()
	sig := signal.Detect(closes)

	if c.last != "" && sig != c.last {
		c.logger.Info("signal flip",
			slog.String("symbol", c.cfg.Symbol),
			slog.String("from", string(c.last)),
			slog.String("to", string(sig)),
		)
		if c.cfg.Notifier != nil {
			if err := c.cfg.Notifier.SignalFlip(ctx, c.cfg.Symbol, c.last, sig); err != nil {
				c.logger.Debug("signal flip notification failed", slog.String("error", err.Error()))
			}
		}
	}
	c.last = sig

	if err := c.cfg.Dispatcher.Dispatch(ctx, sig); err != nil {
		return err
	}

	pos := c.cfg.Tracker.Snapshot()
	var unrealized float64
	// Mark at the best bid: what the position would fetch if closed now.
	if bid, ok := c.cfg.Book.BestBid(); ok {
		unrealized = c.cfg.Tracker.UnrealizedPnL(bid.Price)
	}

	c.logger.Info("cycle complete",
		slog.String("symbol", c.cfg.Symbol),
		slog.String("signal", string(sig)),
		slog.Int("closes", len(closes)),
		slog.Float64("quantity", pos.Quantity),
		slog.Float64("avg_entry", pos.AvgEntryPrice),
		slog.Float64("realized_pnl", pos.RealizedPnL),
		slog.Float64("unrealized_pnl", unrealized),
	)

	c.publish(ctx, sig, pos, unrealized)
	return nil
}

// cycleEvent is the JSON payload published to the signal bus each cycle.
type cycleEvent struct {
	Symbol        string    `json:"symbol"`
	Signal        string    `json:"signal"`
	Mid           float64   `json:"mid,omitempty"`
	Quantity      float64   `json:"quantity"`
	AvgEntry      float64   `json:"avg_entry"`
	RealizedPnL   float64   `json:"realized_pnl"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	Timestamp     time.Time `json:"timestamp"`
}

// publish mirrors the cycle outcome to Redis on a best-effort basis.
func (c *Controller) publish(ctx context.Context, sig domain.Signal, pos domain.Position, unrealized float64) {
	now := time.Now().UTC()

	if c.cfg.Cache != nil {
		if err := c.cfg.Cache.SetSignal(ctx, c.cfg.Symbol, sig, now); err != nil {
			c.logger.Debug("signal cache write failed", slog.String("error", err.Error()))
		}
	}

	if c.cfg.Bus == nil {
		return
	}
	ev := cycleEvent{
		Symbol:        c.cfg.Symbol,
		Signal:        string(sig),
		Quantity:      pos.Quantity,
		AvgEntry:      pos.AvgEntryPrice,
		RealizedPnL:   pos.RealizedPnL,
		UnrealizedPnL: unrealized,
		Timestamp:     now,
	}
	if top, ok := c.cfg.Book.Top(); ok {
		ev.Mid = top.Mid
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		c.logger.Debug("cycle event marshal failed", slog.String("error", err.Error()))
		return
	}
	if err := c.cfg.Bus.Publish(ctx, signalChannel, payload); err != nil {
		c.logger.Debug("cycle event publish failed", slog.String("error", err.Error()))
	}
	if err := c.cfg.Bus.StreamAppend(ctx, signalStream, payload); err != nil {
		c.logger.Debug("cycle event stream append failed", slog.String("error", err.Error()))
	}
}
