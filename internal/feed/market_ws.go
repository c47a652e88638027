// Package feed connects the exchange market data streams to the in-process
// market state.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quantfold/trendbot/internal/domain"
	"github.com/quantfold/trendbot/internal/market"
	"github.com/quantfold/trendbot/internal/platform/binance"
)

// DownNotifier receives an alert when the stream connection drops.
type DownNotifier interface {
	FeedDown(ctx context.Context, symbol string, cause error) error
}

// MarketFeed consumes the combined kline+depth stream for one symbol. Closed
// candles land in the candle series, depth snapshots replace the book
// wholesale, and the freshest top of book is mirrored to the market cache on
// a best-effort basis.
type MarketFeed struct {
	wsURL   string
	symbol  string
	candles *market.CandleSeries
	book    *market.Book
	cache   domain.MarketCache // may be nil
	alerts  DownNotifier       // may be nil
	logger  *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewMarketFeed creates a feed for symbol. cache and alerts may be nil to
// disable mirroring and disconnect alerts.
func NewMarketFeed(wsURL, symbol string, candles *market.CandleSeries, book *market.Book, cache domain.MarketCache, alerts DownNotifier, logger *slog.Logger) *MarketFeed {
	return &MarketFeed{
		wsURL:   wsURL,
		symbol:  symbol,
		candles: candles,
		book:    book,
		cache:   cache,
		alerts:  alerts,
		logger:  logger.With(slog.String("component", "market_feed")),
		done:    make(chan struct{}),
	}
}

// Run connects and blocks until ctx is cancelled or Close is called. The
// underlying client reconnects with backoff on its own, so one connection
// attempt failing at startup is the only error surfaced here.
func (f *MarketFeed) Run(ctx context.Context) error {
	client := binance.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnKline(func(ev binance.KlineEvent) {
		f.handleKline(ctx, ev)
	})
	client.OnDepth(func(snap binance.DepthSnapshot) {
		f.handleDepth(ctx, snap)
	})
	client.OnDisconnect(func(cause error) {
		f.handleDisconnect(ctx, cause)
	})

	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := client.Connect(connCtx)
	cancel()
	if err != nil {
		return err
	}
	f.logger.Info("market feed connected", slog.String("symbol", f.symbol))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.done:
		return nil
	}
}

// Close stops the feed.
func (f *MarketFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

// handleKline appends a candle once it is closed. Partial candles are
// dropped so a candle is observed exactly once.
func (f *MarketFeed) handleKline(_ context.Context, ev binance.KlineEvent) {
	if !ev.Kline.Final {
		return
	}
	candle, err := ev.Kline.ToDomainCandle()
	if err != nil {
		f.logger.Debug("dropping malformed kline", slog.String("error", err.Error()))
		return
	}
	f.candles.Append(candle)
}

// handleDisconnect logs the drop and raises a best-effort alert. The client
// reconnects on its own, so no recovery happens here.
func (f *MarketFeed) handleDisconnect(ctx context.Context, cause error) {
	f.logger.Warn("market feed disconnected, reconnecting",
		slog.String("symbol", f.symbol),
		slog.String("error", cause.Error()),
	)
	if f.alerts == nil {
		return
	}
	if err := f.alerts.FeedDown(ctx, f.symbol, cause); err != nil {
		f.logger.Debug("feed down notification failed", slog.String("error", err.Error()))
	}
}

func (f *MarketFeed) handleDepth(ctx context.Context, snap binance.DepthSnapshot) {
	upd, err := snap.ToDomainUpdate(f.symbol, time.Now().UTC())
	if err != nil {
		f.logger.Debug("dropping malformed depth snapshot", slog.String("error", err.Error()))
		return
	}
	f.book.Replace(upd.Bids, upd.Asks)

	if f.cache == nil {
		return
	}
	top, ok := f.book.Top()
	if !ok {
		return
	}
	if err := f.cache.SetTop(ctx, f.symbol, top); err != nil {
		f.logger.Debug("market cache write failed", slog.String("error", err.Error()))
	}
}
