package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/quantfold/trendbot/internal/domain"
	"github.com/quantfold/trendbot/internal/market"
	"github.com/quantfold/trendbot/internal/platform/binance"
)

type fakeCache struct {
	tops map[string]domain.BookTop
}

func (f *fakeCache) SetTop(_ context.Context, symbol string, top domain.BookTop) error {
	if f.tops == nil {
		f.tops = map[string]domain.BookTop{}
	}
	f.tops[symbol] = top
	return nil
}

func (f *fakeCache) GetTop(context.Context, string) (domain.BookTop, error) {
	return domain.BookTop{}, domain.ErrNotFound
}

func (f *fakeCache) SetSignal(context.Context, string, domain.Signal, time.Time) error {
	return nil
}

func (f *fakeCache) GetSignal(context.Context, string) (domain.Signal, time.Time, error) {
	return domain.SignalNeutral, time.Time{}, domain.ErrNotFound
}

type fakeDownAlerts struct {
	symbols []string
	causes  []error
}

func (f *fakeDownAlerts) FeedDown(_ context.Context, symbol string, cause error) error {
	f.symbols = append(f.symbols, symbol)
	f.causes = append(f.causes, cause)
	return nil
}

func newTestFeed(cache domain.MarketCache) (*MarketFeed, *market.CandleSeries, *market.Book) {
	candles := market.NewCandleSeries(market.DefaultCandleCapacity)
	book := market.NewBook()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := NewMarketFeed("wss://unused", "BTCUSDT", candles, book, cache, nil, logger)
	return f, candles, book
}

func TestHandleKline_OnlyClosedCandles(t *testing.T) {
	f, candles, _ := newTestFeed(nil)

	partial := binance.KlineEvent{Kline: binance.KlinePayload{
		Open: "1", High: "2", Low: "0.5", Close: "1.5", Volume: "10", Final: false,
	}}
	f.handleKline(context.Background(), partial)
	if candles.Len() != 0 {
		t.Fatalf("series length = %d after partial kline, want 0", candles.Len())
	}

	closed := partial
	closed.Kline.Final = true
	f.handleKline(context.Background(), closed)
	if candles.Len() != 1 {
		t.Fatalf("series length = %d after closed kline, want 1", candles.Len())
	}
	if got := candles.SnapshotCloses(); got[0] != 1.5 {
		t.Errorf("close = %v, want 1.5", got[0])
	}
}

func TestHandleKline_MalformedDropped(t *testing.T) {
	f, candles, _ := newTestFeed(nil)
	f.handleKline(context.Background(), binance.KlineEvent{Kline: binance.KlinePayload{
		Open: "garbage", High: "2", Low: "1", Close: "1", Volume: "1", Final: true,
	}})
	if candles.Len() != 0 {
		t.Errorf("series length = %d after malformed kline, want 0", candles.Len())
	}
}

func TestHandleDepth_ReplacesBookAndMirrorsCache(t *testing.T) {
	cache := &fakeCache{}
	f, _, book := newTestFeed(cache)

	f.handleDepth(context.Background(), binance.DepthSnapshot{
		Bids: [][]string{{"99.0", "1"}, {"98.0", "2"}},
		Asks: [][]string{{"101.0", "1"}},
	})

	top, ok := book.Top()
	if !ok {
		t.Fatal("book has no top after depth snapshot")
	}
	if top.BestBid != 99.0 || top.BestAsk != 101.0 || top.Mid != 100.0 {
		t.Errorf("top = %+v", top)
	}

	cached, ok := cache.tops["BTCUSDT"]
	if !ok {
		t.Fatal("cache was not updated")
	}
	if cached.Mid != 100.0 {
		t.Errorf("cached mid = %v, want 100", cached.Mid)
	}

	// The next snapshot replaces, not merges.
	f.handleDepth(context.Background(), binance.DepthSnapshot{
		Bids: [][]string{{"90.0", "1"}},
		Asks: [][]string{{"91.0", "1"}},
	})
	top, _ = book.Top()
	if top.BestBid != 90.0 || top.BestAsk != 91.0 {
		t.Errorf("top after replacement = %+v", top)
	}
}

func TestHandleDisconnect_RaisesAlert(t *testing.T) {
	alerts := &fakeDownAlerts{}
	f, _, _ := newTestFeed(nil)
	f.alerts = alerts

	cause := errors.New("unexpected EOF")
	f.handleDisconnect(context.Background(), cause)

	if len(alerts.symbols) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts.symbols))
	}
	if alerts.symbols[0] != "BTCUSDT" {
		t.Errorf("alert symbol = %q, want BTCUSDT", alerts.symbols[0])
	}
	if !errors.Is(alerts.causes[0], cause) {
		t.Errorf("alert cause = %v, want %v", alerts.causes[0], cause)
	}
}

func TestHandleDisconnect_NilAlerts(t *testing.T) {
	f, _, _ := newTestFeed(nil)
	f.handleDisconnect(context.Background(), errors.New("unexpected EOF"))
}

func TestHandleDepth_MalformedKeepsBook(t *testing.T) {
	f, _, book := newTestFeed(nil)

	f.handleDepth(context.Background(), binance.DepthSnapshot{
		Bids: [][]string{{"99.0", "1"}},
		Asks: [][]string{{"101.0", "1"}},
	})
	f.handleDepth(context.Background(), binance.DepthSnapshot{
		Bids: [][]string{{"broken"}},
	})

	top, ok := book.Top()
	if !ok || top.BestBid != 99.0 {
		t.Errorf("book lost state on malformed snapshot: top=%+v ok=%v", top, ok)
	}
}
