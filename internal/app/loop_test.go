package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/quantfold/trendbot/internal/domain"
	"github.com/quantfold/trendbot/internal/market"
	"github.com/quantfold/trendbot/internal/position"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDispatcher struct {
	mu      sync.Mutex
	signals []domain.Signal
	err     error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, sig domain.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, sig)
	return f.err
}

func (f *fakeDispatcher) dispatched() []domain.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Signal, len(f.signals))
	copy(out, f.signals)
	return out
}

type fakeBus struct {
	published map[string][][]byte
	streamed  map[string][][]byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		published: make(map[string][][]byte),
		streamed:  make(map[string][][]byte),
	}
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *fakeBus) StreamAppend(_ context.Context, stream string, payload []byte) error {
	b.streamed[stream] = append(b.streamed[stream], payload)
	return nil
}

func appendCandles(s *market.CandleSeries, closes []float64) {
	for i, c := range closes {
		s.Append(domain.Candle{
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			OpenTime: time.Unix(int64(i), 0).UTC(),
		})
	}
}

func risingCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 0.03*float64(i)
	}
	return out
}

func newTestController(d PlanDispatcher, candles *market.CandleSeries, book *market.Book, bus domain.SignalBus) *Controller {
	return NewController(ControllerConfig{
		Symbol:     "BTCUSDT",
		Cadence:    time.Millisecond,
		Candles:    candles,
		Book:       book,
		Dispatcher: d,
		Tracker:    position.NewTracker("BTCUSDT"),
		Bus:        bus,
		Logger:     discardLogger(),
	})
}

func TestRunCycle_DispatchesDetectedSignal(t *testing.T) {
	d := &fakeDispatcher{}
	candles := market.NewCandleSeries(100)
	appendCandles(candles, risingCloses(20))
	book := market.NewBook()
	book.Replace(
		[]domain.PriceLevel{{Price: 100, Quantity: 1}},
		[]domain.PriceLevel{{Price: 101, Quantity: 1}},
	)

	c := newTestController(d, candles, book, nil)
	if err := c.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle() error = %v", err)
	}

	got := d.dispatched()
	if len(got) != 1 || got[0] != domain.SignalBullish {
		t.Errorf("dispatched = %v, want [bullish]", got)
	}
}

func TestRunCycle_TracksSignalFlips(t *testing.T) {
	d := &fakeDispatcher{}
	candles := market.NewCandleSeries(100)
	book := market.NewBook()

	c := newTestController(d, candles, book, nil)

	// Too few closes: neutral.
	if err := c.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle() error = %v", err)
	}
	if c.last != domain.SignalNeutral {
		t.Fatalf("last = %q, want neutral", c.last)
	}

	// Enough rising closes: flips to bullish.
	appendCandles(candles, risingCloses(20))
	if err := c.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle() error = %v", err)
	}
	if c.last != domain.SignalBullish {
		t.Errorf("last = %q, want bullish after flip", c.last)
	}

	got := d.dispatched()
	want := []domain.Signal{domain.SignalNeutral, domain.SignalBullish}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("dispatched = %v, want %v", got, want)
	}
}

func TestRunCycle_PublishesCycleEvent(t *testing.T) {
	d := &fakeDispatcher{}
	candles := market.NewCandleSeries(100)
	book := market.NewBook()
	book.Replace(
		[]domain.PriceLevel{{Price: 99, Quantity: 1}},
		[]domain.PriceLevel{{Price: 101, Quantity: 1}},
	)
	bus := newFakeBus()

	c := newTestController(d, candles, book, bus)
	if err := c.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle() error = %v", err)
	}

	msgs := bus.published[signalChannel]
	if len(msgs) != 1 {
		t.Fatalf("published %d messages on %q, want 1", len(msgs), signalChannel)
	}
	var ev cycleEvent
	if err := json.Unmarshal(msgs[0], &ev); err != nil {
		t.Fatalf("unmarshal cycle event: %v", err)
	}
	if ev.Symbol != "BTCUSDT" || ev.Signal != string(domain.SignalNeutral) {
		t.Errorf("event = %+v, want BTCUSDT/neutral", ev)
	}
	if ev.Mid != 100 {
		t.Errorf("event mid = %v, want 100", ev.Mid)
	}
	if len(bus.streamed[signalStream]) != 1 {
		t.Errorf("streamed %d messages, want 1", len(bus.streamed[signalStream]))
	}
}

func TestRunCycle_ReturnsDispatchError(t *testing.T) {
	wantErr := errors.New("boom")
	d := &fakeDispatcher{err: wantErr}
	c := newTestController(d, market.NewCandleSeries(10), market.NewBook(), nil)

	if err := c.runCycle(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("runCycle() error = %v, want %v", err, wantErr)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	d := &fakeDispatcher{}
	c := newTestController(d, market.NewCandleSeries(10), market.NewBook(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after cancel")
	}

	if len(d.dispatched()) == 0 {
		t.Error("no cycles ran before cancel")
	}
}
