package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/quantfold/trendbot/internal/domain"
)

type fakeSender struct {
	name   string
	err    error
	titles []string
	bodies []string
}

func (f *fakeSender) Send(_ context.Context, title, message string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, message)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotify_EventFilter(t *testing.T) {
	s := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{s}, []string{" Signal_Flip ", "order_failure"}, testLogger())

	if err := n.Notify(context.Background(), EventSignalFlip, "flip", "up"); err != nil {
		t.Fatalf("Notify(allowed) error = %v", err)
	}
	if err := n.Notify(context.Background(), EventFeedDown, "down", "eof"); err != nil {
		t.Fatalf("Notify(suppressed) error = %v", err)
	}
	if len(s.titles) != 1 || s.titles[0] != "flip" {
		t.Errorf("delivered titles = %v, want [flip]", s.titles)
	}
}

func TestNotify_EmptyFilterAllowsEverything(t *testing.T) {
	s := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{s}, nil, testLogger())

	if err := n.Notify(context.Background(), EventFeedDown, "down", "eof"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(s.titles) != 1 {
		t.Errorf("delivered %d alerts, want 1", len(s.titles))
	}
}

func TestNotifyAll_BypassesFilter(t *testing.T) {
	s := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{s}, []string{EventOrderFailure}, testLogger())

	if err := n.Startup(context.Background(), "BTCUSDT", "mode=paper"); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}
	if len(s.titles) != 1 {
		t.Fatalf("delivered %d alerts, want 1", len(s.titles))
	}
	if s.titles[0] != "Bot starting: BTCUSDT" {
		t.Errorf("title = %q", s.titles[0])
	}
}

func TestBroadcast_ContinuesPastFailingChannel(t *testing.T) {
	boom := errors.New("webhook gone")
	bad := &fakeSender{name: "discord", err: boom}
	good := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.NotifyAll(context.Background(), "title", "body")
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
	if len(good.titles) != 1 {
		t.Errorf("healthy channel got %d alerts, want 1", len(good.titles))
	}
}

func TestOrderFailure_FormatsIntent(t *testing.T) {
	s := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{s}, nil, testLogger())

	intent := domain.OrderIntent{Symbol: "BTCUSDT", Side: domain.OrderSideBuy, Price: 100, Quantity: 0.5}
	if err := n.OrderFailure(context.Background(), intent, "insufficient balance"); err != nil {
		t.Fatalf("OrderFailure() error = %v", err)
	}
	if len(s.bodies) != 1 {
		t.Fatalf("delivered %d alerts, want 1", len(s.bodies))
	}
	if !strings.Contains(s.bodies[0], "insufficient balance") {
		t.Errorf("body %q missing rejection reason", s.bodies[0])
	}
	if s.titles[0] != "Order failed: BTCUSDT" {
		t.Errorf("title = %q", s.titles[0])
	}
}
