package domain

import (
	"context"
	"time"
)

// MarketCache exposes the latest book top and computed signal to other
// processes (dashboards, monitors). All writes are best-effort.
type MarketCache interface {
	SetTop(ctx context.Context, symbol string, top BookTop) error
	GetTop(ctx context.Context, symbol string) (BookTop, error)
	SetSignal(ctx context.Context, symbol string, sig Signal, ts time.Time) error
	GetSignal(ctx context.Context, symbol string) (Signal, time.Time, error)
}

// SignalBus publishes per-cycle decision events for external consumers,
// both as fire-and-forget pub/sub and as a capped durable stream.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	StreamAppend(ctx context.Context, stream string, payload []byte) error
}
