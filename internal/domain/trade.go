package domain

import (
	"context"
	"time"
)

// TradeRecord is one trade-log entry, written once per dispatched intent.
type TradeRecord struct {
	ID        string
	Symbol    string
	Side      OrderSide
	Price     float64
	Quantity  float64
	Timestamp time.Time
}

// TradeLog is a best-effort sink for trade records. Append failures are
// reported to the caller for logging but are never fatal.
type TradeLog interface {
	Append(ctx context.Context, rec TradeRecord) error
}
