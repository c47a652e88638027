package domain

import (
	"context"
	"time"
)

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderIntent is a single priced limit order produced by the strategy
// dispatcher. Intents are ephemeral: they are submitted to the executor
// immediately and never stored.
type OrderIntent struct {
	ID        string // UUID, for log correlation
	Symbol    string
	Side      OrderSide
	Quantity  float64
	Price     float64
	CreatedAt time.Time
}

// Notional returns the quote-currency value of the intent.
func (o OrderIntent) Notional() float64 {
	return o.Quantity * o.Price
}

// OrderResult wraps the exchange response after order submission.
type OrderResult struct {
	Success bool
	OrderID string
	Message string
}

// OrderExecutor accepts order intents and performs the exchange call.
// Implementations may fail or time out; a failure must never crash the
// caller's control loop.
type OrderExecutor interface {
	Submit(ctx context.Context, intent OrderIntent) (OrderResult, error)
}
