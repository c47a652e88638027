// Package position tracks open inventory and PnL for one symbol.
package position

import (
	"sync"

	"github.com/quantfold/trendbot/internal/domain"
)

// UpdatePolicy selects when a dispatched intent mutates the position.
type UpdatePolicy string

const (
	// UpdateOptimistic applies every intent regardless of executor outcome.
	UpdateOptimistic UpdatePolicy = "optimistic"
	// UpdateConfirmed applies only intents the executor accepted.
	UpdateConfirmed UpdatePolicy = "confirmed"
)

// Valid reports whether p is a known policy.
func (p UpdatePolicy) Valid() bool {
	return p == UpdateOptimistic || p == UpdateConfirmed
}

// Tracker owns the Position for one symbol. Today it is only mutated from
// the control loop, but it is lock-guarded so strategy execution can be
// parallelized across symbols without revisiting this type.
type Tracker struct {
	mu     sync.Mutex
	symbol string
	pos    domain.Position
}

// NewTracker creates a flat tracker for symbol.
func NewTracker(symbol string) *Tracker {
	return &Tracker{symbol: symbol}
}

// Symbol returns the tracked symbol.
func (t *Tracker) Symbol() string {
	return t.symbol
}

// Apply folds one fill into the position.
func (t *Tracker) Apply(side domain.OrderSide, qty, price float64) {
	t.mu.Lock()
	t.pos.Apply(side, qty, price)
	t.mu.Unlock()
}

// Snapshot returns a copy of the current position.
func (t *Tracker) Snapshot() domain.Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// UnrealizedPnL values the open quantity at markPrice.
func (t *Tracker) UnrealizedPnL(markPrice float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos.UnrealizedPnL(markPrice)
}
