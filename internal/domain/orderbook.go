package domain

import "time"

// PriceLevel is a single price+quantity entry on one side of the book.
type PriceLevel struct {
	Price    float64
	Quantity float64
}

// DepthUpdate is a full replacement snapshot of both book sides as delivered
// by the depth feed. It is not a delta: the previous book contents are
// discarded wholesale when it is applied.
type DepthUpdate struct {
	Symbol    string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// BookTop is the best-of-book view used by the strategy layer and for
// marking open positions.
type BookTop struct {
	BestBid   float64
	BidQty    float64
	BestAsk   float64
	AskQty    float64
	Mid       float64
	Timestamp time.Time
}
