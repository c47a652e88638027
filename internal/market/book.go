package market

import (
	"sort"
	"sync"
	"time"

	"github.com/quantfold/trendbot/internal/domain"
)

// Book is a latest-snapshot cache of the order book for one symbol. Every
// depth update replaces both sides wholesale inside a single critical
// section, so a reader never sees bids from one update paired with asks from
// another. It is not an incremental book.
type Book struct {
	mu        sync.RWMutex
	bids      []domain.PriceLevel // descending by price
	asks      []domain.PriceLevel // ascending by price
	updatedAt time.Time
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{}
}

// Replace discards the previous book contents and installs the given levels.
// Levels with non-positive quantity are dropped, bids are ordered descending
// and asks ascending. The entire swap happens under one lock acquisition.
func (b *Book) Replace(bids, asks []domain.PriceLevel) {
	newBids := filterLevels(bids)
	newAsks := filterLevels(asks)
	sort.Slice(newBids, func(i, j int) bool { return newBids[i].Price > newBids[j].Price })
	sort.Slice(newAsks, func(i, j int) bool { return newAsks[i].Price < newAsks[j].Price })

	b.mu.Lock()
	b.bids = newBids
	b.asks = newAsks
	b.updatedAt = time.Now().UTC()
	b.mu.Unlock()
}

// BestBid returns the highest bid, or ok=false when the bid side is empty.
func (b *Book) BestBid() (domain.PriceLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.bids) == 0 {
		return domain.PriceLevel{}, false
	}
	return b.bids[0], true
}

// BestAsk returns the lowest ask, or ok=false when the ask side is empty.
func (b *Book) BestAsk() (domain.PriceLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.asks) == 0 {
		return domain.PriceLevel{}, false
	}
	return b.asks[0], true
}

// Top returns the best-of-book view, or ok=false when either side is empty.
// Callers must treat an empty book as "no opinion" and skip strategy action.
func (b *Book) Top() (domain.BookTop, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return domain.BookTop{}, false
	}
	bid, ask := b.bids[0], b.asks[0]
	return domain.BookTop{
		BestBid:   bid.Price,
		BidQty:    bid.Quantity,
		BestAsk:   ask.Price,
		AskQty:    ask.Quantity,
		Mid:       (bid.Price + ask.Price) / 2,
		Timestamp: b.updatedAt,
	}, true
}

// Depth copies out both sides in their stored order.
func (b *Book) Depth() (bids, asks []domain.PriceLevel) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bids = append([]domain.PriceLevel(nil), b.bids...)
	asks = append([]domain.PriceLevel(nil), b.asks...)
	return bids, asks
}

func filterLevels(levels []domain.PriceLevel) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(levels))
	for _, lvl := range levels {
		if lvl.Quantity > 0 {
			out = append(out, lvl)
		}
	}
	return out
}
