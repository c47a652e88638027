// Package market holds the shared mutable market state: the rolling candle
// history and the latest-depth order book. Each store is guarded by its own
// lock and exposes only atomic mutation and copy-out snapshot operations, so
// no caller ever holds a reference into the internal buffers.
package market

import (
	"sync"

	"github.com/quantfold/trendbot/internal/domain"
)

// DefaultCandleCapacity bounds the rolling history kept per symbol/interval.
const DefaultCandleCapacity = 1000

// CandleSeries is a fixed-capacity ring of closed candles, oldest evicted
// first. Appends and snapshots are safe to call from different goroutines.
type CandleSeries struct {
	mu   sync.Mutex
	buf  []domain.Candle
	head int // index of the oldest element
	size int
}

// NewCandleSeries creates an empty series. A non-positive capacity falls
// back to DefaultCandleCapacity.
func NewCandleSeries(capacity int) *CandleSeries {
	if capacity <= 0 {
		capacity = DefaultCandleCapacity
	}
	return &CandleSeries{buf: make([]domain.Candle, capacity)}
}

// Append adds one closed candle, evicting the oldest when at capacity.
// The ring never reallocates, so appends are O(1).
func (s *CandleSeries) Append(c domain.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size < len(s.buf) {
		s.buf[(s.head+s.size)%len(s.buf)] = c
		s.size++
		return
	}
	s.buf[s.head] = c
	s.head = (s.head + 1) % len(s.buf)
}

// Len returns the number of candles currently held.
func (s *CandleSeries) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// SnapshotCloses copies out the close prices in insertion order. The copy is
// taken under the lock, so a concurrent Append can never tear an element or
// change the length mid-read.
func (s *CandleSeries) SnapshotCloses() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	closes := make([]float64, s.size)
	for i := 0; i < s.size; i++ {
		closes[i] = s.buf[(s.head+i)%len(s.buf)].Close
	}
	return closes
}

// Snapshot copies out the full candles in insertion order.
func (s *CandleSeries) Snapshot() []domain.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Candle, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}
