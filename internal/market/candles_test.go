package market

import (
	"sync"
	"testing"

	"github.com/quantfold/trendbot/internal/domain"
)

func TestCandleSeries_AppendBelowCapacity(t *testing.T) {
	s := NewCandleSeries(5)
	for i := 0; i < 3; i++ {
		s.Append(domain.Candle{Close: float64(i + 1)})
	}
	if got := s.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	closes := s.SnapshotCloses()
	want := []float64{1, 2, 3}
	for i, w := range want {
		if closes[i] != w {
			t.Errorf("closes[%d] = %v, want %v", i, closes[i], w)
		}
	}
}

func TestCandleSeries_EvictsOldestAtCapacity(t *testing.T) {
	s := NewCandleSeries(3)
	for i := 1; i <= 5; i++ {
		s.Append(domain.Candle{Close: float64(i)})
	}
	if got := s.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	closes := s.SnapshotCloses()
	want := []float64{3, 4, 5}
	for i, w := range want {
		if closes[i] != w {
			t.Errorf("closes[%d] = %v, want %v (insertion order after eviction)", i, closes[i], w)
		}
	}
}

func TestCandleSeries_SnapshotIsACopy(t *testing.T) {
	s := NewCandleSeries(4)
	s.Append(domain.Candle{Close: 10})
	closes := s.SnapshotCloses()
	closes[0] = 99

	if got := s.SnapshotCloses()[0]; got != 10 {
		t.Errorf("mutating a snapshot leaked into the series: got %v, want 10", got)
	}
}

// A snapshot taken while another goroutine appends must have a consistent
// length and fully written elements. Every appended close is non-zero, so a
// zero element in a snapshot would be a torn read.
func TestCandleSeries_ConcurrentAppendAndSnapshot(t *testing.T) {
	s := NewCandleSeries(64)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 5000; i++ {
			s.Append(domain.Candle{Close: float64(i)})
		}
		close(done)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			closes := s.SnapshotCloses()
			if len(closes) > 64 {
				t.Errorf("snapshot length %d exceeds capacity 64", len(closes))
				return
			}
			for i, c := range closes {
				if c == 0 {
					t.Errorf("snapshot element %d is zero: torn read", i)
					return
				}
			}
			select {
			case <-done:
				return
			default:
			}
		}
	}()

	wg.Wait()
}
