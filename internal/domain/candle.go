package domain

import "time"

// Candle is a single fully closed OHLCV candle. Partial (still forming)
// candles never enter the system; the candle feed drops them upstream.
type Candle struct {
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	OpenTime time.Time
}
