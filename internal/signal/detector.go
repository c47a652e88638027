// Package signal derives a categorical market direction from a rolling
// window of close prices. Detect is a pure function: same closes in, same
// signal out, no I/O.
package signal

import (
	"math"

	"github.com/quantfold/trendbot/internal/domain"
)

const (
	// minObservations is the insufficient-data floor: fewer closes always
	// yield a neutral signal.
	minObservations = 20

	// rocLookback is the rate-of-change window in candles. minObservations
	// guarantees the lookback index is valid.
	rocLookback = 10

	// slopeDenomFloor guards the regression denominator against degenerate
	// input.
	slopeDenomFloor = 1e-8

	veryBullishScore = 5.0
	bullishScore     = 1.5
	bearishScore     = -1.5
	veryBearishScore = -5.0

	// dampenRatio is the stddev/mean level above which the score is damped.
	dampenRatio  = 0.01
	dampenFactor = 0.8
)

// Detect classifies the trend in closes. The composite score combines a
// clamped least-squares slope, mean-relative momentum, and the 10-candle
// rate of change, damped when relative volatility exceeds 1%.
func Detect(closes []float64) domain.Signal {
	score, ok := Score(closes)
	if !ok {
		return domain.SignalNeutral
	}
	switch {
	case score > veryBullishScore:
		return domain.SignalVeryBullish
	case score > bullishScore:
		return domain.SignalBullish
	case score < veryBearishScore:
		return domain.SignalVeryBearish
	case score < bearishScore:
		return domain.SignalBearish
	default:
		return domain.SignalNeutral
	}
}

// Score computes the raw composite score. ok is false when there are too few
// observations to form an opinion.
func Score(closes []float64) (float64, bool) {
	n := len(closes)
	if n < minObservations {
		return 0, false
	}

	// Ordinary least squares slope of close against index 0..n-1.
	var sumX, sumY, sumXY, sumX2 float64
	for i, c := range closes {
		x := float64(i)
		sumX += x
		sumY += c
		sumXY += x * c
		sumX2 += x * x
	}
	fn := float64(n)
	denom := math.Max(fn*sumX2-sumX*sumX, slopeDenomFloor)
	slope := (fn*sumXY - sumX*sumY) / denom

	mean := sumY / fn
	var sqSum float64
	for _, c := range closes {
		d := c - mean
		sqSum += d * d
	}
	stddev := math.Sqrt(sqSum / fn) // population stddev

	momentum := closes[n-1] - closes[0]
	rocBase := closes[n-rocLookback]
	roc := (closes[n-1] - rocBase) / rocBase

	score := clamp(slope*100, -2, 2)
	score += (momentum / mean) * 2
	score += roc * 100

	if stddev/mean > dampenRatio {
		score *= dampenFactor
	}
	return score, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
