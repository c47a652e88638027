package domain

// Signal is the categorical market direction derived from recent closes.
// It is recomputed every control-loop cycle and never persisted as state.
type Signal string

const (
	SignalVeryBullish Signal = "very bullish"
	SignalBullish     Signal = "bullish"
	SignalNeutral     Signal = "neutral"
	SignalBearish     Signal = "bearish"
	SignalVeryBearish Signal = "very bearish"
)

// Bullish reports whether the signal leans long.
func (s Signal) Bullish() bool {
	return s == SignalBullish || s == SignalVeryBullish
}

// Bearish reports whether the signal leans short.
func (s Signal) Bearish() bool {
	return s == SignalBearish || s == SignalVeryBearish
}
