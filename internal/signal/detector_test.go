package signal

import (
	"testing"

	"github.com/quantfold/trendbot/internal/domain"
)

// ramp builds n closes starting at base, changing by step each candle.
func ramp(base, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base + step*float64(i)
	}
	return out
}

func TestDetect_InsufficientDataIsNeutral(t *testing.T) {
	for _, n := range []int{0, 1, 10, 19} {
		closes := ramp(100, 5, n) // steep trend, but too short
		if got := Detect(closes); got != domain.SignalNeutral {
			t.Errorf("Detect(%d closes) = %q, want neutral", n, got)
		}
	}
}

func TestDetect_Classification(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   domain.Signal
	}{
		// Steep ramp: slope clamps at +2, ROC dominates, damped by
		// volatility but still far above the very-bullish threshold.
		{"steep uptrend", ramp(100, 1, 20), domain.SignalVeryBullish},
		{"steep downtrend", ramp(119, -1, 20), domain.SignalVeryBearish},
		// Gentle ramp: slope term clamps at 2, momentum and ROC stay small,
		// relative volatility is below the dampening cutoff.
		{"gentle uptrend", ramp(100, 0.05, 20), domain.SignalBullish},
		{"gentle downtrend", ramp(100.95, -0.05, 20), domain.SignalBearish},
		{"flat", ramp(100, 0, 20), domain.SignalNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.closes); got != tt.want {
				score, _ := Score(tt.closes)
				t.Errorf("Detect() = %q (score %.3f), want %q", got, score, tt.want)
			}
		})
	}
}

func TestDetect_DeterministicForSameInput(t *testing.T) {
	closes := ramp(250, 0.3, 40)
	first := Detect(closes)
	for i := 0; i < 5; i++ {
		if got := Detect(closes); got != first {
			t.Fatalf("Detect() not deterministic: %q then %q", first, got)
		}
	}
}

func TestScore_DegenerateInputDoesNotBlowUp(t *testing.T) {
	// Identical closes give a zero regression numerator; the denominator
	// floor keeps the slope finite.
	score, ok := Score(ramp(50, 0, 25))
	if !ok {
		t.Fatal("Score() ok = false for 25 closes")
	}
	if score != 0 {
		t.Errorf("Score(flat) = %v, want 0", score)
	}
}

func TestScore_VolatilityDampening(t *testing.T) {
	// A steep ramp has relative stddev well above the cutoff, a gentle one
	// stays below it. The steep score must carry the 0.8 factor.
	calm := ramp(100, 0.05, 20)
	calmScore, _ := Score(calm)

	// Scale the same shape so stddev/mean crosses the cutoff: multiply the
	// step so relative volatility grows while slope stays clamped.
	volatile := ramp(100, 1, 20)
	volScore, _ := Score(volatile)

	if calmScore <= 0 || volScore <= 0 {
		t.Fatalf("expected positive scores, got calm=%v volatile=%v", calmScore, volScore)
	}
	// The volatile ramp has stddev/mean ≈ 0.053 > 0.01, so its score must
	// include the dampening factor. Recompute its undamped value by hand:
	// slope term 2 + momentum 19/109.5*2 + roc (9/110)*100.
	undamped := 2.0 + (19.0/109.5)*2 + (9.0/110.0)*100
	want := undamped * 0.8
	if diff := volScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Score(volatile) = %v, want damped %v", volScore, want)
	}
}
