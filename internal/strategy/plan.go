// Package strategy turns a market signal into order intents and pushes them
// through an executor. Plan construction is pure; Dispatcher owns the side
// effects.
package strategy

import (
	"time"

	"github.com/google/uuid"

	"github.com/quantfold/trendbot/internal/domain"
)

// PlanParams sizes and shapes the order plans.
type PlanParams struct {
	Symbol string

	// NotionalPerOrder is the quote-currency value of every order; quantity
	// is derived as notional/price.
	NotionalPerOrder float64

	// LadderRungs and LadderStepPct shape the directional ladders.
	LadderRungs   int
	LadderStepPct float64

	// QuoteOffsetPct is the half-spread for the biased two-sided quote.
	QuoteOffsetPct float64

	// GridStepPct is the per-level offset of the neutral grid.
	GridStepPct float64
}

// DefaultPlanParams returns the production defaults for symbol.
func DefaultPlanParams(symbol string) PlanParams {
	return PlanParams{
		Symbol:           symbol,
		NotionalPerOrder: 10,
		LadderRungs:      5,
		LadderStepPct:    0.001,
		QuoteOffsetPct:   0.001,
		GridStepPct:      0.002,
	}
}

// gridOffsets brackets the mid without quoting at it.
var gridOffsets = []int{-2, -1, 1, 2}

// BuildPlan maps a signal onto order intents given the current top of book.
//
//   - very bullish: BUY ladder walking down from the best ask
//   - bullish: one BUY and one SELL straddling the mid
//   - neutral: a four-level grid around the mid
//   - bearish and very bearish: SELL ladder walking up from the best bid
//
// The returned slice is empty only for an unknown signal; callers gate on an
// empty book before calling.
func BuildPlan(p PlanParams, sig domain.Signal, top domain.BookTop, now time.Time) []domain.OrderIntent {
	switch sig {
	case domain.SignalVeryBullish:
		return ladder(p, domain.OrderSideBuy, top.BestAsk, -p.LadderStepPct, now)
	case domain.SignalBullish:
		return []domain.OrderIntent{
			intent(p, domain.OrderSideBuy, top.Mid*(1-p.QuoteOffsetPct), now),
			intent(p, domain.OrderSideSell, top.Mid*(1+p.QuoteOffsetPct), now),
		}
	case domain.SignalNeutral:
		out := make([]domain.OrderIntent, 0, len(gridOffsets))
		for _, off := range gridOffsets {
			side := domain.OrderSideBuy
			if off > 0 {
				side = domain.OrderSideSell
			}
			price := top.Mid * (1 + float64(off)*p.GridStepPct)
			out = append(out, intent(p, side, price, now))
		}
		return out
	case domain.SignalBearish, domain.SignalVeryBearish:
		return ladder(p, domain.OrderSideSell, top.BestBid, p.LadderStepPct, now)
	default:
		return nil
	}
}

func ladder(p PlanParams, side domain.OrderSide, start, stepPct float64, now time.Time) []domain.OrderIntent {
	out := make([]domain.OrderIntent, 0, p.LadderRungs)
	for i := 0; i < p.LadderRungs; i++ {
		price := start * (1 + float64(i)*stepPct)
		out = append(out, intent(p, side, price, now))
	}
	return out
}

func intent(p PlanParams, side domain.OrderSide, price float64, now time.Time) domain.OrderIntent {
	return domain.OrderIntent{
		ID:        uuid.NewString(),
		Symbol:    p.Symbol,
		Side:      side,
		Quantity:  p.NotionalPerOrder / price,
		Price:     price,
		CreatedAt: now,
	}
}
