package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/quantfold/trendbot/internal/domain"
)

// Paper is an executor that fills everything instantly without touching the
// exchange. It validates intents the way the venue would reject obvious
// garbage, so paper runs still exercise the rejection paths.
type Paper struct {
	seq    atomic.Int64
	logger *slog.Logger
}

// NewPaper creates a paper executor.
func NewPaper(logger *slog.Logger) *Paper {
	return &Paper{
		logger: logger.With(slog.String("component", "paper_executor")),
	}
}

var _ domain.OrderExecutor = (*Paper)(nil)

// Submit accepts the order and assigns a synthetic order ID.
func (p *Paper) Submit(ctx context.Context, it domain.OrderIntent) (domain.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.OrderResult{}, err
	}
	if it.Quantity <= 0 || it.Price <= 0 {
		return domain.OrderResult{
			Success: false,
			Message: fmt.Sprintf("invalid order: qty=%v price=%v", it.Quantity, it.Price),
		}, nil
	}

	id := fmt.Sprintf("paper-%d", p.seq.Add(1))
	p.logger.Debug("paper fill",
		slog.String("intent_id", it.ID),
		slog.String("order_id", id),
		slog.String("side", string(it.Side)),
		slog.Float64("price", it.Price),
		slog.Float64("qty", it.Quantity),
	)
	return domain.OrderResult{Success: true, OrderID: id, Message: "FILLED"}, nil
}
