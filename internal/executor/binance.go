// Package executor implements the order executors behind the dispatcher:
// live exchange submission, a paper-trading simulator, and a timeout wrapper.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/quantfold/trendbot/internal/domain"
	"github.com/quantfold/trendbot/internal/platform/binance"
)

// OrderPlacer is the slice of the REST client the live executor needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, it domain.OrderIntent) (binance.OrderResponse, error)
}

// Live submits orders to the exchange. A venue-side rejection comes back as
// an unsuccessful result; transport and encoding failures come back as
// errors.
type Live struct {
	client OrderPlacer
	logger *slog.Logger
}

// NewLive creates a live executor on top of the REST client.
func NewLive(client OrderPlacer, logger *slog.Logger) *Live {
	return &Live{
		client: client,
		logger: logger.With(slog.String("component", "live_executor")),
	}
}

var _ domain.OrderExecutor = (*Live)(nil)

// Submit places the order.
func (l *Live) Submit(ctx context.Context, it domain.OrderIntent) (domain.OrderResult, error) {
	resp, err := l.client.PlaceOrder(ctx, it)
	if err != nil {
		var apiErr *binance.APIError
		if errors.As(err, &apiErr) {
			return domain.OrderResult{
				Success: false,
				Message: apiErr.Error(),
			}, nil
		}
		return domain.OrderResult{}, fmt.Errorf("executor: submit %s: %w", it.ID, err)
	}

	l.logger.Debug("order accepted",
		slog.String("intent_id", it.ID),
		slog.Int64("exchange_order_id", resp.OrderID),
		slog.String("status", resp.Status),
	)
	return domain.OrderResult{
		Success: true,
		OrderID: strconv.FormatInt(resp.OrderID, 10),
		Message: resp.Status,
	}, nil
}
