package strategy

import (
	"context"
	"log/slog"
	"time"

	"github.com/quantfold/trendbot/internal/domain"
	"github.com/quantfold/trendbot/internal/position"
)

// TopSource yields the current top of book; ok is false when either side of
// the book is empty.
type TopSource interface {
	Top() (domain.BookTop, bool)
}

// FailureNotifier receives an alert for every order the venue refused.
type FailureNotifier interface {
	OrderFailure(ctx context.Context, intent domain.OrderIntent, reason string) error
}

// Dispatcher executes the plan for each signal against the live book.
type Dispatcher struct {
	params   PlanParams
	book     TopSource
	executor domain.OrderExecutor
	tracker  *position.Tracker
	tradeLog domain.TradeLog
	alerts   FailureNotifier
	policy   position.UpdatePolicy
	logger   *slog.Logger
}

// NewDispatcher wires a dispatcher. tradeLog and alerts may be nil to disable
// recording and failure notifications respectively.
func NewDispatcher(
	params PlanParams,
	book TopSource,
	executor domain.OrderExecutor,
	tracker *position.Tracker,
	tradeLog domain.TradeLog,
	alerts FailureNotifier,
	policy position.UpdatePolicy,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		params:   params,
		book:     book,
		executor: executor,
		tracker:  tracker,
		tradeLog: tradeLog,
		alerts:   alerts,
		policy:   policy,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch builds and submits the order plan for sig. A thin or one-sided
// book makes the cycle a no-op. Individual order failures are logged and do
// not abort the remaining rungs; only context cancellation stops the sweep.
func (d *Dispatcher) Dispatch(ctx context.Context, sig domain.Signal) error {
	top, ok := d.book.Top()
	if !ok {
		d.logger.Debug("book empty, skipping dispatch", slog.String("signal", string(sig)))
		return nil
	}

	plan := BuildPlan(d.params, sig, top, time.Now().UTC())
	for _, it := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := d.executor.Submit(ctx, it)
		accepted := err == nil && res.Success
		if !accepted {
			reason := submitFailure(res, err)
			d.logger.Warn("order submit failed",
				slog.String("intent_id", it.ID),
				slog.String("side", string(it.Side)),
				slog.Float64("price", it.Price),
				slog.String("reason", reason),
			)
			if d.alerts != nil {
				if nerr := d.alerts.OrderFailure(ctx, it, reason); nerr != nil {
					d.logger.Debug("order failure notification failed", slog.String("error", nerr.Error()))
				}
			}
		}
		if d.policy == position.UpdateOptimistic || accepted {
			d.tracker.Apply(it.Side, it.Quantity, it.Price)
			d.record(ctx, it)
		}
	}
	d.logger.Info("dispatched plan",
		slog.String("signal", string(sig)),
		slog.Int("orders", len(plan)),
		slog.Float64("mid", top.Mid),
	)
	return nil
}

func (d *Dispatcher) record(ctx context.Context, it domain.OrderIntent) {
	if d.tradeLog == nil {
		return
	}
	rec := domain.TradeRecord{
		ID:        it.ID,
		Symbol:    it.Symbol,
		Side:      it.Side,
		Price:     it.Price,
		Quantity:  it.Quantity,
		Timestamp: it.CreatedAt,
	}
	if err := d.tradeLog.Append(ctx, rec); err != nil {
		d.logger.Warn("trade log append failed", slog.String("error", err.Error()))
	}
}

func submitFailure(res domain.OrderResult, err error) string {
	if err != nil {
		return err.Error()
	}
	return res.Message
}
