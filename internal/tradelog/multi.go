package tradelog

import (
	"context"
	"log/slog"

	"github.com/quantfold/trendbot/internal/domain"
)

// Multi fans each record out to every sink. One failing sink never blocks the
// others; failures are logged and the first error is returned so callers can
// count them.
type Multi struct {
	sinks  []domain.TradeLog
	logger *slog.Logger
}

// NewMulti creates a fan-out over sinks. Nil sinks are skipped.
func NewMulti(logger *slog.Logger, sinks ...domain.TradeLog) *Multi {
	kept := make([]domain.TradeLog, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Multi{
		sinks:  kept,
		logger: logger.With(slog.String("component", "tradelog")),
	}
}

var _ domain.TradeLog = (*Multi)(nil)

// Append delivers rec to every sink.
func (m *Multi) Append(ctx context.Context, rec domain.TradeRecord) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Append(ctx, rec); err != nil {
			m.logger.Warn("trade log sink failed",
				slog.String("trade_id", rec.ID),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
