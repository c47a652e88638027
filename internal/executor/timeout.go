package executor

import (
	"context"
	"time"

	"github.com/quantfold/trendbot/internal/domain"
)

// Timeout bounds every Submit call so one stuck venue call cannot stall the
// control loop past its cadence.
type Timeout struct {
	next    domain.OrderExecutor
	timeout time.Duration
}

// WithTimeout wraps next with a per-submit deadline.
func WithTimeout(next domain.OrderExecutor, timeout time.Duration) *Timeout {
	return &Timeout{next: next, timeout: timeout}
}

var _ domain.OrderExecutor = (*Timeout)(nil)

// Submit forwards to the wrapped executor under a deadline.
func (t *Timeout) Submit(ctx context.Context, it domain.OrderIntent) (domain.OrderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Submit(ctx, it)
}
