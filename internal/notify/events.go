package notify

import (
	"context"
	"fmt"

	"github.com/quantfold/trendbot/internal/domain"
)

// Event types the bot emits. Configure notify.events with a subset to
// filter, or leave it empty to receive everything.
const (
	EventSignalFlip   = "signal_flip"
	EventOrderFailure = "order_failure"
	EventFeedDown     = "feed_down"
)

// Startup announces a bot start. It bypasses the event filter so operators
// always see restarts.
func (n *Notifier) Startup(ctx context.Context, symbol, detail string) error {
	return n.NotifyAll(ctx, fmt.Sprintf("Bot starting: %s", symbol), detail)
}

// SignalFlip reports a change in the computed market signal.
func (n *Notifier) SignalFlip(ctx context.Context, symbol string, from, to domain.Signal) error {
	return n.Notify(ctx, EventSignalFlip,
		fmt.Sprintf("Signal flip: %s", symbol),
		fmt.Sprintf("%s -> %s", from, to),
	)
}

// OrderFailure reports a rejected or errored order submission.
func (n *Notifier) OrderFailure(ctx context.Context, intent domain.OrderIntent, reason string) error {
	return n.Notify(ctx, EventOrderFailure,
		fmt.Sprintf("Order failed: %s", intent.Symbol),
		fmt.Sprintf("%s %.8f @ %.8f: %s", intent.Side, intent.Quantity, intent.Price, reason),
	)
}

// FeedDown reports a dropped market data connection. The feed reconnects on
// its own; this is purely an operator heads-up.
func (n *Notifier) FeedDown(ctx context.Context, symbol string, cause error) error {
	return n.Notify(ctx, EventFeedDown,
		fmt.Sprintf("Market feed down: %s", symbol),
		fmt.Sprintf("connection dropped, reconnecting: %v", cause),
	)
}
