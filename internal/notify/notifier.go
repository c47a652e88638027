// Package notify pushes operator alerts for the trading loop. Events such as
// signal flips, rejected orders, and feed drops fan out to every configured
// channel (Telegram, Discord) subject to a per-event allow list.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Sender delivers one rendered alert to a single channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	// Name identifies the channel in logs, e.g. "telegram".
	Name() string
}

// Notifier fans alerts out to the configured channels. Helpers like
// SignalFlip and OrderFailure route through Notify and are subject to the
// allow list; NotifyAll skips the list for alerts that must always go out.
type Notifier struct {
	senders []Sender
	allowed map[string]struct{}
	logger  *slog.Logger
}

// NewNotifier builds a Notifier delivering to senders. events is the allow
// list for Notify; an empty list allows every event. Entries are trimmed and
// lowercased so config values match regardless of casing.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]struct{}, len(events))
	for _, e := range events {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[e] = struct{}{}
		}
	}
	return &Notifier{
		senders: senders,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers the alert if event passes the allow list. A suppressed
// event is not an error.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.allowed) > 0 {
		if _, ok := n.allowed[event]; !ok {
			n.logger.DebugContext(ctx, "alert suppressed by event filter",
				slog.String("event", event))
			return nil
		}
	}
	return n.broadcast(ctx, title, message)
}

// NotifyAll delivers the alert to every channel regardless of the allow list.
func (n *Notifier) NotifyAll(ctx context.Context, title, message string) error {
	return n.broadcast(ctx, title, message)
}

// broadcast sends to every channel. A failing channel does not stop delivery
// to the rest; failures are joined into the returned error.
func (n *Notifier) broadcast(ctx context.Context, title, message string) error {
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.WarnContext(ctx, "alert delivery failed",
				slog.String("channel", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "alert delivered",
			slog.String("channel", s.Name()),
			slog.String("title", title),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %w", errors.Join(errs...))
	}
	return nil
}
