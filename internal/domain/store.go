package domain

import (
	"context"
	"time"
)

// TradeStore persists trade-log records and supports the retention queries
// used by the archiver.
type TradeStore interface {
	TradeLog
	InsertBatch(ctx context.Context, recs []TradeRecord) error
	ListRecent(ctx context.Context, symbol string, limit int) ([]TradeRecord, error)
	ListBefore(ctx context.Context, before time.Time) ([]TradeRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver moves aged trade-log rows out of the primary store into cold
// object storage.
type Archiver interface {
	ArchiveTrades(ctx context.Context, before time.Time) (int64, error)
}
