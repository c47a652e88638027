package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/trendbot/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

var _ domain.TradeStore = (*TradeStore)(nil)

const tradeSelectCols = `id, symbol, side, price, quantity, timestamp`

const tradeInsert = `
	INSERT INTO trades (id, symbol, side, price, quantity, timestamp)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING`

func scanTradeRows(rows pgx.Rows) ([]domain.TradeRecord, error) {
	var recs []domain.TradeRecord
	for rows.Next() {
		var r domain.TradeRecord
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Side, &r.Price, &r.Quantity, &r.Timestamp); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Append inserts a single trade record. Replayed records (same ID) are
// silently skipped.
func (s *TradeStore) Append(ctx context.Context, rec domain.TradeRecord) error {
	_, err := s.pool.Exec(ctx, tradeInsert,
		rec.ID, rec.Symbol, rec.Side, rec.Price, rec.Quantity, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: append trade %s: %w", rec.ID, err)
	}
	return nil
}

// InsertBatch inserts multiple trade records efficiently using pgx Batch.
// Duplicates are silently skipped via ON CONFLICT DO NOTHING.
func (s *TradeStore) InsertBatch(ctx context.Context, recs []domain.TradeRecord) error {
	if len(recs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range recs {
		batch.Queue(tradeInsert, r.ID, r.Symbol, r.Side, r.Price, r.Quantity, r.Timestamp)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range recs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert trade batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListRecent returns the newest trades for a symbol, most recent first.
func (s *TradeStore) ListRecent(ctx context.Context, symbol string, limit int) ([]domain.TradeRecord, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE symbol = $1 ORDER BY timestamp DESC`
	args := []any{symbol}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent trades: %w", err)
	}
	defer rows.Close()

	recs, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan recent trades: %w", err)
	}
	return recs, nil
}

// ListBefore returns all trades with timestamp strictly before the given time
// (for archiving), oldest first.
func (s *TradeStore) ListBefore(ctx context.Context, before time.Time) ([]domain.TradeRecord, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE timestamp < $1 ORDER BY timestamp ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before: %w", err)
	}
	defer rows.Close()
	return scanTradeRows(rows)
}

// DeleteBefore deletes all trades with timestamp before the given time.
// Returns the number deleted.
func (s *TradeStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trades WHERE timestamp < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete trades before: %w", err)
	}
	return tag.RowsAffected(), nil
}
