package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantfold/trendbot/internal/domain"
)

// topTTL bounds how long a stale top of book survives if the writer dies.
const topTTL = 30 * time.Second

// MarketCache implements domain.MarketCache using Redis hashes.
//
// Key schema:
//
//	top:{symbol}    - hash with "bid", "bid_qty", "ask", "ask_qty", "mid", "ts"
//	signal:{symbol} - hash with "signal", "ts"
type MarketCache struct {
	rdb *redis.Client
}

// NewMarketCache creates a MarketCache backed by the given Client.
func NewMarketCache(c *Client) *MarketCache {
	return &MarketCache{rdb: c.Underlying()}
}

func topKey(symbol string) string    { return "top:" + symbol }
func signalKey(symbol string) string { return "signal:" + symbol }

// SetTop writes the latest top of book for a symbol.
func (mc *MarketCache) SetTop(ctx context.Context, symbol string, top domain.BookTop) error {
	key := topKey(symbol)

	pipe := mc.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"bid", formatFloat(top.BestBid),
		"bid_qty", formatFloat(top.BidQty),
		"ask", formatFloat(top.BestAsk),
		"ask_qty", formatFloat(top.AskQty),
		"mid", formatFloat(top.Mid),
		"ts", strconv.FormatInt(top.Timestamp.UnixNano(), 10),
	)
	pipe.Expire(ctx, key, topTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set top %s: %w", symbol, err)
	}
	return nil
}

// GetTop reads the latest top of book for a symbol. It returns
// domain.ErrNotFound when no data exists.
func (mc *MarketCache) GetTop(ctx context.Context, symbol string) (domain.BookTop, error) {
	vals, err := mc.rdb.HGetAll(ctx, topKey(symbol)).Result()
	if err != nil {
		return domain.BookTop{}, fmt.Errorf("redis: get top %s: %w", symbol, err)
	}
	if len(vals) == 0 {
		return domain.BookTop{}, domain.ErrNotFound
	}

	top := domain.BookTop{}
	top.BestBid, _ = strconv.ParseFloat(vals["bid"], 64)
	top.BidQty, _ = strconv.ParseFloat(vals["bid_qty"], 64)
	top.BestAsk, _ = strconv.ParseFloat(vals["ask"], 64)
	top.AskQty, _ = strconv.ParseFloat(vals["ask_qty"], 64)
	top.Mid, _ = strconv.ParseFloat(vals["mid"], 64)
	if tsNano, err := strconv.ParseInt(vals["ts"], 10, 64); err == nil {
		top.Timestamp = time.Unix(0, tsNano)
	}
	return top, nil
}

// SetSignal writes the most recently computed signal for a symbol.
func (mc *MarketCache) SetSignal(ctx context.Context, symbol string, sig domain.Signal, ts time.Time) error {
	err := mc.rdb.HSet(ctx, signalKey(symbol),
		"signal", string(sig),
		"ts", strconv.FormatInt(ts.UnixNano(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("redis: set signal %s: %w", symbol, err)
	}
	return nil
}

// GetSignal reads the most recently computed signal for a symbol. It returns
// domain.ErrNotFound when no data exists.
func (mc *MarketCache) GetSignal(ctx context.Context, symbol string) (domain.Signal, time.Time, error) {
	vals, err := mc.rdb.HGetAll(ctx, signalKey(symbol)).Result()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("redis: get signal %s: %w", symbol, err)
	}
	if len(vals) == 0 {
		return "", time.Time{}, domain.ErrNotFound
	}

	var ts time.Time
	if tsNano, err := strconv.ParseInt(vals["ts"], 10, 64); err == nil {
		ts = time.Unix(0, tsNano)
	}
	return domain.Signal(vals["signal"]), ts, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Compile-time interface check.
var _ domain.MarketCache = (*MarketCache)(nil)
