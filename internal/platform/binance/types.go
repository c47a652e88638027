package binance

import (
	"fmt"
	"strconv"
	"time"

	"github.com/quantfold/trendbot/internal/domain"
)

// KlineEvent is a kline/candlestick event from the @kline_<interval> stream.
type KlineEvent struct {
	EventType string       `json:"e"`
	EventTime int64        `json:"E"` // milliseconds
	Symbol    string       `json:"s"`
	Kline     KlinePayload `json:"k"`
}

// KlinePayload carries the candle itself. Prices and volumes arrive as
// decimal strings.
type KlinePayload struct {
	OpenTime  int64  `json:"t"` // milliseconds
	CloseTime int64  `json:"T"` // milliseconds
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Final     bool   `json:"x"` // true once the candle is closed
}

// ToDomainCandle converts the payload to a domain candle.
func (k *KlinePayload) ToDomainCandle() (domain.Candle, error) {
	var c domain.Candle
	var err error
	if c.Open, err = parseDecimal("open", k.Open); err != nil {
		return domain.Candle{}, err
	}
	if c.High, err = parseDecimal("high", k.High); err != nil {
		return domain.Candle{}, err
	}
	if c.Low, err = parseDecimal("low", k.Low); err != nil {
		return domain.Candle{}, err
	}
	if c.Close, err = parseDecimal("close", k.Close); err != nil {
		return domain.Candle{}, err
	}
	if c.Volume, err = parseDecimal("volume", k.Volume); err != nil {
		return domain.Candle{}, err
	}
	c.OpenTime = time.UnixMilli(k.OpenTime).UTC()
	return c, nil
}

// DepthSnapshot is a partial book depth message from the
// @depth<levels>@<speed> stream. Each level is a [price, quantity] pair of
// decimal strings, best levels first.
type DepthSnapshot struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// ToDomainUpdate converts the snapshot to a domain depth update for symbol.
func (d *DepthSnapshot) ToDomainUpdate(symbol string, at time.Time) (domain.DepthUpdate, error) {
	bids, err := parseLevels("bid", d.Bids)
	if err != nil {
		return domain.DepthUpdate{}, err
	}
	asks, err := parseLevels("ask", d.Asks)
	if err != nil {
		return domain.DepthUpdate{}, err
	}
	return domain.DepthUpdate{
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: at,
	}, nil
}

// OrderResponse is the (ACK-level) response from POST /api/v3/order.
type OrderResponse struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Status        string `json:"status"`
}

// APIError is the error envelope Binance returns with non-2xx statuses.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance: code %d: %s", e.Code, e.Message)
}

func parseLevels(side string, raw [][]string) ([]domain.PriceLevel, error) {
	out := make([]domain.PriceLevel, 0, len(raw))
	for i, lvl := range raw {
		if len(lvl) < 2 {
			return nil, fmt.Errorf("binance: %s level %d: want [price, qty], got %d fields", side, i, len(lvl))
		}
		price, err := parseDecimal(side+" price", lvl[0])
		if err != nil {
			return nil, err
		}
		qty, err := parseDecimal(side+" qty", lvl[1])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.PriceLevel{Price: price, Quantity: qty})
	}
	return out, nil
}

func parseDecimal(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("binance: parsing %s %q: %w", field, s, err)
	}
	return v, nil
}
