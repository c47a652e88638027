package binance

import (
	"encoding/json"
	"testing"
	"time"
)

func TestKlinePayload_ToDomainCandle(t *testing.T) {
	raw := `{
		"e": "kline", "E": 1700000000500, "s": "BTCUSDT",
		"k": {
			"t": 1700000000000, "T": 1700000000999,
			"o": "42000.10", "c": "42010.55", "h": "42020.00", "l": "41990.00",
			"v": "12.5", "x": true
		}
	}`
	var ev KlineEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !ev.Kline.Final {
		t.Fatal("Final = false, want true")
	}

	c, err := ev.Kline.ToDomainCandle()
	if err != nil {
		t.Fatalf("ToDomainCandle() error = %v", err)
	}
	if c.Open != 42000.10 || c.Close != 42010.55 || c.High != 42020.00 || c.Low != 41990.00 {
		t.Errorf("OHLC = %v/%v/%v/%v", c.Open, c.High, c.Low, c.Close)
	}
	if c.Volume != 12.5 {
		t.Errorf("Volume = %v, want 12.5", c.Volume)
	}
	if want := time.UnixMilli(1700000000000).UTC(); !c.OpenTime.Equal(want) {
		t.Errorf("OpenTime = %v, want %v", c.OpenTime, want)
	}
}

func TestKlinePayload_ToDomainCandle_BadDecimal(t *testing.T) {
	k := KlinePayload{Open: "not-a-number", High: "1", Low: "1", Close: "1", Volume: "1"}
	if _, err := k.ToDomainCandle(); err == nil {
		t.Error("ToDomainCandle() accepted malformed open price")
	}
}

func TestDepthSnapshot_ToDomainUpdate(t *testing.T) {
	raw := `{
		"lastUpdateId": 160,
		"bids": [["41999.00", "2.0"], ["41998.50", "1.0"]],
		"asks": [["42001.00", "0.5"]]
	}`
	var snap DepthSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	at := time.UnixMilli(1700000000000).UTC()
	upd, err := snap.ToDomainUpdate("BTCUSDT", at)
	if err != nil {
		t.Fatalf("ToDomainUpdate() error = %v", err)
	}
	if upd.Symbol != "BTCUSDT" || !upd.Timestamp.Equal(at) {
		t.Errorf("symbol/timestamp = %s/%v", upd.Symbol, upd.Timestamp)
	}
	if len(upd.Bids) != 2 || len(upd.Asks) != 1 {
		t.Fatalf("levels = %d bids, %d asks; want 2 and 1", len(upd.Bids), len(upd.Asks))
	}
	if upd.Bids[0].Price != 41999.00 || upd.Bids[0].Quantity != 2.0 {
		t.Errorf("best bid = %+v", upd.Bids[0])
	}
	if upd.Asks[0].Price != 42001.00 || upd.Asks[0].Quantity != 0.5 {
		t.Errorf("best ask = %+v", upd.Asks[0])
	}
}

func TestDepthSnapshot_ToDomainUpdate_ShortLevel(t *testing.T) {
	snap := DepthSnapshot{Bids: [][]string{{"42000.00"}}}
	if _, err := snap.ToDomainUpdate("BTCUSDT", time.Now()); err == nil {
		t.Error("ToDomainUpdate() accepted a one-field level")
	}
}

func TestStreamURL(t *testing.T) {
	got := StreamURL(DefaultStreamBase, "BTCUSDT", "1s")
	want := "wss://stream.binance.com:9443/stream?streams=btcusdt@kline_1s/btcusdt@depth20@100ms"
	if got != want {
		t.Errorf("StreamURL = %s, want %s", got, want)
	}
}

func TestFormatDecimal(t *testing.T) {
	if got := formatDecimal(0.0995024875621890); got != "0.09950249" {
		t.Errorf("formatDecimal = %s, want 0.09950249", got)
	}
	if got := formatDecimal(100); got != "100.00000000" {
		t.Errorf("formatDecimal = %s, want 100.00000000", got)
	}
}
