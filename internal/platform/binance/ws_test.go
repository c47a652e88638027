package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testKlineFrame = []byte(`{"stream":"btcusdt@kline_1s","data":{"e":"kline","s":"BTCUSDT","k":{"o":"1","h":"2","l":"1","c":"2","v":"3","x":true}}}`)

// TestWSClient_ReconnectReplacesConnectionOnce drops the first connection
// server-side and verifies the client dials exactly one replacement. A loop
// closing the wrong socket after handoff would show up here as a third
// connection.
func TestWSClient_ReconnectReplacesConnectionOnce(t *testing.T) {
	var (
		upgrader websocket.Upgrader
		conns    atomic.Int32
	)
	hold := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		n := conns.Add(1)
		if err := conn.WriteMessage(websocket.TextMessage, testKlineFrame); err != nil {
			return
		}
		if n == 1 {
			conn.Close() // force the client to reconnect
			return
		}
		<-hold
		conn.Close()
	}))
	defer srv.Close()
	defer close(hold)

	client := NewWSClient("ws" + strings.TrimPrefix(srv.URL, "http"))
	client.reconnectWait = 10 * time.Millisecond
	defer client.Close()

	events := make(chan KlineEvent, 4)
	client.OnKline(func(ev KlineEvent) { events <- ev })

	var drops atomic.Int32
	client.OnDisconnect(func(error) { drops.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			if !ev.Kline.Final {
				t.Errorf("kline %d not final: %+v", i+1, ev)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for kline %d", i+1)
		}
	}

	// Give a spurious extra reconnect time to surface.
	time.Sleep(100 * time.Millisecond)
	if got := conns.Load(); got != 2 {
		t.Errorf("server saw %d connections, want 2", got)
	}
	if got := drops.Load(); got != 1 {
		t.Errorf("disconnect handler fired %d times, want 1", got)
	}
}

func TestWSClient_ConnectAfterCloseFails(t *testing.T) {
	client := NewWSClient("ws://unused")
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := client.Connect(context.Background()); err == nil {
		t.Error("Connect() after Close() = nil, want error")
	}
}
