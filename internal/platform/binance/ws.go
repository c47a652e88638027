// Package binance provides the market data (WebSocket) and order entry
// (REST) clients for Binance spot.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quantfold/trendbot/internal/domain"
)

const (
	// DefaultStreamBase is the public combined-stream endpoint.
	DefaultStreamBase = "wss://stream.binance.com:9443"

	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// StreamURL builds the combined-stream URL for symbol's kline and partial
// depth streams, e.g.
// wss://stream.binance.com:9443/stream?streams=btcusdt@kline_1s/btcusdt@depth20@100ms
func StreamURL(base, symbol, klineInterval string) string {
	s := strings.ToLower(symbol)
	return fmt.Sprintf("%s/stream?streams=%s@kline_%s/%s@depth20@100ms", base, s, klineInterval, s)
}

// KlineHandler is called for every kline event, closed or not.
type KlineHandler func(KlineEvent)

// DepthHandler is called for every partial depth snapshot.
type DepthHandler func(DepthSnapshot)

// DisconnectHandler is called once per dropped connection, before the client
// starts reconnecting.
type DisconnectHandler func(error)

// combinedFrame is the envelope of the combined-stream endpoint.
type combinedFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// WSClient consumes Binance combined market data streams. It manages the
// connection lifecycle and dispatches frames to registered handlers,
// reconnecting with exponential backoff on failure.
type WSClient struct {
	wsURL string
	conn  *websocket.Conn

	mu     sync.RWMutex
	closed bool

	handlerMu     sync.RWMutex
	klineHandlers []KlineHandler
	depthHandlers []DepthHandler
	onDisconnect  DisconnectHandler

	// reconnectWait is the base backoff delay; overridable in tests.
	reconnectWait time.Duration

	// done is closed when the client is shut down.
	done chan struct{}
}

// NewWSClient creates a client for the given combined-stream URL; build it
// with StreamURL.
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL:         wsURL,
		reconnectWait: reconnectDelay,
		done:          make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops. Subscriptions are part of the URL, so nothing needs restoring after
// reconnect.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("binance/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("binance/ws: connect: %w", err)
	}

	w.conn = conn

	// Set up pong handler for keep-alive.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Both loops are bound to this connection; reconnect spawns fresh loops
	// for the replacement, so a stale loop can never touch the new socket.
	go w.readLoop(conn)
	go w.pingLoop(conn)

	return nil
}

// OnKline registers a handler for kline events.
func (w *WSClient) OnKline(handler KlineHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.klineHandlers = append(w.klineHandlers, handler)
}

// OnDepth registers a handler for partial depth snapshots.
func (w *WSClient) OnDepth(handler DepthHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.depthHandlers = append(w.depthHandlers, handler)
}

// OnDisconnect registers a handler invoked when the connection drops.
// Reconnection proceeds regardless; the handler is for alerting only.
func (w *WSClient) OnDisconnect(handler DisconnectHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.onDisconnect = handler
}

// Close shuts down the WebSocket connection and stops the read loop.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}

	return nil
}

// readLoop continuously reads frames from conn and dispatches them to
// handlers. On disconnect it hands off to reconnect and exits; the loop only
// ever closes the connection it was started with.
func (w *WSClient) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		select {
		case <-w.done:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return
			default:
			}

			w.notifyDisconnect(err)
			w.reconnect()
			return
		}

		w.handleFrame(message)
	}
}

// pingLoop sends periodic ping messages on conn to keep the WebSocket alive.
// It exits on the first write error, which happens once conn is replaced.
func (w *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (w *WSClient) notifyDisconnect(err error) {
	w.handlerMu.RLock()
	handler := w.onDisconnect
	w.handlerMu.RUnlock()
	if handler != nil {
		handler(err)
	}
}

// handleFrame unwraps a combined-stream frame and routes the payload by
// stream name. Unparseable frames are dropped.
func (w *WSClient) handleFrame(raw []byte) {
	var frame combinedFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return
	}

	switch {
	case strings.Contains(frame.Stream, "@kline"):
		var ev KlineEvent
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return
		}

		w.handlerMu.RLock()
		handlers := w.klineHandlers
		w.handlerMu.RUnlock()

		for _, h := range handlers {
			h(ev)
		}

	case strings.Contains(frame.Stream, "@depth"):
		var snap DepthSnapshot
		if err := json.Unmarshal(frame.Data, &snap); err != nil {
			return
		}

		w.handlerMu.RLock()
		handlers := w.depthHandlers
		w.handlerMu.RUnlock()

		for _, h := range handlers {
			h(snap)
		}
	}
}

// reconnect re-establishes the connection with exponential backoff. It
// blocks until successful or the client is closed.
func (w *WSClient) reconnect() {
	delay := w.reconnectWait

	for {
		select {
		case <-w.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := w.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}
