// Package feed streams live kline bars over WebSocket. Only closed bars
// are emitted, so downstream detection sees the same bar shapes the
// backtest does.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/observability"
)

// Event is one closed bar from the stream.
type Event struct {
	Symbol string
	Bar    domain.Bar
}

// ClientConfig configures WebSocket client behavior.
type ClientConfig struct {
	// Endpoint is the combined-stream base URL.
	Endpoint string
	// Interval is the kline interval to subscribe to.
	Interval string
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultClientConfig returns default WebSocket configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoint:          "wss://stream.binance.com:9443/stream",
		Interval:          "1h",
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Client subscribes to kline streams and emits closed bars.
type Client struct {
	config  ClientConfig
	symbols []string

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup

	log     *zap.Logger
	metrics *observability.Metrics
}

// NewClient creates a client and connects to the endpoint. A nil logger
// falls back to a no-op logger, nil metrics record nothing.
func NewClient(ctx context.Context, symbols []string, config ClientConfig, log *zap.Logger, metrics *observability.Metrics) (*Client, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols to subscribe")
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{
		config:  config,
		symbols: symbols,
		// Buffer absorbs bursts; send blocks rather than dropping bars
		events:  make(chan Event, 1024),
		done:    make(chan struct{}),
		log:     log,
		metrics: metrics,
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// Events returns the closed-bar stream. The channel is closed on Close.
func (c *Client) Events() <-chan Event {
	return c.events
}

// streamURL builds the combined stream URL for all subscribed symbols.
func (c *Client) streamURL() string {
	streams := make([]string, len(c.symbols))
	for i, s := range c.symbols {
		streams[i] = fmt.Sprintf("%s@kline_%s", strings.ToLower(s), c.config.Interval)
	}
	return fmt.Sprintf("%s?streams=%s", c.config.Endpoint, strings.Join(streams, "/"))
}

// connect establishes the WebSocket connection.
func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.streamURL(), nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// Close closes the WebSocket connection and the event channel.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.events)
	return nil
}

// readLoop reads messages and emits closed bars.
func (c *Client) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			c.log.Warn("websocket read failed, reconnecting",
				zap.Error(err),
				zap.Duration("delay", reconnectDelay))
			c.reconnect(reconnectDelay)

			// Exponential backoff for next attempt
			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}
			continue
		}

		// Reset delay on successful read
		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect waits and redials. The combined-stream URL carries the full
// subscription, so no resubscribe step is needed.
func (c *Client) reconnect(delay time.Duration) {
	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.log.Warn("websocket reconnect failed", zap.Error(err))
		return
	}

	c.metrics.RecordFeedReconnect()
	c.log.Info("websocket reconnected")
}

// handleMessage parses one stream message and emits the bar if closed.
func (c *Client) handleMessage(message []byte) {
	event, ok, err := ParseKlineMessage(message)
	if err != nil {
		c.log.Warn("bad kline message", zap.Error(err))
		return
	}
	if !ok {
		return // bar still open
	}

	c.metrics.RecordFeedBar()

	// Block until delivered; live bars must not be dropped
	select {
	case c.events <- event:
	case <-c.done:
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// Reader handles reconnect if the connection is dead
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}
