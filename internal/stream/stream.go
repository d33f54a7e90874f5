// Package stream subscribes to the marketplace event stream and turns sale
// and listing events into chart samples. The stream is a Phoenix-channel
// websocket; the REST gateway remains the source of truth and the stream is
// strictly additive.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tidewater/seabridge/internal/market"
	"github.com/tidewater/seabridge/internal/money"
)

const (
	defaultStreamURL = "wss://stream.openseabeta.com/socket/websocket"

	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	backoffFactor  = 2

	heartbeatInterval = 30 * time.Second
	readTimeout       = 45 * time.Second
	writeTimeout      = 10 * time.Second
)

// Event names the stream emits that carry a price.
const (
	EventItemListed = "item_listed"
	EventItemSold   = "item_sold"
)

// Sample is one priced event from the stream.
type Sample struct {
	Collection string
	Event      string
	Point      market.Point
}

// Client maintains the stream connection with reconnection and keepalive.
type Client struct {
	url        string
	apiKey     string
	logger     *slog.Logger
	subscribed map[string]bool
	handlers   []func(Sample)
	done       chan struct{}
	closeOnce  sync.Once

	mu     sync.RWMutex
	connMu sync.Mutex
	conn   *websocket.Conn
	ref    int
}

// NewClient creates a stream client authenticated with the marketplace API
// key.
func NewClient(apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:        defaultStreamURL,
		apiKey:     apiKey,
		logger:     logger,
		subscribed: make(map[string]bool),
		done:       make(chan struct{}),
	}
}

// WithURL overrides the stream endpoint, for tests.
func (c *Client) WithURL(u string) *Client {
	c.url = u
	return c
}

// phoenixMessage is the Phoenix channel frame, both directions.
type phoenixMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     int             `json:"ref"`
}

// eventPayload is the priced part of an item event. The stream nests the
// interesting fields one level down.
type eventPayload struct {
	Payload struct {
		EventTimestamp string `json:"event_timestamp"`
		BasePrice      string `json:"base_price"`
		SalePrice      string `json:"sale_price"`
		PaymentToken   struct {
			Decimals int `json:"decimals"`
		} `json:"payment_token"`
	} `json:"payload"`
}

// Connect dials the stream.
func (c *Client) Connect() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.Dial(c.url+"?token="+c.apiKey, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}
	c.conn = conn
	return nil
}

// Subscribe joins the channels for the given collection slugs.
func (c *Client) Subscribe(collections ...string) error {
	for _, slug := range collections {
		if err := c.join(slug); err != nil {
			return err
		}
		c.mu.Lock()
		c.subscribed[slug] = true
		c.mu.Unlock()
	}
	return nil
}

// OnSample registers a callback for priced events.
func (c *Client) OnSample(handler func(Sample)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Run drives the connection until the context ends, reconnecting with
// exponential backoff.
func (c *Client) Run(ctx context.Context) error {
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		default:
		}

		if err := c.Connect(); err != nil {
			c.logger.Warn("stream connection failed", "err", err)
			if !c.sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		if err := c.rejoin(); err != nil {
			c.closeConnection()
			continue
		}
		backoff = initialBackoff

		if err := c.readLoop(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.logger.Warn("stream disconnected", "err", err)
		}
		c.closeConnection()

		if !c.sleep(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
}

// Close shuts the client down permanently.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.closeConnection()
}

func (c *Client) readLoop(ctx context.Context) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}

	heartbeatDone := make(chan struct{})
	go c.heartbeatLoop(ctx, heartbeatDone)
	defer close(heartbeatDone)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}
		c.handleMessage(message)
	}
}

func (c *Client) heartbeatLoop(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			msg := phoenixMessage{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: json.RawMessage("{}"),
				Ref:     c.nextRef(),
			}
			if err := c.writeJSON(msg); err != nil {
				c.logger.Warn("heartbeat failed", "err", err)
				return
			}
		}
	}
}

func (c *Client) handleMessage(message []byte) {
	var frame phoenixMessage
	if err := json.Unmarshal(message, &frame); err != nil {
		return
	}
	if frame.Event != EventItemListed && frame.Event != EventItemSold {
		return
	}

	var payload eventPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		return
	}

	priceRaw := payload.Payload.SalePrice
	if priceRaw == "" {
		priceRaw = payload.Payload.BasePrice
	}
	decimals := payload.Payload.PaymentToken.Decimals
	if decimals == 0 {
		decimals = 18
	}
	price, err := money.FromMinorUnits(priceRaw, decimals)
	if err != nil {
		return
	}

	ts := time.Now().Unix()
	if t, err := time.Parse(time.RFC3339, payload.Payload.EventTimestamp); err == nil {
		ts = t.Unix()
	}

	source := market.PointSourceOther
	if frame.Event == EventItemSold {
		source = market.PointSourceSale
	}

	sample := Sample{
		Collection: collectionFromTopic(frame.Topic),
		Event:      frame.Event,
		Point: market.Point{
			Timestamp: ts,
			Price:     price,
			Source:    source,
		},
	}

	c.mu.RLock()
	handlers := c.handlers
	c.mu.RUnlock()
	for _, handler := range handlers {
		handler(sample)
	}
}

func (c *Client) join(slug string) error {
	msg := phoenixMessage{
		Topic:   "collection:" + slug,
		Event:   "phx_join",
		Payload: json.RawMessage("{}"),
		Ref:     c.nextRef(),
	}
	if err := c.writeJSON(msg); err != nil {
		return fmt.Errorf("failed to join %s: %w", slug, err)
	}
	return nil
}

func (c *Client) rejoin() error {
	c.mu.RLock()
	slugs := make([]string, 0, len(c.subscribed))
	for slug := range c.subscribed {
		slugs = append(slugs, slug)
	}
	c.mu.RUnlock()

	for _, slug := range slugs {
		if err := c.join(slug); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) writeJSON(v any) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return errors.New("not connected")
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *Client) closeConnection() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) nextRef() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ref++
	return c.ref
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	case <-time.After(d):
		return true
	}
}

// collectionFromTopic strips the channel prefix from "collection:slug".
func collectionFromTopic(topic string) string {
	const prefix = "collection:"
	if len(topic) > len(prefix) && topic[:len(prefix)] == prefix {
		return topic[len(prefix):]
	}
	return topic
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * backoffFactor
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
