package gameserver

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSChannel adapts a websocket connection to the Channel interface. Writes
// are serialized by a mutex and bounded by a deadline; reads stay on the
// single connection goroutine and need no locking.
type WSChannel struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewWSChannel wraps an upgraded websocket connection. A writeTimeout of
// zero disables write deadlines.
//
// Precondition: conn must be non-nil.
func NewWSChannel(conn *websocket.Conn, writeTimeout time.Duration) *WSChannel {
	return &WSChannel{
		id:           uuid.NewString(),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// ID returns the channel's unique identifier.
func (c *WSChannel) ID() string { return c.id }

// Send writes one frame as JSON.
func (c *WSChannel) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("channel %s is closed", c.id)
	}
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return fmt.Errorf("setting write deadline: %w", err)
		}
	}
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadText blocks until the next text message arrives.
func (c *WSChannel) ReadText() (string, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close closes the underlying connection. Subsequent calls are no-ops.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
