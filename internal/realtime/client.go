package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// sendBuffer bounds queued frames per connection; overflow means
	// the client is too slow and gets disconnected by the hub.
	sendBuffer = 32

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

// Client is one open realtime connection for a user.
type Client struct {
	userID string
	conn   *websocket.Conn
	logger zerolog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool

	closeOnce sync.Once
}

func NewClient(userID string, conn *websocket.Conn, logger zerolog.Logger) *Client {
	return &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
	}
}

func (c *Client) UserID() string {
	return c.userID
}

// trySend queues a frame without blocking; false means the buffer is
// full or the client is closing.
func (c *Client) trySend(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend stops accepting frames and lets WritePump drain and exit.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Close tears down the underlying connection; safe to call twice.
func (c *Client) Close() {
	c.closeSend()
	c.closeOnce.Do(func() {
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// WritePump drains the send buffer onto the socket and keeps the
// connection alive with pings. It exits when the send channel closes or
// a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes inbound frames. No client-to-server protocol exists
// beyond connect/disconnect, so anything read is discarded; the pump
// only serves pong handling and close detection. unregister fires once
// the connection drops.
func (c *Client) ReadPump(unregister func(*Client)) {
	defer func() {
		unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Str("user_id", c.userID).Msg("realtime connection closed unexpectedly")
			}
			return
		}
	}
}
