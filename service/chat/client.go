package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"CommLink/logger"
)

// Client represents one realtime transport session on this node.
// A user has at most one addressable client at a time (last connection
// wins); the write side is a single goroutine draining Send so that
// gorilla/websocket never sees concurrent writes.
type Client struct {
	ConnID string          // unique connection ID (snowflake, local to this node)
	UserID string          // empty for connections that never presented a userId
	WS     *websocket.Conn // nil in tests; Send is inspected directly
	Send   chan []byte     // outbound queue, consumed by WritePump

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(connID, userID string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		UserID: userID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue offers a payload to the client's send queue without blocking.
// A full queue means a slow client; the frame is dropped (best-effort path).
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	default:
		logger.Warnf("[client] send queue full, drop frame conn=%s user=%s", c.ConnID, c.UserID)
		return false
	}
}

// WritePump is the single writer goroutine for this connection.
// It exits when Close is called; each write carries a deadline so one
// dead peer cannot wedge the pump.
func (c *Client) WritePump(writeTimeout time.Duration) {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.Send:
			if c.WS == nil {
				continue
			}
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[client] write failed conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
				c.Close()
				return
			}
		}
	}
}

// Close tears the session down; safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.WS != nil {
			_ = c.WS.Close()
		}
	})
}

// Done reports the session teardown channel (read-only).
func (c *Client) Done() <-chan struct{} { return c.done }
