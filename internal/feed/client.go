package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// client is one websocket subscriber. Snapshots are queued on send and
// written by a dedicated goroutine; a full queue means the client is too slow.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	connectedAt time.Time
}

func newClient(conn *websocket.Conn, buffer int) *client {
	return &client{
		id:          uuid.New().String(),
		conn:        conn,
		send:        make(chan []byte, buffer),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}
}

// offer queues data without blocking and reports whether it fit.
func (c *client) offer(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *client) writeLoop(timeout time.Duration) error {
	for {
		select {
		case <-c.done:
			return nil
		case data := <-c.send:
			if timeout > 0 {
				_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return errors.Wrap(err, "failed to write snapshot")
			}
		}
	}
}

// readLoop discards inbound frames; it returns once the peer goes away.
func (c *client) readLoop() error {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.Wrap(err, "failed to read from client")
		}
	}
}
