package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Conn wraps one WebSocket client. Outbound messages are queued on a
// buffered channel and dropped when the client can't keep up.
type Conn struct {
	ws     *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
	log    *slog.Logger
	ID     string
}

// NewConn wraps an accepted WebSocket connection.
func NewConn(ws *websocket.Conn, id string, log *slog.Logger) *Conn {
	return &Conn{
		ws:     ws,
		sendCh: make(chan []byte, 64),
		done:   make(chan struct{}),
		log:    log,
		ID:     id,
	}
}

// Send queues a message, dropping it if the buffer is full.
func (c *Conn) Send(msg Message) {
	data, err := Encode(msg)
	if err != nil {
		c.log.Error("encode error", "conn", c.ID, "error", err)
		return
	}
	select {
	case c.sendCh <- data:
	default:
		c.log.Debug("send buffer full, dropping message", "conn", c.ID)
	}
}

// ReadLoop reads and decodes client messages until the connection dies.
func (c *Conn) ReadLoop(ctx context.Context) <-chan Message {
	ch := make(chan Message, 64)
	go func() {
		defer close(ch)
		for {
			_, data, err := c.ws.Read(ctx)
			if err != nil {
				c.log.Debug("read error", "conn", c.ID, "error", err)
				c.Close()
				return
			}
			msg, err := Decode(data)
			if err != nil {
				c.log.Debug("decode error", "conn", c.ID, "error", err)
				continue
			}
			select {
			case ch <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// WriteLoop drains the send queue onto the wire.
func (c *Conn) WriteLoop(ctx context.Context) {
	for {
		select {
		case data := <-c.sendCh:
			ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.ws.Write(ctx2, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.log.Debug("write error", "conn", c.ID, "error", err)
				c.Close()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Close shuts the connection down exactly once.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close(websocket.StatusNormalClosure, "")
	})
}

// Done is closed when the connection has shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}
