package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
)

const maxClients = 256

// HubStats holds live hub metrics.
type HubStats struct {
	ActiveClients    int    `json:"activeClients"`
	TotalConnections uint64 `json:"totalConnections"`
}

// Hub fans out simulation messages to all connected clients and funnels
// their intents into a single channel for the host loop.
type Hub struct {
	mu     sync.Mutex
	conns  map[string]*Conn
	closed bool
	nextID atomic.Uint64

	totalConnections atomic.Uint64

	intents   chan IntentMessage
	readers   sync.WaitGroup
	closeOnce sync.Once

	log            *slog.Logger
	originPatterns []string
}

// NewHub creates a hub. originPatterns restricts allowed origins; empty
// means same-origin only.
func NewHub(log *slog.Logger, originPatterns []string) *Hub {
	return &Hub{
		conns:          make(map[string]*Conn),
		intents:        make(chan IntentMessage, 256),
		log:            log,
		originPatterns: originPatterns,
	}
}

// Stats returns a snapshot of current hub metrics.
func (h *Hub) Stats() HubStats {
	h.mu.Lock()
	active := len(h.conns)
	h.mu.Unlock()
	return HubStats{
		ActiveClients:    active,
		TotalConnections: h.totalConnections.Load(),
	}
}

// Intents returns the channel of client inputs. The host loop drains it
// each frame; CloseAll closes it once every client is gone.
func (h *Hub) Intents() <-chan IntentMessage {
	return h.intents
}

// Broadcast queues a message on every connected client.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.conns {
		c.Send(msg)
	}
}

// HandleWS upgrades an HTTP request and services the connection until
// it closes.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if len(h.conns) >= maxClients {
		h.mu.Unlock()
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}
	h.mu.Unlock()

	acceptOpts := &websocket.AcceptOptions{}
	if len(h.originPatterns) > 0 {
		acceptOpts.OriginPatterns = h.originPatterns
	}

	ws, err := websocket.Accept(w, r, acceptOpts)
	if err != nil {
		h.log.Warn("ws accept error", "error", err)
		return
	}

	// Intent messages are small
	ws.SetReadLimit(1024)

	h.totalConnections.Add(1)
	id := fmt.Sprintf("client-%d", h.nextID.Add(1))
	conn := NewConn(ws, id, h.log)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		ws.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	h.conns[id] = conn
	h.readers.Add(1)
	h.mu.Unlock()

	h.log.Info("client connected", "conn", id, "total", h.totalConnections.Load())

	// Use background context so the connection lives beyond this handler's
	// request context semantics; the handler itself blocks until close.
	go conn.WriteLoop(context.Background())
	go h.readIntents(conn)

	<-conn.Done()

	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
	h.log.Info("client disconnected", "conn", id)
}

func (h *Hub) readIntents(conn *Conn) {
	defer h.readers.Done()
	for msg := range conn.ReadLoop(context.Background()) {
		if msg.Type != "intent" {
			continue
		}
		select {
		case h.intents <- *msg.Intent:
		default:
			// Host loop is behind; stale inputs are worthless anyway.
		}
	}
}

// CloseAll disconnects every client and closes the intents channel once
// all readers have drained. Used during shutdown; safe to call twice.
func (h *Hub) CloseAll() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		conns := make([]*Conn, 0, len(h.conns))
		for _, c := range h.conns {
			conns = append(conns, c)
		}
		h.mu.Unlock()

		for _, c := range conns {
			c.Close()
		}

		// No sends on intents can follow the last reader exiting.
		h.readers.Wait()
		close(h.intents)
	})
}
