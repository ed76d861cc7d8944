// Package plot streams visualization frames from smooth training rounds
// to connected websocket clients.
package plot

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ocumetry/eyelid/internal/domain/model"
	"github.com/ocumetry/eyelid/pkg/logger"
)

const defaultClientBuffer = 8

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans plot frames out to websocket subscribers. Slow clients are
// disconnected rather than allowed to stall a training round.
type Hub struct {
	buffer int
	logger logger.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn   *websocket.Conn
	frames chan model.PlotFrame
}

// Option applies a configuration option to the hub.
type Option func(*Hub)

// WithClientBuffer sets the per-client frame buffer.
func WithClientBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub creates a plot hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		buffer:  defaultClientBuffer,
		clients: make(map[*client]struct{}),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.logger == nil {
		h.logger = logger.Get().Named("plot")
	}

	return h
}

// Publish delivers a frame to every connected client. Never blocks; a
// client whose buffer is full is dropped.
func (h *Hub) Publish(frame model.PlotFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.frames <- frame:
		default:
			h.dropLocked(c)
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams frames until
// the client disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Err(err))
		return
	}

	c := &client{conn: conn, frames: make(chan model.PlotFrame, h.buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Info(r.Context(), "plot client connected", logger.Int("clients", n))

	// Reads are discarded; the read loop only notices disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(c)
				return
			}
		}
	}()

	for frame := range c.frames {
		if err := conn.WriteJSON(frame); err != nil {
			h.remove(c)
			return
		}
	}
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients and stops accepting new ones.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for c := range h.clients {
		close(c.frames)
		delete(h.clients, c)
	}
	return nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.frames)
	c.conn.Close()
}
