package server

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/ChicagoDave/crowpitcher/pkg/placement"
	"github.com/ChicagoDave/crowpitcher/pkg/session"
	"github.com/ChicagoDave/crowpitcher/pkg/story"
)

// clientBuffer is how many outbound messages a slow client may fall behind
// before messages to it are dropped.
const clientBuffer = 64

// Hub fans session events out to every connected tracker. It implements
// session.Notifier and never blocks the session goroutine.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	logger  *zap.Logger
}

type client struct {
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[*client]struct{}), logger: logger}
}

var _ session.Notifier = (*Hub)(nil)

func (h *Hub) subscribe() *client {
	c := &client{send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(c.send)
		return c
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("tracker connected", zap.Int("clients", n))
	return c
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("tracker disconnected", zap.Int("clients", n))
}

// CloseAll disconnects every tracker and turns away new ones. Each
// connection's writer sends a close frame and shuts the socket.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	h.closed = true
	n := len(h.clients)
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Info("trackers disconnected", zap.Int("clients", n))
}

// Clients returns the number of connected trackers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// deliver queues msg for one client. It reports false if the client is gone
// or too far behind.
func (h *Hub) deliver(c *client, msg outbound) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message", zap.String("type", msg.Type), zap.Error(err))
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		h.logger.Warn("dropping message for slow tracker", zap.String("type", msg.Type))
		return false
	}
}

func (h *Hub) broadcast(msg outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping broadcast for slow tracker", zap.String("type", msg.Type))
		}
	}
}

func (h *Hub) ThresholdCrossed(ev session.ThresholdEvent) {
	h.broadcast(outbound{Type: msgThreshold, Threshold: &ev})
}

func (h *Hub) Placed(ps []placement.Placement) {
	h.broadcast(outbound{Type: msgPlaced, Placed: ps})
}

func (h *Hub) Said(u story.Utterance) {
	h.broadcast(outbound{Type: msgSaid, Said: &u})
}
