package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60

	// EventStreamUpdate is the event name pushed on status transitions.
	EventStreamUpdate = "stream_update"
)

// Subscriber delivers cross-instance stream updates into the hub.
type Subscriber interface {
	SubscribeStreamUpdates(ctx context.Context, handler func(update models.StreamUpdate)) error
}

// Hub maintains connected viewer sessions and broadcasts stream updates to
// them. There is one broadcast domain: a personal site has a single channel,
// so no room bookkeeping is needed. Cross-instance fan-out goes through Redis
// pub/sub; the hub subscribes once for its lifetime.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	sub     Subscriber
	logger  *zap.Logger
}

// NewHub creates a WebSocket hub. sub may be nil (single-instance, local
// broadcast only via Broadcast).
func NewHub(sub Subscriber, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		sub:     sub,
		logger:  logger,
	}
}

// Run subscribes to cross-instance updates and relays them to local clients
// until ctx is done. Returns immediately when no subscriber is configured.
func (h *Hub) Run(ctx context.Context) error {
	if h.sub == nil {
		return nil
	}
	return h.sub.SubscribeStreamUpdates(ctx, h.Broadcast)
}

// Register adds a viewer connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("viewer connected", zap.String("client_id", c.ID), zap.Int("viewers", count))
}

// Unregister removes a viewer connection.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("viewer disconnected", zap.String("client_id", c.ID), zap.Int("viewers", count))
}

// ViewerCount returns the number of connected viewers on this instance.
func (h *Hub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a stream update to all local clients. Slow clients with a
// full buffer are skipped rather than blocking the broadcast.
func (h *Hub) Broadcast(update models.StreamUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		return
	}
	msg := WSMessage{Event: EventStreamUpdate, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}
