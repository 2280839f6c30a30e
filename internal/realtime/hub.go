package realtime

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/pkg/metrics"
)

// Envelope is the frame pushed to realtime clients.
type Envelope struct {
	Type string              `json:"type"`
	Data *model.Notification `json:"data"`
}

// Hub is the in-process connection registry: user ID to the set of that
// user's open realtime connections. Fan-out is fire-and-forget; each
// open connection gets a frame once, with no ordering guarantee across
// a user's connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewHub(logger zerolog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
		metrics: m,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.userID]; !ok {
		h.clients[c.userID] = make(map[*Client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	h.metrics.HubConnections.Inc()
}

// Unregister removes a connection; the per-user set is dropped entirely
// once empty so the registry never leaks empty sets.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	h.metrics.HubConnections.Dec()
	c.closeSend()
}

// Publish pushes a notification frame to every open connection for the
// user. A connection whose send buffer is full is disconnected rather
// than allowed to grow memory unboundedly. Returns the number of
// connections the frame was queued to.
func (h *Hub) Publish(userID string, n *model.Notification) int {
	frame, err := json.Marshal(Envelope{Type: "notification", Data: n})
	if err != nil {
		h.logger.Error().Err(err).Str("notification_id", n.ID).Msg("failed to encode realtime frame")
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.trySend(frame) {
			delivered++
			h.metrics.FramesSent.Inc()
		} else {
			h.metrics.FramesDropped.Inc()
			h.logger.Warn().
				Str("user_id", userID).
				Msg("realtime client too slow, disconnecting")
			h.Unregister(c)
			c.Close()
		}
	}
	return delivered
}

// ConnectionCount reports the number of open connections for a user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
