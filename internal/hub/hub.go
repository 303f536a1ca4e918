// Package hub pushes game changes to connected WebSocket viewers.
package hub

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/XavierBriggs/Hermes/pkg/contracts"
	"github.com/XavierBriggs/Hermes/pkg/models"
)

const (
	broadcastBufferSize = 1000
	metricsInterval     = 30 * time.Second
)

// SnapshotSource supplies the state sent to a client when it connects or resubscribes
type SnapshotSource interface {
	ActiveGames() []models.Game
	Statuses() map[models.League]models.LeagueStatus
}

// Hub maintains the set of active clients and broadcasts change events to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.ChangeEvent
	register   chan *Client
	unregister chan *Client
	resync     chan *Client
	done       chan struct{}

	source   SnapshotSource
	sourceMu sync.RWMutex

	logger *zap.Logger

	totalConnections int64
	totalMessages    int64
	totalDropped     int64
	metricsMu        sync.Mutex
}

// Ensure Hub implements Notifier
var _ contracts.Notifier = (*Hub)(nil)

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.ChangeEvent, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		resync:     make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// SetSource sets the snapshot source used for initial messages
func (h *Hub) SetSource(src SnapshotSource) {
	h.sourceMu.Lock()
	defer h.sourceMu.Unlock()
	h.source = src
}

// Run starts the hub's main loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")
	defer close(h.done)

	go h.reportMetrics(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case c := <-h.resync:
			h.sendInitial(c)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client to the hub and queues its initial snapshot
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Resync sends the client a fresh initial snapshot matching its current filter
func (h *Hub) Resync(c *Client) {
	select {
	case h.resync <- c:
	case <-h.done:
	}
}

// Broadcast queues a change event for every matching client
func (h *Hub) Broadcast(event models.ChangeEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast buffer full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("game_id", event.GameID))
	}
}

// Notify broadcasts the event to local clients
func (h *Hub) Notify(_ context.Context, event models.ChangeEvent) error {
	h.Broadcast(event)
	return nil
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.clientsMu.Unlock()

	h.metricsMu.Lock()
	h.totalConnections++
	h.metricsMu.Unlock()

	h.logger.Info("client connected", zap.String("client_id", c.ID), zap.Int("total", total))
	h.sendInitial(c)
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
		h.logger.Info("client disconnected", zap.String("client_id", c.ID), zap.Int("total", len(h.clients)))
	}
}

// sendInitial delivers the active games and league statuses visible through the client's filter
func (h *Hub) sendInitial(c *Client) {
	h.clientsMu.RLock()
	_, ok := h.clients[c]
	h.clientsMu.RUnlock()
	if !ok {
		return
	}

	if !c.TrySend(h.initialMessage(c.Filter())) {
		h.dropClient(c)
	}
}

func (h *Hub) initialMessage(filter SubscriptionFilter) ServerMessage {
	payload := InitialPayload{
		Games:    []models.Game{},
		Statuses: map[models.League]models.LeagueStatus{},
	}

	h.sourceMu.RLock()
	src := h.source
	h.sourceMu.RUnlock()

	if src != nil {
		for _, g := range src.ActiveGames() {
			if filter.MatchesGame(g) {
				payload.Games = append(payload.Games, g)
			}
		}
		payload.Statuses = src.Statuses()
	}

	return ServerMessage{Type: MessageTypeInitial, Payload: payload, Timestamp: time.Now().UTC()}
}

// broadcastEvent sends an event to all clients whose filter matches it
func (h *Hub) broadcastEvent(event models.ChangeEvent) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := ServerMessage{
		Type:      string(event.Type),
		Payload:   event,
		Timestamp: time.Now().UTC(),
	}

	sent := 0
	for _, c := range clients {
		if !c.Filter().Matches(event) {
			continue
		}

		if c.TrySend(message) {
			sent++
			continue
		}

		// Client buffer full - too slow, disconnect
		h.logger.Warn("client buffer full, disconnecting", zap.String("client_id", c.ID))
		h.dropClient(c)
	}

	if sent > 0 {
		h.metricsMu.Lock()
		h.totalMessages++
		h.metricsMu.Unlock()
	}
}

// dropClient runs on the hub goroutine, so it removes the client directly
func (h *Hub) dropClient(c *Client) {
	h.metricsMu.Lock()
	h.totalDropped++
	h.metricsMu.Unlock()

	h.unregisterClient(c)
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() map[string]interface{} {
	h.clientsMu.RLock()
	activeClients := len(h.clients)
	h.clientsMu.RUnlock()

	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     activeClients,
		"total_connections":  h.totalConnections,
		"total_messages":     h.totalMessages,
		"dropped_clients":    h.totalDropped,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// shutdown closes all client connections
func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.logger.Info("shutting down hub", zap.Int("active_clients", len(h.clients)))

	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (h *Hub) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := h.GetMetrics()
			h.logger.Debug("hub metrics",
				zap.Any("active_clients", m["active_clients"]),
				zap.Any("total_connections", m["total_connections"]),
				zap.Any("total_messages", m["total_messages"]))
		}
	}
}
