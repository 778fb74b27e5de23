// Package sse fans quote change events out to connected backoffice clients.
package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event is a single Server-Sent Event.
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client is one connected subscriber. Events is closed on unregister.
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages SSE client connections. It is injected where quote mutations
// happen rather than held as a package global.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

// Unregister removes a client and closes its channel. Safe to call for an
// unknown ID.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered",
			zap.String("client_id", clientID),
			zap.Int("total", len(h.clients)),
		)
	}
}

// Broadcast sends an event to every connected client. Slow clients with a
// full buffer miss the event rather than block the sender.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, dropping event",
				zap.String("client_id", client.ID),
			)
		}
	}
}

// PublishQuoteUpdate broadcasts a quote_update event.
func (h *Hub) PublishQuoteUpdate(quoteID, action string) {
	payload, _ := json.Marshal(map[string]string{
		"quote_id": quoteID,
		"action":   action,
	})
	h.Broadcast(Event{
		EventType: "quote_update",
		Data:      string(payload),
	})
}
