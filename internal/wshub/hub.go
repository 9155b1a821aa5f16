package wshub

import (
	"context"
	"sync"

	"github.com/coder/websocket"
)

// Client represents a single WebSocket connection in the hub.
type Client struct {
	ClientID string
	Conn     *websocket.Conn
	Send     chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub maps client ids to their live connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ClientID] = c
}

// Unregister removes a client and closes its Send channel. No-op for
// unknown ids, so disconnect cleanup can run more than once.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		close(c.Send)
		delete(h.clients, clientID)
	}
}

// Connected reports whether a client currently has a live connection.
func (h *Hub) Connected(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[clientID]
	return ok
}

// Send delivers a payload to one client. Non-blocking: drops if the
// client's channel is full, and reports whether the payload was queued.
func (h *Hub) Send(clientID string, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[clientID]
	if !ok {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		// Drop message if channel full
		return false
	}
}

// SendTo delivers a payload to each listed client. A missing or slow
// recipient never blocks delivery to the rest.
func (h *Hub) SendTo(clientIDs []string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range clientIDs {
		c, ok := h.clients[id]
		if !ok {
			continue
		}
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}
