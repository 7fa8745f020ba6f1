package wshub

import (
	"context"
	"sync"

	"github.com/coder/websocket"
)

// ClientMessage is the JSON structure received from clients. Type is either
// "begin" or "react"; the browser collapses pointer-down and the space key
// into these two signals before they reach the server.
type ClientMessage struct {
	Type string `json:"t"`
}

const (
	MessageBegin = "begin"
	MessageReact = "react"
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

// Hub manages the WebSocket connections watching one session.
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

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		close(c.Send)
		delete(h.clients, clientID)
	}
}

// Broadcast sends a snapshot payload to every connected client.
// Non-blocking: drops if a client's channel is full.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}

// Count reports the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
