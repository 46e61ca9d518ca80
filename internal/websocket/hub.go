package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/angelia/internal/types"
)

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients, one per user and scope
	clients map[clientKey]*Client

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect clients map
	mu sync.RWMutex

	// Channel to broadcast events
	broadcast chan *BroadcastMessage

	// Closed when Run returns
	done chan struct{}
}

// clientKey separates a user's live connection from demo sessions, which
// all sign in as the same demo user.
type clientKey struct {
	scope  string
	userID string
}

// BroadcastMessage is an event for every client in Scope. When Render is
// set it builds the event per recipient instead, and a nil result skips
// that recipient.
type BroadcastMessage struct {
	Scope  string
	Event  *types.Event
	Render func(userID string) *types.Event
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[clientKey]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run owns the client map until ctx ends, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for key, client := range h.clients {
				close(client.send)
				delete(h.clients, key)
			}
			h.mu.Unlock()
			slog.Info("WebSocket hub stopped")
			return nil

		case client := <-h.register:
			h.mu.Lock()
			// If user already has a connection, close the old one
			if existingClient, exists := h.clients[client.key()]; exists {
				close(existingClient.send)
				slog.Info("Replaced existing WebSocket connection", slog.String("user_id", client.userID))
			}
			h.clients[client.key()] = client
			h.mu.Unlock()
			slog.Info("WebSocket client connected",
				slog.String("user_id", client.userID),
				slog.String("scope", client.scope))

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// removeLocked drops client unless it was already replaced by a newer
// connection of the same user.
func (h *Hub) removeLocked(client *Client) {
	if current, ok := h.clients[client.key()]; ok && current == client {
		delete(h.clients, client.key())
		close(client.send)
		slog.Info("WebSocket client disconnected", slog.String("user_id", client.userID))
	}
}

// RegisterClient registers a new client
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastAll sends the same event to every client in scope.
func (h *Hub) BroadcastAll(scope string, event *types.Event) {
	h.enqueue(&BroadcastMessage{Scope: scope, Event: event})
}

// BroadcastEach sends every client in scope the event render builds for
// its user. Rendering happens at delivery, so clients that connect in
// between are covered too.
func (h *Hub) BroadcastEach(scope string, render func(userID string) *types.Event) {
	h.enqueue(&BroadcastMessage{Scope: scope, Render: render})
}

func (h *Hub) enqueue(message *BroadcastMessage) {
	select {
	case h.broadcast <- message:
	default:
		slog.Warn("Broadcast channel is full, dropping message", slog.String("scope", message.Scope))
	}
}

// deliver runs on the hub goroutine, the only writer of client queues.
func (h *Hub) deliver(message *BroadcastMessage) {
	var shared []byte
	if message.Render == nil {
		data, ok := encode(message.Event)
		if !ok {
			return
		}
		shared = data
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for key, client := range h.clients {
		if key.scope != message.Scope {
			continue
		}

		data := shared
		if message.Render != nil {
			event := message.Render(client.userID)
			if event == nil {
				continue
			}
			encoded, ok := encode(event)
			if !ok {
				continue
			}
			data = encoded
		}

		if !client.enqueue(data) {
			slog.Error("Client too slow, disconnecting", slog.String("user_id", client.userID))
			h.removeLocked(client)
		}
	}
}

func encode(event *types.Event) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to encode event",
			slog.String("event", string(event.Type)),
			slog.String("error", err.Error()))
		return nil, false
	}
	return data, true
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
