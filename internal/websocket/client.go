package websocket

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/princekumarofficial/angelia/internal/types"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client represents a WebSocket client connection
type Client struct {
	// The websocket connection
	conn *websocket.Conn

	// Buffered channel of outbound messages. Only the hub closes it.
	send chan []byte

	// User ID associated with this connection
	userID string

	// Demo session the connection belongs to, empty for live data
	scope string

	// Hub instance
	hub *Hub
}

// NewClient creates a new WebSocket client. scope is empty for live data
// and the demo session id otherwise.
func NewClient(conn *websocket.Conn, userID, scope string, hub *Hub) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		scope:  scope,
		hub:    hub,
	}
}

func (c *Client) key() clientKey {
	return clientKey{scope: c.scope, userID: c.userID}
}

// readPump drains the connection so pongs and close frames get handled.
// Clients never send data of their own.
func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", slog.String("error", err.Error()))
			}
			break
		}
	}
}

// writePump sends queued events, one JSON document per frame, and pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue queues an encoded event without blocking. It reports false when
// the client's queue is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Prime queues events before the client is registered, while nothing
// else can close its queue.
func (c *Client) Prime(events ...*types.Event) {
	for _, event := range events {
		data, ok := encode(event)
		if !ok {
			continue
		}
		if !c.enqueue(data) {
			return
		}
	}
}

// Start starts the client's read and write pumps
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
