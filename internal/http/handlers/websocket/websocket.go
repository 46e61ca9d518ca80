package websocket

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/princekumarofficial/angelia/internal/demo"
	"github.com/princekumarofficial/angelia/internal/http/middleware"
	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/utils/response"
	wsClient "github.com/princekumarofficial/angelia/internal/websocket"
)

// Snapshotter supplies the events a new connection of userID starts from.
type Snapshotter interface {
	Snapshot(userID string) []*types.Event
}

// NewUpgrader accepts browsers from allowedOrigins only. Requests without
// an Origin header come from non-browser clients and are let through.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
}

// WebSocketHandler handles WebSocket connections. It runs behind the auth
// middleware, which also reads the token query parameter. Connections made
// with a demo session token follow that session instead of live data.
func WebSocketHandler(hub *wsClient.Hub, upgrader *websocket.Upgrader, live Snapshotter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			slog.Warn("WebSocket connection attempted without identity")
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("token required")))
			return
		}

		snapshots, scope := live, ""
		sess, inDemo := demo.SessionFromContext(r.Context())
		if inDemo {
			snapshots, scope = sess.Events, sess.ID
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		client := wsClient.NewClient(conn, userID, scope, hub)
		client.Prime(types.NewEvent(types.EventDemoMode, types.DemoModeEvent{Active: inDemo}))
		client.Prime(snapshots.Snapshot(userID)...)
		hub.RegisterClient(client)

		client.Start()

		slog.Info("WebSocket connection established", slog.String("user_id", userID), slog.Bool("demo", inDemo))
	}
}
