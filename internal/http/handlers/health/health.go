package health

import (
	"net/http"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/utils/response"
)

// SessionCounter reports open demo sessions.
type SessionCounter interface {
	Len() int
}

// ConnectionCounter reports live WebSocket clients.
type ConnectionCounter interface {
	GetClientCount() int
}

// Stats is a snapshot of the replica and its backing services.
type Stats struct {
	RedisConnected bool           `json:"redis_connected"`
	RedisKeys      int64          `json:"redis_keys"`
	PrefsKeys      []string       `json:"prefs_keys_sample"`
	Collections    map[string]int `json:"collections"`
	DemoSessions   int            `json:"demo_sessions"`
	Connections    int            `json:"websocket_connections"`
}

// Health answers load balancer liveness checks
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response "Redis unreachable"
// @Router /health [get]
func Health(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			response.WriteJSON(w, http.StatusServiceUnavailable, response.GeneralError(err))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("ok", nil))
	}
}

// GetStats returns replica sizes and Redis statistics
// @Summary Service statistics
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=Stats}
// @Router /stats [get]
func GetStats(redisClient *redis.Client, st *store.Store, demos SessionCounter, conns ConnectionCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := Stats{
			RedisConnected: true,
			Collections: map[string]int{
				st.Users.Name():    st.Users.Len(),
				st.Channels.Name(): st.Channels.Len(),
				st.Posts.Name():    st.Posts.Len(),
				st.Invites.Name():  st.Invites.Len(),
			},
			DemoSessions: demos.Len(),
			Connections:  conns.GetClientCount(),
		}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			stats.RedisConnected = false
			response.WriteJSON(w, http.StatusOK, response.RequestOK("Stats retrieved", stats))
			return
		}

		// first page of prefs keys is enough for a sample
		keys, _, err := redisClient.Scan(ctx, 0, "prefs:user:*", 10).Result()
		if err == nil {
			stats.PrefsKeys = keys
			if len(stats.PrefsKeys) > 10 {
				stats.PrefsKeys = stats.PrefsKeys[:10]
			}
		}

		if n, err := redisClient.DBSize(ctx).Result(); err == nil {
			stats.RedisKeys = n
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Stats retrieved", stats))
	}
}
