package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/types"
)

type fixedSessions int

func (s fixedSessions) Len() int { return int(s) }

type fixedCount int

func (c fixedCount) GetClientCount() int { return int(c) }

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestHealth(t *testing.T) {
	client, mr := setupRedis(t)

	rec := httptest.NewRecorder()
	Health(client)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = httptest.NewRecorder()
	Health(client)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetStats(t *testing.T) {
	client, _ := setupRedis(t)
	require.NoError(t, client.HSet(context.Background(), "prefs:user:u1", "banner:dismissed", "1").Err())

	st := store.New()
	st.Posts.AddOne(types.Post{ID: "p1"})
	st.Channels.AddOne(types.Channel{ID: "c1"})

	rec := httptest.NewRecorder()
	GetStats(client, st, fixedSessions(3), fixedCount(2))(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Data.RedisConnected)
	assert.Equal(t, 3, env.Data.DemoSessions)
	assert.Equal(t, 2, env.Data.Connections)
	assert.Equal(t, int64(1), env.Data.RedisKeys)
	assert.Equal(t, []string{"prefs:user:u1"}, env.Data.PrefsKeys)
	assert.Equal(t, 1, env.Data.Collections[types.CollectionPosts])
	assert.Equal(t, 1, env.Data.Collections[types.CollectionChannels])
	assert.Equal(t, 0, env.Data.Collections[types.CollectionUsers])
}
