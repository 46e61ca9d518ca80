package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/angelia/internal/http/middleware"
	"github.com/princekumarofficial/angelia/internal/services/feed"
	"github.com/princekumarofficial/angelia/internal/services/identity"
	"github.com/princekumarofficial/angelia/internal/services/media"
	"github.com/princekumarofficial/angelia/internal/storage/memory"
	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
)

type envelope struct {
	Status  string          `json:"status"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*ChannelHandlers, *feed.Service) {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	st := store.New()
	svc := feed.NewService(feed.Static(db, media.NewMemoryStore("http://media.test"), nil), st, feed.Options{
		CustomChannelLimit: 1,
	}, nil)

	require.NoError(t, db.CreateUser(ctx, users.User{ID: "owner", Email: "owner@example.com", FirstName: "Grace", LastName: "Hopper"}))
	require.NoError(t, db.CreateUser(ctx, users.User{ID: "guest", Email: "guest@example.com"}))
	_, err := svc.RegisterUser(ctx, identity.Identity{UID: "owner"})
	require.NoError(t, err)

	return NewChannelHandlers(svc, st, "https://angelia.test"), svc
}

func do(t *testing.T, h http.HandlerFunc, method, target, uid, body string, params map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range params {
		req.SetPathValue(k, v)
	}
	if uid != "" {
		req = req.WithContext(middleware.WithIdentity(req.Context(), &identity.Identity{UID: uid}))
	}

	rec := httptest.NewRecorder()
	h(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestCreateChannel_LimitReached(t *testing.T) {
	h, _ := setup(t)
	body := `{"name":"Garden","color":"green"}`

	rec, env := do(t, h.CreateChannel(), http.MethodPost, "/channels", "owner", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	var view ChannelView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.True(t, view.Owned)
	assert.Contains(t, view.InviteLink, "https://angelia.test/invite/")

	rec, _ = do(t, h.CreateChannel(), http.MethodPost, "/channels", "owner", `{"name":"Recipes","color":"red"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateChannel_InvalidColor(t *testing.T) {
	h, _ := setup(t)

	rec, _ := do(t, h.CreateChannel(), http.MethodPost, "/channels", "owner", `{"name":"Garden","color":"plaid"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListChannels_DailyFirst(t *testing.T) {
	h, svc := setup(t)
	ctx := context.Background()
	_, err := svc.CreateCustomChannel(ctx, "owner", types.CreateChannelRequest{Name: "Garden", Color: types.ColorGreen})
	require.NoError(t, err)
	_, err = svc.EnsureDailyChannelExists(ctx, "owner")
	require.NoError(t, err)

	rec, env := do(t, h.ListChannels(), http.MethodGet, "/channels", "owner", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var views []ChannelView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 2)
	assert.True(t, views[0].Daily())
}

func TestInviteLink_ResolveAndJoin(t *testing.T) {
	h, svc := setup(t)
	ctx := context.Background()
	c, err := svc.CreateCustomChannel(ctx, "owner", types.CreateChannelRequest{Name: "Garden", Color: types.ColorGreen})
	require.NoError(t, err)
	code := *c.InviteCode

	rec, env := do(t, h.ResolveInvite(), http.MethodGet, "/invite/"+code, "guest", "", map[string]string{"code": code})
	require.Equal(t, http.StatusOK, rec.Code)
	var preview InvitePreview
	require.NoError(t, json.Unmarshal(env.Data, &preview))
	assert.Equal(t, "Garden", preview.Name)
	assert.Equal(t, "Grace Hopper", preview.OwnerName)

	rec, env = do(t, h.JoinByInviteCode(), http.MethodPost, "/invite/"+code+"/join", "guest", "", map[string]string{"code": code})
	require.Equal(t, http.StatusOK, rec.Code)
	var view ChannelView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.False(t, view.Owned)
	assert.Empty(t, view.InviteLink)
	assert.True(t, view.HasSubscriber("guest"))

	rec, env = do(t, h.ResolveInvite(), http.MethodGet, "/invite/nope", "guest", "", map[string]string{"code": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", env.Error)
}

func TestRegenerateInviteCode_OwnerOnly(t *testing.T) {
	h, svc := setup(t)
	c, err := svc.CreateCustomChannel(context.Background(), "owner", types.CreateChannelRequest{Name: "Garden", Color: types.ColorGreen})
	require.NoError(t, err)
	params := map[string]string{"id": c.ID}

	rec, _ := do(t, h.RegenerateInviteCode(), http.MethodPost, "/channels/"+c.ID+"/invite-code", "guest", "", params)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := do(t, h.RegenerateInviteCode(), http.MethodPost, "/channels/"+c.ID+"/invite-code", "owner", "", params)
	require.Equal(t, http.StatusOK, rec.Code)
	var view ChannelView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.NotEqual(t, *c.InviteCode, *view.InviteCode)
}

func TestDeleteChannel_DailyProtected(t *testing.T) {
	h, svc := setup(t)
	daily, err := svc.EnsureDailyChannelExists(context.Background(), "owner")
	require.NoError(t, err)

	rec, _ := do(t, h.DeleteChannel(), http.MethodDelete, "/channels/"+daily.ID, "owner", "", map[string]string{"id": daily.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInvites_SendAndAccept(t *testing.T) {
	h, svc := setup(t)
	c, err := svc.CreateCustomChannel(context.Background(), "owner", types.CreateChannelRequest{Name: "Garden", Color: types.ColorGreen})
	require.NoError(t, err)

	rec, env := do(t, h.InviteUser(), http.MethodPost, "/invites", "owner", `{"channelId":"`+c.ID+`","userId":"guest"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	var inv types.ChannelInvite
	require.NoError(t, json.Unmarshal(env.Data, &inv))

	rec, env = do(t, h.PendingInvites(), http.MethodGet, "/invites", "guest", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []types.ChannelInvite
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending, 1)

	params := map[string]string{"id": inv.ID}
	rec, _ = do(t, h.RespondToInvite(), http.MethodPost, "/invites/"+inv.ID+"/respond", "owner", `{"accept":true}`, params)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h.RespondToInvite(), http.MethodPost, "/invites/"+inv.ID+"/respond", "guest", `{"accept":true}`, params)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h.RespondToInvite(), http.MethodPost, "/invites/"+inv.ID+"/respond", "guest", `{"accept":false}`, params)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, h.Unsubscribe(), http.MethodDelete, "/channels/"+c.ID+"/subscription", "owner", "", map[string]string{"id": c.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec, _ = do(t, h.Unsubscribe(), http.MethodDelete, "/channels/"+c.ID+"/subscription", "guest", "", map[string]string{"id": c.ID})
	assert.Equal(t, http.StatusOK, rec.Code)
}
