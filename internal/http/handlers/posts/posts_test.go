package posts

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
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
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*PostHandlers, *feed.Service, *types.Channel) {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	st := store.New()
	svc := feed.NewService(feed.Static(db, media.NewMemoryStore("http://media.test"), nil), st, feed.Options{
		CustomChannelLimit: 3,
		MaxFilesPerPost:    2,
		MaxFileSize:        1 << 20,
		AllowedMimeTypes:   []string{"image/png"},
	}, nil)

	require.NoError(t, db.CreateUser(ctx, users.User{ID: "u1", Email: "u1@example.com", FirstName: "Ada"}))
	require.NoError(t, db.CreateUser(ctx, users.User{ID: "u2", Email: "u2@example.com"}))
	daily, err := svc.EnsureDailyChannelExists(ctx, "u1")
	require.NoError(t, err)

	return NewPostHandlers(svc, st), svc, daily
}

func as(r *http.Request, uid string) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), &identity.Identity{UID: uid, EmailVerified: true}))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func multipartPost(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, contentType := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="media"; filename="`+name+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/posts", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreatePost_ShowsUpInFeed(t *testing.T) {
	h, _, daily := setup(t)

	rec := httptest.NewRecorder()
	req := multipartPost(t, map[string]string{"channelId": daily.ID, "text": "hello"}, map[string]string{"a.png": "image/png"})
	h.CreatePost()(rec, as(req, "u1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created types.Post
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "hello", created.Text)
	assert.Len(t, created.Media, 1)

	rec = httptest.NewRecorder()
	h.Feed()(rec, as(httptest.NewRequest(http.MethodGet, "/feed", nil), "u1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []FeedItem
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
	require.NotNil(t, items[0].Author)
	assert.Equal(t, "u1", items[0].Author.ID)
	require.NotNil(t, items[0].Channel)
	assert.Equal(t, daily.ID, items[0].Channel.ID)
}

func TestCreatePost_RejectsUnsupportedMedia(t *testing.T) {
	h, _, daily := setup(t)

	rec := httptest.NewRecorder()
	req := multipartPost(t, map[string]string{"channelId": daily.ID}, map[string]string{"a.exe": "application/octet-stream"})
	h.CreatePost()(rec, as(req, "u1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePost_NonSubscriberForbidden(t *testing.T) {
	h, _, daily := setup(t)

	rec := httptest.NewRecorder()
	req := multipartPost(t, map[string]string{"channelId": daily.ID, "text": "hi"}, nil)
	h.CreatePost()(rec, as(req, "u2"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetPost_HiddenFromNonSubscribers(t *testing.T) {
	h, svc, daily := setup(t)
	post, err := svc.UploadPost(context.Background(), "u1", feed.PostForm{ChannelID: daily.ID, Text: "secret"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/posts/"+post.ID, nil)
	req.SetPathValue("id", post.ID)
	h.GetPost()(rec, as(req, "u2"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode(t, rec).Error)
}

func TestToggleReaction_AndComment(t *testing.T) {
	h, svc, daily := setup(t)
	post, err := svc.UploadPost(context.Background(), "u1", feed.PostForm{ChannelID: daily.ID, Text: "cake"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/posts/"+post.ID+"/reactions", bytes.NewBufferString(`{"emoji":"🎉"}`))
	req.SetPathValue("id", post.ID)
	h.ToggleReaction()(rec, as(req, "u1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reacted types.Post
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &reacted))
	require.Len(t, reacted.Reactions, 1)
	assert.Equal(t, []string{"u1"}, reacted.Reactions[0].UserIDs)
	assert.Equal(t, "Reaction added", decode(t, rec).Message)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/posts/"+post.ID+"/reactions", bytes.NewBufferString(`{"emoji":"🎉"}`))
	req.SetPathValue("id", post.ID)
	h.ToggleReaction()(rec, as(req, "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Reaction removed", decode(t, rec).Message)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/posts/"+post.ID+"/comments", bytes.NewBufferString(`{"text":"   "}`))
	req.SetPathValue("id", post.ID)
	h.AddComment()(rec, as(req, "u1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeletePost_OnlyAuthor(t *testing.T) {
	h, svc, daily := setup(t)
	post, err := svc.UploadPost(context.Background(), "u1", feed.PostForm{ChannelID: daily.ID, Text: "bye"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/posts/"+post.ID, nil)
	req.SetPathValue("id", post.ID)
	h.DeletePost()(rec, as(req, "u2"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.DeletePost()(rec, as(req, "u1"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFeed_Unauthenticated(t *testing.T) {
	h, _, _ := setup(t)

	rec := httptest.NewRecorder()
	h.Feed()(rec, httptest.NewRequest(http.MethodGet, "/feed", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
