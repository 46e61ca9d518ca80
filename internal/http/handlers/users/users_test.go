package users

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/angelia/internal/demo"
	"github.com/princekumarofficial/angelia/internal/http/middleware"
	"github.com/princekumarofficial/angelia/internal/services/feed"
	"github.com/princekumarofficial/angelia/internal/services/identity"
	"github.com/princekumarofficial/angelia/internal/seed"
	"github.com/princekumarofficial/angelia/internal/services/media"
	"github.com/princekumarofficial/angelia/internal/storage/memory"
	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/types/users"
)

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

func newHandlers(provider identity.Provider) (*UserHandlers, *store.Store) {
	st := store.New()
	svc := feed.NewService(feed.Static(memory.New(), media.NewMemoryStore("http://media.test"), nil), st, feed.Options{}, nil)
	return NewUserHandlers(svc, provider, slog.Default()), st
}

func call(t *testing.T, h http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

// authed runs req through the auth middleware like the router does.
func authed(provider identity.Provider, h http.HandlerFunc) http.HandlerFunc {
	return middleware.Auth(provider, nil)(h).ServeHTTP
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestSignUpVerifyAndCompleteProfile(t *testing.T) {
	provider := identity.NewLocalProvider("secret", time.Hour, "http://api.test")
	h, st := newHandlers(provider)

	rec, env := call(t, h.SignUp(), httptest.NewRequest(http.MethodPost, "/auth/signup",
		bytes.NewBufferString(`{"email":"ada@example.com","password":"hunter22"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	var signed SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &signed))
	require.NotEmpty(t, signed.Session.Token)
	assert.False(t, signed.User.AccountProgress.EmailVerified)
	token := signed.Session.Token

	profile := `{"firstName":"Ada","lastName":"Lovelace","avatar":"owl"}`
	rec, _ = call(t, authed(provider, h.CompleteProfile()),
		bearer(httptest.NewRequest(http.MethodPut, "/me/profile", bytes.NewBufferString(profile)), token))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, env = call(t, authed(provider, h.SendVerification()),
		bearer(httptest.NewRequest(http.MethodPost, "/auth/verify", nil), token))
	require.Equal(t, http.StatusOK, rec.Code)
	var link map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &link))
	u, err := url.Parse(link["link"])
	require.NoError(t, err)
	assert.Equal(t, "/auth/verify/confirm", u.Path)

	rec, env = call(t, h.ConfirmVerification(), httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	var verified users.User
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.True(t, verified.AccountProgress.EmailVerified)

	rec, env = call(t, authed(provider, h.CompleteProfile()),
		bearer(httptest.NewRequest(http.MethodPut, "/me/profile", bytes.NewBufferString(profile)), token))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	var done users.User
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.True(t, done.AccountProgress.SignUpComplete)
	assert.NotNil(t, st.DailyChannel(done.ID))
}

func TestLoginAndLogout(t *testing.T) {
	provider := identity.NewLocalProvider("secret", time.Hour, "http://api.test")
	_, err := provider.SignUp(context.Background(), "bo@example.com", "hunter22")
	require.NoError(t, err)
	h, _ := newHandlers(provider)

	rec, _ := call(t, h.Login(), httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email":"bo@example.com","password":"wrong-one"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := call(t, h.Login(), httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email":"bo@example.com","password":"hunter22"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var signed SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &signed))
	token := signed.Session.Token

	rec, _ = call(t, authed(provider, h.Me()), bearer(httptest.NewRequest(http.MethodGet, "/me", nil), token))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(t, authed(provider, h.Logout()), bearer(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), token))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(t, authed(provider, h.Me()), bearer(httptest.NewRequest(http.MethodGet, "/me", nil), token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignUp_InvalidBody(t *testing.T) {
	h, _ := newHandlers(identity.NewLocalProvider("secret", time.Hour, "http://api.test"))

	rec, _ := call(t, h.SignUp(), httptest.NewRequest(http.MethodPost, "/auth/signup",
		bytes.NewBufferString(`{"email":"not-an-email","password":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type tokenOnlyProvider struct{}

func (tokenOnlyProvider) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	return &identity.Identity{UID: token}, nil
}

func (tokenOnlyProvider) Lookup(ctx context.Context, uid string) (*identity.Identity, error) {
	return &identity.Identity{UID: uid, EmailVerified: true}, nil
}

func (tokenOnlyProvider) SignOut(ctx context.Context, uid string) error { return nil }

func (tokenOnlyProvider) SendVerification(ctx context.Context, uid string) (string, error) {
	return "", nil
}

func TestPasswordRoutesNeedPasswordProvider(t *testing.T) {
	h, _ := newHandlers(tokenOnlyProvider{})

	rec, _ := call(t, h.SignUp(), httptest.NewRequest(http.MethodPost, "/auth/signup",
		bytes.NewBufferString(`{"email":"ada@example.com","password":"hunter22"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = call(t, h.ConfirmVerification(), httptest.NewRequest(http.MethodGet, "/auth/verify/confirm?token=x", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerificationStatus_PicksUpProviderFlag(t *testing.T) {
	provider := tokenOnlyProvider{}
	h, _ := newHandlers(provider)

	rec, env := call(t, authed(provider, h.VerificationStatus()),
		bearer(httptest.NewRequest(http.MethodGet, "/auth/verify/status", nil), "uid-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var u users.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "uid-1", u.ID)
	assert.True(t, u.AccountProgress.EmailVerified)
}

func TestVerificationStatus_WaitRunsOut(t *testing.T) {
	provider := identity.NewLocalProvider("secret", time.Hour, "http://api.test")
	session, err := provider.SignUp(context.Background(), "cy@example.com", "hunter22")
	require.NoError(t, err)
	h, _ := newHandlers(provider)

	rec, env := call(t, authed(provider, h.VerificationStatus()),
		bearer(httptest.NewRequest(http.MethodGet, "/auth/verify/status?wait=20ms", nil), session.Token))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var u users.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.False(t, u.AccountProgress.EmailVerified)

	rec, _ = call(t, authed(provider, h.VerificationStatus()),
		bearer(httptest.NewRequest(http.MethodGet, "/auth/verify/status?wait=soon", nil), session.Token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDemoSession_ActsOnItsOwnData(t *testing.T) {
	provider := identity.NewLocalProvider("secret", time.Hour, "http://api.test")
	h, st := newHandlers(provider)

	sessions := demo.NewSessions(demo.Options{MediaBaseURL: "http://api.test/demo-media"})
	sess, err := sessions.Enter(context.Background())
	require.NoError(t, err)
	defer sessions.Exit(sess.ID)

	rec, env := call(t, middleware.Auth(provider, sessions)(h.Me()).ServeHTTP,
		bearer(httptest.NewRequest(http.MethodGet, "/me", nil), sess.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	var me users.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, seed.DemoUserID, me.ID)
	assert.Zero(t, st.Users.Len(), "the live replica is untouched")

	for name, handler := range map[string]http.HandlerFunc{
		"logout": h.Logout(),
		"verify": h.SendVerification(),
		"status": h.VerificationStatus(),
	} {
		rec, _ := call(t, middleware.Auth(provider, sessions)(handler).ServeHTTP,
			bearer(httptest.NewRequest(http.MethodPost, "/", nil), sess.Token))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, name)
	}
}
