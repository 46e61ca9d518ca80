package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/princekumarofficial/angelia/internal/demo"
	"github.com/princekumarofficial/angelia/internal/services/identity"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
	"github.com/princekumarofficial/angelia/internal/utils/response"
)

type contextKey string

const identityKey contextKey = "identity"

// bearerToken reads the token from the Authorization header. Browsers
// cannot set headers on WebSocket upgrades, so a token query parameter is
// accepted as well.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, nil
		}
		return "", apperr.Unauthorized("Authorization header required")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", apperr.Unauthorized("Invalid authorization header format")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", apperr.Unauthorized("Token not provided")
	}
	return token, nil
}

// DemoSessions recognizes the tokens of demo visitors.
type DemoSessions interface {
	Authenticate(token string) (*demo.Session, bool)
}

// Auth verifies the bearer token and stores the caller's identity in the
// request context. Demo session tokens are checked first and also put the
// session in the context; everything else goes to the identity provider.
// sessions may be nil.
func Auth(provider identity.Provider, sessions DemoSessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				response.FromError(w, err)
				return
			}

			if sessions != nil {
				if sess, ok := sessions.Authenticate(token); ok {
					ctx := demo.WithSession(WithIdentity(r.Context(), sess.Identity()), sess)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			id, err := provider.Verify(r.Context(), token)
			if err != nil {
				response.FromError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func WithIdentity(ctx context.Context, id *identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity Auth stored.
func IdentityFromContext(ctx context.Context) (*identity.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*identity.Identity)
	return id, ok && id != nil
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return "", false
	}
	return id.UID, true
}

// RequesterKey names the caller for per-caller state such as rate limits
// and prefs. Demo visitors all act as the same demo user, so each session
// gets its own key.
func RequesterKey(ctx context.Context) (string, bool) {
	if sess, ok := demo.SessionFromContext(ctx); ok {
		return "demo:" + sess.ID, true
	}
	return GetUserIDFromContext(ctx)
}
