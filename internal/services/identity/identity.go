// Package identity verifies who is calling. The service only needs the
// account id, the email, the verified flag and sign-out.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

// Provider is an external identity service.
type Provider interface {
	// Verify checks a bearer token and returns its owner.
	Verify(ctx context.Context, token string) (*Identity, error)
	// Lookup re-reads an account, picking up a fresh verified flag.
	Lookup(ctx context.Context, uid string) (*Identity, error)
	// SignOut invalidates every token issued to uid so far.
	SignOut(ctx context.Context, uid string) error
	// SendVerification returns the email verification link for uid.
	SendVerification(ctx context.Context, uid string) (string, error)
}

// Session is a signed-in identity with its bearer token.
type Session struct {
	Identity
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PasswordProvider also handles email/password accounts itself. Firebase
// does that in the web client instead.
type PasswordProvider interface {
	Provider
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
}

// AwaitEmailVerified polls the provider every interval until uid's email
// is verified or ctx ends.
func AwaitEmailVerified(ctx context.Context, p Provider, uid string, interval time.Duration) (*Identity, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		id, err := p.Lookup(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", uid, err)
		}
		if id.EmailVerified {
			return id, nil
		}

		select {
		case <-ctx.Done():
			slog.Debug("Stopped waiting for email verification", slog.String("uid", uid))
			return nil, apperr.Wrap(apperr.CodeFailedPrecondition, apperr.ErrEmailNotVerified.Error(), ctx.Err())
		case <-ticker.C:
		}
	}
}
