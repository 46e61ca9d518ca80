package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"

	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

// authClient is the part of the Firebase Admin auth client in use.
type authClient interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
	EmailVerificationLink(ctx context.Context, email string) (string, error)
}

type FirebaseProvider struct {
	client authClient
}

func NewFirebaseProvider(ctx context.Context, app *firebase.App) (*FirebaseProvider, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseProvider{client: client}, nil
}

func (p *FirebaseProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	t, err := p.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, apperr.ErrInvalidToken.Error(), err)
	}

	id := &Identity{UID: t.UID}
	if email, ok := t.Claims["email"].(string); ok {
		id.Email = email
	}
	if verified, ok := t.Claims["email_verified"].(bool); ok {
		id.EmailVerified = verified
	}
	return id, nil
}

func (p *FirebaseProvider) Lookup(ctx context.Context, uid string) (*Identity, error) {
	rec, err := p.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, apperr.Wrap(apperr.CodeUnavailable, "identity lookup failed", err)
	}

	id := &Identity{UID: uid, EmailVerified: rec.EmailVerified}
	if rec.UserInfo != nil {
		id.Email = rec.UserInfo.Email
	}
	return id, nil
}

func (p *FirebaseProvider) SignOut(ctx context.Context, uid string) error {
	if err := p.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return apperr.Wrap(apperr.CodeUnavailable, "sign out failed", err)
	}
	return nil
}

func (p *FirebaseProvider) SendVerification(ctx context.Context, uid string) (string, error) {
	id, err := p.Lookup(ctx, uid)
	if err != nil {
		return "", err
	}
	if id.EmailVerified {
		return "", nil
	}

	link, err := p.client.EmailVerificationLink(ctx, id.Email)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeUnavailable, "could not create verification link", err)
	}
	return link, nil
}
