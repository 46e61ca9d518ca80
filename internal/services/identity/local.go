package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

const (
	purposeSession = "session"
	purposeVerify  = "verify"
)

type claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Purpose       string `json:"purpose"`
	Generation    int    `json:"gen"`
	jwt.RegisteredClaims
}

type account struct {
	identity   Identity
	hash       []byte
	generation int
}

// LocalProvider keeps accounts in process for development and tests.
// Tokens are HS256 JWTs; SignOut bumps the account generation so older
// tokens stop verifying.
type LocalProvider struct {
	secret        []byte
	ttl           time.Duration
	verifyBaseURL string
	now           func() time.Time

	mu       sync.RWMutex
	accounts map[string]*account
	byEmail  map[string]string
}

func NewLocalProvider(secret string, ttl time.Duration, verifyBaseURL string) *LocalProvider {
	return &LocalProvider{
		secret:        []byte(secret),
		ttl:           ttl,
		verifyBaseURL: strings.TrimSuffix(verifyBaseURL, "/"),
		now:           time.Now,
		accounts:      make(map[string]*account),
		byEmail:       make(map[string]string),
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "could not hash password", err)
	}

	p.mu.Lock()
	if _, taken := p.byEmail[email]; taken {
		p.mu.Unlock()
		return nil, apperr.ErrEmailTaken
	}
	acc := &account{
		identity: Identity{UID: uuid.NewString(), Email: email},
		hash:     hash,
	}
	p.accounts[acc.identity.UID] = acc
	p.byEmail[email] = acc.identity.UID
	p.mu.Unlock()

	return p.issue(acc.identity, 0)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	p.mu.RLock()
	acc, ok := p.accounts[p.byEmail[email]]
	var (
		id   Identity
		hash []byte
		gen  int
	)
	if ok {
		id, hash, gen = acc.identity, acc.hash, acc.generation
	}
	p.mu.RUnlock()

	if !ok {
		return nil, apperr.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return p.issue(id, gen)
}

func (p *LocalProvider) issue(id Identity, generation int) (*Session, error) {
	expiresAt := p.now().Add(p.ttl)
	token, err := p.sign(claims{
		Email:         id.Email,
		EmailVerified: id.EmailVerified,
		Purpose:       purposeSession,
		Generation:    generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(p.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return nil, err
	}
	return &Session{Identity: id, Token: token, ExpiresAt: expiresAt}, nil
}

func (p *LocalProvider) sign(c claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, "could not sign token", err)
	}
	return token, nil
}

func (p *LocalProvider) parse(token, purpose string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnauthenticated, apperr.ErrInvalidToken.Error(), err)
	}
	if c.Purpose != purpose {
		return nil, apperr.ErrInvalidToken
	}
	return c, nil
}

func (p *LocalProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	c, err := p.parse(token, purposeSession)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	acc, ok := p.accounts[c.Subject]
	if !ok || acc.generation != c.Generation {
		return nil, apperr.ErrInvalidToken
	}
	id := acc.identity
	return &id, nil
}

func (p *LocalProvider) Lookup(ctx context.Context, uid string) (*Identity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	acc, ok := p.accounts[uid]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	id := acc.identity
	return &id, nil
}

func (p *LocalProvider) SignOut(ctx context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[uid]
	if !ok {
		return apperr.ErrUserNotFound
	}
	acc.generation++
	return nil
}

// SendVerification returns a confirmation link carrying a signed
// verification token. Nothing is mailed.
func (p *LocalProvider) SendVerification(ctx context.Context, uid string) (string, error) {
	id, err := p.Lookup(ctx, uid)
	if err != nil {
		return "", err
	}
	if id.EmailVerified {
		return "", nil
	}

	token, err := p.sign(claims{
		Email:   id.Email,
		Purpose: purposeVerify,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(p.now()),
			ExpiresAt: jwt.NewNumericDate(p.now().Add(24 * time.Hour)),
		},
	})
	if err != nil {
		return "", err
	}
	return p.verifyBaseURL + "/auth/verify/confirm?token=" + token, nil
}

// ConfirmVerification consumes a token from SendVerification.
func (p *LocalProvider) ConfirmVerification(ctx context.Context, token string) (*Identity, error) {
	c, err := p.parse(token, purposeVerify)
	if err != nil {
		return nil, err
	}
	if err := p.MarkVerified(ctx, c.Subject); err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil, apperr.ErrInvalidToken
		}
		return nil, err
	}
	return p.Lookup(ctx, c.Subject)
}

func (p *LocalProvider) MarkVerified(ctx context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[uid]
	if !ok {
		return apperr.ErrUserNotFound
	}
	acc.identity.EmailVerified = true
	return nil
}
