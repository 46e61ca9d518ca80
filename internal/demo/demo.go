// Package demo gives each visitor a private copy of the seeded demo
// family. A session has its own store, document store and object store,
// so nothing done in demo mode reaches live data or other visitors.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/princekumarofficial/angelia/internal/events"
	"github.com/princekumarofficial/angelia/internal/feedsync"
	"github.com/princekumarofficial/angelia/internal/seed"
	"github.com/princekumarofficial/angelia/internal/services/feed"
	"github.com/princekumarofficial/angelia/internal/services/identity"
	"github.com/princekumarofficial/angelia/internal/services/media"
	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

var (
	ErrTooManySessions = apperr.New(apperr.CodeResourceExhausted, "too many demo sessions, try again later")
	ErrSessionNotFound = apperr.NotFound("demo session not found")
)

type Options struct {
	// MediaBaseURL prefixes the URLs of files uploaded in a session. The
	// session id and the object key follow it.
	MediaBaseURL string
	// TTL ends sessions idle for longer. Zero keeps them until Exit.
	TTL time.Duration
	// MaxSessions caps concurrent sessions. Zero means no cap.
	MaxSessions int
	Feed        feed.Options
	// Hub receives the session's live events. Nil pushes nothing.
	Hub    events.WebSocketHub
	Now    func() time.Time
	Logger *slog.Logger
}

// Session is one visitor's demo data. ID is public and appears in media
// URLs and hub scopes; Token is the bearer credential.
type Session struct {
	ID      string
	Token   string
	Store   *store.Store
	Feed    *feed.Service
	Events  *events.EventPublisher
	Objects *media.MemoryStore

	stopSync func()
	stopPush func()
	lastSeen time.Time
}

// Identity is who a session's requests act as.
func (s *Session) Identity() *identity.Identity {
	id := &identity.Identity{UID: seed.DemoUserID, EmailVerified: true}
	if u, ok := s.Store.Users.Get(seed.DemoUserID); ok {
		id.Email = u.Email
	}
	return id
}

// Sessions tracks the open demo sessions.
type Sessions struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	byToken map[string]*Session
	byID    map[string]*Session
}

func NewSessions(opts Options) *Sessions {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Hub == nil {
		opts.Hub = nopHub{}
	}
	opts.MediaBaseURL = strings.TrimSuffix(opts.MediaBaseURL, "/")
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{
		opts:    opts,
		logger:  logger,
		byToken: make(map[string]*Session),
		byID:    make(map[string]*Session),
	}
}

// Enter opens a session seeded with the demo family.
func (s *Sessions) Enter(ctx context.Context) (*Session, error) {
	s.Expire()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	if s.opts.MaxSessions > 0 && len(s.byID) >= s.opts.MaxSessions {
		return nil, ErrTooManySessions
	}

	id := xid.New().String()
	logger := s.logger.With(slog.String("demo_session", id))

	st := store.New()
	seeded := NewSeedProvider(s.opts.MediaBaseURL+"/"+id, s.opts.Now, feedsync.WithLogger(logger))

	publisher := events.NewEventPublisher(s.opts.Hub, st, id)
	stopPush := publisher.Start()

	stopSync, err := seeded.Start(ctx, st)
	if err != nil {
		stopPush()
		return nil, fmt.Errorf("start demo session: %w", err)
	}

	sess := &Session{
		ID:       id,
		Token:    uuid.NewString(),
		Store:    st,
		Feed:     feed.NewService(feed.Static(seeded.DB, seeded.Objects, nil), st, s.opts.Feed, logger),
		Events:   publisher,
		Objects:  seeded.Objects,
		stopSync: stopSync,
		stopPush: stopPush,
		lastSeen: now,
	}
	s.byToken[sess.Token] = sess
	s.byID[sess.ID] = sess

	logger.Info("Demo session started", slog.Int("open_sessions", len(s.byID)))
	return sess, nil
}

// Authenticate returns the session token belongs to and keeps it alive.
func (s *Sessions) Authenticate(token string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byToken[token]
	if !ok || s.expiredLocked(sess, s.opts.Now()) {
		return nil, false
	}
	sess.lastSeen = s.opts.Now()
	return sess, true
}

// Lookup finds a session by its public id.
func (s *Sessions) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok || s.expiredLocked(sess, s.opts.Now()) {
		return nil, false
	}
	return sess, true
}

// Exit ends the session. Its store is reset and its clients are told demo
// mode is off.
func (s *Sessions) Exit(id string) error {
	s.mu.Lock()
	sess, ok := s.byID[id]
	if ok {
		s.removeLocked(sess)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.end(sess)
	s.logger.Info("Demo session ended", slog.String("demo_session", id))
	return nil
}

// Len reports the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Expire ends the sessions idle past the TTL and returns how many.
func (s *Sessions) Expire() int {
	s.mu.Lock()
	expired := s.expireLocked(s.opts.Now())
	s.mu.Unlock()

	for _, sess := range expired {
		s.end(sess)
	}
	if len(expired) > 0 {
		s.logger.Info("Expired demo sessions", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// Run expires idle sessions every interval until ctx ends, then closes
// the rest.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return nil
		case <-ticker.C:
			s.Expire()
		}
	}
}

// Close ends every open session.
func (s *Sessions) Close() {
	s.mu.Lock()
	open := make([]*Session, 0, len(s.byID))
	for _, sess := range s.byID {
		open = append(open, sess)
		s.removeLocked(sess)
	}
	s.mu.Unlock()

	for _, sess := range open {
		s.end(sess)
	}
}

func (s *Sessions) expiredLocked(sess *Session, now time.Time) bool {
	return s.opts.TTL > 0 && now.Sub(sess.lastSeen) > s.opts.TTL
}

// expireLocked unlinks expired sessions. The caller ends them.
func (s *Sessions) expireLocked(now time.Time) []*Session {
	var expired []*Session
	for _, sess := range s.byID {
		if s.expiredLocked(sess, now) {
			expired = append(expired, sess)
			s.removeLocked(sess)
		}
	}
	return expired
}

func (s *Sessions) removeLocked(sess *Session) {
	delete(s.byToken, sess.Token)
	delete(s.byID, sess.ID)
}

func (s *Sessions) end(sess *Session) {
	sess.stopSync()
	sess.Store.Reset()
	sess.Events.PublishDemoMode(false)
	sess.stopPush()
}

type nopHub struct{}

func (nopHub) BroadcastAll(string, *types.Event)                      {}
func (nopHub) BroadcastEach(string, func(userID string) *types.Event) {}

type ctxKey struct{}

func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// SessionFromContext returns the demo session a request runs in.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*Session)
	return sess, ok && sess != nil
}

// Scope picks the data a request works on: the demo session's when it has
// one, the live service and replica otherwise.
func Scope(ctx context.Context, svc *feed.Service, st *store.Store) (*feed.Service, *store.Store) {
	if sess, ok := SessionFromContext(ctx); ok {
		return sess.Feed, sess.Store
	}
	return svc, st
}
