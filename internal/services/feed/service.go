// Package feed holds the multi-step write actions of the feed: channel
// provisioning, invites, post upload, reactions and comments. Every action
// writes to the document store first and then mirrors the result into the
// local store so readers see it before the next snapshot arrives.
package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/princekumarofficial/angelia/internal/storage"
	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

// ObjectStore receives post attachments.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Notifier pushes notifications to devices. Failures never fail the action.
type Notifier interface {
	PostPublished(ctx context.Context, post types.Post, channel types.Channel, author string) error
	Invited(ctx context.Context, invite types.ChannelInvite, channel types.Channel, inviter string) error
}

type nopNotifier struct{}

func (nopNotifier) PostPublished(context.Context, types.Post, types.Channel, string) error {
	return nil
}

func (nopNotifier) Invited(context.Context, types.ChannelInvite, types.Channel, string) error {
	return nil
}

// NopNotifier drops every notification.
var NopNotifier Notifier = nopNotifier{}

// Backend hands out the services actions write to. Live and demo mode
// each provide one.
type Backend interface {
	Storage() storage.Storage
	Objects() ObjectStore
	Notifier() Notifier
}

type staticBackend struct {
	storage  storage.Storage
	objects  ObjectStore
	notifier Notifier
}

func (b staticBackend) Storage() storage.Storage { return b.storage }
func (b staticBackend) Objects() ObjectStore     { return b.objects }
func (b staticBackend) Notifier() Notifier       { return b.notifier }

// Static is a Backend that never switches. A nil notifier sends nothing.
func Static(st storage.Storage, objects ObjectStore, notifier Notifier) Backend {
	if notifier == nil {
		notifier = NopNotifier
	}
	return staticBackend{storage: st, objects: objects, notifier: notifier}
}

type Options struct {
	CustomChannelLimit int
	MaxFilesPerPost    int
	MaxFileSize        int64
	AllowedMimeTypes   []string
}

type Service struct {
	backend  Backend
	store    *store.Store
	opts     Options
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(backend Backend, st *store.Store, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend:  backend,
		store:    st,
		opts:     opts,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) db() storage.Storage { return s.backend.Storage() }

func (s *Service) nowMillis() int64 { return s.now().UnixMilli() }

func (s *Service) validateStruct(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, "invalid request", err)
	}
	return nil
}

// channel looks in the local store first and falls back to the document store.
func (s *Service) channel(ctx context.Context, channelID string) (*types.Channel, error) {
	if c := s.store.ChannelByID(channelID); c != nil {
		return c, nil
	}
	c, err := s.db().GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if c.Deleted() {
		return nil, apperr.ErrChannelNotFound
	}
	return c, nil
}

func (s *Service) requireReader(ctx context.Context, channelID, userID string) (*types.Channel, error) {
	c, err := s.channel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !c.HasSubscriber(userID) {
		return nil, apperr.ErrNotSubscribed
	}
	return c, nil
}

func isNotFound(err error) bool {
	return apperr.IsCode(err, apperr.CodeNotFound)
}

func isExists(err error) bool {
	return errors.Is(err, apperr.ErrDocumentExists)
}

func (s *Service) displayName(userID string) string {
	if u := s.cachedUser(userID); u != nil {
		return u.DisplayName()
	}
	return "Someone"
}

func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }
