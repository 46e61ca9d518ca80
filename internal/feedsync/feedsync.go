// Package feedsync keeps the store in step with the document store. Each
// adapter opens one live query and replaces its slice on every snapshot.
package feedsync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/angelia/internal/storage"
	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/types"
)

// Subscription opens a live query feeding st and returns its unsubscribe func.
type Subscription func(st *store.Store) (unsubscribe func())

// ErrorHandler is told when a listener dies. Adapters do not retry; the
// owner decides whether to subscribe again.
type ErrorHandler func(collection string, err error)

type options struct {
	onError ErrorHandler
	logger  *slog.Logger
}

type Option func(*options)

func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) { o.onError = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func SubscribeToUsers(w storage.Watcher, opts ...Option) Subscription {
	return func(st *store.Store) func() {
		return run(types.CollectionUsers, buildOptions(opts), func(ctx context.Context) error {
			return w.WatchUsers(ctx, apply(ctx, st.Users.Slice))
		})
	}
}

func SubscribeToChannels(w storage.Watcher, opts ...Option) Subscription {
	return func(st *store.Store) func() {
		return run(types.CollectionChannels, buildOptions(opts), func(ctx context.Context) error {
			return w.WatchChannels(ctx, apply(ctx, st.Channels))
		})
	}
}

func SubscribeToPosts(w storage.Watcher, opts ...Option) Subscription {
	return func(st *store.Store) func() {
		return run(types.CollectionPosts, buildOptions(opts), func(ctx context.Context) error {
			return w.WatchPosts(ctx, apply(ctx, st.Posts))
		})
	}
}

func SubscribeToInvites(w storage.Watcher, opts ...Option) Subscription {
	return func(st *store.Store) func() {
		return run(types.CollectionInvites, buildOptions(opts), func(ctx context.Context) error {
			return w.WatchInvites(ctx, apply(ctx, st.Invites))
		})
	}
}

// SubscribeAll opens every collection listener and returns one unsubscribe.
func SubscribeAll(w storage.Watcher, opts ...Option) Subscription {
	subs := []Subscription{
		SubscribeToUsers(w, opts...),
		SubscribeToChannels(w, opts...),
		SubscribeToPosts(w, opts...),
		SubscribeToInvites(w, opts...),
	}

	return func(st *store.Store) func() {
		stops := make([]func(), 0, len(subs))
		for _, sub := range subs {
			stops = append(stops, sub(st))
		}
		return func() {
			for _, stop := range stops {
				stop()
			}
		}
	}
}

// apply drops snapshots that arrive after the subscription was cancelled.
func apply[T store.Keyed](ctx context.Context, s *store.Slice[T]) storage.SnapshotFunc[T] {
	return func(seq uint64, items []T) {
		if ctx.Err() != nil {
			return
		}
		s.ApplySnapshot(seq, items)
	}
}

// run starts listen in the background. The returned func cancels it and
// waits until no more snapshots can be delivered.
func run(collection string, o options, listen func(ctx context.Context) error) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		o.logger.Info("Listener started", slog.String("collection", collection))
		err := listen(ctx)
		if err != nil && ctx.Err() == nil {
			o.logger.Error("Listener failed",
				slog.String("collection", collection),
				slog.String("error", err.Error()))
			if o.onError != nil {
				o.onError(collection, err)
			}
			return
		}
		o.logger.Info("Listener stopped", slog.String("collection", collection))
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
