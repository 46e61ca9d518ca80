package storage

import (
	"context"

	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
)

// Storage is the backing document store. Create* calls fail with
// apperr.ErrDocumentExists when the id is taken; Get* calls return the
// matching not-found sentinel. Update* run mutate as one atomic
// read-modify-write and return the stored result.
type Storage interface {
	Watcher

	GetUser(ctx context.Context, id string) (*users.User, error)
	CreateUser(ctx context.Context, u users.User) error
	UpdateUser(ctx context.Context, id string, mutate func(*users.User) error) (*users.User, error)

	GetChannel(ctx context.Context, id string) (*types.Channel, error)
	CreateChannel(ctx context.Context, c types.Channel) error
	UpdateChannel(ctx context.Context, id string, mutate func(*types.Channel) error) (*types.Channel, error)
	FindChannelByInviteCode(ctx context.Context, code string) (*types.Channel, error)
	FindDailyChannel(ctx context.Context, ownerID string) (*types.Channel, error)

	GetPost(ctx context.Context, id string) (*types.Post, error)
	CreatePost(ctx context.Context, p types.Post) error
	UpdatePost(ctx context.Context, id string, mutate func(*types.Post) error) (*types.Post, error)

	GetInvite(ctx context.Context, id string) (*types.ChannelInvite, error)
	CreateInvite(ctx context.Context, inv types.ChannelInvite) error
	UpdateInvite(ctx context.Context, id string, mutate func(*types.ChannelInvite) error) (*types.ChannelInvite, error)
}

// SnapshotFunc receives a full query result. seq grows with every
// snapshot of the same query.
type SnapshotFunc[T any] func(seq uint64, items []T)

// Watcher opens live queries that exclude soft-deleted documents. Each
// call blocks, delivering snapshots, until ctx ends (nil) or the listener
// fails (the error). Watchers never retry.
type Watcher interface {
	WatchUsers(ctx context.Context, fn SnapshotFunc[users.User]) error
	WatchChannels(ctx context.Context, fn SnapshotFunc[types.Channel]) error
	WatchPosts(ctx context.Context, fn SnapshotFunc[types.Post]) error
	WatchInvites(ctx context.Context, fn SnapshotFunc[types.ChannelInvite]) error
}
