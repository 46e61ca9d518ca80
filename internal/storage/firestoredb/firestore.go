package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/princekumarofficial/angelia/internal/storage"
	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

const fieldDeletedAt = "markedForDeletionAt"

type Firestore struct {
	client *firestore.Client
}

var _ storage.Storage = (*Firestore)(nil)

func New(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

// NewFromApp opens the Firestore client of an initialized Firebase app.
func NewFromApp(ctx context.Context, app *firebase.App) (*Firestore, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firestore: %w", err)
	}
	return New(client), nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) doc(collection, id string) *firestore.DocumentRef {
	return f.client.Collection(collection).Doc(id)
}

// live is the base query of every listener: soft-deleted documents are never synced.
func (f *Firestore) live(collection string) firestore.Query {
	return f.client.Collection(collection).Where(fieldDeletedAt, "==", nil)
}

func getDoc[T any](ctx context.Context, ref *firestore.DocumentRef, notFound error) (*T, error) {
	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, notFound
	}
	if err != nil {
		return nil, apperr.ErrStorage(err)
	}

	var v T
	if err := snap.DataTo(&v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref.Path, err)
	}
	return &v, nil
}

func createDoc(ctx context.Context, ref *firestore.DocumentRef, data interface{}) error {
	_, err := ref.Create(ctx, data)
	if status.Code(err) == codes.AlreadyExists {
		return apperr.ErrDocumentExists
	}
	if err != nil {
		return apperr.ErrStorage(err)
	}
	return nil
}

// updateDoc runs mutate inside a transaction so concurrent writers never
// lose each other's changes. Firestore retries the function on contention.
func updateDoc[T any](ctx context.Context, client *firestore.Client, ref *firestore.DocumentRef, mutate func(*T) error, notFound error) (*T, error) {
	var out T
	err := client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return notFound
		}
		if err != nil {
			return err
		}

		var v T
		if err := snap.DataTo(&v); err != nil {
			return fmt.Errorf("decode %s: %w", ref.Path, err)
		}
		if err := mutate(&v); err != nil {
			return err
		}
		out = v
		return tx.Set(ref, v)
	})
	if err != nil {
		var appErr *apperr.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.ErrStorage(err)
	}
	return &out, nil
}

func firstMatch[T any](ctx context.Context, q firestore.Query, notFound error) (*T, error) {
	iter := q.Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, notFound
	}
	if err != nil {
		return nil, apperr.ErrStorage(err)
	}

	var v T
	if err := snap.DataTo(&v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
	}
	return &v, nil
}

func (f *Firestore) GetUser(ctx context.Context, id string) (*users.User, error) {
	return getDoc[users.User](ctx, f.doc(types.CollectionUsers, id), apperr.ErrUserNotFound)
}

func (f *Firestore) CreateUser(ctx context.Context, u users.User) error {
	return createDoc(ctx, f.doc(types.CollectionUsers, u.ID), u)
}

func (f *Firestore) UpdateUser(ctx context.Context, id string, mutate func(*users.User) error) (*users.User, error) {
	return updateDoc(ctx, f.client, f.doc(types.CollectionUsers, id), mutate, apperr.ErrUserNotFound)
}

func (f *Firestore) GetChannel(ctx context.Context, id string) (*types.Channel, error) {
	return getDoc[types.Channel](ctx, f.doc(types.CollectionChannels, id), apperr.ErrChannelNotFound)
}

func (f *Firestore) CreateChannel(ctx context.Context, c types.Channel) error {
	return createDoc(ctx, f.doc(types.CollectionChannels, c.ID), c)
}

func (f *Firestore) UpdateChannel(ctx context.Context, id string, mutate func(*types.Channel) error) (*types.Channel, error) {
	return updateDoc(ctx, f.client, f.doc(types.CollectionChannels, id), mutate, apperr.ErrChannelNotFound)
}

func (f *Firestore) FindChannelByInviteCode(ctx context.Context, code string) (*types.Channel, error) {
	q := f.live(types.CollectionChannels).Where("inviteCode", "==", code)
	return firstMatch[types.Channel](ctx, q, apperr.ErrInviteNotFound)
}

func (f *Firestore) FindDailyChannel(ctx context.Context, ownerID string) (*types.Channel, error) {
	q := f.live(types.CollectionChannels).
		Where("ownerId", "==", ownerID).
		Where("isDaily", "==", true)
	return firstMatch[types.Channel](ctx, q, apperr.ErrChannelNotFound)
}

func (f *Firestore) GetPost(ctx context.Context, id string) (*types.Post, error) {
	return getDoc[types.Post](ctx, f.doc(types.CollectionPosts, id), apperr.ErrPostNotFound)
}

func (f *Firestore) CreatePost(ctx context.Context, p types.Post) error {
	return createDoc(ctx, f.doc(types.CollectionPosts, p.ID), p)
}

func (f *Firestore) UpdatePost(ctx context.Context, id string, mutate func(*types.Post) error) (*types.Post, error) {
	return updateDoc(ctx, f.client, f.doc(types.CollectionPosts, id), mutate, apperr.ErrPostNotFound)
}

func (f *Firestore) GetInvite(ctx context.Context, id string) (*types.ChannelInvite, error) {
	return getDoc[types.ChannelInvite](ctx, f.doc(types.CollectionInvites, id), apperr.ErrInviteNotFound)
}

func (f *Firestore) CreateInvite(ctx context.Context, inv types.ChannelInvite) error {
	return createDoc(ctx, f.doc(types.CollectionInvites, inv.ID), inv)
}

func (f *Firestore) UpdateInvite(ctx context.Context, id string, mutate func(*types.ChannelInvite) error) (*types.ChannelInvite, error) {
	return updateDoc(ctx, f.client, f.doc(types.CollectionInvites, id), mutate, apperr.ErrInviteNotFound)
}

func (f *Firestore) WatchUsers(ctx context.Context, fn storage.SnapshotFunc[users.User]) error {
	return watch(ctx, f.live(types.CollectionUsers), func(u *users.User, id string) { u.ID = id }, fn)
}

func (f *Firestore) WatchChannels(ctx context.Context, fn storage.SnapshotFunc[types.Channel]) error {
	return watch(ctx, f.live(types.CollectionChannels), func(c *types.Channel, id string) { c.ID = id }, fn)
}

func (f *Firestore) WatchPosts(ctx context.Context, fn storage.SnapshotFunc[types.Post]) error {
	return watch(ctx, f.live(types.CollectionPosts), func(p *types.Post, id string) { p.ID = id }, fn)
}

// Invites are never soft-deleted, so their listener covers the whole collection.
func (f *Firestore) WatchInvites(ctx context.Context, fn storage.SnapshotFunc[types.ChannelInvite]) error {
	q := f.client.Collection(types.CollectionInvites).Query
	return watch(ctx, q, func(i *types.ChannelInvite, id string) { i.ID = id }, fn)
}

// watch streams query snapshots into fn, sequenced by snapshot read time.
func watch[T any](ctx context.Context, q firestore.Query, setID func(*T, string), fn storage.SnapshotFunc[T]) error {
	it := q.Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return fmt.Errorf("listener failed: %w", err)
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return fmt.Errorf("read snapshot documents: %w", err)
		}

		items := make([]T, 0, len(docs))
		for _, doc := range docs {
			var v T
			if err := doc.DataTo(&v); err != nil {
				slog.Warn("Skipping undecodable document",
					slog.String("path", doc.Ref.Path),
					slog.String("error", err.Error()))
				continue
			}
			setID(&v, doc.Ref.ID)
			items = append(items, v)
		}

		fn(uint64(snap.ReadTime.UnixNano()), items)
	}
}
