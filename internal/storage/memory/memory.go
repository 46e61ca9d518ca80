// Package memory is an in-process document store. It backs demo mode and
// tests, and mirrors the Firestore store's semantics: create-if-absent,
// atomic read-modify-write and live queries without soft-deleted documents.
package memory

import (
	"context"
	"sync"

	"github.com/princekumarofficial/angelia/internal/storage"
	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

type collection[T any] struct {
	docs     map[string]T
	order    []string
	seq      uint64
	watchers map[int]storage.SnapshotFunc[T]
	live     func(T) bool
	clone    func(T) T
}

func newCollection[T any](live func(T) bool, clone func(T) T) *collection[T] {
	return &collection[T]{
		docs:     make(map[string]T),
		watchers: make(map[int]storage.SnapshotFunc[T]),
		live:     live,
		clone:    clone,
	}
}

// snapshotLocked bumps the sequence and returns what watchers should see.
func (c *collection[T]) snapshotLocked() (uint64, []T, []storage.SnapshotFunc[T]) {
	c.seq++
	items := make([]T, 0, len(c.order))
	for _, id := range c.order {
		doc := c.docs[id]
		if c.live(doc) {
			items = append(items, c.clone(doc))
		}
	}
	fns := make([]storage.SnapshotFunc[T], 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	return c.seq, items, fns
}

type Memory struct {
	mu     sync.Mutex
	nextID int

	users    *collection[users.User]
	channels *collection[types.Channel]
	posts    *collection[types.Post]
	invites  *collection[types.ChannelInvite]
}

var _ storage.Storage = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		users:    newCollection(func(u users.User) bool { return u.MarkedForDeletionAt == nil }, cloneUser),
		channels: newCollection(func(c types.Channel) bool { return !c.Deleted() }, cloneChannel),
		posts:    newCollection(func(p types.Post) bool { return !p.Deleted() }, clonePost),
		invites:  newCollection(func(types.ChannelInvite) bool { return true }, cloneInvite),
	}
}

// Load replaces the contents of every collection, e.g. with seed data.
func (m *Memory) Load(us []users.User, channels []types.Channel, posts []types.Post, invites []types.ChannelInvite) {
	m.mu.Lock()
	loadLocked(m.users, us, users.User.Key)
	loadLocked(m.channels, channels, types.Channel.Key)
	loadLocked(m.posts, posts, types.Post.Key)
	loadLocked(m.invites, invites, types.ChannelInvite.Key)
	m.mu.Unlock()

	publish(m, m.users)
	publish(m, m.channels)
	publish(m, m.posts)
	publish(m, m.invites)
}

func loadLocked[T any](c *collection[T], items []T, key func(T) string) {
	c.docs = make(map[string]T, len(items))
	c.order = c.order[:0]
	for _, it := range items {
		id := key(it)
		if _, ok := c.docs[id]; !ok {
			c.order = append(c.order, id)
		}
		c.docs[id] = c.clone(it)
	}
}

// PostCount counts stored post documents, soft-deleted ones included.
func (m *Memory) PostCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts.docs)
}

// ChannelCount counts stored channel documents, soft-deleted ones included.
func (m *Memory) ChannelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels.docs)
}

func get[T any](m *Memory, c *collection[T], id string, notFound error) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, notFound
	}
	cp := c.clone(doc)
	return &cp, nil
}

func create[T any](m *Memory, c *collection[T], id string, doc T) error {
	m.mu.Lock()
	if _, ok := c.docs[id]; ok {
		m.mu.Unlock()
		return apperr.ErrDocumentExists
	}
	c.docs[id] = c.clone(doc)
	c.order = append(c.order, id)
	m.mu.Unlock()

	publish(m, c)
	return nil
}

func update[T any](m *Memory, c *collection[T], id string, mutate func(*T) error, notFound error) (*T, error) {
	m.mu.Lock()
	doc, ok := c.docs[id]
	if !ok {
		m.mu.Unlock()
		return nil, notFound
	}

	next := c.clone(doc)
	if err := mutate(&next); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	c.docs[id] = c.clone(next)
	m.mu.Unlock()

	publish(m, c)
	return &next, nil
}

func publish[T any](m *Memory, c *collection[T]) {
	m.mu.Lock()
	seq, items, fns := c.snapshotLocked()
	m.mu.Unlock()

	for _, fn := range fns {
		fn(seq, items)
	}
}

func watch[T any](ctx context.Context, m *Memory, c *collection[T], fn storage.SnapshotFunc[T]) error {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	c.watchers[id] = fn
	seq, items, _ := c.snapshotLocked()
	m.mu.Unlock()

	fn(seq, items)

	<-ctx.Done()

	m.mu.Lock()
	delete(c.watchers, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id string) (*users.User, error) {
	return get(m, m.users, id, apperr.ErrUserNotFound)
}

func (m *Memory) CreateUser(ctx context.Context, u users.User) error {
	return create(m, m.users, u.ID, u)
}

func (m *Memory) UpdateUser(ctx context.Context, id string, mutate func(*users.User) error) (*users.User, error) {
	return update(m, m.users, id, mutate, apperr.ErrUserNotFound)
}

func (m *Memory) GetChannel(ctx context.Context, id string) (*types.Channel, error) {
	return get(m, m.channels, id, apperr.ErrChannelNotFound)
}

func (m *Memory) CreateChannel(ctx context.Context, c types.Channel) error {
	return create(m, m.channels, c.ID, c)
}

func (m *Memory) UpdateChannel(ctx context.Context, id string, mutate func(*types.Channel) error) (*types.Channel, error) {
	return update(m, m.channels, id, mutate, apperr.ErrChannelNotFound)
}

func (m *Memory) FindChannelByInviteCode(ctx context.Context, code string) (*types.Channel, error) {
	return m.findChannel(func(c types.Channel) bool {
		return c.InviteCode != nil && *c.InviteCode == code
	}, apperr.ErrInviteNotFound)
}

func (m *Memory) FindDailyChannel(ctx context.Context, ownerID string) (*types.Channel, error) {
	return m.findChannel(func(c types.Channel) bool {
		return c.OwnerID == ownerID && c.Daily()
	}, apperr.ErrChannelNotFound)
}

func (m *Memory) findChannel(match func(types.Channel) bool, notFound error) (*types.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.channels.order {
		c := m.channels.docs[id]
		if !c.Deleted() && match(c) {
			cp := cloneChannel(c)
			return &cp, nil
		}
	}
	return nil, notFound
}

func (m *Memory) GetPost(ctx context.Context, id string) (*types.Post, error) {
	return get(m, m.posts, id, apperr.ErrPostNotFound)
}

func (m *Memory) CreatePost(ctx context.Context, p types.Post) error {
	return create(m, m.posts, p.ID, p)
}

func (m *Memory) UpdatePost(ctx context.Context, id string, mutate func(*types.Post) error) (*types.Post, error) {
	return update(m, m.posts, id, mutate, apperr.ErrPostNotFound)
}

func (m *Memory) GetInvite(ctx context.Context, id string) (*types.ChannelInvite, error) {
	return get(m, m.invites, id, apperr.ErrInviteNotFound)
}

func (m *Memory) CreateInvite(ctx context.Context, inv types.ChannelInvite) error {
	return create(m, m.invites, inv.ID, inv)
}

func (m *Memory) UpdateInvite(ctx context.Context, id string, mutate func(*types.ChannelInvite) error) (*types.ChannelInvite, error) {
	return update(m, m.invites, id, mutate, apperr.ErrInviteNotFound)
}

func (m *Memory) WatchUsers(ctx context.Context, fn storage.SnapshotFunc[users.User]) error {
	return watch(ctx, m, m.users, fn)
}

func (m *Memory) WatchChannels(ctx context.Context, fn storage.SnapshotFunc[types.Channel]) error {
	return watch(ctx, m, m.channels, fn)
}

func (m *Memory) WatchPosts(ctx context.Context, fn storage.SnapshotFunc[types.Post]) error {
	return watch(ctx, m, m.posts, fn)
}

func (m *Memory) WatchInvites(ctx context.Context, fn storage.SnapshotFunc[types.ChannelInvite]) error {
	return watch(ctx, m, m.invites, fn)
}
