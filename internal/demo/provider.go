package demo

import (
	"context"
	"time"

	"github.com/princekumarofficial/angelia/internal/feedsync"
	"github.com/princekumarofficial/angelia/internal/seed"
	"github.com/princekumarofficial/angelia/internal/services/media"
	"github.com/princekumarofficial/angelia/internal/storage"
	"github.com/princekumarofficial/angelia/internal/storage/memory"
	"github.com/princekumarofficial/angelia/internal/store"
)

// Provider fills the store and keeps it current until stop is called.
type Provider interface {
	Start(ctx context.Context, st *store.Store) (stop func(), err error)
}

type remoteProvider struct {
	watcher storage.Watcher
	opts    []feedsync.Option
}

// Remote keeps the store in sync with the live document store.
func Remote(w storage.Watcher, opts ...feedsync.Option) Provider {
	return &remoteProvider{watcher: w, opts: opts}
}

func (p *remoteProvider) Start(ctx context.Context, st *store.Store) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return feedsync.SubscribeAll(p.watcher, p.opts...)(st), nil
}

// SeedProvider serves the demo family out of process memory. Writes made
// while it runs land in DB and Objects and flow back into the store
// through the same listeners live mode uses.
type SeedProvider struct {
	DB      *memory.Memory
	Objects *media.MemoryStore

	now  func() time.Time
	opts []feedsync.Option
}

func NewSeedProvider(mediaBaseURL string, now func() time.Time, opts ...feedsync.Option) *SeedProvider {
	if now == nil {
		now = time.Now
	}
	return &SeedProvider{
		DB:      memory.New(),
		Objects: media.NewMemoryStore(mediaBaseURL),
		now:     now,
		opts:    opts,
	}
}

func (p *SeedProvider) Start(ctx context.Context, st *store.Store) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := p.now()
	us := seed.Users(base)
	channels := seed.Channels(base)
	posts := seed.Posts(base)
	invites := seed.Invites(base)

	p.DB.Load(us, channels, posts, invites)

	st.Users.LoadDemo(us)
	st.Channels.LoadDemo(channels)
	st.Posts.LoadDemo(posts)
	st.Invites.LoadDemo(invites)
	for i := range us {
		if us[i].ID == seed.DemoUserID {
			st.Users.SetCurrentUser(&us[i])
		}
	}

	return feedsync.SubscribeAll(p.DB, p.opts...)(st), nil
}
