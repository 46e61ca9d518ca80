package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
)

// recordingHub renders per-user broadcasts for a fixed set of connected
// users and keeps what each one received.
type recordingHub struct {
	mu        sync.Mutex
	connected []string
	scopes    []string
	received  map[string][]*types.Event
}

func newRecordingHub(connected ...string) *recordingHub {
	return &recordingHub{connected: connected, received: make(map[string][]*types.Event)}
}

func (h *recordingHub) BroadcastAll(scope string, event *types.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scopes = append(h.scopes, scope)
	for _, id := range h.connected {
		h.received[id] = append(h.received[id], event)
	}
}

func (h *recordingHub) BroadcastEach(scope string, render func(userID string) *types.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scopes = append(h.scopes, scope)
	for _, id := range h.connected {
		if ev := render(id); ev != nil {
			h.received[id] = append(h.received[id], ev)
		}
	}
}

func (h *recordingHub) last(userID string) *types.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := h.received[userID]
	if len(events) == 0 {
		return nil
	}
	return events[len(events)-1]
}

func (h *recordingHub) count(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received[userID])
}

func familyStore(now time.Time) *store.Store {
	st := store.New()
	st.Users.SetAll([]users.User{
		{ID: "owner", Email: "owner@private.example"},
		{ID: "sister", Email: "sister@example.com"},
		{ID: "outsider", Email: "outsider@example.com"},
	})
	st.Channels.SetAll([]types.Channel{
		{ID: "c1", OwnerID: "owner", Subscribers: []string{"sister"}},
	})
	st.Posts.SetAll([]types.Post{
		{ID: "p1", AuthorID: "owner", ChannelID: "c1", Text: "private family news", Timestamp: now.Add(-time.Hour).UnixMilli()},
	})
	return st
}

func newTestPublisher(hub WebSocketHub, st *store.Store, scope string, now time.Time) *EventPublisher {
	p := NewEventPublisher(hub, st, scope)
	p.now = func() time.Time { return now }
	return p
}

func TestPublisher_PushesEachUserItsOwnView(t *testing.T) {
	now := time.Now()
	hub := newRecordingHub("sister", "outsider")
	st := familyStore(now)
	stop := newTestPublisher(hub, st, "", now).Start()
	defer stop()

	st.Posts.AddOne(types.Post{ID: "p2", AuthorID: "sister", ChannelID: "c1", Timestamp: now.UnixMilli()})

	ev := hub.last("sister")
	require.NotNil(t, ev)
	assert.Equal(t, types.EventPostsSet, ev.Type)
	posts, ok := ev.Data.([]types.Post)
	require.True(t, ok)
	assert.Equal(t, []string{"p2", "p1"}, []string{posts[0].ID, posts[1].ID})

	outsider := hub.last("outsider")
	require.NotNil(t, outsider)
	assert.Empty(t, outsider.Data, "an outsider never sees posts of channels it does not read")

	st.Channels.UpsertOne(types.Channel{ID: "c2", OwnerID: "owner"})
	assert.Equal(t, types.EventChannelsSet, hub.last("sister").Type)
	channels, ok := hub.last("sister").Data.([]types.Channel)
	require.True(t, ok)
	require.Len(t, channels, 1)
	assert.Equal(t, "c1", channels[0].ID)
}

func TestPublisher_OutsiderSeesOnlyItself(t *testing.T) {
	now := time.Now()
	hub := newRecordingHub("outsider")
	st := familyStore(now)
	stop := newTestPublisher(hub, st, "", now).Start()
	defer stop()

	st.Users.UpsertOne(users.User{ID: "owner", Email: "owner@private.example", FirstName: "Olga"})

	ev := hub.last("outsider")
	require.NotNil(t, ev)
	visible, ok := ev.Data.([]users.User)
	require.True(t, ok)
	require.Len(t, visible, 1)
	assert.Equal(t, "outsider", visible[0].ID)
}

func TestPublisher_Reset(t *testing.T) {
	hub := newRecordingHub("sister")
	st := store.New()
	stop := NewEventPublisher(hub, st, "").Start()

	st.Reset()
	assert.Equal(t, types.EventStoreReset, hub.last("sister").Type)

	stop()
	count := hub.count("sister")
	st.Posts.AddOne(types.Post{ID: "p1"})
	assert.Equal(t, count, hub.count("sister"))
}

func TestPublisher_DemoModeStaysInScope(t *testing.T) {
	hub := newRecordingHub("demo-user")
	NewEventPublisher(hub, store.New(), "session-1").PublishDemoMode(true)

	assert.Equal(t, types.EventDemoMode, hub.last("demo-user").Type)
	assert.Equal(t, types.DemoModeEvent{Active: true}, hub.last("demo-user").Data)
	assert.Equal(t, []string{"session-1"}, hub.scopes)
}

func TestPublisher_SnapshotIsScopedToUser(t *testing.T) {
	now := time.Now()
	st := familyStore(now)
	p := newTestPublisher(newRecordingHub(), st, "", now)

	events := p.Snapshot("outsider")
	require.Len(t, events, 4)
	for _, ev := range events {
		if ev.Type == types.EventPostsSet {
			assert.Empty(t, ev.Data)
		}
	}

	for _, ev := range p.Snapshot("sister") {
		if ev.Type == types.EventPostsSet {
			assert.Len(t, ev.Data, 1)
		}
	}
}
