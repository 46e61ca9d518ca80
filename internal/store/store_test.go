package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(id string, ts int64) types.Post {
	return types.Post{ID: id, Timestamp: ts, ChannelID: "c1"}
}

func TestSlice_SetAllLastPayloadWins(t *testing.T) {
	s := New()

	payloads := [][]types.Post{
		{post("a", 1), post("b", 2)},
		{post("c", 3)},
		{},
		{post("d", 4), post("a", 1)},
	}

	for i, p := range payloads {
		s.Posts.SetAll(p)
		assert.Equal(t, p, s.Posts.Items(), "after dispatch %d", i)
	}
}

func TestSlice_SetAllCopiesPayload(t *testing.T) {
	s := New()
	payload := []types.Post{post("a", 1)}

	s.Posts.SetAll(payload)
	payload[0].Text = "changed"

	assert.Equal(t, "", s.Posts.Items()[0].Text)
}

func TestSlice_AddOnePlacement(t *testing.T) {
	s := New()

	s.Posts.AddOne(post("old", 1))
	s.Posts.AddOne(post("new", 2))
	assert.Equal(t, "new", s.Posts.Items()[0].ID)

	s.Channels.AddOne(types.Channel{ID: "first"})
	s.Channels.AddOne(types.Channel{ID: "second"})
	assert.Equal(t, "second", s.Channels.Items()[1].ID)
}

func TestSlice_UpdateOne(t *testing.T) {
	s := New()
	s.Posts.SetAll([]types.Post{post("a", 1), post("b", 2)})

	updated := post("b", 2)
	updated.Text = "edited"
	s.Posts.UpdateOne(updated)

	got, ok := s.Posts.Get("b")
	require.True(t, ok)
	assert.Equal(t, "edited", got.Text)

	s.Posts.UpdateOne(post("missing", 9))
	assert.Equal(t, 2, s.Posts.Len())
}

func TestSlice_RemoveOneAndClear(t *testing.T) {
	s := New()
	s.Posts.SetAll([]types.Post{post("a", 1), post("b", 2)})

	s.Posts.RemoveOne("a")
	assert.Equal(t, []types.Post{post("b", 2)}, s.Posts.Items())

	s.Posts.Clear()
	assert.Empty(t, s.Posts.Items())
}

func TestSlice_ApplySnapshotDropsStale(t *testing.T) {
	s := New()

	assert.True(t, s.Posts.ApplySnapshot(5, []types.Post{post("new", 5)}))
	assert.False(t, s.Posts.ApplySnapshot(3, []types.Post{post("old", 3)}))
	assert.Equal(t, "new", s.Posts.Items()[0].ID)

	assert.True(t, s.Posts.ApplySnapshot(7, nil))
	assert.Empty(t, s.Posts.Items())
}

func TestSlice_ReadersKeepTheirView(t *testing.T) {
	s := New()
	s.Posts.SetAll([]types.Post{post("a", 1)})

	before := s.Posts.Items()
	s.Posts.UpdateOne(types.Post{ID: "a", Text: "edited"})

	assert.Equal(t, "", before[0].Text)
}

func TestStore_ResetClearsEverySlice(t *testing.T) {
	s := New()
	s.Users.SetAll([]users.User{{ID: "u1"}})
	s.Users.SetCurrentUser(&users.User{ID: "u1"})
	s.Channels.SetAll([]types.Channel{{ID: "c1"}})
	s.Posts.SetAll([]types.Post{post("p1", 1)})
	s.Invites.SetAll([]types.ChannelInvite{{ID: "i1"}})
	s.Posts.ApplySnapshot(10, []types.Post{post("p2", 2)})

	var mu sync.Mutex
	var seen []string
	s.Subscribe(func(c string) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})

	s.Reset()

	assert.Empty(t, s.Users.Items())
	assert.Nil(t, s.Users.CurrentUser())
	assert.Empty(t, s.Channels.Items())
	assert.Empty(t, s.Posts.Items())
	assert.Empty(t, s.Invites.Items())
	assert.Equal(t, []string{ResetCollection}, seen)

	// sequence tracking restarts too
	assert.True(t, s.Posts.ApplySnapshot(1, []types.Post{post("p3", 3)}))
}

func TestStore_OnResetRunsExtraHandlers(t *testing.T) {
	s := New()
	called := false
	s.OnReset(func() { called = true })

	s.Reset()

	assert.True(t, called)
}

func TestStore_SubscribeCancel(t *testing.T) {
	s := New()
	count := 0
	cancel := s.Subscribe(func(string) { count++ })

	s.Posts.AddOne(post("a", 1))
	cancel()
	s.Posts.AddOne(post("b", 2))

	assert.Equal(t, 1, count)
}

func TestStore_ConcurrentWritersAreSerialized(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Channels.AddOne(types.Channel{ID: fmt.Sprintf("c%d", i)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Channels.Len())
}

func TestSlice_ConcurrentUpsertKeepsOneCopy(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Channels.UpsertOne(types.Channel{ID: "daily", Name: fmt.Sprintf("v%d", i)})
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, s.Channels.Len())
}
