package store

import (
	"testing"
	"time"

	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }

func seededStore(now time.Time) *Store {
	s := New()
	s.Users.SetAll([]users.User{
		{ID: "ann", FirstName: "Ann"},
		{ID: "bob", FirstName: "Bob"},
	})
	s.Channels.SetAll([]types.Channel{
		{ID: "ann-daily", OwnerID: "ann", IsDaily: boolPtr(true), Subscribers: []string{"bob"}},
		{ID: "garden", OwnerID: "ann", IsDaily: boolPtr(false), InviteCode: strPtr("g1")},
		{ID: "bob-daily", OwnerID: "bob", IsDaily: boolPtr(true)},
		{ID: "gone", OwnerID: "ann", MarkedForDeletionAt: int64Ptr(1), InviteCode: strPtr("x1")},
	})

	ms := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }
	s.Posts.SetAll([]types.Post{
		{ID: "p-old", AuthorID: "ann", ChannelID: "ann-daily", Timestamp: ms(200 * 24 * time.Hour)},
		{ID: "p-1", AuthorID: "ann", ChannelID: "ann-daily", Timestamp: ms(2 * time.Hour)},
		{ID: "p-2", AuthorID: "bob", ChannelID: "bob-daily", Timestamp: ms(1 * time.Hour)},
		{ID: "p-3", AuthorID: "ann", ChannelID: "garden", Timestamp: ms(3 * time.Hour)},
		{ID: "p-del", AuthorID: "ann", ChannelID: "ann-daily", Timestamp: ms(time.Minute), MarkedForDeletionAt: int64Ptr(1)},
	})
	return s
}

func TestSelectors_Joins(t *testing.T) {
	s := seededStore(time.Now())
	p := *s.PostByID("p-2")

	require.NotNil(t, s.PostAuthor(p))
	assert.Equal(t, "Bob", s.PostAuthor(p).FirstName)
	require.NotNil(t, s.PostChannel(p))
	assert.Equal(t, "bob-daily", s.PostChannel(p).ID)

	assert.Nil(t, s.PostAuthor(types.Post{AuthorID: "nobody"}))
	assert.Nil(t, s.PostByID("p-del"))
}

func TestSelectors_OwnedAndSubscribed(t *testing.T) {
	s := seededStore(time.Now())

	owned := s.OwnedChannels("ann")
	require.Len(t, owned, 2)
	assert.Equal(t, "ann-daily", owned[0].ID)
	assert.Equal(t, 1, s.CustomChannelCount("ann"))

	var subscribed []string
	for _, c := range s.SubscribedChannels("bob") {
		subscribed = append(subscribed, c.ID)
	}
	assert.ElementsMatch(t, []string{"ann-daily", "bob-daily"}, subscribed)
}

func TestSelectors_DailyChannel(t *testing.T) {
	s := seededStore(time.Now())

	require.NotNil(t, s.DailyChannel("bob"))
	assert.Equal(t, "bob-daily", s.DailyChannel("bob").ID)
	assert.Nil(t, s.DailyChannel("carol"))
}

func TestSelectors_ChannelByInviteCodeSkipsDeleted(t *testing.T) {
	s := seededStore(time.Now())

	require.NotNil(t, s.ChannelByInviteCode("g1"))
	assert.Nil(t, s.ChannelByInviteCode("x1"))
	assert.Nil(t, s.ChannelByInviteCode(""))
}

func TestSelectors_FeedOrderAndFade(t *testing.T) {
	now := time.Now()
	s := seededStore(now)

	var ids []string
	for _, p := range s.Feed("bob", now) {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p-2", "p-1"}, ids)

	ids = nil
	for _, p := range s.Feed("ann", now) {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p-1", "p-3"}, ids)

	assert.Len(t, s.ChannelFeed("ann", "garden", now), 1)
}

func TestSelectors_PendingInvites(t *testing.T) {
	s := New()
	s.Invites.SetAll([]types.ChannelInvite{
		{ID: "i1", InvitedUserID: "bob", Status: types.InviteStatusPending},
		{ID: "i2", InvitedUserID: "bob", Status: types.InviteStatusDeclined},
		{ID: "i3", InvitedUserID: "ann", Status: types.InviteStatusPending},
	})

	pending := s.PendingInvites("bob")
	require.Len(t, pending, 1)
	assert.Equal(t, "i1", pending[0].ID)
}

func TestSelectors_VisibleToOneUser(t *testing.T) {
	s := New()
	s.Users.SetAll([]users.User{
		{ID: "ann", Email: "ann@example.com"},
		{ID: "bob", Email: "bob@example.com"},
		{ID: "cara", Email: "cara@example.com"},
		{ID: "dan", Email: "dan@example.com"},
	})
	s.Channels.SetAll([]types.Channel{
		{ID: "ann-daily", OwnerID: "ann", Subscribers: []string{"bob"}},
		{ID: "cara-daily", OwnerID: "cara"},
		{ID: "dan-daily", OwnerID: "dan"},
	})
	s.Invites.SetAll([]types.ChannelInvite{
		{ID: "i1", ChannelID: "dan-daily", InvitedBy: "dan", InvitedUserID: "bob", Status: types.InviteStatusPending},
		{ID: "i2", ChannelID: "cara-daily", InvitedBy: "cara", InvitedUserID: "ann", Status: types.InviteStatusPending},
	})

	ids := func(n int, key func(int) string) []string {
		out := make([]string, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, key(i))
		}
		return out
	}

	channels := s.VisibleChannels("bob")
	assert.ElementsMatch(t, []string{"ann-daily", "dan-daily"}, ids(len(channels), func(i int) string { return channels[i].ID }))

	invites := s.VisibleInvites("bob")
	require.Len(t, invites, 1)
	assert.Equal(t, "i1", invites[0].ID)

	visible := s.VisibleUsers("bob")
	assert.ElementsMatch(t, []string{"ann", "bob", "dan"}, ids(len(visible), func(i int) string { return visible[i].ID }))

	assert.Empty(t, s.VisibleChannels("outsider"))
	assert.Empty(t, s.VisibleInvites("outsider"))
	assert.Empty(t, s.VisibleUsers("outsider"))
}
