package store

import (
	"sort"
	"time"

	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
)

// FadeWindow is how long a post stays in the feed.
const FadeWindow = 180 * 24 * time.Hour

func (s *Store) PostAuthor(p types.Post) *users.User {
	u, ok := s.Users.Get(p.AuthorID)
	if !ok {
		return nil
	}
	return &u
}

func (s *Store) PostChannel(p types.Post) *types.Channel {
	c, ok := s.Channels.Get(p.ChannelID)
	if !ok {
		return nil
	}
	return &c
}

func (s *Store) PostByID(id string) *types.Post {
	p, ok := s.Posts.Get(id)
	if !ok || p.Deleted() {
		return nil
	}
	return &p
}

func (s *Store) ChannelByID(id string) *types.Channel {
	c, ok := s.Channels.Get(id)
	if !ok || c.Deleted() {
		return nil
	}
	return &c
}

// OwnedChannels lists the live channels userID owns, daily channel first.
func (s *Store) OwnedChannels(userID string) []types.Channel {
	owned := s.Channels.Filter(func(c types.Channel) bool {
		return !c.Deleted() && c.OwnerID == userID
	})
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].Daily() && !owned[j].Daily()
	})
	return owned
}

// SubscribedChannels lists the live channels userID reads, owned ones included.
func (s *Store) SubscribedChannels(userID string) []types.Channel {
	return s.Channels.Filter(func(c types.Channel) bool {
		return !c.Deleted() && c.HasSubscriber(userID)
	})
}

func (s *Store) DailyChannel(userID string) *types.Channel {
	id := types.DailyChannelID(userID)
	c, ok := s.Channels.Get(id)
	if ok && !c.Deleted() {
		return &c
	}
	for _, c := range s.OwnedChannels(userID) {
		if c.Daily() {
			return &c
		}
	}
	return nil
}

func (s *Store) CustomChannelCount(userID string) int {
	n := 0
	for _, c := range s.OwnedChannels(userID) {
		if !c.Daily() {
			n++
		}
	}
	return n
}

func (s *Store) ChannelByInviteCode(code string) *types.Channel {
	if code == "" {
		return nil
	}
	matches := s.Channels.Filter(func(c types.Channel) bool {
		return !c.Deleted() && c.InviteCode != nil && *c.InviteCode == code
	})
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// Faded reports whether p has aged out of the feed at now.
func Faded(p types.Post, now time.Time) bool {
	return now.Sub(time.UnixMilli(p.Timestamp)) > FadeWindow
}

// Feed returns the posts userID can see, newest first.
func (s *Store) Feed(userID string, now time.Time) []types.Post {
	visible := make(map[string]bool)
	for _, c := range s.SubscribedChannels(userID) {
		visible[c.ID] = true
	}

	feed := s.Posts.Filter(func(p types.Post) bool {
		return !p.Deleted() && visible[p.ChannelID] && !Faded(p, now)
	})
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Timestamp > feed[j].Timestamp
	})
	return feed
}

// ChannelFeed is Feed narrowed to one channel.
func (s *Store) ChannelFeed(userID, channelID string, now time.Time) []types.Post {
	out := []types.Post{}
	for _, p := range s.Feed(userID, now) {
		if p.ChannelID == channelID {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) PendingInvites(userID string) []types.ChannelInvite {
	return s.Invites.Filter(func(i types.ChannelInvite) bool {
		return i.InvitedUserID == userID && i.Status == types.InviteStatusPending
	})
}

// VisibleChannels lists the channels userID reads plus the ones it holds
// a pending invite into.
func (s *Store) VisibleChannels(userID string) []types.Channel {
	invited := make(map[string]bool)
	for _, i := range s.PendingInvites(userID) {
		invited[i.ChannelID] = true
	}
	return s.Channels.Filter(func(c types.Channel) bool {
		return !c.Deleted() && (c.HasSubscriber(userID) || invited[c.ID])
	})
}

// VisibleInvites lists the invites userID received or sent.
func (s *Store) VisibleInvites(userID string) []types.ChannelInvite {
	return s.Invites.Filter(func(i types.ChannelInvite) bool {
		return i.InvitedUserID == userID || i.InvitedBy == userID
	})
}

// VisibleUsers lists userID and everyone it shares a channel or an invite
// with.
func (s *Store) VisibleUsers(userID string) []users.User {
	known := map[string]bool{userID: true}
	for _, c := range s.VisibleChannels(userID) {
		known[c.OwnerID] = true
		for _, id := range c.Subscribers {
			known[id] = true
		}
	}
	for _, i := range s.VisibleInvites(userID) {
		known[i.InvitedBy] = true
		known[i.InvitedUserID] = true
	}
	return s.Users.Filter(func(u users.User) bool {
		return known[u.ID]
	})
}
