package memory

import (
	"slices"

	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
)

func cloneUser(u users.User) users.User {
	u.MarkedForDeletionAt = cloneInt64(u.MarkedForDeletionAt)
	return u
}

func cloneChannel(c types.Channel) types.Channel {
	c.Subscribers = slices.Clone(c.Subscribers)
	if c.IsDaily != nil {
		v := *c.IsDaily
		c.IsDaily = &v
	}
	if c.InviteCode != nil {
		v := *c.InviteCode
		c.InviteCode = &v
	}
	c.MarkedForDeletionAt = cloneInt64(c.MarkedForDeletionAt)
	return c
}

func clonePost(p types.Post) types.Post {
	p.Media = slices.Clone(p.Media)
	p.Comments = slices.Clone(p.Comments)
	p.ConversationEnrollees = slices.Clone(p.ConversationEnrollees)
	if p.Reactions != nil {
		reactions := make([]types.Reaction, len(p.Reactions))
		for i, r := range p.Reactions {
			reactions[i] = types.Reaction{Emoji: r.Emoji, UserIDs: slices.Clone(r.UserIDs)}
		}
		p.Reactions = reactions
	}
	p.MarkedForDeletionAt = cloneInt64(p.MarkedForDeletionAt)
	return p
}

func cloneInvite(i types.ChannelInvite) types.ChannelInvite {
	i.RespondedAt = cloneInt64(i.RespondedAt)
	return i
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
