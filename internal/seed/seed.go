// Package seed builds the fixed demo family used by demo mode. Every
// timestamp is an offset from the base time handed in, so two calls with
// the same base return equal data.
package seed

import (
	"time"

	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/media"
	"github.com/princekumarofficial/angelia/internal/types/users"
)

// DemoUserID is the account demo mode signs in as.
const DemoUserID = "demo-user"

const (
	grandmaID = "demo-grandma"
	uncleID   = "demo-uncle"
	cousinID  = "demo-cousin"

	gardenChannelID  = "demo-channel-garden"
	recipesChannelID = "demo-channel-recipes"
	tripChannelID    = "demo-channel-trip"
)

const day = 24 * time.Hour

func ms(base time.Time, ago time.Duration) int64 {
	return base.Add(-ago).UnixMilli()
}

func complete() users.AccountProgress {
	return users.AccountProgress{SignUpComplete: true, EmailVerified: true, DailyChannelCreated: true}
}

func Users(base time.Time) []users.User {
	return []users.User{
		{
			ID: DemoUserID, FirstName: "Sam", LastName: "Rivera", Email: "sam@demo.angelia.app",
			FunFact: "Can juggle four oranges", Avatar: users.AvatarFox,
			JoinedAt: ms(base, 120*day), AccountProgress: complete(), CustomChannelCount: 1,
		},
		{
			ID: grandmaID, FirstName: "Rosa", LastName: "Rivera", Email: "rosa@demo.angelia.app",
			FunFact: "Has grown tomatoes for fifty summers", Avatar: users.AvatarOwl,
			JoinedAt: ms(base, 110*day), AccountProgress: complete(), CustomChannelCount: 2,
		},
		{
			ID: uncleID, FirstName: "Luis", LastName: "Rivera", Email: "luis@demo.angelia.app",
			FunFact: "Once met a famous astronaut", Avatar: users.AvatarBear,
			JoinedAt: ms(base, 90*day), AccountProgress: complete(),
		},
		{
			ID: cousinID, FirstName: "Mia", LastName: "Chen", Email: "mia@demo.angelia.app",
			FunFact: "Speaks three languages", Avatar: users.AvatarRabbit,
			JoinedAt: ms(base, 60*day), AccountProgress: complete(),
		},
	}
}

func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }

func daily(base time.Time, ownerID string, color types.Color, subscribers []string, code string, ago time.Duration) types.Channel {
	return types.Channel{
		ID:          types.DailyChannelID(ownerID),
		Name:        "Daily",
		Description: "Everyday updates",
		Color:       color,
		IsDaily:     boolPtr(true),
		OwnerID:     ownerID,
		Subscribers: subscribers,
		InviteCode:  stringPtr(code),
		CreatedAt:   ms(base, ago),
	}
}

func Channels(base time.Time) []types.Channel {
	return []types.Channel{
		daily(base, DemoUserID, types.ColorAmber, []string{grandmaID, uncleID, cousinID}, "demoSamDaily", 120*day),
		daily(base, grandmaID, types.ColorPink, []string{DemoUserID, uncleID}, "demoRosaDaily", 110*day),
		daily(base, uncleID, types.ColorBlue, []string{DemoUserID}, "demoLuisDaily", 90*day),
		daily(base, cousinID, types.ColorViolet, []string{grandmaID}, "demoMiaDaily", 60*day),
		{
			ID: gardenChannelID, Name: "Garden", Description: "What is growing this week",
			Color: types.ColorGreen, IsDaily: boolPtr(false), OwnerID: grandmaID,
			Subscribers: []string{DemoUserID, cousinID}, InviteCode: stringPtr("demoGarden"),
			CreatedAt: ms(base, 100*day),
		},
		{
			ID: recipesChannelID, Name: "Recipes", Description: "Family recipes, tested and untested",
			Color: types.ColorOrange, IsDaily: boolPtr(false), OwnerID: grandmaID,
			Subscribers: []string{DemoUserID, uncleID, cousinID}, InviteCode: stringPtr("demoRecipes"),
			CreatedAt: ms(base, 95*day),
		},
		{
			ID: tripChannelID, Name: "Summer trip", Description: "Planning the lake house week",
			Color: types.ColorTeal, IsDaily: boolPtr(false), OwnerID: DemoUserID,
			Subscribers: []string{uncleID}, InviteCode: stringPtr("demoTrip"),
			CreatedAt: ms(base, 30*day),
		},
	}
}

func Posts(base time.Time) []types.Post {
	return []types.Post{
		{
			ID: "demo-post-1", AuthorID: grandmaID, ChannelID: gardenChannelID,
			Text:      "First tomatoes of the year!",
			Media:     []media.Item{{Type: media.TypeImage, URL: "https://picsum.photos/seed/angelia-tomatoes/800/600"}},
			Timestamp: ms(base, 2*time.Hour),
			Reactions: []types.Reaction{
				{Emoji: "🍅", UserIDs: []string{DemoUserID, cousinID}},
				{Emoji: "❤️", UserIDs: []string{DemoUserID}},
			},
			Comments: []types.Comment{
				{ID: "demo-comment-1", AuthorID: cousinID, Text: "Save me some!", Timestamp: ms(base, time.Hour)},
			},
			ConversationEnrollees: []string{grandmaID, cousinID},
		},
		{
			ID: "demo-post-2", AuthorID: uncleID, ChannelID: types.DailyChannelID(uncleID),
			Text:           "New job starts Monday. Nervous and excited.",
			Timestamp:      ms(base, 26*time.Hour),
			IsHighPriority: true,
			Reactions: []types.Reaction{
				{Emoji: "🎉", UserIDs: []string{DemoUserID}},
			},
			Comments:              []types.Comment{},
			ConversationEnrollees: []string{},
		},
		{
			ID: "demo-post-3", AuthorID: DemoUserID, ChannelID: types.DailyChannelID(DemoUserID),
			Text: "Ran my first 10k this morning.",
			Media: []media.Item{
				{Type: media.TypeImage, URL: "https://picsum.photos/seed/angelia-run/800/600"},
				{Type: media.TypeVideo, URL: "https://samplelib.com/lib/preview/mp4/sample-5s.mp4"},
			},
			Timestamp: ms(base, 3*day),
			Reactions: []types.Reaction{
				{Emoji: "🔥", UserIDs: []string{grandmaID, uncleID, cousinID}},
			},
			Comments: []types.Comment{
				{ID: "demo-comment-2", AuthorID: grandmaID, Text: "So proud of you", Timestamp: ms(base, 3*day-time.Hour)},
				{ID: "demo-comment-3", AuthorID: DemoUserID, Text: "Thanks grandma!", Timestamp: ms(base, 3*day-2*time.Hour)},
			},
			ConversationEnrollees: []string{DemoUserID, grandmaID},
		},
		{
			ID: "demo-post-4", AuthorID: grandmaID, ChannelID: recipesChannelID,
			Text:                  "Tamales recipe, finally written down.",
			Timestamp:             ms(base, 9*day),
			Reactions:             []types.Reaction{},
			Comments:              []types.Comment{},
			ConversationEnrollees: []string{},
		},
		{
			ID: "demo-post-5", AuthorID: DemoUserID, ChannelID: tripChannelID,
			Text:                  "Booked the lake house for the second week of July.",
			Timestamp:             ms(base, 14*day),
			Reactions:             []types.Reaction{{Emoji: "👍", UserIDs: []string{uncleID}}},
			Comments:              []types.Comment{},
			ConversationEnrollees: []string{},
		},
		{
			ID: "demo-post-6", AuthorID: grandmaID, ChannelID: types.DailyChannelID(grandmaID),
			Text:                  "Photos from last year's reunion.",
			Timestamp:             ms(base, 200*day),
			Reactions:             []types.Reaction{},
			Comments:              []types.Comment{},
			ConversationEnrollees: []string{},
		},
	}
}

func Invites(base time.Time) []types.ChannelInvite {
	return []types.ChannelInvite{
		{
			ID: "demo-invite-1", ChannelID: types.DailyChannelID(cousinID), InvitedBy: cousinID,
			InvitedUserID: DemoUserID, InvitedAt: ms(base, 5*time.Hour), Status: types.InviteStatusPending,
		},
		{
			ID: "demo-invite-2", ChannelID: gardenChannelID, InvitedBy: grandmaID,
			InvitedUserID: uncleID, InvitedAt: ms(base, 20*day), Status: types.InviteStatusDeclined,
			RespondedAt: int64Ptr(ms(base, 19*day)),
		},
	}
}

func int64Ptr(v int64) *int64 { return &v }
