package types

import (
	"slices"

	"github.com/princekumarofficial/angelia/internal/types/media"
)

// Color is the label a channel is rendered with.
type Color string

const (
	ColorSlate  Color = "slate"
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorAmber  Color = "amber"
	ColorGreen  Color = "green"
	ColorTeal   Color = "teal"
	ColorBlue   Color = "blue"
	ColorIndigo Color = "indigo"
	ColorViolet Color = "violet"
	ColorPink   Color = "pink"
)

// Colors lists every valid channel color, in picker order.
var Colors = []Color{
	ColorSlate, ColorRed, ColorOrange, ColorAmber, ColorGreen,
	ColorTeal, ColorBlue, ColorIndigo, ColorViolet, ColorPink,
}

// Collection names in the document store.
const (
	CollectionUsers    = "users"
	CollectionChannels = "channels"
	CollectionPosts    = "posts"
	CollectionInvites  = "channelInvites"
)

// Channel is a named topic stream users subscribe to.
type Channel struct {
	ID                  string   `firestore:"id" json:"id"`
	Name                string   `firestore:"name" json:"name"`
	Description         string   `firestore:"description" json:"description"`
	Color               Color    `firestore:"color" json:"color"`
	IsDaily             *bool    `firestore:"isDaily" json:"isDaily"`
	OwnerID             string   `firestore:"ownerId" json:"ownerId"`
	Subscribers         []string `firestore:"subscribers" json:"subscribers"`
	InviteCode          *string  `firestore:"inviteCode" json:"inviteCode"`
	CreatedAt           int64    `firestore:"createdAt" json:"createdAt"`
	MarkedForDeletionAt *int64   `firestore:"markedForDeletionAt" json:"markedForDeletionAt"`
}

func (c Channel) Key() string { return c.ID }

// Daily reports whether the channel is its owner's daily channel.
func (c Channel) Daily() bool { return c.IsDaily != nil && *c.IsDaily }

func (c Channel) Deleted() bool { return c.MarkedForDeletionAt != nil }

// HasSubscriber reports whether userID follows the channel. Owners always do.
func (c Channel) HasSubscriber(userID string) bool {
	if c.OwnerID == userID {
		return true
	}
	return slices.Contains(c.Subscribers, userID)
}

// DailyChannelID is the deterministic id of a user's daily channel.
func DailyChannelID(userID string) string {
	return userID + "-daily"
}

// Post is a single shared update ("tiding").
type Post struct {
	ID                    string       `firestore:"id" json:"id"`
	AuthorID              string       `firestore:"authorId" json:"authorId"`
	ChannelID             string       `firestore:"channelId" json:"channelId"`
	Text                  string       `firestore:"text" json:"text"`
	Media                 []media.Item `firestore:"media" json:"media"`
	Timestamp             int64        `firestore:"timestamp" json:"timestamp"`
	IsHighPriority        bool         `firestore:"isHighPriority" json:"isHighPriority"`
	Reactions             []Reaction   `firestore:"reactions" json:"reactions"`
	Comments              []Comment    `firestore:"comments" json:"comments"`
	ConversationEnrollees []string     `firestore:"conversationEnrollees" json:"conversationEnrollees"`
	MarkedForDeletionAt   *int64       `firestore:"markedForDeletionAt" json:"markedForDeletionAt"`
}

func (p Post) Key() string { return p.ID }

func (p Post) Deleted() bool { return p.MarkedForDeletionAt != nil }

// Reaction groups the users that reacted to a post with one emoji.
type Reaction struct {
	Emoji   string   `firestore:"emoji" json:"emoji"`
	UserIDs []string `firestore:"userIds" json:"userIds"`
}

// Comment is one entry in a post's conversation thread.
type Comment struct {
	ID        string `firestore:"id" json:"id"`
	AuthorID  string `firestore:"authorId" json:"authorId"`
	Text      string `firestore:"text" json:"text"`
	Timestamp int64  `firestore:"timestamp" json:"timestamp"`
}

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

// ChannelInvite is a direct invitation of one user into a channel.
type ChannelInvite struct {
	ID            string       `firestore:"id" json:"id"`
	ChannelID     string       `firestore:"channelId" json:"channelId"`
	InvitedBy     string       `firestore:"invitedBy" json:"invitedBy"`
	InvitedUserID string       `firestore:"invitedUserId" json:"invitedUserId"`
	InvitedAt     int64        `firestore:"invitedAt" json:"invitedAt"`
	Status        InviteStatus `firestore:"status" json:"status"`
	RespondedAt   *int64       `firestore:"respondedAt" json:"respondedAt"`
}

func (i ChannelInvite) Key() string { return i.ID }

type CreateChannelRequest struct {
	Name        string `json:"name" validate:"required,max=40"`
	Description string `json:"description" validate:"max=280"`
	Color       Color  `json:"color" validate:"required,oneof=slate red orange amber green teal blue indigo violet pink"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,max=16"`
}

type InviteUserRequest struct {
	ChannelID string `json:"channelId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
}

type InviteResponseRequest struct {
	Accept bool `json:"accept"`
}
