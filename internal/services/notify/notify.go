// Package notify sends push notifications through Firebase Cloud
// Messaging. Devices subscribe to one topic per channel and one per user.
package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"

	"github.com/princekumarofficial/angelia/internal/types"
)

// sender is the part of the FCM client in use.
type sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FCM struct {
	client sender
}

func NewFCM(ctx context.Context, app *firebase.App) (*FCM, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return &FCM{client: client}, nil
}

// ChannelTopic is the FCM topic of a channel's subscribers.
func ChannelTopic(channelID string) string {
	return "channel_" + channelID
}

// UserTopic is the FCM topic of one user's devices.
func UserTopic(userID string) string {
	return "user_" + userID
}

// PostPublished tells a channel's subscribers about a high-priority post.
func (f *FCM) PostPublished(ctx context.Context, post types.Post, channel types.Channel, author string) error {
	msg := &messaging.Message{
		Topic: ChannelTopic(channel.ID),
		Notification: &messaging.Notification{
			Title: fmt.Sprintf("%s posted in %s", author, channel.Name),
			Body:  post.Text,
		},
		Data: map[string]string{
			"type":      "post",
			"postId":    post.ID,
			"channelId": channel.ID,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	return f.send(ctx, msg)
}

// Invited tells a user they were invited into a channel.
func (f *FCM) Invited(ctx context.Context, invite types.ChannelInvite, channel types.Channel, inviter string) error {
	msg := &messaging.Message{
		Topic: UserTopic(invite.InvitedUserID),
		Notification: &messaging.Notification{
			Title: "New channel invite",
			Body:  fmt.Sprintf("%s invited you to %s", inviter, channel.Name),
		},
		Data: map[string]string{
			"type":      "invite",
			"inviteId":  invite.ID,
			"channelId": channel.ID,
		},
	}
	return f.send(ctx, msg)
}

func (f *FCM) send(ctx context.Context, msg *messaging.Message) error {
	if _, err := f.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", msg.Topic, err)
	}
	return nil
}
