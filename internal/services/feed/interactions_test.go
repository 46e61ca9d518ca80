package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

func postFixture(t *testing.T) (*fixture, *types.Post) {
	t.Helper()
	fx := newFixture(t)
	c := dailyFor(t, fx)
	p, err := fx.svc.UploadPost(context.Background(), "u1", PostForm{ChannelID: c.ID, Text: "hello"})
	require.NoError(t, err)
	return fx, p
}

func TestToggleReaction_AddsAndRemoves(t *testing.T) {
	fx, p := postFixture(t)
	ctx := context.Background()

	reacted, err := fx.svc.ToggleReaction(ctx, p.ID, "u1", types.ReactionRequest{Emoji: "🔥"})
	require.NoError(t, err)
	require.Len(t, reacted.Reactions, 1)
	assert.Equal(t, []string{"u1"}, reacted.Reactions[0].UserIDs)

	stored, err := fx.db.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, reacted.Reactions, stored.Reactions)

	cleared, err := fx.svc.ToggleReaction(ctx, p.ID, "u1", types.ReactionRequest{Emoji: "🔥"})
	require.NoError(t, err)
	assert.Empty(t, cleared.Reactions)
	assert.Empty(t, fx.store.PostByID(p.ID).Reactions)
}

func TestToggleReaction_OutsiderRejected(t *testing.T) {
	fx, p := postFixture(t)

	_, err := fx.svc.ToggleReaction(context.Background(), p.ID, "stranger", types.ReactionRequest{Emoji: "❤️"})
	assert.ErrorIs(t, err, apperr.ErrNotSubscribed)
}

func TestAddComment_RejectsBlankText(t *testing.T) {
	fx, p := postFixture(t)

	_, err := fx.svc.AddComment(context.Background(), p.ID, "u1", types.CommentRequest{Text: " \n\t "})
	assert.ErrorIs(t, err, apperr.ErrEmptyComment)

	stored, err := fx.db.GetPost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)
}

func TestAddComment_EnrollsAuthor(t *testing.T) {
	fx, p := postFixture(t)
	ctx := context.Background()

	updated, err := fx.svc.AddComment(ctx, p.ID, "u1", types.CommentRequest{Text: " nice "})
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, "nice", updated.Comments[0].Text)
	assert.Equal(t, []string{"u1"}, updated.ConversationEnrollees)

	again, err := fx.svc.JoinConversation(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, again.ConversationEnrollees)
}
