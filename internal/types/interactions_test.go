package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleReaction_AddThenRemove(t *testing.T) {
	var reactions []Reaction

	reactions = ToggleReaction(reactions, "🔥", "u1")
	assert.Equal(t, []Reaction{{Emoji: "🔥", UserIDs: []string{"u1"}}}, reactions)

	reactions = ToggleReaction(reactions, "🔥", "u1")
	assert.Empty(t, reactions)
}

func TestToggleReaction_RoundTripRestoresOriginal(t *testing.T) {
	original := []Reaction{
		{Emoji: "❤️", UserIDs: []string{"u1", "u2"}},
		{Emoji: "😂", UserIDs: []string{"u3"}},
	}

	cases := []struct {
		name   string
		emoji  string
		userID string
	}{
		{"existing member", "❤️", "u2"},
		{"new member on existing emoji", "😂", "u1"},
		{"brand new emoji", "🎉", "u4"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			once := ToggleReaction(original, tc.emoji, tc.userID)
			assert.NotEqual(t, original, once)

			twice := ToggleReaction(once, tc.emoji, tc.userID)
			assert.Equal(t, original, twice)
		})
	}
}

func TestToggleReaction_DoesNotMutateInput(t *testing.T) {
	original := []Reaction{{Emoji: "👍", UserIDs: []string{"u1"}}}

	_ = ToggleReaction(original, "👍", "u2")
	_ = ToggleReaction(original, "👍", "u1")

	assert.Equal(t, []Reaction{{Emoji: "👍", UserIDs: []string{"u1"}}}, original)
}

func TestToggleReaction_UserMayHoldSeveralEmoji(t *testing.T) {
	reactions := ToggleReaction(nil, "👍", "u1")
	reactions = ToggleReaction(reactions, "❤️", "u1")

	assert.True(t, HasReacted(reactions, "👍", "u1"))
	assert.True(t, HasReacted(reactions, "❤️", "u1"))
	assert.Len(t, reactions, 2)
}

func TestJoinConversation_IsIdempotent(t *testing.T) {
	enrollees := JoinConversation(nil, "u1")
	enrollees = JoinConversation(enrollees, "u1")
	enrollees = JoinConversation(enrollees, "u2")

	assert.Equal(t, []string{"u1", "u2"}, enrollees)
}

func TestAppendComment_KeepsOrder(t *testing.T) {
	comments := AppendComment(nil, Comment{ID: "c1", Text: "first"})
	comments = AppendComment(comments, Comment{ID: "c2", Text: "second"})

	assert.Equal(t, "c1", comments[0].ID)
	assert.Equal(t, "c2", comments[1].ID)
}

func TestBlankText(t *testing.T) {
	assert.True(t, BlankText(""))
	assert.True(t, BlankText("  \n\t "))
	assert.False(t, BlankText(" hi "))
}
