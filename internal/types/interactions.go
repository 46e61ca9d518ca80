package types

import (
	"slices"
	"strings"
)

// ToggleReaction flips userID's reaction with emoji and returns the new list.
// Removing the last user of an emoji drops the entry; reacting with a new
// emoji appends one. The input slice is never modified.
func ToggleReaction(reactions []Reaction, emoji, userID string) []Reaction {
	out := make([]Reaction, 0, len(reactions)+1)
	found := false

	for _, r := range reactions {
		if r.Emoji != emoji {
			out = append(out, r)
			continue
		}
		found = true

		if slices.Contains(r.UserIDs, userID) {
			remaining := make([]string, 0, len(r.UserIDs)-1)
			for _, id := range r.UserIDs {
				if id != userID {
					remaining = append(remaining, id)
				}
			}
			if len(remaining) > 0 {
				out = append(out, Reaction{Emoji: emoji, UserIDs: remaining})
			}
			continue
		}

		users := append(slices.Clone(r.UserIDs), userID)
		out = append(out, Reaction{Emoji: emoji, UserIDs: users})
	}

	if !found {
		out = append(out, Reaction{Emoji: emoji, UserIDs: []string{userID}})
	}

	return out
}

// HasReacted reports whether userID currently holds the emoji reaction.
func HasReacted(reactions []Reaction, emoji, userID string) bool {
	for _, r := range reactions {
		if r.Emoji == emoji {
			return slices.Contains(r.UserIDs, userID)
		}
	}
	return false
}

// JoinConversation adds userID to the enrollees. There is no way back out.
func JoinConversation(enrollees []string, userID string) []string {
	if slices.Contains(enrollees, userID) {
		return enrollees
	}
	return append(slices.Clone(enrollees), userID)
}

// AppendComment returns comments with c added at the end.
func AppendComment(comments []Comment, c Comment) []Comment {
	return append(slices.Clone(comments), c)
}

// BlankText reports whether s has no visible characters.
func BlankText(s string) bool {
	return strings.TrimSpace(s) == ""
}
