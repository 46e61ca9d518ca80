package feed

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

// updatePost runs mutate on a live post the user can read and mirrors the
// result into the store.
func (s *Service) updatePost(ctx context.Context, postID, userID string, mutate func(*types.Post) error) (*types.Post, error) {
	p, err := s.post(ctx, postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireReader(ctx, p.ChannelID, userID); err != nil {
		return nil, err
	}

	updated, err := s.db().UpdatePost(ctx, postID, func(p *types.Post) error {
		if p.Deleted() {
			return apperr.ErrPostNotFound
		}
		return mutate(p)
	})
	if err != nil {
		return nil, err
	}
	s.store.Posts.UpsertOne(*updated)
	return updated, nil
}

func (s *Service) post(ctx context.Context, postID string) (*types.Post, error) {
	if p := s.store.PostByID(postID); p != nil {
		return p, nil
	}
	p, err := s.db().GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.Deleted() {
		return nil, apperr.ErrPostNotFound
	}
	return p, nil
}

// ToggleReaction adds or removes userID's emoji reaction on a post.
func (s *Service) ToggleReaction(ctx context.Context, postID, userID string, req types.ReactionRequest) (*types.Post, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}
	return s.updatePost(ctx, postID, userID, func(p *types.Post) error {
		p.Reactions = types.ToggleReaction(p.Reactions, req.Emoji, userID)
		return nil
	})
}

// JoinConversation enrolls userID in a post's comment thread.
func (s *Service) JoinConversation(ctx context.Context, postID, userID string) (*types.Post, error) {
	return s.updatePost(ctx, postID, userID, func(p *types.Post) error {
		p.ConversationEnrollees = types.JoinConversation(p.ConversationEnrollees, userID)
		return nil
	})
}

// AddComment appends a comment and enrolls its author in the conversation.
func (s *Service) AddComment(ctx context.Context, postID, userID string, req types.CommentRequest) (*types.Post, error) {
	if types.BlankText(req.Text) {
		return nil, apperr.ErrEmptyComment
	}
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	c := types.Comment{
		ID:        uuid.NewString(),
		AuthorID:  userID,
		Text:      strings.TrimSpace(req.Text),
		Timestamp: s.nowMillis(),
	}
	return s.updatePost(ctx, postID, userID, func(p *types.Post) error {
		p.Comments = types.AppendComment(p.Comments, c)
		p.ConversationEnrollees = types.JoinConversation(p.ConversationEnrollees, userID)
		return nil
	})
}
