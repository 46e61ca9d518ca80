package feed

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

// InviteUser creates a pending invite of invitedUserID into a channel the
// inviter can read.
func (s *Service) InviteUser(ctx context.Context, invitedBy string, req types.InviteUserRequest) (*types.ChannelInvite, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	c, err := s.requireReader(ctx, req.ChannelID, invitedBy)
	if err != nil {
		return nil, err
	}
	if c.HasSubscriber(req.UserID) {
		return nil, apperr.AlreadyExists("user already follows this channel")
	}

	inv := types.ChannelInvite{
		ID:            uuid.NewString(),
		ChannelID:     c.ID,
		InvitedBy:     invitedBy,
		InvitedUserID: req.UserID,
		InvitedAt:     s.nowMillis(),
		Status:        types.InviteStatusPending,
	}
	if err := s.db().CreateInvite(ctx, inv); err != nil {
		return nil, err
	}
	s.store.Invites.UpsertOne(inv)

	s.logger.Info("Invite sent",
		slog.String("invite_id", inv.ID),
		slog.String("channel_id", inv.ChannelID),
		slog.String("invited_user_id", inv.InvitedUserID))

	if err := s.backend.Notifier().Invited(ctx, inv, *c, s.displayName(invitedBy)); err != nil {
		s.logger.Warn("Failed to notify invited user",
			slog.String("invite_id", inv.ID),
			slog.String("error", err.Error()))
	}

	return &inv, nil
}

// RespondToInvite accepts or declines a pending invite addressed to userID.
// Accepting subscribes the user before the invite is marked accepted, so a
// failed subscription leaves the invite pending.
func (s *Service) RespondToInvite(ctx context.Context, inviteID, userID string, accept bool) (*types.ChannelInvite, error) {
	inv, err := s.db().GetInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if err := respondable(inv, userID); err != nil {
		return nil, err
	}

	status := types.InviteStatusDeclined
	if accept {
		status = types.InviteStatusAccepted
		if _, err := s.subscribe(ctx, inv.ChannelID, userID); err != nil {
			return nil, err
		}
	}

	updated, err := s.db().UpdateInvite(ctx, inviteID, func(inv *types.ChannelInvite) error {
		if err := respondable(inv, userID); err != nil {
			return err
		}
		respondedAt := s.nowMillis()
		inv.Status = status
		inv.RespondedAt = &respondedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.store.Invites.UpsertOne(*updated)

	s.logger.Info("Invite answered",
		slog.String("invite_id", updated.ID),
		slog.String("status", string(updated.Status)))
	return updated, nil
}

func respondable(inv *types.ChannelInvite, userID string) error {
	if inv.InvitedUserID != userID {
		return apperr.ErrInviteNotFound
	}
	if inv.Status != types.InviteStatusPending {
		return apperr.ErrInviteNotPending
	}
	return nil
}
