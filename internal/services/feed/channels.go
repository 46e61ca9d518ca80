package feed

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
	"github.com/princekumarofficial/angelia/internal/utils/apperr"
)

const dailyChannelName = "Daily"

func newInviteCode() string {
	return shortuuid.New()
}

// InviteLink is the shareable URL of a channel's invite code.
func InviteLink(origin string, c types.Channel) string {
	if c.InviteCode == nil {
		return ""
	}
	return strings.TrimSuffix(origin, "/") + "/invite/" + *c.InviteCode
}

// CreateDailyChannel provisions userID's daily channel at its deterministic
// id. An existing channel is returned untouched, so concurrent callers all
// end up with the same document.
func (s *Service) CreateDailyChannel(ctx context.Context, userID string) (*types.Channel, error) {
	id := types.DailyChannelID(userID)

	existing, err := s.db().GetChannel(ctx, id)
	if err == nil {
		s.store.Channels.UpsertOne(*existing)
		s.markDailyChannelCreated(ctx, userID)
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("look up daily channel: %w", err)
	}

	ch := types.Channel{
		ID:          id,
		Name:        dailyChannelName,
		Description: "Everyday updates",
		Color:       types.ColorAmber,
		IsDaily:     boolPtr(true),
		OwnerID:     userID,
		Subscribers: []string{},
		InviteCode:  stringPtr(newInviteCode()),
		CreatedAt:   s.nowMillis(),
	}

	err = s.db().CreateChannel(ctx, ch)
	if isExists(err) {
		// lost the race; the winner's document is the daily channel
		winner, getErr := s.db().GetChannel(ctx, id)
		if getErr != nil {
			return nil, fmt.Errorf("read concurrently created daily channel: %w", getErr)
		}
		s.store.Channels.UpsertOne(*winner)
		s.markDailyChannelCreated(ctx, userID)
		return winner, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create daily channel: %w", err)
	}

	s.store.Channels.UpsertOne(ch)
	s.markDailyChannelCreated(ctx, userID)
	s.logger.Info("Daily channel created", slog.String("user_id", userID))

	return &ch, nil
}

// EnsureDailyChannelExists repairs accounts whose profile says no daily
// channel exists: local state, then remote state, then creation.
func (s *Service) EnsureDailyChannelExists(ctx context.Context, userID string) (*types.Channel, error) {
	if c := s.store.DailyChannel(userID); c != nil {
		s.markDailyChannelCreated(ctx, userID)
		return c, nil
	}

	remote, err := s.db().FindDailyChannel(ctx, userID)
	if err == nil {
		s.store.Channels.UpsertOne(*remote)
		s.markDailyChannelCreated(ctx, userID)
		return remote, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("find daily channel: %w", err)
	}

	return s.CreateDailyChannel(ctx, userID)
}

func (s *Service) markDailyChannelCreated(ctx context.Context, userID string) {
	if u := s.cachedUser(userID); u != nil && u.AccountProgress.DailyChannelCreated {
		return
	}

	updated, err := s.db().UpdateUser(ctx, userID, func(u *users.User) error {
		u.AccountProgress.DailyChannelCreated = true
		return nil
	})
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn("Failed to flag daily channel on profile",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
		return
	}
	s.store.Users.UpsertOne(*updated)
}

// CreateCustomChannel creates a non-daily channel owned by ownerID, up to
// the configured per-user limit.
func (s *Service) CreateCustomChannel(ctx context.Context, ownerID string, req types.CreateChannelRequest) (*types.Channel, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	if s.store.CustomChannelCount(ownerID) >= s.opts.CustomChannelLimit {
		return nil, apperr.ErrChannelLimitReached
	}

	ch := types.Channel{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Color:       req.Color,
		IsDaily:     boolPtr(false),
		OwnerID:     ownerID,
		Subscribers: []string{},
		InviteCode:  stringPtr(newInviteCode()),
		CreatedAt:   s.nowMillis(),
	}

	if err := s.db().CreateChannel(ctx, ch); err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}
	s.store.Channels.UpsertOne(ch)

	s.adjustCustomChannelCount(ctx, ownerID, 1)
	s.logger.Info("Channel created",
		slog.String("channel_id", ch.ID),
		slog.String("owner_id", ownerID))

	return &ch, nil
}

func (s *Service) adjustCustomChannelCount(ctx context.Context, userID string, delta int) {
	updated, err := s.db().UpdateUser(ctx, userID, func(u *users.User) error {
		u.CustomChannelCount = max(0, u.CustomChannelCount+delta)
		return nil
	})
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn("Failed to update custom channel count",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
		return
	}
	s.store.Users.UpsertOne(*updated)
}

// ResolveInvite finds the live channel behind an invite code.
func (s *Service) ResolveInvite(ctx context.Context, code string) (*types.Channel, error) {
	if c := s.store.ChannelByInviteCode(code); c != nil {
		return c, nil
	}
	c, err := s.db().FindChannelByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// JoinByInviteCode subscribes userID to the channel behind code.
func (s *Service) JoinByInviteCode(ctx context.Context, code, userID string) (*types.Channel, error) {
	c, err := s.ResolveInvite(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.subscribe(ctx, c.ID, userID)
}

func (s *Service) subscribe(ctx context.Context, channelID, userID string) (*types.Channel, error) {
	updated, err := s.db().UpdateChannel(ctx, channelID, func(c *types.Channel) error {
		if c.Deleted() {
			return apperr.ErrChannelNotFound
		}
		if !c.HasSubscriber(userID) {
			c.Subscribers = append(slices.Clone(c.Subscribers), userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.store.Channels.UpsertOne(*updated)
	return updated, nil
}

// Unsubscribe removes userID from a channel they do not own.
func (s *Service) Unsubscribe(ctx context.Context, channelID, userID string) (*types.Channel, error) {
	updated, err := s.db().UpdateChannel(ctx, channelID, func(c *types.Channel) error {
		if c.Deleted() {
			return apperr.ErrChannelNotFound
		}
		if c.OwnerID == userID {
			return apperr.ErrOwnerCannotLeave
		}
		c.Subscribers = slices.DeleteFunc(slices.Clone(c.Subscribers), func(id string) bool {
			return id == userID
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.store.Channels.UpsertOne(*updated)
	return updated, nil
}

// RegenerateInviteCode invalidates the old invite link of a channel.
func (s *Service) RegenerateInviteCode(ctx context.Context, channelID, userID string) (*types.Channel, error) {
	updated, err := s.db().UpdateChannel(ctx, channelID, func(c *types.Channel) error {
		if c.Deleted() {
			return apperr.ErrChannelNotFound
		}
		if c.OwnerID != userID {
			return apperr.ErrNotChannelOwner
		}
		c.InviteCode = stringPtr(newInviteCode())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.store.Channels.UpsertOne(*updated)
	return updated, nil
}

// DeleteChannel soft-deletes a custom channel.
func (s *Service) DeleteChannel(ctx context.Context, channelID, userID string) error {
	_, err := s.db().UpdateChannel(ctx, channelID, func(c *types.Channel) error {
		if c.Deleted() {
			return apperr.ErrChannelNotFound
		}
		if c.OwnerID != userID {
			return apperr.ErrNotChannelOwner
		}
		if c.Daily() {
			return apperr.ErrDailyChannelProtected
		}
		deletedAt := s.nowMillis()
		c.MarkedForDeletionAt = &deletedAt
		return nil
	})
	if err != nil {
		return err
	}

	s.store.Channels.RemoveOne(channelID)
	s.adjustCustomChannelCount(ctx, userID, -1)
	s.logger.Info("Channel deleted",
		slog.String("channel_id", channelID),
		slog.String("user_id", userID))
	return nil
}
