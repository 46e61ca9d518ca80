package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/princekumarofficial/angelia/internal/services/identity"
	"github.com/princekumarofficial/angelia/internal/types/users"
)

func (s *Service) cachedUser(userID string) *users.User {
	u, ok := s.store.Users.Get(userID)
	if !ok {
		return nil
	}
	return &u
}

// RegisterUser returns the profile of a signed-in user, creating it on the
// first sign-in.
func (s *Service) RegisterUser(ctx context.Context, id identity.Identity) (*users.User, error) {
	existing, err := s.db().GetUser(ctx, id.UID)
	if err == nil {
		if id.EmailVerified && !existing.AccountProgress.EmailVerified {
			return s.MarkEmailVerified(ctx, id.UID)
		}
		s.store.Users.UpsertOne(*existing)
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	u := users.User{
		ID:       id.UID,
		Email:    id.Email,
		JoinedAt: s.nowMillis(),
		AccountProgress: users.AccountProgress{
			EmailVerified: id.EmailVerified,
		},
	}
	err = s.db().CreateUser(ctx, u)
	if isExists(err) {
		return s.db().GetUser(ctx, id.UID)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.store.Users.UpsertOne(u)

	s.logger.Info("User registered", slog.String("user_id", u.ID))
	return &u, nil
}

// MarkEmailVerified records a verified email on the profile.
func (s *Service) MarkEmailVerified(ctx context.Context, userID string) (*users.User, error) {
	updated, err := s.db().UpdateUser(ctx, userID, func(u *users.User) error {
		u.AccountProgress.EmailVerified = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.store.Users.UpsertOne(*updated)
	return updated, nil
}

// CompleteProfile stores the profile form, marks sign-up complete and makes
// sure the daily channel exists.
func (s *Service) CompleteProfile(ctx context.Context, userID string, req users.CompleteProfileRequest) (*users.User, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	updated, err := s.db().UpdateUser(ctx, userID, func(u *users.User) error {
		u.FirstName = strings.TrimSpace(req.FirstName)
		u.LastName = strings.TrimSpace(req.LastName)
		u.FunFact = strings.TrimSpace(req.FunFact)
		u.Avatar = req.Avatar
		u.AccountProgress.SignUpComplete = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.store.Users.UpsertOne(*updated)

	if _, err := s.EnsureDailyChannelExists(ctx, userID); err != nil {
		return nil, err
	}

	if u := s.cachedUser(userID); u != nil {
		return u, nil
	}
	return updated, nil
}
