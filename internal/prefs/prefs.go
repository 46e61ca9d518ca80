// Package prefs persists small per-user UI flags in Redis so they survive
// reloads and reconnects.
package prefs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// Key pattern and hash fields.
const (
	PrefsKey = "prefs:user:%s" // prefs:user:userID

	fieldBannerDismissed = "banner:dismissed"
	fieldScrollPosition  = "feed:scroll"
)

type State struct {
	BannerDismissed bool    `json:"bannerDismissed"`
	ScrollPosition  float64 `json:"scrollPosition"`
}

type Prefs struct {
	redis *redis.Client
}

func New(redisClient *redis.Client) *Prefs {
	return &Prefs{redis: redisClient}
}

func key(userID string) string {
	return fmt.Sprintf(PrefsKey, userID)
}

// DismissBanner hides the welcome banner for good.
func (p *Prefs) DismissBanner(ctx context.Context, userID string) error {
	if err := p.redis.HSet(ctx, key(userID), fieldBannerDismissed, "1").Err(); err != nil {
		return fmt.Errorf("dismiss banner: %w", err)
	}
	return nil
}

func (p *Prefs) BannerDismissed(ctx context.Context, userID string) (bool, error) {
	v, err := p.redis.HGet(ctx, key(userID), fieldBannerDismissed).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read banner flag: %w", err)
	}
	return v == "1", nil
}

// SaveScrollPosition remembers how far down the feed the user was.
func (p *Prefs) SaveScrollPosition(ctx context.Context, userID string, position float64) error {
	v := strconv.FormatFloat(position, 'f', -1, 64)
	if err := p.redis.HSet(ctx, key(userID), fieldScrollPosition, v).Err(); err != nil {
		return fmt.Errorf("save scroll position: %w", err)
	}
	return nil
}

func (p *Prefs) ScrollPosition(ctx context.Context, userID string) (float64, error) {
	v, err := p.redis.HGet(ctx, key(userID), fieldScrollPosition).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read scroll position: %w", err)
	}
	pos, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, nil
	}
	return pos, nil
}

// Get returns every flag of userID in one round trip.
func (p *Prefs) Get(ctx context.Context, userID string) (State, error) {
	fields, err := p.redis.HGetAll(ctx, key(userID)).Result()
	if err != nil {
		return State{}, fmt.Errorf("read prefs: %w", err)
	}

	var s State
	s.BannerDismissed = fields[fieldBannerDismissed] == "1"
	if v, ok := fields[fieldScrollPosition]; ok {
		s.ScrollPosition, _ = strconv.ParseFloat(v, 64)
	}
	return s, nil
}

// Clear forgets every flag of userID.
func (p *Prefs) Clear(ctx context.Context, userID string) error {
	if err := p.redis.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("clear prefs: %w", err)
	}
	return nil
}
