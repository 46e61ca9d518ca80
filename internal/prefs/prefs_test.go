package prefs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestPrefs_DefaultsForNewUser(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	p := New(client)
	ctx := context.Background()

	dismissed, err := p.BannerDismissed(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, dismissed)

	pos, err := p.ScrollPosition(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, pos)

	state, err := p.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, State{}, state)
}

func TestPrefs_SurviveReload(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	first := New(client)
	require.NoError(t, first.DismissBanner(ctx, "u1"))
	require.NoError(t, first.SaveScrollPosition(ctx, "u1", 1234.5))

	reloaded := New(client)
	dismissed, err := reloaded.BannerDismissed(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, dismissed)

	pos, err := reloaded.ScrollPosition(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, pos)

	state, err := reloaded.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, State{BannerDismissed: true, ScrollPosition: 1234.5}, state)

	other, err := reloaded.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, State{}, other)
}

func TestPrefs_Clear(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	p := New(client)
	ctx := context.Background()
	require.NoError(t, p.DismissBanner(ctx, "u1"))
	require.NoError(t, p.Clear(ctx, "u1"))

	state, err := p.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, state.BannerDismissed)
}
