package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdeck/crewdeck/internal/shared"
)

func newTestStore(t *testing.T) (*RefreshStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRefreshStore(client, time.Hour), mr
}

func TestRefreshIssueAndResolve(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, expiresAt, err := store.Issue(ctx, 7)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	userID, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
}

func TestRefreshUnknownTokenUnauthorized(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Resolve(context.Background(), "deadbeef")
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))
}

func TestRefreshRevokeInvalidates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, _, err := store.Issue(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, token))
	_, err = store.Resolve(ctx, token)
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))

	// Revoking again stays a no-op.
	assert.NoError(t, store.Revoke(ctx, token))
}

func TestRefreshTTLExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, _, err := store.Issue(ctx, 7)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = store.Resolve(ctx, token)
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))
}
