package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/crewdeck/crewdeck/internal/shared"
)

const refreshKeyPrefix = "auth:refresh:"

// RefreshStore keeps opaque refresh tokens in redis, keyed by token with the
// user id as value. Expiry is enforced by the key TTL, so a restart never
// resurrects a revoked token.
type RefreshStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshStore builds a RefreshStore instance.
func NewRefreshStore(client *redis.Client, ttl time.Duration) *RefreshStore {
	return &RefreshStore{client: client, ttl: ttl}
}

// Issue creates a fresh token for the user.
func (s *RefreshStore) Issue(ctx context.Context, userID int64) (string, time.Time, error) {
	token := uuid.NewString()
	expiresAt := time.Now().Add(s.ttl)
	if err := s.client.Set(ctx, refreshKeyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", time.Time{}, fmt.Errorf("auth: store refresh token: %w", err)
	}
	return token, expiresAt, nil
}

// Resolve returns the user id behind a live token.
func (s *RefreshStore) Resolve(ctx context.Context, token string) (int64, error) {
	val, err := s.client.Get(ctx, refreshKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, shared.Unauthorized("Invalid or expired refresh token")
		}
		return 0, fmt.Errorf("auth: resolve refresh token: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, shared.Unauthorized("Invalid or expired refresh token")
	}
	return userID, nil
}

// Revoke deletes a token. Revoking an unknown token is a no-op.
func (s *RefreshStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, refreshKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	return nil
}
