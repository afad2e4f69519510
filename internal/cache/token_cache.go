package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenPrefix = "revoked_token:"

// TokenCache tracks revoked admin session tokens by jti. An entry only
// needs to live as long as the token itself, so revocations carry the
// remaining token lifetime as TTL.
type TokenCache struct {
	redis *RedisClient
}

// NewTokenCache creates a TokenCache backed by Redis.
func NewTokenCache(redisClient *RedisClient) *TokenCache {
	return &TokenCache{redis: redisClient}
}

// Revoke marks a token id as revoked until it would have expired anyway.
func (c *TokenCache) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already expired; nothing to track.
		return nil
	}
	return c.redis.Set(ctx, revokedTokenPrefix+jti, "1", ttl)
}

// IsRevoked reports whether a token id has been revoked.
func (c *TokenCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := c.redis.Get(ctx, revokedTokenPrefix+jti)
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
