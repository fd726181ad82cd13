package session

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const validAccessTokensKey = "authbroker:valid_access_tokens"

// RedisCache is the production Cache, backed by a single Redis set holding
// every currently-valid bearer token, grounded on
// services/gateway/services/auth/domain/cache.Cache's Sadd/Sismember/Srem
// trio, adapted onto the go-redis/v9 client already used for the
// connection itself (built in svc.NewServiceContext) rather than go-zero's
// own redis wrapper.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache builds a Cache over an existing go-redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) AddToValidTokens(ctx context.Context, token string) error {
	return c.client.SAdd(ctx, validAccessTokensKey, token).Err()
}

func (c *RedisCache) IsValidAccessToken(ctx context.Context, token string) (bool, error) {
	return c.client.SIsMember(ctx, validAccessTokensKey, token).Result()
}

func (c *RedisCache) RemoveFromValidTokens(ctx context.Context, token string) error {
	return c.client.SRem(ctx, validAccessTokensKey, token).Err()
}
