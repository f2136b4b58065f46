package redis

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisSessionCache struct {
	client redis.UniversalClient
}

func NewRedisSessionCache(ctx context.Context, devMode bool, redisEndpoint string) (*RedisSessionCache, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return &RedisSessionCache{client: client}, nil
}

// Short relative to session TTLs: a stale entry can outlive its record by
// at most this long if an invalidation is missed.
const cacheTTL = 5 * time.Minute

func buildSessionKey(kind, id string) string {
	return "session:" + kind + ":{" + id + "}"
}

func (redisCache *RedisSessionCache) GetSession(ctx context.Context, kind string, id string) ([]byte, error) {
	val, err := redisCache.client.Get(ctx, buildSessionKey(kind, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (redisCache *RedisSessionCache) SetSession(ctx context.Context, kind string, id string, data []byte) error {
	return redisCache.client.Set(ctx, buildSessionKey(kind, id), data, cacheTTL).Err()
}

func (redisCache *RedisSessionCache) InvalidateSessions(ctx context.Context, kind string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	// In Redis Cluster, keys with different hash tags hash to different
	// slots, so delete one at a time rather than in a single DEL.
	for _, id := range ids {
		if err := redisCache.client.Del(ctx, buildSessionKey(kind, id)).Err(); err != nil {
			return err
		}
	}
	return nil
}
