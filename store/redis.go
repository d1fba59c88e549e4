package store

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the production IdempotencyStore. Keys live in redis so claims
// survive restarts and hold across multiple API instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClientFromEnv builds a redis client from REDIS_ADDR/REDIS_PASSWORD.
func NewRedisClientFromEnv() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

func (s *RedisStore) Claim(ctx context.Context, key, orderRef string, ttl time.Duration) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, key, orderRef, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return orderRef, true, nil
	}

	existing, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Claim expired between SetNX and Get; treat as ours.
		return orderRef, true, s.client.Set(ctx, key, orderRef, ttl).Err()
	}
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
