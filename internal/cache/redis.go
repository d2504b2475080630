package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyStore keeps successful payment idempotency keys in Redis
// with a TTL, so every service instance sees the same set.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) Seen(ctx context.Context, key string) (bool, error) {
	err := s.client.Get(ctx, idempotencyKey(key)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check idempotency key: %w", err)
	}
	return true, nil
}

func (s *RedisIdempotencyStore) Record(ctx context.Context, key string) error {
	if err := s.client.SetNX(ctx, idempotencyKey(key), "paid", s.ttl).Err(); err != nil {
		return fmt.Errorf("record idempotency key: %w", err)
	}
	return nil
}

func idempotencyKey(key string) string {
	return "idempotency:payment:" + key
}
