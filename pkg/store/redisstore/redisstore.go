// Package redisstore provides a Redis backed rate-limit counter store.
// Counters use fixed-window semantics: INCR plus an EXPIRE set on the
// first hit, so Redis drops elapsed windows on its own.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/egov-portal/portal-backend/pkg/store"
)

const keyPrefix = "portal:ratelimit:"

var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisStore implements the rate-limit store on Redis counters. The
// window size is fixed at construction so the window start can be
// reconstructed from the key's remaining TTL.
type RedisStore struct {
	client redis.UniversalClient
	window time.Duration
}

func New(client redis.UniversalClient, window time.Duration) *RedisStore {
	return &RedisStore{client: client, window: window}
}

// Connect creates a Redis client from an address and verifies the
// connection with a ping.
func Connect(ctx context.Context, addr string, password string, db int, window time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return New(client, window), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) IncrementAttempt(ctx context.Context, key string, window time.Duration) (store.RateLimitWindow, error) {
	redisKey := keyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return store.RateLimitWindow{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// TTL is set only on the first hit so the window does not slide.
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return store.RateLimitWindow{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return store.RateLimitWindow{FirstAttempt: time.Now(), Attempts: 1}, nil
	}

	firstAttempt, err := s.windowStart(ctx, redisKey)
	if err != nil {
		return store.RateLimitWindow{}, err
	}
	return store.RateLimitWindow{FirstAttempt: firstAttempt, Attempts: int(count)}, nil
}

func (s *RedisStore) GetWindow(ctx context.Context, key string) (store.RateLimitWindow, error) {
	redisKey := keyPrefix + key

	count, err := s.client.Get(ctx, redisKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.RateLimitWindow{}, store.ErrNotFound
		}
		return store.RateLimitWindow{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	firstAttempt, err := s.windowStart(ctx, redisKey)
	if err != nil {
		return store.RateLimitWindow{}, err
	}
	return store.RateLimitWindow{FirstAttempt: firstAttempt, Attempts: int(count)}, nil
}

func (s *RedisStore) ResetWindow(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// SweepExpired is a no-op for Redis, key expiry handles cleanup.
func (s *RedisStore) SweepExpired(ctx context.Context, window time.Duration) (int, error) {
	return 0, nil
}

func (s *RedisStore) windowStart(ctx context.Context, redisKey string) (time.Time, error) {
	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl <= 0 {
		return time.Now(), nil
	}
	return time.Now().Add(ttl - s.window), nil
}
