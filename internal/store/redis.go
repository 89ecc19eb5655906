package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSlot stores the collection under one Redis key with no expiry.
type RedisSlot struct {
	client *redis.Client
	key    string
}

// NewRedisSlot connects to redisURL (redis://host:port/db) and verifies the
// connection with a PING.
func NewRedisSlot(ctx context.Context, redisURL, key string) (*RedisSlot, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisSlot{client: client, key: key}, nil
}

func (s *RedisSlot) Read(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return data, nil
}

func (s *RedisSlot) Write(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisSlot) Close() error {
	return s.client.Close()
}
