// Package flags is the global capability-flag store. Flags gate features
// service-wide; per-chat overrides live in the relational store instead.
package flags

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "chat:flag:"

// Known global flags.
const (
	FlagSendMessages       = "send_messages"
	FlagCreateChatsEnabled = "create_chats_enabled"
)

// Store reads and writes global feature flags. A missing key yields the
// caller-supplied fallback rather than an error.
type Store interface {
	GetFlag(ctx context.Context, name string, fallback bool) (bool, error)
	SetFlag(ctx context.Context, name string, enabled bool) error
}

// RedisStore satisfies Store using a Redis client.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(url string) (*RedisStore, error) {
	if url == "" {
		return nil, errors.New("flags: redis url is empty")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("flags: parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("flags: ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// GetFlag returns the flag value, or fallback when the key is unset.
func (s *RedisStore) GetFlag(ctx context.Context, name string, fallback bool) (bool, error) {
	val, err := s.client.Get(ctx, keyPrefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("flags: get %s: %w", name, err)
	}
	return val == "1", nil
}

// SetFlag writes the flag value.
func (s *RedisStore) SetFlag(ctx context.Context, name string, enabled bool) error {
	val := "0"
	if enabled {
		val = "1"
	}
	if err := s.client.Set(ctx, keyPrefix+name, val, 0).Err(); err != nil {
		return fmt.Errorf("flags: set %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
