package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis is a Store backed by plain Redis string keys under a common prefix.
type Redis struct {
	log       zerolog.Logger
	client    *redis.Client
	keyPrefix string
	closed    atomic.Bool
}

// NewRedis wraps an existing client. The caller keeps ownership of the
// client's configuration; Close closes it.
func NewRedis(client *redis.Client, keyPrefix string) (*Redis, error) {
	if client == nil {
		return nil, errors.New("store: redis client is required")
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	return &Redis{
		log:       logger().With().Str("backend", "redis").Logger(),
		client:    client,
		keyPrefix: keyPrefix,
	}, nil
}

// NewRedisFromURL parses a redis:// URL, connects and pings the server.
func NewRedisFromURL(ctx context.Context, rawURL, keyPrefix string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("store: invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: redis ping: %w", err)
	}

	return NewRedis(client, keyPrefix)
}

func (r *Redis) key(key string) string {
	return r.keyPrefix + key
}

// Get returns the value stored under key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key without expiration.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if r.closed.Load() {
		return ErrClosed
	}

	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("store: failed to set key %s: %w", key, err)
	}

	r.log.Debug().Str("key", key).Int("size", len(value)).Msg("store set")
	return nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.closed.Load() {
		return ErrClosed
	}

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("store: failed to delete key %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity to the Redis server.
func (r *Redis) Ping(ctx context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client. Close is idempotent.
func (r *Redis) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.client.Close()
}

var (
	_ Store  = (*Redis)(nil)
	_ Pinger = (*Redis)(nil)
)
