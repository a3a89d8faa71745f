package store

import (
	"errors"
	"fmt"
	"strings"
)

// Type selects the store backend.
type Type string

const (
	// TypeMemory keeps values in process memory (default).
	TypeMemory Type = "memory"

	// TypeFile persists values to a YAML file.
	TypeFile Type = "file"

	// TypeRedis persists values in Redis.
	TypeRedis Type = "redis"
)

// DefaultKeyPrefix is prepended to every key written to Redis.
const DefaultKeyPrefix = "sse-relay:"

// Config defines store configuration.
type Config struct {
	Type      Type   `yaml:"type" toml:"type" env:"SSE_RELAY_STORE_TYPE"`
	Path      string `yaml:"path" toml:"path" env:"SSE_RELAY_STORE_PATH"`
	RedisURL  string `yaml:"redis_url" toml:"redis_url" env:"SSE_RELAY_REDIS_URL"`
	KeyPrefix string `yaml:"key_prefix" toml:"key_prefix"`
}

// Validation errors.
var (
	ErrPathRequired     = errors.New("store: path is required for file store")
	ErrRedisURLRequired = errors.New("store: redis_url is required for redis store")
)

// EffectiveType returns the configured type, defaulting to memory.
func (c *Config) EffectiveType() Type {
	if c.Type == "" {
		return TypeMemory
	}
	return Type(strings.ToLower(string(c.Type)))
}

// EffectiveKeyPrefix returns the key prefix with default fallback.
func (c *Config) EffectiveKeyPrefix() string {
	if c.KeyPrefix == "" {
		return DefaultKeyPrefix
	}
	return c.KeyPrefix
}

// Validate checks the configuration for the selected backend.
func (c *Config) Validate() error {
	switch c.EffectiveType() {
	case TypeMemory:
		return nil
	case TypeFile:
		if strings.TrimSpace(c.Path) == "" {
			return ErrPathRequired
		}
		return nil
	case TypeRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return ErrRedisURLRequired
		}
		return nil
	default:
		return fmt.Errorf("store: unknown type %q", c.Type)
	}
}
