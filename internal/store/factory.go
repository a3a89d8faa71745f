package store

import (
	"context"
	"time"
)

// New creates a Store based on the configuration.
// The context bounds backend initialization (the Redis ping).
func New(ctx context.Context, cfg *Config) (Store, error) {
	log := logger().With().Str("component", "store_factory").Logger()
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		log.Debug().Err(err).Str("type", string(cfg.Type)).Msg("store factory: validation failed")
		return nil, err
	}

	storeType := cfg.EffectiveType()

	var (
		s   Store
		err error
	)

	switch storeType {
	case TypeFile:
		s, err = NewFile(cfg.Path)
	case TypeRedis:
		s, err = NewRedisFromURL(ctx, cfg.RedisURL, cfg.EffectiveKeyPrefix())
	default:
		s = NewMemory()
	}

	if err != nil {
		log.Error().Err(err).Str("type", string(storeType)).Msg("store factory: backend initialization failed")
		return nil, err
	}

	log.Info().
		Str("type", string(storeType)).
		Dur("init_time", time.Since(start)).
		Msg("store factory: backend initialized")

	return s, nil
}
