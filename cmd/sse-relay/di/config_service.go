package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"github.com/omarluq/sse-relay/internal/config"
)

// ConfigService holds the live configuration and its file watcher.
// It implements config.RuntimeConfig.
type ConfigService struct {
	runtime   *config.Runtime
	watcher   *config.Watcher
	logger    zerolog.Logger
	overrides []ConfigOverride
	// Config is the configuration loaded at startup.
	Config *config.Config
	Path   string
}

// Get returns the current configuration, following hot reloads.
func (s *ConfigService) Get() *config.Config {
	return s.runtime.Get()
}

var _ config.RuntimeConfig = (*ConfigService)(nil)

// NewConfig loads, overrides and validates the configuration. Call
// StartWatching to begin hot reload of a config file.
func NewConfig(i do.Injector) (*ConfigService, error) {
	path := do.MustInvokeNamed[string](i, ConfigPathKey)
	overrides, err := do.Invoke[[]ConfigOverride](i)
	if err != nil {
		overrides = nil
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	svc := &ConfigService{
		runtime:   config.NewRuntime(cfg),
		logger:    zerolog.Nop(),
		overrides: overrides,
		Config:    cfg,
		Path:      path,
	}

	return svc, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if err := config.ApplyEnv(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, overrides []ConfigOverride) {
	for _, o := range overrides {
		if o != nil {
			o(cfg)
		}
	}
}

// reload swaps in a reloaded config. The listener and mount prefix are
// bound at startup, so changes to them only take effect after a restart.
func (s *ConfigService) reload(next *config.Config) error {
	applyOverrides(next, s.overrides)
	if err := next.Validate(); err != nil {
		return err
	}

	prev := s.runtime.Get()
	if prev.Server.Listen != next.Server.Listen ||
		prev.Relay.EffectiveMountPrefix() != next.Relay.EffectiveMountPrefix() {
		s.logger.Warn().
			Str("listen", next.Server.Listen).
			Str("mount_prefix", next.Relay.EffectiveMountPrefix()).
			Msg("listen address and mount prefix changes apply after restart")
	}

	s.runtime.Store(next)
	return nil
}

// StartWatching watches the config file until ctx is done, swapping each
// valid revision into the runtime config. It is a no-op without a config
// file or when already watching.
func (s *ConfigService) StartWatching(ctx context.Context, logger zerolog.Logger) error {
	if s.Path == "" || s.watcher != nil {
		return nil
	}

	watcher, err := config.NewWatcher(s.Path, config.WithWatcherLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to watch config %s: %w", s.Path, err)
	}
	s.logger = logger
	s.watcher = watcher
	watcher.OnReload(s.reload)

	go func() {
		if err := watcher.Watch(ctx); err != nil {
			logger.Error().Err(err).Msg("config watcher stopped")
		}
	}()
	return nil
}

// Shutdown implements do.Shutdowner and stops the watcher.
func (s *ConfigService) Shutdown() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
