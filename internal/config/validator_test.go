package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/sse-relay/internal/auth"
	"github.com/omarluq/sse-relay/internal/config"
	"github.com/omarluq/sse-relay/internal/header"
	"github.com/omarluq/sse-relay/internal/store"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mutate   func(*config.Config)
		name     string
		contains []string
	}{
		{name: "defaults are valid", mutate: func(*config.Config) {}},
		{
			name:     "missing listen",
			mutate:   func(c *config.Config) { c.Server.Listen = "" },
			contains: []string{"server.listen is required"},
		},
		{
			name:     "bad listen",
			mutate:   func(c *config.Config) { c.Server.Listen = "localhost" },
			contains: []string{"host:port"},
		},
		{
			name:     "root mount prefix",
			mutate:   func(c *config.Config) { c.Relay.MountPrefix = "/" },
			contains: []string{"relay.mount_prefix"},
		},
		{
			name:     "negative buffer",
			mutate:   func(c *config.Config) { c.Relay.BufferSize = -1 },
			contains: []string{"relay.buffer_size"},
		},
		{
			name:     "incomplete auth",
			mutate:   func(c *config.Config) { c.Client.Auth = auth.Bearer("") },
			contains: []string{"client.auth"},
		},
		{
			name:     "via relay without relay url",
			mutate:   func(c *config.Config) { c.Client.ViaRelay = true },
			contains: []string{"client.relay_url is required"},
		},
		{
			name:     "unnamed header",
			mutate:   func(c *config.Config) { c.Client.Headers = []header.Field{{Value: "x"}} },
			contains: []string{"client.headers[0].name"},
		},
		{
			name:     "file store without path",
			mutate:   func(c *config.Config) { c.Store = store.Config{Type: store.TypeFile} },
			contains: []string{"store:", "path is required"},
		},
		{
			name: "several problems reported together",
			mutate: func(c *config.Config) {
				c.Logging.Level = "verbose"
				c.Logging.Format = "xml"
				c.Server.IdleTimeoutMS = -5
			},
			contains: []string{"3 errors", "logging.level", "logging.format", "server.idle_timeout_ms"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			if len(tt.contains) == 0 {
				require.NoError(t, err)
				return
			}

			var verr *config.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestLoggingConfig_ParseLevel(t *testing.T) {
	t.Parallel()

	for level, want := range map[string]string{
		"debug": "debug", "INFO": "info", "warn": "warn", "error": "error", "bogus": "info",
	} {
		cfg := config.LoggingConfig{Level: level}
		assert.Equal(t, want, cfg.ParseLevel().String(), level)
	}
}

func TestDebugOptions(t *testing.T) {
	t.Parallel()

	var opts config.DebugOptions
	assert.False(t, opts.IsEnabled())
	assert.Equal(t, 256, opts.GetMaxChunkLogSize())
	assert.True(t, opts.GetMaxChunkLogSizeOption().IsAbsent())

	cfg := config.LoggingConfig{}
	cfg.EnableAllDebugOptions()
	assert.Equal(t, config.LevelDebug, cfg.Level)
	assert.True(t, cfg.DebugOptions.IsEnabled())
}

func TestRuntime(t *testing.T) {
	t.Parallel()

	first := config.Default()
	rt := config.NewRuntime(first)
	assert.Same(t, first, rt.Get())

	second := config.Default()
	second.Relay.BufferSize = 1
	rt.Store(second)
	assert.Same(t, second, rt.Get())
}
