package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/sse-relay/internal/auth"
	"github.com/omarluq/sse-relay/internal/config"
)

func TestValidateConfigFile(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeConfig(t, "sse-relay.yaml", quietConfig)

		var out bytes.Buffer
		require.NoError(t, validateConfigFile(&out, path))
		assert.Contains(t, out.String(), "✓")
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeConfig(t, "sse-relay.yaml", `
server:
  listen: "no-port"
client:
  auth:
    type: bearer
`)

		var out bytes.Buffer
		err := validateConfigFile(&out, path)
		require.Error(t, err)
		assert.Contains(t, out.String(), "server.listen")
		assert.Contains(t, out.String(), "client.auth")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeConfig(t, "sse-relay.json", "{}")

		var out bytes.Buffer
		err := validateConfigFile(&out, path)
		assert.ErrorIs(t, err, config.ErrUnsupportedFormat)
	})
}

func TestWriteDefaultConfig(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			var out bytes.Buffer
			require.NoError(t, writeDefaultConfig(&out, path, "", false))
			assert.Contains(t, out.String(), "Config file created")

			cfg, err := config.Load(path)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, config.DefaultListen, cfg.Server.Listen)
			assert.Equal(t, config.DefaultMountPrefix, cfg.Relay.MountPrefix)

			err = writeDefaultConfig(&out, path, "", false)
			assert.ErrorContains(t, err, "already exists")
			assert.NoError(t, writeDefaultConfig(&out, path, "", true))
		})
	}
}

func TestWriteDefaultConfig_ExplicitFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.conf")

	var out bytes.Buffer
	require.NoError(t, writeDefaultConfig(&out, path, config.FormatTOML, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[server]")
}

func TestShowConfig_MasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Client.Auth = auth.Bearer("supersecret-token")
	cfg.Client.Cookie = "session=abc"

	var out bytes.Buffer
	require.NoError(t, showConfig(&out, cfg, config.FormatYAML))

	assert.NotContains(t, out.String(), "supersecret-token")
	assert.NotContains(t, out.String(), "session=abc")
	assert.Contains(t, out.String(), "mount_prefix: /sse-proxy")
	assert.Equal(t, "supersecret-token", cfg.Client.Auth.Token, "original is untouched")
}
