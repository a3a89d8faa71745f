// Package config provides configuration loading and parsing for sse-relay.
package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"

	"github.com/omarluq/sse-relay/internal/auth"
	"github.com/omarluq/sse-relay/internal/header"
	"github.com/omarluq/sse-relay/internal/store"
)

// RuntimeConfig defines the interface for accessing runtime configuration that supports hot-reload.
// Components that need to observe config changes should use this interface instead of
// holding a direct *Config pointer, which would become stale after hot-reload.
type RuntimeConfig interface {
	Get() *Config
}

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Defaults applied when a value is left unset.
const (
	DefaultListen              = "127.0.0.1:8787"
	DefaultMountPrefix         = "/sse-proxy"
	DefaultBufferSize          = 32 * 1024
	DefaultErrorBodyLimit      = 64 * 1024
	DefaultReadHeaderTimeoutMS = 10_000
	DefaultIdleTimeoutMS       = 120_000
)

// Config is the top-level sse-relay configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Relay   RelayConfig   `yaml:"relay" toml:"relay"`
	Client  ClientConfig  `yaml:"client" toml:"client"`
	Store   store.Config  `yaml:"store" toml:"store"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// Default returns a Config with every default filled in.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:              DefaultListen,
			ReadHeaderTimeoutMS: DefaultReadHeaderTimeoutMS,
			IdleTimeoutMS:       DefaultIdleTimeoutMS,
		},
		Relay: RelayConfig{
			MountPrefix:    DefaultMountPrefix,
			BufferSize:     DefaultBufferSize,
			ErrorBodyLimit: DefaultErrorBodyLimit,
		},
		Store: store.Config{Type: store.TypeMemory},
		Logging: LoggingConfig{
			Level:  LevelInfo,
			Format: "console",
			Output: "stderr",
		},
	}
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Listen              string `yaml:"listen" toml:"listen" env:"SSE_RELAY_LISTEN"`
	ReadHeaderTimeoutMS int    `yaml:"read_header_timeout_ms" toml:"read_header_timeout_ms"`
	IdleTimeoutMS       int    `yaml:"idle_timeout_ms" toml:"idle_timeout_ms"`
	EnableHTTP2         bool   `yaml:"enable_http2" toml:"enable_http2" env:"SSE_RELAY_ENABLE_HTTP2"`
}

// ReadHeaderTimeout returns the header read timeout, or the default.
func (s *ServerConfig) ReadHeaderTimeout() time.Duration {
	return s.ReadHeaderTimeoutOption().OrElse(DefaultReadHeaderTimeoutMS * time.Millisecond)
}

// ReadHeaderTimeoutOption returns None when the timeout is left unset.
func (s *ServerConfig) ReadHeaderTimeoutOption() mo.Option[time.Duration] {
	if s.ReadHeaderTimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(s.ReadHeaderTimeoutMS) * time.Millisecond)
}

// IdleTimeout returns the keep-alive idle timeout, or the default.
func (s *ServerConfig) IdleTimeout() time.Duration {
	if s.IdleTimeoutMS <= 0 {
		return DefaultIdleTimeoutMS * time.Millisecond
	}
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

// RelayConfig tunes the streaming relay. BufferSize and ErrorBodyLimit are
// re-read per request and follow hot reloads.
type RelayConfig struct {
	MountPrefix    string `yaml:"mount_prefix" toml:"mount_prefix" env:"SSE_RELAY_MOUNT_PREFIX"`
	BufferSize     int    `yaml:"buffer_size" toml:"buffer_size" env:"SSE_RELAY_BUFFER_SIZE"`
	ErrorBodyLimit int64  `yaml:"error_body_limit" toml:"error_body_limit"`
	Tracing        bool   `yaml:"tracing" toml:"tracing" env:"SSE_RELAY_TRACING"`
}

// EffectiveMountPrefix returns the mount prefix with a leading and no
// trailing slash.
func (r *RelayConfig) EffectiveMountPrefix() string {
	p := strings.TrimRight(r.MountPrefix, "/")
	if p == "" {
		return DefaultMountPrefix
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// EffectiveBufferSize returns the chunk size used by the stream pump.
func (r *RelayConfig) EffectiveBufferSize() int {
	if r.BufferSize <= 0 {
		return DefaultBufferSize
	}
	return r.BufferSize
}

// EffectiveErrorBodyLimit returns how many bytes of an upstream error body
// are read.
func (r *RelayConfig) EffectiveErrorBodyLimit() int64 {
	if r.ErrorBodyLimit <= 0 {
		return DefaultErrorBodyLimit
	}
	return r.ErrorBodyLimit
}

// ClientConfig holds defaults for the tail command.
type ClientConfig struct {
	URL      string         `yaml:"url" toml:"url" env:"SSE_RELAY_CLIENT_URL"`
	RelayURL string         `yaml:"relay_url" toml:"relay_url" env:"SSE_RELAY_CLIENT_RELAY_URL"`
	Cookie   string         `yaml:"cookie" toml:"cookie"`
	Headers  []header.Field `yaml:"headers" toml:"headers"`
	Auth     auth.Config    `yaml:"auth" toml:"auth"`
	ViaRelay bool           `yaml:"via_relay" toml:"via_relay"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level        string       `yaml:"level" toml:"level" env:"SSE_RELAY_LOG_LEVEL"`    // debug, info, warn, error
	Format       string       `yaml:"format" toml:"format" env:"SSE_RELAY_LOG_FORMAT"` // json, console, pretty
	Output       string       `yaml:"output" toml:"output"`                            // stdout, stderr, or file path
	Pretty       bool         `yaml:"pretty" toml:"pretty"`                            // enable colored console output
	DebugOptions DebugOptions `yaml:"debug_options" toml:"debug_options"`              // granular debug logging controls
}

// ParseLevel converts a string log level to zerolog.Level.
// Returns zerolog.InfoLevel if the level string is invalid.
func (l *LoggingConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(l.Level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// EnableAllDebugOptions turns on all debug logging features.
// Used by --debug CLI flag shortcut.
func (l *LoggingConfig) EnableAllDebugOptions() {
	l.Level = LevelDebug
	l.DebugOptions = DebugOptions{
		LogRequestHeaders:  true,
		LogResponseHeaders: true,
		LogChunks:          true,
		LogTLSMetrics:      true,
		MaxChunkLogSize:    256,
	}
}

// DebugOptions defines granular debug logging controls.
type DebugOptions struct {
	// LogRequestHeaders logs the inbound and outbound request headers.
	// Cookie and credential headers are redacted.
	LogRequestHeaders bool `yaml:"log_request_headers" toml:"log_request_headers"`

	// LogResponseHeaders logs the upstream response headers.
	LogResponseHeaders bool `yaml:"log_response_headers" toml:"log_response_headers"`

	// LogChunks logs a preview of every relayed chunk.
	LogChunks bool `yaml:"log_chunks" toml:"log_chunks"`

	// LogTLSMetrics logs upstream TLS metrics (version, handshake time, reuse).
	LogTLSMetrics bool `yaml:"log_tls_metrics" toml:"log_tls_metrics"`

	// MaxChunkLogSize is the maximum number of bytes logged per chunk.
	// Default: 256 bytes.
	MaxChunkLogSize int `yaml:"max_chunk_log_size" toml:"max_chunk_log_size"`
}

// GetMaxChunkLogSize returns the chunk preview size, or the default.
func (d *DebugOptions) GetMaxChunkLogSize() int {
	return d.GetMaxChunkLogSizeOption().OrElse(256)
}

// GetMaxChunkLogSizeOption returns None if the value is not explicitly set.
func (d *DebugOptions) GetMaxChunkLogSizeOption() mo.Option[int] {
	if d.MaxChunkLogSize <= 0 {
		return mo.None[int]()
	}
	return mo.Some(d.MaxChunkLogSize)
}

// IsEnabled returns true if any debug option is enabled.
func (d *DebugOptions) IsEnabled() bool {
	return d.LogRequestHeaders || d.LogResponseHeaders || d.LogChunks || d.LogTLSMetrics
}
