package config

import (
	"net"
	"net/url"
	"strings"
)

// Valid logging levels.
var validLogLevels = map[string]bool{
	"":      true, // Empty defaults to info
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid logging formats.
var validLogFormats = map[string]bool{
	"":        true, // Empty defaults to auto-detect
	"json":    true,
	"console": true,
	"text":    true, // Alias for console
	"pretty":  true,
}

// Validate checks the configuration for errors.
// Returns a ValidationError containing all errors found, or nil if valid.
func (c *Config) Validate() error {
	errs := &ValidationError{}

	validateServer(c, errs)
	validateRelay(c, errs)
	validateClient(c, errs)
	errs.AddErr("store", c.Store.Validate())
	validateLogging(c, errs)

	return errs.ToError()
}

// validateServer validates the server configuration section.
func validateServer(c *Config, errs *ValidationError) {
	if c.Server.Listen == "" {
		errs.Add("server.listen is required")
	} else {
		validateListenAddress(c.Server.Listen, errs)
	}

	if c.Server.ReadHeaderTimeoutMS < 0 {
		errs.Add("server.read_header_timeout_ms must be >= 0")
	}
	if c.Server.IdleTimeoutMS < 0 {
		errs.Add("server.idle_timeout_ms must be >= 0")
	}
}

// validateListenAddress validates a listen address in host:port format.
func validateListenAddress(addr string, errs *ValidationError) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		errs.Addf("server.listen must be in host:port format (got %q)", addr)
		return
	}

	if host != "" && net.ParseIP(host) == nil && strings.ContainsAny(host, " \t\n") {
		errs.Add("server.listen host contains invalid characters")
	}

	if port == "" {
		errs.Add("server.listen port is required")
	}
}

// validateRelay validates the relay configuration section.
func validateRelay(c *Config, errs *ValidationError) {
	prefix := c.Relay.MountPrefix
	if prefix != "" && (strings.ContainsAny(prefix, "?# ") || prefix == "/") {
		errs.Addf("relay.mount_prefix must be a non-root path (got %q)", prefix)
	}
	if c.Relay.BufferSize < 0 {
		errs.Add("relay.buffer_size must be >= 0")
	}
	if c.Relay.ErrorBodyLimit < 0 {
		errs.Add("relay.error_body_limit must be >= 0")
	}
}

// validateClient validates the client configuration section. The URL may
// be left empty and supplied on the command line instead.
func validateClient(c *Config, errs *ValidationError) {
	if c.Client.URL != "" {
		if u, err := url.Parse(c.Client.URL); err != nil || u.Host == "" {
			errs.Addf("client.url must be an absolute URL (got %q)", c.Client.URL)
		}
	}
	if c.Client.RelayURL != "" {
		if u, err := url.Parse(c.Client.RelayURL); err != nil || u.Host == "" {
			errs.Addf("client.relay_url must be an absolute URL (got %q)", c.Client.RelayURL)
		}
	}
	if c.Client.ViaRelay && c.Client.RelayURL == "" {
		errs.Add("client.relay_url is required when client.via_relay is set")
	}

	errs.AddErr("client.auth", c.Client.Auth.Validate())

	for i, h := range c.Client.Headers {
		if strings.TrimSpace(h.Name) == "" {
			errs.Addf("client.headers[%d].name is required", i)
		}
	}
}

// validateLogging validates the logging configuration section.
func validateLogging(c *Config, errs *ValidationError) {
	if !validLogLevels[c.Logging.Level] {
		errs.Addf("logging.level is invalid (got %q, valid: debug, info, warn, error)",
			c.Logging.Level)
	}

	if !validLogFormats[c.Logging.Format] {
		errs.Addf("logging.format is invalid (got %q, valid: json, console, text, pretty)",
			c.Logging.Format)
	}

	if c.Logging.DebugOptions.MaxChunkLogSize < 0 {
		errs.Add("logging.debug_options.max_chunk_log_size must be >= 0")
	}
}
