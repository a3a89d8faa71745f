package proxy

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/omarluq/sse-relay/internal/config"
	"github.com/omarluq/sse-relay/internal/header"
)

// sensitiveHeaders are logged as "[redacted]".
var sensitiveHeaders = append([]string{
	"Authorization",
	"Proxy-Authorization",
	"Cookie",
	"Set-Cookie",
	"X-Api-Key",
}, header.CookieCarriers...)

// TLSMetrics holds upstream connection timing and TLS metadata.
type TLSMetrics struct {
	Version     string
	DNSTime     time.Duration
	ConnectTime time.Duration
	TLSTime     time.Duration
	Reused      bool
	HasMetrics  bool
}

// sensitiveFragments mark custom credential headers such as an API key sent
// under an arbitrary name.
var sensitiveFragments = []string{"token", "key", "secret", "password"}

func isSensitiveHeader(name string) bool {
	if lo.ContainsBy(sensitiveHeaders, func(s string) bool { return strings.EqualFold(s, name) }) {
		return true
	}
	lower := strings.ToLower(name)
	return lo.SomeBy(sensitiveFragments, func(f string) bool { return strings.Contains(lower, f) })
}

// redactHeaders flattens h for logging, masking credential headers.
func redactHeaders(h http.Header) map[string]string {
	return lo.MapEntries(h, func(name string, values []string) (string, string) {
		if isSensitiveHeader(name) {
			return name, "[redacted]"
		}
		return name, strings.Join(values, ", ")
	})
}

func debugLogger(ctx context.Context) *zerolog.Logger {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() > zerolog.DebugLevel {
		return nil
	}
	return logger
}

// LogRequestDetails logs the inbound and outbound request headers in debug mode.
func LogRequestDetails(ctx context.Context, in, out http.Header, target string, opts config.DebugOptions) {
	if !opts.LogRequestHeaders {
		return
	}
	logger := debugLogger(ctx)
	if logger == nil {
		return
	}

	logger.Debug().
		Str("target", target).
		Interface("inbound_headers", redactHeaders(in)).
		Interface("upstream_headers", redactHeaders(out)).
		Msg("request details")
}

// LogResponseDetails logs the upstream response headers in debug mode.
func LogResponseDetails(ctx context.Context, resp *http.Response, opts config.DebugOptions) {
	if !opts.LogResponseHeaders {
		return
	}
	logger := debugLogger(ctx)
	if logger == nil {
		return
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Str("proto", resp.Proto).
		Interface("headers", redactHeaders(resp.Header)).
		Msg("response details")
}

// LogChunk logs a truncated preview of one relayed chunk in debug mode.
func LogChunk(ctx context.Context, chunk []byte, seq int, opts config.DebugOptions) {
	if !opts.LogChunks {
		return
	}
	logger := debugLogger(ctx)
	if logger == nil {
		return
	}

	preview := chunk
	if limit := opts.GetMaxChunkLogSize(); len(preview) > limit {
		preview = preview[:limit]
	}
	logger.Debug().
		Int("seq", seq).
		Int("size", len(chunk)).
		Bytes("preview", preview).
		Msg("relayed chunk")
}

// LogTLSMetrics logs upstream TLS metrics in debug mode.
func LogTLSMetrics(ctx context.Context, metrics TLSMetrics, opts config.DebugOptions) {
	if !opts.LogTLSMetrics || !metrics.HasMetrics {
		return
	}
	logger := debugLogger(ctx)
	if logger == nil {
		return
	}

	logEvent := logger.Debug().
		Str("tls_version", metrics.Version).
		Bool("tls_reused", metrics.Reused)
	logEvent = addDurationFields(logEvent, "dns_time", metrics.DNSTime)
	logEvent = addDurationFields(logEvent, "connect_time", metrics.ConnectTime)
	logEvent = addDurationFields(logEvent, "tls_handshake", metrics.TLSTime)
	logEvent.Msg("tls metrics")
}

// AttachTLSTrace attaches an httptrace to ctx for TLS metric collection.
// The returned function reads the metrics once the request has completed.
//
//nolint:gocritic // unnamedResult: return values are clear from function signature
func AttachTLSTrace(ctx context.Context) (context.Context, func() TLSMetrics) {
	metrics := &TLSMetrics{}
	var dnsStart, connectStart, tlsStart time.Time

	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone: func(httptrace.DNSDoneInfo) {
			if !dnsStart.IsZero() {
				metrics.DNSTime = time.Since(dnsStart)
			}
		},
		ConnectStart: func(_, _ string) { connectStart = time.Now() },
		ConnectDone: func(_, _ string, _ error) {
			if !connectStart.IsZero() {
				metrics.ConnectTime = time.Since(connectStart)
			}
		},
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone: func(state tls.ConnectionState, _ error) {
			if !tlsStart.IsZero() {
				metrics.TLSTime = time.Since(tlsStart)
			}
			metrics.Version = tls.VersionName(state.Version)
			metrics.Reused = state.DidResume
			metrics.HasMetrics = true
		},
	}

	return httptrace.WithClientTrace(ctx, trace), func() TLSMetrics { return *metrics }
}

// addDurationFields logs an exact microsecond value plus a human-friendly duration.
func addDurationFields(event *zerolog.Event, name string, d time.Duration) *zerolog.Event {
	if d <= 0 {
		return event
	}
	return event.Int64(name+"_us", d.Microseconds()).Str(name, d.String())
}
