package proxy

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/omarluq/sse-relay/internal/config"
)

// DebugOptionsProvider returns current debug options for live-config logging.
type DebugOptionsProvider func() config.DebugOptions

// LoggerMiddleware attaches logger to every request context so that
// zerolog.Ctx works in handlers.
func LoggerMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
		})
	}
}

// RequestIDMiddleware adds X-Request-ID header and logger with request ID to context.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := AddRequestID(r.Context(), r.Header.Get("X-Request-ID"))
			w.Header().Set("X-Request-ID", GetRequestID(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddlewareWithProvider logs each request using live debug options.
// Completion lines include the upstream latency and, for streams, the bytes
// and frames relayed.
func LoggingMiddlewareWithProvider(provider DebugOptionsProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var debugOpts config.DebugOptions
			if provider != nil {
				debugOpts = provider()
			}

			start := time.Now()
			ctx, timings := withRequestTimings(r.Context())
			r = r.WithContext(ctx)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			shortID := GetRequestID(ctx)
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}

			logRequestStart(ctx, r, shortID, debugOpts)
			next.ServeHTTP(wrapped, r)
			logRequestCompletion(ctx, r, wrapped, timings, time.Since(start), shortID)
		})
	}
}

// LoggingMiddleware logs each request with fixed debug options.
func LoggingMiddleware(debugOpts config.DebugOptions) func(http.Handler) http.Handler {
	return LoggingMiddlewareWithProvider(func() config.DebugOptions { return debugOpts })
}

func withRequestFields(ctx context.Context, r *http.Request, shortID string) zerolog.Context {
	return zerolog.Ctx(ctx).With().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("req_id", shortID)
}

func logRequestStart(ctx context.Context, r *http.Request, shortID string, debugOpts config.DebugOptions) {
	logger := withRequestFields(ctx, r, shortID).Logger()
	logEvent := logger.Info()
	if debugOpts.IsEnabled() {
		logEvent = logEvent.Str("origin", r.Header.Get("Origin")).Str("remote", r.RemoteAddr)
	}
	logEvent.Msgf("%s %s", r.Method, r.URL.Path)
}

func logRequestCompletion(
	ctx context.Context,
	r *http.Request,
	wrapped *responseWriter,
	timings *requestTimings,
	duration time.Duration,
	shortID string,
) {
	durationStr := formatDuration(duration)
	completionMsg := statusSymbol(wrapped.statusCode) + " " +
		http.StatusText(wrapped.statusCode) + " (" + durationStr + ")"

	logCtx := withRequestFields(ctx, r, shortID).
		Int("status", wrapped.statusCode).
		Str("duration", durationStr)

	if timings.Upstream > 0 {
		logCtx = logCtx.Str("upstream_time", formatDuration(timings.Upstream))
	}
	if wrapped.isStreaming {
		logCtx = logCtx.
			Int64("bytes", wrapped.bytes).
			Int("sse_frames", wrapped.frames).
			Str("stream_time", formatDuration(timings.Stream))
	}

	logger := logCtx.Logger()
	switch {
	case wrapped.statusCode >= 500:
		logger.Error().Msg(completionMsg)
	case wrapped.statusCode >= 400:
		logger.Warn().Msg(completionMsg)
	default:
		logger.Info().Msg(completionMsg)
	}
}

func statusSymbol(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "✗"
	case statusCode >= 400:
		return "⚠"
	default:
		return "✓"
	}
}

// formatDuration formats duration in a human-readable form with microsecond precision.
func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "0s"
	}
	duration = duration.Round(time.Microsecond)
	switch {
	case duration < time.Millisecond:
		return fmt.Sprintf("%dµs", duration.Microseconds())
	case duration < time.Second:
		return fmt.Sprintf("%.2fms", float64(duration)/float64(time.Millisecond))
	case duration < time.Minute:
		return fmt.Sprintf("%.2fs", duration.Seconds())
	default:
		return duration.Truncate(time.Second).String()
	}
}

var frameDelimiter = []byte("\n\n")

// responseWriter records the status code and, for event streams, the bytes
// and frame delimiters written. Flush and Unwrap keep
// http.ResponseController working through the wrapper.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int64
	frames      int
	isStreaming bool
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
		rw.statusCode = code
		rw.isStreaming = IsSSEContentType(rw.Header().Get("Content-Type"))
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Write counts bytes and frame delimiters when streaming.
func (rw *responseWriter) Write(data []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(data)
	if rw.isStreaming {
		rw.bytes += int64(n)
		rw.frames += bytes.Count(data[:n], frameDelimiter)
	}
	return n, err
}

// Flush forwards to the underlying writer when it supports flushing.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
