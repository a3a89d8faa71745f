package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/omarluq/sse-relay/internal/config"
	"github.com/omarluq/sse-relay/internal/header"
)

// Handler relays {prefix}/{host}{rest} to https://{host}{rest} and streams
// the response back. It holds no per-request state.
type Handler struct {
	client  *http.Client
	runtime config.RuntimeConfig
	prefix  string
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithUpstreamClient sets the client used for upstream requests.
func WithUpstreamClient(c *http.Client) HandlerOption {
	return func(h *Handler) {
		if c != nil {
			h.client = c
		}
	}
}

// NewUpstreamClient returns the default upstream client. It has no overall
// timeout since streams are open-ended. With tracing enabled the transport
// is instrumented with otelhttp.
func NewUpstreamClient(tracing bool) *http.Client {
	base, ok := http.DefaultTransport.(*http.Transport)
	var transport http.RoundTripper = http.DefaultTransport
	if ok {
		t := base.Clone()
		t.ResponseHeaderTimeout = 0
		transport = t
	}
	if tracing {
		transport = otelhttp.NewTransport(transport)
	}
	return &http.Client{Transport: transport}
}

// NewHandler creates a relay handler mounted at the runtime config's prefix.
// Buffer size, error body limit and debug options are re-read per request.
func NewHandler(runtime config.RuntimeConfig, opts ...HandlerOption) *Handler {
	cfg := runtime.Get()
	h := &Handler{
		runtime: runtime,
		prefix:  cfg.Relay.EffectiveMountPrefix(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.client == nil {
		h.client = NewUpstreamClient(cfg.Relay.Tracing)
	}
	return h
}

// Prefix returns the mount prefix the handler decodes paths against.
func (h *Handler) Prefix() string {
	return h.prefix
}

// Matches reports whether path belongs to the relay.
func (h *Handler) Matches(path string) bool {
	return path == h.prefix || strings.HasPrefix(path, h.prefix+"/")
}

// ServeHTTP handles one relayed request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		WritePreflight(w, r)
		return
	}

	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	cfg := h.runtime.Get()

	target, err := ParseTarget(h.prefix, r.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("rejected relay path")
		SetCORSHeaders(w.Header(), r)
		WriteDecodeError(w, r, err)
		return
	}
	targetURL := target.URL()

	resp, err := h.roundTrip(ctx, r, targetURL, cfg.Logging.DebugOptions)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug().Err(err).Msg("caller went away before upstream responded")
			return
		}
		logger.Warn().Err(err).Str("target", targetURL).Msg("upstream request failed")
		SetCORSHeaders(w.Header(), r)
		WriteUpstreamError(w, http.StatusBadGateway, ErrorUpstreamFailed, err.Error(), targetURL)
		return
	}
	defer closeBody(ctx, resp.Body)

	LogResponseDetails(ctx, resp, cfg.Logging.DebugOptions)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.relayError(w, r, resp, targetURL, cfg.Relay.EffectiveErrorBodyLimit())
		return
	}

	header.CopyResponse(w.Header(), resp.Header)
	SetSSEHeaders(w.Header())
	SetCORSHeaders(w.Header(), r)
	w.WriteHeader(resp.StatusCode)

	h.pump(ctx, w, resp.Body, cfg)
}

// roundTrip sends the upstream request built from r.
func (h *Handler) roundTrip(
	ctx context.Context,
	r *http.Request,
	targetURL string,
	debugOpts config.DebugOptions,
) (*http.Response, error) {
	body := r.Body
	if body == nil || (r.ContentLength == 0 && len(r.TransferEncoding) == 0) {
		body = http.NoBody
	}

	traceCtx, tlsMetrics := ctx, func() TLSMetrics { return TLSMetrics{} }
	if debugOpts.LogTLSMetrics {
		traceCtx, tlsMetrics = AttachTLSTrace(ctx)
	}

	out, err := http.NewRequestWithContext(traceCtx, r.Method, targetURL, body)
	if err != nil {
		return nil, err
	}
	out.ContentLength = r.ContentLength
	out.Header = header.UpstreamRequest(r.Header)

	LogRequestDetails(ctx, r.Header, out.Header, targetURL, debugOpts)

	start := time.Now()
	resp, err := h.client.Do(out)
	if timings := getRequestTimings(ctx); timings != nil {
		timings.Upstream = time.Since(start)
	}
	if err == nil {
		LogTLSMetrics(ctx, tlsMetrics(), debugOpts)
	}
	return resp, err
}

// relayError forwards a non-2xx upstream status with a JSON description.
// Failure to read the body is not reported.
func (h *Handler) relayError(
	w http.ResponseWriter,
	r *http.Request,
	resp *http.Response,
	targetURL string,
	limit int64,
) {
	text, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("failed to read upstream error body")
	}

	message := strings.TrimSpace(string(text))
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	zerolog.Ctx(r.Context()).Warn().
		Int("upstream_status", resp.StatusCode).
		Str("target", targetURL).
		Msg("upstream returned error")

	SetCORSHeaders(w.Header(), r)
	WriteUpstreamError(w, resp.StatusCode, ErrorUpstream, message, targetURL)
}

// pump copies body to w one chunk at a time, flushing after each write. It
// returns when the upstream ends, a write fails, or ctx is cancelled; the
// upstream read is bound to ctx so a departed caller stops it.
func (h *Handler) pump(ctx context.Context, w http.ResponseWriter, body io.Reader, cfg *config.Config) {
	logger := zerolog.Ctx(ctx)
	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		logger.Debug().Err(err).Msg("response writer does not support flushing")
	}

	buf := make([]byte, cfg.Relay.EffectiveBufferSize())
	start := time.Now()
	var written int64
	seq := 0

	defer func() {
		if timings := getRequestTimings(ctx); timings != nil {
			timings.Stream = time.Since(start)
			timings.Bytes = written
		}
	}()

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			seq++
			LogChunk(ctx, buf[:n], seq, cfg.Logging.DebugOptions)

			m, writeErr := w.Write(buf[:n])
			written += int64(m)
			if writeErr != nil {
				logger.Debug().Err(writeErr).Msg("caller write failed, ending stream")
				return
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				logger.Debug().Err(err).Msg("flush failed, ending stream")
				return
			}
		}

		switch {
		case readErr == nil:
			continue
		case errors.Is(readErr, io.EOF):
			logger.Debug().Int64("bytes", written).Msg("upstream stream ended")
			return
		case ctx.Err() != nil:
			logger.Debug().Int64("bytes", written).Msg("caller disconnected, upstream cancelled")
			return
		default:
			logger.Warn().Err(readErr).Int64("bytes", written).Msg("upstream read failed mid-stream")
			return
		}
	}
}
