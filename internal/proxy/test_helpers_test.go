package proxy

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/omarluq/sse-relay/internal/config"
)

const relayPrefix = "/sse-proxy"

// newUpstream starts a TLS origin and returns it with its host:port.
func newUpstream(t *testing.T, h http.Handler) (*httptest.Server, string) {
	t.Helper()

	srv := httptest.NewTLSServer(h)
	t.Cleanup(srv.Close)
	return srv, strings.TrimPrefix(srv.URL, "https://")
}

// newRelay starts a plain HTTP relay whose upstream client trusts upstream.
func newRelay(t *testing.T, upstream *httptest.Server, mutate ...func(*config.Config)) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	for _, m := range mutate {
		m(cfg)
	}

	handler := SetupRoutes(config.NewRuntime(cfg), zerolog.Nop(), WithUpstreamClient(upstream.Client()))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// sseUpstream writes frames with a flush after each one.
func sseUpstream(frames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", ContentTypeSSE)
		w.WriteHeader(http.StatusOK)
		for _, f := range frames {
			_, _ = w.Write([]byte(f))
			w.(http.Flusher).Flush()
		}
	}
}
