package proxy

import (
	"net/http"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/omarluq/sse-relay/internal/config"
	"github.com/omarluq/sse-relay/internal/vinfo"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// SetupRoutes creates the HTTP handler with all routes configured.
// Routes:
//   - ANY {prefix} and {prefix}/... - relay to https://{host}{rest}
//   - GET /health - health check
//
// Relay paths are matched before the mux so encoded or doubled slashes in
// the target path reach the upstream untouched.
func SetupRoutes(runtime config.RuntimeConfig, logger zerolog.Logger, opts ...HandlerOption) http.Handler {
	cfg := runtime.Get()
	relay := NewHandler(runtime, opts...)

	// Apply middleware in order:
	// 1. LoggerMiddleware (attaches base logger)
	// 2. RequestIDMiddleware (generates ID, enriches logger)
	// 3. LoggingMiddleware (logs with ID)
	// 4. Handler
	var relayHandler http.Handler = relay
	relayHandler = LoggingMiddlewareWithProvider(func() config.DebugOptions {
		return runtime.Get().Logging.DebugOptions
	})(relayHandler)
	relayHandler = RequestIDMiddleware()(relayHandler)
	relayHandler = LoggerMiddleware(logger)(relayHandler)
	if cfg.Relay.Tracing {
		relayHandler = otelhttp.NewHandler(relayHandler, "sse-relay")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: vinfo.String()})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if relay.Matches(r.URL.Path) {
			relayHandler.ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
}
