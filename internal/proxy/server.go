package proxy

import (
	"context"
	"errors"
	"net"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/omarluq/sse-relay/internal/config"
)

// Server wraps http.Server with relay configuration.
type Server struct {
	httpServer *http.Server
	addr       string
}

// NewServer creates a new Server with timeouts suited to open-ended streams.
// Timeout rationale:
//   - ReadHeaderTimeout: protect against slowloris attacks
//   - WriteTimeout: none, a relayed stream lasts as long as its caller
//   - IdleTimeout: keep-alive between requests
//
// If EnableHTTP2 is set, HTTP/2 cleartext (h2c) is accepted on the listener.
func NewServer(cfg config.ServerConfig, handler http.Handler) *Server {
	finalHandler := handler
	if cfg.EnableHTTP2 {
		h2s := &http2.Server{}
		finalHandler = h2c.NewHandler(handler, h2s)
	}

	addr := cfg.Listen
	if addr == "" {
		addr = config.DefaultListen
	}

	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           finalHandler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout(),
			IdleTimeout:       cfg.IdleTimeout(),
		},
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe starts the server (blocks). A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln (blocks). A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server. Open streams are cut off when ctx
// expires.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(err, s.httpServer.Close())
	}
	return err
}
