package proxy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/sse-relay/internal/config"
)

func TestNewServer_Timeouts(t *testing.T) {
	t.Parallel()

	server := NewServer(config.ServerConfig{Listen: "127.0.0.1:0"}, http.NotFoundHandler())

	assert.Equal(t, "127.0.0.1:0", server.Addr())
	assert.Equal(t, 10*time.Second, server.httpServer.ReadHeaderTimeout)
	assert.Equal(t, 120*time.Second, server.httpServer.IdleTimeout)
	assert.Zero(t, server.httpServer.WriteTimeout, "streams must not hit a write deadline")
}

func TestNewServer_DefaultListen(t *testing.T) {
	t.Parallel()

	server := NewServer(config.ServerConfig{}, http.NotFoundHandler())
	assert.Equal(t, config.DefaultListen, server.Addr())
}

func TestNewServer_HTTP2WrapsHandler(t *testing.T) {
	t.Parallel()

	handler := http.NotFoundHandler()
	plain := NewServer(config.ServerConfig{}, handler)
	h2 := NewServer(config.ServerConfig{EnableHTTP2: true}, handler)

	assert.IsType(t, handler, plain.httpServer.Handler)
	assert.NotEqual(t, fmt.Sprintf("%T", handler), fmt.Sprintf("%T", h2.httpServer.Handler))
}

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := NewServer(config.ServerConfig{}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
