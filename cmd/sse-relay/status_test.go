package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHealth(t *testing.T) {
	t.Run("running", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			_, _ = w.Write([]byte(`{"status":"ok","version":"v1.2.3"}`))
		}))
		defer srv.Close()

		var out bytes.Buffer
		require.NoError(t, checkHealth(context.Background(), &out, srv.Client(), srv.URL))
		assert.Contains(t, out.String(), "✓ sse-relay is running")
		assert.Contains(t, out.String(), "v1.2.3")
	})

	t.Run("unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		var out bytes.Buffer
		err := checkHealth(context.Background(), &out, srv.Client(), srv.URL)
		require.Error(t, err)
		assert.Contains(t, out.String(), "503")
	})

	t.Run("not running", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		var out bytes.Buffer
		err := checkHealth(context.Background(), &out, http.DefaultClient, url)
		require.Error(t, err)
		assert.Contains(t, out.String(), "not running")
	})
}
