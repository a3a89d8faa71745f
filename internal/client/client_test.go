package client_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/samber/ro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/sse-relay/internal/auth"
	"github.com/omarluq/sse-relay/internal/client"
	"github.com/omarluq/sse-relay/internal/header"
	"github.com/omarluq/sse-relay/internal/sse"
	"github.com/omarluq/sse-relay/internal/store"
)

const waitFor = 2 * time.Second

func types(events []sse.Event) []string {
	return lo.Map(events, func(e sse.Event, _ int) string { return e.Type })
}

func raws(events []sse.Event) []string {
	return lo.FilterMap(events, func(e sse.Event, _ int) (string, bool) {
		return e.Raw, !e.IsLifecycle()
	})
}

func dataMessage(t *testing.T, e sse.Event) string {
	t.Helper()
	data, ok := e.Data.(map[string]any)
	require.True(t, ok, "lifecycle data should be an object, got %T", e.Data)
	msg, _ := data["message"].(string)
	return msg
}

func streamServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, flush func())) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		handler(w, r, func() {
			if flusher != nil {
				flusher.Flush()
			}
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConnect_ConfigErrorsSendNothing(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		wantIs error
		name   string
		req    client.ConnectRequest
	}{
		{name: "empty url", req: client.ConnectRequest{URL: "  "}, wantIs: client.ErrMissingURL},
		{name: "bearer without token", req: client.ConnectRequest{URL: srv.URL, Auth: auth.Bearer("")}, wantIs: auth.ErrIncomplete},
		{name: "basic without password", req: client.ConnectRequest{URL: srv.URL, Auth: auth.Basic("u", "")}, wantIs: auth.ErrIncomplete},
		{name: "apikey without header", req: client.ConnectRequest{URL: srv.URL, Auth: auth.APIKey("", "k")}, wantIs: auth.ErrIncomplete},
		{name: "relative url", req: client.ConnectRequest{URL: "/events"}, wantIs: client.ErrInvalidURL},
		{name: "relay without relay url", req: client.ConnectRequest{URL: "https://example.com/s", ViaRelay: true}, wantIs: client.ErrNoRelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := client.New()
			err := c.Connect(context.Background(), tt.req)

			var cfgErr *client.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.Empty(t, c.Events())
			assert.Equal(t, client.StatusIdle, c.State().Status)
			assert.True(t, c.State().Error.IsPresent())
		})
	}

	assert.Zero(t, requests.Load())
}

func TestConnect_EndToEnd(t *testing.T) {
	t.Parallel()

	srv := streamServer(t, func(w http.ResponseWriter, _ *http.Request, flush func()) {
		fmt.Fprint(w, "data: 1\n\n\n\ndata: 2\n\n")
		flush()
	})

	c := client.New()
	require.NoError(t, c.Connect(context.Background(), client.ConnectRequest{URL: srv.URL}))

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, c.Wait(ctx))

	events := c.Events()
	assert.Equal(t, []string{sse.TypeConnected, sse.TypeMessage, sse.TypeMessage, sse.TypeDisconnected}, types(events))
	assert.Equal(t, []string{"1", "2"}, raws(events))
	assert.Equal(t, float64(1), events[1].Data)
	assert.Equal(t, client.ReasonStreamEnded, dataMessage(t, events[3]))

	state := c.State()
	assert.Equal(t, client.StatusIdle, state.Status)
	assert.False(t, state.Error.IsPresent())
	assert.False(t, c.IsConnected())

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp))
	}
	assert.Len(t, lo.UniqBy(events, func(e sse.Event) string { return e.ID }), len(events))
}

func TestConnect_FlushesUnterminatedFrameAtEOF(t *testing.T) {
	t.Parallel()

	srv := streamServer(t, func(w http.ResponseWriter, _ *http.Request, flush func()) {
		fmt.Fprint(w, "event: done\ndata: {\"ok\":true}")
		flush()
	})

	c := client.New()
	require.NoError(t, c.Connect(context.Background(), client.ConnectRequest{URL: srv.URL}))
	require.NoError(t, c.Wait(context.Background()))

	events := c.Events()
	assert.Equal(t, []string{sse.TypeConnected, "done", sse.TypeDisconnected}, types(events))
	assert.Equal(t, map[string]any{"ok": true}, events[1].Data)
}

func TestConnect_Headers(t *testing.T) {
	t.Parallel()

	got := make(chan http.Header, 1)
	srv := streamServer(t, func(_ http.ResponseWriter, r *http.Request, _ func()) {
		got <- r.Header.Clone()
	})

	c := client.New()
	err := c.Connect(context.Background(), client.ConnectRequest{
		URL:  srv.URL,
		Auth: auth.Bearer("secret"),
		Headers: []header.Field{
			{Name: "X-Trace", Value: "a"},
			{Name: "authorization", Value: "Bearer custom"},
			{Name: "x-trace", Value: "b"},
			{Name: "Accept", Value: "application/x-ndjson"},
		},
		Cookie: "session=abc",
	})
	require.NoError(t, err)

	h := <-got
	assert.Equal(t, "Bearer secret", h.Get("Authorization"), "auth headers win over custom ones")
	assert.Equal(t, "b", h.Get("X-Trace"), "last custom value wins")
	assert.Equal(t, "application/x-ndjson", h.Get("Accept"), "custom headers win over defaults")
	assert.Equal(t, "no-cache", h.Get("Cache-Control"))
	assert.Equal(t, "session=abc", h.Get("Cookie"))
	assert.Empty(t, h.Get("X-Cookie"))
}

func TestConnect_HTTPErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		contains []string
		status   int
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"message":"missing topic"}`, contains: []string{"Bad request", "missing topic"}},
		{name: "unauthorized", status: http.StatusUnauthorized, contains: []string{"Authentication failed", "credentials"}},
		{name: "forbidden", status: http.StatusForbidden, body: "nope", contains: []string{"Access denied", "nope"}},
		{name: "server error json", status: http.StatusInternalServerError, body: `{"error":"db down"}`, contains: []string{"HTTP 500: db down"}},
		{name: "server error empty", status: http.StatusBadGateway, contains: []string{"HTTP 502: Bad Gateway"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			c := client.New()
			err := c.Connect(context.Background(), client.ConnectRequest{URL: srv.URL})

			var httpErr *client.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.Status)
			for _, s := range tt.contains {
				assert.Contains(t, httpErr.Message, s)
			}

			events := c.Events()
			require.Equal(t, []string{sse.TypeError}, types(events))
			assert.Equal(t, httpErr.Message, dataMessage(t, events[0]))

			state := c.State()
			assert.Equal(t, client.StatusIdle, state.Status)
			assert.Equal(t, httpErr.Message, state.Error.OrEmpty())
		})
	}
}

func TestConnect_LongErrorBodyTruncated(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, lo.RandomString(1000, lo.LettersCharset))
	}))
	t.Cleanup(srv.Close)

	c := client.New()
	err := c.Connect(context.Background(), client.ConnectRequest{URL: srv.URL})

	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Less(t, len(httpErr.Message), 300)
	assert.Contains(t, httpErr.Message, "...")
}

func TestConnect_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := client.New()
	err := c.Connect(context.Background(), client.ConnectRequest{URL: url})
	require.Error(t, err)

	var cfgErr *client.ConfigError
	assert.False(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{sse.TypeError}, types(c.Events()))
	assert.True(t, c.State().Error.IsPresent())
}

func TestDisconnect_WhileConnecting(t *testing.T) {
	t.Parallel()

	arrived := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	c := client.New()
	result := make(chan error, 1)
	go func() {
		result <- c.Connect(context.Background(), client.ConnectRequest{URL: srv.URL})
	}()

	<-arrived
	assert.Equal(t, client.StatusConnecting, c.State().Status)
	c.Disconnect()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitFor):
		t.Fatal("Connect did not return after Disconnect")
	}

	assert.Empty(t, c.Events(), "no error event for a user cancellation")
	state := c.State()
	assert.Equal(t, client.StatusIdle, state.Status)
	assert.False(t, state.Error.IsPresent())
}

func TestConnect_ContextCancelledDuringHandshake(t *testing.T) {
	t.Parallel()

	arrived := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-arrived
		cancel()
	}()

	c := client.New()
	err := c.Connect(ctx, client.ConnectRequest{URL: srv.URL})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.Events())
	assert.Equal(t, client.StatusIdle, c.State().Status)
}

func TestDisconnect_WhileConnected(t *testing.T) {
	t.Parallel()

	upstreamDone := make(chan struct{})
	srv := streamServer(t, func(w http.ResponseWriter, r *http.Request, flush func()) {
		fmt.Fprint(w, "data: first\n\n")
		flush()
		<-r.Context().Done()
		close(upstreamDone)
	})

	c := client.New()
	require.NoError(t, c.Connect(context.Background(), client.ConnectRequest{URL: srv.URL}))
	assert.True(t, c.IsConnected())
	assert.True(t, c.State().Since.IsPresent())

	require.Eventually(t, func() bool { return len(c.Events()) == 2 }, waitFor, 5*time.Millisecond)
	c.Disconnect()

	events := c.Events()
	assert.Equal(t, []string{sse.TypeConnected, sse.TypeMessage, sse.TypeDisconnected}, types(events))
	assert.Equal(t, client.ReasonUser, dataMessage(t, events[2]))
	assert.Equal(t, client.StatusIdle, c.State().Status)
	assert.False(t, c.State().Error.IsPresent())

	select {
	case <-upstreamDone:
	case <-time.After(waitFor):
		t.Fatal("upstream request was not cancelled")
	}

	c.Disconnect()
	assert.Len(t, c.Events(), 3, "disconnect when idle is a no-op")
}

func TestConnect_ConfigErrorKeepsLiveStream(t *testing.T) {
	t.Parallel()

	srv := streamServer(t, func(w http.ResponseWriter, r *http.Request, flush func()) {
		fmt.Fprint(w, "data: 1\n\n")
		flush()
		<-r.Context().Done()
	})

	st := store.NewMemory()
	c := client.New(client.WithStore(st))
	live := client.ConnectRequest{URL: srv.URL}
	require.NoError(t, c.Connect(context.Background(), live))
	require.Eventually(t, func() bool { return len(c.Events()) == 2 }, waitFor, 5*time.Millisecond)

	err := c.Connect(context.Background(), client.ConnectRequest{URL: "https://example.com/s", ViaRelay: true})
	var cfgErr *client.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, client.ErrNoRelay)

	assert.True(t, c.IsConnected())
	assert.Equal(t, []string{sse.TypeConnected, sse.TypeMessage}, types(c.Events()))

	restored, err := c.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, live.URL, restored.URL, "rejected request is not persisted")

	c.Disconnect()
}

func TestObserve_DisconnectHandedOffFromObserver(t *testing.T) {
	t.Parallel()

	srv := streamServer(t, func(w http.ResponseWriter, r *http.Request, flush func()) {
		fmt.Fprint(w, "data: stop\n\n")
		flush()
		<-r.Context().Done()
	})

	c := client.New()
	disconnected := make(chan struct{})
	var once sync.Once
	sub := c.Observe().Subscribe(ro.NewObserver(
		func(e sse.Event) {
			if e.Raw != "stop" {
				return
			}
			once.Do(func() {
				go func() {
					c.Disconnect()
					close(disconnected)
				}()
			})
		},
		func(error) {},
		func() {},
	))
	defer sub.Unsubscribe()

	require.NoError(t, c.Connect(context.Background(), client.ConnectRequest{URL: srv.URL}))

	select {
	case <-disconnected:
	case <-time.After(waitFor):
		t.Fatal("disconnect from an observer did not complete")
	}
	assert.False(t, c.IsConnected())
	assert.Equal(t, []string{sse.TypeConnected, sse.TypeMessage, sse.TypeDisconnected}, types(c.Events()))
}

func TestClearEvents_MidStream(t *testing.T) {
	t.Parallel()

	next := make(chan struct{})
	srv := streamServer(t, func(w http.ResponseWriter, _ *http.Request, flush func()) {
		fmt.Fprint(w, "data: 1\n\n")
		flush()
		<-next
		fmt.Fprint(w, "data: 2\n\n")
		flush()
	})

	c := client.New()
	require.NoError(t, c.Connect(context.Background(), client.ConnectRequest{URL: srv.URL}))
	require.Eventually(t, func() bool { return len(c.Events()) == 2 }, waitFor, 5*time.Millisecond)

	c.ClearEvents()
	assert.Empty(t, c.Events())
	c.ClearEvents()
	assert.Empty(t, c.Events())
	assert.True(t, c.IsConnected())

	close(next)
	require.NoError(t, c.Wait(context.Background()))

	events := c.Events()
	assert.Equal(t, []string{sse.TypeMessage, sse.TypeDisconnected}, types(events))
	assert.Equal(t, []string{"2"}, raws(events))
}

func TestConnect_ReplacesActiveStream(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var cancelled []string
	srv := streamServer(t, func(w http.ResponseWriter, r *http.Request, flush func()) {
		name := r.URL.Query().Get("name")
		fmt.Fprintf(w, "data: %s\n\n", name)
		flush()
		<-r.Context().Done()
		mu.Lock()
		cancelled = append(cancelled, name)
		mu.Unlock()
	})

	c := client.New()
	require.NoError(t, c.Connect(context.Background(), client.ConnectRequest{URL: srv.URL + "?name=a"}))
	require.Eventually(t, func() bool { return len(c.Events()) == 2 }, waitFor, 5*time.Millisecond)

	require.NoError(t, c.Connect(context.Background(), client.ConnectRequest{URL: srv.URL + "?name=b"}))
	require.Eventually(t, func() bool { return len(c.Events()) == 5 }, waitFor, 5*time.Millisecond)

	events := c.Events()
	assert.Equal(t, []string{
		sse.TypeConnected, sse.TypeMessage, sse.TypeDisconnected,
		sse.TypeConnected, sse.TypeMessage,
	}, types(events))
	assert.Equal(t, []string{"a", "b"}, raws(events))

	c.Disconnect()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(cancelled) == 2
	}, waitFor, 5*time.Millisecond)
}

func TestRestore(t *testing.T) {
	t.Parallel()

	srv := streamServer(t, func(_ http.ResponseWriter, _ *http.Request, _ func()) {})
	kv := store.NewMemory()

	c := client.New(client.WithStore(kv))
	_, err := c.Restore(context.Background())
	require.ErrorIs(t, err, store.ErrNotFound)

	req := client.ConnectRequest{
		URL:     srv.URL + "/events?x=1",
		Auth:    auth.APIKey("X-Api-Key", "k1"),
		Headers: []header.Field{{Name: "B", Value: "2"}, {Name: "A", Value: "1"}},
	}
	require.NoError(t, c.Connect(context.Background(), req))
	require.NoError(t, c.Wait(context.Background()))

	restored, err := client.New(client.WithStore(kv)).Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, req, restored)

	_, err = client.New().Restore(context.Background())
	assert.ErrorIs(t, err, client.ErrNoStore)
}

func TestRelayTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		relay   string
		target  string
		want    string
		wantErr bool
	}{
		{name: "path and query", relay: "http://localhost:8787/sse-proxy", target: "https://example.com/a/b?x=1", want: "http://localhost:8787/sse-proxy/example.com/a/b?x=1"},
		{name: "bare host", relay: "http://localhost:8787/sse-proxy/", target: "https://example.com", want: "http://localhost:8787/sse-proxy/example.com/"},
		{name: "host with port", relay: "http://r/sse-proxy", target: "https://127.0.0.1:9443/s", want: "http://r/sse-proxy/127.0.0.1:9443/s"},
		{name: "plain http rejected", relay: "http://r/sse-proxy", target: "http://example.com/s", wantErr: true},
		{name: "garbage rejected", relay: "http://r/sse-proxy", target: "::", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := client.RelayTarget(tt.relay, tt.target)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
