// Package client consumes a text/event-stream endpoint, directly or through
// the relay, and records what it receives in an ordered event log.
package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"
	"github.com/samber/ro"

	"github.com/omarluq/sse-relay/internal/sse"
	"github.com/omarluq/sse-relay/internal/store"
)

// DefaultReadBufferSize is the size of each body read.
const DefaultReadBufferSize = 32 * 1024

// Disconnect reasons recorded in the disconnected event.
const (
	ReasonStreamEnded = "Stream ended"
	ReasonUser        = "Disconnected by user"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for stream requests. It must not set a
// Timeout, which would cut long-lived streams.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithStore sets where the last connect request is saved.
func WithStore(s store.Store) Option {
	return func(c *Client) {
		c.store = s
	}
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l.With().Str("component", "client").Logger()
	}
}

// WithClock sets the time source for event timestamps and State.Since.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRelayURL sets the relay base URL, including its mount prefix, used by
// requests with ViaRelay set.
func WithRelayURL(relayURL string) Option {
	return func(c *Client) {
		c.relayURL = relayURL
	}
}

// WithReadBufferSize sets the size of each body read.
func WithReadBufferSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.readBufferSize = n
		}
	}
}

// Client owns at most one live stream and the event log it feeds.
type Client struct {
	httpClient     *http.Client
	store          store.Store
	now            func() time.Time
	builder        *sse.Builder
	log            *sse.Log
	session        *session
	relayURL       string
	logger         zerolog.Logger
	state          State
	readBufferSize int
	// lifecycleMu serializes Connect and Disconnect.
	lifecycleMu sync.Mutex
	mu          sync.RWMutex
}

// New returns an idle Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{},
		now:            time.Now,
		logger:         zerolog.Nop(),
		state:          idleState(),
		readBufferSize: DefaultReadBufferSize,
		log:            sse.NewLog(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.builder = sse.NewBuilder(c.now)
	return c
}

// Connect opens a stream for req, replacing any stream already open. It
// returns once the response headers have been received: nil when the stream
// is live, *ConfigError before anything was sent, *HTTPError for a non-2xx
// response, the transport error, or context.Canceled if Disconnect or ctx
// ended the attempt first. Cancelling ctx after Connect returns does not
// affect the stream; use Disconnect.
func (c *Client) Connect(ctx context.Context, req ConnectRequest) error {
	if err := req.Validate(); err != nil {
		c.setError(err.Error())
		return err
	}
	prepared, err := req.newHTTPRequest(c.relayURL)
	if err != nil {
		c.setError(err.Error())
		return err
	}

	c.lifecycleMu.Lock()
	c.stopLocked()

	c.save(ctx, req)

	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	httpReq := prepared.WithContext(sessCtx)

	sess := newSession(cancel)
	c.session = sess
	c.mu.Lock()
	c.state = State{Status: StatusConnecting, Error: mo.None[string](), Since: mo.None[time.Time]()}
	c.mu.Unlock()

	c.logger.Debug().Str("url", req.URL).Bool("via_relay", req.ViaRelay).Msg("connecting")
	go c.run(sessCtx, sess, httpReq, req)
	c.lifecycleMu.Unlock()

	select {
	case err := <-sess.handshake:
		return err
	case <-ctx.Done():
		sess.cancel()
		<-sess.handshake
		return context.Canceled
	}
}

// Disconnect cancels the open or pending stream and waits for its reader to
// exit. It does nothing when idle.
func (c *Client) Disconnect() {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	c.stopLocked()
}

// stopLocked must be called with lifecycleMu held.
func (c *Client) stopLocked() {
	if c.session == nil {
		return
	}
	c.session.cancel()
	<-c.session.done
	c.session = nil
}

// Wait blocks until the current stream ends or ctx is done.
func (c *Client) Wait(ctx context.Context) error {
	c.lifecycleMu.Lock()
	sess := c.session
	c.lifecycleMu.Unlock()

	if sess == nil {
		return nil
	}

	select {
	case <-sess.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClearEvents empties the event log. The connection is unaffected and later
// events keep being appended.
func (c *Client) ClearEvents() {
	c.log.Clear()
}

// Events returns a snapshot of the event log.
func (c *Client) Events() []sse.Event {
	return c.log.Events()
}

// Observe replays the event log and then follows new events.
//
// Observers run synchronously on the stream's read loop. An observer must not
// call Connect or Disconnect directly, since both wait for that loop to exit;
// hand the call off to another goroutine instead.
func (c *Client) Observe() ro.Observable[sse.Event] {
	return c.log.Observe()
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether a stream is open.
func (c *Client) IsConnected() bool {
	return c.State().IsConnected()
}

func (c *Client) setError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Error = mo.Some(msg)
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// fail records an error event and returns the client to idle.
func (c *Client) fail(msg string, status int) {
	c.log.Append(c.builder.Error(msg, status))
	s := idleState()
	s.Error = mo.Some(msg)
	c.setState(s)
	c.logger.Warn().Int("status", status).Str("error", msg).Msg("stream failed")
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
