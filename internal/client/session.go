package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/samber/mo"

	"github.com/omarluq/sse-relay/internal/sse"
)

// errorBodyLimit caps how much of a failed response is read for its message.
const errorBodyLimit = 64 * 1024

// session is one connection attempt and, if it succeeds, its read loop.
type session struct {
	cancel    context.CancelFunc
	handshake chan error
	done      chan struct{}
}

func newSession(cancel context.CancelFunc) *session {
	return &session{
		cancel:    cancel,
		handshake: make(chan error, 1),
		done:      make(chan struct{}),
	}
}

// run issues the request and, on success, reads the stream until it ends or
// ctx is cancelled. Exactly one value is sent on sess.handshake.
func (c *Client) run(ctx context.Context, sess *session, httpReq *http.Request, req ConnectRequest) {
	defer close(sess.done)
	defer sess.cancel()

	resp, err := c.httpClient.Do(httpReq) //nolint:bodyclose // closed below
	if err != nil {
		if isCancellation(ctx, err) {
			c.setState(idleState())
			c.logger.Debug().Msg("connect cancelled")
			sess.handshake <- context.Canceled
			return
		}
		c.fail(err.Error(), 0)
		sess.handshake <- err
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		if readErr != nil && isCancellation(ctx, readErr) {
			c.setState(idleState())
			sess.handshake <- context.Canceled
			return
		}
		httpErr := newHTTPError(resp.StatusCode, body)
		c.fail(httpErr.Message, httpErr.Status)
		sess.handshake <- httpErr
		return
	}

	since := c.now()
	c.setState(State{Status: StatusConnected, Error: mo.None[string](), Since: mo.Some(since)})
	c.log.Append(c.builder.Connected(req.URL, req.Auth.IsConfigured()))
	c.logger.Info().Str("url", req.URL).Int("status", resp.StatusCode).Msg("stream connected")
	sess.handshake <- nil

	c.read(ctx, resp.Body, since)
}

// read pumps body through the frame parser into the log.
func (c *Client) read(ctx context.Context, body io.Reader, since time.Time) {
	parser := sse.NewParser(c.builder)
	buf := make([]byte, c.readBufferSize)
	frames := 0

	for {
		if ctx.Err() != nil {
			c.closed(ReasonUser, since, frames)
			return
		}

		n, err := body.Read(buf)
		if n > 0 {
			for _, e := range parser.Feed(buf[:n]) {
				c.log.Append(e)
				frames++
			}
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			for _, e := range parser.Flush() {
				c.log.Append(e)
				frames++
			}
			c.closed(ReasonStreamEnded, since, frames)
			return
		case isCancellation(ctx, err):
			c.closed(ReasonUser, since, frames)
			return
		default:
			c.fail(err.Error(), 0)
			return
		}
	}
}

func (c *Client) closed(reason string, since time.Time, frames int) {
	c.log.Append(c.builder.Disconnected(reason))
	c.setState(idleState())
	c.logger.Info().
		Str("reason", reason).
		Int("events", frames).
		Dur("duration", c.now().Sub(since)).
		Msg("stream closed")
}
