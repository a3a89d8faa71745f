package ro

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/ro"

	"github.com/omarluq/sse-relay/internal/sse"
)

// EventFilter selects which events reach a tail consumer. The zero value
// passes everything.
type EventFilter struct {
	// Types keeps only events whose Type is listed. Empty keeps all types.
	Types []string
	// Contains keeps only events whose raw payload contains the substring.
	// Lifecycle events are never dropped by Contains.
	Contains string
	// SkipLifecycle drops connected, disconnected and error events.
	SkipLifecycle bool
}

// Match reports whether e passes the filter.
func (f EventFilter) Match(e sse.Event) bool {
	if f.SkipLifecycle && e.IsLifecycle() {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	if f.Contains != "" && !e.IsLifecycle() && !strings.Contains(e.Raw, f.Contains) {
		return false
	}
	return true
}

// FilterEvents drops events that do not match f.
func FilterEvents(f EventFilter) func(ro.Observable[sse.Event]) ro.Observable[sse.Event] {
	return ro.Filter(f.Match)
}

// LogEach logs each event at Debug level without modifying the stream.
//
// Example:
//
//	stream := ro.Pipe1(
//	    c.Observe(),
//	    LogEach(&logger, "tail"),
//	)
func LogEach(logger *zerolog.Logger, name string) func(ro.Observable[sse.Event]) ro.Observable[sse.Event] {
	return ro.DoOnNext(func(e sse.Event) {
		logger.Debug().
			Str("stream", name).
			Str("id", e.ID).
			Str("type", e.Type).
			Int("size", len(e.Raw)).
			Msg("stream event")
	})
}

// IsTerminal reports whether e ends a connection: a disconnected or error
// lifecycle event.
func IsTerminal(e sse.Event) bool {
	return e.Type == sse.TypeDisconnected || e.Type == sse.TypeError
}

// TailOptions configures Tail.
type TailOptions struct {
	Logger *zerolog.Logger
	Filter EventFilter
	// Limit stops the tail after this many matching events. Zero means no
	// limit.
	Limit int64
	// UntilClosed stops the tail at the first terminal event, whether or
	// not the filter lets it through.
	UntilClosed bool
}

// Tail subscribes to source and calls onNext for each event that passes the
// pipeline, in order. It returns when ctx is done (nil), when Limit is
// reached, when UntilClosed sees a terminal event, when the source
// completes, or with the first error from onNext or the source.
func Tail(
	ctx context.Context,
	source ro.Observable[sse.Event],
	opts TailOptions,
	onNext func(sse.Event) error,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once   sync.Once
		result error
		done   = make(chan struct{})
	)
	finish := func(err error) {
		once.Do(func() {
			result = err
			close(done)
		})
	}

	// A terminal event the filter drops never reaches onNext, so it ends
	// the tail here.
	watched := ro.DoOnNext(func(e sse.Event) {
		if opts.UntilClosed && IsTerminal(e) && !opts.Filter.Match(e) {
			finish(nil)
		}
	})(source)

	stream := FilterEvents(opts.Filter)(watched)
	if opts.Logger != nil {
		stream = LogEach(opts.Logger, "tail")(stream)
	}
	if opts.Limit > 0 {
		stream = ro.Take[sse.Event](opts.Limit)(stream)
	}

	sub := stream.SubscribeWithContext(ctx, ro.NewObserverWithContext(
		func(_ context.Context, e sse.Event) {
			select {
			case <-done:
				return
			default:
			}
			if err := onNext(e); err != nil {
				finish(err)
				return
			}
			if opts.UntilClosed && IsTerminal(e) {
				finish(nil)
			}
		},
		func(_ context.Context, err error) { finish(err) },
		func(_ context.Context) { finish(nil) },
	))
	defer sub.Unsubscribe()

	select {
	case <-done:
		return result
	case <-ctx.Done():
		finish(nil)
		return nil
	}
}
