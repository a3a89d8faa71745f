package proxy

import (
	"context"
	"time"
)

// requestTimings collects per-request durations reported by the logging
// middleware.
type requestTimings struct {
	// Upstream is the time from sending the upstream request to receiving
	// its response headers.
	Upstream time.Duration
	// Stream is how long the body was relayed.
	Stream time.Duration
	// Bytes is the number of body bytes relayed to the caller.
	Bytes int64
}

type timingsKey struct{}

func withRequestTimings(ctx context.Context) (context.Context, *requestTimings) {
	timings := &requestTimings{}
	return context.WithValue(ctx, timingsKey{}, timings), timings
}

func getRequestTimings(ctx context.Context) *requestTimings {
	if ctx == nil {
		return nil
	}
	if timings, ok := ctx.Value(timingsKey{}).(*requestTimings); ok {
		return timings
	}
	return nil
}
