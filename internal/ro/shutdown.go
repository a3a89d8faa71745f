// Package ro provides the reactive stream helpers used by the sse-relay
// commands, built on samber/ro: signal-driven shutdown and operators over
// the client event log.
package ro

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/ro"
)

// ShutdownSignals are the OS signals that trigger graceful shutdown.
var ShutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

// GracefulShutdown creates an Observable that emits the first shutdown
// signal received and then completes. It errors with ctx.Err() if the
// subscriber context ends first.
//
// Example:
//
//	sub := GracefulShutdown().SubscribeWithContext(ctx, ro.OnNextWithContext(
//	    func(_ context.Context, sig os.Signal) { log.Info().Msgf("received %v", sig) },
//	))
func GracefulShutdown() ro.Observable[os.Signal] {
	return GracefulShutdownWithSignals(ShutdownSignals...)
}

// GracefulShutdownWithSignals is GracefulShutdown for a custom signal set.
// Signal delivery is registered per subscription and released on teardown.
func GracefulShutdownWithSignals(signals ...os.Signal) ro.Observable[os.Signal] {
	return ro.NewObservableWithContext(func(ctx context.Context, observer ro.Observer[os.Signal]) ro.Teardown {
		ch := make(chan os.Signal, 1)
		stop := make(chan struct{})
		signal.Notify(ch, signals...)

		go func() {
			select {
			case sig := <-ch:
				observer.NextWithContext(ctx, sig)
				observer.CompleteWithContext(ctx)
			case <-ctx.Done():
				observer.ErrorWithContext(ctx, ctx.Err())
			case <-stop:
			}
		}()

		return func() {
			signal.Stop(ch)
			close(stop)
		}
	})
}

// WaitForShutdown blocks until a shutdown signal is received or ctx is
// canceled, returning the signal or ctx's error.
func WaitForShutdown(ctx context.Context) (os.Signal, error) {
	return WaitForSignals(ctx, ShutdownSignals...)
}

// WaitForSignals is WaitForShutdown for a custom signal set.
func WaitForSignals(ctx context.Context, signals ...os.Signal) (os.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results, _, err := ro.CollectWithContext(ctx, GracefulShutdownWithSignals(signals...))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ctx.Err()
	}
	return results[0], nil
}
