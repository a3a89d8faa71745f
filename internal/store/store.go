// Package store provides the key-value persistence used by the streaming
// client to remember the last endpoint, credentials and custom headers.
//
// The store package abstracts over three backends:
//   - Memory: process-local map, lost on exit (default)
//   - File: a single YAML document on disk, rewritten atomically on every change
//   - Redis: shared storage for several dashboards behind one relay
//
// All implementations are safe for concurrent use. Values are opaque bytes;
// callers choose their own encoding.
//
// Basic usage:
//
//	s, err := store.New(ctx, &store.Config{Type: store.TypeFile, Path: "state.yaml"})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.Set(ctx, "client.url", []byte("https://example.com/events"))
//	data, err := s.Get(ctx, "client.url")
//	if errors.Is(err, store.ErrNotFound) {
//		// nothing saved yet
//	}
package store

import "context"

// Store defines the key-value operations the client depends on.
type Store interface {
	// Get retrieves a value.
	// Returns ErrNotFound if the key does not exist.
	// Returns ErrClosed if the store has been closed.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value, replacing any previous value.
	// Returns ErrClosed if the store has been closed.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key.
	// Returns nil if the key does not exist (idempotent).
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	// After Close is called, all operations return ErrClosed.
	// Close is idempotent.
	Close() error
}

// Pinger is an optional interface for stores backed by a remote service.
//
//	if p, ok := s.(store.Pinger); ok {
//		if err := p.Ping(ctx); err != nil {
//			// handle unreachable backend
//		}
//	}
type Pinger interface {
	Ping(ctx context.Context) error
}
