package store

import "errors"

// Standard errors for store operations.
//
// Use errors.Is to check for these errors:
//
//	data, err := s.Get(ctx, key)
//	if errors.Is(err, store.ErrNotFound) {
//		// handle missing key
//	}
var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("store: key not found")

	// ErrClosed is returned when operations are attempted on a closed store.
	ErrClosed = errors.New("store: store is closed")
)
