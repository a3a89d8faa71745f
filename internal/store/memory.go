package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Memory is an in-process Store. Values are copied on the way in and out so
// callers cannot mutate stored data.
type Memory struct {
	log    zerolog.Logger
	data   map[string][]byte
	mu     sync.RWMutex
	closed atomic.Bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		log:  logger().With().Str("backend", "memory").Logger(),
		data: make(map[string][]byte),
	}
}

// Get returns a copy of the stored value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	m.mu.RLock()
	value, ok := m.data[key]
	m.mu.RUnlock()

	m.log.Debug().Str("key", key).Bool("hit", ok).Msg("store get")

	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value under key.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	if m.closed.Load() {
		return ErrClosed
	}

	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()

	m.log.Debug().Str("key", key).Int("size", len(value)).Msg("store set")
	return nil
}

// Delete removes key. Missing keys are not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	if m.closed.Load() {
		return ErrClosed
	}

	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Close marks the store closed and drops all values.
func (m *Memory) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

var _ Store = (*Memory)(nil)
