package config

import "sync/atomic"

// Runtime provides atomic access to configuration for hot-reload support.
// It uses sync/atomic.Pointer for lock-free reads, so a stream that started
// under the old config keeps its settings while new requests see the update.
//
// Example usage:
//
//	runtime := config.NewRuntime(initialConfig)
//
//	// In a request handler:
//	size := runtime.Get().Relay.EffectiveBufferSize()
//
//	// In the config watcher callback:
//	runtime.Store(newConfig)
type Runtime struct {
	ptr atomic.Pointer[Config]
}

// NewRuntime creates a new Runtime with the given initial configuration.
func NewRuntime(initial *Config) *Runtime {
	r := &Runtime{}
	r.ptr.Store(initial)
	return r
}

// Get returns the current configuration atomically.
func (r *Runtime) Get() *Config {
	return r.ptr.Load()
}

// Store atomically updates the configuration.
// This is called by the config watcher when a file change is detected.
func (r *Runtime) Store(cfg *Config) {
	r.ptr.Store(cfg)
}

// RuntimeConfig interface implementation.
var _ RuntimeConfig = (*Runtime)(nil)
