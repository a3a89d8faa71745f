package store

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	// loggerMu protects Logger from concurrent access in tests.
	loggerMu sync.RWMutex

	// Logger is the package-level logger for store operations.
	// Uses a no-op logger by default to avoid logging until explicitly configured.
	Logger = zerolog.Nop()
)

// SetLogger sets the package-level logger for store operations.
// The logger is automatically tagged with component: store.
func SetLogger(l *zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	Logger = l.With().Str("component", "store").Logger()
}

func logger() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return Logger
}
