package config

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadCallback is called when the config file changes and is successfully
// reloaded and validated. A callback error is logged; the remaining callbacks
// still run.
type ReloadCallback func(*Config) error

// ErrWatcherClosed is returned when an operation is attempted on a closed watcher.
var ErrWatcherClosed = errors.New("config: watcher already closed")

// Watcher monitors a config file for changes and triggers reload callbacks.
// It debounces rapid changes and watches the parent directory so that
// atomic temp-file-and-rename saves are seen.
type Watcher struct {
	ctx           context.Context
	fsWatcher     *fsnotify.Watcher
	cancel        context.CancelFunc
	logger        zerolog.Logger
	path          string
	callbacks     []ReloadCallback
	debounceDelay time.Duration
	mu            sync.RWMutex
	timerMu       sync.Mutex
	timer         *time.Timer
	closed        bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the debounce delay for file change events.
// Default is 100ms.
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithWatcherLogger sets the logger used for reload reports.
func WithWatcherLogger(l zerolog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// NewWatcher creates a config file watcher for path, resolved to an
// absolute path.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:          absPath,
		fsWatcher:     fsWatcher,
		logger:        zerolog.Nop(),
		debounceDelay: 100 * time.Millisecond,
		ctx:           ctx,
		cancel:        cancel,
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		cancel()
		if closeErr := fsWatcher.Close(); closeErr != nil {
			w.logger.Error().Err(closeErr).Msg("failed to close watcher after add failure")
		}
		return nil, err
	}

	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// OnReload registers a callback invoked, in registration order, with each
// successfully reloaded config.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Watch blocks until ctx is canceled or the watcher is closed, reloading the
// config after each debounced Write or Create of the file.
func (w *Watcher) Watch(ctx context.Context) error {
	target := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) == target &&
				(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				w.schedule()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) schedule() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceDelay, func() {
		if w.ctx.Err() != nil {
			return
		}
		w.reload()
	})
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// reload loads and validates the file. An invalid file keeps the previous
// config in effect.
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error().Err(err).Str("path", w.path).Msg("failed to reload config")
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Error().Err(err).Str("path", w.path).Msg("reloaded config is invalid, keeping previous")
		return
	}

	w.logger.Info().Str("path", w.path).Msg("config file reloaded")

	w.mu.RLock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		if err := cb(cfg); err != nil {
			w.logger.Error().Err(err).Msg("config reload callback error")
		}
	}
}

// Close stops watching and releases resources.
// Returns ErrWatcherClosed if already closed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	w.closed = true

	w.cancel()
	w.stopTimer()

	return w.fsWatcher.Close()
}
