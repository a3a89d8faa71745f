package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// File is a Store persisted as a flat YAML mapping of key to string value.
// The whole document is rewritten on every change using a temp file and an
// atomic rename, so a crash never leaves a half-written file behind.
type File struct {
	log    zerolog.Logger
	data   map[string]string
	path   string
	mu     sync.Mutex
	closed bool
}

// NewFile opens (or lazily creates) a file-backed store at path.
// A missing file is treated as an empty store.
func NewFile(path string) (*File, error) {
	path = filepath.Clean(path)

	f := &File{
		log:  logger().With().Str("backend", "file").Str("path", path).Logger(),
		data: make(map[string]string),
		path: path,
	}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("store: failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &f.data); err != nil {
		return nil, fmt.Errorf("store: failed to parse %s: %w", path, err)
	}
	if f.data == nil {
		f.data = make(map[string]string)
	}

	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Get returns the stored value for key.
func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	value, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(value), nil
}

// Set stores value under key and flushes the file.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	previous, existed := f.data[key]
	f.data[key] = string(value)

	if err := f.flush(); err != nil {
		if existed {
			f.data[key] = previous
		} else {
			delete(f.data, key)
		}
		return err
	}

	f.log.Debug().Str("key", key).Int("size", len(value)).Msg("store set")
	return nil
}

// Delete removes key and flushes the file.
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	if _, ok := f.data[key]; !ok {
		return nil
	}
	delete(f.data, key)
	return f.flush()
}

// Close marks the store closed. The file is already up to date.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// flush writes the current map to disk. Callers must hold f.mu.
func (f *File) flush() error {
	content, err := yaml.Marshal(f.data)
	if err != nil {
		return fmt.Errorf("store: failed to encode state: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("store: failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: failed to replace %s: %w", f.path, err)
	}

	return nil
}

var _ Store = (*File)(nil)
