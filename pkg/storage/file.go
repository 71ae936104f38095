package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileKV keeps every key in one JSON object on disk, rewritten on each
// change. It is the console's stand-in for browser-local storage.
type FileKV struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	values map[string]string
}

// Ensure FileKV implements KV interface
var _ KV = (*FileKV)(nil)

// NewFileKV opens (or starts) the store at path. A corrupt file is logged and
// treated as empty; it is replaced on the next write.
func NewFileKV(path string, logger *slog.Logger) (*FileKV, error) {
	f := &FileKV{
		path:   path,
		logger: logger,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if err := json.Unmarshal(data, &f.values); err != nil {
		logger.Warn("Store file is corrupt, starting empty", "path", path, "error", err)
		f.values = make(map[string]string)
	}
	return f, nil
}

func (f *FileKV) Ping(ctx context.Context) error {
	dir := filepath.Dir(f.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("store directory unavailable: %w", err)
	}
	return nil
}

func (f *FileKV) Close() error {
	return nil
}

func (f *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *FileKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	f.values[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

// SetAll applies values with a single flush, restoring the previous entries
// if the flush fails.
func (f *FileKV) SetAll(ctx context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev := make(map[string]string, len(f.values))
	for k, v := range f.values {
		prev[k] = v
	}
	for k, v := range values {
		f.values[k] = v
	}
	if err := f.flush(); err != nil {
		f.values = prev
		return err
	}
	return nil
}

func (f *FileKV) Remove(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, k := range keys {
		delete(f.values, k)
	}
	return f.flush()
}

// flush writes through a temp file so a crash never leaves half a document.
func (f *FileKV) flush() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	f.logger.Debug("Store flushed", "path", f.path, "keys", len(f.values))
	return nil
}
