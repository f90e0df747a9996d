package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"weekly/internal/logging"
)

// FileKV keeps every key in one JSON object on disk. Every Get reads the file
// and every Set or Delete is a read-modify-write of the one key, so several
// processes sharing the path see each other's writes. Writes go through a temp
// file and rename so a crash never leaves a half-written snapshot.
type FileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV opens path, treating a missing file as empty. A file that exists
// but does not parse is an error.
func NewFileKV(path string) (*FileKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	f := &FileKV{path: path}
	data, err := f.loadLocked()
	if err != nil {
		return nil, err
	}
	logging.Store("File key-value store ready at %s (%d keys)", path, len(data))
	return f, nil
}

func (f *FileKV) loadLocked() (map[string]string, error) {
	data := map[string]string{}
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	return data, nil
}

func (f *FileKV) saveLocked(data map[string]string) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".weekly-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Get implements KV.
func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.loadLocked()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

// Set implements KV.
func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.loadLocked()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	data[key] = value
	if err := f.saveLocked(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (f *FileKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.loadLocked()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	if err := f.saveLocked(data); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Path implements Located.
func (f *FileKV) Path() string { return f.path }

// Close implements KV.
func (f *FileKV) Close() error { return nil }
