// Package store persists the weekly task collection and reset marker.
//
// The TaskStore keeps the canonical in-memory list and writes the full snapshot
// through a KV backend after every mutation:
//
//	kv, _ := store.OpenKV(store.DriverSQLite, "/home/u/.weekly/weekly.db")
//	ts, _ := store.OpenTaskStore(ctx, kv)
//	t, err := ts.Create(ctx, task.Draft{Text: "Gym", Day: task.Monday})
//
// Backends: SQLite (modernc pure-Go or mattn cgo driver), a single JSON file,
// and memory.
package store

import (
	"context"
	"fmt"
)

// Persisted keys.
const (
	KeyTasks         = "tasks"
	KeyLastResetWeek = "lastResetWeek"
	KeyLastResetYear = "lastResetYear"
)

// Driver names accepted by OpenKV.
const (
	DriverSQLite  = "sqlite"  // modernc.org/sqlite
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3
	DriverFile    = "file"
	DriverMemory  = "memory"
)

// KV is the persistence port: a flat string key-value store.
type KV interface {
	// Get returns ok=false when key has never been written.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Located is implemented by backends that live on disk; the watcher uses it.
type Located interface {
	Path() string
}

// OpenKV opens a backend by driver name.
func OpenKV(driver, path string) (KV, error) {
	switch driver {
	case DriverSQLite, DriverSQLite3:
		return NewSQLiteKV(path, driver)
	case DriverFile:
		return NewFileKV(path)
	case DriverMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
