package store

import (
	"context"
	"errors"
	"sync"
)

var errDiskFull = errors.New("disk full")

// FlakyKV wraps a MemoryKV and fails writes or reads on demand.
type FlakyKV struct {
	*MemoryKV
	mu        sync.Mutex
	FailSet   bool
	FailGet   bool
	SetCalls  int
	GetFunc   func(ctx context.Context, key string) (string, bool, error)
	SetFunc   func(ctx context.Context, key, value string) error
}

func NewFlakyKV() *FlakyKV {
	return &FlakyKV{MemoryKV: NewMemoryKV()}
}

func (f *FlakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	fail, fn := f.FailGet, f.GetFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, key)
	}
	if fail {
		return "", false, errDiskFull
	}
	return f.MemoryKV.Get(ctx, key)
}

func (f *FlakyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.SetCalls++
	fail, fn := f.FailSet, f.SetFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, key, value)
	}
	if fail {
		return errDiskFull
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func (f *FlakyKV) setGetFunc(fn func(ctx context.Context, key string) (string, bool, error)) {
	f.mu.Lock()
	f.GetFunc = fn
	f.mu.Unlock()
}

func (f *FlakyKV) setFailSet(v bool) {
	f.mu.Lock()
	f.FailSet = v
	f.mu.Unlock()
}

// seqIDs returns "1", "2", ... so tests can name ids.
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return string(rune('0' + n))
	}
}
