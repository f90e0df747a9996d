package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"weekly/internal/logging"
	"weekly/internal/task"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an operation names an id that is not in the list.
var ErrNotFound = errors.New("task not found")

// ErrNotLoaded is returned by ResetWeekly while the stored list could not be
// read or decoded.
var ErrNotLoaded = errors.New("task list not loaded from storage")

// PersistenceError records a failed storage read or write. Mutations never
// return it: the in-memory list stays authoritative and the next successful
// write heals the divergence.
type PersistenceError struct {
	Op  string // read, write, decode
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Marker is the last applied weekly reset. Year is 0 when unknown.
type Marker struct {
	Week int
	Year int
}

// TaskStore owns the task collection and the reset marker.
type TaskStore struct {
	mu         sync.RWMutex
	kv         KV
	tasks      task.List
	newID      func() string
	persistErr error
	// loadErr is the read or decode failure the list was opened on. While it
	// is a read failure nothing is written over the stored snapshot.
	loadErr *PersistenceError
}

// Option configures a TaskStore.
type Option func(*TaskStore)

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *TaskStore) { s.newID = fn }
}

// OpenTaskStore loads the task list from kv. A missing, unreadable or corrupt
// snapshot starts the store empty; the failure is logged and kept in PersistErr.
func OpenTaskStore(ctx context.Context, kv KV, opts ...Option) (*TaskStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("task store requires a KV backend")
	}
	s := &TaskStore{kv: kv, tasks: task.List{}, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}

	list, err := s.read(ctx)
	if err != nil {
		s.persistErr = err
		errors.As(err, &s.loadErr)
		logging.StoreError("Starting with an empty task list: %v", err)
	} else {
		s.tasks = list
	}
	logging.Store("Task store opened with %d tasks", len(s.tasks))
	return s, nil
}

func (s *TaskStore) read(ctx context.Context) (task.List, error) {
	raw, ok, err := s.kv.Get(ctx, KeyTasks)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Key: KeyTasks, Err: err}
	}
	if !ok || raw == "" {
		return task.List{}, nil
	}
	var list task.List
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, &PersistenceError{Op: "decode", Key: KeyTasks, Err: err}
	}
	if list == nil {
		list = task.List{}
	}
	return list, nil
}

// Reload replaces the in-memory list with what storage holds. On failure the
// current list is kept.
func (s *TaskStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read(ctx)
	if err != nil {
		logging.StoreWarn("Reload skipped: %v", err)
		return err
	}
	s.tasks = list
	s.loadErr = nil
	logging.StoreDebug("Reloaded %d tasks from storage", len(list))
	return nil
}

// ensureLoadedLocked retries the initial read when the store was opened on a
// failure. A successful retry replaces the in-memory list.
func (s *TaskStore) ensureLoadedLocked(ctx context.Context) {
	if s.loadErr == nil {
		return
	}
	list, err := s.read(ctx)
	if err != nil {
		errors.As(err, &s.loadErr)
		return
	}
	logging.Store("Storage readable again, loaded %d tasks", len(list))
	s.tasks = list
	s.loadErr = nil
	s.persistErr = nil
}

// commitLocked installs next and writes the full snapshot. The write is
// skipped while storage could not be read, so an unseen snapshot is never
// overwritten.
func (s *TaskStore) commitLocked(ctx context.Context, next task.List, ev logging.AuditEvent) {
	start := time.Now()
	s.tasks = next

	var err error
	if s.loadErr != nil && s.loadErr.Op == "read" {
		err = fmt.Errorf("storage unreadable: %w", s.loadErr.Err)
	} else {
		var data []byte
		data, err = json.Marshal(s.tasks)
		if err == nil {
			err = s.kv.Set(ctx, KeyTasks, string(data))
		}
	}
	ev.Duration = time.Since(start)
	if err != nil {
		pe := &PersistenceError{Op: "write", Key: KeyTasks, Err: err}
		s.persistErr = pe
		logging.StoreError("%s not persisted: %v", ev.EventType, pe)
		logging.Audit(logging.AuditEvent{EventType: logging.AuditPersistError, TaskID: ev.TaskID, Day: ev.Day, Error: pe.Error()})
		ev.Success = false
		ev.Error = pe.Error()
	} else {
		s.persistErr = nil
		s.loadErr = nil
		ev.Success = true
	}
	logging.Audit(ev)
}

// Create validates d and appends a new undone task with a fresh id.
func (s *TaskStore) Create(ctx context.Context, d task.Draft) (task.Task, error) {
	if err := d.Validate(); err != nil {
		logging.StoreDebug("Create rejected: %v", err)
		return task.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	t := d.NewTask(s.newID())
	s.commitLocked(ctx, s.tasks.Add(t), logging.AuditEvent{
		EventType: logging.AuditTaskCreate, TaskID: t.ID, Day: int(t.Day), Message: "created",
	})
	logging.Store("Created task %s on %s", t.ID, t.Day)
	return t, nil
}

// Update replaces text, detail, day, once and time of id. Done is kept.
func (s *TaskStore) Update(ctx context.Context, id string, d task.Draft) (task.Task, error) {
	if err := d.Validate(); err != nil {
		logging.StoreDebug("Update %s rejected: %v", id, err)
		return task.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	next, t, ok := s.tasks.Replace(id, d)
	if !ok {
		return task.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	s.commitLocked(ctx, next, logging.AuditEvent{
		EventType: logging.AuditTaskUpdate, TaskID: t.ID, Day: int(t.Day), Message: "updated",
	})
	return t, nil
}

// ToggleDone flips the done flag of id.
func (s *TaskStore) ToggleDone(ctx context.Context, id string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	next, t, ok := s.tasks.Toggle(id)
	if !ok {
		return task.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	s.commitLocked(ctx, next, logging.AuditEvent{
		EventType: logging.AuditTaskToggle, TaskID: t.ID, Day: int(t.Day), Message: "done=" + strconv.FormatBool(t.Done),
	})
	return t, nil
}

// Delete removes id.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	next, t, ok := s.tasks.Remove(id)
	if !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	s.commitLocked(ctx, next, logging.AuditEvent{
		EventType: logging.AuditTaskDelete, TaskID: t.ID, Day: int(t.Day), Message: "deleted",
	})
	return nil
}

// DeleteAll empties the collection and returns how many tasks were removed.
func (s *TaskStore) DeleteAll(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	n := len(s.tasks)
	s.commitLocked(ctx, task.List{}, logging.AuditEvent{
		EventType: logging.AuditTaskClear, Count: n, Message: "deleted all",
	})
	logging.Store("Deleted all %d tasks", n)
	return n
}

// ResetWeekly drops once tasks and marks the rest undone. It refuses with
// ErrNotLoaded while the stored list is unreadable or corrupt, since the
// in-memory list is then not the user's week.
func (s *TaskStore) ResetWeekly(ctx context.Context) (task.ResetSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	if s.loadErr != nil {
		logging.StoreWarn("Weekly reset refused: %v", s.loadErr)
		return task.ResetSummary{}, fmt.Errorf("%w: %w", ErrNotLoaded, s.loadErr)
	}
	next, sum := s.tasks.ResetWeekly()
	s.commitLocked(ctx, next, logging.AuditEvent{
		EventType: logging.AuditWeekReset, Count: sum.Removed + sum.Cleared,
		Message: fmt.Sprintf("removed=%d cleared=%d kept=%d", sum.Removed, sum.Cleared, sum.Kept),
	})
	logging.Store("Weekly reset: removed %d once tasks, cleared %d, kept %d", sum.Removed, sum.Cleared, sum.Kept)
	return sum, nil
}

// LastReset reads the reset marker. ok is false when no week was ever recorded
// or the stored value is malformed. A storage read failure is returned as a
// *PersistenceError so callers can tell it apart from "never reset".
func (s *TaskStore) LastReset(ctx context.Context) (Marker, bool, error) {
	week, ok, err := s.readInt(ctx, KeyLastResetWeek)
	if err != nil || !ok {
		return Marker{}, false, err
	}
	year, _, err := s.readInt(ctx, KeyLastResetYear)
	if err != nil {
		return Marker{}, false, err
	}
	return Marker{Week: week, Year: year}, true, nil
}

func (s *TaskStore) readInt(ctx context.Context, key string) (int, bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		logging.StoreError("Failed to read %s: %v", key, err)
		return 0, false, &PersistenceError{Op: "read", Key: key, Err: err}
	}
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logging.StoreWarn("Ignoring malformed %s value %q", key, raw)
		return 0, false, nil
	}
	return n, true, nil
}

// MarkReset records m as the last applied reset. The year is written before
// the week and restored if the week write fails, so a partial failure never
// pairs the new week with the old year.
func (s *TaskStore) MarkReset(ctx context.Context, m Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.markLocked(ctx, m)
	if err != nil {
		s.persistErr = &PersistenceError{Op: "write", Key: KeyLastResetWeek, Err: err}
		logging.StoreError("Reset marker not persisted: %v", err)
		logging.Audit(logging.AuditEvent{EventType: logging.AuditPersistError, Error: err.Error(), Message: "marker"})
		return
	}
	logging.Audit(logging.AuditEvent{EventType: logging.AuditMarkerUpdate, Success: true, Count: m.Week, Message: fmt.Sprintf("week=%d year=%d", m.Week, m.Year)})
}

func (s *TaskStore) markLocked(ctx context.Context, m Marker) error {
	if m.Year <= 0 {
		return s.kv.Set(ctx, KeyLastResetWeek, strconv.Itoa(m.Week))
	}
	prevYear, hadYear, err := s.kv.Get(ctx, KeyLastResetYear)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyLastResetYear, strconv.Itoa(m.Year)); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyLastResetWeek, strconv.Itoa(m.Week)); err != nil {
		var rbErr error
		if hadYear {
			rbErr = s.kv.Set(ctx, KeyLastResetYear, prevYear)
		} else {
			rbErr = s.kv.Delete(ctx, KeyLastResetYear)
		}
		if rbErr != nil {
			logging.StoreError("Failed to restore %s: %v", KeyLastResetYear, rbErr)
		}
		return err
	}
	return nil
}

// PersistErr returns the most recent persistence failure, or nil once a later
// write succeeded.
func (s *TaskStore) PersistErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistErr
}

// Tasks returns a copy of the collection.
func (s *TaskStore) Tasks() task.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Clone()
}

// Get looks up one task.
func (s *TaskStore) Get(id string) (task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Find(id)
}

// ForDay returns the tasks on d in display order.
func (s *TaskStore) ForDay(d task.Day) task.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.ForDay(d)
}

// Week returns all tasks grouped by day.
func (s *TaskStore) Week() [7]task.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Week()
}

// Stats summarizes the collection.
func (s *TaskStore) Stats() task.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Stats()
}

// Len returns the number of tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// KV exposes the backend, e.g. for the watcher to locate it.
func (s *TaskStore) KV() KV {
	return s.kv
}
