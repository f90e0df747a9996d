package store

import (
	"context"
	"errors"
	"testing"

	"weekly/internal/task"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, kv KV) *TaskStore {
	t.Helper()
	s, err := OpenTaskStore(context.Background(), kv, WithIDGenerator(seqIDs()))
	require.NoError(t, err)
	return s
}

func TestOpenTaskStore_RequiresKV(t *testing.T) {
	_, err := OpenTaskStore(context.Background(), nil)
	assert.Error(t, err)
}

func TestCreateThenLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryKV())

	c := task.Clock{Hour: 7, Minute: 5}
	created, err := s.Create(ctx, task.Draft{Text: "Gym", Detail: "legs", Day: task.Wednesday, Once: true, Time: &c})
	require.NoError(t, err)

	got, ok := s.Get(created.ID)
	require.True(t, ok)
	want := task.Task{ID: "1", Text: "Gym", Detail: "legs", Day: task.Wednesday, Once: true, Done: false, Time: "07:05:00"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("created task mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateUsesUUIDByDefault(t *testing.T) {
	s, err := OpenTaskStore(context.Background(), NewMemoryKV())
	require.NoError(t, err)

	a, err := s.Create(context.Background(), task.Draft{Text: "a"})
	require.NoError(t, err)
	b, err := s.Create(context.Background(), task.Draft{Text: "b"})
	require.NoError(t, err)

	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateEmptyTitleIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := NewFlakyKV()
	calls := 0
	s, err := OpenTaskStore(ctx, kv, WithIDGenerator(func() string { calls++; return "x" }))
	require.NoError(t, err)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := s.Create(ctx, task.Draft{Text: title})
		assert.ErrorIs(t, err, task.ErrEmptyTitle)
	}
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, calls, "no id generated")
	assert.Equal(t, 0, kv.SetCalls, "nothing persisted")
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryKV())

	created, err := s.Create(ctx, task.Draft{Text: "Gym", Day: task.Monday})
	require.NoError(t, err)
	_, err = s.ToggleDone(ctx, created.ID)
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.ID, task.Draft{Text: "New", Day: task.Sunday})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Text)
	assert.Equal(t, task.Sunday, updated.Day)
	assert.True(t, updated.Done, "update leaves done untouched")
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	kv := NewFlakyKV()
	s := newTestStore(t, kv)
	before := s.Tasks()

	_, err := s.Update(ctx, "1", task.Draft{Text: "New"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, s.Tasks())
	assert.Equal(t, 0, kv.SetCalls)
}

func TestUpdateValidatesBeforeLookup(t *testing.T) {
	s := newTestStore(t, NewMemoryKV())
	_, err := s.Update(context.Background(), "missing", task.Draft{Text: ""})
	assert.ErrorIs(t, err, task.ErrEmptyTitle)
}

func TestToggleDoneTwiceRestores(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryKV())
	created, err := s.Create(ctx, task.Draft{Text: "Read"})
	require.NoError(t, err)

	first, err := s.ToggleDone(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, first.Done)
	second, err := s.ToggleDone(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Done, second.Done)

	_, err = s.ToggleDone(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryKV())
	a, _ := s.Create(ctx, task.Draft{Text: "a"})
	b, _ := s.Create(ctx, task.Draft{Text: "b"})

	require.NoError(t, s.Delete(ctx, a.ID))
	assert.ErrorIs(t, s.Delete(ctx, a.ID), ErrNotFound)

	_, ok := s.Get(b.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := newTestStore(t, kv)
	s.Create(ctx, task.Draft{Text: "a"})
	s.Create(ctx, task.Draft{Text: "b"})

	assert.Equal(t, 2, s.DeleteAll(ctx))
	assert.Equal(t, 0, s.Len())

	raw, ok, err := kv.Get(ctx, KeyTasks)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", raw)
}

func TestResetWeeklyScenarioAndIdempotence(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyTasks,
		`[{"id":"1","text":"Gym","detail":"","once":false,"day":0,"done":true},
		  {"id":"2","text":"Call","detail":"","once":true,"day":0,"done":false}]`))
	s := newTestStore(t, kv)

	sum, err := s.ResetWeekly(ctx)
	require.NoError(t, err)
	assert.Equal(t, task.ResetSummary{Removed: 1, Cleared: 1, Kept: 1}, sum)

	want := task.List{{ID: "1", Text: "Gym", Day: task.Monday}}
	if diff := cmp.Diff(want, s.Tasks()); diff != "" {
		t.Errorf("after reset (-want +got):\n%s", diff)
	}

	_, err = s.ResetWeekly(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, s.Tasks()); diff != "" {
		t.Errorf("second reset changed state (-want +got):\n%s", diff)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := newTestStore(t, kv)

	c := task.Clock{Hour: 18}
	s.Create(ctx, task.Draft{Text: "Gym", Day: task.Friday, Time: &c})
	s.Create(ctx, task.Draft{Text: "Call mom", Detail: "sunday call", Day: task.Sunday, Once: true})
	third, _ := s.Create(ctx, task.Draft{Text: "Water plants", Day: task.Tuesday})
	s.ToggleDone(ctx, third.ID)

	reopened := newTestStore(t, kv)
	byID := cmpopts.SortSlices(func(a, b task.Task) bool { return a.ID < b.ID })
	if diff := cmp.Diff(s.Tasks(), reopened.Tasks(), byID); diff != "" {
		t.Errorf("reopened store differs (-want +got):\n%s", diff)
	}
}

func TestOpenCorruptSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyTasks, "{not json"))

	s := newTestStore(t, kv)
	assert.Equal(t, 0, s.Len())

	var pe *PersistenceError
	require.ErrorAs(t, s.PersistErr(), &pe)
	assert.Equal(t, "decode", pe.Op)

	// First successful write heals
	_, err := s.Create(ctx, task.Draft{Text: "fresh"})
	require.NoError(t, err)
	assert.NoError(t, s.PersistErr())
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	kv := NewFlakyKV()
	s := newTestStore(t, kv)

	kv.setFailSet(true)
	created, err := s.Create(ctx, task.Draft{Text: "offline"})
	require.NoError(t, err, "persistence failures are not surfaced")

	_, ok := s.Get(created.ID)
	assert.True(t, ok, "in-memory state is authoritative")

	var pe *PersistenceError
	require.ErrorAs(t, s.PersistErr(), &pe)
	assert.True(t, errors.Is(pe, errDiskFull))
	_, stored, _ := kv.MemoryKV.Get(ctx, KeyTasks)
	assert.False(t, stored)

	kv.setFailSet(false)
	_, err = s.ToggleDone(ctx, created.ID)
	require.NoError(t, err)
	assert.NoError(t, s.PersistErr())

	reopened := newTestStore(t, kv.MemoryKV)
	got, ok := reopened.Get(created.ID)
	require.True(t, ok, "divergence healed on next write")
	assert.True(t, got.Done)
}

func TestOpenReadFailure(t *testing.T) {
	kv := NewFlakyKV()
	kv.FailGet = true
	s := newTestStore(t, kv)
	assert.Equal(t, 0, s.Len())
	assert.Error(t, s.PersistErr())
}

func TestResetMarker(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := newTestStore(t, kv)

	_, ok, err := s.LastReset(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	s.MarkReset(ctx, Marker{Week: 15, Year: 2026})
	m, ok, err := s.LastReset(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Marker{Week: 15, Year: 2026}, m)

	raw, _, _ := kv.Get(ctx, KeyLastResetWeek)
	assert.Equal(t, "15", raw, "week stored as a plain integer")
}

func TestResetMarkerLegacyWeekOnly(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyLastResetWeek, "42"))
	s := newTestStore(t, kv)

	m, ok, err := s.LastReset(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Marker{Week: 42}, m)

	require.NoError(t, kv.Set(ctx, KeyLastResetWeek, "forty-two"))
	_, ok, err = s.LastReset(ctx)
	assert.NoError(t, err)
	assert.False(t, ok, "malformed marker reads as absent")
}

func TestLastResetReadFailureIsNotAbsent(t *testing.T) {
	ctx := context.Background()
	kv := NewFlakyKV()
	s := newTestStore(t, kv)
	s.MarkReset(ctx, Marker{Week: 15, Year: 2026})

	kv.setGetFunc(func(ctx context.Context, key string) (string, bool, error) {
		if key == KeyLastResetWeek {
			return "", false, errDiskFull
		}
		return kv.MemoryKV.Get(ctx, key)
	})
	_, ok, err := s.LastReset(ctx)
	assert.False(t, ok)
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "read", pe.Op)
	assert.ErrorIs(t, err, errDiskFull)
}

func TestMarkResetPartialFailureKeepsOldMarker(t *testing.T) {
	ctx := context.Background()
	kv := NewFlakyKV()
	s := newTestStore(t, kv)
	s.MarkReset(ctx, Marker{Week: 52, Year: 2025})

	kv.SetFunc = func(ctx context.Context, key, value string) error {
		if key == KeyLastResetWeek {
			return errDiskFull
		}
		return kv.MemoryKV.Set(ctx, key, value)
	}
	s.MarkReset(ctx, Marker{Week: 1, Year: 2026})
	assert.ErrorIs(t, s.PersistErr(), errDiskFull)

	m, ok, err := s.LastReset(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Marker{Week: 52, Year: 2025}, m, "year restored when the week write fails")
}

func TestUnreadableStorageIsNeverOverwritten(t *testing.T) {
	ctx := context.Background()
	kv := NewFlakyKV()
	stored := `[{"id":"1","text":"Gym","detail":"","once":false,"day":0,"done":true},` +
		`{"id":"2","text":"Dentist","detail":"","once":true,"day":2,"done":false}]`
	require.NoError(t, kv.MemoryKV.Set(ctx, KeyTasks, stored))

	kv.setGetFunc(func(context.Context, string) (string, bool, error) { return "", false, errDiskFull })
	s := newTestStore(t, kv)
	require.Equal(t, 0, s.Len())

	_, err := s.ResetWeekly(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, err, errDiskFull)

	_, err = s.Create(ctx, task.Draft{Text: "Read"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.DeleteAll(ctx), "delete all sees only the unsaved task")
	var pe *PersistenceError
	require.ErrorAs(t, s.PersistErr(), &pe)

	raw, _, _ := kv.MemoryKV.Get(ctx, KeyTasks)
	assert.Equal(t, stored, raw, "snapshot untouched while unreadable")
	assert.Equal(t, 0, kv.SetCalls)

	// Storage comes back: the next operation loads the real list first.
	kv.setGetFunc(nil)
	sum, err := s.ResetWeekly(ctx)
	require.NoError(t, err)
	assert.Equal(t, task.ResetSummary{Removed: 1, Cleared: 1, Kept: 1}, sum)
	assert.NoError(t, s.PersistErr())

	list := s.Tasks()
	require.Len(t, list, 1)
	assert.Equal(t, "Gym", list[0].Text)
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	a := newTestStore(t, kv)
	b := newTestStore(t, kv)

	created, err := a.Create(ctx, task.Draft{Text: "from a"})
	require.NoError(t, err)
	_, ok := b.Get(created.ID)
	assert.False(t, ok)

	require.NoError(t, b.Reload(ctx))
	_, ok = b.Get(created.ID)
	assert.True(t, ok)

	require.NoError(t, kv.Set(ctx, KeyTasks, "garbage"))
	assert.Error(t, b.Reload(ctx))
	assert.Equal(t, 1, b.Len(), "failed reload keeps current list")
}

func TestForDayAndStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryKV())
	late := task.Clock{Hour: 20}
	early := task.Clock{Hour: 6}
	s.Create(ctx, task.Draft{Text: "late", Day: task.Monday, Time: &late})
	s.Create(ctx, task.Draft{Text: "early", Day: task.Monday, Time: &early})
	s.Create(ctx, task.Draft{Text: "other", Day: task.Friday, Once: true})

	mon := s.ForDay(task.Monday)
	require.Len(t, mon, 2)
	assert.Equal(t, "early", mon[0].Text)

	week := s.Week()
	assert.Len(t, week[task.Friday], 1)

	st := s.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Once)
}
