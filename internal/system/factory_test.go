package system

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"weekly/internal/config"
	"weekly/internal/reset"
	"weekly/internal/store"
	"weekly/internal/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoot_DefaultsToSQLiteInHome(t *testing.T) {
	t.Setenv("WEEKLY_STORAGE_DRIVER", "")
	t.Setenv("WEEKLY_DB", "")
	home := t.TempDir()

	app, err := Boot(context.Background(), home)
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, filepath.Join(home, "weekly.db"), app.StoragePath())
	assert.True(t, app.ResetResult.Applied, "first launch always resets")
	assert.False(t, app.ResetResult.HadMarker)
	_, err = os.Stat(filepath.Join(home, "weekly.db"))
	assert.NoError(t, err)
}

func TestBootWithConfig_ResetOnNewWeek(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	cfg := config.DefaultConfig()
	cfg.Storage.Driver = "memory"

	monday := time.Date(2026, 4, 6, 9, 0, 0, 0, time.Local)
	app, err := BootWithConfig(ctx, BootConfig{
		Home:           t.TempDir(),
		ConfigOverride: cfg,
		KVOverride:     kv,
		ClockOverride:  func() time.Time { return monday },
	})
	require.NoError(t, err)

	gym, err := app.Store.Create(ctx, task.Draft{Text: "Gym", Day: task.Monday})
	require.NoError(t, err)
	_, err = app.Store.ToggleDone(ctx, gym.ID)
	require.NoError(t, err)
	_, err = app.Store.Create(ctx, task.Draft{Text: "Dentist", Day: task.Friday, Once: true})
	require.NoError(t, err)

	// Same week: nothing changes.
	again, err := BootWithConfig(ctx, BootConfig{
		Home:           t.TempDir(),
		ConfigOverride: cfg,
		KVOverride:     kv,
		ClockOverride:  func() time.Time { return monday.Add(72 * time.Hour) },
	})
	require.NoError(t, err)
	assert.False(t, again.ResetResult.Applied)
	assert.Equal(t, 2, again.Store.Len())

	// Next week: the once task is gone and Gym is undone.
	next, err := BootWithConfig(ctx, BootConfig{
		Home:           t.TempDir(),
		ConfigOverride: cfg,
		KVOverride:     kv,
		ClockOverride:  func() time.Time { return monday.AddDate(0, 0, 7) },
	})
	require.NoError(t, err)
	assert.True(t, next.ResetResult.Applied)

	list := next.Store.Tasks()
	require.Len(t, list, 1)
	assert.Equal(t, gym.ID, list[0].ID)
	assert.False(t, list[0].Done)
}

// lockedKV fails every read of lastResetWeek.
type lockedKV struct{ *store.MemoryKV }

func (l lockedKV) Get(ctx context.Context, key string) (string, bool, error) {
	if key == store.KeyLastResetWeek {
		return "", false, errors.New("database is locked")
	}
	return l.MemoryKV.Get(ctx, key)
}

func TestBootWithConfig_UnreadableMarkerStillBoots(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, store.KeyTasks,
		`[{"id":"1","text":"Dentist","detail":"","once":true,"day":4,"done":false}]`))
	cfg := config.DefaultConfig()
	cfg.Storage.Driver = "memory"

	app, err := BootWithConfig(ctx, BootConfig{
		Home:           t.TempDir(),
		ConfigOverride: cfg,
		KVOverride:     lockedKV{kv},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, app.ResetErr, reset.ErrSkipped)
	assert.False(t, app.ResetResult.Applied)
	assert.Equal(t, 1, app.Store.Len(), "once task kept")
}

func TestBootWithConfig_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Driver = "redis"
	_, err := BootWithConfig(context.Background(), BootConfig{Home: t.TempDir(), ConfigOverride: cfg})
	assert.Error(t, err)
}

func TestBoot_ReadsConfigFile(t *testing.T) {
	t.Setenv("WEEKLY_STORAGE_DRIVER", "")
	t.Setenv("WEEKLY_DB", "")
	home := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Storage.Driver = "file"
	cfg.Storage.Path = "tasks.json"
	require.NoError(t, cfg.Save(config.DefaultPath(home)))

	app, err := Boot(context.Background(), home)
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "file", app.Config.Storage.Driver)
	assert.Equal(t, filepath.Join(home, "tasks.json"), app.StoragePath())
}

func TestApp_CloseNil(t *testing.T) {
	var a *App
	assert.NoError(t, a.Close())
}
