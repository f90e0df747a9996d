// Package system wires config, logging, storage and the weekly reset into a
// ready App. CLI commands and the board boot through the same path.
package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"weekly/internal/config"
	"weekly/internal/logging"
	"weekly/internal/reset"
	"weekly/internal/store"
)

// App is a fully initialized weekly instance.
type App struct {
	Home        string
	Config      *config.Config
	KV          store.KV
	Store       *store.TaskStore
	Reset       *reset.Controller
	ResetResult reset.Result
	// ResetErr is set when storage could not decide the weekly reset.
	ResetErr error
}

// BootConfig holds boot inputs. Overrides are for tests.
type BootConfig struct {
	Home string
	// ConfigPath defaults to <home>/config.yaml.
	ConfigPath string

	ConfigOverride *config.Config
	KVOverride     store.KV
	ClockOverride  func() time.Time
	IDGenerator    func() string
}

// Boot initializes weekly for home.
func Boot(ctx context.Context, home string) (*App, error) {
	return BootWithConfig(ctx, BootConfig{Home: home})
}

// BootWithConfig loads config, starts logging, opens storage and runs the
// launch-time reset check. Tasks are fully loaded before the check runs.
func BootWithConfig(ctx context.Context, bc BootConfig) (*App, error) {
	home := bc.Home
	if home == "" {
		home = config.DefaultHome()
	}

	cfg := bc.ConfigOverride
	if cfg == nil {
		path := bc.ConfigPath
		if path == "" {
			path = config.DefaultPath(home)
		}
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Initialize(filepath.Join(home, "logs"), logging.Config{
		DebugMode:  cfg.Logging.DebugMode,
		Level:      cfg.Logging.Level,
		JSONFormat: cfg.Logging.Format == "json",
		Categories: cfg.Logging.Categories,
	}); err != nil {
		// Non-fatal: the app works without log files
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	timer := logging.StartTimer(logging.CategoryBoot, "Boot")
	defer timer.StopWithThreshold(500 * time.Millisecond)

	kv := bc.KVOverride
	if kv == nil {
		var err error
		kv, err = store.OpenKV(cfg.Storage.Driver, cfg.StoragePath(home))
		if err != nil {
			logging.Get(logging.CategoryBoot).Error("Failed to open %s storage: %v", cfg.Storage.Driver, err)
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, cfg.GetStorageTimeout())
	defer cancel()

	var opts []store.Option
	if bc.IDGenerator != nil {
		opts = append(opts, store.WithIDGenerator(bc.IDGenerator))
	}
	ts, err := store.OpenTaskStore(opCtx, kv, opts...)
	if err != nil {
		kv.Close()
		return nil, err
	}

	var resetOpts []reset.Option
	if bc.ClockOverride != nil {
		resetOpts = append(resetOpts, reset.WithClock(bc.ClockOverride))
	}
	ctrl := reset.New(ts, resetOpts...)
	res, resetErr := ctrl.Check(opCtx)
	if resetErr != nil && !errors.Is(resetErr, reset.ErrSkipped) {
		kv.Close()
		return nil, fmt.Errorf("weekly reset check: %w", resetErr)
	}
	if resetErr != nil {
		logging.BootWarn("Continuing without weekly reset: %v", resetErr)
	}
	logging.Boot("Booted with %d tasks (%s)", ts.Len(), res)

	return &App{
		Home:        home,
		Config:      cfg,
		KV:          kv,
		Store:       ts,
		Reset:       ctrl,
		ResetResult: res,
		ResetErr:    resetErr,
	}, nil
}

// StoragePath returns the on-disk location of the backend, or "" for memory.
func (a *App) StoragePath() string {
	if l, ok := a.KV.(store.Located); ok {
		return l.Path()
	}
	return ""
}
