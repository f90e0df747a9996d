package system

import (
	"errors"

	"weekly/internal/logging"
)

// Close releases the storage handle and flushes log files.
//
// Open SQLite handles keep TempDir cleanup from succeeding on Windows, so tests
// must always Close.
func (a *App) Close() error {
	if a == nil {
		return nil
	}

	var errs []error
	if a.KV != nil {
		if err := a.KV.Close(); err != nil {
			errs = append(errs, err)
		}
		a.KV = nil
	}
	logging.CloseAll()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
