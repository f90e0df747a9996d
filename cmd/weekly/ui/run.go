package ui

import (
	"context"
	"errors"

	"weekly/internal/logging"
	"weekly/internal/system"
	"weekly/internal/watch"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// errNoStore is returned by Run when it is handed no store.
var errNoStore = errors.New("ui: nil task store")

// Run opens the board for app and blocks until the user quits. When the
// storage lives on disk and ui.watch_store is set, writes from other weekly
// processes are reloaded into the open board.
func Run(ctx context.Context, app *system.App) error {
	if app == nil || app.Store == nil {
		return errNoStore
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := New(ctx, app.Store, Options{
		Theme:     app.Config.UI.Theme,
		HumanTime: app.Config.UI.TimeDisplay != "clock",
		Week:      app.ResetResult.Now.Week,
	})
	if app.ResetResult.Applied && app.ResetResult.HadMarker {
		model.setStatus("New week: %d one-off tasks removed, %d marked undone",
			app.ResetResult.Summary.Removed, app.ResetResult.Summary.Cleared)
	}
	if app.ResetErr != nil {
		model.setError(app.ResetErr)
	}
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)

	if path := app.StoragePath(); path != "" && app.Config.UI.WatchStore {
		w, err := watch.New(path, func(ctx context.Context) {
			if err := app.Store.Reload(ctx); err != nil {
				return
			}
			p.Send(ReloadMsg{})
		})
		if err != nil {
			logging.Get(logging.CategoryUI).Warn("Storage watcher unavailable: %v", err)
		} else {
			g.Go(func() error {
				if err := w.Start(gctx); err != nil {
					logging.Get(logging.CategoryUI).Warn("Storage watcher failed to start: %v", err)
					w.Stop()
					return nil
				}
				<-gctx.Done()
				w.Stop()
				return nil
			})
		}
	}

	g.Go(func() error {
		defer cancel()
		logging.UI("Board opened on %s", model.day)
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	err := g.Wait()
	logging.UI("Board closed")
	return err
}
