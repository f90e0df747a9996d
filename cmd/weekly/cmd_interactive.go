package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"weekly/cmd/weekly/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runInteractive opens the board. It has no --timeout: the session lasts
// until the user quits.
func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, timeout)
	app, err := bootApp(bootCtx)
	cancel()
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Debug("Opening board", zap.String("storage", app.StoragePath()))
	return ui.Run(ctx, app)
}
