package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"weekly/internal/config"
	"weekly/internal/logging"
	"weekly/internal/store"
	"weekly/internal/system"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	home       string
	configPath string
	ephemeral  bool
	timeout    time.Duration

	// Logger
	logger *zap.Logger

	// nowFunc picks today's day for new tasks
	nowFunc = time.Now
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "weekly",
	Short: "weekly - a recurring weekly task list",
	Long: `weekly keeps a list of tasks pinned to days of the week.

Recurring tasks come back undone every ISO week (Monday 00:00 local time);
one-off tasks are dropped at the same moment. The reset runs when weekly is
launched, at most once per week.

Run without arguments to open the interactive board.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&home, "home", "H", "", "Data directory (default: $WEEKLY_HOME or ~/.weekly)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <home>/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep tasks in memory only")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveHome returns the --home flag or the default data directory.
func resolveHome() string {
	if home != "" {
		return home
	}
	return config.DefaultHome()
}

// commandContext returns a context bounded by --timeout that is also cancelled
// on SIGINT/SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancel()
	}
}

// bootApp boots weekly with the global flags applied.
func bootApp(ctx context.Context) (*system.App, error) {
	bc := system.BootConfig{Home: resolveHome(), ConfigPath: configPath}
	if ephemeral {
		path := configPath
		if path == "" {
			path = config.DefaultPath(bc.Home)
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg.Storage.Driver = store.DriverMemory
		bc.ConfigOverride = cfg
	}

	app, err := system.BootWithConfig(ctx, bc)
	if err != nil {
		return nil, err
	}
	logging.CLI("weekly %s (driver=%s, tasks=%d)", joinArgs(os.Args[1:]), app.Config.Storage.Driver, app.Store.Len())
	logger.Debug("Booted",
		zap.String("home", app.Home),
		zap.String("driver", app.Config.Storage.Driver),
		zap.Int("tasks", app.Store.Len()),
		zap.Bool("reset", app.ResetResult.Applied))
	// Notices go to stderr so stdout stays machine readable (list --json).
	if app.ResetResult.Applied && app.ResetResult.HadMarker {
		fmt.Fprintf(os.Stderr, "New week %d: %d one-off tasks removed, %d tasks marked undone.\n",
			app.ResetResult.Now.Week, app.ResetResult.Summary.Removed, app.ResetResult.Summary.Cleared)
	}
	if app.ResetErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", app.ResetErr)
	}
	return app, nil
}

// warnPersist prints a warning when the last write did not reach storage.
func warnPersist(app *system.App) {
	if err := app.Store.PersistErr(); err != nil {
		logger.Warn("Persistence failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Warning: changes were not saved: %v\n", err)
	}
}

// resolveID accepts a full id or a unique prefix of one.
func resolveID(ts *store.TaskStore, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("task id required")
	}
	if _, ok := ts.Get(arg); ok {
		return arg, nil
	}
	var match string
	for _, t := range ts.Tasks() {
		if strings.HasPrefix(t.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("task id %q is ambiguous", arg)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("task %s: %w", arg, store.ErrNotFound)
	}
	return match, nil
}

// shortID trims a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
