package main

import (
	"errors"
	"fmt"
	"strings"

	"weekly/internal/task"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	taskDetail string
	taskDay    string
	taskOnce   bool
	taskTime   string
	editTitle  string
	editNoTime bool
	confirmYes bool
)

// addCmd creates a task
var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task",
	Long: `Adds a task to a day of the week. The day defaults to today.

Examples:
  weekly add Gym --day mon --time 07:30
  weekly add "Call the bank" --once --detail "about the card"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

// editCmd updates a task; unset flags keep the current values
var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var doneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Toggle a task done/undone",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

var rmCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every task",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the week now: drop one-off tasks and mark the rest undone",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVar(&taskDetail, "detail", "", "Free-text detail")
		c.Flags().StringVar(&taskDay, "day", "", "Day of week (mon..sun, full name or 0-6)")
		c.Flags().BoolVar(&taskOnce, "once", false, "One-off task, removed at the next weekly reset")
		c.Flags().StringVar(&taskTime, "time", "", "Time of day HH:MM or HH:MM:SS")
	}
	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().BoolVar(&editNoTime, "no-time", false, "Clear the time of day")

	clearCmd.Flags().BoolVar(&confirmYes, "yes", false, "Confirm deleting all tasks")
	resetCmd.Flags().BoolVar(&confirmYes, "yes", false, "Confirm the reset")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	d := task.Draft{Text: joinArgs(args), Detail: taskDetail, Once: taskOnce, Day: task.DayOf(nowFunc())}
	if taskDay != "" {
		day, err := task.ParseDay(taskDay)
		if err != nil {
			return err
		}
		d.Day = day
	}
	if taskTime != "" {
		c, err := task.ParseClock(taskTime)
		if err != nil {
			return err
		}
		d.Time = &c
	}
	if err := d.Validate(); err != nil {
		return err
	}

	app, err := bootApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	t, err := app.Store.Create(ctx, d)
	if err != nil {
		return err
	}
	logger.Info("Task created", zap.String("id", t.ID), zap.String("day", t.Day.String()))
	fmt.Printf("Added %s  %s  %s\n", shortID(t.ID), t.Day, t.Text)
	warnPersist(app)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	app, err := bootApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := resolveID(app.Store, args[0])
	if err != nil {
		return err
	}
	current, _ := app.Store.Get(id)
	d := task.DraftOf(current)

	flags := cmd.Flags()
	if flags.Changed("title") {
		d.Text = editTitle
	}
	if flags.Changed("detail") {
		d.Detail = taskDetail
	}
	if flags.Changed("once") {
		d.Once = taskOnce
	}
	if flags.Changed("day") {
		day, err := task.ParseDay(taskDay)
		if err != nil {
			return err
		}
		d.Day = day
	}
	if flags.Changed("time") {
		c, err := task.ParseClock(taskTime)
		if err != nil {
			return err
		}
		d.Time = &c
	}
	if editNoTime {
		d.Time = nil
	}

	t, err := app.Store.Update(ctx, id, d)
	if err != nil {
		return err
	}
	logger.Info("Task updated", zap.String("id", t.ID))
	fmt.Printf("Updated %s  %s  %s\n", shortID(t.ID), t.Day, t.Text)
	warnPersist(app)
	return nil
}

func runDone(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	app, err := bootApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := resolveID(app.Store, args[0])
	if err != nil {
		return err
	}
	t, err := app.Store.ToggleDone(ctx, id)
	if err != nil {
		return err
	}
	state := "undone"
	if t.Done {
		state = "done"
	}
	fmt.Printf("Marked %s %s: %s\n", shortID(t.ID), state, t.Text)
	warnPersist(app)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	app, err := bootApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := resolveID(app.Store, args[0])
	if err != nil {
		return err
	}
	t, _ := app.Store.Get(id)
	if err := app.Store.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s: %s\n", shortID(id), t.Text)
	warnPersist(app)
	return nil
}

var errNotConfirmed = errors.New("refusing without --yes")

func runClear(cmd *cobra.Command, args []string) error {
	if !confirmYes {
		return fmt.Errorf("clear deletes every task; %w", errNotConfirmed)
	}
	ctx, cancel := commandContext()
	defer cancel()

	app, err := bootApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	n := app.Store.DeleteAll(ctx)
	fmt.Printf("Deleted %d %s.\n", n, plural(n, "task"))
	warnPersist(app)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !confirmYes {
		return fmt.Errorf("reset drops one-off tasks; %w", errNotConfirmed)
	}
	ctx, cancel := commandContext()
	defer cancel()

	app, err := bootApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	sum, err := app.Store.ResetWeekly(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Reset: %d one-off %s removed, %d %s marked undone, %d kept.\n",
		sum.Removed, plural(sum.Removed, "task"), sum.Cleared, plural(sum.Cleared, "task"), sum.Kept)
	warnPersist(app)
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	if strings.HasSuffix(word, "s") {
		return word + "es"
	}
	return word + "s"
}
