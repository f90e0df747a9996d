package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"weekly/internal/reset"
	"weekly/internal/task"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	listDay  string
	listJSON bool
	weekRaw  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks for a day (default: today) or the whole week",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the whole week as a rendered summary",
	Args:  cobra.NoArgs,
	RunE:  runWeek,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current week, last reset and task counts",
	Args:  cobra.NoArgs,
	RunE:  showStatus,
}

func init() {
	listCmd.Flags().StringVar(&listDay, "day", "", "Day to list (mon..sun) or 'all'")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print tasks as JSON")
	weekCmd.Flags().BoolVar(&weekRaw, "raw", false, "Print markdown without rendering")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	all := strings.EqualFold(listDay, "all")
	day := task.DayOf(nowFunc())
	if listDay != "" && !all {
		d, err := task.ParseDay(listDay)
		if err != nil {
			return err
		}
		day = d
	}

	app, err := bootApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	human := app.Config.UI.TimeDisplay != "clock"
	if listJSON {
		list := app.Store.Tasks()
		if !all {
			list = app.Store.ForDay(day)
		}
		out, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if all {
		week := app.Store.Week()
		for _, d := range task.Days {
			printDay(d, week[d], human)
		}
		return nil
	}
	printDay(day, app.Store.ForDay(day), human)
	return nil
}

func printDay(d task.Day, list task.List, human bool) {
	fmt.Printf("%s (%d)\n", d, len(list))
	if len(list) == 0 {
		fmt.Println("  No tasks")
		return
	}
	for _, t := range list {
		fmt.Println("  " + formatTask(t, human))
	}
}

// formatTask renders one line: checkbox, short id, time, title, kind.
func formatTask(t task.Task, human bool) string {
	box := "[ ]"
	if t.Done {
		box = "[x]"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %-10s %s", box, shortID(t.ID), timeLabel(t, human), t.Text)
	if t.Once {
		b.WriteString("  (once)")
	}
	if t.Detail != "" {
		fmt.Fprintf(&b, "  - %s", t.Detail)
	}
	return b.String()
}

func timeLabel(t task.Task, human bool) string {
	c, ok := t.Clock()
	if !ok {
		return "--"
	}
	if human {
		return c.Human()
	}
	return c.String()
}

// weekMarkdown renders the week as a markdown document.
func weekMarkdown(week [7]task.List, today task.Day, human bool) string {
	var b strings.Builder
	b.WriteString("# This week\n\n")
	for _, d := range task.Days {
		list := week[d]
		done := 0
		for _, t := range list {
			if t.Done {
				done++
			}
		}
		title := d.String()
		if d == today {
			title += " (today)"
		}
		fmt.Fprintf(&b, "## %s - %d/%d done\n\n", title, done, len(list))
		if len(list) == 0 {
			b.WriteString("_No tasks_\n\n")
			continue
		}
		for _, t := range list {
			check := " "
			if t.Done {
				check = "x"
			}
			fmt.Fprintf(&b, "- [%s] **%s**", check, t.Text)
			if _, ok := t.Clock(); ok {
				fmt.Fprintf(&b, " at %s", timeLabel(t, human))
			}
			if t.Once {
				b.WriteString(" _(once)_")
			}
			if t.Detail != "" {
				fmt.Fprintf(&b, ": %s", t.Detail)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func runWeek(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	app, err := bootApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	md := weekMarkdown(app.Store.Week(), task.DayOf(nowFunc()), app.Config.UI.TimeDisplay != "clock")
	if weekRaw {
		fmt.Print(md)
		return nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	out, err := renderer.Render(md)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(out)
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	app, err := bootApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	now := reset.CurrentWeek(nowFunc().Local())
	fmt.Println("weekly Status")
	fmt.Println("=============")
	fmt.Printf("Home:         %s\n", app.Home)
	fmt.Printf("Storage:      %s", app.Config.Storage.Driver)
	if p := app.StoragePath(); p != "" {
		fmt.Printf(" (%s)", p)
	}
	fmt.Println()
	fmt.Printf("Current week: %d/%d\n", now.Week, now.Year)
	if m, ok, err := app.Store.LastReset(ctx); err != nil {
		fmt.Printf("Last reset:   unreadable (%v)\n", err)
	} else if ok {
		if m.Year > 0 {
			fmt.Printf("Last reset:   week %d/%d\n", m.Week, m.Year)
		} else {
			fmt.Printf("Last reset:   week %d\n", m.Week)
		}
	} else {
		fmt.Println("Last reset:   never")
	}

	stats := app.Store.Stats()
	fmt.Printf("Tasks:        %d (%d done, %d once)\n", stats.Total, stats.Done, stats.Once)
	for _, d := range task.Days {
		fmt.Printf("  %s  %d\n", d.Short(), stats.ByDay[d])
	}
	if err := app.Store.PersistErr(); err != nil {
		fmt.Printf("Storage error: %v\n", err)
	}
	return nil
}
