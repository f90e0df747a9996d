package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weekly/internal/logging"
	"weekly/internal/task"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TaskStore is the store surface the board drives.
type TaskStore interface {
	Create(ctx context.Context, d task.Draft) (task.Task, error)
	Update(ctx context.Context, id string, d task.Draft) (task.Task, error)
	ToggleDone(ctx context.Context, id string) (task.Task, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) int
	ResetWeekly(ctx context.Context) (task.ResetSummary, error)
	Get(id string) (task.Task, bool)
	ForDay(d task.Day) task.List
	Stats() task.Stats
	PersistErr() error
}

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeConfirm
)

type confirmAction int

const (
	confirmDelete confirmAction = iota
	confirmReset
	confirmDeleteAll
)

// ReloadMsg tells the board the store was reloaded from disk.
type ReloadMsg struct{}

// Options configures the board.
type Options struct {
	Theme     string // auto, light, dark
	HumanTime bool
	Week      int // ISO week shown in the header; 0 hides it
	Now       func() time.Time
}

// Model is the weekly board.
type Model struct {
	ctx    context.Context
	store  TaskStore
	styles Styles
	keys   keyMap
	help   help.Model

	day    task.Day
	today  task.Day
	cursor int
	week   int
	human  bool

	mode      mode
	form      FormModel
	editingID string
	confirm   confirmAction
	confirmID string

	status    string
	statusErr bool
	width     int
	height    int
}

// New builds a board that starts on today.
func New(ctx context.Context, store TaskStore, opts Options) Model {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	today := task.DayOf(now())
	return Model{
		ctx:    ctx,
		store:  store,
		styles: NewStyles(DetectTheme(opts.Theme)),
		keys:   defaultKeyMap(),
		help:   help.New(),
		day:    today,
		today:  today,
		week:   opts.Week,
		human:  opts.HumanTime,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// visible returns the focused day's tasks in display order.
func (m Model) visible() task.List {
	return m.store.ForDay(m.day)
}

// selected returns the task under the cursor.
func (m Model) selected() (task.Task, bool) {
	list := m.visible()
	if m.cursor < 0 || m.cursor >= len(list) {
		return task.Task{}, false
	}
	return list[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(format string, args ...interface{}) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
	if err := m.store.PersistErr(); err != nil {
		m.status = "Not saved: " + err.Error()
		m.statusErr = true
	}
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case ReloadMsg:
		m.clampCursor()
		logging.UIDebug("Board reloaded from storage")
		return m, nil

	case formCancelMsg:
		m.mode = modeBrowse
		m.status = ""
		return m, nil

	case formSubmitMsg:
		return m.submit(msg.draft), nil
	}

	switch m.mode {
	case modeForm:
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	case modeConfirm:
		if km, ok := msg.(tea.KeyMsg); ok {
			return m.updateConfirm(km)
		}
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		return m.updateBrowse(km)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.PrevDay):
		m.day = m.day.Prev()
		m.cursor = 0
	case key.Matches(msg, m.keys.NextDay):
		m.day = m.day.Next()
		m.cursor = 0
	case key.Matches(msg, m.keys.Today):
		m.day = m.today
		m.cursor = 0
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		updated, err := m.store.ToggleDone(m.ctx, t.ID)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		if updated.Done {
			m.setStatus("Done: %s", updated.Text)
		} else {
			m.setStatus("Undone: %s", updated.Text)
		}
	case key.Matches(msg, m.keys.Add):
		m.form = NewForm(m.styles, m.day)
		m.editingID = ""
		m.mode = modeForm
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.form = EditForm(m.styles, t)
		m.editingID = t.ID
		m.mode = modeForm
	case key.Matches(msg, m.keys.Delete):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirm = confirmDelete
		m.confirmID = t.ID
		m.mode = modeConfirm
	case key.Matches(msg, m.keys.Reset):
		m.confirm = confirmReset
		m.mode = modeConfirm
	case key.Matches(msg, m.keys.DeleteAll):
		m.confirm = confirmDeleteAll
		m.mode = modeConfirm
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
	case "ctrl+c":
		return m, tea.Quit
	default:
		m.mode = modeBrowse
		m.status = "Cancelled"
		m.statusErr = false
		return m, nil
	}

	m.mode = modeBrowse
	switch m.confirm {
	case confirmDelete:
		t, _ := m.store.Get(m.confirmID)
		if err := m.store.Delete(m.ctx, m.confirmID); err != nil {
			m.setError(err)
			break
		}
		m.setStatus("Deleted: %s", t.Text)
	case confirmReset:
		sum, err := m.store.ResetWeekly(m.ctx)
		if err != nil {
			m.setError(err)
			break
		}
		m.setStatus("Week reset: %d removed, %d undone", sum.Removed, sum.Cleared)
	case confirmDeleteAll:
		n := m.store.DeleteAll(m.ctx)
		m.setStatus("Deleted %d tasks", n)
	}
	m.confirmID = ""
	m.clampCursor()
	return m, nil
}

func (m Model) submit(d task.Draft) Model {
	if m.editingID == "" {
		t, err := m.store.Create(m.ctx, d)
		if err != nil {
			m.form.err = err.Error()
			return m
		}
		m.mode = modeBrowse
		m.day = t.Day
		m.cursor = m.visible().Index(t.ID)
		m.setStatus("Added: %s", t.Text)
		return m
	}

	t, err := m.store.Update(m.ctx, m.editingID, d)
	if err != nil {
		// The task vanished underneath us, e.g. another process deleted it
		m.mode = modeBrowse
		m.editingID = ""
		m.setError(err)
		m.clampCursor()
		return m
	}
	m.mode = modeBrowse
	m.editingID = ""
	m.day = t.Day
	m.cursor = m.visible().Index(t.ID)
	m.setStatus("Saved: %s", t.Text)
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	header := "weekly"
	if m.week > 0 {
		header = fmt.Sprintf("weekly · week %d", m.week)
	}
	stats := m.store.Stats()
	header += fmt.Sprintf(" · %d/%d done", stats.Done, stats.Total)
	b.WriteString(m.styles.Header.Render(header) + "\n\n")
	b.WriteString(m.renderDays(stats) + "\n\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.form.View() + "\n\n")
		b.WriteString(m.styles.Footer.Render(m.help.View(m.form.keys)))
		return b.String()
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	if m.mode == modeConfirm {
		b.WriteString(m.styles.Warning.Render(m.confirmPrompt()) + "\n")
	} else if m.status != "" {
		style := m.styles.Muted
		if m.statusErr {
			style = m.styles.Error
		}
		b.WriteString(style.Render(m.status) + "\n")
	}
	b.WriteString(m.styles.Footer.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderDays(stats task.Stats) string {
	cells := make([]string, 0, len(task.Days))
	for _, d := range task.Days {
		label := d.Short()
		if n := stats.ByDay[d]; n > 0 {
			label = fmt.Sprintf("%s %d", label, n)
		}
		switch {
		case d == m.day:
			cells = append(cells, m.styles.DayFocus.Render(label))
		case d == m.today:
			cells = append(cells, m.styles.DayToday.Render(label))
		default:
			cells = append(cells, m.styles.Day.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m Model) renderList() string {
	list := m.visible()
	title := m.day.String()
	if m.day == m.today {
		title += " (today)"
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(title) + "\n")
	if len(list) == 0 {
		b.WriteString(m.styles.Muted.Render("  No tasks. Press a to add one.") + "\n")
		return b.String()
	}
	for i, t := range list {
		b.WriteString(m.renderRow(t, i == m.cursor) + "\n")
		if t.Detail != "" && i == m.cursor {
			b.WriteString(m.styles.Detail.Render(t.Detail) + "\n")
		}
	}
	return b.String()
}

func (m Model) renderRow(t task.Task, focused bool) string {
	check := "[ ]"
	if t.Done {
		check = "[x]"
	}
	when := "--"
	if c, ok := t.Clock(); ok {
		if m.human {
			when = c.Human()
		} else {
			when = c.String()
		}
	}
	text := t.Text
	if t.Done {
		text = m.styles.RowDone.Render(text)
	}
	line := fmt.Sprintf("%s %s %s", check, m.styles.Time.Render(fmt.Sprintf("%-20s", when)), text)
	if t.Once {
		line += " " + m.styles.Badge.Render("once")
	}

	cursor := "  "
	style := m.styles.Row
	if focused {
		cursor = "> "
		style = m.styles.RowFocus
	}
	return cursor + style.Render(line)
}

func (m Model) confirmPrompt() string {
	switch m.confirm {
	case confirmDelete:
		t, _ := m.store.Get(m.confirmID)
		return fmt.Sprintf("Delete %q? (y/n)", t.Text)
	case confirmReset:
		return "Reset the week? One-off tasks are removed and all tasks marked undone. (y/n)"
	case confirmDeleteAll:
		return "Delete ALL tasks? (y/n)"
	}
	return ""
}
