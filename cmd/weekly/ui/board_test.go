package ui

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"weekly/internal/store"
	"weekly/internal/task"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wednesday is 2026-04-08, ISO week 15.
var wednesday = time.Date(2026, 4, 8, 10, 0, 0, 0, time.Local)

func newBoard(t *testing.T) (Model, *store.TaskStore) {
	t.Helper()
	n := 0
	s, err := store.OpenTaskStore(context.Background(), store.NewMemoryKV(), store.WithIDGenerator(func() string {
		n++
		return "t" + strconv.Itoa(n)
	}))
	require.NoError(t, err)
	m := New(context.Background(), s, Options{
		Theme:     "light",
		HumanTime: true,
		Week:      15,
		Now:       func() time.Time { return wednesday },
	})
	return m, s
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press feeds keys to the board. Form save/cancel commands are run so their
// messages reach the board, as the runtime would do.
func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		wasForm := m.mode == modeForm
		next, cmd := m.Update(keyMsg(k))
		m = next.(Model)
		if wasForm && cmd != nil && (k == "enter" || k == "esc") {
			next, _ = m.Update(cmd())
			m = next.(Model)
		}
	}
	return m
}

// typeText sends each rune of s as its own key press.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func TestBoard_StartsOnToday(t *testing.T) {
	m, _ := newBoard(t)
	assert.Equal(t, task.Wednesday, m.day)

	m = press(t, m, "left")
	assert.Equal(t, task.Tuesday, m.day)
	m = press(t, m, "h", "h", "h")
	assert.Equal(t, task.Saturday, m.day, "day picker wraps")
	m = press(t, m, "t")
	assert.Equal(t, task.Wednesday, m.day)
	m = press(t, m, "l")
	assert.Equal(t, task.Thursday, m.day)
}

func TestBoard_AddTask(t *testing.T) {
	m, s := newBoard(t)

	m = press(t, m, "a")
	require.Equal(t, modeForm, m.mode)
	m = typeText(t, m, "Gym")
	m = press(t, m, "tab", "tab")
	m = typeText(t, m, "7:30")
	m = press(t, m, "enter")

	assert.Equal(t, modeBrowse, m.mode)
	list := s.Tasks()
	require.Len(t, list, 1)
	assert.Equal(t, "Gym", list[0].Text)
	assert.Equal(t, task.Wednesday, list[0].Day)
	assert.Equal(t, "07:30:00", list[0].Time)
	assert.False(t, list[0].Done)
	assert.Equal(t, "Added: Gym", m.status)
	assert.Contains(t, m.View(), "Gym")
}

func TestBoard_AddRejectsEmptyTitle(t *testing.T) {
	m, s := newBoard(t)

	m = press(t, m, "a")
	m = typeText(t, m, "   ")
	m = press(t, m, "enter")

	assert.Equal(t, modeForm, m.mode, "form stays open to re-prompt")
	assert.NotEmpty(t, m.form.err)
	assert.Zero(t, s.Len())

	m = press(t, m, "esc")
	assert.Equal(t, modeBrowse, m.mode)
	assert.Zero(t, s.Len())
}

func TestBoard_ToggleDone(t *testing.T) {
	m, s := newBoard(t)
	ctx := context.Background()
	created, err := s.Create(ctx, task.Draft{Text: "Read", Day: task.Wednesday})
	require.NoError(t, err)

	m = press(t, m, "space")
	got, _ := s.Get(created.ID)
	assert.True(t, got.Done)
	assert.Equal(t, "Done: Read", m.status)

	m = press(t, m, "enter")
	got, _ = s.Get(created.ID)
	assert.False(t, got.Done)

	// Empty day: nothing to toggle.
	m = press(t, m, "right", "space")
	assert.Equal(t, task.Thursday, m.day)
}

func TestBoard_EditKeepsDone(t *testing.T) {
	m, s := newBoard(t)
	ctx := context.Background()
	created, err := s.Create(ctx, task.Draft{Text: "Swim", Detail: "pool", Day: task.Wednesday})
	require.NoError(t, err)
	_, err = s.ToggleDone(ctx, created.ID)
	require.NoError(t, err)

	m = press(t, m, "e")
	require.Equal(t, modeForm, m.mode)
	assert.Equal(t, "Swim", m.form.title.Value())
	assert.Equal(t, "pool", m.form.detail.Value())

	// title -> detail -> time -> day
	m = press(t, m, "tab", "tab", "tab", "right", "tab", "space", "enter")

	got, ok := s.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, task.Thursday, got.Day)
	assert.True(t, got.Once)
	assert.True(t, got.Done, "edit leaves done untouched")
	assert.Equal(t, task.Thursday, m.day, "board follows the edited task")
}

func TestBoard_EditVanishedTask(t *testing.T) {
	m, s := newBoard(t)
	ctx := context.Background()
	created, err := s.Create(ctx, task.Draft{Text: "Swim", Day: task.Wednesday})
	require.NoError(t, err)

	m = press(t, m, "e")
	require.NoError(t, s.Delete(ctx, created.ID))
	m = press(t, m, "enter")

	assert.Equal(t, modeBrowse, m.mode)
	assert.True(t, m.statusErr)
	assert.Zero(t, s.Len(), "no task is resurrected")
}

func TestBoard_DeleteConfirm(t *testing.T) {
	m, s := newBoard(t)
	ctx := context.Background()
	_, err := s.Create(ctx, task.Draft{Text: "Call", Day: task.Wednesday})
	require.NoError(t, err)

	m = press(t, m, "d")
	require.Equal(t, modeConfirm, m.mode)
	assert.Contains(t, m.View(), `Delete "Call"?`)
	m = press(t, m, "n")
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, 1, s.Len())

	m = press(t, m, "d", "y")
	assert.Zero(t, s.Len())
	assert.Equal(t, "Deleted: Call", m.status)
}

func TestBoard_ResetWeek(t *testing.T) {
	m, s := newBoard(t)
	ctx := context.Background()
	gym, err := s.Create(ctx, task.Draft{Text: "Gym", Day: task.Monday})
	require.NoError(t, err)
	_, err = s.ToggleDone(ctx, gym.ID)
	require.NoError(t, err)
	_, err = s.Create(ctx, task.Draft{Text: "Call", Day: task.Monday, Once: true})
	require.NoError(t, err)

	m = press(t, m, "R", "y")
	assert.Equal(t, "Week reset: 1 removed, 1 undone", m.status)
	list := s.Tasks()
	require.Len(t, list, 1)
	assert.False(t, list[0].Done)
}

func TestBoard_DeleteAll(t *testing.T) {
	m, s := newBoard(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, err := s.Create(ctx, task.Draft{Text: title, Day: task.Wednesday})
		require.NoError(t, err)
	}

	m = press(t, m, "D", "esc")
	assert.Equal(t, 3, s.Len())

	m = press(t, m, "j", "j", "D", "y")
	assert.Zero(t, s.Len())
	assert.Zero(t, m.cursor)
}

func TestBoard_ReloadClampsCursor(t *testing.T) {
	m, s := newBoard(t)
	ctx := context.Background()
	_, err := s.Create(ctx, task.Draft{Text: "one", Day: task.Wednesday})
	require.NoError(t, err)
	second, err := s.Create(ctx, task.Draft{Text: "two", Day: task.Wednesday})
	require.NoError(t, err)

	m = press(t, m, "j")
	require.Equal(t, 1, m.cursor)

	require.NoError(t, s.Delete(ctx, second.ID))
	next, _ := m.Update(ReloadMsg{})
	m = next.(Model)
	assert.Equal(t, 0, m.cursor)
}

func TestBoard_CursorBounds(t *testing.T) {
	m, s := newBoard(t)
	ctx := context.Background()
	_, err := s.Create(ctx, task.Draft{Text: "only", Day: task.Wednesday})
	require.NoError(t, err)

	m = press(t, m, "k", "up")
	assert.Equal(t, 0, m.cursor)
	m = press(t, m, "j", "down")
	assert.Equal(t, 0, m.cursor)
}

func TestBoard_Quit(t *testing.T) {
	m, _ := newBoard(t)
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestBoard_HelpToggle(t *testing.T) {
	m, _ := newBoard(t)
	short := m.View()
	m = press(t, m, "?")
	assert.True(t, m.help.ShowAll)
	full := m.View()
	assert.Contains(t, full, "delete all")
	assert.NotContains(t, short, "delete all")
}

func TestBoard_ViewShowsWeekAndTimes(t *testing.T) {
	m, s := newBoard(t)
	ctx := context.Background()
	c := task.Clock{Hour: 2}
	_, err := s.Create(ctx, task.Draft{Text: "Nap", Day: task.Wednesday, Time: &c, Once: true})
	require.NoError(t, err)

	view := m.View()
	assert.Contains(t, view, "week 15")
	assert.Contains(t, view, "Wednesday (today)")
	assert.Contains(t, view, "2 hours 0 minutes")
	assert.Contains(t, view, "once")

	m.human = false
	assert.Contains(t, m.View(), "02:00:00")
}

func TestBoard_EmptyDayHint(t *testing.T) {
	m, _ := newBoard(t)
	assert.True(t, strings.Contains(m.View(), "No tasks"))
}

func TestRun_NilApp(t *testing.T) {
	assert.ErrorIs(t, Run(context.Background(), nil), errNoStore)
}
