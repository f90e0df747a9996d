package ui

import (
	"fmt"
	"strings"

	"weekly/internal/task"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// formField identifies the focused form row.
type formField int

const (
	fieldTitle formField = iota
	fieldDetail
	fieldTime
	fieldDay
	fieldOnce
	fieldCount
)

// FormModel edits the raw fields of one task.
type FormModel struct {
	title  textinput.Model
	detail textinput.Model
	clock  textinput.Model
	day    task.Day
	once   bool

	focus   formField
	editing bool // false = new task
	err     string

	keys   formKeyMap
	styles Styles
}

// NewForm returns an empty form for a new task on day.
func NewForm(styles Styles, day task.Day) FormModel {
	title := textinput.New()
	title.Placeholder = "What needs doing?"
	title.CharLimit = 120
	title.Width = 40

	detail := textinput.New()
	detail.Placeholder = "Optional detail"
	detail.CharLimit = 240
	detail.Width = 40

	clock := textinput.New()
	clock.Placeholder = "HH:MM or HH:MM:SS"
	clock.CharLimit = 8
	clock.Width = 10

	f := FormModel{
		title:  title,
		detail: detail,
		clock:  clock,
		day:    day,
		keys:   defaultFormKeyMap(),
		styles: styles,
	}
	f.setFocus(fieldTitle)
	return f
}

// EditForm returns a form pre-filled from t.
func EditForm(styles Styles, t task.Task) FormModel {
	f := NewForm(styles, t.Day)
	f.editing = true
	f.title.SetValue(t.Text)
	f.detail.SetValue(t.Detail)
	if c, ok := t.Clock(); ok {
		f.clock.SetValue(c.String())
	}
	f.once = t.Once
	return f
}

func (f *FormModel) setFocus(field formField) {
	f.focus = (field + fieldCount) % fieldCount
	f.title.Blur()
	f.detail.Blur()
	f.clock.Blur()
	switch f.focus {
	case fieldTitle:
		f.title.Focus()
	case fieldDetail:
		f.detail.Focus()
	case fieldTime:
		f.clock.Focus()
	}
}

// Draft converts the form into a task draft. Time must parse when set.
func (f FormModel) Draft() (task.Draft, error) {
	d := task.Draft{
		Text:   f.title.Value(),
		Detail: f.detail.Value(),
		Day:    f.day,
		Once:   f.once,
	}
	if raw := strings.TrimSpace(f.clock.Value()); raw != "" {
		c, err := task.ParseClock(raw)
		if err != nil {
			return task.Draft{}, err
		}
		d.Time = &c
	}
	return d, d.Validate()
}

// formSubmitMsg and formCancelMsg leave the form.
type formSubmitMsg struct{ draft task.Draft }
type formCancelMsg struct{}

// Update handles form input. Save returns a formSubmitMsg command only when
// the draft is valid; otherwise the error stays on the form.
func (f FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return f.updateInputs(msg)
	}

	switch {
	case key.Matches(km, f.keys.Cancel):
		return f, func() tea.Msg { return formCancelMsg{} }
	case key.Matches(km, f.keys.Save):
		d, err := f.Draft()
		if err != nil {
			f.err = err.Error()
			return f, nil
		}
		f.err = ""
		return f, func() tea.Msg { return formSubmitMsg{draft: d} }
	case key.Matches(km, f.keys.Next):
		f.setFocus(f.focus + 1)
		return f, nil
	case key.Matches(km, f.keys.Prev):
		f.setFocus(f.focus - 1)
		return f, nil
	}

	switch f.focus {
	case fieldDay:
		switch {
		case key.Matches(km, f.keys.Left):
			f.day = f.day.Prev()
		case key.Matches(km, f.keys.Right):
			f.day = f.day.Next()
		}
		return f, nil
	case fieldOnce:
		if key.Matches(km, f.keys.Toggle, f.keys.Left, f.keys.Right) {
			f.once = !f.once
		}
		return f, nil
	}
	return f.updateInputs(msg)
}

func (f FormModel) updateInputs(msg tea.Msg) (FormModel, tea.Cmd) {
	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDetail:
		f.detail, cmd = f.detail.Update(msg)
	case fieldTime:
		f.clock, cmd = f.clock.Update(msg)
	}
	return f, cmd
}

// View renders the form panel.
func (f FormModel) View() string {
	var b strings.Builder
	heading := "New task"
	if f.editing {
		heading = "Edit task"
	}
	b.WriteString(f.styles.Title.Render(heading) + "\n\n")

	row := func(field formField, label, value string) {
		marker := "  "
		if f.focus == field {
			marker = f.styles.Success.Render("> ")
		}
		b.WriteString(marker + f.styles.Label.Render(label) + " " + value + "\n")
	}
	row(fieldTitle, "Title", f.title.View())
	row(fieldDetail, "Detail", f.detail.View())
	row(fieldTime, "Time", f.clock.View())
	row(fieldDay, "Day", fmt.Sprintf("‹ %s ›", f.day))
	once := "[ ] weekly"
	if f.once {
		once = "[x] once"
	}
	row(fieldOnce, "Repeat", once)

	if f.err != "" {
		b.WriteString("\n" + f.styles.Error.Render(f.err) + "\n")
	}
	return f.styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
}
