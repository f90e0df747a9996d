package task

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTitle is matched by the ValidationError returned for a blank title.
var ErrEmptyTitle = errors.New("task title is empty")

// ValidationError rejects a save before anything is mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrEmptyTitle) match a blank-title failure.
func (e *ValidationError) Is(target error) bool {
	return target == ErrEmptyTitle && e.Field == "text" && e.Reason == ErrEmptyTitle.Error()
}

// Draft carries the raw form fields for create and update.
type Draft struct {
	Text   string
	Detail string
	Day    Day
	Once   bool
	Time   *Clock // nil = no scheduled time
}

// DraftOf returns the editable fields of an existing task, as the edit form
// is pre-filled.
func DraftOf(t Task) Draft {
	d := Draft{Text: t.Text, Detail: t.Detail, Day: t.Day, Once: t.Once}
	if c, ok := t.Clock(); ok {
		d.Time = &c
	}
	return d
}

// Validate rejects a blank title, a day outside [0,6] and an out-of-range time.
// Text is checked trimmed but stored verbatim.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Text) == "" {
		return &ValidationError{Field: "text", Reason: ErrEmptyTitle.Error()}
	}
	if !d.Day.Valid() {
		return &ValidationError{Field: "day", Reason: fmt.Sprintf("%d out of range 0-6", int(d.Day))}
	}
	if d.Time != nil {
		if err := d.Time.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// timeString is the normalized HH:MM:SS value, or "" when unset.
func (d Draft) timeString() string {
	if d.Time == nil {
		return ""
	}
	return d.Time.String()
}

// Apply copies the draft onto t, leaving ID and Done untouched.
func (d Draft) Apply(t Task) Task {
	t.Text = d.Text
	t.Detail = d.Detail
	t.Day = d.Day
	t.Once = d.Once
	t.Time = d.timeString()
	return t
}

// NewTask builds an undone task from a validated draft.
func (d Draft) NewTask(id string) Task {
	return d.Apply(Task{ID: id})
}
