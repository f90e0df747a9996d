// Package reset applies the weekly reset once per launch when the ISO week
// has changed since the last recorded reset.
package reset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"weekly/internal/logging"
	"weekly/internal/store"
	"weekly/internal/task"
)

// State of a Controller.
type State int

const (
	Unchecked State = iota
	Checked
)

func (s State) String() string {
	if s == Checked {
		return "checked"
	}
	return "unchecked"
}

// ErrSkipped is returned by Check when storage could not tell whether the
// reset is due. The controller stays unchecked and nothing is changed.
var ErrSkipped = errors.New("weekly reset skipped")

// Store is the part of the task store the controller needs.
type Store interface {
	LastReset(ctx context.Context) (store.Marker, bool, error)
	MarkReset(ctx context.Context, m store.Marker)
	ResetWeekly(ctx context.Context) (task.ResetSummary, error)
}

// Result describes the outcome of a check.
type Result struct {
	Now      store.Marker
	Previous store.Marker
	// HadMarker is false on a first run.
	HadMarker bool
	Applied   bool
	Summary   task.ResetSummary
}

func (r Result) String() string {
	if !r.Applied {
		return fmt.Sprintf("week %d/%d: no reset", r.Now.Week, r.Now.Year)
	}
	return fmt.Sprintf("week %d/%d: reset (removed %d, cleared %d)",
		r.Now.Week, r.Now.Year, r.Summary.Removed, r.Summary.Cleared)
}

// Controller decides whether the weekly reset is due.
type Controller struct {
	mu     sync.Mutex
	store  Store
	now    func() time.Time
	state  State
	result Result
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New returns an unchecked controller over s.
func New(s Store, opts ...Option) *Controller {
	c := &Controller{store: s, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentWeek returns the ISO-8601 week of t in t's location.
func CurrentWeek(t time.Time) store.Marker {
	year, week := t.ISOWeek()
	return store.Marker{Week: week, Year: year}
}

// Due reports whether a reset is needed at now given the stored marker.
// A marker without a year only compares week numbers.
func Due(prev store.Marker, ok bool, now store.Marker) bool {
	if !ok {
		return true
	}
	if prev.Week != now.Week {
		return true
	}
	return prev.Year != 0 && prev.Year != now.Year
}

// Check runs the reset decision. Only the first successful call does any
// work; later calls return the cached result. A marker that cannot be read, or
// a task list that was not loaded, yields ErrSkipped and leaves the week as is.
func (c *Controller) Check(ctx context.Context) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Checked {
		return c.result, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	timer := logging.StartTimer(logging.CategoryReset, "Check")
	defer timer.Stop()

	now := CurrentWeek(c.now().Local())
	prev, ok, err := c.store.LastReset(ctx)
	if err != nil {
		logging.Get(logging.CategoryReset).Warn("Marker unreadable, not resetting: %v", err)
		return Result{Now: now}, fmt.Errorf("%w: %w", ErrSkipped, err)
	}
	res := Result{Now: now, Previous: prev, HadMarker: ok}

	if Due(prev, ok, now) {
		if ok {
			logging.Reset("Week changed %d/%d -> %d/%d, resetting", prev.Week, prev.Year, now.Week, now.Year)
		} else {
			logging.Reset("No reset recorded, resetting for week %d/%d", now.Week, now.Year)
		}
		sum, err := c.store.ResetWeekly(ctx)
		if err != nil {
			logging.Get(logging.CategoryReset).Warn("Reset not applied: %v", err)
			return Result{Now: now, Previous: prev, HadMarker: ok}, fmt.Errorf("%w: %w", ErrSkipped, err)
		}
		res.Summary = sum
		c.store.MarkReset(ctx, now)
		res.Applied = true
	} else {
		logging.ResetDebug("Week %d/%d already reset", now.Week, now.Year)
	}

	c.state = Checked
	c.result = res
	return res, nil
}

// State returns whether Check has run.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
