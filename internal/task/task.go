// Package task defines the weekly task entity and the pure transforms the store
// applies to a task collection. Nothing in this package touches storage.
package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Task is the sole persisted entity. JSON names are the on-disk format.
type Task struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Detail string `json:"detail"`
	Once   bool   `json:"once"`
	Day    Day    `json:"day"`
	Done   bool   `json:"done"`
	Time   string `json:"time,omitempty"` // HH:MM:SS, zero padded
}

// Clock returns the parsed time of day, or false when the task has none.
func (t Task) Clock() (Clock, bool) {
	if t.Time == "" {
		return Clock{}, false
	}
	c, err := ParseClock(t.Time)
	if err != nil {
		return Clock{}, false
	}
	return c, true
}

// Kind is "once" or "weekly".
func (t Task) Kind() string {
	if t.Once {
		return "once"
	}
	return "weekly"
}

// Day is a day of week with Monday=0 ... Sunday=6.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Days lists the week in display order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Short returns the three letter name.
func (d Day) Short() string {
	if !d.Valid() {
		return "???"
	}
	return dayNames[d][:3]
}

// Valid reports whether d is in [0,6].
func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Next wraps Sunday to Monday.
func (d Day) Next() Day { return (d + 1) % 7 }

// Prev wraps Monday to Sunday.
func (d Day) Prev() Day { return (d + 6) % 7 }

// DayOf converts a time.Weekday (Sunday=0) to a Monday-first Day.
func DayOf(t time.Time) Day {
	return Day((int(t.Weekday()) + 6) % 7)
}

// ParseDay accepts an index ("0".."6"), a full name or any unambiguous prefix of
// at least three letters ("mon", "tues"), case-insensitive.
func ParseDay(s string) (Day, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty day")
	}
	if n, err := strconv.Atoi(s); err == nil {
		d := Day(n)
		if !d.Valid() {
			return 0, fmt.Errorf("day index %d out of range 0-6", n)
		}
		return d, nil
	}
	if len(s) >= 3 {
		for i, name := range dayNames {
			if strings.HasPrefix(strings.ToLower(name), s) {
				return Day(i), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}
