package task

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a time of day with second precision.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// NewClock validates raw picker values.
func NewClock(hour, minute, second int) (Clock, error) {
	c := Clock{Hour: hour, Minute: minute, Second: second}
	if err := c.Validate(); err != nil {
		return Clock{}, err
	}
	return c, nil
}

// ParseClock accepts HH:MM:SS or HH:MM. Components need not be zero padded.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, fmt.Errorf("time %q: want HH:MM or HH:MM:SS", s)
	}
	vals := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Clock{}, fmt.Errorf("time %q: %q is not a number", s, p)
		}
		vals[i] = n
	}
	return NewClock(vals[0], vals[1], vals[2])
}

// Validate checks hour in [0,23] and minute/second in [0,59].
func (c Clock) Validate() error {
	switch {
	case c.Hour < 0 || c.Hour > 23:
		return &ValidationError{Field: "time", Reason: fmt.Sprintf("hour %d out of range 0-23", c.Hour)}
	case c.Minute < 0 || c.Minute > 59:
		return &ValidationError{Field: "time", Reason: fmt.Sprintf("minute %d out of range 0-59", c.Minute)}
	case c.Second < 0 || c.Second > 59:
		return &ValidationError{Field: "time", Reason: fmt.Sprintf("second %d out of range 0-59", c.Second)}
	}
	return nil
}

// String is the persisted HH:MM:SS form.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// IsZero reports 00:00:00.
func (c Clock) IsZero() bool {
	return c == Clock{}
}

// Seconds since midnight.
func (c Clock) Seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

// Human renders the clock the way the board shows it: "2 hours 5 minutes",
// "45 seconds", and "--" for midnight.
func (c Clock) Human() string {
	var parts []string
	if c.Hour > 0 {
		parts = append(parts, plural(c.Hour, "hour"), plural(c.Minute, "minute"))
		if c.Second > 0 {
			parts = append(parts, plural(c.Second, "second"))
		}
		return strings.Join(parts, " ")
	}
	if c.Minute > 0 {
		parts = append(parts, plural(c.Minute, "minute"))
		if c.Second > 0 {
			parts = append(parts, plural(c.Second, "second"))
		}
		return strings.Join(parts, " ")
	}
	if c.Second > 0 {
		return plural(c.Second, "second")
	}
	return "--"
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
