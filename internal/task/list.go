package task

import (
	"sort"
)

// List is a task collection. Transforms never modify the receiver; each returns
// a fresh slice so the caller can persist the result as one snapshot.
type List []Task

// Clone returns an independent copy.
func (l List) Clone() List {
	if l == nil {
		return List{}
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Index returns the position of id, or -1.
func (l List) Index(id string) int {
	for i, t := range l {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the task with id.
func (l List) Find(id string) (Task, bool) {
	if i := l.Index(id); i >= 0 {
		return l[i], true
	}
	return Task{}, false
}

// Add appends t.
func (l List) Add(t Task) List {
	out := make(List, 0, len(l)+1)
	out = append(out, l...)
	return append(out, t)
}

// Replace applies d to the task with id. ok is false when id is absent.
func (l List) Replace(id string, d Draft) (List, Task, bool) {
	i := l.Index(id)
	if i < 0 {
		return l, Task{}, false
	}
	out := l.Clone()
	out[i] = d.Apply(out[i])
	return out, out[i], true
}

// Toggle flips Done on the task with id.
func (l List) Toggle(id string) (List, Task, bool) {
	i := l.Index(id)
	if i < 0 {
		return l, Task{}, false
	}
	out := l.Clone()
	out[i].Done = !out[i].Done
	return out, out[i], true
}

// Remove drops the task with id.
func (l List) Remove(id string) (List, Task, bool) {
	i := l.Index(id)
	if i < 0 {
		return l, Task{}, false
	}
	removed := l[i]
	out := make(List, 0, len(l)-1)
	out = append(out, l[:i]...)
	out = append(out, l[i+1:]...)
	return out, removed, true
}

// ResetSummary reports what a weekly reset changed.
type ResetSummary struct {
	Removed int // once tasks dropped
	Cleared int // recurring tasks whose done flag went true -> false
	Kept    int
}

// Changed reports whether the reset altered anything.
func (s ResetSummary) Changed() bool {
	return s.Removed > 0 || s.Cleared > 0
}

// ResetWeekly drops every once task and marks the rest undone.
// Applying it twice yields the same list as applying it once.
func (l List) ResetWeekly() (List, ResetSummary) {
	var sum ResetSummary
	out := make(List, 0, len(l))
	for _, t := range l {
		if t.Once {
			sum.Removed++
			continue
		}
		if t.Done {
			sum.Cleared++
			t.Done = false
		}
		out = append(out, t)
	}
	sum.Kept = len(out)
	return out, sum
}

// ForDay returns the tasks on d ordered by scheduled time; tasks without a
// time come first, ties keep insertion order.
func (l List) ForDay(d Day) List {
	out := List{}
	for _, t := range l {
		if t.Day == d {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i]) < sortKey(out[j])
	})
	return out
}

func sortKey(t Task) int {
	c, ok := t.Clock()
	if !ok {
		return -1
	}
	return c.Seconds()
}

// Week groups the list by day, Monday first.
func (l List) Week() [7]List {
	var week [7]List
	for _, d := range Days {
		week[d] = l.ForDay(d)
	}
	return week
}

// Stats summarizes a collection.
type Stats struct {
	Total int
	Done  int
	Once  int
	ByDay [7]int
}

// Stats counts tasks by state and day.
func (l List) Stats() Stats {
	var s Stats
	for _, t := range l {
		s.Total++
		if t.Done {
			s.Done++
		}
		if t.Once {
			s.Once++
		}
		if t.Day.Valid() {
			s.ByDay[t.Day]++
		}
	}
	return s
}
