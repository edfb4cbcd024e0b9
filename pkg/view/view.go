// Package view derives what the task list shows from the fetched collection.
// Everything here is pure.
package view

import (
	"fmt"
	"math"
	"time"

	"github.com/harrisonrobin/tasks/pkg/model"
)

const (
	DonePrefix    = "✓"
	OverduePrefix = "!"
)

// Filter returns the visible subset of tasks. With showDone every task is
// kept; otherwise only pending tasks are, in their original order. The
// result never shares its backing array with tasks.
func Filter(tasks []model.Task, showDone bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if showDone || !t.Done() {
			out = append(out, t)
		}
	}
	return out
}

// Overdue returns the pending tasks whose estimate has passed.
func Overdue(tasks []model.Task, now time.Time) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.Overdue(now) {
			out = append(out, t)
		}
	}
	return out
}

// Label is the one-line text of a task: its description, prefixed with a
// check mark when done or an exclamation mark when overdue.
func Label(t model.Task, now time.Time) string {
	prefix := ""
	if t.Done() {
		prefix = DonePrefix
	} else if t.Overdue(now) {
		prefix = OverduePrefix
	}
	if prefix == "" {
		return t.Desc
	}
	return fmt.Sprintf("%s %s", prefix, t.Desc)
}

// When describes the estimate (or completion) date of a task relative to now.
func When(t model.Task, now time.Time) string {
	if t.Done() {
		return "done " + day(t.DoneAt.Time, now)
	}
	if t.EstimateAt.IsZero() {
		return ""
	}
	return day(t.EstimateAt.Time, now)
}

func day(at, now time.Time) string {
	loc := now.Location()
	at = at.In(loc)
	y, m, d := now.Date()
	ay, am, ad := at.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	that := time.Date(ay, am, ad, 0, 0, 0, 0, loc)
	switch int(math.Round(that.Sub(today).Hours() / 24)) {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case -1:
		return "yesterday"
	}
	return at.Format("Mon, Jan 2")
}
