package model

import (
	"fmt"
	"strings"
	"time"
)

// Window selects how many days ahead of now bound a task list.
type Window int

const (
	Today    Window = 0
	Tomorrow Window = 1
	Week     Window = 7
	Month    Window = 30
)

// Windows lists every window in display order.
var Windows = []Window{Today, Tomorrow, Week, Month}

// Days returns the look-ahead in days.
func (w Window) Days() int {
	return int(w)
}

func (w Window) IsValid() bool {
	switch w {
	case Today, Tomorrow, Week, Month:
		return true
	default:
		return false
	}
}

// String returns the key used for the window in persisted state and flags.
func (w Window) String() string {
	switch w {
	case Today:
		return "today"
	case Tomorrow:
		return "tomorrow"
	case Week:
		return "week"
	case Month:
		return "month"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

// Title is the heading shown above the window's list.
func (w Window) Title() string {
	switch w {
	case Today:
		return "Today"
	case Tomorrow:
		return "Tomorrow"
	case Week:
		return "This week"
	case Month:
		return "This month"
	default:
		return w.String()
	}
}

// MaxDate returns the inclusive upper bound for the window: the last second
// of the day that lies Days() after now, in now's location.
func (w Window) MaxDate(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+w.Days(), 23, 59, 59, 0, now.Location())
}

// DefaultEstimate is the estimate date proposed when adding a task to the
// window: the window's last day, at the current time of day.
func (w Window) DefaultEstimate(now time.Time) time.Time {
	return now.AddDate(0, 0, w.Days())
}

// ParseWindow accepts a window name ("today", "week", ...) or its day count.
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today", "0":
		return Today, nil
	case "tomorrow", "1":
		return Tomorrow, nil
	case "week", "7":
		return Week, nil
	case "month", "30":
		return Month, nil
	default:
		return 0, fmt.Errorf("%w: unknown window %q", ErrValidation, s)
	}
}
