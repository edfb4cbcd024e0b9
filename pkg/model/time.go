package model

import (
	"fmt"
	"strings"
	"time"
)

// Time is a timestamp as exchanged with the task service. The service is not
// consistent about layouts, so decoding accepts any of timeLayouts.
type Time struct {
	time.Time
}

// QueryLayout is the layout of the upper date bound sent to GET /tasks.
const QueryLayout = "2006-01-02 15:04:05"

var timeLayouts = []string{
	time.RFC3339Nano,
	QueryLayout,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses s with the first matching layout. Layouts without a zone
// are read in local time.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised time %q", ErrParse, s)
}

// UnmarshalJSON implements the json.Unmarshaler interface for Time.
func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Time.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + t.Time.Format(time.RFC3339Nano) + `"`), nil
}

// NewTime wraps t. A nil result is returned for the zero time so that it can
// be used directly for DoneAt.
func NewTime(t time.Time) *Time {
	if t.IsZero() {
		return nil
	}
	return &Time{Time: t}
}
