package model

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Task is a single entry of the remote collection. Tasks are read-only on
// the client: every change goes through the service and is observed on the
// next reload.
type Task struct {
	ID         ID     `json:"id"`
	Desc       string `json:"desc"`
	EstimateAt Time   `json:"estimateAt"`
	DoneAt     *Time  `json:"doneAt"`
}

// Done reports whether the task is completed.
func (t Task) Done() bool {
	return t.DoneAt != nil && !t.DoneAt.IsZero()
}

// Overdue reports whether a pending task's estimate lies before now.
func (t Task) Overdue(now time.Time) bool {
	return !t.Done() && !t.EstimateAt.IsZero() && t.EstimateAt.Before(now)
}

// ValidateDesc rejects empty and whitespace-only descriptions.
func ValidateDesc(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return fmt.Errorf("%w: task description is required", ErrValidation)
	}
	return nil
}

// DecodeTasks reads the JSON task array returned by the service. An empty
// body or a JSON null decode to an empty collection.
func DecodeTasks(r io.Reader) ([]Task, error) {
	var tasks []Task
	if err := json.NewDecoder(r).Decode(&tasks); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: decode tasks: %v", ErrParse, err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}
