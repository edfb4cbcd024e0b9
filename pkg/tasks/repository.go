// Package tasks is the client-side task repository: it validates input and
// forwards reads and mutations to the remote service.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harrisonrobin/tasks/pkg/logging"
	"github.com/harrisonrobin/tasks/pkg/model"
)

// Remote is the task half of the service API. *api.Client implements it.
type Remote interface {
	ListTasks(ctx context.Context, maxDate time.Time) ([]model.Task, error)
	CreateTask(ctx context.Context, desc string, estimateAt time.Time) error
	ToggleTask(ctx context.Context, id model.ID) error
	DeleteTask(ctx context.Context, id model.ID) error
}

// Repository never patches anything locally; callers reload after each
// mutation.
type Repository struct {
	remote Remote
	log    *zap.SugaredLogger
}

func NewRepository(remote Remote, log *zap.SugaredLogger) *Repository {
	return &Repository{remote: remote, log: logging.OrNop(log)}
}

// List returns the tasks with an estimate at or before maxDate.
func (r *Repository) List(ctx context.Context, maxDate time.Time) ([]model.Task, error) {
	tasks, err := r.remote.ListTasks(ctx, maxDate)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Create adds a task. Blank descriptions fail with model.ErrValidation
// without contacting the service.
func (r *Repository) Create(ctx context.Context, desc string, estimateAt time.Time) error {
	if err := model.ValidateDesc(desc); err != nil {
		return err
	}
	if estimateAt.IsZero() {
		return fmt.Errorf("%w: estimate date is required", model.ErrValidation)
	}
	if err := r.remote.CreateTask(ctx, desc, estimateAt); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	r.log.Infow("task created", "desc", desc, "estimateAt", estimateAt)
	return nil
}

// Toggle flips a task between pending and done.
func (r *Repository) Toggle(ctx context.Context, id model.ID) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := r.remote.ToggleTask(ctx, id); err != nil {
		return fmt.Errorf("toggle task %s: %w", id, err)
	}
	r.log.Infow("task toggled", "id", id)
	return nil
}

// Delete removes a task. A missing task fails with model.ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id model.ID) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := r.remote.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	r.log.Infow("task deleted", "id", id)
	return nil
}

func validateID(id model.ID) error {
	if strings.TrimSpace(id.String()) == "" {
		return fmt.Errorf("%w: task id is required", model.ErrValidation)
	}
	return nil
}
