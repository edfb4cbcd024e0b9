// Package tasklist keeps the view state of one task window in sync with the
// remote collection.
package tasklist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harrisonrobin/tasks/pkg/logging"
	"github.com/harrisonrobin/tasks/pkg/model"
	"github.com/harrisonrobin/tasks/pkg/view"
)

// Phase is the loading state of a controller.
type Phase int

const (
	Uninitialized Phase = iota
	Loading
	Ready
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ViewState is what a window shows. VisibleTasks is always
// view.Filter(Tasks, ShowDoneTasks).
//
// Version increases with every change to the state, so of two snapshots of
// the same window the one with the higher Version is the newer.
type ViewState struct {
	Window        model.Window
	Tasks         []model.Task
	VisibleTasks  []model.Task
	ShowDoneTasks bool
	Phase         Phase
	Version       uint64
}

// Repository is the task source. *tasks.Repository implements it.
type Repository interface {
	List(ctx context.Context, maxDate time.Time) ([]model.Task, error)
	Create(ctx context.Context, desc string, estimateAt time.Time) error
	Toggle(ctx context.Context, id model.ID) error
	Delete(ctx context.Context, id model.ID) error
}

// Preferences stores the show-done flag per window. *prefs.Store
// implements it.
type Preferences interface {
	Load(ctx context.Context, w model.Window) bool
	Save(ctx context.Context, w model.Window, showDone bool) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now as the source of the reload bound.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Controller) {
		c.log = logging.OrNop(log)
	}
}

// Controller owns the state of a single window. Mutations go through the
// repository and are followed by a full reload; nothing is patched locally.
//
// Reloads may overlap. Each one takes a generation number when it starts and
// its result is committed only if no later reload has committed already.
type Controller struct {
	window model.Window
	repo   Repository
	prefs  Preferences
	now    func() time.Time
	log    *zap.SugaredLogger

	// saveMu orders preference writes so the stored flag ends up matching
	// the in-memory one.
	saveMu sync.Mutex

	mu        sync.Mutex
	state     ViewState
	loaded    bool
	busy      int
	issued    uint64
	committed uint64
}

func New(w model.Window, repo Repository, prefs Preferences, opts ...Option) *Controller {
	c := &Controller{
		window: w,
		repo:   repo,
		prefs:  prefs,
		now:    time.Now,
		log:    zap.NewNop().Sugar(),
		state: ViewState{
			Window:        w,
			Tasks:         []model.Task{},
			VisibleTasks:  []model.Task{},
			ShowDoneTasks: true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Window returns the window the controller serves.
func (c *Controller) Window() model.Window {
	return c.window
}

// Snapshot returns a copy of the current state that shares no memory with
// the controller.
func (c *Controller) Snapshot() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Tasks = cloneTasks(c.state.Tasks)
	s.VisibleTasks = cloneTasks(c.state.VisibleTasks)
	return s
}

// Activate restores the window's preference and loads its tasks. When the
// first load fails the window is left empty and uninitialized.
func (c *Controller) Activate(ctx context.Context) error {
	showDone := c.prefs.Load(ctx, c.window)

	c.mu.Lock()
	c.commitLocked(c.state.Tasks, showDone)
	c.mu.Unlock()

	if err := c.Reload(ctx); err != nil {
		return fmt.Errorf("activate %s: %w", c.window, err)
	}
	return nil
}

// ToggleFilter flips whether completed tasks are visible and stores the new
// preference. A failed save is logged; the flip stands.
func (c *Controller) ToggleFilter(ctx context.Context) {
	c.mu.Lock()
	c.commitLocked(c.state.Tasks, !c.state.ShowDoneTasks)
	c.mu.Unlock()

	c.saveFilter(ctx)
}

// saveFilter writes the flag as it is when the write starts, not as it was
// when the caller flipped it. Saves run one at a time, so the last one to
// finish carries the latest value.
func (c *Controller) saveFilter(ctx context.Context) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	showDone := c.state.ShowDoneTasks
	c.mu.Unlock()

	if err := c.prefs.Save(ctx, c.window, showDone); err != nil {
		c.log.Warnw("could not save preference",
			"window", c.window.String(),
			"showDoneTasks", showDone,
			"error", err,
		)
	}
}

// Reload fetches the tasks due by the end of the window's last day.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	gen := c.issued
	c.beginLocked()
	c.mu.Unlock()

	maxDate := c.window.MaxDate(c.now())
	tasks, err := c.repo.List(ctx, maxDate)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.endLocked()
	if err != nil {
		return err
	}
	if gen < c.committed {
		c.log.Debugw("dropping stale reload",
			"window", c.window.String(),
			"generation", gen,
			"committed", c.committed,
		)
		return nil
	}
	c.committed = gen
	c.loaded = true
	c.commitLocked(cloneTasks(tasks), c.state.ShowDoneTasks)
	c.log.Debugw("reloaded",
		"window", c.window.String(),
		"maxDate", maxDate.Format(model.QueryLayout),
		"tasks", len(tasks),
	)
	return nil
}

// Add creates a task and reloads.
func (c *Controller) Add(ctx context.Context, desc string, estimateAt time.Time) error {
	return c.mutate(ctx, func() error {
		return c.repo.Create(ctx, desc, estimateAt)
	})
}

// Toggle flips a task between pending and done and reloads.
func (c *Controller) Toggle(ctx context.Context, id model.ID) error {
	return c.mutate(ctx, func() error {
		return c.repo.Toggle(ctx, id)
	})
}

// Delete removes a task and reloads.
func (c *Controller) Delete(ctx context.Context, id model.ID) error {
	return c.mutate(ctx, func() error {
		return c.repo.Delete(ctx, id)
	})
}

func (c *Controller) mutate(ctx context.Context, fn func() error) error {
	c.mu.Lock()
	c.beginLocked()
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.endLocked()
		c.mu.Unlock()
	}()

	if err := fn(); err != nil {
		return err
	}
	return c.Reload(ctx)
}

func (c *Controller) beginLocked() {
	c.busy++
	c.state.Phase = Loading
	c.state.Version++
}

// endLocked settles the phase once no operation is in flight.
func (c *Controller) endLocked() {
	c.busy--
	if c.busy > 0 {
		return
	}
	if c.loaded {
		c.state.Phase = Ready
		c.state.Version++
		return
	}
	c.commitLocked([]model.Task{}, c.state.ShowDoneTasks)
	c.state.Phase = Uninitialized
}

// commitLocked replaces the canonical fields and derives the visible list in
// the same critical section.
func (c *Controller) commitLocked(tasks []model.Task, showDone bool) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.state.Tasks = tasks
	c.state.ShowDoneTasks = showDone
	c.state.VisibleTasks = view.Filter(tasks, showDone)
	c.state.Version++
}

func cloneTasks(in []model.Task) []model.Task {
	out := make([]model.Task, len(in))
	copy(out, in)
	for i := range out {
		if out[i].DoneAt != nil {
			d := *out[i].DoneAt
			out[i].DoneAt = &d
		}
	}
	return out
}
