package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrisonrobin/tasks/pkg/model"
	"github.com/harrisonrobin/tasks/pkg/tasklist"
)

// stateMsg carries a window's state after an operation finished.
type stateMsg struct {
	window model.Window
	state  tasklist.ViewState
	action string
	err    error
}

// run executes op against the controller of w off the update loop and
// reports the resulting snapshot.
func run(c *tasklist.Controller, action string, op func(*tasklist.Controller) error) tea.Cmd {
	return func() tea.Msg {
		err := op(c)
		return stateMsg{window: c.Window(), state: c.Snapshot(), action: action, err: err}
	}
}

func activateCmd(ctx context.Context, c *tasklist.Controller) tea.Cmd {
	return run(c, "loaded", func(c *tasklist.Controller) error {
		return c.Activate(ctx)
	})
}

func reloadCmd(ctx context.Context, c *tasklist.Controller) tea.Cmd {
	return run(c, "reloaded", func(c *tasklist.Controller) error {
		return c.Reload(ctx)
	})
}

func toggleCmd(ctx context.Context, c *tasklist.Controller, id model.ID) tea.Cmd {
	return run(c, "updated", func(c *tasklist.Controller) error {
		return c.Toggle(ctx, id)
	})
}

func deleteCmd(ctx context.Context, c *tasklist.Controller, id model.ID) tea.Cmd {
	return run(c, "deleted", func(c *tasklist.Controller) error {
		return c.Delete(ctx, id)
	})
}

func addCmd(ctx context.Context, c *tasklist.Controller, desc string, estimateAt time.Time) tea.Cmd {
	return run(c, "added", func(c *tasklist.Controller) error {
		return c.Add(ctx, desc, estimateAt)
	})
}

func filterCmd(ctx context.Context, c *tasklist.Controller) tea.Cmd {
	return run(c, "filter changed", func(c *tasklist.Controller) error {
		c.ToggleFilter(ctx)
		return nil
	})
}
