package tasklist

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/tasks/pkg/model"
)

// Board holds one independent controller per window.
type Board struct {
	windows     []model.Window
	controllers map[model.Window]*Controller
}

// NewBoard builds a controller for each window in model.Windows. All of them
// share repo and prefs but no state.
func NewBoard(repo Repository, prefs Preferences, opts ...Option) *Board {
	b := &Board{
		windows:     append([]model.Window(nil), model.Windows...),
		controllers: make(map[model.Window]*Controller, len(model.Windows)),
	}
	for _, w := range b.windows {
		b.controllers[w] = New(w, repo, prefs, opts...)
	}
	return b
}

// Windows returns the windows in display order.
func (b *Board) Windows() []model.Window {
	return append([]model.Window(nil), b.windows...)
}

// Controller returns the controller of w.
func (b *Board) Controller(w model.Window) (*Controller, error) {
	c, ok := b.controllers[w]
	if !ok {
		return nil, fmt.Errorf("%w: unknown window %d", model.ErrValidation, int(w))
	}
	return c, nil
}

// Activate activates the controller of w.
func (b *Board) Activate(ctx context.Context, w model.Window) (ViewState, error) {
	c, err := b.Controller(w)
	if err != nil {
		return ViewState{}, err
	}
	err = c.Activate(ctx)
	return c.Snapshot(), err
}
