// Package prefs persists the per-window "show completed tasks" flag.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/harrisonrobin/tasks/pkg/kv"
	"github.com/harrisonrobin/tasks/pkg/logging"
	"github.com/harrisonrobin/tasks/pkg/model"
)

// DefaultShowDone applies when nothing usable is stored.
const DefaultShowDone = true

const keyPrefix = "tasksState:"

type state struct {
	ShowDoneTasks *bool `json:"showDoneTasks"`
}

// Store reads and writes view preferences.
type Store struct {
	kv  kv.Store
	log *zap.SugaredLogger
}

func NewStore(s kv.Store, log *zap.SugaredLogger) *Store {
	return &Store{kv: s, log: logging.OrNop(log)}
}

// Key returns the storage key of a window's preference.
func Key(w model.Window) string {
	return keyPrefix + w.String()
}

func (s *Store) Save(ctx context.Context, w model.Window, showDone bool) error {
	b, err := json.Marshal(state{ShowDoneTasks: &showDone})
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, Key(w), string(b)); err != nil {
		return fmt.Errorf("save %s preference: %w", w, err)
	}
	return nil
}

// Load returns the stored flag, or DefaultShowDone when the value is
// missing, unreadable or the backend fails.
func (s *Store) Load(ctx context.Context, w model.Window) bool {
	raw, ok, err := s.kv.Get(ctx, Key(w))
	if err != nil {
		s.log.Warnw("could not read preference", "window", w.String(), "error", err)
		return DefaultShowDone
	}
	if !ok {
		return DefaultShowDone
	}

	var st state
	if err := json.Unmarshal([]byte(raw), &st); err != nil || st.ShowDoneTasks == nil {
		s.log.Warnw("ignoring unreadable preference", "window", w.String(), "value", raw)
		return DefaultShowDone
	}
	return *st.ShowDoneTasks
}
