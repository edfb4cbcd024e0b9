package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harrisonrobin/tasks/pkg/api"
	"github.com/harrisonrobin/tasks/pkg/auth"
	"github.com/harrisonrobin/tasks/pkg/config"
	"github.com/harrisonrobin/tasks/pkg/kv"
	"github.com/harrisonrobin/tasks/pkg/logging"
	"github.com/harrisonrobin/tasks/pkg/model"
	"github.com/harrisonrobin/tasks/pkg/prefs"
	"github.com/harrisonrobin/tasks/pkg/tasklist"
	"github.com/harrisonrobin/tasks/pkg/tasks"
)

// app is everything a command needs, built from the config.
type app struct {
	cfg   *config.Config
	log   *zap.SugaredLogger
	store kv.Store
	auth  *auth.Service
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.server != "" {
		cfg.Server = opts.server
	}

	log, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: opts.verbose,
	})
	if err != nil {
		return nil, err
	}

	store, err := kv.Open(cfg.Store, cfg.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}

	client, err := api.NewClient(cfg.Server,
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(log),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:   cfg,
		log:   log,
		store: store,
		auth:  auth.NewService(client, auth.NewStore(store, log), log),
	}, nil
}

// board restores the session and builds the per-window controllers.
func (a *app) board(ctx context.Context) (*tasklist.Board, model.Session, error) {
	client, sess, err := a.auth.Restore(ctx)
	if err != nil {
		return nil, model.Session{}, err
	}
	repo := tasks.NewRepository(client, a.log)
	return tasklist.NewBoard(repo, prefs.NewStore(a.store, a.log), tasklist.WithLogger(a.log)), sess, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warnw("could not close local state", "error", err)
	}
	_ = a.log.Sync()
}

// withApp runs fn with a freshly built app and closes it afterwards.
func withApp(opts *rootOptions, fn func(*app) error) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
