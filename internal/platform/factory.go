package platform

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/corkboard/pkg/adapters/fs"
	"github.com/aretw0/corkboard/pkg/board"
	"github.com/aretw0/corkboard/pkg/config"
	"github.com/aretw0/corkboard/pkg/core"
	"github.com/aretw0/corkboard/pkg/persist"
)

// App is a fully wired board with its stores.
type App struct {
	Board  *board.Board
	Bridge *persist.Bridge
	Local  core.LocalStore
	Remote core.RemoteStore

	config  config.Config
	logger  *slog.Logger
	watched *fs.Store
}

// New opens the stores named by cfg and assembles a board over them.
//
//	app, err := platform.New(ctx, cfg, platform.WithLogger(logger))
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	local := o.local
	if local == nil {
		sandbox := o.devSafety && IsDevRun()
		resolved := ResolvePath(cfg.Store.Path, sandbox)
		if resolved != cfg.Store.Path {
			logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", cfg.Store.Path, "resolved_path", resolved)
			cfg.Store.Path = resolved
		}
		var err error
		if local, err = OpenLocal(cfg, logger); err != nil {
			return nil, err
		}
	}

	rs := o.remote
	if rs == nil {
		var err error
		if rs, err = OpenRemote(ctx, cfg); err != nil {
			_ = local.Close()
			return nil, err
		}
	}

	bridgeOpts := []persist.Option{persist.WithLogger(logger)}
	if rs != nil {
		bridgeOpts = append(bridgeOpts, persist.WithRemote(rs))
	}
	bridge := persist.NewBridge(local, bridgeOpts...)

	boardOpts := []board.Option{
		board.WithLogger(logger),
		board.WithDevice(o.device),
		board.WithExtractor(o.extractor),
		board.WithPollInterval(cfg.Board.PollInterval.Std()),
		board.WithZoomRange(cfg.Board.MinZoom, cfg.Board.MaxZoom),
		board.WithViewport(cfg.Board.Width, cfg.Board.Height),
	}
	if up, ok := rs.(core.AudioUploader); ok {
		boardOpts = append(boardOpts, board.WithUploader(up))
	}
	if o.notifier != nil {
		boardOpts = append(boardOpts, board.WithNotifier(o.notifier))
	}
	boardOpts = append(boardOpts, o.boardOpts...)

	app := &App{
		Board:  board.New(bridge, boardOpts...),
		Bridge: bridge,
		Local:  local,
		Remote: rs,
		config: cfg,
		logger: logger,
	}
	if fsStore, ok := local.(*fs.Store); ok && cfg.Store.Watch {
		app.watched = fsStore
	}
	return app, nil
}

// Run loads the board and keeps it in sync until ctx is done. With a
// watched fs store, external edits trigger an immediate poll.
func (a *App) Run(ctx context.Context) error {
	if a.watched != nil {
		sup := supervisor.New("corkboard", supervisor.StrategyOneForOne, a.watchSpec())
		if err := sup.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := sup.Stop(stopCtx); err != nil {
				a.logger.Warn("failed to stop watcher", "error", err)
			}
		}()
	}

	a.Board.Nudge()
	return a.Board.Run(ctx)
}

func (a *App) watchSpec() supervisor.Spec {
	return supervisor.Spec{
		Name: "fs-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return fs.NewWatchWorker(a.watched, func(e core.Event) {
				a.logger.Debug("external change", "event", e.String())
				a.Board.Nudge()
			}), nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2,
			ResetDuration:   time.Minute,
			MaxRestarts:     5,
			MaxDuration:     time.Minute,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}
}

// Close flushes the board, waits for remote mirrors and closes the stores.
func (a *App) Close(ctx context.Context) error {
	err := a.Board.Close(ctx)
	a.Bridge.Wait()
	if c, ok := a.Remote.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return errors.Join(err, a.Local.Close())
}

// Config returns the effective configuration, after sandbox resolution.
func (a *App) Config() config.Config { return a.config }
