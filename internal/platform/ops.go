package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/corkboard/pkg/adapters/bolt"
	"github.com/aretw0/corkboard/pkg/adapters/couch"
	"github.com/aretw0/corkboard/pkg/adapters/fs"
	"github.com/aretw0/corkboard/pkg/adapters/remote"
	"github.com/aretw0/corkboard/pkg/config"
	"github.com/aretw0/corkboard/pkg/core"
	"github.com/aretw0/corkboard/pkg/server"
)

// OpenLocal opens the configured local store.
func OpenLocal(cfg config.Config, logger *slog.Logger) (core.LocalStore, error) {
	switch cfg.Store.Adapter {
	case config.StoreFS:
		return fs.NewStore(fs.Config{
			Path:   cfg.Store.Path,
			Logger: logger,
			ErrorHandler: func(err error) {
				if logger != nil {
					logger.Error("watcher failure", "error", err)
				}
			},
		}), nil
	case config.StoreBolt:
		return bolt.Open(cfg.Store.Path, cfg.Store.LockTimeout.Std())
	default:
		return nil, fmt.Errorf("unknown store adapter: %s", cfg.Store.Adapter)
	}
}

// OpenRemote opens the configured remote store. It returns nil when no
// remote is configured.
func OpenRemote(ctx context.Context, cfg config.Config) (core.RemoteStore, error) {
	switch cfg.Remote.Kind {
	case "":
		return nil, nil
	case config.RemoteHTTP:
		return remote.New(cfg.Remote.URL, remote.WithHTTPClient(&http.Client{
			Timeout: cfg.Remote.Timeout.Std(),
		})), nil
	case config.RemoteCouch:
		ctx, cancel := context.WithTimeout(ctx, cfg.Remote.Timeout.Std())
		defer cancel()
		return couch.Open(ctx, cfg.Remote.URL, cfg.Remote.Database)
	default:
		return nil, fmt.Errorf("unknown remote kind: %s", cfg.Remote.Kind)
	}
}

// Push copies the local snapshot to the remote as lite records. It returns
// the number of notes pushed.
func Push(ctx context.Context, local core.LocalStore, rs core.RemoteStore) (int, error) {
	if rs == nil {
		return 0, fmt.Errorf("no remote configured: %w", core.ErrInvalidRequest)
	}
	records, err := local.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := rs.Push(ctx, core.LiteSnapshot(records)); err != nil {
		return 0, err
	}
	return len(records), nil
}

// NewServer builds the sync server over local.
func NewServer(cfg config.Config, local core.LocalStore, logger *slog.Logger) *server.Server {
	return server.New(local, cfg.Server.MusicDir,
		server.WithLogger(logger),
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	)
}
