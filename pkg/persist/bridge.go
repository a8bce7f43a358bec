// Package persist puts the local durable store and the optional remote
// store behind one save/load pair.
//
// The local store is authoritative whenever it holds anything. The remote
// is consulted on load only when the local store is empty or unavailable,
// and every save mirrors a lite copy to it in the background. Remote
// failures are logged and never returned.
package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/aretw0/corkboard/pkg/core"
)

// Bridge implements the save/load policy over two stores.
type Bridge struct {
	local  core.LocalStore
	remote core.RemoteStore
	logger *slog.Logger

	loads   singleflight.Group
	mirrors sync.WaitGroup
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithRemote enables the remote mirror.
func WithRemote(r core.RemoteStore) Option {
	return func(b *Bridge) { b.remote = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBridge creates a bridge over local.
func NewBridge(local core.LocalStore, opts ...Option) *Bridge {
	b := &Bridge{
		local:  local,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Remote returns the configured remote store, or nil.
func (b *Bridge) Remote() core.RemoteStore { return b.remote }

// Save replaces the local snapshot with records and starts a background
// mirror of the lite view to the remote. Local failures wrap
// core.ErrStorageWriteFailed.
func (b *Bridge) Save(ctx context.Context, records []core.Record) error {
	if err := b.local.ReplaceAll(ctx, records); err != nil {
		if !errors.Is(err, core.ErrStorageWriteFailed) {
			err = fmt.Errorf("%w: %w", core.ErrStorageWriteFailed, err)
		}
		return err
	}
	if b.remote == nil {
		return nil
	}

	lite := core.LiteSnapshot(records)
	mctx := context.WithoutCancel(ctx)
	b.mirrors.Add(1)
	go func() {
		defer b.mirrors.Done()
		if err := b.remote.Push(mctx, lite); err != nil {
			b.logger.Warn("remote mirror failed", "notes", len(lite), "error", err)
			return
		}
		b.logger.Debug("remote mirror done", "notes", len(lite))
	}()
	return nil
}

// Load returns the authoritative snapshot. Concurrent calls share one
// store round trip.
//
// An unavailable local store falls back to the remote. When neither store
// can answer, the returned error wraps core.ErrStorageUnavailable so
// callers can keep what they have instead of clearing it.
func (b *Bridge) Load(ctx context.Context) ([]core.Record, error) {
	v, err, _ := b.loads.Do("load", func() (any, error) {
		return b.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]core.Record)), nil
}

func (b *Bridge) load(ctx context.Context) ([]core.Record, error) {
	records, localErr := b.local.LoadAll(ctx)
	if localErr != nil {
		b.logger.Warn("local store unavailable", "error", localErr)
		if b.remote == nil {
			return nil, unavailable(localErr)
		}
	} else if len(records) > 0 || b.remote == nil {
		return records, nil
	}

	remote, err := b.remote.Fetch(ctx)
	if err != nil {
		b.logger.Warn("remote fetch failed", "error", err)
		if localErr != nil {
			return nil, unavailable(errors.Join(localErr, err))
		}
		return []core.Record{}, nil
	}
	b.logger.Debug("loaded snapshot from remote", "notes", len(remote))
	return remote, nil
}

// Wait blocks until in-flight remote mirrors finish.
func (b *Bridge) Wait() {
	b.mirrors.Wait()
}

func unavailable(err error) error {
	if errors.Is(err, core.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
}
