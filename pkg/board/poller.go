package board

import (
	"context"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/corkboard/pkg/core"
)

// Poll loads the persisted snapshot and merges it into the board when it
// changed since the last merge. It reports whether a merge happened.
//
// A tick is skipped while a note is dragged, a dialog or delete
// confirmation is open, or a save is pending. A load that completes after
// one of those started is discarded; the change is picked up by the next
// tick.
func (b *Board) Poll(ctx context.Context) (bool, error) {
	b.mu.Lock()
	skip := b.busy()
	b.mu.Unlock()
	if skip {
		return false, nil
	}

	records, err := b.store.Load(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastPoll = b.now()
	b.lastPollErr = err
	if err != nil {
		b.logger.Warn("poll load failed", "error", err)
		return false, err
	}
	if b.busy() {
		b.logger.Debug("poll result discarded, interaction started")
		return false, nil
	}

	fp := Fingerprint(records)
	if fp == b.fingerprint {
		return false, nil
	}
	b.fingerprint = fp

	b.notes = Reconcile(b.notes, records, Deps{
		Rand:    b.rnd,
		Measure: b.measure,
		Logger:  b.logger,
	})
	if id := b.player.ActiveID(); id != "" {
		if n := b.lookup(id); n == nil || n.Kind() != core.KindMusic {
			b.player.Stop(b.lookup)
		}
	}
	b.emit(core.EventReload, "")
	b.logger.Debug("snapshot merged", "notes", len(b.notes))
	return true, nil
}

// Nudge asks a running poller to poll now instead of waiting for the next
// tick. It never blocks.
func (b *Board) Nudge() {
	select {
	case b.nudge <- struct{}{}:
	default:
	}
}

// Run drives the saver and the poll ticker until ctx is done, then flushes
// pending saves. It always returns nil.
func (b *Board) Run(ctx context.Context) error {
	saverDone := make(chan struct{})
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(saverDone)
		// Run only returns once ctx is done.
		_ = b.saver.Run(ctx)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		b.logger.Error("saver panic", "error", err)
	}))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-saverDone
			b.waitUploads()
			return nil
		case <-ticker.C:
		case <-b.nudge:
		}
		// Failures are logged by Poll and retried on the next tick.
		_, _ = b.Poll(ctx)
	}
}
