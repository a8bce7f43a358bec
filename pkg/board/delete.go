package board

import (
	"fmt"
	"slices"

	"github.com/aretw0/corkboard/pkg/core"
)

// RequestDelete starts the two-step delete of id. Polls are held off until
// the request is confirmed or cancelled.
func (b *Board) RequestDelete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lookup(id) == nil {
		return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}
	b.pendingDelete = id
	return nil
}

// PendingDelete returns the ID awaiting confirmation, or "".
func (b *Board) PendingDelete() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingDelete
}

// ConfirmDelete removes the pending note, stopping its playback first, and
// queues a save. It returns the removed ID.
func (b *Board) ConfirmDelete() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.pendingDelete
	b.pendingDelete = ""
	if id == "" {
		return "", fmt.Errorf("no delete pending: %w", core.ErrNotFound)
	}
	i := b.indexOf(id)
	if i < 0 {
		return "", fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}

	if b.player.ActiveID() == id {
		b.player.Stop(b.lookup)
	}
	b.notes = slices.Delete(b.notes, i, i+1)
	b.emit(core.EventDelete, id)
	b.commit()
	b.logger.Info("note deleted", "id", id)
	return id, nil
}

// CancelDelete drops the pending delete request.
func (b *Board) CancelDelete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingDelete = ""
}
