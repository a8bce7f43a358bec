package board

import (
	"fmt"

	"github.com/aretw0/corkboard/pkg/core"
)

// TogglePlayback plays, pauses or resumes the music note with id. Starting
// a note stops whatever else was playing. Failures are returned and also
// handed to the notifier.
func (b *Board) TogglePlayback(id string) error {
	b.mu.Lock()
	defer b.unlock()

	n := b.lookup(id)
	if n == nil {
		return fmt.Errorf("toggle playback %s: %w", id, core.ErrNotFound)
	}
	err := b.toggle(n)
	if err != nil {
		b.failures = append(b.failures, err)
	}
	return err
}

// TrackEnded clears the playing state of id after its track finished.
func (b *Board) TrackEnded(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.player.ActiveID() != id {
		return
	}
	b.player.Ended(id, b.lookup)
	b.emit(core.EventModify, id)
}

// Playing returns the ID of the active note, or "".
func (b *Board) Playing() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.player.ActiveID()
}

func (b *Board) toggle(n *core.Note) error {
	prev := b.player.ActiveID()
	err := b.player.Toggle(n, b.lookup)
	if prev != "" && prev != n.ID {
		b.emit(core.EventModify, prev)
	}
	b.emit(core.EventModify, n.ID)
	if err != nil {
		b.logger.Warn("playback failed", "id", n.ID, "error", err)
	}
	return err
}
