// Package playback enforces that at most one music note plays at a time.
package playback

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/corkboard/pkg/core"
)

// Lookup resolves a note by ID in the current note list.
type Lookup func(id string) *core.Note

// Controller owns the single active playback handle. It is not safe for
// concurrent use; the board serialises calls.
type Controller struct {
	device  Device
	logger  *slog.Logger
	onEnded func(id string)

	activeID string
	handle   Handle
}

// New creates a controller on top of device.
func New(device Device, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{device: device, logger: logger}
}

// OnEnded registers the hook invoked (from the device's goroutine) when the
// active track ends on its own.
func (c *Controller) OnEnded(fn func(id string)) {
	c.onEnded = fn
}

// ActiveID returns the ID of the playing or paused note, or "".
func (c *Controller) ActiveID() string { return c.activeID }

// Toggle plays, pauses or resumes n. Toggling the active note flips its
// pause state. Toggling any other note stops the active one first.
//
// Failures roll the note back to not playing, clear the active ID and wrap
// core.ErrPlaybackFailed.
func (c *Controller) Toggle(n *core.Note, lookup Lookup) error {
	m, ok := n.Music()
	if !ok {
		return fmt.Errorf("note %s is not a music note: %w", n.ID, core.ErrInvalidRequest)
	}

	if c.activeID == n.ID && c.handle != nil {
		if !c.handle.Paused() {
			c.handle.Pause()
			m.Playing = false
			return nil
		}
		if err := c.handle.Play(); err != nil {
			c.release()
			m.Playing = false
			return fmt.Errorf("resume %s: %w: %w", n.ID, core.ErrPlaybackFailed, err)
		}
		m.Playing = true
		return nil
	}

	c.Stop(lookup)

	id := n.ID
	c.activeID = id
	m.Playing = true

	h, err := c.device.Open(m.Audio, func() {
		if c.onEnded != nil {
			c.onEnded(id)
		}
	})
	if err != nil {
		c.activeID = ""
		m.Playing = false
		return fmt.Errorf("open %s: %w: %w", id, core.ErrPlaybackFailed, err)
	}
	c.handle = h
	h.SetLoop(true)

	if err := h.Play(); err != nil {
		c.release()
		m.Playing = false
		return fmt.Errorf("play %s: %w: %w", id, core.ErrPlaybackFailed, err)
	}

	c.logger.Debug("playback started", "id", id)
	return nil
}

// Stop pauses and releases the active handle and clears its note's flag.
func (c *Controller) Stop(lookup Lookup) {
	id := c.activeID
	c.release()
	if id == "" || lookup == nil {
		return
	}
	if n := lookup(id); n != nil {
		if m, ok := n.Music(); ok {
			m.Playing = false
		}
	}
	c.logger.Debug("playback stopped", "id", id)
}

// Ended handles the end of a track. Reports for notes that are no longer
// active are ignored.
func (c *Controller) Ended(id string, lookup Lookup) {
	if id == "" || id != c.activeID {
		return
	}
	c.Stop(lookup)
}

func (c *Controller) release() {
	if c.handle != nil {
		c.handle.Pause()
		if err := c.handle.Close(); err != nil {
			c.logger.Warn("failed to release audio handle", "id", c.activeID, "error", err)
		}
	}
	c.handle = nil
	c.activeID = ""
}
