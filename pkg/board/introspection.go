package board

import (
	"time"

	"github.com/aretw0/introspection"
)

// State exposes internal state for observability.
type State struct {
	Notes         int        `json:"notes"`
	Gesture       string     `json:"gesture"`
	Playing       string     `json:"playing,omitempty"`
	DialogOpen    bool       `json:"dialog_open"`
	PendingDelete string     `json:"pending_delete,omitempty"`
	SavePending   bool       `json:"save_pending"`
	Zoom          float64    `json:"zoom"`
	PollInterval  string     `json:"poll_interval"`
	LastPoll      *time.Time `json:"last_poll,omitempty"`
	LastPollError string     `json:"last_poll_error,omitempty"`
}

// State implements introspection.Introspectable.
func (b *Board) State() any {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := State{
		Notes:         len(b.notes),
		Gesture:       b.gesture.State().String(),
		Playing:       b.player.ActiveID(),
		DialogOpen:    b.dialogOpen,
		PendingDelete: b.pendingDelete,
		SavePending:   b.saver.Pending(),
		Zoom:          b.cam.Zoom,
		PollInterval:  b.interval.String(),
	}
	if !b.lastPoll.IsZero() {
		t := b.lastPoll
		s.LastPoll = &t
	}
	if b.lastPollErr != nil {
		s.LastPollError = b.lastPollErr.Error()
	}
	return s
}

// ComponentType implements introspection.Component.
func (b *Board) ComponentType() string {
	return "board"
}

var _ introspection.Introspectable = (*Board)(nil)
var _ introspection.Component = (*Board)(nil)
