// Package gesture classifies pointer sessions into camera pans, note drags
// and clicks.
package gesture

import (
	"math"

	"github.com/aretw0/corkboard/pkg/camera"
	"github.com/aretw0/corkboard/pkg/core"
	"github.com/aretw0/corkboard/pkg/hittest"
)

// DefaultClickThreshold is the pointer travel, in screen pixels, below
// which a session counts as a click.
const DefaultClickThreshold = 5.0

// State is the controller state.
type State int

const (
	Idle State = iota
	PanningCamera
	DraggingNote
)

func (s State) String() string {
	switch s {
	case PanningCamera:
		return "panning"
	case DraggingNote:
		return "dragging"
	}
	return "idle"
}

// Scene is what the controller acts on. The board implements it.
type Scene interface {
	Camera() *camera.Camera
	NoteAt(sx, sy float64) *core.Note
	ControlAt(n *core.Note, sx, sy float64) hittest.Control
	// Raise moves n to the top of the stacking order.
	Raise(n *core.Note)
	// Activate fires a control (delete request or play toggle).
	Activate(n *core.Note, c hittest.Control)
	// Click handles a pointer session that did not travel.
	Click(sx, sy float64)
	// Commit persists the result of the session.
	Commit()
}

// Outcome describes how a finished session was classified.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeClick
	OutcomePan
	OutcomeDrag
	OutcomeControl
)

// Controller is the pointer state machine. It is not safe for concurrent
// use; the board serialises calls.
type Controller struct {
	Threshold float64

	state     State
	start     core.Point
	last      core.Point
	note      *core.Note
	offset    core.Point
	activated bool
}

// NewController returns an idle controller with the default threshold.
func NewController() *Controller {
	return &Controller{Threshold: DefaultClickThreshold}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Dragging reports whether a note drag is in progress.
func (c *Controller) Dragging() bool { return c.state == DraggingNote }

// DraggedNote returns the note being dragged, if any.
func (c *Controller) DraggedNote() *core.Note {
	if c.state != DraggingNote {
		return nil
	}
	return c.note
}

// Down starts a pointer session at screen point (sx, sy).
func (c *Controller) Down(s Scene, sx, sy float64) {
	c.start = core.Point{X: sx, Y: sy}
	c.last = c.start
	c.note = nil
	c.activated = false

	n := s.NoteAt(sx, sy)
	if n == nil {
		c.state = PanningCamera
		return
	}

	if ctl := s.ControlAt(n, sx, sy); ctl != hittest.None {
		c.state = Idle
		c.activated = true
		s.Activate(n, ctl)
		return
	}

	s.Raise(n)
	w := s.Camera().ToWorld(sx, sy)
	c.note = n
	c.offset = core.Point{X: w.X - n.Position.X, Y: w.Y - n.Position.Y}
	c.state = DraggingNote
}

// Move advances the session to (sx, sy).
func (c *Controller) Move(s Scene, sx, sy float64) {
	switch c.state {
	case PanningCamera:
		s.Camera().Pan(sx-c.last.X, sy-c.last.Y)
	case DraggingNote:
		w := s.Camera().ToWorld(sx, sy)
		c.note.Position = core.Point{X: w.X - c.offset.X, Y: w.Y - c.offset.Y}
	}
	c.last = core.Point{X: sx, Y: sy}
}

// Up ends the session at (sx, sy). The scene is always committed; a session
// whose total travel stays under the threshold is dispatched as a click,
// however long it lasted.
func (c *Controller) Up(s Scene, sx, sy float64) Outcome {
	prev := c.state
	activated := c.activated

	c.state = Idle
	c.note = nil
	c.activated = false

	s.Commit()

	if activated {
		return OutcomeControl
	}
	if IsClick(c.start, core.Point{X: sx, Y: sy}, c.threshold()) {
		s.Click(sx, sy)
		return OutcomeClick
	}
	switch prev {
	case PanningCamera:
		return OutcomePan
	case DraggingNote:
		return OutcomeDrag
	}
	return OutcomeNone
}

func (c *Controller) threshold() float64 {
	if c.Threshold <= 0 {
		return DefaultClickThreshold
	}
	return c.Threshold
}

// IsClick reports whether a session from start to end travelled less than
// threshold pixels.
func IsClick(start, end core.Point, threshold float64) bool {
	return math.Hypot(end.X-start.X, end.Y-start.Y) < threshold
}
