package board

import (
	"slices"

	"github.com/aretw0/corkboard/pkg/camera"
	"github.com/aretw0/corkboard/pkg/core"
	"github.com/aretw0/corkboard/pkg/gesture"
	"github.com/aretw0/corkboard/pkg/hittest"
)

// scene adapts the board to gesture.Scene. Its methods run with the board
// lock held.
type scene struct{ b *Board }

var _ gesture.Scene = scene{}

func (s scene) Camera() *camera.Camera { return s.b.cam }

func (s scene) NoteAt(sx, sy float64) *core.Note {
	_, n := hittest.FindNoteAt(s.b.notes, s.b.cam, sx, sy)
	return n
}

func (s scene) ControlAt(n *core.Note, sx, sy float64) hittest.Control {
	return hittest.ControlAt(n, s.b.cam, sx, sy)
}

func (s scene) Raise(n *core.Note) {
	i := s.b.indexOf(n.ID)
	if i < 0 || i == len(s.b.notes)-1 {
		return
	}
	s.b.notes = append(slices.Delete(s.b.notes, i, i+1), n)
}

func (s scene) Activate(n *core.Note, c hittest.Control) {
	switch c {
	case hittest.Delete:
		s.b.pendingDelete = n.ID
		s.b.logger.Debug("delete requested", "id", n.ID)
	case hittest.Play:
		if err := s.b.toggle(n); err != nil {
			s.b.failures = append(s.b.failures, err)
		}
	}
}

func (s scene) Click(sx, sy float64) { s.b.click(sx, sy) }

func (s scene) Commit() { s.b.commit() }

// PointerDown starts a pointer session at screen point (sx, sy).
func (b *Board) PointerDown(sx, sy float64) {
	b.mu.Lock()
	defer b.unlock()
	b.gesture.Down(scene{b}, sx, sy)
}

// PointerMove continues the current pointer session.
func (b *Board) PointerMove(sx, sy float64) {
	b.mu.Lock()
	defer b.unlock()
	b.gesture.Move(scene{b}, sx, sy)
}

// PointerUp ends the session, saves, and dispatches a click when the
// pointer barely moved.
func (b *Board) PointerUp(sx, sy float64) gesture.Outcome {
	b.mu.Lock()
	defer b.unlock()
	dragged := b.gesture.DraggedNote()
	out := b.gesture.Up(scene{b}, sx, sy)
	if out == gesture.OutcomeDrag && dragged != nil {
		b.emit(core.EventModify, dragged.ID)
	}
	return out
}

// Wheel zooms around the cursor.
func (b *Board) Wheel(sx, sy, deltaY float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cam.Wheel(sx, sy, deltaY)
}

// Click toggles the expansion of the text note under (sx, sy). Music notes
// ignore clicks.
func (b *Board) Click(sx, sy float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.click(sx, sy)
}

func (b *Board) click(sx, sy float64) {
	_, n := hittest.FindNoteAt(b.notes, b.cam, sx, sy)
	if n == nil {
		return
	}
	t, ok := n.Text()
	if !ok {
		return
	}
	t.Expanded = !t.Expanded
	if t.Expanded {
		n.Size = core.ExpandedSize(t.Content, b.measure)
	} else {
		n.Size = core.BaseSize(core.KindText)
	}
	b.emit(core.EventModify, n.ID)
}
