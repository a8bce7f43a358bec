// Package hittest resolves which note, and which control on it, lies under a
// screen point.
//
// Rotation is ignored: cards are tested against their axis-aligned world
// box, and control zones are placed in the unrotated card frame. Card
// rotation is a few degrees at most.
package hittest

import (
	"math"

	"github.com/aretw0/corkboard/pkg/camera"
	"github.com/aretw0/corkboard/pkg/core"
)

// Control identifies an interactive zone on a card.
type Control int

const (
	None Control = iota
	Delete
	Play
)

func (c Control) String() string {
	switch c {
	case Delete:
		return "delete"
	case Play:
		return "play"
	}
	return "none"
}

// Control zone geometry, in world units relative to the card corners.
const (
	DeleteInset  = 15.0
	DeleteRadius = 15.0
	PlayInset    = 35.0
	PlayRadius   = 25.0
)

// FindNoteAt returns the top-most note containing the screen point, with its
// index in notes. Later notes are on top. It returns -1 and nil on a miss.
func FindNoteAt(notes []*core.Note, cam *camera.Camera, sx, sy float64) (int, *core.Note) {
	w := cam.ToWorld(sx, sy)
	for i := len(notes) - 1; i >= 0; i-- {
		if Contains(notes[i], w) {
			return i, notes[i]
		}
	}
	return -1, nil
}

// Contains reports whether the world point lies strictly inside the note's
// axis-aligned box.
func Contains(n *core.Note, w core.Point) bool {
	return w.X > n.Position.X && w.X < n.Position.X+n.Size.W &&
		w.Y > n.Position.Y && w.Y < n.Position.Y+n.Size.H
}

// HitsControl reports whether the screen point falls in the given control
// zone of n. Play zones only exist on music notes.
func HitsControl(n *core.Note, cam *camera.Camera, sx, sy float64, c Control) bool {
	w := cam.ToWorld(sx, sy)
	switch c {
	case Delete:
		cx := n.Position.X + n.Size.W - DeleteInset
		cy := n.Position.Y + DeleteInset
		return math.Hypot(w.X-cx, w.Y-cy) < DeleteRadius
	case Play:
		if n.Kind() != core.KindMusic {
			return false
		}
		cx := n.Position.X + n.Size.W - PlayInset
		cy := n.Position.Y + n.Size.H - PlayInset
		return math.Hypot(w.X-cx, w.Y-cy) < PlayRadius
	}
	return false
}

// ControlAt returns the control under the screen point, Delete taking
// precedence over Play.
func ControlAt(n *core.Note, cam *camera.Camera, sx, sy float64) Control {
	for _, c := range []Control{Delete, Play} {
		if HitsControl(n, cam, sx, sy, c) {
			return c
		}
	}
	return None
}
