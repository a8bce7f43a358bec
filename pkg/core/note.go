package core

import (
	"image"
	"time"
)

// Kind is the variant of a note, fixed at creation.
type Kind string

const (
	KindText  Kind = "text"
	KindMusic Kind = "music"
)

// Body is the kind-specific part of a note. It is either *TextBody or
// *MusicBody; no other implementations exist.
type Body interface {
	Kind() Kind
	body()
}

// TextBody is the payload of a free-text note.
type TextBody struct {
	Content string
	// Expanded is toggled by clicking the note.
	Expanded bool
}

func (*TextBody) Kind() Kind { return KindText }
func (*TextBody) body()      {}

// AudioSource is the raw, persisted audio a playback handle is derived from.
type AudioSource struct {
	Data     []byte
	MimeType string
}

// Empty reports whether there is nothing to play.
func (a AudioSource) Empty() bool { return len(a.Data) == 0 }

// MusicBody is the payload of a music note.
type MusicBody struct {
	Title    string
	Audio    AudioSource
	CoverArt []byte
	// Playing is true for at most one note on the board.
	Playing bool
}

func (*MusicBody) Kind() Kind { return KindMusic }
func (*MusicBody) body()      {}

// Anim is the hover/lift animation state of a card.
type Anim struct {
	Scale  float64
	Lift   float64
	Blur   float64
	Offset float64
}

// DefaultAnim is the resting animation state.
func DefaultAnim() Anim {
	return Anim{Scale: 1.0, Lift: 0, Blur: 15, Offset: 8}
}

// View holds UI-only state. It is never persisted and is carried across
// reconciliations by note ID.
type View struct {
	// Cover is the decoded cover art, nil when absent or undecodable.
	Cover image.Image
	// CoverFailed marks cover bytes that failed to decode; renderers draw a
	// placeholder instead.
	CoverFailed bool
	Anim        Anim
	DisplayTime string
}

// Note is the central entity of the board.
type Note struct {
	ID        string
	Position  Point
	Size      Size
	Rotation  float64
	Color     string
	CreatedAt time.Time
	Body      Body
	View      View
}

// Kind returns the variant of the note.
func (n *Note) Kind() Kind {
	if n.Body == nil {
		return KindText
	}
	return n.Body.Kind()
}

// Text returns the text payload if n is a text note.
func (n *Note) Text() (*TextBody, bool) {
	b, ok := n.Body.(*TextBody)
	return b, ok
}

// Music returns the music payload if n is a music note.
func (n *Note) Music() (*MusicBody, bool) {
	b, ok := n.Body.(*MusicBody)
	return b, ok
}

// Content is the note body for text notes and the display title for music.
func (n *Note) Content() string {
	switch b := n.Body.(type) {
	case *TextBody:
		return b.Content
	case *MusicBody:
		return b.Title
	}
	return ""
}

// Playing reports whether n is the note currently producing audio.
func (n *Note) Playing() bool {
	m, ok := n.Music()
	return ok && m.Playing
}

// Clone returns a copy that can be handed to a renderer. Byte payloads are
// shared; they are never mutated in place.
func (n *Note) Clone() *Note {
	c := *n
	switch b := n.Body.(type) {
	case *TextBody:
		tb := *b
		c.Body = &tb
	case *MusicBody:
		mb := *b
		c.Body = &mb
	}
	return &c
}
