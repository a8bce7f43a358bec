package core

import (
	"slices"
	"time"
)

// Record is the persisted shape of a note. It carries no view state and no
// session-only handles; those are re-derived on load.
//
// Position, Rotation and Color are optional so snapshots written by other
// tools can omit them and get default placement.
type Record struct {
	ID            string    `json:"id" validate:"required"`
	Kind          Kind      `json:"kind,omitempty" validate:"omitempty,oneof=text music"`
	Content       string    `json:"content"`
	Position      *Point    `json:"position,omitempty"`
	Rotation      *float64  `json:"rotation,omitempty"`
	Color         string    `json:"color,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
	AudioBytes    []byte    `json:"audioBytes,omitempty"`
	AudioMimeType string    `json:"audioMimeType,omitempty"`
	CoverArtBytes []byte    `json:"coverArtBytes,omitempty"`
	// Order is the stacking index; higher is drawn and hit-tested on top.
	Order int `json:"order"`
}

// NewRecord captures the persisted fields of n at stacking index order.
func NewRecord(n *Note, order int) Record {
	pos := n.Position
	rot := n.Rotation
	r := Record{
		ID:        n.ID,
		Kind:      n.Kind(),
		Content:   n.Content(),
		Position:  &pos,
		Rotation:  &rot,
		Color:     n.Color,
		CreatedAt: n.CreatedAt,
		Order:     order,
	}
	if m, ok := n.Music(); ok {
		r.AudioBytes = m.Audio.Data
		r.AudioMimeType = m.Audio.MimeType
		r.CoverArtBytes = m.CoverArt
	}
	return r
}

// Snapshot captures the full ordered note list.
func Snapshot(notes []*Note) []Record {
	out := make([]Record, len(notes))
	for i, n := range notes {
		out[i] = NewRecord(n, i)
	}
	return out
}

// Lite returns a copy without the audio payload, for the remote mirror.
func (r Record) Lite() Record {
	r.AudioBytes = nil
	return r
}

// LiteSnapshot strips audio payloads from every record.
func LiteSnapshot(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Lite()
	}
	return out
}

// SortByOrder restores stacking order for stores that iterate by key.
func SortByOrder(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return a.Order - b.Order
	})
}
