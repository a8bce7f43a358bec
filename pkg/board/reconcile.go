package board

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/aretw0/corkboard/pkg/core"
	"github.com/aretw0/corkboard/pkg/media"
)

const loadRotation = 4.0

// Deps are the collaborators of Reconcile. Zero values get defaults.
type Deps struct {
	Rand    func() float64
	Measure core.Measurer
	// DecodeCover turns cover bytes into an image handle.
	DecodeCover func(data []byte) (image.Image, error)
	Logger      *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Rand == nil {
		d.Rand = rand.Float64
	}
	if d.Measure == nil {
		d.Measure = core.DefaultMeasurer
	}
	if d.DecodeCover == nil {
		d.DecodeCover = func(data []byte) (image.Image, error) {
			return media.DecodeCover(data, int(core.BaseWidth))
		}
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d
}

// Reconcile merges a loaded snapshot into the live notes. The output
// follows the order of incoming. Only the first record of a repeated ID
// is kept.
//
// A record matching a previous note by ID adopts the persisted fields and
// keeps the note's view state, expansion and playing flag. Persisted fields
// missing from the record keep their previous value. A new record gets
// default view state, a grid position, a palette color by index and a
// random rotation for whatever it lacks.
//
// Cover art is decoded only when the cached handle is missing or its bytes
// changed.
func Reconcile(previous []*core.Note, incoming []core.Record, deps Deps) []*core.Note {
	deps = deps.withDefaults()

	index := make(map[string]*core.Note, len(previous))
	for _, n := range previous {
		index[n.ID] = n
	}

	out := make([]*core.Note, 0, len(incoming))
	seen := make(map[string]struct{}, len(incoming))
	for _, r := range incoming {
		if _, dup := seen[r.ID]; dup {
			deps.Logger.Warn("duplicate note id skipped", "id", r.ID)
			continue
		}
		seen[r.ID] = struct{}{}
		i := len(out)
		prev := index[r.ID]
		kind := recordKind(r)
		if prev != nil && prev.Kind() != kind {
			prev = nil
		}

		n := &core.Note{ID: r.ID, CreatedAt: r.CreatedAt, Color: r.Color}

		switch {
		case r.Position != nil:
			n.Position = *r.Position
		case prev != nil:
			n.Position = prev.Position
		default:
			n.Position = core.GridPosition(i)
		}
		switch {
		case r.Rotation != nil:
			n.Rotation = *r.Rotation
		case prev != nil:
			n.Rotation = prev.Rotation
		default:
			n.Rotation = deps.Rand()*2*loadRotation - loadRotation
		}
		if n.Color == "" {
			if prev != nil && prev.Color != "" {
				n.Color = prev.Color
			} else {
				n.Color = core.Palette[i%len(core.Palette)]
			}
		}
		if n.CreatedAt.IsZero() && prev != nil {
			n.CreatedAt = prev.CreatedAt
		}

		if prev != nil {
			n.View = prev.View
		} else {
			n.View = core.View{Anim: core.DefaultAnim()}
		}
		n.View.DisplayTime = core.DisplayTime(n.CreatedAt)

		switch kind {
		case core.KindMusic:
			n.Body = reconcileMusic(n, r, prev, deps)
			n.Size = core.BaseSize(core.KindMusic)
		default:
			t := &core.TextBody{Content: r.Content}
			if prev != nil {
				pt, _ := prev.Text()
				t.Expanded = pt.Expanded
			}
			n.Body = t
			if t.Expanded {
				n.Size = core.ExpandedSize(t.Content, deps.Measure)
			} else {
				n.Size = core.BaseSize(core.KindText)
			}
		}
		out = append(out, n)
	}
	return out
}

func reconcileMusic(n *core.Note, r core.Record, prev *core.Note, deps Deps) *core.MusicBody {
	m := &core.MusicBody{
		Title:    r.Content,
		Audio:    core.AudioSource{Data: r.AudioBytes, MimeType: r.AudioMimeType},
		CoverArt: r.CoverArtBytes,
	}

	var pm *core.MusicBody
	if prev != nil {
		pm, _ = prev.Music()
		m.Playing = pm.Playing
		// Lite snapshots carry no audio; keep what is already loaded.
		if m.Audio.Empty() {
			m.Audio = pm.Audio
		}
	}

	switch {
	case len(m.CoverArt) == 0:
		n.View.Cover, n.View.CoverFailed = nil, false
	case pm != nil && bytes.Equal(pm.CoverArt, m.CoverArt) && (n.View.Cover != nil || n.View.CoverFailed):
		// cached handle is current
	default:
		img, err := deps.DecodeCover(m.CoverArt)
		if err != nil {
			deps.Logger.Warn("cover art decode failed", "id", n.ID, "error", err)
		}
		n.View.Cover, n.View.CoverFailed = img, err != nil
	}
	return m
}

// recordKind infers the kind of records written without one.
func recordKind(r core.Record) core.Kind {
	if r.Kind != "" {
		return r.Kind
	}
	if len(r.AudioBytes) > 0 || r.AudioMimeType != "" {
		return core.KindMusic
	}
	return core.KindText
}

// Fingerprint identifies a snapshot for change detection.
func Fingerprint(records []core.Record) string {
	data, err := json.Marshal(records)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func decodeCover(data []byte, logger *slog.Logger) (image.Image, bool) {
	img, err := media.DecodeCover(data, int(core.BaseWidth))
	if err != nil {
		logger.Warn("cover art decode failed", "error", err)
		return nil, true
	}
	return img, false
}
