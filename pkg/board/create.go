package board

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/lifecycle"
	"github.com/google/uuid"

	"github.com/aretw0/corkboard/pkg/core"
	"github.com/aretw0/corkboard/pkg/media"
)

const (
	placementJitter = 25.0
	createRotation  = 3.0
	unknownTitle    = "Unknown Track"
)

// Create adds a note from a creation dialog submission, places it at the
// centre of the viewport and queues a save.
//
// For music, metadata found in the audio fills the title and cover only
// where the request left them empty. The title falls back to the file name
// and then to "Unknown Track".
func (b *Board) Create(ctx context.Context, req core.CreateRequest) (*core.Note, error) {
	if err := b.validate.StructCtx(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidRequest, err)
	}

	var body core.Body
	var view core.View
	switch req.Kind {
	case core.KindText:
		content := strings.TrimSpace(req.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: text note content is blank", core.ErrInvalidRequest)
		}
		body = &core.TextBody{Content: content}
	case core.KindMusic:
		m := b.musicBody(ctx, req)
		if len(m.CoverArt) > 0 {
			view.Cover, view.CoverFailed = decodeCover(m.CoverArt, b.logger)
		}
		body = m
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	size := core.BaseSize(req.Kind)
	centre := b.cam.ToWorld(b.viewport.W/2, b.viewport.H/2)
	n := &core.Note{
		ID: uuid.NewString(),
		Position: core.Point{
			X: centre.X - size.W/2 + b.spread(placementJitter),
			Y: centre.Y - size.H/2 + b.spread(placementJitter),
		},
		Size:      size,
		Rotation:  b.spread(createRotation),
		Color:     core.Palette[min(int(b.rnd()*float64(len(core.Palette))), len(core.Palette)-1)],
		CreatedAt: b.now(),
		Body:      body,
	}
	view.Anim = core.DefaultAnim()
	view.DisplayTime = core.DisplayTime(n.CreatedAt)
	n.View = view

	b.notes = append(b.notes, n)
	b.emit(core.EventCreate, n.ID)
	b.commit()
	b.logger.Info("note created", "id", n.ID, "kind", n.Kind())

	if m, ok := n.Music(); ok && b.uploader != nil {
		b.upload(ctx, req.AudioName, m.Audio.Data)
	}
	return n.Clone(), nil
}

// spread returns a uniform value in [-r, r).
func (b *Board) spread(r float64) float64 {
	return b.rnd()*2*r - r
}

// musicBody runs without the board lock; extraction may be slow.
func (b *Board) musicBody(ctx context.Context, req core.CreateRequest) *core.MusicBody {
	m := &core.MusicBody{
		Title:    strings.TrimSpace(req.Content),
		Audio:    core.AudioSource{Data: req.Audio, MimeType: req.AudioMimeType},
		CoverArt: req.CoverArt,
	}

	if b.extractor != nil && (m.Title == "" || len(m.CoverArt) == 0) {
		md, err := b.extractor.Extract(ctx, req.Audio)
		if err != nil {
			b.logger.Debug("metadata extraction failed", "file", req.AudioName, "error", err)
		}
		m = mergeMetadata(m, md)
	}

	if m.Title == "" {
		m.Title = strings.TrimSuffix(filepath.Base(req.AudioName), filepath.Ext(req.AudioName))
	}
	if m.Title == "" || m.Title == "." {
		m.Title = unknownTitle
	}
	return m
}

func mergeMetadata(m *core.MusicBody, md media.Metadata) *core.MusicBody {
	if m.Title == "" {
		m.Title = strings.TrimSpace(md.Title)
	}
	if len(m.CoverArt) == 0 {
		m.CoverArt = md.CoverArt
	}
	return m
}

// upload sends the audio to the remote in the background. Failures are
// logged only. Must be called with b.mu held; uploads are refused once
// Close has started.
func (b *Board) upload(ctx context.Context, name string, data []byte) {
	if name == "" {
		name = "track"
	}
	if b.closing {
		b.logger.Warn("audio upload skipped, board is closing", "file", name)
		return
	}
	b.uploads++
	lifecycle.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		defer b.uploadDone()
		ref, err := b.uploader.UploadAudio(ctx, name, data)
		if err != nil {
			b.logger.Warn("audio upload failed", "file", name, "error", err)
			return nil
		}
		b.logger.Debug("audio uploaded", "file", name, "ref", ref)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		b.logger.Error("audio upload panic", "error", err)
	}))
}

func (b *Board) uploadDone() {
	b.mu.Lock()
	b.uploads--
	if b.uploads == 0 {
		b.idle.Broadcast()
	}
	b.mu.Unlock()
}

// waitUploads blocks until no upload is in flight.
func (b *Board) waitUploads() {
	b.mu.Lock()
	for b.uploads > 0 {
		b.idle.Wait()
	}
	b.mu.Unlock()
}
