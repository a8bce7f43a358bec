// Package media reads advisory metadata from audio files and prepares cover
// art for display.
package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bogem/id3v2"

	"github.com/aretw0/corkboard/pkg/core"
)

// Metadata is what an Extractor could find. Missing fields are empty.
type Metadata struct {
	Title         string
	CoverArt      []byte
	CoverMimeType string
}

// Extractor reads metadata from raw audio. Results are advisory; callers
// keep user-supplied values.
type Extractor interface {
	Extract(ctx context.Context, audio []byte) (Metadata, error)
}

// ID3Extractor reads ID3v2 tags.
type ID3Extractor struct{}

// NewID3Extractor returns an extractor for ID3v2-tagged audio.
func NewID3Extractor() *ID3Extractor {
	return &ID3Extractor{}
}

// Extract returns the title and the first attached picture, front cover
// preferred.
func (e *ID3Extractor) Extract(ctx context.Context, audio []byte) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}
	if len(audio) == 0 {
		return Metadata{}, fmt.Errorf("empty audio: %w", core.ErrDecodeFailed)
	}

	tag, err := id3v2.ParseReader(bytes.NewReader(audio), id3v2.Options{Parse: true})
	if err != nil {
		return Metadata{}, fmt.Errorf("parse id3 tag: %w: %w", core.ErrDecodeFailed, err)
	}

	md := Metadata{Title: tag.Title()}

	var picked *id3v2.PictureFrame
	for _, f := range tag.GetFrames(tag.CommonID("Attached picture")) {
		pic, ok := f.(id3v2.PictureFrame)
		if !ok || len(pic.Picture) == 0 {
			continue
		}
		if picked == nil || pic.PictureType == id3v2.PTFrontCover && picked.PictureType != id3v2.PTFrontCover {
			picked = &pic
		}
	}
	if picked != nil {
		md.CoverArt = picked.Picture
		md.CoverMimeType = picked.MimeType
	}
	return md, nil
}
