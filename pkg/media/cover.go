package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration

	"golang.org/x/image/draw"

	"github.com/aretw0/corkboard/pkg/core"
)

// DecodeCover decodes cover art and scales it down to maxWidth, keeping the
// aspect ratio. Images already narrow enough are returned as decoded.
func DecodeCover(data []byte, maxWidth int) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty cover art: %w", core.ErrDecodeFailed)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover art: %w: %w", core.ErrDecodeFailed, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if maxWidth <= 0 || width <= maxWidth {
		return img, nil
	}

	height = max(1, height*maxWidth/width)
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst, nil
}
