package core

import (
	"math"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Card geometry, in world units.
const (
	BaseWidth     = 220.0
	BaseHeight    = 180.0
	MusicHeight   = 260.0
	ExpandedWidth = 300.0
	GridPadding   = 60.0

	textInset   = 40.0
	lineHeight  = 30.0
	textMargin  = 80.0
	cardFontPx  = 24.0
	gridColumns = 4
	gridOrigin  = 80.0
)

// Palette is the fixed set of note colors.
var Palette = []string{
	"#fef68a", // yellow
	"#bbf7d0", // green
	"#bfdbfe", // blue
	"#fecaca", // red
	"#fed7aa", // orange
	"#ddd6fe", // purple
}

// Measurer returns the rendered width of a line of card text.
type Measurer func(s string) float64

// DefaultMeasurer approximates the card font with the basic 7x13 face
// scaled to the card font size.
func DefaultMeasurer(s string) float64 {
	w := font.MeasureString(basicfont.Face7x13, s).Ceil()
	return float64(w) * cardFontPx / float64(basicfont.Face7x13.Height)
}

// BaseSize is the resting size of a card of the given kind.
func BaseSize(k Kind) Size {
	if k == KindMusic {
		return Size{W: BaseWidth, H: MusicHeight}
	}
	return Size{W: BaseWidth, H: BaseHeight}
}

// ExpandedSize is the size of an expanded text card showing all of content.
func ExpandedSize(content string, measure Measurer) Size {
	lines := WrapText(content, ExpandedWidth-textInset, measure)
	h := math.Max(BaseHeight, float64(len(lines))*lineHeight+textMargin)
	return Size{W: ExpandedWidth, H: h}
}

// WrapText greedily breaks text on spaces so that no line reaches maxWidth,
// unless a single word is already wider.
func WrapText(text string, maxWidth float64, measure Measurer) []string {
	if text == "" {
		return []string{""}
	}
	if measure == nil {
		measure = DefaultMeasurer
	}
	words := strings.Split(text, " ")
	var lines []string
	cur := words[0]
	for _, w := range words[1:] {
		if measure(cur+" "+w) < maxWidth {
			cur += " " + w
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	return append(lines, cur)
}

// GridPosition is the fallback placement for the i-th note of a snapshot
// that carries no position.
func GridPosition(i int) Point {
	return Point{
		X: gridOrigin + float64(i%gridColumns)*(BaseWidth+GridPadding),
		Y: gridOrigin + float64(i/gridColumns)*(BaseHeight+GridPadding),
	}
}

// DisplayTime formats a creation time for the card footer.
func DisplayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 15:04")
}
