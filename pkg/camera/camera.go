// Package camera maps between screen and world coordinates and owns the
// pan/zoom state of the board.
package camera

import "github.com/aretw0/corkboard/pkg/core"

const (
	DefaultMinZoom = 0.2
	DefaultMaxZoom = 2.0
	// WheelSensitivity converts wheel delta units into zoom units.
	WheelSensitivity = 0.001
)

// Camera is the viewport transform: screen = world*Zoom + Offset.
type Camera struct {
	OffsetX float64
	OffsetY float64
	Zoom    float64
	MinZoom float64
	MaxZoom float64
}

// New returns a camera at the origin with zoom 1 and the default range.
func New() *Camera {
	return &Camera{Zoom: 1, MinZoom: DefaultMinZoom, MaxZoom: DefaultMaxZoom}
}

// ToWorld converts a screen point to world space.
func (c *Camera) ToWorld(sx, sy float64) core.Point {
	return core.Point{
		X: (sx - c.OffsetX) / c.Zoom,
		Y: (sy - c.OffsetY) / c.Zoom,
	}
}

// ToScreen converts a world point to screen space.
func (c *Camera) ToScreen(wx, wy float64) core.Point {
	return core.Point{
		X: wx*c.Zoom + c.OffsetX,
		Y: wy*c.Zoom + c.OffsetY,
	}
}

// Pan moves the view by a screen-space delta. Pointer deltas are already in
// screen space, so they are not scaled by zoom.
func (c *Camera) Pan(dx, dy float64) {
	c.OffsetX += dx
	c.OffsetY += dy
}

// ZoomAt changes zoom by delta while keeping the world point under the
// screen point (sx, sy) stationary.
func (c *Camera) ZoomAt(sx, sy, delta float64) {
	anchor := c.ToWorld(sx, sy)
	c.Zoom = c.clamp(c.Zoom + delta)
	c.OffsetX = sx - anchor.X*c.Zoom
	c.OffsetY = sy - anchor.Y*c.Zoom
}

// Wheel applies a mouse-wheel step at the cursor. Positive deltaY (scrolling
// down) zooms out.
func (c *Camera) Wheel(sx, sy, deltaY float64) {
	c.ZoomAt(sx, sy, -deltaY*WheelSensitivity)
}

func (c *Camera) clamp(z float64) float64 {
	lo, hi := c.MinZoom, c.MaxZoom
	if lo <= 0 {
		lo = DefaultMinZoom
	}
	if hi <= 0 || hi < lo {
		hi = DefaultMaxZoom
	}
	return min(max(z, lo), hi)
}
