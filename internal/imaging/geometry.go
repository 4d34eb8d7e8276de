package imaging

import (
	"image"
	"math"
)

// DisplayGeometry describes how an image is rendered on screen: its displayed
// size versus its true pixel dimensions. Scale factors are computed per axis,
// so a renderer that does not preserve aspect ratio is still mapped correctly.
type DisplayGeometry struct {
	DisplayWidth  float64
	DisplayHeight float64
	NativeWidth   float64
	NativeHeight  float64
}

// Valid reports whether all four dimensions are positive.
func (g DisplayGeometry) Valid() bool {
	return g.DisplayWidth > 0 && g.DisplayHeight > 0 &&
		g.NativeWidth > 0 && g.NativeHeight > 0
}

// SelectionRect is a rectangle in display coordinate space with a top-left
// origin and non-negative dimensions. A zero width or height means
// "no selection" and is handled by the crop pipeline, never by the mapper.
type SelectionRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Empty reports whether the selection is degenerate.
func (r SelectionRect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// NativeRect is a rectangle in native pixel space. Values stay unrounded
// floats until pixel extraction.
type NativeRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// MapSelectionToNative maps a display-space selection into native pixel
// space using independent per-axis scale factors. Callers must not pass a
// degenerate selection; the full-image policy for those lives upstream.
func MapSelectionToNative(sel SelectionRect, g DisplayGeometry) NativeRect {
	scaleX := g.NativeWidth / g.DisplayWidth
	scaleY := g.NativeHeight / g.DisplayHeight
	return NativeRect{
		X:      sel.X * scaleX,
		Y:      sel.Y * scaleY,
		Width:  sel.Width * scaleX,
		Height: sel.Height * scaleY,
	}
}

// PixelRect converts the rect to integer pixel coordinates clamped into
// bounds. The origin is floored and the dimensions rounded; a non-degenerate
// input always yields at least a 1x1 rect inside bounds.
func (r NativeRect) PixelRect(bounds image.Rectangle) image.Rectangle {
	x0 := int(math.Floor(r.X))
	y0 := int(math.Floor(r.Y))
	w := int(math.Round(r.Width))
	h := int(math.Round(r.Height))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	out := image.Rect(x0, y0, x0+w, y0+h).Intersect(bounds)
	if out.Empty() {
		// Selection fell entirely outside the image; pin a minimal rect to
		// the nearest corner so extraction still has pixels to copy.
		x0 = clampInt(x0, bounds.Min.X, bounds.Max.X-1)
		y0 = clampInt(y0, bounds.Min.Y, bounds.Max.Y-1)
		out = image.Rect(x0, y0, x0+1, y0+1)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
