package imaging

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSelectionToNative_ScalesPerAxis(t *testing.T) {
	// Display stretched 2x horizontally and 4x vertically; the mapper must
	// not assume a preserved aspect ratio.
	g := DisplayGeometry{DisplayWidth: 100, DisplayHeight: 50, NativeWidth: 200, NativeHeight: 200}
	sel := SelectionRect{X: 10, Y: 5, Width: 20, Height: 10}

	got := MapSelectionToNative(sel, g)

	assert.Equal(t, NativeRect{X: 20, Y: 20, Width: 40, Height: 40}, got)
}

func TestMapSelectionToNative_Identity(t *testing.T) {
	g := DisplayGeometry{DisplayWidth: 640, DisplayHeight: 480, NativeWidth: 640, NativeHeight: 480}
	sel := SelectionRect{X: 12.5, Y: 7.25, Width: 100, Height: 50}

	got := MapSelectionToNative(sel, g)

	assert.Equal(t, NativeRect{X: 12.5, Y: 7.25, Width: 100, Height: 50}, got)
}

func TestMapSelectionToNative_ExtractionStaysInBounds(t *testing.T) {
	geometries := []DisplayGeometry{
		{DisplayWidth: 80, DisplayHeight: 24, NativeWidth: 1920, NativeHeight: 1080},
		{DisplayWidth: 1920, DisplayHeight: 1080, NativeWidth: 80, NativeHeight: 24},
		{DisplayWidth: 33, DisplayHeight: 17, NativeWidth: 101, NativeHeight: 57},
		{DisplayWidth: 1, DisplayHeight: 1, NativeWidth: 4096, NativeHeight: 4096},
	}
	selections := []SelectionRect{
		{X: 0, Y: 0, Width: 1, Height: 1},
		{X: 5.5, Y: 3.3, Width: 10.1, Height: 7.7},
		{X: 0, Y: 0, Width: 1e9, Height: 1e9}, // way past the displayed image
		{X: 79, Y: 23, Width: 1, Height: 1},
	}

	for _, g := range geometries {
		bounds := image.Rect(0, 0, int(g.NativeWidth), int(g.NativeHeight))
		for _, sel := range selections {
			rect := MapSelectionToNative(sel, g).PixelRect(bounds)

			require.True(t, rect.In(bounds),
				"geometry %+v selection %+v produced %v outside %v", g, sel, rect, bounds)
			require.Positive(t, rect.Dx())
			require.Positive(t, rect.Dy())
		}
	}
}

func TestPixelRect_OutsideSelectionPinsToCorner(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	rect := NativeRect{X: 500, Y: 500, Width: 10, Height: 10}.PixelRect(bounds)

	assert.True(t, rect.In(bounds))
	assert.Equal(t, 1, rect.Dx())
	assert.Equal(t, 1, rect.Dy())
}

func TestPixelRect_TinySelectionYieldsOnePixel(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	rect := NativeRect{X: 10, Y: 10, Width: 0.2, Height: 0.2}.PixelRect(bounds)

	assert.Equal(t, image.Rect(10, 10, 11, 11), rect)
}

func TestDisplayGeometry_Valid(t *testing.T) {
	assert.True(t, DisplayGeometry{1, 1, 1, 1}.Valid())
	assert.False(t, DisplayGeometry{0, 1, 1, 1}.Valid())
	assert.False(t, DisplayGeometry{1, 1, -5, 1}.Valid())
}
