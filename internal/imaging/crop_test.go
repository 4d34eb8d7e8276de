package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testImage builds an image where every pixel value encodes its position,
// so crops can be verified pixel for pixel.
func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func TestCropPipeline_ConfirmWithoutSelectionPassesThrough(t *testing.T) {
	src, err := EncodePNG(testImage(40, 40))
	require.NoError(t, err)

	p, err := NewCropPipeline(src, DisplayGeometry{DisplayWidth: 20, DisplayHeight: 20, NativeWidth: 40, NativeHeight: 40})
	require.NoError(t, err)

	out, err := p.Confirm()
	require.NoError(t, err)

	// Bit for bit the original payload: no decode/re-encode cycle.
	assert.Equal(t, src, out)
}

func TestCropPipeline_ClickWithoutDragPassesThrough(t *testing.T) {
	src, err := EncodePNG(testImage(40, 40))
	require.NoError(t, err)

	p, err := NewCropPipeline(src, DisplayGeometry{DisplayWidth: 20, DisplayHeight: 20, NativeWidth: 40, NativeHeight: 40})
	require.NoError(t, err)

	// A click fixes a zero-size selection; that still means "whole image",
	// never a zero-area crop.
	p.Selection().BeginDrag(Point{X: 7, Y: 7})
	p.Selection().EndDrag()

	out, err := p.Confirm()
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestCropPipeline_ConfirmExtractsExactPixels(t *testing.T) {
	base := testImage(40, 40)
	src, err := EncodePNG(base)
	require.NoError(t, err)

	// Displayed at half size in both axes.
	p, err := NewCropPipeline(src, DisplayGeometry{DisplayWidth: 20, DisplayHeight: 20, NativeWidth: 40, NativeHeight: 40})
	require.NoError(t, err)

	p.Selection().BeginDrag(Point{X: 5, Y: 5})
	p.Selection().MoveTo(Point{X: 10, Y: 10})
	p.Selection().EndDrag()

	out, err := p.Confirm()
	require.NoError(t, err)

	cropped, err := out.Decode()
	require.NoError(t, err)

	// Display (5,5)-(10,10) maps to native (10,10)-(20,20).
	require.Equal(t, 10, cropped.Bounds().Dx())
	require.Equal(t, 10, cropped.Bounds().Dy())
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			want := base.RGBAAt(10+x, 10+y)
			r, g, b, _ := cropped.At(cropped.Bounds().Min.X+x, cropped.Bounds().Min.Y+y).RGBA()
			assert.Equal(t, uint32(want.R), r>>8, "pixel (%d,%d) red", x, y)
			assert.Equal(t, uint32(want.G), g>>8, "pixel (%d,%d) green", x, y)
			assert.Equal(t, uint32(want.B), b>>8, "pixel (%d,%d) blue", x, y)
		}
	}
}

func TestCropPipeline_ReselectKeepsSource(t *testing.T) {
	src, err := EncodePNG(testImage(8, 8))
	require.NoError(t, err)

	p, err := NewCropPipeline(src, DisplayGeometry{DisplayWidth: 8, DisplayHeight: 8, NativeWidth: 8, NativeHeight: 8})
	require.NoError(t, err)

	p.Selection().BeginDrag(Point{X: 1, Y: 1})
	p.Selection().MoveTo(Point{X: 4, Y: 4})
	p.Selection().EndDrag()
	p.Reselect()

	assert.Equal(t, SelectionIdle, p.Selection().Phase())
	assert.Equal(t, src, p.Source())
}

func TestNewCropPipeline_Validation(t *testing.T) {
	src, err := EncodePNG(testImage(4, 4))
	require.NoError(t, err)

	_, err = NewCropPipeline("", DisplayGeometry{1, 1, 1, 1})
	assert.Error(t, err)

	_, err = NewCropPipeline(src, DisplayGeometry{DisplayWidth: 0, DisplayHeight: 5, NativeWidth: 4, NativeHeight: 4})
	assert.Error(t, err)
}
