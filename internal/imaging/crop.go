package imaging

import (
	"fmt"
	"image"
	"image/draw"
)

// CropPipeline ties a captured image, its on-screen geometry, and the drag
// selection together. Confirming with no selection passes the source image
// through untouched; confirming with a selection extracts the mapped native
// sub-rect as a 1:1 pixel copy, never resampling.
type CropPipeline struct {
	source    EncodedImage
	geometry  DisplayGeometry
	selection *SelectionState
}

// NewCropPipeline creates a pipeline for a captured image rendered with the
// given geometry.
func NewCropPipeline(source EncodedImage, geometry DisplayGeometry) (*CropPipeline, error) {
	if source == "" {
		return nil, fmt.Errorf("no source image")
	}
	if !geometry.Valid() {
		return nil, fmt.Errorf("invalid display geometry %+v", geometry)
	}
	return &CropPipeline{
		source:    source,
		geometry:  geometry,
		selection: NewSelectionState(),
	}, nil
}

// Source returns the uncropped captured image.
func (p *CropPipeline) Source() EncodedImage {
	return p.source
}

// Geometry returns the display geometry the selection is measured against.
func (p *CropPipeline) Geometry() DisplayGeometry {
	return p.geometry
}

// Selection returns the drag selection state for the interaction layer to
// drive.
func (p *CropPipeline) Selection() *SelectionState {
	return p.selection
}

// Confirm produces the crop output. A click without a drag leaves a
// degenerate selection and means "use the whole image": the original
// encoded payload is returned as is, with no re-encode.
func (p *CropPipeline) Confirm() (EncodedImage, error) {
	sel := p.selection.Rect()
	if sel.Empty() {
		return p.source, nil
	}

	src, err := p.source.Decode()
	if err != nil {
		return "", fmt.Errorf("failed to decode source image: %w", err)
	}

	rect := MapSelectionToNative(sel, p.geometry).PixelRect(src.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), src, rect.Min, draw.Src)

	return EncodePNG(out)
}

// Reselect clears the selection without discarding the source image.
func (p *CropPipeline) Reselect() {
	p.selection.Reset()
}

// Cancel discards the capture entirely. The pipeline must not be used
// afterwards.
func (p *CropPipeline) Cancel() {
	p.source = ""
	p.selection.Reset()
}
