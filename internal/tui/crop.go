package tui

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	xdraw "golang.org/x/image/draw"

	"github.com/ops-agent/cli/internal/imaging"
)

// CropView displays a captured image and lets the user drag-select a
// rectangular region with the mouse. Confirming without a drag sends the
// whole image; the selection is measured in displayed cells and mapped back
// to native pixels by the crop pipeline.
type CropView struct {
	app    *App
	flex   *tview.Flex
	canvas *tview.Box
	info   *tview.TextView

	source   imaging.EncodedImage
	preview  image.Image
	nativeW  int
	nativeH  int
	pipeline *imaging.CropPipeline

	// Rendered state, refreshed by the draw func. Each cell shows two
	// vertically stacked pixels via the upper-half-block rune.
	scaled  *image.RGBA
	cellsW  int
	cellsH  int
	originX int
	originY int

	onDone func(img imaging.EncodedImage, ok bool)
}

// NewCropView creates the crop page.
func NewCropView(app *App) *CropView {
	cv := &CropView{app: app}

	cv.canvas = tview.NewBox()
	cv.canvas.SetDrawFunc(cv.draw)

	cv.info = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetTextAlign(tview.AlignCenter)

	cv.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(cv.canvas, 0, 1, true).
		AddItem(cv.info, 1, 0, false)
	cv.flex.SetBorder(true).SetTitle(" Crop ")

	return cv
}

// GetPrimitive returns the tview primitive
func (cv *CropView) GetPrimitive() tview.Primitive {
	return cv.flex
}

// Show loads a captured image into the view. onDone fires exactly once:
// with the crop output on confirm, or ok=false on cancel.
func (cv *CropView) Show(img imaging.EncodedImage, onDone func(imaging.EncodedImage, bool)) {
	decoded, err := img.Decode()
	if err != nil {
		cv.app.ShowError(err)
		onDone("", false)
		return
	}

	cv.source = img
	cv.preview = decoded
	cv.nativeW = decoded.Bounds().Dx()
	cv.nativeH = decoded.Bounds().Dy()
	cv.pipeline = nil
	cv.cellsW, cv.cellsH = 0, 0
	cv.onDone = onDone
	cv.updateInfo()

	cv.app.app.SetMouseCapture(cv.handleMouse)
}

// HandleKey processes crop-page key events. Returns nil when consumed.
func (cv *CropView) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	switch {
	case event.Key() == tcell.KeyEnter:
		cv.confirm()
		return nil
	case event.Key() == tcell.KeyEsc:
		cv.cancel()
		return nil
	case event.Rune() == 'r' || event.Rune() == 'R':
		if cv.pipeline != nil {
			cv.pipeline.Reselect()
			cv.updateInfo()
		}
		return nil
	}
	return event
}

func (cv *CropView) confirm() {
	if cv.pipeline == nil {
		cv.cancel()
		return
	}
	out, err := cv.pipeline.Confirm()
	if err != nil {
		cv.app.ShowError(err)
		cv.finish("", false)
		return
	}
	cv.finish(out, true)
}

func (cv *CropView) cancel() {
	if cv.pipeline != nil {
		cv.pipeline.Cancel()
	}
	cv.finish("", false)
}

func (cv *CropView) finish(img imaging.EncodedImage, ok bool) {
	cv.app.app.SetMouseCapture(nil)
	cv.source = ""
	cv.preview = nil
	cv.pipeline = nil
	cv.scaled = nil
	if cv.onDone != nil {
		done := cv.onDone
		cv.onDone = nil
		done(img, ok)
	}
}

// handleMouse drives the drag-selection state machine. Leaving the canvas
// while dragging ends the drag, same as releasing the button.
func (cv *CropView) handleMouse(event *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
	if cv.pipeline == nil {
		return event, action
	}

	mx, my := event.Position()
	inside := mx >= cv.originX && mx < cv.originX+cv.cellsW &&
		my >= cv.originY && my < cv.originY+cv.cellsH
	p := imaging.Point{
		X: clampF(float64(mx-cv.originX), 0, float64(cv.cellsW)),
		Y: clampF(float64(my-cv.originY), 0, float64(cv.cellsH)),
	}
	sel := cv.pipeline.Selection()

	switch action {
	case tview.MouseLeftDown:
		if inside {
			// From Held this restarts the selection.
			sel.BeginDrag(p)
		}
	case tview.MouseMove:
		if sel.Phase() == imaging.SelectionDragging {
			if inside {
				sel.MoveTo(p)
			} else {
				sel.EndDrag()
			}
		}
	case tview.MouseLeftUp:
		sel.EndDrag()
	default:
		return event, action
	}

	cv.updateInfo()
	return nil, action
}

func (cv *CropView) updateInfo() {
	if cv.pipeline == nil || !cv.pipeline.Selection().Active() {
		cv.info.SetText("drag to select a region - [yellow]Enter[white] send full image  [yellow]Esc[white] cancel")
		return
	}
	rect := imaging.MapSelectionToNative(cv.pipeline.Selection().Rect(), cv.pipeline.Geometry())
	cv.info.SetText(fmt.Sprintf("%d x %d px - [yellow]Enter[white] confirm  [yellow]R[white] reselect  [yellow]Esc[white] cancel",
		int(rect.Width), int(rect.Height)))
}

// draw renders the preview into the canvas and (re)measures the display
// geometry. Geometry is taken from the rendered size, so terminal resizes
// rebuild the pipeline and drop any in-progress selection.
func (cv *CropView) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	if cv.preview == nil || width < 2 || height < 2 {
		return x, y, width, height
	}

	// Fit the image into the canvas preserving aspect ratio; each cell is
	// one pixel wide and two pixels tall.
	w, h := fitCells(cv.nativeW, cv.nativeH, width, height)
	cv.originX = x + (width-w)/2
	cv.originY = y + (height-h)/2

	if w != cv.cellsW || h != cv.cellsH || cv.pipeline == nil {
		cv.cellsW, cv.cellsH = w, h
		cv.scaled = image.NewRGBA(image.Rect(0, 0, w, 2*h))
		xdraw.ApproxBiLinear.Scale(cv.scaled, cv.scaled.Bounds(), cv.preview, cv.preview.Bounds(), xdraw.Over, nil)

		pipeline, err := imaging.NewCropPipeline(cv.source, imaging.DisplayGeometry{
			DisplayWidth:  float64(w),
			DisplayHeight: float64(h),
			NativeWidth:   float64(cv.nativeW),
			NativeHeight:  float64(cv.nativeH),
		})
		if err == nil {
			cv.pipeline = pipeline
		}
		cv.updateInfo()
	}

	sel := imaging.SelectionRect{}
	if cv.pipeline != nil {
		sel = cv.pipeline.Selection().Rect()
	}

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			top := cv.scaled.RGBAAt(col, 2*row)
			bottom := cv.scaled.RGBAAt(col, 2*row+1)

			// Dim everything outside an active selection, like a crop
			// overlay shade.
			if !sel.Empty() && !cellInSelection(col, row, sel) {
				top = dim(top)
				bottom = dim(bottom)
			}

			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			screen.SetContent(cv.originX+col, cv.originY+row, '▀', nil, style)
		}
	}

	// Content drawn by hand; nothing left for tview to fill.
	return x, y, 0, 0
}

func cellInSelection(col, row int, sel imaging.SelectionRect) bool {
	return float64(col) >= sel.X && float64(col) < sel.X+sel.Width &&
		float64(row) >= sel.Y && float64(row) < sel.Y+sel.Height
}

func dim(c color.RGBA) color.RGBA {
	c.R /= 3
	c.G /= 3
	c.B /= 3
	return c
}

// fitCells scales native pixel dimensions into the available cell grid,
// accounting for the 1x2 pixel shape of a terminal cell.
func fitCells(nativeW, nativeH, maxW, maxH int) (w, h int) {
	if nativeW <= 0 || nativeH <= 0 {
		return 1, 1
	}
	// Native rows per cell row is 2, so the effective aspect is halved.
	scaleW := float64(maxW) / float64(nativeW)
	scaleH := float64(2*maxH) / float64(nativeH)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	w = int(float64(nativeW) * scale)
	h = int(float64(nativeH) * scale / 2)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w > maxW {
		w = maxW
	}
	if h > maxH {
		h = maxH
	}
	return w, h
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
