package imaging

import "math"

// SelectionPhase identifies where a drag selection is in its lifecycle.
type SelectionPhase int

const (
	// SelectionIdle means no selection exists and the view shows the
	// crosshair-ready state.
	SelectionIdle SelectionPhase = iota
	// SelectionDragging means the anchor is fixed and the rectangle follows
	// the pointer.
	SelectionDragging
	// SelectionHeld means the pointer was released; the rectangle stays
	// visible and can only be replaced by starting a new drag.
	SelectionHeld
)

// Point is a position in display coordinate space.
type Point struct {
	X float64
	Y float64
}

// SelectionState tracks an in-progress rectangular drag selection as an
// explicit state machine. It is event driven with no timers; transitions
// that are illegal for the current phase are ignored.
type SelectionState struct {
	phase  SelectionPhase
	anchor Point
	rect   SelectionRect
}

// NewSelectionState returns a selection in the Idle phase.
func NewSelectionState() *SelectionState {
	return &SelectionState{}
}

// Phase returns the current lifecycle phase.
func (s *SelectionState) Phase() SelectionPhase {
	return s.phase
}

// Rect returns the current selection rectangle. It is zero-sized while Idle.
func (s *SelectionState) Rect() SelectionRect {
	return s.rect
}

// Active reports whether a non-degenerate selection exists.
func (s *SelectionState) Active() bool {
	return s.phase != SelectionIdle && !s.rect.Empty()
}

// BeginDrag starts a new drag at p. Allowed from Idle and from Held (which
// restarts the selection); ignored while already dragging.
func (s *SelectionState) BeginDrag(p Point) {
	if s.phase == SelectionDragging {
		return
	}
	s.phase = SelectionDragging
	s.anchor = p
	s.rect = SelectionRect{X: p.X, Y: p.Y}
}

// MoveTo updates the rectangle to the axis-aligned bounding box of the
// anchor and p. The min/abs construction keeps the rect valid regardless of
// drag direction. Ignored unless dragging.
func (s *SelectionState) MoveTo(p Point) {
	if s.phase != SelectionDragging {
		return
	}
	s.rect = SelectionRect{
		X:      math.Min(p.X, s.anchor.X),
		Y:      math.Min(p.Y, s.anchor.Y),
		Width:  math.Abs(p.X - s.anchor.X),
		Height: math.Abs(p.Y - s.anchor.Y),
	}
}

// EndDrag fixes the rectangle in place. Ignored unless dragging.
func (s *SelectionState) EndDrag() {
	if s.phase != SelectionDragging {
		return
	}
	s.phase = SelectionHeld
}

// Reset clears the selection back to the Idle phase.
func (s *SelectionState) Reset() {
	s.phase = SelectionIdle
	s.anchor = Point{}
	s.rect = SelectionRect{}
}
