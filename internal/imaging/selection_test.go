package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionState_DragLifecycle(t *testing.T) {
	s := NewSelectionState()
	assert.Equal(t, SelectionIdle, s.Phase())
	assert.False(t, s.Active())

	s.BeginDrag(Point{X: 10, Y: 10})
	assert.Equal(t, SelectionDragging, s.Phase())
	assert.Equal(t, SelectionRect{X: 10, Y: 10}, s.Rect())

	s.MoveTo(Point{X: 30, Y: 25})
	assert.Equal(t, SelectionRect{X: 10, Y: 10, Width: 20, Height: 15}, s.Rect())

	s.EndDrag()
	assert.Equal(t, SelectionHeld, s.Phase())
	assert.True(t, s.Active())
	assert.Equal(t, SelectionRect{X: 10, Y: 10, Width: 20, Height: 15}, s.Rect())

	s.Reset()
	assert.Equal(t, SelectionIdle, s.Phase())
	assert.True(t, s.Rect().Empty())
}

func TestSelectionState_DirectionIndependent(t *testing.T) {
	// Dragging between the same pair of corners in all four diagonal
	// directions must produce the same rectangle.
	a := Point{X: 5, Y: 8}
	b := Point{X: 25, Y: 40}
	want := SelectionRect{X: 5, Y: 8, Width: 20, Height: 32}

	pairs := [][2]Point{
		{a, b},
		{b, a},
		{{X: a.X, Y: b.Y}, {X: b.X, Y: a.Y}},
		{{X: b.X, Y: a.Y}, {X: a.X, Y: b.Y}},
	}
	for _, pair := range pairs {
		s := NewSelectionState()
		s.BeginDrag(pair[0])
		s.MoveTo(pair[1])
		s.EndDrag()
		assert.Equal(t, want, s.Rect(), "drag %+v -> %+v", pair[0], pair[1])
	}
}

func TestSelectionState_RestartFromHeld(t *testing.T) {
	s := NewSelectionState()
	s.BeginDrag(Point{X: 0, Y: 0})
	s.MoveTo(Point{X: 10, Y: 10})
	s.EndDrag()

	// A new drag replaces the held rect.
	s.BeginDrag(Point{X: 50, Y: 50})
	assert.Equal(t, SelectionDragging, s.Phase())
	assert.Equal(t, SelectionRect{X: 50, Y: 50}, s.Rect())
}

func TestSelectionState_IllegalTransitionsIgnored(t *testing.T) {
	s := NewSelectionState()

	// MoveTo and EndDrag outside a drag do nothing.
	s.MoveTo(Point{X: 10, Y: 10})
	assert.Equal(t, SelectionIdle, s.Phase())
	s.EndDrag()
	assert.Equal(t, SelectionIdle, s.Phase())

	// BeginDrag while dragging keeps the original anchor.
	s.BeginDrag(Point{X: 1, Y: 1})
	s.BeginDrag(Point{X: 9, Y: 9})
	s.MoveTo(Point{X: 2, Y: 2})
	assert.Equal(t, SelectionRect{X: 1, Y: 1, Width: 1, Height: 1}, s.Rect())
}

func TestSelectionState_ClickWithoutDragStaysEmpty(t *testing.T) {
	s := NewSelectionState()
	s.BeginDrag(Point{X: 4, Y: 4})
	s.EndDrag()

	assert.Equal(t, SelectionHeld, s.Phase())
	assert.True(t, s.Rect().Empty())
	assert.False(t, s.Active())
}
