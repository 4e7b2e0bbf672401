package valueobjects

import (
	"fmt"
	"math"
)

// Position is a point in board coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition creates a position, rejecting non-finite coordinates.
func NewPosition(x, y float64) (Position, error) {
	if !isFinite(x) || !isFinite(y) {
		return Position{}, fmt.Errorf("position coordinates must be finite")
	}
	return Position{X: x, Y: y}, nil
}

// Equals reports whether two positions are identical.
func (p Position) Equals(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

// Size is the rendered extent of a node.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a size, rejecting non-positive or non-finite extents.
func NewSize(width, height float64) (Size, error) {
	if !isFinite(width) || !isFinite(height) {
		return Size{}, fmt.Errorf("size must be finite")
	}
	if width <= 0 || height <= 0 {
		return Size{}, fmt.Errorf("size must be positive")
	}
	return Size{Width: width, Height: height}, nil
}

// IsZero reports whether the size is unset.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Equals reports whether two sizes are identical.
func (s Size) Equals(other Size) bool {
	return s.Width == other.Width && s.Height == other.Height
}

// Viewport is the visible window onto the board: a pan offset plus a
// zoom factor.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DefaultViewport returns the viewport used when no snapshot exists.
func DefaultViewport() Viewport {
	return Viewport{X: 0, Y: 0, Zoom: 1}
}

// NewViewport creates a viewport, rejecting non-finite values and
// non-positive zoom.
func NewViewport(x, y, zoom float64) (Viewport, error) {
	if !isFinite(x) || !isFinite(y) || !isFinite(zoom) {
		return Viewport{}, fmt.Errorf("viewport values must be finite")
	}
	if zoom <= 0 {
		return Viewport{}, fmt.Errorf("viewport zoom must be positive")
	}
	return Viewport{X: x, Y: y, Zoom: zoom}, nil
}

// IsZero reports whether the viewport is unset.
func (v Viewport) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Zoom == 0
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
