package region

import "fmt"

// Rect is a half-open rectangle [Left,Right) x [Top,Bottom) in window-local
// surface coordinates.
type Rect struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// XYWH builds a Rect from an origin and a size.
func XYWH(x, y, width, height int) Rect {
	return Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

// X returns the left edge.
func (r Rect) X() int { return r.Left }

// Y returns the top edge.
func (r Rect) Y() int { return r.Top }

// Width returns the horizontal extent, or 0 for inverted rectangles.
func (r Rect) Width() int {
	if r.Right < r.Left {
		return 0
	}
	return r.Right - r.Left
}

// Height returns the vertical extent, or 0 for inverted rectangles.
func (r Rect) Height() int {
	if r.Bottom < r.Top {
		return 0
	}
	return r.Bottom - r.Top
}

// Empty reports whether r covers no points. Zero-sized and inverted
// rectangles are empty.
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Area returns the number of covered points.
func (r Rect) Area() int {
	return r.Width() * r.Height()
}

// Contains reports whether the point (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Intersect returns the overlap of r and o. The result is empty when they
// do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Overlaps reports whether r and o share at least one point.
func (r Rect) Overlaps(o Rect) bool {
	return !r.Intersect(o).Empty()
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d]-[%d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}
