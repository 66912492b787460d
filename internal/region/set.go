// Package region implements exact 2-D regions built from integer rectangles.
//
// A Set is a value: Add and Subtract return a new Set and never modify the
// receiver, so a Set handed to a consumer stays fixed regardless of what the
// producer does next.
package region

import (
	"slices"
	"sort"
)

// Set is a region of the plane stored as a canonical YX-banded list of
// disjoint rectangles. The zero value is the empty region.
type Set struct {
	rects []Rect
}

// Empty returns the region covering no points.
func Empty() Set {
	return Set{}
}

// FromRects returns the union of rects.
func FromRects(rects ...Rect) Set {
	s := Empty()
	for _, r := range rects {
		s = s.Add(r)
	}
	return s
}

// Add returns s united with r. Empty rectangles leave s unchanged.
func (s Set) Add(r Rect) Set {
	if r.Empty() {
		return s
	}
	return Set{rects: s.sweep(r, unionSpan)}
}

// Subtract returns s with the points of r removed. Subtracting area s does
// not cover, or an empty rectangle, leaves s unchanged.
func (s Set) Subtract(r Rect) Set {
	if r.Empty() || !slices.ContainsFunc(s.rects, r.Overlaps) {
		return s
	}
	return Set{rects: s.sweep(r, subtractSpan)}
}

// Rects returns the disjoint rectangles covering s in YX-banded order: sorted
// by top edge, then by left edge. Equal regions return equal lists. The
// returned slice is a copy.
func (s Set) Rects() []Rect {
	return slices.Clone(s.rects)
}

// Len returns the number of rectangles in the canonical decomposition.
func (s Set) Len() int {
	return len(s.rects)
}

// IsEmpty reports whether s covers no points.
func (s Set) IsEmpty() bool {
	return len(s.rects) == 0
}

// Contains reports whether the point (x, y) is covered.
func (s Set) Contains(x, y int) bool {
	for _, r := range s.rects {
		if r.Top > y {
			break
		}
		if r.Contains(x, y) {
			return true
		}
	}
	return false
}

// Bounds returns the smallest rectangle enclosing s, or the zero Rect when s
// is empty.
func (s Set) Bounds() Rect {
	if len(s.rects) == 0 {
		return Rect{}
	}
	b := s.rects[0]
	for _, r := range s.rects[1:] {
		b.Left = min(b.Left, r.Left)
		b.Top = min(b.Top, r.Top)
		b.Right = max(b.Right, r.Right)
		b.Bottom = max(b.Bottom, r.Bottom)
	}
	return b
}

// Area returns the number of covered points.
func (s Set) Area() int {
	total := 0
	for _, r := range s.rects {
		total += r.Area()
	}
	return total
}

// Equal reports whether s and o cover exactly the same points.
func (s Set) Equal(o Set) bool {
	return slices.Equal(s.rects, o.rects)
}

type span struct {
	left, right int
}

type band struct {
	top, bottom int
	spans       []span
}

// bands groups the canonical rectangles of s by band. Rectangles sharing a
// top edge share the bottom edge too.
func (s Set) bands() []band {
	var out []band
	for _, r := range s.rects {
		if n := len(out); n > 0 && out[n-1].top == r.Top {
			out[n-1].spans = append(out[n-1].spans, span{r.Left, r.Right})
			continue
		}
		out = append(out, band{top: r.Top, bottom: r.Bottom, spans: []span{{r.Left, r.Right}}})
	}
	return out
}

// sweep walks the y intervals delimited by the band edges of s and the
// vertical edges of r, applies op with r's horizontal extent to the
// intervals r covers, and rebuilds canonical bands. It runs in time linear
// in the size of s, apart from sorting the edges.
func (s Set) sweep(r Rect, op func([]span, span) []span) []Rect {
	bands := s.bands()
	ys := make([]int, 0, 2*len(bands)+2)
	for _, b := range bands {
		ys = append(ys, b.top, b.bottom)
	}
	ys = append(ys, r.Top, r.Bottom)
	sort.Ints(ys)
	ys = slices.Compact(ys)

	cut := span{r.Left, r.Right}
	var out builder
	bi := 0
	for i := 0; i+1 < len(ys); i++ {
		top, bottom := ys[i], ys[i+1]
		for bi < len(bands) && bands[bi].bottom <= top {
			bi++
		}
		var spans []span
		if bi < len(bands) && bands[bi].top <= top {
			spans = bands[bi].spans
		}
		if top >= r.Top && bottom <= r.Bottom {
			spans = op(spans, cut)
		}
		out.push(top, bottom, spans)
	}
	return out.rects
}

// builder appends bands in increasing y order, merging a band into the
// previous one when they touch and have identical spans.
type builder struct {
	rects      []Rect
	last       []span
	lastStart  int
	lastBottom int
}

func (b *builder) push(top, bottom int, spans []span) {
	if len(spans) == 0 {
		return
	}
	if len(b.rects) > 0 && b.lastBottom == top && slices.Equal(b.last, spans) {
		for j := b.lastStart; j < len(b.rects); j++ {
			b.rects[j].Bottom = bottom
		}
		b.lastBottom = bottom
		return
	}
	b.lastStart = len(b.rects)
	for _, sp := range spans {
		b.rects = append(b.rects, Rect{Left: sp.left, Top: top, Right: sp.right, Bottom: bottom})
	}
	b.last = spans
	b.lastBottom = bottom
}

// unionSpan merges c into the sorted disjoint spans. Touching spans join.
func unionSpan(spans []span, c span) []span {
	out := make([]span, 0, len(spans)+1)
	i := 0
	for ; i < len(spans) && spans[i].right < c.left; i++ {
		out = append(out, spans[i])
	}
	for ; i < len(spans) && spans[i].left <= c.right; i++ {
		c.left = min(c.left, spans[i].left)
		c.right = max(c.right, spans[i].right)
	}
	out = append(out, c)
	return append(out, spans[i:]...)
}

// subtractSpan removes c from the sorted disjoint spans.
func subtractSpan(spans []span, c span) []span {
	out := make([]span, 0, len(spans)+1)
	for _, sp := range spans {
		if sp.right <= c.left || sp.left >= c.right {
			out = append(out, sp)
			continue
		}
		if sp.left < c.left {
			out = append(out, span{sp.left, c.left})
		}
		if sp.right > c.right {
			out = append(out, span{c.right, sp.right})
		}
	}
	return out
}
