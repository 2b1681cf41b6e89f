// Package geom defines the integer polygon model shared by the clipping,
// containment and extrusion packages.
//
// Coordinates are fixed-point integers produced by scaling plane
// coordinates (see package convert). Area is positive for
// counter-clockwise paths in a Y-up frame, matching the clipping backend.
package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerate reports input with fewer than three points or zero area
// where an empty result would be meaningless.
var ErrDegenerate = errors.New("geom: degenerate polygon")

// Point is a scaled integer plane coordinate.
type Point struct {
	X, Y int64
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Path is an ordered point sequence, implicitly closed (the last point
// connects to the first).
type Path []Point

// Set is an ordered list of paths.
type Set []Path

// Clone returns a deep copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Area returns the signed shoelace area.
func (p Path) Area() float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	var a float64
	j := n - 1
	for i := 0; i < n; i++ {
		a += float64(p[j].X)*float64(p[i].Y) - float64(p[i].X)*float64(p[j].Y)
		j = i
	}
	return a / 2
}

// Orientation reports whether p is counter-clockwise (non-negative area).
func (p Path) Orientation() bool {
	return p.Area() >= 0
}

// Reverse reverses p in place.
func (p Path) Reverse() {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

// Normalize reverses p in place when its orientation differs from ccw.
// Applying it twice is a no-op.
func (p Path) Normalize(ccw bool) {
	if len(p) < 3 {
		return
	}
	if p.Orientation() != ccw {
		p.Reverse()
	}
}

// IsDegenerate reports fewer than three points or zero area.
func (p Path) IsDegenerate() bool {
	return len(p) < 3 || p.Area() == 0
}

// Bounds returns the bounding box of p. ok is false for an empty path.
func (p Path) Bounds() (r Rect, ok bool) {
	if len(p) == 0 {
		return Rect{}, false
	}
	r = Rect{Min: p[0], Max: p[0]}
	for _, pt := range p[1:] {
		r = r.Include(pt)
	}
	return r, true
}

// Clone returns a deep copy of s.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for i, p := range s {
		out[i] = p.Clone()
	}
	return out
}

// Area sums the signed areas of all paths in s. Holes, being clockwise,
// subtract from outer contours.
func (s Set) Area() float64 {
	var a float64
	for _, p := range s {
		a += p.Area()
	}
	return a
}

// PointCount returns the total number of points in s.
func (s Set) PointCount() int {
	n := 0
	for _, p := range s {
		n += len(p)
	}
	return n
}

// Bounds returns the bounding box of all points in s.
func (s Set) Bounds() (r Rect, ok bool) {
	for _, p := range s {
		pr, pok := p.Bounds()
		if !pok {
			continue
		}
		if !ok {
			r, ok = pr, true
			continue
		}
		r = r.Union(pr)
	}
	return r, ok
}

// Rect is an axis-aligned integer box.
type Rect struct {
	Min, Max Point
}

// Include grows r to contain pt.
func (r Rect) Include(pt Point) Rect {
	r.Min.X = min(r.Min.X, pt.X)
	r.Min.Y = min(r.Min.Y, pt.Y)
	r.Max.X = max(r.Max.X, pt.X)
	r.Max.Y = max(r.Max.Y, pt.Y)
	return r
}

// Union returns the smallest box containing r and o.
func (r Rect) Union(o Rect) Rect {
	return r.Include(o.Min).Include(o.Max)
}

// Overlaps reports whether r and o share at least a boundary point.
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X &&
		r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Width returns the horizontal extent.
func (r Rect) Width() int64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent.
func (r Rect) Height() int64 { return r.Max.Y - r.Min.Y }

// Round converts a float coordinate to the nearest integer point.
func Round(x, y float64) Point {
	return Point{int64(math.Round(x)), int64(math.Round(y))}
}
