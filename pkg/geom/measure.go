package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// colinearTolerance bounds the determinant below which three points are
// treated as lying on one line.
const colinearTolerance = 1e-9

// Concyclic returns the circumcentre of three plane points and the
// reciprocal of the circumradius. ok is false when the points are
// colinear (no circle passes through them).
func Concyclic(p0, p1, p2 v2.Vec) (center v2.Vec, invRadius float64, ok bool) {
	a := 2 * (p1.X - p0.X)
	b := 2 * (p1.Y - p0.Y)
	c := p1.X*p1.X - p0.X*p0.X + p1.Y*p1.Y - p0.Y*p0.Y
	d := 2 * (p2.X - p0.X)
	e := 2 * (p2.Y - p0.Y)
	f := p2.X*p2.X - p0.X*p0.X + p2.Y*p2.Y - p0.Y*p0.Y
	det := a*e - b*d

	// Scale the tolerance with the input magnitude so large fixed-point
	// coordinates are judged the same way as small ones.
	mag := math.Max(math.Abs(a), math.Abs(b)) * math.Max(math.Abs(d), math.Abs(e))
	if math.Abs(det) <= colinearTolerance*math.Max(mag, 1) {
		return v2.Vec{}, 0, false
	}

	center = v2.Vec{X: (c*e - f*b) / det, Y: (a*f - c*d) / det}
	r := math.Hypot(p0.X-center.X, p0.Y-center.Y)
	if r == 0 {
		return v2.Vec{}, 0, false
	}
	return center, 1 / r, true
}

// SegmentsIntersect reports whether segments p1-p2 and p3-p4 share a
// point, including touching endpoints and colinear overlap.
func SegmentsIntersect(p1, p2, p3, p4 v2.Vec) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(p3, p4, p1):
		return true
	case d2 == 0 && onSegment(p3, p4, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, p3):
		return true
	case d4 == 0 && onSegment(p1, p2, p4):
		return true
	}
	return false
}

func cross(a, b, c v2.Vec) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment assumes c is colinear with a-b.
func onSegment(a, b, c v2.Vec) bool {
	return math.Min(a.X, b.X) <= c.X && c.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= c.Y && c.Y <= math.Max(a.Y, b.Y)
}

// PathsCross reports whether any edge of closed path a intersects any
// edge of closed path b. Containment without crossing returns false.
func PathsCross(a, b []v2.Vec) bool {
	na, nb := len(a), len(b)
	if na < 2 || nb < 2 {
		return false
	}
	for i := 0; i < na; i++ {
		a0, a1 := a[i], a[(i+1)%na]
		for j := 0; j < nb; j++ {
			if SegmentsIntersect(a0, a1, b[j], b[(j+1)%nb]) {
				return true
			}
		}
	}
	return false
}

// ToVec converts p to float plane coordinates.
func (p Point) ToVec() v2.Vec {
	return v2.Vec{X: float64(p.X), Y: float64(p.Y)}
}

// Vecs converts p to float plane coordinates.
func (p Path) Vecs() []v2.Vec {
	out := make([]v2.Vec, len(p))
	for i, pt := range p {
		out[i] = pt.ToVec()
	}
	return out
}
