package tess

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	earcut "github.com/rclancey/go-earcut"

	"github.com/chazu/strokemesh/pkg/logging"
)

// EarcutName is the registry key of the ear clipping triangulator.
const EarcutName = "earcut"

// Compile-time interface check.
var _ Triangulator = (*EarClipper)(nil)

// EarClipper triangulates with the earcut algorithm. Loops are grouped
// into regions first so each call sees one outer ring and its holes.
type EarClipper struct {
	// Beautify flips interior edges toward a Delaunay triangulation,
	// which avoids long slivers.
	Beautify bool
}

// New returns an ear clipper with beautification on.
func New() *EarClipper {
	return &EarClipper{Beautify: true}
}

// region is one outer loop with the holes directly inside it.
type region struct {
	outer []int
	holes [][]int
}

// Triangulate fills the even-odd region bounded by loops. Loops with
// fewer than three points or no area are ignored.
func (ec *EarClipper) Triangulate(loops [][]v2.Vec) ([]Triangle, error) {
	pts, rings := Flatten(loops)
	valid := rings[:0:0]
	for _, r := range rings {
		if len(r) >= 3 && ringArea(pts, r) != 0 {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	var tris []Triangle
	for _, reg := range nest(pts, valid) {
		t, err := clipRegion(pts, reg)
		if err != nil {
			return nil, err
		}
		if ec.Beautify {
			t = beautify(pts, t, constrainedEdges(reg))
		}
		tris = append(tris, t...)
	}
	return tris, nil
}

// clipRegion runs earcut over one region and maps its vertex indices
// back to pts. Triangles come back counter-clockwise; slivers with no
// area are dropped.
func clipRegion(pts []v2.Vec, reg region) ([]Triangle, error) {
	index := append([]int(nil), reg.outer...)
	var holeStarts []int
	for _, h := range reg.holes {
		holeStarts = append(holeStarts, len(index))
		index = append(index, h...)
	}
	data := make([]float64, 0, 2*len(index))
	for _, i := range index {
		data = append(data, pts[i].X, pts[i].Y)
	}

	flat, err := earcut.Earcut(data, holeStarts, 2)
	if err != nil {
		return nil, fmt.Errorf("earcut: %w", err)
	}
	if want := len(index) - 2 + 2*len(reg.holes); len(flat)/3 < want {
		logging.Logger().Debug("earcut dropped triangles",
			"points", len(index), "holes", len(reg.holes), "got", len(flat)/3, "want", want)
	}

	tris := make([]Triangle, 0, len(flat)/3)
	for k := 0; k+2 < len(flat); k += 3 {
		t := Triangle{index[flat[k]], index[flat[k+1]], index[flat[k+2]]}
		switch c := cross(pts[t[0]], pts[t[1]], pts[t[2]]); {
		case c < 0:
			t[1], t[2] = t[2], t[1]
		case c == 0:
			continue
		}
		tris = append(tris, t)
	}
	return tris, nil
}

// ---------------------------------------------------------------------------
// Nesting
// ---------------------------------------------------------------------------

// nest groups rings into regions by nesting depth: even depth bounds
// fill, odd depth a hole of the ring one level up that contains it.
func nest(pts []v2.Vec, rings [][]int) []region {
	n := len(rings)
	containers := make([][]int, n)
	for i := range rings {
		for j := range rings {
			if i != j && ringInside(pts, rings[i], rings[j]) {
				containers[i] = append(containers[i], j)
			}
		}
	}

	regionOf := map[int]int{}
	var regions []region
	for i := range rings {
		if len(containers[i])%2 == 0 {
			regionOf[i] = len(regions)
			regions = append(regions, region{outer: rings[i]})
		}
	}
	for i := range rings {
		depth := len(containers[i])
		if depth%2 == 0 {
			continue
		}
		for _, j := range containers[i] {
			if len(containers[j]) == depth-1 {
				r := regionOf[j]
				regions[r].holes = append(regions[r].holes, rings[i])
				break
			}
		}
	}
	return regions
}

// ringInside reports whether ring a lies inside ring b, judged by the
// first vertex of a that is not on b's boundary.
func ringInside(pts []v2.Vec, a, b []int) bool {
	for _, i := range a {
		switch pointInRing(pts[i], pts, b) {
		case 1:
			return true
		case 0:
			return false
		}
	}
	return false
}

// pointInRing returns 0 outside, 1 inside and -1 on the boundary.
func pointInRing(p v2.Vec, pts []v2.Vec, ring []int) int {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := pts[ring[j]], pts[ring[i]]
		if cross(a, b, p) == 0 && between(a, b, p) {
			return -1
		}
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	if inside {
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func cross(a, b, c v2.Vec) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// between assumes p is colinear with a-b.
func between(a, b, p v2.Vec) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

func ringArea(pts []v2.Vec, ring []int) float64 {
	var a float64
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a += pts[ring[j]].X*pts[ring[i]].Y - pts[ring[i]].X*pts[ring[j]].Y
	}
	return a / 2
}
