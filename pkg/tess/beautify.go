package tess

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/strokemesh/pkg/geom"
)

type edgeKey struct{ a, b int }

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// constrainedEdges are the loop edges of a region; they must survive
// beautification.
func constrainedEdges(reg region) map[edgeKey]bool {
	fixed := map[edgeKey]bool{}
	add := func(r []int) {
		for i := range r {
			fixed[keyOf(r[i], r[(i+1)%len(r)])] = true
		}
	}
	add(reg.outer)
	for _, h := range reg.holes {
		add(h)
	}
	return fixed
}

// beautify flips unconstrained interior edges whose opposite vertex lies
// inside the circumcircle of the neighbouring triangle. Each pass flips a
// triangle at most once; passes stop when nothing changes.
func beautify(pts []v2.Vec, tris []Triangle, fixed map[edgeKey]bool) []Triangle {
	tris = append([]Triangle(nil), tris...)
	maxPasses := 4 + len(tris)
	for pass := 0; pass < maxPasses; pass++ {
		owners := make(map[edgeKey][]int, len(tris)*3/2)
		for ti, t := range tris {
			for e := 0; e < 3; e++ {
				k := keyOf(t[e], t[(e+1)%3])
				owners[k] = append(owners[k], ti)
			}
		}

		touched := make([]bool, len(tris))
		flipped := 0
		for ti := range tris {
			for e := 0; e < 3 && !touched[ti]; e++ {
				t := tris[ti]
				a, b, c := t[e], t[(e+1)%3], t[(e+2)%3]
				k := keyOf(a, b)
				if fixed[k] || len(owners[k]) != 2 {
					continue
				}
				tj := owners[k][0]
				if tj == ti {
					tj = owners[k][1]
				}
				if touched[tj] {
					continue
				}
				d := opposite(tris[tj], a, b)
				if d < 0 || !shouldFlip(pts[a], pts[b], pts[c], pts[d]) {
					continue
				}
				tris[ti] = Triangle{a, d, c}
				tris[tj] = Triangle{d, b, c}
				touched[ti], touched[tj] = true, true
				flipped++
			}
		}
		if flipped == 0 {
			break
		}
	}
	return tris
}

func opposite(t Triangle, a, b int) int {
	for _, v := range t {
		if v != a && v != b {
			return v
		}
	}
	return -1
}

// shouldFlip decides whether edge a-b of counter-clockwise triangle
// a-b-c should be replaced by c-d, d lying across a-b.
func shouldFlip(a, b, c, d v2.Vec) bool {
	if cross(a, d, c) <= 0 || cross(d, b, c) <= 0 {
		return false
	}
	center, inv, ok := geom.Concyclic(a, b, c)
	if !ok {
		// a-b-c is a sliver; any convex replacement is better.
		return true
	}
	r := 1 / inv
	return math.Hypot(d.X-center.X, d.Y-center.Y) < r*(1-1e-9)
}
