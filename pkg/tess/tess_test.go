package tess

import (
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rect(x0, y0, w, h float64) []v2.Vec {
	return []v2.Vec{{X: x0, Y: y0}, {X: x0 + w, Y: y0}, {X: x0 + w, Y: y0 + h}, {X: x0, Y: y0 + h}}
}

func reversed(loop []v2.Vec) []v2.Vec {
	out := make([]v2.Vec, len(loop))
	for i, p := range loop {
		out[len(loop)-1-i] = p
	}
	return out
}

func circle(cx, cy, r float64, n int) []v2.Vec {
	out := make([]v2.Vec, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = v2.Vec{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return out
}

// checkFill asserts every triangle is counter-clockwise and the areas add
// up to want.
func checkFill(t *testing.T, loops [][]v2.Vec, tris []Triangle, want float64) {
	t.Helper()
	pts, _ := Flatten(loops)
	var total float64
	for _, tri := range tris {
		a := cross(pts[tri[0]], pts[tri[1]], pts[tri[2]]) / 2
		assert.Greater(t, a, 0.0, "triangle %v", tri)
		total += a
	}
	assert.InDelta(t, want, total, want*1e-9+1e-9)
}

func TestTriangulate(t *testing.T) {
	lShape := []v2.Vec{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 20}, {X: 0, Y: 20}}
	tests := []struct {
		name      string
		loops     [][]v2.Vec
		wantTris  int
		wantArea  float64
		beautify  bool
		allPoints bool
	}{
		{"square", [][]v2.Vec{rect(0, 0, 10, 10)}, 2, 100, true, true},
		{"clockwise square", [][]v2.Vec{reversed(rect(0, 0, 10, 10))}, 2, 100, true, true},
		{"concave", [][]v2.Vec{lShape}, 4, 300, false, true},
		{"square with hole", [][]v2.Vec{rect(0, 0, 100, 100), rect(25, 25, 50, 50)}, 8, 7500, true, true},
		{"hole given first", [][]v2.Vec{rect(25, 25, 50, 50), rect(0, 0, 100, 100)}, 8, 7500, true, true},
		{"two holes", [][]v2.Vec{rect(0, 0, 100, 40), rect(10, 10, 20, 20), rect(60, 10, 20, 20)}, 14, 4000 - 800, true, true},
		{"disjoint outers", [][]v2.Vec{rect(0, 0, 10, 10), rect(20, 0, 10, 10)}, 4, 200, true, true},
		{"island in hole", [][]v2.Vec{rect(0, 0, 100, 100), rect(20, 20, 60, 60), rect(40, 40, 20, 20)}, 10, 10000 - 3600 + 400, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris, err := (&EarClipper{Beautify: tt.beautify}).Triangulate(tt.loops)
			require.NoError(t, err)
			assert.Len(t, tris, tt.wantTris)
			checkFill(t, tt.loops, tris, tt.wantArea)

			if tt.allPoints {
				pts, _ := Flatten(tt.loops)
				used := map[int]bool{}
				for _, tri := range tris {
					for _, v := range tri {
						used[v] = true
					}
				}
				assert.Len(t, used, len(pts))
			}
		})
	}
}

func TestTriangulateBand(t *testing.T) {
	outer := circle(0, 0, 100, 48)
	inner := circle(0, 0, 80, 48)
	tris, err := New().Triangulate([][]v2.Vec{outer, inner})
	require.NoError(t, err)
	assert.Len(t, tris, 96)

	var want float64
	pts, rings := Flatten([][]v2.Vec{outer, inner})
	want = ringArea(pts, rings[0]) - ringArea(pts, rings[1])
	checkFill(t, [][]v2.Vec{outer, inner}, tris, want)
}

func TestTriangulateIgnoresDegenerateLoops(t *testing.T) {
	tris, err := New().Triangulate([][]v2.Vec{{{X: 0, Y: 0}, {X: 1, Y: 1}}, {{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}})
	require.NoError(t, err)
	assert.Empty(t, tris)

	tris, err = New().Triangulate(nil)
	require.NoError(t, err)
	assert.Empty(t, tris)
}

func TestBeautifyKeepsLoopEdges(t *testing.T) {
	loops := [][]v2.Vec{circle(0, 0, 50, 32)}
	tris, err := New().Triangulate(loops)
	require.NoError(t, err)
	require.Len(t, tris, 30)

	edges := map[edgeKey]int{}
	for _, tri := range tris {
		for e := 0; e < 3; e++ {
			edges[keyOf(tri[e], tri[(e+1)%3])]++
		}
	}
	for i := 0; i < 32; i++ {
		assert.Equal(t, 1, edges[keyOf(i, (i+1)%32)], "boundary edge %d", i)
	}
}

func TestBeautifyRemovesThinTriangles(t *testing.T) {
	// A long thin quad: ear clipping cuts along the long diagonal here,
	// which the flip replaces with the short one.
	pts := []v2.Vec{{X: 0, Y: 0}, {X: 10, Y: -1}, {X: 20, Y: 0}, {X: 10, Y: 1}}
	tris := []Triangle{{0, 1, 2}, {0, 2, 3}}
	fixed := map[edgeKey]bool{keyOf(0, 1): true, keyOf(1, 2): true, keyOf(2, 3): true, keyOf(3, 0): true}

	got := beautify(pts, tris, fixed)
	require.Len(t, got, 2)
	for _, tri := range got {
		assert.Contains(t, tri[:], 1)
		assert.Contains(t, tri[:], 3)
	}
}

func TestRegistry(t *testing.T) {
	tr, err := Lookup(EarcutName)
	require.NoError(t, err)
	assert.IsType(t, &EarClipper{}, tr)
	assert.Contains(t, Names(), EarcutName)

	_, err = Lookup("delaunay")
	assert.ErrorIs(t, err, ErrMissingDependency)
	assert.ErrorIs(t, Require(nil), ErrMissingDependency)
}

func TestTriangulateComb(t *testing.T) {
	// Deep notches from the top, and a hole in the spine.
	var comb []v2.Vec
	comb = append(comb, v2.Vec{X: 0, Y: 0}, v2.Vec{X: 90, Y: 0})
	for x := 90.0; x > 0; x -= 10 {
		comb = append(comb, v2.Vec{X: x, Y: 50}, v2.Vec{X: x - 4, Y: 50}, v2.Vec{X: x - 4, Y: 10}, v2.Vec{X: x - 6, Y: 10}, v2.Vec{X: x - 6, Y: 50})
	}
	comb = append(comb, v2.Vec{X: 0, Y: 50})
	hole := rect(20, 2, 50, 6)
	loops := [][]v2.Vec{comb, hole}

	pts, rings := Flatten(loops)
	want := ringArea(pts, rings[0]) - ringArea(pts, rings[1])
	require.Greater(t, want, 0.0)

	tris, err := New().Triangulate(loops)
	require.NoError(t, err)
	checkFill(t, loops, tris, want)
}
