package extrude

import (
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/clip/clipper"
	"github.com/chazu/strokemesh/pkg/geom"
	"github.com/chazu/strokemesh/pkg/mesh"
	"github.com/chazu/strokemesh/pkg/plane"
	"github.com/chazu/strokemesh/pkg/tess"
)

var (
	square = geom.Path{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	lShape = geom.Path{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100}, {X: 100, Y: 100}, {X: 100, Y: 200}, {X: 0, Y: 200}}
	// dumbbell is two squares joined by a neck that the first inset
	// closes, splitting the contour in two.
	dumbbell = geom.Path{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 45}, {X: 200, Y: 45}, {X: 200, Y: 0}, {X: 300, Y: 0},
		{X: 300, Y: 100}, {X: 200, Y: 100}, {X: 200, Y: 55}, {X: 100, Y: 55}, {X: 100, Y: 100}, {X: 0, Y: 100},
	}
	// zigzag joins its squares with a bent neck; the middle of the neck
	// cannot see either square, so it is filled on the base.
	zigzag = geom.Path{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 45}, {X: 160, Y: 45}, {X: 160, Y: 145}, {X: 250, Y: 145},
		{X: 250, Y: 100}, {X: 350, Y: 100}, {X: 350, Y: 200}, {X: 250, Y: 200}, {X: 250, Y: 155}, {X: 150, Y: 155},
		{X: 150, Y: 55}, {X: 100, Y: 55}, {X: 100, Y: 100}, {X: 0, Y: 100},
	}
)

func newExtruder(t *testing.T, p plane.WorkingPlane) *Extruder {
	t.Helper()
	x, err := New(clipper.New(), tess.New(), plane.New(p))
	require.NoError(t, err)
	return x
}

func baseOptions(slope Slope) Options {
	return Options{
		Name:       "test",
		Amount:     40,
		Resolution: 4,
		Join:       clip.JoinSquare,
		Slope:      slope,
		Scale:      1,
	}
}

func TestHeight(t *testing.T) {
	tests := []struct {
		slope Slope
		want  []float64
	}{
		{Linear, []float64{0, 10, 20, 30}},
		{Sphere, []float64{0, math.Sqrt(700), math.Sqrt(1200), math.Sqrt(1500)}},
		{Step, []float64{0, 10, 10, 20}},
	}
	for _, tt := range tests {
		t.Run(tt.slope.String(), func(t *testing.T) {
			for j, want := range tt.want {
				assert.InDelta(t, want, Height(tt.slope, j, 10, 40), 1e-9, "level %d", j)
			}
		})
	}
}

func TestSphereHeightClamps(t *testing.T) {
	// Past the radius the radicand would go negative.
	assert.Equal(t, 0.0, Height(Sphere, 9, 10, 40))
	assert.False(t, math.IsNaN(Height(Sphere, 5, 10, 40)))
}

func TestLevelCount(t *testing.T) {
	tests := []struct {
		slope      Slope
		wantLevels int
		wantFaces  int
	}{
		// Three square bands of 8 triangles plus a 2 triangle cap.
		{Linear, 4, 26},
		{Sphere, 4, 26},
		// Four riser rings of 4 quads on top of that.
		{Step, 8, 42},
	}
	for _, tt := range tests {
		t.Run(tt.slope.String(), func(t *testing.T) {
			m, err := newExtruder(t, plane.XY).Extrude(square, baseOptions(tt.slope))
			require.NoError(t, err)
			require.Len(t, m.Levels, tt.wantLevels)
			for j, lvl := range m.Levels {
				assert.Len(t, lvl.Loops, 1, "level %d", j)
				assert.Len(t, lvl.Loops[0], 4, "level %d", j)
			}
			assert.Len(t, m.Faces, tt.wantFaces)
			for _, f := range m.Faces {
				assert.LessOrEqual(t, len(f.Verts), MaxFaceVerts)
			}
		})
	}
}

func TestLevelsSitAtTheirHeight(t *testing.T) {
	pr := plane.New(plane.XZ)
	opts := baseOptions(Linear)
	opts.Depth = 5
	m, err := newExtruder(t, plane.XZ).Extrude(square, opts)
	require.NoError(t, err)
	for j, lvl := range m.Levels {
		for _, v := range lvl.Loops[0] {
			assert.InDelta(t, 5+float64(j)*10, pr.Depth(m.Vertices[v]), 1e-9)
		}
	}
}

func TestFacesPointUp(t *testing.T) {
	for _, p := range []plane.WorkingPlane{plane.XZ, plane.YZ, plane.XY} {
		t.Run(p.String(), func(t *testing.T) {
			m, err := newExtruder(t, p).Extrude(square, baseOptions(Step))
			require.NoError(t, err)
			up := depthAxis(p)
			for i, f := range m.Faces {
				d := m.FaceNormal(i).Dot(up)
				if len(f.Verts) == 4 {
					assert.InDelta(t, 0, d, 1e-9, "riser %d is vertical", i)
					continue
				}
				assert.Greater(t, d, 0.0, "face %d", i)
			}
		})
	}
}

func TestMirrorClosesSurface(t *testing.T) {
	for _, slope := range []Slope{Linear, Sphere, Step} {
		t.Run(slope.String(), func(t *testing.T) {
			opts := baseOptions(slope)
			opts.Mirror = true
			m, err := newExtruder(t, plane.XZ).Extrude(square, opts)
			require.NoError(t, err)
			for e, n := range m.EdgeUse() {
				assert.Equal(t, 2, n, "edge %v", e)
			}
		})
	}
}

func TestShrinkingStopsEarly(t *testing.T) {
	opts := baseOptions(Linear)
	opts.Amount = 200
	m, err := newExtruder(t, plane.XY).Extrude(square, opts)
	require.NoError(t, err)
	// Insets of 0 and 50 survive, 100 and 150 consume the square.
	assert.Len(t, m.Levels, 2)
}

func TestConcavePolygon(t *testing.T) {
	x := newExtruder(t, plane.XY)
	m, err := x.Extrude(lShape, baseOptions(Linear))
	require.NoError(t, err)
	assert.Len(t, m.Levels, 4)
	for j, lvl := range m.Levels {
		assert.Len(t, lvl.Loops, 1, "level %d", j)
	}
	assertTiles(t, m, plane.New(plane.XY), lShape)
	assertSheet(t, m)
}

func TestFacesTileTheBase(t *testing.T) {
	shapes := map[string]geom.Path{"square": square, "l-shape": lShape, "dumbbell": dumbbell, "zigzag": zigzag}
	for name, shape := range shapes {
		for _, slope := range []Slope{Linear, Sphere, Step} {
			t.Run(name+"/"+slope.String(), func(t *testing.T) {
				opts := baseOptions(slope)
				opts.Amount = 60
				m, err := newExtruder(t, plane.XZ).Extrude(shape, opts)
				require.NoError(t, err)
				assertTiles(t, m, plane.New(plane.XZ), shape)
				assertSheet(t, m)
			})
		}
	}
}

func TestSplittingContour(t *testing.T) {
	opts := baseOptions(Linear)
	opts.Amount = 60
	m, err := newExtruder(t, plane.XY).Extrude(dumbbell, opts)
	require.NoError(t, err)
	require.Len(t, m.Levels, 4)
	assert.Len(t, m.Levels[0].Loops, 1)
	for j := 1; j < len(m.Levels); j++ {
		assert.Len(t, m.Levels[j].Loops, 2, "level %d holds both halves", j)
	}
}

func TestMirrorClosesConcaveShapes(t *testing.T) {
	shapes := map[string]geom.Path{"l-shape": lShape, "dumbbell": dumbbell, "zigzag": zigzag}
	for name, shape := range shapes {
		for _, slope := range []Slope{Linear, Sphere, Step} {
			t.Run(name+"/"+slope.String(), func(t *testing.T) {
				opts := baseOptions(slope)
				opts.Amount = 60
				opts.Mirror = true
				m, err := newExtruder(t, plane.XY).Extrude(shape, opts)
				require.NoError(t, err)
				assertClosed(t, m)
			})
		}
	}
}

func TestMirroredSplitDropsTheFlatNeck(t *testing.T) {
	opts := baseOptions(Linear)
	opts.Amount = 60
	open, err := newExtruder(t, plane.XY).Extrude(zigzag, opts)
	require.NoError(t, err)

	opts.Mirror = true
	closed, err := newExtruder(t, plane.XY).Extrude(zigzag, opts)
	require.NoError(t, err)

	flat := 0
	for _, f := range open.Faces {
		onBase := true
		for _, v := range f.Verts {
			if open.Vertices[v].Z != 0 {
				onBase = false
			}
		}
		if onBase {
			flat++
		}
	}
	require.Positive(t, flat, "the neck is filled on the base")
	assert.Len(t, closed.Faces, 2*(len(open.Faces)-flat))
	assertClosed(t, closed)
}

func TestScaleIsDividedOut(t *testing.T) {
	opts := baseOptions(Linear)
	opts.Scale = 100
	opts.Amount = 0.4
	m, err := newExtruder(t, plane.XY).Extrude(square, opts)
	require.NoError(t, err)
	require.Len(t, m.Levels, 4)
	assert.InDelta(t, 0.3, m.Levels[3].Height, 1e-9)
	v := m.Vertices[m.Levels[0].Loops[0][1]]
	assert.InDelta(t, 1.0, v.X, 1e-9)
}

func TestRejectsBadInput(t *testing.T) {
	x := newExtruder(t, plane.XY)
	_, err := x.Extrude(geom.Path{{X: 0, Y: 0}, {X: 1, Y: 1}}, baseOptions(Linear))
	assert.ErrorIs(t, err, geom.ErrDegenerate)

	opts := baseOptions(Linear)
	opts.Resolution = 0
	_, err = x.Extrude(square, opts)
	assert.Error(t, err)

	_, err = New(nil, tess.New(), plane.New(plane.XY))
	assert.ErrorIs(t, err, clip.ErrMissingDependency)
	_, err = New(clipper.New(), nil, plane.New(plane.XY))
	assert.ErrorIs(t, err, clip.ErrMissingDependency)
}

func TestRiserTopologyMismatch(t *testing.T) {
	m := mesh.New("mismatch")
	m.AddLevel(0, [][]v3.Vec{{{X: 0}, {X: 1}, {X: 1, Y: 1}}})
	m.AddLevel(1, [][]v3.Vec{{{X: 0}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}})
	assert.ErrorIs(t, addRisers(m, 1), ErrTopologyMismatch)

	m.AddLevel(2, [][]v3.Vec{{{X: 0}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}, {{X: 5}, {X: 6}, {X: 6, Y: 1}}})
	assert.ErrorIs(t, addRisers(m, 2), ErrTopologyMismatch)
}

func TestParseSlope(t *testing.T) {
	for _, s := range []Slope{Linear, Sphere, Step} {
		got, err := ParseSlope(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSlope("cone")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Surface checks
// ---------------------------------------------------------------------------

// depthAxis is the world direction of increasing depth on p.
func depthAxis(p plane.WorkingPlane) v3.Vec {
	pr := plane.New(p)
	return pr.To3D(v2.Vec{}, 1, 1).Sub(pr.To3D(v2.Vec{}, 0, 1))
}

// assertTiles checks that the faces, seen along the depth axis, cover the
// base exactly once: every face winds the same way and the projected
// areas add up to the base area. Risers project to nothing.
func assertTiles(t *testing.T, m *mesh.Mesh, pr plane.Projector, base geom.Path) {
	t.Helper()
	var total float64
	for i, f := range m.Faces {
		var a float64
		n := len(f.Verts)
		for k := range f.Verts {
			p, q := pr.To2D(m.Vertices[f.Verts[k]]), pr.To2D(m.Vertices[f.Verts[(k+1)%n]])
			a += p.X*q.Y - q.X*p.Y
		}
		a /= 2
		// Upward faces wind clockwise in plane coordinates.
		assert.LessOrEqual(t, a, 1e-9, "face %d winds the wrong way", i)
		total -= a
	}
	assert.InDelta(t, math.Abs(base.Area()), total, 1e-6)
}

// directedEdges counts every face edge in its winding direction.
func directedEdges(m *mesh.Mesh) map[[2]int]int {
	out := map[[2]int]int{}
	for _, f := range m.Faces {
		for i := range f.Verts {
			out[[2]int{f.Verts[i], f.Verts[(i+1)%len(f.Verts)]}]++
		}
	}
	return out
}

// assertSheet checks an unmirrored extrusion: consistently wound, every
// edge shared by two faces except the outline of the base.
func assertSheet(t *testing.T, m *mesh.Mesh) {
	t.Helper()
	for e, n := range directedEdges(m) {
		assert.Equal(t, 1, n, "directed edge %v", e)
	}
	base := map[int]bool{}
	for _, loop := range m.Levels[0].Loops {
		for _, v := range loop {
			base[v] = true
		}
	}
	for e, n := range m.EdgeUse() {
		switch n {
		case 2:
		case 1:
			assert.True(t, base[e[0]] && base[e[1]], "open edge %v above the base", e)
		default:
			assert.Fail(t, "edge not shared by one or two faces", "edge %v used %d times", e, n)
		}
	}
}

// assertClosed checks a mirrored extrusion: consistently wound, every
// edge shared by exactly two faces.
func assertClosed(t *testing.T, m *mesh.Mesh) {
	t.Helper()
	for e, n := range directedEdges(m) {
		assert.Equal(t, 1, n, "directed edge %v", e)
	}
	for e, n := range m.EdgeUse() {
		assert.Equal(t, 2, n, "edge %v", e)
	}
}
