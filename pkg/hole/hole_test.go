package hole

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/clip/clipper"
	"github.com/chazu/strokemesh/pkg/geom"
)

func square(x0, y0, size int64) geom.Path {
	return geom.Path{{X: x0, Y: y0}, {X: x0 + size, Y: y0}, {X: x0 + size, Y: y0 + size}, {X: x0, Y: y0 + size}}
}

// nested returns n concentric squares, innermost first.
func nested(n int) []Polygon {
	polys := make([]Polygon, n)
	for i := 0; i < n; i++ {
		inset := int64(n-1-i) * 10
		polys[i] = Polygon{Path: square(inset, inset, 200-2*inset)}
	}
	return polys
}

func TestContains(t *testing.T) {
	b := clipper.New()
	outer := square(0, 0, 100)
	assert.True(t, Contains(outer, square(10, 10, 10), b))
	assert.False(t, Contains(outer, square(90, 90, 20), b), "partly outside")
	assert.False(t, Contains(outer, outer, b), "all points on the boundary")
	assert.True(t, Contains(outer, geom.Path{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 50, Y: 50}}, b), "touching with one inside point")
}

func TestNestedRingsAlternate(t *testing.T) {
	for _, n := range []int{2, 3, 5} {
		polys := nested(n)
		res, err := Classify(polys, false, clipper.New())
		require.NoError(t, err)

		require.Len(t, res.Batches, n, "one peel per ring")
		for gen, batch := range res.Batches {
			// Generation 0 is the outermost square, stored last.
			require.Equal(t, []int{n - 1 - gen}, batch)
			assert.Equal(t, gen%2 == 1, res.Holes[batch[0]], "n=%d generation %d", n, gen)
		}
	}
}

func TestGraphPeel(t *testing.T) {
	polys := nested(3)
	g, err := Build(polys, clipper.New())
	require.NoError(t, err)
	assert.True(t, g.Inside(0, 1))
	assert.True(t, g.Inside(0, 2))
	assert.True(t, g.Inside(1, 2))
	assert.False(t, g.Inside(2, 0))

	assert.Equal(t, []int{2}, g.Peel())
	assert.False(t, g.Inside(0, 2))
	assert.Equal(t, []int{1}, g.Peel())
	assert.Equal(t, []int{0}, g.Peel())
	assert.True(t, g.Done())
	assert.Empty(t, g.Peel())
}

func TestLineOnlyNeitherContainsNorBecomesHole(t *testing.T) {
	polys := []Polygon{
		{Path: square(0, 0, 100), LineOnly: true},
		{Path: square(10, 10, 50)},
		{Path: square(20, 20, 10), LineOnly: true},
	}
	res, err := Classify(polys, false, clipper.New())
	require.NoError(t, err)

	// The outer outline contains nothing, so both it and the middle square
	// are outermost. The small outline is inside the square but line-only.
	require.Len(t, res.Batches, 2)
	assert.Equal(t, []int{0, 1}, res.Batches[0])
	assert.Equal(t, []int{2}, res.Batches[1])
	assert.Equal(t, []bool{false, false, false}, res.Holes)
}

func TestSeparateColors(t *testing.T) {
	polys := []Polygon{
		{Path: square(0, 0, 100), Color: "red"},
		{Path: square(10, 10, 80), Color: "blue"},
		{Path: square(20, 20, 60), Color: "red"},
	}

	shared, err := Classify(polys, false, clipper.New())
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, shared.Holes)

	// Blue is peeled for the first time in the second generation, so it
	// stays fill, while red has flipped once before reaching the core.
	split, err := Classify(polys, true, clipper.New())
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true}, split.Holes)
}

func TestFewerThanTwoIsNoop(t *testing.T) {
	res, err := Classify([]Polygon{{Path: square(0, 0, 10)}}, false, clipper.New())
	require.NoError(t, err)
	assert.Empty(t, res.Batches)
	assert.Equal(t, []bool{false}, res.Holes)
}

func TestMissingBackend(t *testing.T) {
	_, err := Classify(nested(2), false, nil)
	assert.ErrorIs(t, err, clip.ErrMissingDependency)
	_, err = Build(nested(2), nil)
	assert.ErrorIs(t, err, clip.ErrMissingDependency)
}

// countingBackend counts point location queries.
type countingBackend struct {
	clip.Backend
	located int
}

func (c *countingBackend) PointInPolygon(pt geom.Point, path geom.Path) int {
	c.located++
	return c.Backend.PointInPolygon(pt, path)
}

func TestBuildSkipsPairsWithDisjointBounds(t *testing.T) {
	b := &countingBackend{Backend: clipper.New()}
	polys := []Polygon{
		{Path: square(0, 0, 100)},
		{Path: square(10, 10, 20)},
		{Path: square(500, 500, 100)},
	}
	g, err := Build(polys, b)
	require.NoError(t, err)
	assert.True(t, g.Inside(1, 0))
	assert.False(t, g.Inside(2, 0))
	assert.False(t, g.Inside(0, 2))

	// Only the two overlapping squares are compared, in both directions.
	// Square 0 in square 1 stops at its first point, which is outside.
	assert.Equal(t, 4+1, b.located)
}
