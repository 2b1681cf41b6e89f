package offset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/clip/clipper"
	"github.com/chazu/strokemesh/pkg/geom"
)

var square = geom.Path{{X: 0, Y: 0}, {X: 0, Y: 100}, {X: 100, Y: 100}, {X: 100, Y: 0}}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(clipper.New())
	require.NoError(t, err)
	return e
}

func TestNewWithoutBackend(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, clip.ErrMissingDependency)

	var e *Engine
	_, err = e.Offset(square, 1, clip.JoinRound, Fill)
	assert.ErrorIs(t, err, clip.ErrMissingDependency)
}

func TestInsetSquare(t *testing.T) {
	got, err := newEngine(t).Offset(square, -10, clip.JoinSquare, Fill)
	require.NoError(t, err)
	require.Len(t, got, 1)

	r, _ := got.Bounds()
	assert.Equal(t, geom.Rect{Min: geom.Point{X: 10, Y: 10}, Max: geom.Point{X: 90, Y: 90}}, r)
	assert.InDelta(t, 6400, math.Abs(got.Area()), 1e-9)
}

func TestZeroOffsetIsIdentity(t *testing.T) {
	e := newEngine(t)
	for _, mode := range []Mode{Fill, Line, LineSquare, Corner} {
		for _, join := range []clip.Join{clip.JoinSquare, clip.JoinRound, clip.JoinMiter} {
			got, err := e.Offset(square, 0, join, mode)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.InDelta(t, math.Abs(square.Area()), math.Abs(got.Area()), 1e-9, "%s/%s", mode, join)
		}
	}
}

func TestDegenerateInputIsEmpty(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name string
		p    geom.Path
		mode Mode
	}{
		{"two points fill", geom.Path{{X: 0, Y: 0}, {X: 10, Y: 0}}, Fill},
		{"colinear corner", geom.Path{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}}, Corner},
		{"single point line", geom.Path{{X: 0, Y: 0}}, Line},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Offset(tt.p, 5, clip.JoinRound, tt.mode)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestInsetPastExtentIsEmpty(t *testing.T) {
	got, err := newEngine(t).Offset(square, -80, clip.JoinMiter, Fill)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCornerRestoresConvexArea(t *testing.T) {
	// A convex shape grown and shrunk back by the same distance with
	// miter joins ends where it started.
	got, err := newEngine(t).Offset(square, 10, clip.JoinMiter, Corner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 10000, math.Abs(got.Area()), 1e-9)
}

func TestLineOffsetWrapsOpenPath(t *testing.T) {
	line := geom.Path{{X: 0, Y: 0}, {X: 100, Y: 0}}
	got, err := newEngine(t).Offset(line, 10, clip.JoinSquare, Line)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 2000, math.Abs(got.Area()), 1)

	squared, err := newEngine(t).Offset(line, 10, clip.JoinSquare, LineSquare)
	require.NoError(t, err)
	assert.InDelta(t, 2400, math.Abs(squared.Area()), 1)
}

func TestEndStyle(t *testing.T) {
	assert.Equal(t, clip.EndClosedPolygon, EndStyle(Fill, clip.JoinRound))
	assert.Equal(t, clip.EndClosedPolygon, EndStyle(Corner, clip.JoinSquare))
	assert.Equal(t, clip.EndOpenRound, EndStyle(Line, clip.JoinRound))
	assert.Equal(t, clip.EndOpenButt, EndStyle(Line, clip.JoinMiter))
	assert.Equal(t, clip.EndOpenSquare, EndStyle(LineSquare, clip.JoinRound))
}

func TestLevels(t *testing.T) {
	e := newEngine(t)
	levels, err := e.Levels(square, -10, 4, clip.JoinSquare)
	require.NoError(t, err)
	require.Len(t, levels, 4)
	for k, set := range levels {
		side := 100 - 20*float64(k)
		assert.InDelta(t, side*side, math.Abs(set.Area()), 1e-9, "level %d", k)
	}

	// 100, 78, 56, 34, 12, then nothing is left.
	levels, err = e.Levels(square, -11, 8, clip.JoinSquare)
	require.NoError(t, err)
	assert.Len(t, levels, 5)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Fill, Line, LineSquare, Corner} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("outline")
	assert.Error(t, err)
}
