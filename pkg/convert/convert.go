// Package convert turns projected stroke points into scaled integer
// polygons for the clipping backend, and maps results back to 3D.
package convert

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/strokemesh/pkg/geom"
	"github.com/chazu/strokemesh/pkg/logging"
	"github.com/chazu/strokemesh/pkg/plane"
)

// DefaultScaleTarget is the resolution the smaller side of the input
// bounding box is scaled up to.
const DefaultScaleTarget = 8192.0

const nearZero = 1e-9

// Options controls ToPolygons.
type Options struct {
	// ComputeScale derives the scale factor from the bounding box of all
	// strokes. Ignored when FixedScale is set.
	ComputeScale bool
	// CorrectOrientation reverses clockwise paths so every output path is
	// counter-clockwise.
	CorrectOrientation bool
	// FixedScale, when positive, is used as the scale factor as is.
	FixedScale float64
	// ScaleTarget overrides DefaultScaleTarget when positive.
	ScaleTarget float64
}

// ScaleFactor maps a bounding box of width w and height h to a factor
// bringing min(w, h) up to target. Boxes thinner than target are never
// shrunk below it. A point-like box yields 1.
func ScaleFactor(w, h, target float64) float64 {
	if target <= 0 {
		target = DefaultScaleTarget
	}
	wZero := math.Abs(w) <= nearZero
	hZero := math.Abs(h) <= nearZero
	switch {
	case wZero && hZero:
		return 1
	case wZero:
		return target / math.Min(h, target)
	case hZero:
		return target / math.Min(w, target)
	default:
		return target / math.Min(math.Min(w, h), target)
	}
}

// ToPolygons projects every stroke onto the working plane and returns one
// path per stroke, in input order, together with the scale factor used.
// The scale factor is 1 when no scaling was requested.
func ToPolygons(strokes [][]v3.Vec, pr plane.Projector, opts Options) (geom.Set, float64) {
	projected := make([][]v2.Vec, len(strokes))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, pts := range strokes {
		co := make([]v2.Vec, len(pts))
		for j, p := range pts {
			c := pr.To2D(p)
			co[j] = c
			minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
			minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
		}
		projected[i] = co
	}

	scale := 1.0
	switch {
	case opts.FixedScale > 0:
		scale = opts.FixedScale
	case opts.ComputeScale && !math.IsInf(minX, 1):
		scale = ScaleFactor(maxX-minX, maxY-minY, opts.ScaleTarget)
	}

	set := make(geom.Set, len(projected))
	for i, co := range projected {
		path := make(geom.Path, len(co))
		for j, c := range co {
			path[j] = geom.Round(c.X*scale, c.Y*scale)
		}
		if opts.CorrectOrientation {
			path.Normalize(true)
		}
		set[i] = path
	}

	logging.Logger().Debug("converted strokes", "count", len(set), "scale", scale)
	return set, scale
}

// ToStroke maps a scaled path back to world space at the given depth.
func ToStroke(path geom.Path, scale, depth float64, pr plane.Projector) []v3.Vec {
	out := make([]v3.Vec, len(path))
	for i, pt := range path {
		out[i] = pr.To3D(pt.ToVec(), depth, scale)
	}
	return out
}

// MeanDepth is the average depth of pts, or 0 for no points.
func MeanDepth(pts []v3.Vec, pr plane.Projector) float64 {
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		sum += pr.Depth(p)
	}
	return sum / float64(len(pts))
}
