// Package clipper implements clip.Backend on top of
// github.com/ctessum/go.clipper, a port of Angus Johnson's Clipper.
package clipper

import (
	"fmt"
	"math"

	goclipper "github.com/ctessum/go.clipper"

	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/geom"
)

// Name is the registry key of this backend.
const Name = "clipper"

// Compile-time interface check.
var _ clip.Backend = (*Backend)(nil)

func init() {
	clip.Register(Name, func() clip.Backend { return New() })
}

// Backend adapts go.clipper. The zero value is not usable; call New.
type Backend struct {
	// MiterLimit bounds how far miter joins may extend, as a multiple of
	// the offset distance. Infinite keeps every miter sharp.
	MiterLimit float64
	// ArcTolerance is the maximum distance a round join may deviate from
	// the true arc, in scaled units. Zero selects the library default.
	ArcTolerance float64
}

// New returns a backend with unlimited miters.
func New() *Backend {
	return &Backend{MiterLimit: math.Inf(1)}
}

// Offset grows or shrinks paths by delta.
func (b *Backend) Offset(paths geom.Set, delta float64, join clip.Join, end clip.End) (out geom.Set, err error) {
	defer recoverInto(&err, "offset")

	co := goclipper.NewClipperOffset()
	co.MiterLimit = b.MiterLimit
	if b.ArcTolerance > 0 {
		co.ArcTolerance = b.ArcTolerance
	}
	co.AddPaths(toPaths(paths), joinType(join), endType(end))
	return fromPaths(co.Execute(delta)), nil
}

// Boolean composes subjects and clips with the nonzero fill rule.
func (b *Backend) Boolean(subjects, clips geom.Set, op clip.Op) (out geom.Set, err error) {
	defer recoverInto(&err, "boolean")

	c := goclipper.NewClipper(goclipper.IoNone)
	c.AddPaths(toPaths(subjects), goclipper.PtSubject, true)
	c.AddPaths(toPaths(clips), goclipper.PtClip, true)
	solution, ok := c.Execute1(clipType(op), goclipper.PftNonZero, goclipper.PftNonZero)
	if !ok {
		return nil, fmt.Errorf("clipper: %s failed", op)
	}
	return fromPaths(solution), nil
}

// PointInPolygon returns 0 outside, 1 inside and -1 on the boundary.
func (b *Backend) PointInPolygon(pt geom.Point, path geom.Path) int {
	return goclipper.PointInPolygon(toIntPoint(pt), toPath(path))
}

// recoverInto converts a panic raised inside the library into an error.
func recoverInto(err *error, what string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("clipper: %s panicked: %v", what, r)
	}
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

func toIntPoint(p geom.Point) *goclipper.IntPoint {
	return &goclipper.IntPoint{X: goclipper.CInt(p.X), Y: goclipper.CInt(p.Y)}
}

func toPath(p geom.Path) goclipper.Path {
	out := make(goclipper.Path, len(p))
	for i, pt := range p {
		out[i] = toIntPoint(pt)
	}
	return out
}

func toPaths(s geom.Set) goclipper.Paths {
	out := make(goclipper.Paths, 0, len(s))
	for _, p := range s {
		if len(p) == 0 {
			continue
		}
		out = append(out, toPath(p))
	}
	return out
}

func fromPaths(ps goclipper.Paths) geom.Set {
	out := make(geom.Set, 0, len(ps))
	for _, p := range ps {
		if len(p) == 0 {
			continue
		}
		path := make(geom.Path, len(p))
		for i, pt := range p {
			path[i] = geom.Point{X: int64(pt.X), Y: int64(pt.Y)}
		}
		out = append(out, path)
	}
	return out
}

func clipType(op clip.Op) goclipper.ClipType {
	switch op {
	case clip.Union:
		return goclipper.CtUnion
	case clip.Intersection:
		return goclipper.CtIntersection
	case clip.Difference:
		return goclipper.CtDifference
	case clip.Xor:
		return goclipper.CtXor
	}
	panic(fmt.Sprintf("clipper: unknown operation %d", int(op)))
}

func joinType(j clip.Join) goclipper.JoinType {
	switch j {
	case clip.JoinSquare:
		return goclipper.JtSquare
	case clip.JoinRound:
		return goclipper.JtRound
	case clip.JoinMiter:
		return goclipper.JtMiter
	}
	panic(fmt.Sprintf("clipper: unknown join %d", int(j)))
}

func endType(e clip.End) goclipper.EndType {
	switch e {
	case clip.EndClosedPolygon:
		return goclipper.EtClosedPolygon
	case clip.EndClosedLine:
		return goclipper.EtClosedLine
	case clip.EndOpenButt:
		return goclipper.EtOpenButt
	case clip.EndOpenSquare:
		return goclipper.EtOpenSquare
	case clip.EndOpenRound:
		return goclipper.EtOpenRound
	}
	panic(fmt.Sprintf("clipper: unknown end style %d", int(e)))
}
