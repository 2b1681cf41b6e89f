// Package extrude lifts a polygon into a layered mesh by stacking inset
// contours at increasing heights.
package extrude

import (
	"errors"
	"fmt"
	"math"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/geom"
	"github.com/chazu/strokemesh/pkg/logging"
	"github.com/chazu/strokemesh/pkg/mesh"
	"github.com/chazu/strokemesh/pkg/offset"
	"github.com/chazu/strokemesh/pkg/plane"
	"github.com/chazu/strokemesh/pkg/tess"
)

// ErrTopologyMismatch is returned when riser pairing finds loops of
// different size on the two levels it connects. Extrude raises every
// riser between a contour and its own copy, so a shape that splits or
// merges between steps does so inside a tread band and never reaches
// this error; it fences riser levels assembled any other way.
var ErrTopologyMismatch = errors.New("extrude: riser levels have different topology")

// MaxFaceVerts is the widest face kept after cleanup.
const MaxFaceVerts = 4

// MaxResolution bounds the number of offset levels.
const MaxResolution = 256

// Slope is the height profile across levels.
type Slope int

const (
	Linear Slope = iota
	Sphere
	Step
)

func (s Slope) String() string {
	switch s {
	case Linear:
		return "linear"
	case Sphere:
		return "sphere"
	case Step:
		return "step"
	}
	return fmt.Sprintf("Slope(%d)", int(s))
}

// ParseSlope accepts "linear", "sphere" and "step".
func ParseSlope(s string) (Slope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return Linear, nil
	case "sphere":
		return Sphere, nil
	case "step":
		return Step, nil
	}
	return 0, fmt.Errorf("invalid slope %q, expected linear, sphere or step", s)
}

// Height returns the lift of mesh level j, where step is the unscaled
// offset interval and amount the total offset.
func Height(s Slope, j int, step, amount float64) float64 {
	switch s {
	case Linear:
		return math.Abs(float64(j) * step)
	case Sphere:
		r := math.Abs(amount)
		h := math.Abs(float64(j) * step)
		return math.Sqrt(math.Max(0, r*r-(r-h)*(r-h)))
	case Step:
		return math.Abs(float64((j+1)/2) * step)
	}
	panic(fmt.Sprintf("extrude: unknown slope %d", int(s)))
}

// Options controls one extrusion.
type Options struct {
	Name string
	// Amount is the total inset distance in world units.
	Amount float64
	// Resolution is the number of offset levels, 1 to MaxResolution.
	Resolution int
	Join       clip.Join
	Slope      Slope
	// Scale is the factor the polygon coordinates were multiplied by.
	Scale float64
	// Depth is the base depth the first level sits at.
	Depth float64
	// Smooth marks the mesh for smooth shading.
	Smooth bool
	// Mirror reflects the mesh below the base depth, sharing the outline.
	Mirror bool
}

// Extruder builds meshes from scaled polygons.
type Extruder struct {
	offset *offset.Engine
	tri    tess.Triangulator
	proj   plane.Projector
}

// New returns an extruder. Both primitives are required.
func New(b clip.Backend, t tess.Triangulator, pr plane.Projector) (*Extruder, error) {
	off, err := offset.New(b)
	if err != nil {
		return nil, err
	}
	if err := tess.Require(t); err != nil {
		return nil, err
	}
	return &Extruder{offset: off, tri: t, proj: pr}, nil
}

// level is one ring of the stack before it becomes mesh geometry.
type level struct {
	contour geom.Set
	height  float64
}

// Extrude lifts p into a mesh. Degenerate input is rejected before any
// mesh is allocated.
func (x *Extruder) Extrude(p geom.Path, opts Options) (*mesh.Mesh, error) {
	if p.IsDegenerate() {
		return nil, fmt.Errorf("extrude %q: %w", opts.Name, geom.ErrDegenerate)
	}
	if opts.Resolution < 1 || opts.Resolution > MaxResolution {
		return nil, fmt.Errorf("extrude %q: resolution %d outside [1, %d]", opts.Name, opts.Resolution, MaxResolution)
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	base := p.Clone()
	base.Normalize(true)
	step := opts.Amount / float64(opts.Resolution)
	contours, err := x.offset.Levels(base, -step*scale, opts.Resolution, opts.Join)
	if err != nil {
		return nil, fmt.Errorf("extrude %q: %w", opts.Name, err)
	}

	copies := 1
	if opts.Slope == Step {
		// Every contour appears twice: a riser up to it, then a tread.
		copies = 2
	}
	levels := make([]level, 0, len(contours)*copies)
	for _, c := range contours {
		for k := 0; k < copies; k++ {
			j := len(levels)
			levels = append(levels, level{contour: c, height: Height(opts.Slope, j, step, opts.Amount)})
		}
	}

	if len(levels) == 0 {
		return nil, fmt.Errorf("extrude %q: %w", opts.Name, geom.ErrDegenerate)
	}

	m := mesh.New(opts.Name)
	for j, lvl := range levels {
		loops := make([][]v3.Vec, len(lvl.contour))
		for k, path := range lvl.contour {
			loop := make([]v3.Vec, len(path))
			for i, pt := range path {
				loop[i] = x.proj.To3D(pt.ToVec(), opts.Depth+lvl.height, scale)
			}
			loops[k] = loop
		}
		m.AddLevel(lvl.height, loops)
		if j == 0 {
			continue
		}

		if opts.Slope == Step && j%2 == 1 {
			if err := addRisers(m, j); err != nil {
				return nil, fmt.Errorf("extrude %q level %d: %w", opts.Name, j, err)
			}
			continue
		}
		band := append(levels[j-1].contour.Clone(), lvl.contour...)
		if err := x.fill(m, band, [][][]int{m.Levels[j-1].Loops, m.Levels[j].Loops}); err != nil {
			return nil, fmt.Errorf("extrude %q band %d: %w", opts.Name, j, err)
		}
	}

	last := len(levels) - 1
	if err := x.fill(m, levels[last].contour, [][][]int{m.Levels[last].Loops}); err != nil {
		return nil, fmt.Errorf("extrude %q cap: %w", opts.Name, err)
	}

	m.RemoveWideFaces(MaxFaceVerts)
	m.Smooth = opts.Smooth
	if opts.Mirror {
		x.mirror(m, opts.Depth)
	}
	logging.Logger().Debug("extruded mesh", "mesh", m.String(), "slope", opts.Slope)
	return m, nil
}

// fill triangulates the region bounded by paths and adds the triangles as
// faces. ids gives the mesh vertex of every path point, grouped by level
// and then by loop, in the same order as paths.
func (x *Extruder) fill(m *mesh.Mesh, paths geom.Set, ids [][][]int) error {
	loops := make([][]v2.Vec, len(paths))
	for i, p := range paths {
		loops[i] = p.Vecs()
	}
	var flat []int
	for _, lvl := range ids {
		for _, loop := range lvl {
			flat = append(flat, loop...)
		}
	}

	tris, err := x.tri.Triangulate(loops)
	if err != nil {
		return err
	}
	// The plane's vertical axis is flipped on the way to world space, so
	// clockwise plane triangles face toward positive depth.
	for _, t := range tris {
		m.AddFace(flat[t[0]], flat[t[2]], flat[t[1]])
	}
	return nil
}

// addRisers joins level j to the copy below it with vertical quads. The
// two levels must have the same loops with the same point counts, which
// holds for the contour pairs Extrude builds.
func addRisers(m *mesh.Mesh, j int) error {
	prev, cur := m.Levels[j-1].Loops, m.Levels[j].Loops
	if len(prev) != len(cur) {
		return fmt.Errorf("%w: %d loops above %d", ErrTopologyMismatch, len(cur), len(prev))
	}
	for k := range cur {
		if len(prev[k]) != len(cur[k]) {
			return fmt.Errorf("%w: loop %d has %d points above %d", ErrTopologyMismatch, k, len(cur[k]), len(prev[k]))
		}
	}
	for k, loop := range cur {
		n := len(loop)
		for i := range loop {
			m.AddEdge(loop[i], prev[k][i])
		}
		for i := range loop {
			a, b := prev[k][i], prev[k][(i+1)%n]
			m.AddFace(a, loop[i], loop[(i+1)%n], b)
		}
	}
	return nil
}

func (x *Extruder) mirror(m *mesh.Mesh, depth float64) {
	const seam = 1e-12
	removed := m.Mirror(
		func(v v3.Vec) v3.Vec { return x.proj.SetDepth(v, 2*depth-x.proj.Depth(v)) },
		func(v v3.Vec) bool { return math.Abs(x.proj.Depth(v)-depth) <= seam },
	)
	if removed > 0 {
		logging.Logger().Debug("dropped faces on the mirror", "mesh", m.Name, "count", removed)
	}
}
