// Package operator implements the stroke operators a host applies to a
// scene snapshot: offsetting, boolean composition, hole processing and
// mesh generation. Every operator works on a clone of the input scene and
// returns the new scene together with what changed.
package operator

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/clip/clipper"
	"github.com/chazu/strokemesh/pkg/convert"
	"github.com/chazu/strokemesh/pkg/geom"
	"github.com/chazu/strokemesh/pkg/mesh"
	"github.com/chazu/strokemesh/pkg/plane"
	"github.com/chazu/strokemesh/pkg/scene"
	"github.com/chazu/strokemesh/pkg/tess"
)

// DefaultLineWidthFactor converts a stroke's line width into a radius in
// world units.
const DefaultLineWidthFactor = 2000.0

// Env carries the geometry primitives and constants shared by operators.
type Env struct {
	Clip            clip.Backend
	Tess            tess.Triangulator
	ScaleTarget     float64
	LineWidthFactor float64
}

// DefaultEnv returns an environment backed by go.clipper and the ear
// clipping triangulator.
func DefaultEnv() Env {
	return Env{
		Clip:            clipper.New(),
		Tess:            tess.New(),
		ScaleTarget:     convert.DefaultScaleTarget,
		LineWidthFactor: DefaultLineWidthFactor,
	}
}

// Operator is one host-facing edit.
type Operator interface {
	Name() string
	Apply(s *scene.Scene, env Env) (*Result, error)
}

// Result is the outcome of one operator run.
type Result struct {
	// Scene is the edited clone; the input scene is untouched.
	Scene *scene.Scene
	// Inserted lists new strokes in creation order.
	Inserted []scene.StrokeID
	// Maps has one entry per frame the operator touched.
	Maps   []scene.IndexMap
	Meshes []*mesh.Mesh
	// Warnings are recoverable problems, such as a stroke that could not
	// be extruded.
	Warnings []string
}

// Pipeline applies ops in order, feeding each the scene the previous one
// produced. It stops at the first error.
func Pipeline(s *scene.Scene, env Env, ops ...Operator) ([]*Result, error) {
	results := make([]*Result, 0, len(ops))
	for i, op := range ops {
		res, err := op.Apply(s, env)
		if err != nil {
			return results, fmt.Errorf("operation %d (%s): %w", i, op.Name(), err)
		}
		results = append(results, res)
		s = res.Scene
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Run bookkeeping
// ---------------------------------------------------------------------------

// ref is a stroke together with the frame holding it.
type ref struct {
	frame  scene.FrameRef
	stroke *scene.Stroke
}

type run struct {
	env Env
	s   *scene.Scene
	pr  plane.Projector
	res *Result

	before  map[scene.FrameRef][]scene.StrokeID
	touched []scene.FrameRef
}

func newRun(s *scene.Scene, env Env, needTess bool) (*run, error) {
	if err := clip.Require(env.Clip); err != nil {
		return nil, err
	}
	if needTess {
		if err := tess.Require(env.Tess); err != nil {
			return nil, err
		}
	}
	if env.ScaleTarget <= 0 {
		env.ScaleTarget = convert.DefaultScaleTarget
	}
	if env.LineWidthFactor <= 0 {
		env.LineWidthFactor = DefaultLineWidthFactor
	}
	c := s.Clone()
	return &run{
		env:    env,
		s:      c,
		pr:     c.Projector(),
		res:    &Result{Scene: c},
		before: map[scene.FrameRef][]scene.StrokeID{},
	}, nil
}

// touch records the stroke order of a frame before its first edit.
func (r *run) touch(fr scene.FrameRef) {
	if _, ok := r.before[fr]; ok {
		return
	}
	r.before[fr] = r.s.Frame(fr).IDs()
	r.touched = append(r.touched, fr)
}

func (r *run) result() *Result {
	for _, fr := range r.touched {
		r.res.Maps = append(r.res.Maps, scene.Remap(fr, r.before[fr], r.s.Frame(fr)))
	}
	return r.res
}

func (r *run) warn(format string, args ...any) {
	r.res.Warnings = append(r.res.Warnings, fmt.Sprintf(format, args...))
}

// selected gathers the selected strokes of every frame in frames whose
// layer accepts edits. Strokes with locked or hidden materials are left
// out.
func (r *run) selected(frames []scene.FrameRef) []ref {
	var out []ref
	for _, fr := range frames {
		if r.s.Layers[fr.Layer].Locked() {
			continue
		}
		for _, st := range r.s.Frame(fr).Selected() {
			if r.s.IsLocked(st) {
				continue
			}
			out = append(out, ref{frame: fr, stroke: st})
		}
	}
	return out
}

// polygons converts refs with one shared scale factor.
func (r *run) polygons(refs []ref, correct bool) (geom.Set, float64) {
	pts := make([][]v3.Vec, len(refs))
	for i, rf := range refs {
		pts[i] = rf.stroke.Coords()
	}
	return convert.ToPolygons(pts, r.pr, convert.Options{
		ComputeScale:       true,
		CorrectOrientation: correct,
		ScaleTarget:        r.env.ScaleTarget,
	})
}

// emit turns a scaled path into a stroke. Attributes come from the refs
// not excluded by mask, or from every ref when the mask excludes all of
// them. The stroke lands just above the first source, or just below it
// when behind is set.
func (r *run) emit(path geom.Path, scale float64, refs []ref, mask map[int]bool, behind bool) *scene.Stroke {
	var srcs []ref
	for i, rf := range refs {
		if !mask[i] {
			srcs = append(srcs, rf)
		}
	}
	if len(srcs) == 0 {
		srcs = refs
	}
	anchor := srcs[0]
	strokes := make([]*scene.Stroke, len(srcs))
	for i, rf := range srcs {
		strokes[i] = rf.stroke
	}

	depth := convert.MeanDepth(anchor.stroke.Coords(), r.pr)
	st := r.s.NewStroke(anchor.stroke.Material, convert.ToStroke(path, scale, depth, r.pr))
	scene.CopyAttributes(st, strokes, scene.AttrAll)
	lineColor := meanPointColor(anchor.stroke)
	for i := range st.Points {
		st.Points[i].Color = lineColor
	}

	r.touch(anchor.frame)
	f := r.s.Frame(anchor.frame)
	at := f.IndexOf(anchor.stroke.ID)
	if !behind {
		at++
	}
	f.Insert(at, st)
	r.res.Inserted = append(r.res.Inserted, st.ID)
	return st
}

func (r *run) remove(rf ref) {
	r.touch(rf.frame)
	r.s.Frame(rf.frame).Remove(rf.stroke.ID)
}

func meanPointColor(st *scene.Stroke) scene.Color {
	var c scene.Color
	if len(st.Points) == 0 {
		return c
	}
	for _, p := range st.Points {
		for i := range c {
			c[i] += p.Color[i]
		}
	}
	for i := range c {
		c[i] /= float64(len(st.Points))
	}
	return c
}

// overlapping reports whether two projected strokes have overlapping
// bounds and at least one pair of crossing edges. A stroke wholly inside
// the other does not count.
func overlapping(a, b []v2.Vec) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	amin, amax := bounds(a)
	bmin, bmax := bounds(b)
	if amax.X < bmin.X || amax.Y < bmin.Y || bmax.X < amin.X || bmax.Y < amin.Y {
		return false
	}
	return geom.PathsCross(a, b)
}

func bounds(pts []v2.Vec) (lo, hi v2.Vec) {
	lo = v2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi = v2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range pts {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

func (r *run) project(st *scene.Stroke) []v2.Vec {
	out := make([]v2.Vec, len(st.Points))
	for i, p := range st.Points {
		out[i] = r.pr.To2D(p.Co)
	}
	return out
}
