package operator

import (
	"errors"
	"fmt"

	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/convert"
	"github.com/chazu/strokemesh/pkg/extrude"
	"github.com/chazu/strokemesh/pkg/geom"
	"github.com/chazu/strokemesh/pkg/logging"
	"github.com/chazu/strokemesh/pkg/scene"
)

// Mesh extrudes every selected stroke in the active frames of unlocked
// layers into its own mesh.
type Mesh struct {
	Amount     float64
	Resolution int
	Join       clip.Join
	Slope      extrude.Slope
	// KeepOriginal leaves the source strokes in place.
	KeepOriginal bool
	Smooth       bool
	// Mirror closes the sheet with a reflected copy below the stroke.
	Mirror bool
}

// DefaultMesh returns the operator's default settings.
func DefaultMesh() Mesh {
	return Mesh{
		Amount:       0.1,
		Resolution:   4,
		Join:         clip.JoinRound,
		Slope:        extrude.Sphere,
		KeepOriginal: true,
		Mirror:       true,
	}
}

func (m Mesh) Name() string { return "extrude" }

// MeshName is the name given to the mesh generated from the stroke at
// index in layer.
func MeshName(layer string, index int) string {
	return fmt.Sprintf("Offset_%s_%d", layer, index)
}

// Apply builds the meshes. All strokes share one scale factor. A stroke
// that cannot be extruded is skipped with a warning.
func (m Mesh) Apply(s *scene.Scene, env Env) (*Result, error) {
	r, err := newRun(s, env, true)
	if err != nil {
		return nil, err
	}
	x, err := extrude.New(env.Clip, env.Tess, r.pr)
	if err != nil {
		return nil, err
	}

	var refs []ref
	var names []string
	for li, l := range r.s.Layers {
		f := l.ActiveFrame()
		if l.Locked() || f == nil {
			continue
		}
		fr := scene.FrameRef{Layer: li, Frame: l.Active}
		for j, st := range f.Strokes {
			if st.Select && !r.s.IsLocked(st) {
				refs = append(refs, ref{frame: fr, stroke: st})
				names = append(names, MeshName(l.Name, j))
			}
		}
	}
	if len(refs) == 0 {
		return r.result(), nil
	}

	polys, scale := r.polygons(refs, false)
	for i, rf := range refs {
		built, err := x.Extrude(polys[i], extrude.Options{
			Name:       names[i],
			Amount:     m.Amount,
			Resolution: m.Resolution,
			Join:       m.Join,
			Slope:      m.Slope,
			Scale:      scale,
			Depth:      convert.MeanDepth(rf.stroke.Coords(), r.pr),
			Smooth:     m.Smooth,
			Mirror:     m.Mirror,
		})
		switch {
		case errors.Is(err, geom.ErrDegenerate):
			r.warn("%s: stroke %d is degenerate, no mesh generated", names[i], rf.stroke.ID)
			continue
		case errors.Is(err, extrude.ErrTopologyMismatch):
			r.warn("%s: stroke %d changes shape between steps, no mesh generated", names[i], rf.stroke.ID)
			continue
		case err != nil:
			return nil, fmt.Errorf("%s: %w", names[i], err)
		}
		r.res.Meshes = append(r.res.Meshes, built)
	}

	if !m.KeepOriginal {
		for _, rf := range refs {
			r.remove(rf)
		}
	}
	logging.Logger().Debug("generated meshes", "count", len(r.res.Meshes), "slope", m.Slope)
	return r.result(), nil
}
