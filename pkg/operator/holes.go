package operator

import (
	"fmt"

	"github.com/chazu/strokemesh/pkg/hole"
	"github.com/chazu/strokemesh/pkg/logging"
	"github.com/chazu/strokemesh/pkg/scene"
)

// Holes gives strokes nested inside filled strokes a holdout material,
// alternating with nesting depth.
type Holes struct {
	// Rearrange moves each peeled generation to the top of the frame, so
	// holes end up above the shapes they cut.
	Rearrange bool
	// SeparateColors tracks nesting parity per fill colour.
	SeparateColors bool
}

// DefaultHoles returns the operator's default settings.
func DefaultHoles() Holes {
	return Holes{Rearrange: true}
}

func (h Holes) Name() string { return "holes" }

// Apply classifies the selected strokes of every edited frame on its own.
// Holdout variants are created once per run and reused.
func (h Holes) Apply(s *scene.Scene, env Env) (*Result, error) {
	r, err := newRun(s, env, false)
	if err != nil {
		return nil, err
	}
	cache := scene.HoldoutCache{}

	numbers, groups := r.s.EditFrames()
	for _, n := range numbers {
		for _, fr := range groups[n] {
			refs := r.selected([]scene.FrameRef{fr})
			if len(refs) == 0 {
				continue
			}
			polys, _ := r.polygons(refs, true)
			in := make([]hole.Polygon, len(refs))
			for i, rf := range refs {
				in[i] = hole.Polygon{
					Path:     polys[i],
					LineOnly: r.s.IsLine(rf.stroke),
					Color:    fmt.Sprint(rf.stroke.FillColor),
				}
			}
			res, err := hole.Classify(in, h.SeparateColors, env.Clip)
			if err != nil {
				return nil, fmt.Errorf("frame %d layer %q: %w", n, r.s.Layers[fr.Layer].Name, err)
			}

			for i, isHole := range res.Holes {
				if isHole {
					r.s.Holdout(refs[i].stroke, cache)
				}
			}
			if h.Rearrange && len(res.Batches) > 0 {
				r.touch(fr)
				f := r.s.Frame(fr)
				for _, batch := range res.Batches {
					ids := make(map[scene.StrokeID]bool, len(batch))
					for _, i := range batch {
						ids[refs[i].stroke.ID] = true
					}
					f.MoveToTop(ids)
				}
			}
			logging.Logger().Debug("processed holes", "frame", n, "strokes", len(refs), "generations", len(res.Batches))
		}
	}
	return r.result(), nil
}
