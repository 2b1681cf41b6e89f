package operator

import (
	"fmt"
	"math"

	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/logging"
	"github.com/chazu/strokemesh/pkg/offset"
	"github.com/chazu/strokemesh/pkg/scene"
)

// Offset grows or shrinks every selected stroke.
type Offset struct {
	// Amount is the offset distance in world units; positive grows.
	Amount float64
	// Falloff reduces the amount per frame of distance from the current
	// frame in multi-edit mode.
	Falloff float64
	Join    clip.Join
	Mode    offset.Mode
	// KeepOriginal leaves the source strokes in place.
	KeepOriginal bool
	// InvertHoldout negates the amount for strokes with a holdout fill.
	InvertHoldout bool

	LineColor       scene.Color
	LineColorFactor float64
	FillColor       scene.Color
	FillColorFactor float64
}

// DefaultOffset returns the operator's default settings.
func DefaultOffset() Offset {
	return Offset{
		Join:          clip.JoinRound,
		Mode:          offset.Fill,
		InvertHoldout: true,
		LineColor:     scene.Color{1, 0, 0, 1},
		FillColor:     scene.Color{0, 0, 1, 1},
	}
}

func (o Offset) Name() string { return "offset" }

// Apply offsets the selected strokes of every edited frame. New strokes
// are closed, selected, and placed behind their source when the offset
// makes them larger.
func (o Offset) Apply(s *scene.Scene, env Env) (*Result, error) {
	r, err := newRun(s, env, false)
	if err != nil {
		return nil, err
	}
	eng, err := offset.New(env.Clip)
	if err != nil {
		return nil, err
	}

	var generated []*scene.Stroke
	numbers, groups := r.s.EditFrames()
	for _, n := range numbers {
		refs := r.selected(groups[n])
		if len(refs) == 0 {
			continue
		}
		polys, scale := r.polygons(refs, false)

		falloff := 1.0
		if r.s.MultiEdit {
			gap := math.Abs(float64(r.s.CurrentFrame - n))
			falloff = math.Max(0, 1-gap*o.Falloff)
		}

		for j, rf := range refs {
			sign := 1.0
			if o.InvertHoldout && r.s.IsHole(rf.stroke) {
				sign = -1
			}
			out, err := eng.Offset(polys[j], o.Amount*sign*scale*falloff, o.Join, o.Mode)
			if err != nil {
				return nil, fmt.Errorf("offset stroke %d: %w", rf.stroke.ID, err)
			}
			behind := o.Amount*sign > 0
			for _, p := range out {
				st := r.emit(p, scale, []ref{rf}, nil, behind)
				st.Cyclic = true
				generated = append(generated, st)
			}
			if !o.KeepOriginal {
				r.remove(rf)
			}
		}
	}

	for _, st := range generated {
		st.FillColor = st.FillColor.Mix(o.FillColor, o.FillColorFactor)
		for i := range st.Points {
			st.Points[i].Color = st.Points[i].Color.Mix(o.LineColor, o.LineColorFactor)
		}
		r.s.Select(st)
	}
	logging.Logger().Debug("offset selected", "generated", len(generated), "amount", o.Amount, "mode", o.Mode)
	return r.result(), nil
}
