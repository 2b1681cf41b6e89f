package operator

import (
	"fmt"
	"strings"

	"github.com/chazu/strokemesh/pkg/boolean"
	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/geom"
	"github.com/chazu/strokemesh/pkg/logging"
	"github.com/chazu/strokemesh/pkg/scene"
)

// Boolean composes the selected strokes of each edited frame. The last
// Clips strokes in selection order are clips and the rest subjects.
type Boolean struct {
	Op       clip.Op
	Inherit  boolean.Inherit
	Sequence boolean.Sequence
	// Clips is the requested clip count; at least one subject remains.
	Clips        int
	KeepSubjects bool
	KeepClips    bool
}

// DefaultBoolean returns the operator's default settings.
func DefaultBoolean() Boolean {
	return Boolean{Op: clip.Union, Inherit: boolean.InheritSubject, Sequence: boolean.All, Clips: 1}
}

func (b Boolean) Name() string { return "boolean" }

// Apply runs the composition. Generated strokes end up as the only
// selected strokes; intersection results are closed.
func (b Boolean) Apply(s *scene.Scene, env Env) (*Result, error) {
	r, err := newRun(s, env, false)
	if err != nil {
		return nil, err
	}
	eng, err := boolean.New(env.Clip)
	if err != nil {
		return nil, err
	}

	var generated []*scene.Stroke
	numbers, groups := r.s.EditFrames()
	for _, n := range numbers {
		refs := r.selected(groups[n])
		if len(refs) < 2 {
			continue
		}
		polys, scale := r.polygons(refs, true)
		seq := make([]int, len(refs))
		for i, rf := range refs {
			seq[i] = rf.stroke.SelectIndex
		}
		part := boolean.Split(seq, b.Clips)
		subjects, clips := part.Sets(polys)

		emitAll := func(out geom.Set, mask map[int]bool) {
			for _, p := range out {
				st := r.emit(p, scale, refs, mask, false)
				if b.Op == clip.Intersection {
					st.Cyclic = true
				}
				generated = append(generated, st)
			}
		}

		switch b.Sequence {
		case boolean.All:
			out, err := eng.Compose(subjects, clips, b.Op)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", n, err)
			}
			emitAll(out, part.Mask(b.Inherit))
		case boolean.Each:
			outs, err := eng.ComposeEach(subjects, clips, b.Op)
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", n, err)
			}
			for k, out := range outs {
				emitAll(out, part.MaskEach(b.Inherit, part.Subjects[k]))
			}
		default:
			return nil, fmt.Errorf("unknown processing sequence %d", int(b.Sequence))
		}

		if !b.KeepSubjects {
			for _, i := range part.Subjects {
				r.remove(refs[i])
			}
		}
		if !b.KeepClips {
			for _, i := range part.Clips {
				r.remove(refs[i])
			}
		}
	}

	r.s.DeselectAll()
	for _, st := range generated {
		r.s.Select(st)
	}
	logging.Logger().Debug("boolean selected", "op", b.Op, "generated", len(generated))
	return r.result(), nil
}

// ClipMode selects how the last stroke acts as a clip.
type ClipMode int

const (
	// ClipFill uses the stroke's filled area.
	ClipFill ClipMode = iota
	// ClipLine uses the area covered by the stroke's line radius.
	ClipLine
)

func (m ClipMode) String() string {
	switch m {
	case ClipFill:
		return "fill"
	case ClipLine:
		return "line"
	}
	return fmt.Sprintf("ClipMode(%d)", int(m))
}

// ParseClipMode accepts "fill" and "line".
func ParseClipMode(s string) (ClipMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fill":
		return ClipFill, nil
	case "line":
		return ClipLine, nil
	}
	return 0, fmt.Errorf("invalid clip mode %q, expected fill or line", s)
}

// BooleanLast composes the most recent stroke of the active frame of the
// active layer with every earlier stroke it overlaps.
type BooleanLast struct {
	Op       clip.Op
	ClipMode ClipMode
	// SameMaterial limits candidates to the clip's material.
	SameMaterial bool
	// FillOnly skips candidates whose material draws no fill.
	FillOnly bool
}

// DefaultBooleanLast returns the operator's default settings.
func DefaultBooleanLast() BooleanLast {
	return BooleanLast{Op: clip.Union, ClipMode: ClipFill}
}

func (b BooleanLast) Name() string { return "boolean-last" }

// Apply composes each candidate with the clip on its own. Every stroke
// involved, the clip included, is replaced by the results, which inherit
// from their candidate. The selection is cleared, unless nothing was
// composed, in which case it is left as it was.
func (b BooleanLast) Apply(s *scene.Scene, env Env) (*Result, error) {
	r, err := newRun(s, env, false)
	if err != nil {
		return nil, err
	}
	eng, err := boolean.New(env.Clip)
	if err != nil {
		return nil, err
	}
	saved := r.s.CaptureSelection()
	r.s.DeselectAll()
	unchanged := func() (*Result, error) {
		r.s.RestoreSelection(saved)
		return r.result(), nil
	}

	l := r.s.Active()
	if l == nil || l.Locked() {
		logging.Logger().Info("boolean with last stroke needs an unlocked active layer")
		return unchanged()
	}
	f := l.ActiveFrame()
	if f == nil || len(f.Strokes) == 0 {
		logging.Logger().Info("boolean with last stroke needs a non-empty layer")
		return unchanged()
	}
	fr := scene.FrameRef{Layer: r.s.ActiveLayer, Frame: l.Active}
	last := len(f.Strokes) - 1
	clipStroke := f.Strokes[last]
	clipPts := r.project(clipStroke)

	refs := []ref{{frame: fr, stroke: clipStroke}}
	for _, st := range f.Strokes[:last] {
		switch {
		case r.s.IsLocked(st):
		case b.SameMaterial && st.Material != clipStroke.Material:
		case b.FillOnly && r.s.IsLine(st):
		case !overlapping(clipPts, r.project(st)):
		default:
			refs = append(refs, ref{frame: fr, stroke: st})
		}
	}
	if len(refs) == 1 {
		return unchanged()
	}

	polys, scale := r.polygons(refs, true)
	clipSet := geom.Set{polys[0]}
	if b.ClipMode == ClipLine {
		end := clip.EndOpenRound
		if clipStroke.EndCap == scene.CapFlat {
			end = clip.EndOpenButt
		}
		radius := float64(clipStroke.LineWidth) / r.env.LineWidthFactor * scale
		area, err := env.Clip.Offset(clipSet, radius, clip.JoinRound, end)
		if err != nil {
			return nil, fmt.Errorf("clip line radius: %w", err)
		}
		clipSet = area
		if len(area) > 1 {
			clipSet = area[:1]
		}
	}

	for j := 1; j < len(refs); j++ {
		out, err := eng.Compose(geom.Set{polys[j]}, clipSet, b.Op)
		if err != nil {
			return nil, fmt.Errorf("stroke %d: %w", refs[j].stroke.ID, err)
		}
		for _, p := range out {
			st := r.emit(p, scale, []ref{refs[j], refs[0]}, map[int]bool{1: true}, false)
			if b.Op == clip.Intersection {
				st.Cyclic = true
			}
		}
	}
	for _, rf := range refs {
		r.remove(rf)
	}
	return r.result(), nil
}
