// Package boolean composes polygon sets with union, intersection,
// difference and xor, and decides which selected polygons act as
// subjects and which as clips.
package boolean

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/geom"
	"github.com/chazu/strokemesh/pkg/logging"
)

// Engine composes polygon sets through a clipping backend. Every input
// path is normalized to counter-clockwise on a copy before it is handed
// to the backend.
type Engine struct {
	backend clip.Backend
}

// New returns an engine, or clip.ErrMissingDependency when b is nil.
func New(b clip.Backend) (*Engine, error) {
	if err := clip.Require(b); err != nil {
		return nil, err
	}
	return &Engine{backend: b}, nil
}

// Compose combines all subjects with all clips in one backend call.
// With no subject or no clip there is nothing to compose and the result
// is empty.
func (e *Engine) Compose(subjects, clips geom.Set, op clip.Op) (geom.Set, error) {
	if e == nil || e.backend == nil {
		return nil, clip.ErrMissingDependency
	}
	if len(subjects) == 0 || len(clips) == 0 {
		return nil, nil
	}
	out, err := e.backend.Boolean(normalized(subjects), normalized(clips), op)
	if err != nil {
		return nil, fmt.Errorf("%s of %d subjects and %d clips: %w", op, len(subjects), len(clips), err)
	}
	return out, nil
}

// ComposeEach composes every subject separately against the full clip
// set and returns one result set per subject, in subject order.
func (e *Engine) ComposeEach(subjects, clips geom.Set, op clip.Op) ([]geom.Set, error) {
	if e == nil || e.backend == nil {
		return nil, clip.ErrMissingDependency
	}
	if len(subjects) == 0 || len(clips) == 0 {
		return nil, nil
	}
	results := make([]geom.Set, len(subjects))
	for i, s := range subjects {
		out, err := e.Compose(geom.Set{s}, clips, op)
		if err != nil {
			return nil, fmt.Errorf("subject %d: %w", i, err)
		}
		results[i] = out
	}
	return results, nil
}

func normalized(s geom.Set) geom.Set {
	out := s.Clone()
	for _, p := range out {
		p.Normalize(true)
	}
	return out
}

// ---------------------------------------------------------------------------
// Partitioning
// ---------------------------------------------------------------------------

// Partition splits polygon indices into subjects and clips.
type Partition struct {
	Subjects []int
	Clips    []int
}

// Split orders polygons by their selection sequence numbers (seq[i] is
// the sequence of polygon i) and makes the last numClips of them clips.
// At least one subject is always kept. With fewer than two polygons the
// partition is empty.
func Split(seq []int, numClips int) Partition {
	n := len(seq)
	if n < 2 {
		return Partition{}
	}
	clips := min(max(numClips, 1), n-1)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return seq[order[a]] < seq[order[b]] })

	p := Partition{
		Subjects: append([]int(nil), order[:n-clips]...),
		Clips:    append([]int(nil), order[n-clips:]...),
	}
	logging.Logger().Debug("boolean partition", "subjects", len(p.Subjects), "clips", len(p.Clips))
	return p
}

// Sets picks the subject and clip paths out of polys.
func (p Partition) Sets(polys geom.Set) (subjects, clips geom.Set) {
	for _, i := range p.Subjects {
		subjects = append(subjects, polys[i])
	}
	for _, i := range p.Clips {
		clips = append(clips, polys[i])
	}
	return subjects, clips
}

// ---------------------------------------------------------------------------
// Attribute inheritance
// ---------------------------------------------------------------------------

// Inherit names the role new strokes copy their attributes from.
type Inherit int

const (
	// InheritAuto averages attributes over every input.
	InheritAuto Inherit = iota
	// InheritSubject copies from subjects only.
	InheritSubject
	// InheritClip copies from clips only.
	InheritClip
)

func (i Inherit) String() string {
	switch i {
	case InheritAuto:
		return "auto"
	case InheritSubject:
		return "subject"
	case InheritClip:
		return "clip"
	}
	return fmt.Sprintf("Inherit(%d)", int(i))
}

// ParseInherit accepts "auto", "subject" and "clip" (plural forms too).
func ParseInherit(s string) (Inherit, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "auto":
		return InheritAuto, nil
	case "subject":
		return InheritSubject, nil
	case "clip":
		return InheritClip, nil
	}
	return 0, fmt.Errorf("invalid inherit source %q, expected auto, subject or clip", s)
}

// Mask returns the polygon indices excluded as attribute references for
// results of a batched composition.
func (p Partition) Mask(inherit Inherit) map[int]bool {
	mask := map[int]bool{}
	switch inherit {
	case InheritSubject:
		for _, i := range p.Clips {
			mask[i] = true
		}
	case InheritClip:
		for _, i := range p.Subjects {
			mask[i] = true
		}
	}
	return mask
}

// MaskEach returns the excluded references for the results of subject
// when subjects are composed one by one. Inheriting from subjects then
// means inheriting from that subject alone.
func (p Partition) MaskEach(inherit Inherit, subject int) map[int]bool {
	if inherit != InheritSubject {
		return p.Mask(inherit)
	}
	mask := map[int]bool{}
	for _, i := range p.Subjects {
		if i != subject {
			mask[i] = true
		}
	}
	for _, i := range p.Clips {
		mask[i] = true
	}
	return mask
}

// ---------------------------------------------------------------------------
// Processing sequence
// ---------------------------------------------------------------------------

// Sequence selects batched or per-subject composition.
type Sequence int

const (
	// All composes every subject with every clip at once.
	All Sequence = iota
	// Each composes each subject against the clips on its own.
	Each
)

func (s Sequence) String() string {
	switch s {
	case All:
		return "all"
	case Each:
		return "each"
	}
	return fmt.Sprintf("Sequence(%d)", int(s))
}

// ParseSequence accepts "all" and "each".
func ParseSequence(s string) (Sequence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return All, nil
	case "each":
		return Each, nil
	}
	return 0, fmt.Errorf("invalid processing sequence %q, expected all or each", s)
}
