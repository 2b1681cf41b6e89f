// Package scene is a value snapshot of a drawing: layers of frames of
// strokes plus a material table. Operators take a scene, work on a clone
// and hand the new scene back, so a caller's snapshot is never touched.
package scene

import (
	"fmt"
	"slices"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/strokemesh/pkg/plane"
)

// StrokeID identifies a stroke across clones of the same scene.
type StrokeID uint64

// CapMode is the shape drawn at an open stroke end.
type CapMode int

const (
	CapRound CapMode = iota
	CapFlat
)

func (c CapMode) String() string {
	switch c {
	case CapRound:
		return "round"
	case CapFlat:
		return "flat"
	default:
		return fmt.Sprintf("CapMode(%d)", int(c))
	}
}

// Point is one stroke sample with its vertex colour.
type Point struct {
	Co    v3.Vec
	Color Color
}

// UV is the fill texture transform of a stroke.
type UV struct {
	Translation v2.Vec
	Rotation    float64
	Scale       float64
}

// Stroke is a polyline or closed shape drawn with one material.
type Stroke struct {
	ID        StrokeID
	Points    []Point
	Material  int
	Cyclic    bool
	LineWidth int
	Hardness  float64
	StartCap  CapMode
	EndCap    CapMode
	UV        UV
	FillColor Color

	Select bool
	// SelectIndex orders selections; zero when unselected.
	SelectIndex int
}

// Coords returns the stroke's point positions.
func (s *Stroke) Coords() []v3.Vec {
	out := make([]v3.Vec, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Co
	}
	return out
}

func (s *Stroke) clone() *Stroke {
	c := *s
	c.Points = append([]Point(nil), s.Points...)
	return &c
}

// Frame holds the strokes of one layer at one frame number, bottom first.
type Frame struct {
	Number  int
	Select  bool
	Strokes []*Stroke
}

// IndexOf returns the position of the stroke with the given id, or -1.
func (f *Frame) IndexOf(id StrokeID) int {
	for i, s := range f.Strokes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Insert places s at index i, clamped to the frame's bounds, and returns
// the index used.
func (f *Frame) Insert(i int, s *Stroke) int {
	if i < 0 {
		i = 0
	}
	if i > len(f.Strokes) {
		i = len(f.Strokes)
	}
	f.Strokes = append(f.Strokes, nil)
	copy(f.Strokes[i+1:], f.Strokes[i:])
	f.Strokes[i] = s
	return i
}

// Remove deletes the stroke with the given id and reports whether it was
// present.
func (f *Frame) Remove(id StrokeID) bool {
	i := f.IndexOf(id)
	if i < 0 {
		return false
	}
	f.Strokes = append(f.Strokes[:i], f.Strokes[i+1:]...)
	return true
}

// MoveToTop moves the strokes with the given ids above every other stroke,
// keeping their relative order.
func (f *Frame) MoveToTop(ids map[StrokeID]bool) {
	rest := make([]*Stroke, 0, len(f.Strokes))
	var top []*Stroke
	for _, s := range f.Strokes {
		if ids[s.ID] {
			top = append(top, s)
			continue
		}
		rest = append(rest, s)
	}
	f.Strokes = append(rest, top...)
}

// Layer is a named stack of frames.
type Layer struct {
	Name   string
	Lock   bool
	Hide   bool
	Frames []*Frame
	// Active is the index of the active frame, -1 when there is none.
	Active int
}

// Locked reports whether the layer refuses edits.
func (l *Layer) Locked() bool {
	return l.Lock || l.Hide
}

// ActiveFrame returns the active frame or nil.
func (l *Layer) ActiveFrame() *Frame {
	if l.Active < 0 || l.Active >= len(l.Frames) {
		return nil
	}
	return l.Frames[l.Active]
}

// FrameAt returns the frame with the given number, creating it in order
// if needed, and makes it active.
func (l *Layer) FrameAt(number int) *Frame {
	pos := len(l.Frames)
	for i, f := range l.Frames {
		if f.Number == number {
			l.Active = i
			return f
		}
		if f.Number > number {
			pos = i
			break
		}
	}
	f := &Frame{Number: number}
	l.Frames = append(l.Frames, nil)
	copy(l.Frames[pos+1:], l.Frames[pos:])
	l.Frames[pos] = f
	l.Active = pos
	return f
}

// Scene is the full drawing snapshot.
type Scene struct {
	Plane        plane.WorkingPlane
	CurrentFrame int
	// MultiEdit processes every selected frame instead of active frames.
	MultiEdit   bool
	Layers      []*Layer
	ActiveLayer int
	Materials   []*Material

	nextID    StrokeID
	selectSeq int
}

// New returns an empty scene drawn on the given plane.
func New(p plane.WorkingPlane) *Scene {
	return &Scene{Plane: p, ActiveLayer: -1}
}

// Projector returns the projector for the scene's working plane.
func (s *Scene) Projector() plane.Projector {
	return plane.New(s.Plane)
}

// AddLayer appends a layer and makes it active.
func (s *Scene) AddLayer(name string) *Layer {
	l := &Layer{Name: name, Active: -1}
	s.Layers = append(s.Layers, l)
	s.ActiveLayer = len(s.Layers) - 1
	return l
}

// Layer returns the layer with the given name or nil.
func (s *Scene) Layer(name string) *Layer {
	for _, l := range s.Layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Active returns the active layer or nil.
func (s *Scene) Active() *Layer {
	if s.ActiveLayer < 0 || s.ActiveLayer >= len(s.Layers) {
		return nil
	}
	return s.Layers[s.ActiveLayer]
}

// NewStroke returns a stroke with a fresh id and default attributes. It
// is not attached to any frame.
func (s *Scene) NewStroke(material int, pts []v3.Vec) *Stroke {
	s.nextID++
	st := &Stroke{
		ID:        s.nextID,
		Material:  material,
		LineWidth: 10,
		Hardness:  1,
		UV:        UV{Scale: 1},
		Points:    make([]Point, len(pts)),
	}
	for i, p := range pts {
		st.Points[i] = Point{Co: p}
	}
	return st
}

// Find locates a stroke by id.
func (s *Scene) Find(id StrokeID) (layer, frame, index int, ok bool) {
	for li, l := range s.Layers {
		for fi, f := range l.Frames {
			if i := f.IndexOf(id); i >= 0 {
				return li, fi, i, true
			}
		}
	}
	return 0, 0, 0, false
}

// Clone deep-copies the scene. Stroke ids are preserved.
func (s *Scene) Clone() *Scene {
	c := *s
	c.Materials = make([]*Material, len(s.Materials))
	for i, m := range s.Materials {
		mc := *m
		c.Materials[i] = &mc
	}
	c.Layers = make([]*Layer, len(s.Layers))
	for i, l := range s.Layers {
		lc := *l
		lc.Frames = make([]*Frame, len(l.Frames))
		for j, f := range l.Frames {
			fc := *f
			fc.Strokes = make([]*Stroke, len(f.Strokes))
			for k, st := range f.Strokes {
				fc.Strokes[k] = st.clone()
			}
			lc.Frames[j] = &fc
		}
		c.Layers[i] = &lc
	}
	return &c
}

// FrameRef addresses one frame of one layer.
type FrameRef struct {
	Layer int
	Frame int
}

// EditFrames groups the frames an operator should process by frame
// number, in ascending number order. In multi-edit mode every selected
// frame counts; otherwise, or when none is selected, the active frame of
// each layer does.
func (s *Scene) EditFrames() (numbers []int, groups map[int][]FrameRef) {
	groups = map[int][]FrameRef{}
	add := func(li, fi int) {
		n := s.Layers[li].Frames[fi].Number
		if _, ok := groups[n]; !ok {
			numbers = append(numbers, n)
		}
		groups[n] = append(groups[n], FrameRef{Layer: li, Frame: fi})
	}
	if s.MultiEdit {
		for li, l := range s.Layers {
			for fi, f := range l.Frames {
				if f.Select {
					add(li, fi)
				}
			}
		}
	}
	if len(groups) == 0 {
		for li, l := range s.Layers {
			if l.ActiveFrame() != nil {
				add(li, l.Active)
			}
		}
	}
	slices.Sort(numbers)
	return numbers, groups
}

// Frame resolves a reference.
func (s *Scene) Frame(r FrameRef) *Frame {
	return s.Layers[r.Layer].Frames[r.Frame]
}
