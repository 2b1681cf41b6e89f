package scene

// Attr selects which stroke attributes CopyAttributes transfers.
type Attr uint

const (
	AttrHardness Attr = 1 << iota
	AttrLineWidth
	AttrCap
	AttrCyclic
	AttrUV
	AttrMaterial
	AttrFillColor

	AttrAll = AttrHardness | AttrLineWidth | AttrCap | AttrCyclic | AttrUV | AttrMaterial | AttrFillColor
)

// CopyAttributes sets dst's attributes from srcs. Caps, the cyclic flag
// and the material come from the first source; hardness, uv and fill
// colour are averaged, and the line width is the floored integer mean.
func CopyAttributes(dst *Stroke, srcs []*Stroke, what Attr) {
	if len(srcs) == 0 {
		return
	}
	first := srcs[0]
	if what&AttrCap != 0 {
		dst.StartCap, dst.EndCap = first.StartCap, first.EndCap
	}
	if what&AttrCyclic != 0 {
		dst.Cyclic = first.Cyclic
	}
	if what&AttrMaterial != 0 {
		dst.Material = first.Material
	}

	var (
		hardness  float64
		lineWidth int
		uv        UV
		fill      Color
	)
	for _, s := range srcs {
		hardness += s.Hardness
		lineWidth += s.LineWidth
		uv.Scale += s.UV.Scale
		uv.Rotation += s.UV.Rotation
		uv.Translation = uv.Translation.Add(s.UV.Translation)
		for i := range fill {
			fill[i] += s.FillColor[i]
		}
	}
	n := float64(len(srcs))
	if what&AttrHardness != 0 {
		dst.Hardness = hardness / n
	}
	if what&AttrLineWidth != 0 {
		dst.LineWidth = lineWidth / len(srcs)
	}
	if what&AttrUV != 0 {
		dst.UV = UV{
			Translation: uv.Translation.DivScalar(n),
			Rotation:    uv.Rotation / n,
			Scale:       uv.Scale / n,
		}
	}
	if what&AttrFillColor != 0 {
		for i := range fill {
			dst.FillColor[i] = fill[i] / n
		}
	}
}

// IDs lists the frame's stroke ids bottom first.
func (f *Frame) IDs() []StrokeID {
	out := make([]StrokeID, len(f.Strokes))
	for i, s := range f.Strokes {
		out[i] = s.ID
	}
	return out
}

// IndexMap records where the strokes of one frame moved during an
// operator run. Old[i] is the new index of the stroke that sat at i, or
// -1 when it was removed. Inserted lists the indices of new strokes.
type IndexMap struct {
	Layer    int
	Frame    int
	Old      []int
	Inserted []int
}

// Remap compares the ids a frame held before an edit with its current
// strokes.
func Remap(ref FrameRef, before []StrokeID, f *Frame) IndexMap {
	m := IndexMap{Layer: ref.Layer, Frame: ref.Frame, Old: make([]int, len(before))}
	known := make(map[StrokeID]bool, len(before))
	for i, id := range before {
		known[id] = true
		m.Old[i] = f.IndexOf(id)
	}
	for i, s := range f.Strokes {
		if !known[s.ID] {
			m.Inserted = append(m.Inserted, i)
		}
	}
	return m
}
