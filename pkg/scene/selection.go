package scene

// Selection is a saved selection state: the select index of every stroke
// that existed when it was captured.
type Selection map[StrokeID]int

// Select marks st selected with the next selection sequence number.
func (s *Scene) Select(st *Stroke) {
	s.selectSeq++
	st.Select = true
	st.SelectIndex = s.selectSeq
}

// DeselectAll clears every stroke's selection.
func (s *Scene) DeselectAll() {
	s.eachStroke(func(st *Stroke) {
		st.Select = false
		st.SelectIndex = 0
	})
}

// Selected returns the selected strokes of f, bottom first.
func (f *Frame) Selected() []*Stroke {
	var out []*Stroke
	for _, st := range f.Strokes {
		if st.Select {
			out = append(out, st)
		}
	}
	return out
}

// CaptureSelection snapshots the select index of every stroke.
func (s *Scene) CaptureSelection() Selection {
	sel := Selection{}
	s.eachStroke(func(st *Stroke) {
		sel[st.ID] = st.SelectIndex
	})
	return sel
}

// RestoreSelection re-applies sel. Strokes it does not know about, such
// as ones created after the capture, end up deselected.
func (s *Scene) RestoreSelection(sel Selection) {
	s.eachStroke(func(st *Stroke) {
		idx, ok := sel[st.ID]
		st.Select = ok && idx > 0
		st.SelectIndex = 0
		if st.Select {
			st.SelectIndex = idx
		}
	})
}

func (s *Scene) eachStroke(fn func(*Stroke)) {
	for _, l := range s.Layers {
		for _, f := range l.Frames {
			for _, st := range f.Strokes {
				fn(st)
			}
		}
	}
}
