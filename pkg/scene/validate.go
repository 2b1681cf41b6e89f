package scene

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks
// operators from running or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks operators
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Layer    string             // layer name, empty if scene-level
	Stroke   StrokeID           // zero if not stroke-specific
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	switch {
	case e.Stroke != 0:
		return fmt.Sprintf("[%s] layer %q stroke %d: %s", e.Severity, e.Layer, e.Stroke, e.Message)
	case e.Layer != "":
		return fmt.Sprintf("[%s] layer %q: %s", e.Severity, e.Layer, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
}

// Validate runs the structural checks on s and returns every finding. An
// empty slice means the scene is usable. It never mutates the scene.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateLayers(s)...)
	errs = append(errs, validateMaterials(s)...)
	errs = append(errs, validateStrokes(s)...)
	errs = append(errs, validateSelection(s)...)
	return errs
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateLayers(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := map[string]bool{}
	for _, l := range s.Layers {
		if l.Name == "" {
			errs = append(errs, ValidationError{Message: "layer has an empty name", Severity: SeverityError})
		} else if seen[l.Name] {
			errs = append(errs, ValidationError{Layer: l.Name, Message: "duplicate layer name", Severity: SeverityError})
		}
		seen[l.Name] = true

		for i := 1; i < len(l.Frames); i++ {
			if l.Frames[i].Number <= l.Frames[i-1].Number {
				errs = append(errs, ValidationError{
					Layer:    l.Name,
					Message:  fmt.Sprintf("frame %d is out of order", l.Frames[i].Number),
					Severity: SeverityError,
				})
			}
		}
	}
	if len(s.Layers) > 0 && s.Active() == nil {
		errs = append(errs, ValidationError{Message: "no active layer", Severity: SeverityWarning})
	}
	return errs
}

func validateMaterials(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := map[string]bool{}
	for _, m := range s.Materials {
		if seen[m.Name] {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate material name %q", m.Name),
				Severity: SeverityError,
			})
		}
		seen[m.Name] = true
	}
	return errs
}

func validateStrokes(s *Scene) []ValidationError {
	var errs []ValidationError
	ids := map[StrokeID]bool{}
	for _, l := range s.Layers {
		for _, f := range l.Frames {
			for _, st := range f.Strokes {
				if ids[st.ID] {
					errs = append(errs, ValidationError{Layer: l.Name, Stroke: st.ID, Message: "duplicate stroke id", Severity: SeverityError})
				}
				ids[st.ID] = true

				if s.Material(st.Material) == nil {
					errs = append(errs, ValidationError{
						Layer:    l.Name,
						Stroke:   st.ID,
						Message:  fmt.Sprintf("material index %d out of range", st.Material),
						Severity: SeverityError,
					})
				}
				if len(st.Points) < 2 {
					errs = append(errs, ValidationError{
						Layer:    l.Name,
						Stroke:   st.ID,
						Message:  fmt.Sprintf("stroke has %d points", len(st.Points)),
						Severity: SeverityWarning,
					})
				}
				if st.LineWidth < 0 {
					errs = append(errs, ValidationError{Layer: l.Name, Stroke: st.ID, Message: "negative line width", Severity: SeverityError})
				}
			}
		}
	}
	return errs
}

// validateSelection checks that selection sequence numbers are unique
// among selected strokes, since clip partitioning sorts on them.
func validateSelection(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := map[int]StrokeID{}
	for _, l := range s.Layers {
		for _, f := range l.Frames {
			for _, st := range f.Strokes {
				if !st.Select {
					continue
				}
				if st.SelectIndex <= 0 {
					errs = append(errs, ValidationError{Layer: l.Name, Stroke: st.ID, Message: "selected without a selection index", Severity: SeverityWarning})
					continue
				}
				if other, dup := seen[st.SelectIndex]; dup {
					errs = append(errs, ValidationError{
						Layer:    l.Name,
						Stroke:   st.ID,
						Message:  fmt.Sprintf("selection index %d also used by stroke %d", st.SelectIndex, other),
						Severity: SeverityWarning,
					})
				}
				seen[st.SelectIndex] = st.ID
			}
		}
	}
	return errs
}
