package engine

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/strokemesh/pkg/boolean"
	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/extrude"
	"github.com/chazu/strokemesh/pkg/offset"
	"github.com/chazu/strokemesh/pkg/operator"
	"github.com/chazu/strokemesh/pkg/plane"
	"github.com/chazu/strokemesh/pkg/scene"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms strokemesh Lisp source code before passing it
// to zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: boolean-last -> boolean_last
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. Line comments: ; and ;; become //, which is what zygomys reads.
//
// All transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters; a
		// minus operator or a negative literal is left alone.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpStroke refers to a stroke drawn earlier in the script.
type sexpStroke struct {
	id scene.StrokeID
}

func (s *sexpStroke) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(stroke #%d)", s.id)
}
func (s *sexpStroke) Type() *zygo.RegisteredType { return nil }

// sexpVec3 is a world-space point.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpVec2 is a point on the working plane, x to the right and y up.
type sexpVec2 struct {
	vec v2.Vec
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Keyword at end with no value: treat as flag with nil.
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// only rejects keywords the form does not know about.
func (pa kwArgs) only(form string, allowed ...string) error {
	for _, k := range slices.Sorted(maps.Keys(pa.kw)) {
		if !slices.Contains(allowed, k) {
			return fmt.Errorf("%s: unknown keyword :%s", form, k)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected whole number, got %g", f)
	}
	return int(f), nil
}

// toBool accepts true, false and nil.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return false, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_round) and plain strings ("round").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toColor parses a "#rrggbb" string.
func toColor(s zygo.Sexp) (scene.Color, error) {
	str, err := toString(s)
	if err != nil {
		return scene.Color{}, err
	}
	return scene.ParseColor(str)
}

// toStrokeRef extracts a stroke id from a sexpStroke.
func toStrokeRef(s zygo.Sexp) (scene.StrokeID, error) {
	if ref, ok := s.(*sexpStroke); ok {
		return ref.id, nil
	}
	return 0, fmt.Errorf("expected stroke reference, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Scene builder
// ---------------------------------------------------------------------------

// DefaultLayer and DefaultMaterial are created on first use when a script
// draws before declaring its own.
const (
	DefaultLayer    = "Layer"
	DefaultMaterial = "Default"
)

// DefaultSegments is the vertex count of a circle.
const DefaultSegments = 32

// builder accumulates the scene and operator queue while a script runs.
type builder struct {
	opts  Options
	s     *scene.Scene
	ops   []operator.Operator
	drawn bool
}

func newBuilder(opts Options) *builder {
	s := scene.New(opts.Plane)
	s.CurrentFrame = 1
	return &builder{opts: opts, s: s}
}

// layer returns the active layer, creating the default one if needed.
func (b *builder) layer() *scene.Layer {
	if l := b.s.Active(); l != nil {
		return l
	}
	return b.s.AddLayer(DefaultLayer)
}

func (b *builder) material(name string) (int, error) {
	if name == "" {
		if len(b.s.Materials) > 0 {
			return 0, nil
		}
		return b.s.AddMaterial(scene.Material{
			Name:      DefaultMaterial,
			ShowFill:  true,
			FillColor: scene.Color{0.5, 0.5, 0.5, 1},
		}), nil
	}
	i := b.s.MaterialIndex(name)
	if i < 0 {
		return 0, fmt.Errorf("no material named %q", name)
	}
	return i, nil
}

// planePoint maps a script 2D point onto the working plane.
func (b *builder) planePoint(p v2.Vec, depth float64) v3.Vec {
	return b.s.Projector().To3D(v2.Vec{X: p.X, Y: -p.Y}, depth, 1)
}

// settleFrames makes each layer's active frame the last one at or before
// the current frame.
func (b *builder) settleFrames() {
	for _, l := range b.s.Layers {
		l.Active = -1
		for i, f := range l.Frames {
			if f.Number <= b.s.CurrentFrame {
				l.Active = i
			}
		}
	}
}

// strokeKeywords are accepted by every drawing form.
var strokeKeywords = []string{
	"material", "cyclic", "line-width", "hardness", "cap",
	"fill-color", "line-color", "select", "depth",
}

func (b *builder) depth(pa kwArgs) (float64, error) {
	v, ok := pa.kw["depth"]
	if !ok {
		return 0, nil
	}
	return toFloat64(v)
}

// draw appends a stroke to the current frame of the active layer.
func (b *builder) draw(form string, pa kwArgs, pts []v3.Vec, cyclic bool) (zygo.Sexp, error) {
	var matName string
	if v, ok := pa.kw["material"]; ok {
		s, err := toString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: material: %w", form, err)
		}
		matName = s
	}
	mat, err := b.material(matName)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
	}

	st := b.s.NewStroke(mat, pts)
	st.Cyclic = cyclic
	selected := false
	for _, k := range slices.Sorted(maps.Keys(pa.kw)) {
		v := pa.kw[k]
		var err error
		switch k {
		case "cyclic":
			st.Cyclic, err = toBool(v)
		case "line-width":
			st.LineWidth, err = toInt(v)
		case "hardness":
			st.Hardness, err = toFloat64(v)
		case "cap":
			var name string
			if name, err = toKeywordString(v); err == nil {
				switch name {
				case "round":
					st.StartCap, st.EndCap = scene.CapRound, scene.CapRound
				case "flat":
					st.StartCap, st.EndCap = scene.CapFlat, scene.CapFlat
				default:
					err = fmt.Errorf("invalid cap %q, expected round or flat", name)
				}
			}
		case "fill-color":
			st.FillColor, err = toColor(v)
		case "line-color":
			var c scene.Color
			if c, err = toColor(v); err == nil {
				for i := range st.Points {
					st.Points[i].Color = c
				}
			}
		case "select":
			selected, err = toBool(v)
		}
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %s: %w", form, k, err)
		}
	}

	f := b.layer().FrameAt(b.s.CurrentFrame)
	f.Insert(len(f.Strokes), st)
	if selected {
		b.s.Select(st)
	}
	b.drawn = true
	return &sexpStroke{id: st.ID}, nil
}

func (b *builder) stroke(id scene.StrokeID) (*scene.Stroke, error) {
	li, fi, si, ok := b.s.Find(id)
	if !ok {
		return nil, fmt.Errorf("stroke #%d no longer exists", id)
	}
	return b.s.Layers[li].Frames[fi].Strokes[si], nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all strokemesh DSL builtins into a zygomys
// environment. The builtins operate on the provided builder, populating it
// during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	registerSceneBuiltins(env, b)
	registerDrawingBuiltins(env, b)
	registerOperatorBuiltins(env, b)
}

func registerSceneBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (plane :x-y)
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("plane requires exactly 1 argument, got %d", len(args))
		}
		if b.drawn {
			return zygo.SexpNull, fmt.Errorf("plane must be set before any stroke is drawn")
		}
		s, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane: %w", err)
		}
		p, err := plane.Parse(s)
		if err != nil {
			return zygo.SexpNull, err
		}
		b.s.Plane = p
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (frame 3 :select true)
	// -----------------------------------------------------------------------
	env.AddFunction("frame", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("frame", "select"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("frame requires a frame number")
		}
		n, err := toInt(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("frame: %w", err)
		}
		b.s.CurrentFrame = n
		if v, ok := pa.kw["select"]; ok {
			sel, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("frame: select: %w", err)
			}
			b.layer().FrameAt(n).Select = sel
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (multi-edit true)
	// -----------------------------------------------------------------------
	env.AddFunction("multi_edit", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("multi-edit requires exactly 1 argument, got %d", len(args))
		}
		on, err := toBool(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("multi-edit: %w", err)
		}
		b.s.MultiEdit = on
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (layer "ink" :lock false :hide false)
	// -----------------------------------------------------------------------
	env.AddFunction("layer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("layer", "lock", "hide"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("layer requires a name argument")
		}
		layerName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("layer: name: %w", err)
		}

		l := b.s.Layer(layerName)
		if l == nil {
			l = b.s.AddLayer(layerName)
		} else {
			b.s.ActiveLayer = slices.Index(b.s.Layers, l)
		}
		if v, ok := pa.kw["lock"]; ok {
			if l.Lock, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("layer: lock: %w", err)
			}
		}
		if v, ok := pa.kw["hide"]; ok {
			if l.Hide, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("layer: hide: %w", err)
			}
		}
		return &zygo.SexpStr{S: layerName}, nil
	})

	// -----------------------------------------------------------------------
	// (material "skin" :fill true :holdout false :color "#ffcc99")
	// -----------------------------------------------------------------------
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("material", "fill", "holdout", "color", "lock", "hide"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("material requires a name argument")
		}
		matName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("material: name: %w", err)
		}
		if b.s.MaterialIndex(matName) >= 0 {
			return zygo.SexpNull, fmt.Errorf("material: %q already defined", matName)
		}

		m := scene.Material{Name: matName, ShowFill: true, FillColor: scene.Color{0.5, 0.5, 0.5, 1}}
		for _, k := range slices.Sorted(maps.Keys(pa.kw)) {
			v := pa.kw[k]
			var err error
			switch k {
			case "fill":
				m.ShowFill, err = toBool(v)
			case "holdout":
				m.Holdout, err = toBool(v)
			case "color":
				m.FillColor, err = toColor(v)
			case "lock":
				m.Lock, err = toBool(v)
			case "hide":
				m.Hide, err = toBool(v)
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("material: %s: %w", k, err)
			}
		}
		b.s.AddMaterial(m)
		return &zygo.SexpStr{S: matName}, nil
	})

	// -----------------------------------------------------------------------
	// (select a b ...) and (deselect-all)
	// -----------------------------------------------------------------------
	env.AddFunction("select", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		for i, arg := range args {
			items := []zygo.Sexp{arg}
			if _, ok := arg.(*sexpStroke); !ok {
				list, err := sexpListToSlice(arg)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("select: argument %d: expected stroke reference or list, got %T", i, arg)
				}
				items = list
			}
			for _, item := range items {
				id, err := toStrokeRef(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("select: %w", err)
				}
				st, err := b.stroke(id)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("select: %w", err)
				}
				b.s.Select(st)
			}
		}
		return zygo.SexpNull, nil
	})

	env.AddFunction("deselect_all", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("deselect-all takes no arguments")
		}
		b.s.DeselectAll()
		return zygo.SexpNull, nil
	})
}

func registerDrawingBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3) and (vec2 1 2)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, arg := range args {
			f, err := toFloat64(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}
		return &sexpVec2{vec: v2.Vec{X: x, Y: y}}, nil
	})

	// -----------------------------------------------------------------------
	// (stroke :points (list (vec2 0 0) (vec2 10 0) ...) :material "ink")
	// -----------------------------------------------------------------------
	env.AddFunction("stroke", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("stroke", append(strokeKeywords, "points")...); err != nil {
			return zygo.SexpNull, err
		}
		depth, err := b.depth(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stroke: depth: %w", err)
		}
		v, ok := pa.kw["points"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("stroke requires :points")
		}
		items, err := sexpListToSlice(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stroke: points: %w", err)
		}
		pts := make([]v3.Vec, len(items))
		for i, item := range items {
			switch p := item.(type) {
			case *sexpVec3:
				pts[i] = p.vec
			case *sexpVec2:
				pts[i] = b.planePoint(p.vec, depth)
			default:
				return zygo.SexpNull, fmt.Errorf("stroke: point %d: expected vec2 or vec3, got %T (%s)",
					i, item, item.SexpString(nil))
			}
		}
		return b.draw("stroke", pa, pts, false)
	})

	// -----------------------------------------------------------------------
	// (rect 0 0 100 50 :material "ink")
	// -----------------------------------------------------------------------
	env.AddFunction("rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("rect", strokeKeywords...); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 4 {
			return zygo.SexpNull, fmt.Errorf("rect requires x y width height, got %d arguments", len(pa.positional))
		}
		var d [4]float64
		for i, arg := range pa.positional {
			f, err := toFloat64(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rect: argument %d: %w", i, err)
			}
			d[i] = f
		}
		if d[2] <= 0 || d[3] <= 0 {
			return zygo.SexpNull, fmt.Errorf("rect: width and height must be positive")
		}
		depth, err := b.depth(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: depth: %w", err)
		}
		x, y, w, h := d[0], d[1], d[2], d[3]
		pts := []v3.Vec{
			b.planePoint(v2.Vec{X: x, Y: y}, depth),
			b.planePoint(v2.Vec{X: x + w, Y: y}, depth),
			b.planePoint(v2.Vec{X: x + w, Y: y + h}, depth),
			b.planePoint(v2.Vec{X: x, Y: y + h}, depth),
		}
		return b.draw("rect", pa, pts, true)
	})

	// -----------------------------------------------------------------------
	// (circle 0 0 25 :segments 48)
	// -----------------------------------------------------------------------
	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("circle", append(strokeKeywords, "segments")...); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("circle requires cx cy radius, got %d arguments", len(pa.positional))
		}
		var d [3]float64
		for i, arg := range pa.positional {
			f, err := toFloat64(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("circle: argument %d: %w", i, err)
			}
			d[i] = f
		}
		if d[2] <= 0 {
			return zygo.SexpNull, fmt.Errorf("circle: radius must be positive")
		}
		n := DefaultSegments
		if v, ok := pa.kw["segments"]; ok {
			var err error
			if n, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("circle: segments: %w", err)
			}
			if n < 3 {
				return zygo.SexpNull, fmt.Errorf("circle: segments must be at least 3, got %d", n)
			}
		}
		depth, err := b.depth(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: depth: %w", err)
		}
		pts := make([]v3.Vec, n)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / float64(n)
			pts[i] = b.planePoint(v2.Vec{X: d[0] + d[2]*math.Cos(a), Y: d[1] + d[2]*math.Sin(a)}, depth)
		}
		return b.draw("circle", pa, pts, true)
	})
}

func registerOperatorBuiltins(env *zygo.Zlisp, b *builder) {
	queue := func(op operator.Operator) (zygo.Sexp, error) {
		b.ops = append(b.ops, op)
		return &zygo.SexpStr{S: op.Name()}, nil
	}

	// -----------------------------------------------------------------------
	// (offset :amount -0.5 :corner :square :mode :fill :keep-original true)
	// -----------------------------------------------------------------------
	env.AddFunction("offset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("offset", "amount", "falloff", "corner", "mode", "keep-original",
			"invert-holdout", "line-color", "line-color-factor", "fill-color", "fill-color-factor"); err != nil {
			return zygo.SexpNull, err
		}
		op := b.opts.Offset
		for _, k := range slices.Sorted(maps.Keys(pa.kw)) {
			v := pa.kw[k]
			var err error
			switch k {
			case "amount":
				op.Amount, err = toFloat64(v)
			case "falloff":
				op.Falloff, err = toFloat64(v)
			case "corner":
				op.Join, err = parseKW(v, clip.ParseJoin)
			case "mode":
				op.Mode, err = parseKW(v, offset.ParseMode)
			case "keep-original":
				op.KeepOriginal, err = toBool(v)
			case "invert-holdout":
				op.InvertHoldout, err = toBool(v)
			case "line-color":
				op.LineColor, err = toColor(v)
			case "line-color-factor":
				op.LineColorFactor, err = toFloat64(v)
			case "fill-color":
				op.FillColor, err = toColor(v)
			case "fill-color-factor":
				op.FillColorFactor, err = toFloat64(v)
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("offset: %s: %w", k, err)
			}
		}
		return queue(op)
	})

	// -----------------------------------------------------------------------
	// (boolean :op :union :inherit :subject :sequence :all :clips 1)
	// -----------------------------------------------------------------------
	env.AddFunction("boolean", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("boolean", "op", "inherit", "sequence", "clips", "keep-subjects", "keep-clips"); err != nil {
			return zygo.SexpNull, err
		}
		op := b.opts.Boolean
		for _, k := range slices.Sorted(maps.Keys(pa.kw)) {
			v := pa.kw[k]
			var err error
			switch k {
			case "op":
				op.Op, err = parseKW(v, clip.ParseOp)
			case "inherit":
				op.Inherit, err = parseKW(v, boolean.ParseInherit)
			case "sequence":
				op.Sequence, err = parseKW(v, boolean.ParseSequence)
			case "clips":
				if op.Clips, err = toInt(v); err == nil && op.Clips < 1 {
					err = fmt.Errorf("must be at least 1, got %d", op.Clips)
				}
			case "keep-subjects":
				op.KeepSubjects, err = toBool(v)
			case "keep-clips":
				op.KeepClips, err = toBool(v)
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("boolean: %s: %w", k, err)
			}
		}
		return queue(op)
	})

	// -----------------------------------------------------------------------
	// (boolean-last :op :difference :clip-mode :line)
	// -----------------------------------------------------------------------
	env.AddFunction("boolean_last", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("boolean-last", "op", "clip-mode", "same-material", "fill-only"); err != nil {
			return zygo.SexpNull, err
		}
		op := b.opts.BooleanLast
		for _, k := range slices.Sorted(maps.Keys(pa.kw)) {
			v := pa.kw[k]
			var err error
			switch k {
			case "op":
				op.Op, err = parseKW(v, clip.ParseOp)
			case "clip-mode":
				op.ClipMode, err = parseKW(v, operator.ParseClipMode)
			case "same-material":
				op.SameMaterial, err = toBool(v)
			case "fill-only":
				op.FillOnly, err = toBool(v)
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("boolean-last: %s: %w", k, err)
			}
		}
		return queue(op)
	})

	// -----------------------------------------------------------------------
	// (holes :rearrange true :separate-colors false)
	// -----------------------------------------------------------------------
	env.AddFunction("holes", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("holes", "rearrange", "separate-colors"); err != nil {
			return zygo.SexpNull, err
		}
		op := b.opts.Holes
		var err error
		if v, ok := pa.kw["rearrange"]; ok {
			if op.Rearrange, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("holes: rearrange: %w", err)
			}
		}
		if v, ok := pa.kw["separate-colors"]; ok {
			if op.SeparateColors, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("holes: separate-colors: %w", err)
			}
		}
		return queue(op)
	})

	// -----------------------------------------------------------------------
	// (extrude :amount 0.1 :resolution 4 :corner :round :slope :sphere)
	// -----------------------------------------------------------------------
	env.AddFunction("extrude", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("extrude", "amount", "resolution", "corner", "slope",
			"shade-smooth", "keep-original", "mirror"); err != nil {
			return zygo.SexpNull, err
		}
		op := b.opts.Mesh
		for _, k := range slices.Sorted(maps.Keys(pa.kw)) {
			v := pa.kw[k]
			var err error
			switch k {
			case "amount":
				op.Amount, err = toFloat64(v)
			case "resolution":
				if op.Resolution, err = toInt(v); err == nil && (op.Resolution < 1 || op.Resolution > extrude.MaxResolution) {
					err = fmt.Errorf("must be within [1, %d], got %d", extrude.MaxResolution, op.Resolution)
				}
			case "corner":
				op.Join, err = parseKW(v, clip.ParseJoin)
			case "slope":
				op.Slope, err = parseKW(v, extrude.ParseSlope)
			case "shade-smooth":
				op.Smooth, err = toBool(v)
			case "keep-original":
				op.KeepOriginal, err = toBool(v)
			case "mirror":
				op.Mirror, err = toBool(v)
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("extrude: %s: %w", k, err)
			}
		}
		return queue(op)
	})
}

// parseKW reads a keyword or string and hands it to parse.
func parseKW[T any](s zygo.Sexp, parse func(string) (T, error)) (T, error) {
	name, err := toKeywordString(s)
	if err != nil {
		var zero T
		return zero, err
	}
	return parse(name)
}
