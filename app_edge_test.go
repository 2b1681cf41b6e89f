package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: slices must serialize as [] rather than null.
// ---------------------------------------------------------------------------

func TestE2EEmptySourceSerializesEmptyArrays(t *testing.T) {
	result := NewApp().Evaluate("")

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	for _, key := range []string{`"strokes":[]`, `"meshes":[]`, `"errors":[]`, `"warnings":[]`} {
		if !strings.Contains(got, key) {
			t.Errorf("expected %s in %s", key, got)
		}
	}
	if strings.Contains(got, "Solids") || strings.Contains(got, "Scene") {
		t.Errorf("exporter fields should not be serialized: %s", got)
	}
}

func TestE2EWhitespaceAndComments(t *testing.T) {
	for _, source := range []string{"   \n\t  \n  ", "; just a comment\n;; and another", "\n\n  ; indented\n\n"} {
		result := NewApp().Evaluate(source)
		if len(result.Errors) != 0 {
			t.Errorf("source %q: expected 0 errors, got %+v", source, result.Errors)
		}
		if len(result.Strokes) != 0 {
			t.Errorf("source %q: expected 0 strokes, got %d", source, len(result.Strokes))
		}
	}
}

// ---------------------------------------------------------------------------
// 2. Script errors: no partial scene leaks out.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	// Valid code on line 1, broken code on line 2 so line info is meaningful.
	result := NewApp().Evaluate("(rect 0 0 1 1)\n(circle 0 0 5")

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Strokes) != 0 {
		t.Errorf("expected 0 strokes on syntax error, got %d", len(result.Strokes))
	}
	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestE2EFormErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown keyword", `(rect 0 0 1 1 :colour "#ff0000")`, "colour"},
		{"plane after drawing", `(rect 0 0 1 1) (plane :x-y)`, "plane"},
		{"unknown material", `(rect 0 0 1 1 :material "ghost")`, "ghost"},
		{"zero size", `(rect 0 0 0 1)`, "positive"},
		{"undefined function", `(undefined-func 1 2 3)`, ""},
		{"empty layer name", `(layer "") (rect 0 0 1 1)`, "empty name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewApp().Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Fatalf("expected an error for %q", tt.source)
			}
			if !strings.Contains(result.Errors[0].Message, tt.want) {
				t.Errorf("expected %q in %q", tt.want, result.Errors[0].Message)
			}
			if len(result.Strokes) != 0 || len(result.Meshes) != 0 {
				t.Error("a failed evaluation should return no geometry")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 3. Warnings pass through without failing the evaluation.
// ---------------------------------------------------------------------------

func TestE2ESinglePointStrokeWarns(t *testing.T) {
	result := NewApp().Evaluate(`(stroke :points (list (vec2 3 4)))`)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %+v", result.Warnings)
	}
	if !strings.Contains(result.Warnings[0].Message, "1 points") {
		t.Errorf("unexpected warning %q", result.Warnings[0].Message)
	}
	if len(result.Strokes) != 1 {
		t.Errorf("the stroke should still be returned, got %d", len(result.Strokes))
	}
}

func TestE2EDegenerateExtrusionWarns(t *testing.T) {
	source := `
(plane :x-y)
(layer "l")
(rect 0 0 10 10 :select true)
(stroke :points (list (vec2 0 20) (vec2 5 20) (vec2 10 20)) :select true)
(extrude :amount 1)
`
	result := NewApp().Evaluate(source)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].Name != "Offset_l_0" {
		t.Errorf("unexpected mesh name %q", result.Meshes[0].Name)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0].Message, "Offset_l_1") {
		t.Errorf("expected a warning about Offset_l_1, got %+v", result.Warnings)
	}
}

// ---------------------------------------------------------------------------
// 4. Operators with nothing selected leave the scene alone.
// ---------------------------------------------------------------------------

func TestE2EOperatorsWithoutSelection(t *testing.T) {
	source := `
(rect 0 0 10 10)
(rect 20 0 10 10)
(offset :amount 1)
(holes)
(extrude)
`
	result := NewApp().Evaluate(source)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Strokes) != 2 {
		t.Errorf("expected the 2 drawn strokes, got %d", len(result.Strokes))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

func TestE2EOperatorsChain(t *testing.T) {
	// The offset result is selected, so the extrusion picks it up.
	source := `
(plane :x-y)
(rect 0 0 20 20 :select true)
(offset :amount -2)
(extrude :amount 1)
`
	result := NewApp().Evaluate(source)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if len(result.Strokes) != 1 {
		t.Fatalf("expected the inset to replace its source, got %d strokes", len(result.Strokes))
	}
	if !result.Strokes[0].Selected {
		t.Error("the inset should stay selected")
	}
}

func TestE2EScriptSelectionIsFinal(t *testing.T) {
	// Operators run on the scene the whole script built, so a later
	// deselect-all leaves them nothing to do.
	result := NewApp().Evaluate(`(rect 0 0 20 20 :select true) (offset :amount -2) (deselect-all)`)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Strokes) != 1 || result.Strokes[0].Selected {
		t.Errorf("expected the untouched, deselected source, got %+v", result.Strokes)
	}
}

// ---------------------------------------------------------------------------
// 5. Rapid evaluation (debounce simulation): no panics, no data races.
//    Run with `go test -race` to detect data races.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// Alternates between valid and invalid sources so the engine has to
	// recover cleanly between error and success states.
	app := NewApp()

	sources := []string{
		`(rect 0 0 10 10 :select true) (offset :amount 1)`,
		`(rect 0 0 10`,
		``,
		`(select 42)`,
		`(circle 0 0 5 :select true) (extrude)`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(layer "x" :lock true) (rect 0 0 1 1 :select true) (holes)`,
		`(undefined-func 1 2 3)`,
		`(rect 0 0 10 10 :select true) (rect 5 5 10 10 :select true) (boolean :op :xor)`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			_ = app.Evaluate(source)
		}()
	}

	// The engine is still usable afterwards.
	result := app.Evaluate(`(rect 0 0 1 1)`)
	if len(result.Errors) != 0 || len(result.Strokes) != 1 {
		t.Errorf("engine did not recover: %+v", result)
	}
}

// ---------------------------------------------------------------------------
// 6. Arithmetic in scripts.
// ---------------------------------------------------------------------------

func TestE2EArithmeticDimensions(t *testing.T) {
	source := `
(def size 40)
(def margin (/ size 8))
(rect margin margin (- size (* 2 margin)) (- size (* 2 margin)) :select true)
(circle (/ size 2) (/ size 2) (* margin 1.5) :segments 16)
`
	result := NewApp().Evaluate(source)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Strokes) != 2 {
		t.Fatalf("expected 2 strokes, got %d", len(result.Strokes))
	}
	lo, hi := bounds(result.Strokes[0].Points)
	if lo[0] != 5 || hi[0] != 35 {
		t.Errorf("rect spans x %.3f..%.3f, want 5..35", lo[0], hi[0])
	}
	if n := len(result.Strokes[1].Points) / 3; n != 16 {
		t.Errorf("expected 16 circle points, got %d", n)
	}
	if !result.Strokes[0].Selected || result.Strokes[1].Selected {
		t.Error("selection flags were not carried through")
	}
}

// ---------------------------------------------------------------------------
// 7. Palette wrapping.
// ---------------------------------------------------------------------------

func TestE2EColorPaletteWrapping(t *testing.T) {
	// More meshes than the palette has colors.
	var b strings.Builder
	b.WriteString("(plane :x-y)\n")
	for i := 0; i < len(colorPalette)+1; i++ {
		fmt.Fprintf(&b, "(rect %d 0 10 10 :select true)\n", i*20)
	}
	b.WriteString("(extrude :amount 2)\n")

	result := NewApp().Evaluate(b.String())
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Meshes) != len(colorPalette)+1 {
		t.Fatalf("expected %d meshes, got %d", len(colorPalette)+1, len(result.Meshes))
	}
	for i, m := range result.Meshes {
		if m.Color != colorPalette[i%len(colorPalette)] {
			t.Errorf("mesh %q: expected color %s, got %s", m.Name, colorPalette[i%len(colorPalette)], m.Color)
		}
	}
}
