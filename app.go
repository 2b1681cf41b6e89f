package main

import (
	"github.com/chazu/strokemesh/pkg/config"
	"github.com/chazu/strokemesh/pkg/engine"
	"github.com/chazu/strokemesh/pkg/logging"
	"github.com/chazu/strokemesh/pkg/mesh"
	"github.com/chazu/strokemesh/pkg/operator"
	"github.com/chazu/strokemesh/pkg/scene"
)

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App evaluates scripts and runs the operators they queue. It is the
// binding a frontend or the CLI drives.
type App struct {
	engine *engine.Engine
	env    operator.Env
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
}

// StrokeData is one stroke of the final scene.
type StrokeData struct {
	ID        uint64    `json:"id"`
	Layer     string    `json:"layer"`
	Frame     int       `json:"frame"`
	Material  string    `json:"material"`
	Points    []float32 `json:"points"` // [x0,y0,z0, x1,y1,z1, ...]
	Cyclic    bool      `json:"cyclic"`
	Selected  bool      `json:"selected"`
	FillColor string    `json:"fillColor"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Strokes  []StrokeData    `json:"strokes"`
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`

	// Scene and Solids keep the full values for exporters.
	Scene  *scene.Scene `json:"-"`
	Solids []*mesh.Mesh `json:"-"`
}

// NewApp creates an App with the built-in settings.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(),
		env:    operator.DefaultEnv(),
	}
}

// NewAppFromSettings creates an App whose scripts and operators start
// from s.
func NewAppFromSettings(s config.Settings) (*App, error) {
	opts, err := s.EngineOptions()
	if err != nil {
		return nil, err
	}
	env, err := s.Env()
	if err != nil {
		return nil, err
	}
	return &App{engine: engine.NewEngineWith(opts), env: env}, nil
}

// Evaluate takes Lisp source and returns the edited strokes, generated
// meshes and errors. Slices are never nil so they serialize as [].
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Strokes:  []StrokeData{},
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	log := logging.Logger()

	// Step 1: Evaluate the Lisp source into a scene and operator list.
	prog, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Error("evaluate fatal error", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	for _, w := range prog.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.String()})
	}

	// Step 2: Run the queued operators in order.
	results, err := operator.Pipeline(prog.Scene, a.env, prog.Ops...)
	if err != nil {
		log.Error("operator failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "operation failed: " + err.Error()})
		return result
	}
	final := prog.Scene
	for _, res := range results {
		final = res.Scene
		for _, w := range res.Warnings {
			result.Warnings = append(result.Warnings, EvalErrorData{Message: w})
		}
		result.Solids = append(result.Solids, res.Meshes...)
	}
	result.Scene = final

	// Step 3: Flatten strokes and meshes for the frontend.
	result.Strokes = strokeData(final)
	for i, m := range result.Solids {
		buf := m.Buffers()
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: buf.Vertices,
			Normals:  buf.Normals,
			Indices:  buf.Indices,
			Name:     m.Name,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}

	log.Info("evaluation finished",
		"operations", len(prog.Ops), "strokes", len(result.Strokes), "meshes", len(result.Meshes))
	return result
}

func strokeData(s *scene.Scene) []StrokeData {
	out := []StrokeData{}
	for _, l := range s.Layers {
		for _, f := range l.Frames {
			for _, st := range f.Strokes {
				d := StrokeData{
					ID:        uint64(st.ID),
					Layer:     l.Name,
					Frame:     f.Number,
					Points:    make([]float32, 0, 3*len(st.Points)),
					Cyclic:    st.Cyclic,
					Selected:  st.Select,
					FillColor: st.FillColor.Hex(),
				}
				if m := s.Material(st.Material); m != nil {
					d.Material = m.Name
				}
				for _, p := range st.Points {
					d.Points = append(d.Points, float32(p.Co.X), float32(p.Co.Y), float32(p.Co.Z))
				}
				out = append(out, d)
			}
		}
	}
	return out
}
