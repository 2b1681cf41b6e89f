// Package engine provides the Lisp evaluation engine for strokemesh.
// It wraps zygomys in a sandboxed environment and turns user source code
// into a scene of strokes plus the list of operators to run on it.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/strokemesh/pkg/logging"
	"github.com/chazu/strokemesh/pkg/operator"
	"github.com/chazu/strokemesh/pkg/plane"
	"github.com/chazu/strokemesh/pkg/scene"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or an invalid scene.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is a problem in the scene that does not stop evaluation.
type EvalWarning struct {
	Layer   string
	Stroke  scene.StrokeID
	Message string
}

func (w EvalWarning) String() string {
	switch {
	case w.Stroke != 0:
		return fmt.Sprintf("layer %q stroke %d: %s", w.Layer, w.Stroke, w.Message)
	case w.Layer != "":
		return fmt.Sprintf("layer %q: %s", w.Layer, w.Message)
	}
	return w.Message
}

// Program is the output of a successful evaluation: the scene the script
// drew and the operators it queued, in order.
type Program struct {
	Scene    *scene.Scene
	Ops      []operator.Operator
	Warnings []EvalWarning
}

// Options are the settings scripts start from. Operator forms only
// override the keywords they name.
type Options struct {
	Plane       plane.WorkingPlane
	Offset      operator.Offset
	Boolean     operator.Boolean
	BooleanLast operator.BooleanLast
	Holes       operator.Holes
	Mesh        operator.Mesh
}

// DefaultOptions returns the built-in operator defaults on the X-Z plane.
func DefaultOptions() Options {
	return Options{
		Plane:       plane.XZ,
		Offset:      operator.DefaultOffset(),
		Boolean:     operator.DefaultBoolean(),
		BooleanLast: operator.DefaultBooleanLast(),
		Holes:       operator.DefaultHoles(),
		Mesh:        operator.DefaultMesh(),
	}
}

// Engine wraps the zygomys interpreter for strokemesh evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	opts       Options
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine with the default options.
func NewEngine() *Engine {
	return NewEngineWith(DefaultOptions())
}

// NewEngineWith creates an Engine whose scripts start from opts.
func NewEngineWith(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Evaluate takes Lisp source code and produces a new Program.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns program + nil errors + nil error
//   - On parse/eval failure or invalid scene: returns nil program + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Program, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		p, evalErrs, err := e.evaluate(source)
		ch <- evalResult{program: p, errors: evalErrs, err: err}
	}()

	return e.await(ch, gen, EvalTimeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Program, []EvalError, error) {
	b := newBuilder(e.opts)

	// Empty source is a valid program that draws nothing.
	if strings.TrimSpace(source) == "" {
		return b.finish()
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return b.finish()
}

// finish validates the scene the script drew.
func (b *builder) finish() (*Program, []EvalError, error) {
	b.settleFrames()

	var evalErrs []EvalError
	var warnings []EvalWarning
	for _, v := range scene.Validate(b.s) {
		if v.Severity == scene.SeverityError {
			evalErrs = append(evalErrs, EvalError{Message: v.Error()})
			continue
		}
		warnings = append(warnings, EvalWarning{Layer: v.Layer, Stroke: v.Stroke, Message: v.Message})
	}
	if len(evalErrs) > 0 {
		return nil, evalErrs, nil
	}

	logging.Logger().Debug("evaluated script",
		"layers", len(b.s.Layers), "operations", len(b.ops), "warnings", len(warnings))
	return &Program{Scene: b.s, Ops: b.ops, Warnings: warnings}, nil, nil
}

// linePattern matches the "Error on line N:" marker zygomys puts in its
// error messages.
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*`)

// linePatternShort matches a leading "line N:" marker.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It extracts the line number when the message carries one and keeps the
// rest of the text as the message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if loc := re.FindStringSubmatchIndex(msg); loc != nil {
			line, _ := strconv.Atoi(msg[loc[2]:loc[3]])
			detail := strings.TrimSpace(msg[:loc[0]] + msg[loc[1]:])
			return []EvalError{{Line: line, Message: detail}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
