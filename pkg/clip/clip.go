// Package clip defines the polygon clipping and offsetting primitive the
// geometry engines are built on. Backends (see clip/clipper) implement
// Backend and register themselves by name so configuration can select one
// without the engines importing a concrete library.
package clip

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chazu/strokemesh/pkg/geom"
)

// ErrMissingDependency is returned when no clipping backend is available.
// Operations return it before doing any work.
var ErrMissingDependency = errors.New("clip: clipping backend unavailable")

// Op is a boolean composition operator.
type Op int

const (
	Union Op = iota
	Intersection
	Difference
	Xor
)

var opNames = map[Op]string{
	Union:        "union",
	Intersection: "intersection",
	Difference:   "difference",
	Xor:          "xor",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// ParseOp accepts the lower-case operator names.
func ParseOp(s string) (Op, error) {
	for op, name := range opNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return op, nil
		}
	}
	return 0, fmt.Errorf("invalid boolean operation %q, expected union, intersection, difference or xor", s)
}

// Join is the corner treatment applied while offsetting.
type Join int

const (
	JoinSquare Join = iota
	JoinRound
	JoinMiter
)

var joinNames = map[Join]string{
	JoinSquare: "square",
	JoinRound:  "round",
	JoinMiter:  "miter",
}

func (j Join) String() string {
	if s, ok := joinNames[j]; ok {
		return s
	}
	return fmt.Sprintf("Join(%d)", int(j))
}

// ParseJoin accepts "square", "round" and "miter" ("mitre" too).
func ParseJoin(s string) (Join, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "mitre" {
		norm = "miter"
	}
	for j, name := range joinNames {
		if norm == name {
			return j, nil
		}
	}
	return 0, fmt.Errorf("invalid corner %q, expected square, round or miter", s)
}

// End tells the backend whether a path is a closed area or an open line
// and how open ends are capped.
type End int

const (
	EndClosedPolygon End = iota
	EndClosedLine
	EndOpenButt
	EndOpenSquare
	EndOpenRound
)

func (e End) String() string {
	switch e {
	case EndClosedPolygon:
		return "closed-polygon"
	case EndClosedLine:
		return "closed-line"
	case EndOpenButt:
		return "open-butt"
	case EndOpenSquare:
		return "open-square"
	case EndOpenRound:
		return "open-round"
	}
	return fmt.Sprintf("End(%d)", int(e))
}

// Backend is the trusted clipping primitive. Implementations must not
// retain the slices they are given and must return fresh paths.
//
// Boolean uses the nonzero fill rule for both subjects and clips.
type Backend interface {
	// Offset grows (delta > 0) or shrinks (delta < 0) paths.
	Offset(paths geom.Set, delta float64, join Join, end End) (geom.Set, error)
	// Boolean composes subjects with clips. All paths are treated as closed.
	Boolean(subjects, clips geom.Set, op Op) (geom.Set, error)
	// PointInPolygon returns 0 when pt is outside path, 1 when strictly
	// inside and -1 when on the boundary.
	PointInPolygon(pt geom.Point, path geom.Path) int
}

// Require returns ErrMissingDependency when b is nil.
func Require(b Backend) error {
	if b == nil {
		return ErrMissingDependency
	}
	return nil
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// Factory builds a backend instance.
type Factory func() Backend

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available under name. Registering the same
// name twice replaces the earlier factory.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Lookup builds the backend registered under name. An unknown name wraps
// ErrMissingDependency.
func Lookup(name string) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: no backend named %q", ErrMissingDependency, name)
	}
	b := f()
	if b == nil {
		return nil, fmt.Errorf("%w: backend %q returned nil", ErrMissingDependency, name)
	}
	return b, nil
}

// Names lists registered backends in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
