// Package offset computes inset and outset contours of scaled polygons.
//
// The geometric work is done by a clip.Backend; this package owns the
// policy: how a stroke mode maps to backend end styles, the two-pass
// corner mode, degenerate input handling and multi-level offsetting.
package offset

import (
	"fmt"
	"strings"

	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/geom"
	"github.com/chazu/strokemesh/pkg/logging"
)

// Mode selects how a path is treated while offsetting.
type Mode int

const (
	// Fill offsets the closed area of the path.
	Fill Mode = iota
	// Line offsets the path as an open line. Ends are round when the join
	// is round and flat otherwise.
	Line
	// LineSquare offsets the path as an open line with square end caps.
	LineSquare
	// Corner offsets the closed area forward and then backward by the same
	// distance, which rounds off the corners the join style produces.
	Corner
)

func (m Mode) String() string {
	switch m {
	case Fill:
		return "fill"
	case Line:
		return "line"
	case LineSquare:
		return "line-square"
	case Corner:
		return "corner"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "fill", "line", "line-square" and "corner".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fill":
		return Fill, nil
	case "line":
		return Line, nil
	case "line-square", "line_square":
		return LineSquare, nil
	case "corner":
		return Corner, nil
	}
	return 0, fmt.Errorf("invalid offset mode %q, expected fill, line, line-square or corner", s)
}

// closed reports whether m offsets an area rather than a line.
func (m Mode) closed() bool {
	return m == Fill || m == Corner
}

// EndStyle maps a mode and join to the backend end style.
func EndStyle(m Mode, join clip.Join) clip.End {
	switch m {
	case Fill, Corner:
		return clip.EndClosedPolygon
	case Line:
		if join == clip.JoinRound {
			return clip.EndOpenRound
		}
		return clip.EndOpenButt
	case LineSquare:
		return clip.EndOpenSquare
	}
	panic(fmt.Sprintf("offset: unknown mode %d", int(m)))
}

// Engine offsets polygons through a clipping backend.
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

// Offset moves p outward by distance (inward when negative). Positive
// distance grows a closed shape. Callers that invert holdout offsets pass
// the negated distance.
//
// Degenerate input yields an empty set. A zero distance returns a copy of
// p. An empty result means the inset consumed the shape and is not an
// error.
func (e *Engine) Offset(p geom.Path, distance float64, join clip.Join, mode Mode) (geom.Set, error) {
	if e == nil || e.backend == nil {
		return nil, clip.ErrMissingDependency
	}
	if degenerate(p, mode) {
		logging.Logger().Debug("offset skipped degenerate path", "points", len(p), "mode", mode)
		return nil, nil
	}
	if distance == 0 {
		return geom.Set{p.Clone()}, nil
	}

	end := EndStyle(mode, join)
	out, err := e.backend.Offset(geom.Set{p}, distance, join, end)
	if err != nil {
		return nil, fmt.Errorf("offset by %g: %w", distance, err)
	}
	if mode == Corner && len(out) > 0 {
		out, err = e.backend.Offset(out, -distance, join, end)
		if err != nil {
			return nil, fmt.Errorf("corner offset by %g: %w", -distance, err)
		}
	}
	return out, nil
}

// Levels offsets p independently at k*step for k = 0..n-1 and returns one
// set per level. It stops at the first level whose result is empty, so
// fewer than n sets may be returned.
func (e *Engine) Levels(p geom.Path, step float64, n int, join clip.Join) ([]geom.Set, error) {
	if e == nil || e.backend == nil {
		return nil, clip.ErrMissingDependency
	}
	levels := make([]geom.Set, 0, n)
	for k := 0; k < n; k++ {
		set, err := e.Offset(p, float64(k)*step, join, Fill)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", k, err)
		}
		if len(set) == 0 {
			logging.Logger().Debug("offset levels exhausted", "requested", n, "produced", k)
			break
		}
		levels = append(levels, set)
	}
	return levels, nil
}

func degenerate(p geom.Path, mode Mode) bool {
	if mode.closed() {
		return p.IsDegenerate()
	}
	return len(p) < 2
}
