// Package plane maps 3D stroke points onto the 2D working plane and back.
//
// Every working plane drops one axis (the depth axis) and keeps two. The
// retained vertical axis is negated so that screen-up maps to positive Y
// in plane coordinates.
package plane

import (
	"fmt"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// WorkingPlane selects which pair of world axes forms the 2D canvas.
type WorkingPlane int

const (
	XZ WorkingPlane = iota // front view, depth along -Y
	YZ                     // side view, depth along +X
	XY                     // top view, depth along +Z
)

func (p WorkingPlane) String() string {
	switch p {
	case XZ:
		return "X-Z"
	case YZ:
		return "Y-Z"
	case XY:
		return "X-Y"
	default:
		return fmt.Sprintf("WorkingPlane(%d)", int(p))
	}
}

// Parse accepts "X-Z", "xz", "x-z" and the like.
func Parse(s string) (WorkingPlane, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	switch norm {
	case "XZ":
		return XZ, nil
	case "YZ":
		return YZ, nil
	case "XY":
		return XY, nil
	}
	return 0, fmt.Errorf("invalid working plane %q, expected X-Z, Y-Z or X-Y", s)
}

// Projector converts between world space and the working plane. The zero
// value projects onto X-Z.
type Projector struct {
	Plane WorkingPlane
}

// New returns a projector for the given plane.
func New(p WorkingPlane) Projector {
	return Projector{Plane: p}
}

// To2D drops the depth axis of co.
func (pr Projector) To2D(co v3.Vec) v2.Vec {
	switch pr.Plane {
	case XZ:
		return v2.Vec{X: co.X, Y: -co.Z}
	case YZ:
		return v2.Vec{X: co.Y, Y: -co.Z}
	case XY:
		return v2.Vec{X: co.X, Y: -co.Y}
	}
	panic(fmt.Sprintf("plane: unknown working plane %d", int(pr.Plane)))
}

// To3D maps a (possibly scaled) plane point back to world space. Plane
// coordinates are divided by scale; depth is injected as given.
func (pr Projector) To3D(co v2.Vec, depth, scale float64) v3.Vec {
	if scale == 0 {
		scale = 1
	}
	x, y := co.X/scale, co.Y/scale
	switch pr.Plane {
	case XZ:
		return v3.Vec{X: x, Y: -depth, Z: -y}
	case YZ:
		return v3.Vec{X: depth, Y: x, Z: -y}
	case XY:
		return v3.Vec{X: x, Y: -y, Z: depth}
	}
	panic(fmt.Sprintf("plane: unknown working plane %d", int(pr.Plane)))
}

// Depth extracts the depth component of co.
func (pr Projector) Depth(co v3.Vec) float64 {
	switch pr.Plane {
	case XZ:
		return -co.Y
	case YZ:
		return co.X
	case XY:
		return co.Z
	}
	panic(fmt.Sprintf("plane: unknown working plane %d", int(pr.Plane)))
}

// SetDepth returns co with its depth component replaced.
func (pr Projector) SetDepth(co v3.Vec, depth float64) v3.Vec {
	switch pr.Plane {
	case XZ:
		co.Y = -depth
	case YZ:
		co.X = depth
	case XY:
		co.Z = depth
	default:
		panic(fmt.Sprintf("plane: unknown working plane %d", int(pr.Plane)))
	}
	return co
}
