// Package tess triangulates planar regions bounded by closed loops.
//
// Loops are combined with the even-odd rule: a loop nested inside an odd
// number of other loops bounds a hole. This is how a band between two
// offset levels is described: the outer level's loops plus the inner
// level's loops.
package tess

import (
	"fmt"
	"sort"
	"sync"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/strokemesh/pkg/clip"
)

// ErrMissingDependency is returned when no triangulator is available. It
// is the same condition as a missing clipping backend.
var ErrMissingDependency = clip.ErrMissingDependency

// Triangle holds three indices into the concatenation of the input loops,
// counter-clockwise in plane coordinates.
type Triangle [3]int

// Triangulator fills the region bounded by loops.
type Triangulator interface {
	Triangulate(loops [][]v2.Vec) ([]Triangle, error)
}

// Require returns ErrMissingDependency when t is nil.
func Require(t Triangulator) error {
	if t == nil {
		return ErrMissingDependency
	}
	return nil
}

// Factory builds a triangulator.
type Factory func() Triangulator

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		EarcutName: func() Triangulator { return New() },
	}
)

// Register makes a triangulator available under name.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Lookup builds the triangulator registered under name.
func Lookup(name string) (Triangulator, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: no triangulator named %q", ErrMissingDependency, name)
	}
	t := f()
	if t == nil {
		return nil, fmt.Errorf("%w: triangulator %q returned nil", ErrMissingDependency, name)
	}
	return t, nil
}

// Names lists registered triangulators in sorted order.
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

// Flatten concatenates loops and returns, for each loop, the indices its
// points received.
func Flatten(loops [][]v2.Vec) (pts []v2.Vec, rings [][]int) {
	rings = make([][]int, len(loops))
	for i, loop := range loops {
		ring := make([]int, len(loop))
		for j, p := range loop {
			ring[j] = len(pts)
			pts = append(pts, p)
		}
		rings[i] = ring
	}
	return pts, rings
}
