// Package hole infers fill/hole intent from polygon nesting.
//
// A containment graph records which polygon lies inside which. Peeling
// repeatedly removes the outermost remaining polygons; the parity of the
// peel generation decides whether a polygon is a hole.
package hole

import (
	"fmt"

	"github.com/chazu/strokemesh/pkg/clip"
	"github.com/chazu/strokemesh/pkg/geom"
	"github.com/chazu/strokemesh/pkg/logging"
)

// Polygon is one closed input shape.
type Polygon struct {
	Path geom.Path
	// LineOnly marks shapes without fill. They never contain other
	// polygons and are never turned into holes.
	LineOnly bool
	// Color groups polygons whose hole parity is tracked together when
	// colours are separated.
	Color string
}

// Graph is the containment relation over polygon indices. inside[i][j]
// holds while polygon i lies inside polygon j and j is unprocessed.
type Graph struct {
	inside    [][]bool
	processed []bool
	remaining int
}

// Build computes the containment relation. Polygon i is inside polygon j
// when no point of i is outside j, at least one point is strictly inside,
// and j is not line-only. Pairs whose bounds do not meet are never
// tested point by point.
func Build(polys []Polygon, b clip.Backend) (*Graph, error) {
	if err := clip.Require(b); err != nil {
		return nil, err
	}
	n := len(polys)
	g := &Graph{
		inside:    make([][]bool, n),
		processed: make([]bool, n),
		remaining: n,
	}
	boxes := make([]geom.Rect, n)
	for i, p := range polys {
		boxes[i], _ = p.Path.Bounds()
	}
	tested := 0
	for i := range polys {
		g.inside[i] = make([]bool, n)
		for j := range polys {
			if i == j || polys[j].LineOnly || !boxes[j].Overlaps(boxes[i]) {
				continue
			}
			g.inside[i][j] = Contains(polys[j].Path, polys[i].Path, b)
			tested++
		}
	}
	logging.Logger().Debug("built containment graph", "polygons", n, "tested", tested)
	return g, nil
}

// Contains reports whether inner lies inside outer: no point of inner is
// outside and at least one is strictly inside. A polygon lying entirely
// on the boundary of outer is not contained.
func Contains(outer, inner geom.Path, b clip.Backend) bool {
	strict := 0
	for _, pt := range inner {
		switch b.PointInPolygon(pt, outer) {
		case 0:
			return false
		case 1:
			strict++
		}
	}
	return strict > 0
}

// Len returns the number of polygons in the graph.
func (g *Graph) Len() int { return len(g.inside) }

// Inside reports whether edge i->j is currently present.
func (g *Graph) Inside(i, j int) bool { return g.inside[i][j] }

// Done reports whether every polygon has been peeled.
func (g *Graph) Done() bool { return g.remaining == 0 }

// Outermost lists the unprocessed polygons not inside any unprocessed
// polygon, in index order.
func (g *Graph) Outermost() []int {
	var out []int
	for i, row := range g.inside {
		if g.processed[i] {
			continue
		}
		contained := false
		for _, in := range row {
			if in {
				contained = true
				break
			}
		}
		if !contained {
			out = append(out, i)
		}
	}
	return out
}

// Peel marks the outermost polygons processed and removes them as
// containers for the rest. It returns the peeled batch, which is empty
// only when nothing remains or the relation is cyclic.
func (g *Graph) Peel() []int {
	batch := g.Outermost()
	for _, i := range batch {
		g.processed[i] = true
		g.remaining--
		for _, row := range g.inside {
			row[i] = false
		}
	}
	return batch
}

// Result is the outcome of Classify.
type Result struct {
	// Holes[i] is set when polygon i should switch to a holdout material.
	Holes []bool
	// Batches lists the peel generations, outermost first.
	Batches [][]int
}

// Classify peels the containment graph and alternates the hole flag per
// colour key after every batch that touched that key. With separate set,
// each Polygon.Color keeps its own parity; otherwise all share one.
func Classify(polys []Polygon, separate bool, b clip.Backend) (Result, error) {
	if err := clip.Require(b); err != nil {
		return Result{}, err
	}
	res := Result{Holes: make([]bool, len(polys))}
	if len(polys) < 2 {
		return res, nil
	}
	g, err := Build(polys, b)
	if err != nil {
		return Result{}, fmt.Errorf("build containment graph: %w", err)
	}

	isHole := map[string]bool{}
	key := func(i int) string {
		if separate {
			return polys[i].Color
		}
		return ""
	}
	for !g.Done() {
		batch := g.Peel()
		if len(batch) == 0 {
			logging.Logger().Warn("containment peeling stalled", "unclassified", g.remaining)
			break
		}
		touched := map[string]bool{}
		for _, i := range batch {
			k := key(i)
			if isHole[k] && !polys[i].LineOnly {
				res.Holes[i] = true
			}
			touched[k] = true
		}
		for k := range touched {
			isHole[k] = !isHole[k]
		}
		res.Batches = append(res.Batches, batch)
		logging.Logger().Debug("peeled containment batch", "generation", len(res.Batches), "size", len(batch))
	}
	return res, nil
}
