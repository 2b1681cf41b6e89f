// Package mesh holds the polygon mesh produced by extrusion: vertices,
// edges and faces built level by level, plus conversion to flat render
// buffers and STL.
package mesh

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/strokemesh/pkg/logging"
)

// Face is a polygon over vertex indices. Extrusion emits triangles and
// quads.
type Face struct {
	Verts []int
}

// Level records the ring loops emitted for one offset level.
type Level struct {
	Height float64
	Loops  [][]int
}

// Mesh is built by one owner and handed off when finished.
type Mesh struct {
	Name     string
	Vertices []v3.Vec
	Edges    [][2]int
	Faces    []Face
	Levels   []Level
	// Smooth requests smooth shading for every face.
	Smooth bool

	edgeSet map[[2]int]bool
}

// New returns an empty mesh.
func New(name string) *Mesh {
	return &Mesh{Name: name, edgeSet: map[[2]int]bool{}}
}

// AddVertex appends v and returns its index.
func (m *Mesh) AddVertex(v v3.Vec) int {
	m.Vertices = append(m.Vertices, v)
	return len(m.Vertices) - 1
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// AddEdge connects a and b unless they are the same vertex or already
// connected. It reports whether an edge was added.
func (m *Mesh) AddEdge(a, b int) bool {
	if a == b {
		return false
	}
	if m.edgeSet == nil {
		m.edgeSet = map[[2]int]bool{}
	}
	k := edgeKey(a, b)
	if m.edgeSet[k] {
		return false
	}
	m.edgeSet[k] = true
	m.Edges = append(m.Edges, k)
	return true
}

// AddFace appends a face over verts, adding its boundary edges.
func (m *Mesh) AddFace(verts ...int) int {
	f := Face{Verts: append([]int(nil), verts...)}
	for i := range f.Verts {
		m.AddEdge(f.Verts[i], f.Verts[(i+1)%len(f.Verts)])
	}
	m.Faces = append(m.Faces, f)
	return len(m.Faces) - 1
}

// AddLevel appends one vertex per loop point and closes each loop with
// ring edges. It returns the new level's index.
func (m *Mesh) AddLevel(height float64, loops [][]v3.Vec) int {
	lvl := Level{Height: height, Loops: make([][]int, len(loops))}
	for k, loop := range loops {
		ids := make([]int, len(loop))
		for i, v := range loop {
			ids[i] = m.AddVertex(v)
		}
		for i := range ids {
			m.AddEdge(ids[i], ids[(i+1)%len(ids)])
		}
		lvl.Loops[k] = ids
	}
	m.Levels = append(m.Levels, lvl)
	return len(m.Levels) - 1
}

// RemoveWideFaces deletes faces with more than limit vertices and returns
// how many were removed.
func (m *Mesh) RemoveWideFaces(limit int) int {
	kept := m.Faces[:0]
	removed := 0
	for _, f := range m.Faces {
		if len(f.Verts) > limit {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept
	if removed > 0 {
		logging.Logger().Warn("removed wide faces", "mesh", m.Name, "count", removed)
	}
	return removed
}

// FaceNormal is the unit normal of the first three vertices of face i.
func (m *Mesh) FaceNormal(i int) v3.Vec {
	v := m.Faces[i].Verts
	tri := sdf.Triangle3{m.Vertices[v[0]], m.Vertices[v[1]], m.Vertices[v[2]]}
	return tri.Normal()
}

// FlipFace reverses the winding of face i.
func (m *Mesh) FlipFace(i int) {
	v := m.Faces[i].Verts
	for a, b := 0, len(v)-1; a < b; a, b = a+1, b-1 {
		v[a], v[b] = v[b], v[a]
	}
}

// Triangles fans every face into triangles.
func (m *Mesh) Triangles() []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, len(m.Faces))
	for _, f := range m.Faces {
		for i := 1; i+1 < len(f.Verts); i++ {
			out = append(out, &sdf.Triangle3{
				m.Vertices[f.Verts[0]],
				m.Vertices[f.Verts[i]],
				m.Vertices[f.Verts[i+1]],
			})
		}
	}
	return out
}

// EdgeUse counts, per edge, how many faces use it. Edges with no face
// are included with a zero count.
func (m *Mesh) EdgeUse() map[[2]int]int {
	use := make(map[[2]int]int, len(m.Edges))
	for _, e := range m.Edges {
		use[e] = 0
	}
	for _, f := range m.Faces {
		for i := range f.Verts {
			use[edgeKey(f.Verts[i], f.Verts[(i+1)%len(f.Verts)])]++
		}
	}
	return use
}

// String summarizes the mesh size.
func (m *Mesh) String() string {
	return fmt.Sprintf("%s: %d vertices, %d edges, %d faces, %d levels",
		m.Name, len(m.Vertices), len(m.Edges), len(m.Faces), len(m.Levels))
}

// Mirror adds a reflected copy of every vertex, edge and face. Vertices
// for which onMirror reports true are shared between both halves, and
// mirrored faces get reversed winding so normals keep pointing outward.
//
// A face with every vertex on the mirror coincides with its reflection,
// so the halves would overlap there. Such faces are removed from both
// halves, together with seam edges no remaining face uses. Mirror returns
// the number of faces removed.
func (m *Mesh) Mirror(reflect func(v3.Vec) v3.Vec, onMirror func(v3.Vec) bool) int {
	n := len(m.Vertices)
	twin := make([]int, n)
	seam := make([]bool, n)
	for i := 0; i < n; i++ {
		v := m.Vertices[i]
		if onMirror(v) {
			twin[i] = i
			seam[i] = true
			continue
		}
		twin[i] = m.AddVertex(reflect(v))
	}

	removed := m.removeSeamFaces(seam)

	edges := append([][2]int(nil), m.Edges...)
	for _, e := range edges {
		m.AddEdge(twin[e[0]], twin[e[1]])
	}

	faces := len(m.Faces)
	for i := 0; i < faces; i++ {
		src := m.Faces[i].Verts
		verts := make([]int, len(src))
		for k, v := range src {
			verts[k] = twin[v]
		}
		m.FlipFace(m.AddFace(verts...))
	}
	return removed
}

// removeSeamFaces drops faces whose vertices all have seam set, then the
// seam edges left without a face.
func (m *Mesh) removeSeamFaces(seam []bool) int {
	kept := m.Faces[:0]
	removed := 0
	for _, f := range m.Faces {
		flat := true
		for _, v := range f.Verts {
			if !seam[v] {
				flat = false
				break
			}
		}
		if flat {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept
	if removed == 0 {
		return 0
	}

	use := m.EdgeUse()
	edges := m.Edges[:0]
	for _, e := range m.Edges {
		if use[e] == 0 && seam[e[0]] && seam[e[1]] {
			delete(m.edgeSet, e)
			continue
		}
		edges = append(edges, e)
	}
	m.Edges = edges
	return removed
}
