package mesh

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Buffers is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Buffers struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which mesh this came from
}

// VertexCount returns the number of vertices.
func (b *Buffers) VertexCount() int {
	return len(b.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (b *Buffers) TriangleCount() int {
	return len(b.Indices) / 3
}

// IsEmpty returns true if the buffers hold no geometry.
func (b *Buffers) IsEmpty() bool {
	return len(b.Vertices) == 0
}

// Buffers flattens the mesh into render buffers. Flat shading gives every
// triangle its own vertices and face normal; smooth shading shares
// vertices and averages the normals of the faces around them.
func (m *Mesh) Buffers() *Buffers {
	if m.Smooth {
		return m.smoothBuffers()
	}
	triangles := m.Triangles()

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &Buffers{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		PartName: m.Name,
	}
}

func (m *Mesh) smoothBuffers() *Buffers {
	acc := make([]v3.Vec, len(m.Vertices))
	indices := make([]uint32, 0, len(m.Faces)*3)
	for i, f := range m.Faces {
		n := m.FaceNormal(i)
		for _, v := range f.Verts {
			acc[v] = acc[v].Add(n)
		}
		for k := 1; k+1 < len(f.Verts); k++ {
			indices = append(indices, uint32(f.Verts[0]), uint32(f.Verts[k]), uint32(f.Verts[k+1]))
		}
	}

	vertices := make([]float32, 0, len(m.Vertices)*3)
	normals := make([]float32, 0, len(m.Vertices)*3)
	for i, v := range m.Vertices {
		vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
		n := acc[i]
		if n.Length() > 0 {
			n = n.Normalize()
		}
		normals = append(normals, float32(n.X), float32(n.Y), float32(n.Z))
	}

	return &Buffers{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		PartName: m.Name,
	}
}

// SaveSTL writes the triangulated mesh to path.
func (m *Mesh) SaveSTL(path string) error {
	tris := m.Triangles()
	if len(tris) == 0 {
		return fmt.Errorf("mesh %q has no faces", m.Name)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
