package bullet

import "fmt"

// TriangleMeshShape is a static concave mesh. Triangles are culled by their
// local bounds, there is no tree.
type TriangleMeshShape struct {
	vertices []Vector
	indices  [][3]int
	bounds   []BB
	local    BB
	margin   float64
}

func NewTriangleMeshShape(vertices []Vector, indices [][3]int) *TriangleMeshShape {
	mesh := &TriangleMeshShape{
		vertices: vertices,
		indices:  indices,
		margin:   CONVEX_DISTANCE_MARGIN,
	}
	mesh.bounds = make([]BB, 0, len(indices))
	first := true
	for _, tri := range indices {
		if tri[0] < 0 || tri[1] < 0 || tri[2] < 0 ||
			tri[0] >= len(vertices) || tri[1] >= len(vertices) || tri[2] >= len(vertices) {
			// caught by Validate
			mesh.bounds = append(mesh.bounds, BB{})
			continue
		}
		bb := BB{Min: vertices[tri[0]], Max: vertices[tri[0]]}.Expand(vertices[tri[1]]).Expand(vertices[tri[2]])
		mesh.bounds = append(mesh.bounds, bb)
		if first {
			mesh.local = bb
			first = false
		} else {
			mesh.local = mesh.local.Merge(bb)
		}
	}
	return mesh
}

func (mesh *TriangleMeshShape) Type() ShapeType {
	return SHAPE_TRIANGLE_MESH
}

func (mesh *TriangleMeshShape) NumTriangles() int {
	return len(mesh.indices)
}

func (mesh *TriangleMeshShape) Margin() float64 {
	return mesh.margin
}

func (mesh *TriangleMeshShape) SetMargin(margin float64) {
	mesh.margin = margin
}

func (mesh *TriangleMeshShape) Aabb(t Transform) BB {
	return TransformLocalAabb(mesh.local, mesh.margin, t)
}

func (mesh *TriangleMeshShape) CalculateLocalInertia(float64) Vector {
	return Vector{}
}

// ProcessAllTriangles calls fn for every triangle touching localBounds. The
// triangle passed to fn is reused between calls.
func (mesh *TriangleMeshShape) ProcessAllTriangles(fn TriangleCallback, localBounds BB) {
	tri := &TriangleShape{}
	tri.margin = mesh.margin
	for i, idx := range mesh.indices {
		if !mesh.bounds[i].Grow(mesh.margin).Intersects(localBounds) {
			continue
		}
		tri.Vertices[0] = mesh.vertices[idx[0]]
		tri.Vertices[1] = mesh.vertices[idx[1]]
		tri.Vertices[2] = mesh.vertices[idx[2]]
		fn(tri, i)
	}
}

func (mesh *TriangleMeshShape) Validate() error {
	if len(mesh.indices) == 0 {
		return fmt.Errorf("%w: triangle mesh has no triangles", ErrInvalidShape)
	}
	for i, tri := range mesh.indices {
		for _, idx := range tri {
			if idx < 0 || idx >= len(mesh.vertices) {
				return fmt.Errorf("%w: triangle %d index %d out of range", ErrInvalidShape, i, idx)
			}
		}
	}
	for _, v := range mesh.vertices {
		if !v.IsFinite() {
			return fmt.Errorf("%w: mesh vertex %v", ErrInvalidShape, v)
		}
	}
	return nil
}
