package bullet

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxShape_Margin(t *testing.T) {
	box := NewBoxShape(Vector{0.5, 0.5, 0.5})
	assert.Equal(t, CONVEX_DISTANCE_MARGIN, box.Margin())
	assert.True(t, box.HalfExtentsWithMargin().Near(Vector{0.5, 0.5, 0.5}, 1e-12))
	assert.True(t, box.HalfExtentsWithoutMargin().Near(Vector{0.46, 0.46, 0.46}, 1e-12))

	sv := LocalSupportWithMargin(box, Vector{1, 0, 0})
	assert.InDelta(t, 0.5, sv.X(), 1e-12)

	// thin boxes shrink the margin to a tenth of the smallest side
	thin := NewBoxShape(Vector{1, 0.1, 1})
	assert.InDelta(t, 0.01, thin.Margin(), 1e-12)
}

func TestBoxShape_Vertices(t *testing.T) {
	box := NewBoxShape(Vector{1, 2, 3})
	seen := map[Vector]bool{}
	for i := 0; i < 8; i++ {
		v := box.Vertex(i)
		assert.Equal(t, Vector{1, 2, 3}, v.Abs())
		seen[v] = true
	}
	assert.Len(t, seen, 8)
}

func TestBoxShape_Aabb(t *testing.T) {
	box := NewBoxShape(Vector{1, 0.5, 0.5})
	tr := NewTransformRigid(Vector{2, 0, 0}, Vector{0, 0, 1}, math.Pi/2)
	bb := box.Aabb(tr)
	assert.True(t, bb.Min.Near(Vector{1.5, -1, -0.5}, 1e-9), "%v", bb.Min)
	assert.True(t, bb.Max.Near(Vector{2.5, 1, 0.5}, 1e-9), "%v", bb.Max)
}

func TestBoxShape_Inertia(t *testing.T) {
	inertia := NewBoxShape(Vector{0.5, 0.5, 0.5}).CalculateLocalInertia(6)
	assert.True(t, inertia.Near(Vector{1, 1, 1}, 1e-12))
}

func TestCapsuleShape(t *testing.T) {
	capsule := NewCapsuleShape(0.5, 2)
	assert.Equal(t, 1.0, capsule.HalfHeight())
	assert.Equal(t, 0.5, capsule.Margin())

	top := LocalSupportWithMargin(capsule, Vector{0, 1, 0})
	assert.True(t, top.Near(Vector{0, 1.5, 0}, 1e-12))
	side := LocalSupportWithMargin(capsule, Vector{1, 0, 0})
	assert.InDelta(t, 0.5, side.X(), 1e-12)

	bb := capsule.Aabb(NewTransformIdentity())
	assert.True(t, bb.Max.Near(Vector{0.5, 1.5, 0.5}, 1e-12))
}

func TestSphereShape_Aabb(t *testing.T) {
	sphere := NewSphereShape(2)
	bb := sphere.Aabb(NewTransformTranslate(Vector{1, 1, 1}))
	assert.True(t, bb.Min.Near(Vector{-1, -1, -1}, 1e-12))
	assert.True(t, bb.Max.Near(Vector{3, 3, 3}, 1e-12))
}

func TestConvexHullShape_Support(t *testing.T) {
	hull := NewConvexHullShape([]Vector{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.1, 0.1, 0.1}})
	assert.Equal(t, Vector{1, 0, 0}, hull.LocalSupport(Vector{1, 0.2, 0}))
	assert.Equal(t, Vector{0, 0, 1}, hull.LocalSupport(Vector{0, 0, 1}))

	bb := hull.Aabb(NewTransformIdentity())
	m := hull.Margin()
	assert.True(t, bb.Min.Near(Vector{-m, -m, -m}, 1e-12))
	assert.True(t, bb.Max.Near(Vector{1 + m, 1 + m, 1 + m}, 1e-12))
}

func TestCompoundShape_Aabb(t *testing.T) {
	compound := NewCompoundShape()
	compound.AddChildShape(NewTransformTranslate(Vector{-2, 0, 0}), NewBoxShape(Vector{0.5, 0.5, 0.5}))
	compound.AddChildShape(NewTransformTranslate(Vector{2, 0, 0}), NewSphereShape(1))
	require.Equal(t, 2, compound.NumChildren())

	bb := compound.Aabb(NewTransformIdentity())
	assert.True(t, bb.Min.Near(Vector{-2.5, -1, -1}, 1e-9), "%v", bb.Min)
	assert.True(t, bb.Max.Near(Vector{3, 1, 1}, 1e-9), "%v", bb.Max)

	compound.RemoveChildShape(compound.Child(1).Shape)
	bb = compound.Aabb(NewTransformIdentity())
	assert.True(t, bb.Max.Near(Vector{-1.5, 0.5, 0.5}, 1e-9), "%v", bb.Max)
}

func TestTriangleMeshShape_ProcessAllTriangles(t *testing.T) {
	mesh := NewTriangleMeshShape(
		[]Vector{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}, {10, 0, 10}, {11, 0, 10}, {10, 0, 11}},
		[][3]int{{0, 1, 2}, {3, 4, 5}},
	)
	require.NoError(t, mesh.Validate())
	assert.Equal(t, 2, mesh.NumTriangles())

	var hits []int
	mesh.ProcessAllTriangles(func(tri *TriangleShape, index int) {
		hits = append(hits, index)
	}, NewBB(Vector{-1, -1, -1}, Vector{2, 1, 2}))
	assert.Equal(t, []int{0}, hits)
}

func TestShapeValidate(t *testing.T) {
	for name, shape := range map[string]CollisionShape{
		"box":      NewBoxShape(Vector{1, -1, 1}),
		"sphere":   NewSphereShape(0),
		"capsule":  NewCapsuleShape(math.NaN(), 1),
		"hull":     NewConvexHullShape(nil),
		"plane":    NewStaticPlaneShape(Vector{}, 0),
		"compound": NewCompoundShape(),
		"mesh":     NewTriangleMeshShape([]Vector{{0, 0, 0}}, [][3]int{{0, 1, 2}}),
	} {
		err := shape.Validate()
		assert.True(t, errors.Is(err, ErrInvalidShape), "%s: %v", name, err)
	}
}

func TestStaticPlaneShape_WorldPlane(t *testing.T) {
	plane := NewStaticPlaneShape(Vector{0, 1, 0}, 1)
	n, c := plane.WorldPlane(NewTransformTranslate(Vector{0, 2, 0}))
	assert.True(t, n.Near(Vector{0, 1, 0}, 1e-12))
	assert.InDelta(t, 3, c, 1e-12)
}
