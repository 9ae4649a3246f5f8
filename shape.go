package bullet

import (
	"fmt"
	"math"
)

type ShapeType int

// Shape types. The order is used by the collision algorithm table.
const (
	SHAPE_BOX ShapeType = iota
	SHAPE_SPHERE
	SHAPE_CAPSULE
	SHAPE_CONVEX_HULL
	SHAPE_TRIANGLE
	SHAPE_TRIANGLE_MESH
	SHAPE_STATIC_PLANE
	SHAPE_COMPOUND
	NUM_SHAPE_TYPES
)

// Default collision margin of convex shapes.
const CONVEX_DISTANCE_MARGIN = 0.04

func (t ShapeType) String() string {
	switch t {
	case SHAPE_BOX:
		return "box"
	case SHAPE_SPHERE:
		return "sphere"
	case SHAPE_CAPSULE:
		return "capsule"
	case SHAPE_CONVEX_HULL:
		return "convexhull"
	case SHAPE_TRIANGLE:
		return "triangle"
	case SHAPE_TRIANGLE_MESH:
		return "trianglemesh"
	case SHAPE_STATIC_PLANE:
		return "staticplane"
	case SHAPE_COMPOUND:
		return "compound"
	}
	return fmt.Sprintf("shape(%d)", int(t))
}

func (t ShapeType) IsConvex() bool {
	return t <= SHAPE_TRIANGLE
}

func (t ShapeType) IsConcave() bool {
	return t == SHAPE_TRIANGLE_MESH
}

func (t ShapeType) IsPlane() bool {
	return t == SHAPE_STATIC_PLANE
}

func (t ShapeType) IsCompound() bool {
	return t == SHAPE_COMPOUND
}

// CollisionShape is the geometry shared by collision objects. Shapes are
// treated as read only once attached to a body.
type CollisionShape interface {
	Type() ShapeType
	// Aabb returns the world bounds including the margin.
	Aabb(t Transform) BB
	CalculateLocalInertia(mass float64) Vector
	Margin() float64
	SetMargin(margin float64)
	Validate() error
}

// ConvexShape exposes the support mapping used by GJK and EPA.
type ConvexShape interface {
	CollisionShape
	// LocalSupport returns the farthest point along dir, without margin.
	LocalSupport(dir Vector) Vector
}

// LocalSupportWithMargin returns the support point of the shape inflated by its margin.
func LocalSupportWithMargin(s ConvexShape, dir Vector) Vector {
	sv := s.LocalSupport(dir)
	if m := s.Margin(); m != 0 {
		sv = sv.Add(dir.SafeNormalize().Mult(m))
	}
	return sv
}

// ConcaveShape is a static triangle soup.
type ConcaveShape interface {
	CollisionShape
	ProcessAllTriangles(fn TriangleCallback, localBounds BB)
}

type TriangleCallback func(tri *TriangleShape, index int)

type convexInternal struct {
	margin float64
}

func (c *convexInternal) Margin() float64 {
	return c.margin
}

func (c *convexInternal) SetMargin(margin float64) {
	c.margin = margin
}

// aabbSlow computes tight world bounds by querying the support along the world axes.
func aabbSlow(s ConvexShape, t Transform) BB {
	margin := s.Margin()
	var bb BB
	for i := 0; i < 3; i++ {
		var axis Vector
		axis[i] = 1

		sv := s.LocalSupport(t.InvVect(axis))
		bb.Max[i] = t.Point(sv)[i] + margin

		axis[i] = -1
		sv = s.LocalSupport(t.InvVect(axis))
		bb.Min[i] = t.Point(sv)[i] - margin
	}
	return bb
}

// boxInertia is the inertia of a solid box with the given half extents.
func boxInertia(mass float64, halfExtents Vector) Vector {
	lx := 2 * halfExtents[0]
	ly := 2 * halfExtents[1]
	lz := 2 * halfExtents[2]
	return Vector{
		mass / 12.0 * (ly*ly + lz*lz),
		mass / 12.0 * (lx*lx + lz*lz),
		mass / 12.0 * (lx*lx + ly*ly),
	}
}

func validMargin(m float64) bool {
	return m >= 0 && !math.IsNaN(m) && !math.IsInf(m, 0)
}

func validPositive(f float64) bool {
	return f > 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
}
