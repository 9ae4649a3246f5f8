package bullet

import "fmt"

// ConvexHullShape is the convex hull of a point cloud. Interior points are allowed.
type ConvexHullShape struct {
	convexInternal
	points []Vector
	local  BB
}

func NewConvexHullShape(points []Vector) *ConvexHullShape {
	hull := &ConvexHullShape{}
	hull.margin = CONVEX_DISTANCE_MARGIN
	for _, p := range points {
		hull.AddPoint(p)
	}
	return hull
}

func (hull *ConvexHullShape) Type() ShapeType {
	return SHAPE_CONVEX_HULL
}

func (hull *ConvexHullShape) AddPoint(p Vector) {
	if len(hull.points) == 0 {
		hull.local = BB{Min: p, Max: p}
	} else {
		hull.local = hull.local.Expand(p)
	}
	hull.points = append(hull.points, p)
}

func (hull *ConvexHullShape) Points() []Vector {
	return hull.points
}

func (hull *ConvexHullShape) LocalSupport(dir Vector) Vector {
	best := -SIMD_INFINITY
	var sv Vector
	for _, p := range hull.points {
		if d := p.Dot(dir); d > best {
			best = d
			sv = p
		}
	}
	return sv
}

func (hull *ConvexHullShape) Aabb(t Transform) BB {
	return aabbSlow(hull, t)
}

func (hull *ConvexHullShape) CalculateLocalInertia(mass float64) Vector {
	m := Vector{hull.margin, hull.margin, hull.margin}
	return boxInertia(mass, hull.local.Extents().Add(m))
}

func (hull *ConvexHullShape) Validate() error {
	if len(hull.points) == 0 {
		return fmt.Errorf("%w: convex hull has no points", ErrInvalidShape)
	}
	for _, p := range hull.points {
		if !p.IsFinite() {
			return fmt.Errorf("%w: convex hull point %v", ErrInvalidShape, p)
		}
	}
	if !validMargin(hull.margin) {
		return fmt.Errorf("%w: convex hull margin %v", ErrInvalidShape, hull.margin)
	}
	if hull.local.LargestExtent() == 0 && hull.margin == 0 {
		return fmt.Errorf("%w: convex hull has no volume", ErrInvalidShape)
	}
	return nil
}

// TriangleShape is a single triangle, used for concave mesh queries.
type TriangleShape struct {
	convexInternal
	Vertices [3]Vector
}

func NewTriangleShape(a, b, c Vector) *TriangleShape {
	tri := &TriangleShape{Vertices: [3]Vector{a, b, c}}
	tri.margin = CONVEX_DISTANCE_MARGIN
	return tri
}

func (tri *TriangleShape) Type() ShapeType {
	return SHAPE_TRIANGLE
}

func (tri *TriangleShape) LocalSupport(dir Vector) Vector {
	d0 := tri.Vertices[0].Dot(dir)
	d1 := tri.Vertices[1].Dot(dir)
	d2 := tri.Vertices[2].Dot(dir)
	if d0 >= d1 && d0 >= d2 {
		return tri.Vertices[0]
	}
	if d1 >= d2 {
		return tri.Vertices[1]
	}
	return tri.Vertices[2]
}

func (tri *TriangleShape) Normal() Vector {
	return tri.Vertices[1].Sub(tri.Vertices[0]).Cross(tri.Vertices[2].Sub(tri.Vertices[0])).Normalize()
}

func (tri *TriangleShape) Aabb(t Transform) BB {
	return aabbSlow(tri, t)
}

func (tri *TriangleShape) CalculateLocalInertia(float64) Vector {
	return Vector{}
}

func (tri *TriangleShape) Validate() error {
	for _, v := range tri.Vertices {
		if !v.IsFinite() {
			return fmt.Errorf("%w: triangle vertex %v", ErrInvalidShape, v)
		}
	}
	return nil
}

func triangleArea(a, b, c Vector) float64 {
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Length()
}
