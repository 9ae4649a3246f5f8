package bullet

import (
	"fmt"
	"math"
)

// BoxShape is a box centered at the origin. The margin is carved out of the
// half extents so the rounded box keeps the requested size.
type BoxShape struct {
	convexInternal
	implicitHalfExtents Vector
}

func NewBoxShape(halfExtents Vector) *BoxShape {
	box := &BoxShape{}
	box.margin = CONVEX_DISTANCE_MARGIN

	minDim := math.Min(halfExtents[0], math.Min(halfExtents[1], halfExtents[2]))
	if safe := 0.1 * minDim; safe < box.margin {
		box.margin = safe
	}
	box.implicitHalfExtents = halfExtents.Sub(Vector{box.margin, box.margin, box.margin})
	return box
}

func (box *BoxShape) Type() ShapeType {
	return SHAPE_BOX
}

func (box *BoxShape) HalfExtentsWithMargin() Vector {
	return box.implicitHalfExtents.Add(Vector{box.margin, box.margin, box.margin})
}

func (box *BoxShape) HalfExtentsWithoutMargin() Vector {
	return box.implicitHalfExtents
}

func (box *BoxShape) SetMargin(margin float64) {
	full := box.HalfExtentsWithMargin()
	box.margin = margin
	box.implicitHalfExtents = full.Sub(Vector{margin, margin, margin})
}

func (box *BoxShape) LocalSupport(dir Vector) Vector {
	h := box.implicitHalfExtents
	var v Vector
	for i := 0; i < 3; i++ {
		if dir[i] >= 0 {
			v[i] = h[i]
		} else {
			v[i] = -h[i]
		}
	}
	return v
}

func (box *BoxShape) Aabb(t Transform) BB {
	return TransformAabb(box.implicitHalfExtents, box.margin, t)
}

func (box *BoxShape) CalculateLocalInertia(mass float64) Vector {
	return boxInertia(mass, box.HalfExtentsWithMargin())
}

// Vertex returns one of the 8 corners, with margin.
func (box *BoxShape) Vertex(i int) Vector {
	h := box.HalfExtentsWithMargin()
	return Vector{
		h[0]*float64(1-(i&1)) - h[0]*float64(i&1),
		h[1]*float64(1-((i&2)>>1)) - h[1]*float64((i&2)>>1),
		h[2]*float64(1-((i&4)>>2)) - h[2]*float64((i&4)>>2),
	}
}

func (box *BoxShape) Validate() error {
	h := box.HalfExtentsWithMargin()
	if !validPositive(h[0]) || !validPositive(h[1]) || !validPositive(h[2]) {
		return fmt.Errorf("%w: box half extents %v", ErrInvalidShape, h)
	}
	if !validMargin(box.margin) {
		return fmt.Errorf("%w: box margin %v", ErrInvalidShape, box.margin)
	}
	return nil
}
