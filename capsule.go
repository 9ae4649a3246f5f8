package bullet

import "fmt"

// CapsuleShape is a segment along the local y axis inflated by radius. Height is
// the distance between the two hemisphere centers.
type CapsuleShape struct {
	radius     float64
	halfHeight float64
}

func NewCapsuleShape(radius, height float64) *CapsuleShape {
	return &CapsuleShape{radius: radius, halfHeight: 0.5 * height}
}

func (c *CapsuleShape) Type() ShapeType {
	return SHAPE_CAPSULE
}

func (c *CapsuleShape) Radius() float64 {
	return c.radius
}

func (c *CapsuleShape) HalfHeight() float64 {
	return c.halfHeight
}

func (c *CapsuleShape) Margin() float64 {
	return c.radius
}

// SetMargin is a no-op, the radius is the margin.
func (c *CapsuleShape) SetMargin(float64) {}

func (c *CapsuleShape) LocalSupport(dir Vector) Vector {
	if dir[1] >= 0 {
		return Vector{0, c.halfHeight, 0}
	}
	return Vector{0, -c.halfHeight, 0}
}

func (c *CapsuleShape) Aabb(t Transform) BB {
	return TransformAabb(Vector{0, c.halfHeight, 0}, c.radius, t)
}

func (c *CapsuleShape) CalculateLocalInertia(mass float64) Vector {
	return boxInertia(mass, Vector{c.radius, c.radius + c.halfHeight, c.radius})
}

func (c *CapsuleShape) Validate() error {
	if !validPositive(c.radius) || !validMargin(c.halfHeight) {
		return fmt.Errorf("%w: capsule radius %v height %v", ErrInvalidShape, c.radius, 2*c.halfHeight)
	}
	return nil
}
