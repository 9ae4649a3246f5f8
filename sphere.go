package bullet

import "fmt"

// SphereShape is a point inflated by its radius, which doubles as the margin.
type SphereShape struct {
	radius float64
}

func NewSphereShape(radius float64) *SphereShape {
	return &SphereShape{radius: radius}
}

func (s *SphereShape) Type() ShapeType {
	return SHAPE_SPHERE
}

func (s *SphereShape) Radius() float64 {
	return s.radius
}

func (s *SphereShape) Margin() float64 {
	return s.radius
}

// SetMargin is a no-op, the radius is the margin.
func (s *SphereShape) SetMargin(float64) {}

func (s *SphereShape) LocalSupport(Vector) Vector {
	return Vector{}
}

func (s *SphereShape) Aabb(t Transform) BB {
	r := Vector{s.radius, s.radius, s.radius}
	return NewBBForExtents(t.Origin, r)
}

func (s *SphereShape) CalculateLocalInertia(mass float64) Vector {
	elem := 0.4 * mass * s.radius * s.radius
	return Vector{elem, elem, elem}
}

func (s *SphereShape) Validate() error {
	if !validPositive(s.radius) {
		return fmt.Errorf("%w: sphere radius %v", ErrInvalidShape, s.radius)
	}
	return nil
}
