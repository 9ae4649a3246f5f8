package bullet

import (
	"fmt"
	"math"
)

// StaticPlaneShape is the half space n.x <= constant. It can only be used by
// static objects.
type StaticPlaneShape struct {
	normal   Vector
	constant float64
	margin   float64
}

func NewStaticPlaneShape(normal Vector, constant float64) *StaticPlaneShape {
	return &StaticPlaneShape{normal: normal.Normalize(), constant: constant}
}

func (p *StaticPlaneShape) Type() ShapeType {
	return SHAPE_STATIC_PLANE
}

func (p *StaticPlaneShape) Normal() Vector {
	return p.normal
}

func (p *StaticPlaneShape) Constant() float64 {
	return p.constant
}

func (p *StaticPlaneShape) Margin() float64 {
	return p.margin
}

func (p *StaticPlaneShape) SetMargin(margin float64) {
	p.margin = margin
}

// Aabb is unbounded, the broadphase clamps it to the world bounds.
func (p *StaticPlaneShape) Aabb(Transform) BB {
	return BB{
		Min: Vector{-LARGE_FLOAT, -LARGE_FLOAT, -LARGE_FLOAT},
		Max: Vector{LARGE_FLOAT, LARGE_FLOAT, LARGE_FLOAT},
	}
}

func (p *StaticPlaneShape) CalculateLocalInertia(float64) Vector {
	return Vector{}
}

func (p *StaticPlaneShape) Validate() error {
	if p.normal.IsZero() || !p.normal.IsFinite() || math.IsNaN(p.constant) || math.IsInf(p.constant, 0) {
		return fmt.Errorf("%w: plane normal %v constant %v", ErrInvalidShape, p.normal, p.constant)
	}
	return nil
}

// WorldPlane returns the plane normal and constant under t.
func (p *StaticPlaneShape) WorldPlane(t Transform) (Vector, float64) {
	n := t.Vect(p.normal)
	point := t.Point(p.normal.Mult(p.constant))
	return n, n.Dot(point)
}
