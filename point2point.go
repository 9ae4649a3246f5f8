package bullet

import "math"

// Point2PointConstraint is a ball socket: the pivots of both bodies are kept
// together, rotation is free.
type Point2PointConstraint struct {
	*Constraint
	PivotInA, PivotInB Vector

	// ImpulseClamp bounds the impulse of every row when positive.
	ImpulseClamp float64
}

// NewPoint2PointConstraint joins a and b at a world space pivot.
func NewPoint2PointConstraint(a, b *RigidBody, pivot Vector) *Point2PointConstraint {
	return NewPoint2PointConstraint2(a, b,
		a.worldTransform.InvPoint(pivot),
		b.worldTransform.InvPoint(pivot))
}

// NewPoint2PointConstraint2 joins a and b at pivots given in body space.
func NewPoint2PointConstraint2(a, b *RigidBody, pivotInA, pivotInB Vector) *Point2PointConstraint {
	joint := &Point2PointConstraint{
		PivotInA: pivotInA,
		PivotInB: pivotInB,
	}
	joint.Constraint = NewConstraint(joint, a, b)
	return joint
}

func (joint *Point2PointConstraint) PreStep(rows *ConstraintRows) {
	a := joint.a
	b := joint.b

	pivotA := a.worldTransform.Point(joint.PivotInA)
	pivotB := b.worldTransform.Point(joint.PivotInB)
	r1 := pivotA.Sub(a.worldTransform.Origin)
	r2 := pivotB.Sub(b.worldTransform.Origin)
	delta := pivotA.Sub(pivotB)

	lower, upper := -math.MaxFloat64, math.MaxFloat64
	if joint.ImpulseClamp > 0 {
		lower, upper = -joint.ImpulseClamp, joint.ImpulseClamp
	}
	for i := 0; i < 3; i++ {
		var axis Vector
		axis[i] = 1
		rows.AddLinear(axis, r1, r2, rows.Correction(-delta[i]), lower, upper)
	}
}
