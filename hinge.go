package bullet

import "math"

// HingeConstraint allows rotation of B relative to A around one axis. The
// frames place the pivot at their origin and the hinge axis along their z
// axis.
type HingeConstraint struct {
	*Constraint
	FrameInA, FrameInB Transform

	// AngularOnly drops the linear rows, leaving the pivots free.
	AngularOnly bool

	// Limit and motor of the hinge angle.
	Limit LimitMotor
}

// NewHingeConstraint builds a hinge from pivots and axes given in body space.
func NewHingeConstraint(a, b *RigidBody, pivotInA, pivotInB, axisInA, axisInB Vector) *HingeConstraint {
	axisInA = axisInA.Normalize()
	axisInB = axisInB.Normalize()

	xA, yA := PlaneSpace(axisInA)
	frameA := Transform{Basis: NewMatrix3Rows(xA, yA, axisInA).Transpose(), Origin: pivotInA}

	xB := QuaternionShortestArc(axisInA, axisInB).Rotate(xA)
	yB := axisInB.Cross(xB)
	frameB := Transform{Basis: NewMatrix3Rows(xB, yB, axisInB).Transpose(), Origin: pivotInB}

	return NewHingeConstraintFrames(a, b, frameA, frameB)
}

func NewHingeConstraintFrames(a, b *RigidBody, frameInA, frameInB Transform) *HingeConstraint {
	joint := &HingeConstraint{
		FrameInA: frameInA,
		FrameInB: frameInB,
		Limit:    NewLimitMotorFree(),
	}
	joint.Constraint = NewConstraint(joint, a, b)
	return joint
}

// SetLimit limits the hinge angle to [low, high] radians.
func (joint *HingeConstraint) SetLimit(low, high float64) {
	joint.Limit.SetLimit(NormalizeAngle(low), NormalizeAngle(high))
}

func (joint *HingeConstraint) EnableAngularMotor(enable bool, targetVelocity, maxMotorImpulse float64) {
	joint.ActivateBodies()
	joint.Limit.SetMotor(enable, targetVelocity, maxMotorImpulse)
}

// HingeAngle is the rotation of B relative to A around the hinge axis.
func (joint *HingeConstraint) HingeAngle() float64 {
	basisA := joint.a.worldTransform.Basis.Mult(joint.FrameInA.Basis)
	basisB := joint.b.worldTransform.Basis.Mult(joint.FrameInB.Basis)
	return hingeAngle(basisA, basisB)
}

func hingeAngle(basisA, basisB Matrix3) float64 {
	swing := basisB.Col(0)
	return math.Atan2(swing.Dot(basisA.Col(1)), swing.Dot(basisA.Col(0)))
}

// adjustAngleToLimits picks the representation of angle nearest to the
// limit range.
func adjustAngleToLimits(angle, low, high float64) float64 {
	if low >= high {
		return angle
	}
	if angle < low {
		if math.Abs(NormalizeAngle(low-angle)) > math.Abs(NormalizeAngle(high-angle)) {
			return angle + SIMD_2_PI
		}
	} else if angle > high {
		if math.Abs(NormalizeAngle(angle-high)) > math.Abs(NormalizeAngle(angle-low)) {
			return angle - SIMD_2_PI
		}
	}
	return angle
}

func (joint *HingeConstraint) PreStep(rows *ConstraintRows) {
	trA := joint.a.worldTransform
	trB := joint.b.worldTransform

	if !joint.AngularOnly {
		pivotA := trA.Point(joint.FrameInA.Origin)
		pivotB := trB.Point(joint.FrameInB.Origin)
		r1 := pivotA.Sub(trA.Origin)
		r2 := pivotB.Sub(trB.Origin)
		delta := pivotA.Sub(pivotB)
		for i := 0; i < 3; i++ {
			var axis Vector
			axis[i] = 1
			rows.AddLinear(axis, r1, r2, rows.Correction(-delta[i]), -math.MaxFloat64, math.MaxFloat64)
		}
	}

	basisA := trA.Basis.Mult(joint.FrameInA.Basis)
	basisB := trB.Basis.Mult(joint.FrameInB.Basis)
	axisA := basisA.Col(2)
	axisB := basisB.Col(2)

	// keep the hinge axes aligned
	u := axisA.Cross(axisB)
	p := basisA.Col(0)
	q := basisA.Col(1)
	rows.AddAngular(p, rows.Correction(u.Dot(p)), -math.MaxFloat64, math.MaxFloat64)
	rows.AddAngular(q, rows.Correction(u.Dot(q)), -math.MaxFloat64, math.MaxFloat64)

	angle := adjustAngleToLimits(hingeAngle(basisA, basisB), joint.Limit.LowerLimit, joint.Limit.UpperLimit)
	joint.Limit.addRows(rows, angle, func(velocity, lower, upper float64) {
		rows.AddAngular(axisA.Neg(), velocity, lower, upper)
	})
}
