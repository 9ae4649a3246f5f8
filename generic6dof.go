package bullet

// Generic6DofConstraint limits each of the 6 degrees of freedom of B
// relative to A separately. Linear coordinates are measured along the axes
// of the frame in A, angular ones are XYZ Euler angles of the frame in B
// relative to the frame in A. All axes start locked.
type Generic6DofConstraint struct {
	*Constraint
	FrameInA, FrameInB Transform

	LinearLimits  [3]LimitMotor
	AngularLimits [3]LimitMotor

	calculatedTransformA Transform
	calculatedTransformB Transform
	calculatedAxis       [3]Vector
	calculatedAngles     Vector
	calculatedLinearDiff Vector
}

func NewGeneric6DofConstraint(a, b *RigidBody, frameInA, frameInB Transform) *Generic6DofConstraint {
	joint := &Generic6DofConstraint{
		FrameInA: frameInA,
		FrameInB: frameInB,
	}
	joint.Constraint = NewConstraint(joint, a, b)
	joint.calculateTransforms()
	return joint
}

func (joint *Generic6DofConstraint) SetLinearLowerLimit(v Vector) {
	for i := 0; i < 3; i++ {
		joint.LinearLimits[i].LowerLimit = v[i]
	}
}

func (joint *Generic6DofConstraint) SetLinearUpperLimit(v Vector) {
	for i := 0; i < 3; i++ {
		joint.LinearLimits[i].UpperLimit = v[i]
	}
}

func (joint *Generic6DofConstraint) SetAngularLowerLimit(v Vector) {
	for i := 0; i < 3; i++ {
		joint.AngularLimits[i].LowerLimit = NormalizeAngle(v[i])
	}
}

func (joint *Generic6DofConstraint) SetAngularUpperLimit(v Vector) {
	for i := 0; i < 3; i++ {
		joint.AngularLimits[i].UpperLimit = NormalizeAngle(v[i])
	}
}

// SetLimit sets one axis: 0-2 are linear, 3-5 angular.
func (joint *Generic6DofConstraint) SetLimit(axis int, lower, upper float64) {
	if axis < 3 {
		joint.LinearLimits[axis].SetLimit(lower, upper)
	} else {
		joint.AngularLimits[axis-3].SetLimit(NormalizeAngle(lower), NormalizeAngle(upper))
	}
}

// IsLimited reports whether an axis, 0-5, is limited or locked.
func (joint *Generic6DofConstraint) IsLimited(axis int) bool {
	if axis < 3 {
		return joint.LinearLimits[axis].IsLimited()
	}
	return joint.AngularLimits[axis-3].IsLimited()
}

// Angle returns an Euler angle of the last computed relative rotation.
func (joint *Generic6DofConstraint) Angle(axis int) float64 {
	return joint.calculatedAngles[axis]
}

// Axis returns the world axis of an angular coordinate.
func (joint *Generic6DofConstraint) Axis(axis int) Vector {
	return joint.calculatedAxis[axis]
}

// RelativePivotPosition returns a linear coordinate of the pivot of B in the
// frame of A.
func (joint *Generic6DofConstraint) RelativePivotPosition(axis int) float64 {
	return joint.calculatedLinearDiff[axis]
}

func (joint *Generic6DofConstraint) CalculatedTransformA() Transform {
	return joint.calculatedTransformA
}

func (joint *Generic6DofConstraint) CalculatedTransformB() Transform {
	return joint.calculatedTransformB
}

func (joint *Generic6DofConstraint) calculateTransforms() {
	joint.calculatedTransformA = joint.a.worldTransform.Mult(joint.FrameInA)
	joint.calculatedTransformB = joint.b.worldTransform.Mult(joint.FrameInB)

	basisA := joint.calculatedTransformA.Basis
	basisB := joint.calculatedTransformB.Basis

	relative := basisA.Transpose().Mult(basisB)
	joint.calculatedAngles, _ = relative.EulerXYZ()

	axis0 := basisB.Col(0)
	axis2 := basisA.Col(2)
	axis1 := axis2.Cross(axis0)
	joint.calculatedAxis[0] = axis1.Cross(axis2).SafeNormalize()
	joint.calculatedAxis[1] = axis1.SafeNormalize()
	joint.calculatedAxis[2] = axis0.Cross(axis1).SafeNormalize()

	diff := joint.calculatedTransformB.Origin.Sub(joint.calculatedTransformA.Origin)
	joint.calculatedLinearDiff = basisA.TransposeMulVec(diff)
}

func (joint *Generic6DofConstraint) PreStep(rows *ConstraintRows) {
	joint.calculateTransforms()

	trA := joint.a.worldTransform
	trB := joint.b.worldTransform
	pivotA := joint.calculatedTransformA.Origin
	pivotB := joint.calculatedTransformB.Origin
	r1 := pivotA.Sub(trA.Origin)
	r2 := pivotB.Sub(trB.Origin)

	for i := 0; i < 3; i++ {
		limit := &joint.LinearLimits[i]
		if !limit.IsLimited() && !limit.EnableMotor {
			continue
		}
		// the coordinate grows with B moving along the axis of A
		axis := joint.calculatedTransformA.Basis.Col(i)
		limit.addRows(rows, joint.calculatedLinearDiff[i], func(velocity, lower, upper float64) {
			rows.AddLinear(axis.Neg(), r1, r2, velocity, lower, upper)
		})
	}

	for i := 0; i < 3; i++ {
		limit := &joint.AngularLimits[i]
		if !limit.IsLimited() && !limit.EnableMotor {
			continue
		}
		axis := joint.calculatedAxis[i]
		angle := adjustAngleToLimits(joint.calculatedAngles[i], limit.LowerLimit, limit.UpperLimit)
		limit.addRows(rows, angle, func(velocity, lower, upper float64) {
			rows.AddAngular(axis.Neg(), velocity, lower, upper)
		})
	}
}

// Generic6DofFree returns limits leaving every axis free.
func Generic6DofFree() (lower, upper Vector) {
	return Vector{1, 1, 1}, Vector{-1, -1, -1}
}
