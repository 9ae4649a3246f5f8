package bullet

// SimpleMotor keeps the angular velocity of B relative to A around an axis
// fixed in A at Rate, within MaxImpulse per step.
type SimpleMotor struct {
	*Constraint

	AxisInA    Vector
	Rate       float64
	MaxImpulse float64
}

func NewSimpleMotor(a, b *RigidBody, axisInA Vector, rate, maxImpulse float64) *SimpleMotor {
	motor := &SimpleMotor{
		AxisInA:    axisInA.Normalize(),
		Rate:       rate,
		MaxImpulse: maxImpulse,
	}
	motor.Constraint = NewConstraint(motor, a, b)
	return motor
}

func (motor *SimpleMotor) SetRate(rate float64) {
	motor.ActivateBodies()
	motor.Rate = rate
}

func (motor *SimpleMotor) PreStep(rows *ConstraintRows) {
	if motor.MaxImpulse <= 0 {
		return
	}
	axis := motor.a.worldTransform.Vect(motor.AxisInA)
	rows.AddAngular(axis.Neg(), motor.Rate, -motor.MaxImpulse, motor.MaxImpulse)
}
