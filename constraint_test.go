package bullet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitMotor(t *testing.T) {
	free := NewLimitMotorFree()
	assert.False(t, free.IsLimited())
	free.testLimit(3)
	assert.False(t, free.AtLimit())

	var locked LimitMotor
	assert.True(t, locked.IsLimited(), "the zero value is locked")
	locked.testLimit(0)
	assert.Equal(t, limitLocked, locked.limitState)

	m := NewLimitMotorFree()
	m.SetLimit(-1, 1)
	m.testLimit(0.5)
	assert.False(t, m.AtLimit())
	m.testLimit(-1.5)
	assert.Equal(t, limitLower, m.limitState)
	m.testLimit(1.5)
	assert.Equal(t, limitUpper, m.limitState)
	assert.Equal(t, 1.5, m.CurrentPosition())
}

func TestAdjustAngleToLimits(t *testing.T) {
	assert.Equal(t, 0.5, adjustAngleToLimits(0.5, -1, 1))
	assert.Equal(t, -1.5, adjustAngleToLimits(-1.5, -1, 1))
	// just past -pi is nearer the upper limit once wrapped
	assert.InDelta(t, math.Pi+0.1, adjustAngleToLimits(-math.Pi+0.1, -1, 3), 1e-12)
	assert.InDelta(t, -math.Pi-0.1, adjustAngleToLimits(math.Pi-0.1, -3, 1), 1e-12)
	assert.Equal(t, 2.0, adjustAngleToLimits(2, 1, -1), "free range")
}

func TestHingeAngle(t *testing.T) {
	a := newTestBox(t, 0, Vector{0.5, 0.5, 0.5}, Vector{})
	b := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{})
	hinge := NewHingeConstraint(a, b, Vector{}, Vector{}, Vector{0, 0, 1}, Vector{0, 0, 1})
	assert.InDelta(t, 0, hinge.HingeAngle(), 1e-12)

	b.SetCenterOfMassTransform(NewTransformRigid(Vector{}, Vector{0, 0, 1}, 0.4))
	assert.InDelta(t, 0.4, math.Abs(hinge.HingeAngle()), 1e-9)

	// rotation around another axis does not change the hinge angle
	b.SetCenterOfMassTransform(NewTransformRigid(Vector{}, Vector{1, 0, 0}, 0.4))
	assert.InDelta(t, 0, hinge.HingeAngle(), 1e-9)
}

func TestHinge_Limit(t *testing.T) {
	w := NewDefaultWorld()
	anchor := newTestBox(t, 0, Vector{0.1, 0.1, 0.1}, Vector{0, 4, 0})
	arm := newTestBox(t, 1, Vector{1, 0.1, 0.1}, Vector{1.2, 4, 0})
	require.NoError(t, w.AddRigidBody(anchor))
	require.NoError(t, w.AddRigidBody(arm))
	arm.ForceActivationState(DISABLE_DEACTIVATION)

	hinge := NewHingeConstraint(anchor, arm, Vector{}, Vector{-1.2, 0, 0}, Vector{0, 0, 1}, Vector{0, 0, 1})
	hinge.SetLimit(-math.Pi/4, math.Pi/4)
	require.NoError(t, w.AddConstraint(hinge.Constraint, true))

	var widest float64
	for i := 0; i < 300; i++ {
		stepN(w, 1)
		widest = math.Max(widest, math.Abs(hinge.HingeAngle()))
	}
	assert.LessOrEqual(t, widest, math.Pi/4+0.15, "overshoot is bounded")
	assert.InDelta(t, math.Pi/4, math.Abs(hinge.HingeAngle()), 0.1, "the arm rests on its limit")
	assert.Positive(t, hinge.AppliedImpulse())

	pivot := arm.CenterOfMassTransform().Point(Vector{-1.2, 0, 0})
	assert.InDelta(t, 0, pivot.Sub(Vector{0, 4, 0}).Length(), 0.05)
	assert.Greater(t, arm.CenterOfMassTransform().Basis.Col(2).Dot(Vector{0, 0, 1}), 0.999, "axis stays aligned")
}

func TestPoint2Point(t *testing.T) {
	w := NewDefaultWorld()
	anchor := newTestBox(t, 0, Vector{0.1, 0.1, 0.1}, Vector{0, 5, 0})
	box := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{0.5, 4.5, 0})
	require.NoError(t, w.AddRigidBody(anchor))
	require.NoError(t, w.AddRigidBody(box))

	joint := NewPoint2PointConstraint(anchor, box, Vector{0, 5, 0})
	assert.InDelta(t, 0, joint.PivotInA.Length(), 1e-12)
	assert.InDelta(t, 0, joint.PivotInB.Sub(Vector{-0.5, 0.5, 0}).Length(), 1e-12)
	require.NoError(t, w.AddConstraint(joint.Constraint, true))

	lowest := box.CenterOfMassPosition().Y()
	for i := 0; i < 120; i++ {
		stepN(w, 1)
		pivotB := box.CenterOfMassTransform().Point(joint.PivotInB)
		require.InDelta(t, 0, pivotB.Sub(Vector{0, 5, 0}).Length(), 0.05, "step %d", i)
		lowest = math.Min(lowest, box.CenterOfMassPosition().Y())
	}
	// the box swung down under the pivot
	assert.Less(t, lowest, 4.4)
}

func TestGeneric6Dof_Transforms(t *testing.T) {
	a := newTestBox(t, 0, Vector{0.5, 0.5, 0.5}, Vector{})
	b := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{})
	b.SetCenterOfMassTransform(NewTransformRigid(Vector{1, 2, 3}, Vector{1, 0, 0}, 0.3))

	joint := NewGeneric6DofConstraint(a, b, NewTransformIdentity(), NewTransformIdentity())
	assert.InDelta(t, 0.3, joint.Angle(0), 1e-9)
	assert.InDelta(t, 0, joint.Angle(1), 1e-9)
	assert.InDelta(t, 0, joint.Angle(2), 1e-9)
	for i, want := range []float64{1, 2, 3} {
		assert.InDelta(t, want, joint.RelativePivotPosition(i), 1e-9)
		assert.True(t, joint.IsLimited(i))
		assert.True(t, joint.IsLimited(i+3))
	}
	assert.InDelta(t, 1, joint.Axis(0).Dot(Vector{1, 0, 0}), 1e-9)

	lower, upper := Generic6DofFree()
	joint.SetLinearLowerLimit(lower)
	joint.SetLinearUpperLimit(upper)
	for i := 0; i < 3; i++ {
		assert.False(t, joint.IsLimited(i))
	}
}

func TestGeneric6Dof_Locked(t *testing.T) {
	w := NewDefaultWorld()
	anchor := newTestBox(t, 0, Vector{0.1, 0.1, 0.1}, Vector{0, 5, 0})
	box := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{0, 4, 0})
	require.NoError(t, w.AddRigidBody(anchor))
	require.NoError(t, w.AddRigidBody(box))

	joint := NewGeneric6DofConstraint(anchor, box, NewTransformTranslate(Vector{0, -0.5, 0}), NewTransformTranslate(Vector{0, 0.5, 0}))
	require.NoError(t, w.AddConstraint(joint.Constraint, true))
	box.ApplyTorqueImpulse(Vector{0.1, 0, 0.1})

	stepN(w, 120)
	assert.InDelta(t, 0, box.CenterOfMassPosition().Sub(Vector{0, 4, 0}).Length(), 0.02)
	assert.Greater(t, math.Abs(box.Orientation().W), math.Cos(0.05/2), "rotation stays locked")

	// a linear range lets the box drop to its lower end
	joint.SetLimit(1, -0.5, 0.5)
	joint.ActivateBodies()
	stepN(w, 120)
	assert.InDelta(t, 3.5, box.CenterOfMassPosition().Y(), 0.05)
	assert.InDelta(t, -0.5, joint.RelativePivotPosition(1), 0.05)
}

func TestSimpleMotor(t *testing.T) {
	w := NewDefaultWorld()
	w.SetGravity(Vector{})
	base := newTestBox(t, 0, Vector{0.5, 0.5, 0.5}, Vector{})
	wheel := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{3, 0, 0})
	require.NoError(t, w.AddRigidBody(base))
	require.NoError(t, w.AddRigidBody(wheel))

	motor := NewSimpleMotor(base, wheel, Vector{0, 1, 0}, 2, 10)
	require.NoError(t, w.AddConstraint(motor.Constraint, false))
	stepN(w, 5)
	assert.InDelta(t, 2, wheel.AngularVelocity().Y(), 1e-6)
	assert.InDelta(t, 0, wheel.LinearVelocity().Length(), 1e-9)

	// a weak motor only accelerates by its impulse budget
	wheel.SetAngularVelocity(Vector{})
	motor.MaxImpulse = 0.01
	motor.SetRate(100)
	stepN(w, 1)
	assert.InDelta(t, 0.01*wheel.InvInertiaDiagLocal().Y(), wheel.AngularVelocity().Y(), 1e-6)
}

func TestConstraint_Disabled(t *testing.T) {
	w := NewDefaultWorld()
	anchor := newTestBox(t, 0, Vector{0.1, 0.1, 0.1}, Vector{0, 5, 0})
	box := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{0, 4, 0})
	require.NoError(t, w.AddRigidBody(anchor))
	require.NoError(t, w.AddRigidBody(box))
	joint := NewPoint2PointConstraint(anchor, box, Vector{0, 5, 0})
	require.NoError(t, w.AddConstraint(joint.Constraint, true))

	joint.SetEnabled(false)
	stepN(w, 30)
	assert.Less(t, box.CenterOfMassPosition().Y(), 3.5, "a disabled joint lets go")
	assert.Zero(t, joint.AppliedImpulse())
}
