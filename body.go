package bullet

import (
	"fmt"
	"math"
)

// Angular displacement a body may make in one step.
const MAX_ANGVEL = SIMD_HALF_PI

// Default sleeping thresholds.
const (
	DEFAULT_LINEAR_SLEEPING_THRESHOLD  = 0.8
	DEFAULT_ANGULAR_SLEEPING_THRESHOLD = 1.0
)

// RigidBodyConstructionInfo holds the parameters of NewRigidBody.
type RigidBodyConstructionInfo struct {
	Mass float64

	// When set, the initial transform is read from the motion state and the
	// world writes interpolated transforms back to it.
	MotionState         MotionState
	StartWorldTransform Transform

	CollisionShape CollisionShape
	LocalInertia   Vector

	LinearDamping  float64
	AngularDamping float64

	Friction    float64
	Restitution float64

	LinearSleepingThreshold  float64
	AngularSleepingThreshold float64
}

func NewRigidBodyConstructionInfo(mass float64, motionState MotionState, shape CollisionShape, localInertia Vector) RigidBodyConstructionInfo {
	return RigidBodyConstructionInfo{
		Mass:                     mass,
		MotionState:              motionState,
		StartWorldTransform:      NewTransformIdentity(),
		CollisionShape:           shape,
		LocalInertia:             localInertia,
		Friction:                 0.5,
		LinearSleepingThreshold:  DEFAULT_LINEAR_SLEEPING_THRESHOLD,
		AngularSleepingThreshold: DEFAULT_ANGULAR_SLEEPING_THRESHOLD,
	}
}

// RigidBody is a collision object with mass, velocity and forces. A body with
// zero mass is static.
type RigidBody struct {
	CollisionObject

	invInertiaTensorWorld Matrix3
	linearVelocity        Vector
	angularVelocity       Vector
	inverseMass           float64
	invInertiaLocal       Vector

	gravity             Vector
	gravityAcceleration Vector

	totalForce  Vector
	totalTorque Vector

	linearDamping  float64
	angularDamping float64

	linearSleepingThreshold  float64
	angularSleepingThreshold float64

	motionState MotionState

	constraints []*Constraint
}

// NewRigidBody validates info and builds the body. Only static bodies may use
// concave or plane shapes.
func NewRigidBody(info RigidBodyConstructionInfo) (*RigidBody, error) {
	if info.CollisionShape == nil {
		return nil, fmt.Errorf("rigid body without shape: %w", ErrInvalidShape)
	}
	if err := info.CollisionShape.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(info.Mass) || math.IsInf(info.Mass, 0) || info.Mass < 0 {
		return nil, fmt.Errorf("mass %v: %w", info.Mass, ErrInvalidMass)
	}
	if !info.LocalInertia.IsFinite() || info.LocalInertia.X() < 0 || info.LocalInertia.Y() < 0 || info.LocalInertia.Z() < 0 {
		return nil, fmt.Errorf("local inertia %v: %w", info.LocalInertia, ErrInvalidMass)
	}
	t := info.CollisionShape.Type()
	if info.Mass > 0 && (t.IsConcave() || t.IsPlane()) {
		return nil, fmt.Errorf("dynamic body with %v shape: %w", t, ErrInvalidShape)
	}

	transform := info.StartWorldTransform
	if info.MotionState != nil {
		transform = info.MotionState.GetWorldTransform()
	}
	if !transform.IsFinite() {
		return nil, fmt.Errorf("initial transform: %w", ErrNaNTransform)
	}

	body := &RigidBody{
		linearDamping:            Clamp01(info.LinearDamping),
		angularDamping:           Clamp01(info.AngularDamping),
		linearSleepingThreshold:  info.LinearSleepingThreshold,
		angularSleepingThreshold: info.AngularSleepingThreshold,
		motionState:              info.MotionState,
	}
	body.init(info.CollisionShape, transform)
	body.rigidBody = body
	body.friction = info.Friction
	body.restitution = info.Restitution

	body.SetMassProps(info.Mass, info.LocalInertia)
	body.UpdateInertiaTensor()
	return body, nil
}

func (body *RigidBody) String() string {
	return fmt.Sprintf("RigidBody{mass: %v, position: %v, state: %v}", body.Mass(), body.worldTransform.Origin, ActivationStateName(body.activationState))
}

// SetMassProps sets the mass and the diagonal local inertia. Zero mass makes
// the body static, a zero inertia component locks that rotation axis.
func (body *RigidBody) SetMassProps(mass float64, inertia Vector) {
	if mass == 0 {
		body.collisionFlags |= CF_STATIC_OBJECT
		body.inverseMass = 0
	} else {
		body.collisionFlags &^= CF_STATIC_OBJECT
		body.inverseMass = 1 / mass
	}

	inv := func(f float64) float64 {
		if f == 0 {
			return 0
		}
		return 1 / f
	}
	body.invInertiaLocal = Vector{inv(inertia.X()), inv(inertia.Y()), inv(inertia.Z())}
	body.gravity = body.gravityAcceleration.Mult(mass)
}

func (body *RigidBody) Mass() float64 {
	if body.inverseMass == 0 {
		return 0
	}
	return 1 / body.inverseMass
}

func (body *RigidBody) InvMass() float64 {
	return body.inverseMass
}

func (body *RigidBody) InvInertiaDiagLocal() Vector {
	return body.invInertiaLocal
}

func (body *RigidBody) InvInertiaTensorWorld() Matrix3 {
	return body.invInertiaTensorWorld
}

func (body *RigidBody) UpdateInertiaTensor() {
	basis := body.worldTransform.Basis
	body.invInertiaTensorWorld = basis.Scaled(body.invInertiaLocal).Mult(basis.Transpose())
}

// SetKinematic switches the body between kinematic and dynamic. A kinematic
// body follows its motion state.
func (body *RigidBody) SetKinematic(kinematic bool) {
	if kinematic {
		body.collisionFlags |= CF_KINEMATIC_OBJECT
		body.ForceActivationState(DISABLE_DEACTIVATION)
	} else {
		body.collisionFlags &^= CF_KINEMATIC_OBJECT
		body.ForceActivationState(ACTIVE_TAG)
	}
}

func (body *RigidBody) MotionState() MotionState {
	return body.motionState
}

func (body *RigidBody) SetMotionState(ms MotionState) {
	body.motionState = ms
	if ms != nil {
		ms.SetWorldTransform(body.worldTransform)
	}
}

func (body *RigidBody) CenterOfMassTransform() Transform {
	return body.worldTransform
}

func (body *RigidBody) CenterOfMassPosition() Vector {
	return body.worldTransform.Origin
}

func (body *RigidBody) Orientation() Quaternion {
	return body.worldTransform.Rotation()
}

// SetCenterOfMassTransform moves the body, keeping the previous pose for
// motion state interpolation.
func (body *RigidBody) SetCenterOfMassTransform(t Transform) {
	if body.IsKinematicObject() {
		body.interpolationWorldTransform = body.worldTransform
	} else {
		body.interpolationWorldTransform = t
	}
	body.interpolationLinearVelocity = body.linearVelocity
	body.interpolationAngularVelocity = body.angularVelocity
	body.worldTransform = t
	body.UpdateInertiaTensor()
}

// ProceedToTransform commits an integrated pose.
func (body *RigidBody) ProceedToTransform(t Transform) {
	body.SetCenterOfMassTransform(t)
}

func (body *RigidBody) PredictIntegratedTransform(timeStep float64) Transform {
	return IntegrateTransform(body.worldTransform, body.linearVelocity, body.angularVelocity, timeStep)
}

func (body *RigidBody) LinearVelocity() Vector {
	return body.linearVelocity
}

func (body *RigidBody) SetLinearVelocity(v Vector) {
	body.Activate(false)
	body.linearVelocity = v
}

func (body *RigidBody) AngularVelocity() Vector {
	return body.angularVelocity
}

func (body *RigidBody) SetAngularVelocity(w Vector) {
	body.Activate(false)
	body.angularVelocity = w
}

// VelocityInLocalPoint is the velocity of the point at relPos from the
// center of mass.
func (body *RigidBody) VelocityInLocalPoint(relPos Vector) Vector {
	return body.linearVelocity.Add(body.angularVelocity.Cross(relPos))
}

func (body *RigidBody) SetDamping(linear, angular float64) {
	body.linearDamping = Clamp01(linear)
	body.angularDamping = Clamp01(angular)
}

func (body *RigidBody) LinearDamping() float64 {
	return body.linearDamping
}

func (body *RigidBody) AngularDamping() float64 {
	return body.angularDamping
}

// ApplyDamping scales the velocities by (1-damping)^timeStep.
func (body *RigidBody) ApplyDamping(timeStep float64) {
	body.linearVelocity = body.linearVelocity.Mult(math.Pow(1-body.linearDamping, timeStep))
	body.angularVelocity = body.angularVelocity.Mult(math.Pow(1-body.angularDamping, timeStep))
}

func (body *RigidBody) SetSleepingThresholds(linear, angular float64) {
	body.linearSleepingThreshold = linear
	body.angularSleepingThreshold = angular
}

func (body *RigidBody) LinearSleepingThreshold() float64 {
	return body.linearSleepingThreshold
}

func (body *RigidBody) AngularSleepingThreshold() float64 {
	return body.angularSleepingThreshold
}

func (body *RigidBody) Gravity() Vector {
	return body.gravityAcceleration
}

func (body *RigidBody) SetGravity(acceleration Vector) {
	if body.inverseMass != 0 {
		body.gravity = acceleration.Mult(1 / body.inverseMass)
	}
	body.gravityAcceleration = acceleration
}

func (body *RigidBody) ApplyGravity() {
	if body.IsStaticOrKinematicObject() {
		return
	}
	body.ApplyCentralForce(body.gravity)
}

func (body *RigidBody) TotalForce() Vector {
	return body.totalForce
}

func (body *RigidBody) TotalTorque() Vector {
	return body.totalTorque
}

func (body *RigidBody) ApplyCentralForce(force Vector) {
	body.totalForce = body.totalForce.Add(force)
}

func (body *RigidBody) ApplyTorque(torque Vector) {
	body.totalTorque = body.totalTorque.Add(torque)
}

// ApplyForce applies force at relPos from the center of mass.
func (body *RigidBody) ApplyForce(force, relPos Vector) {
	body.ApplyCentralForce(force)
	body.ApplyTorque(relPos.Cross(force))
}

func (body *RigidBody) ClearForces() {
	body.totalForce = Vector{}
	body.totalTorque = Vector{}
}

// ApplyCentralImpulse changes the linear velocity and wakes the body.
func (body *RigidBody) ApplyCentralImpulse(impulse Vector) {
	body.Activate(false)
	body.linearVelocity = body.linearVelocity.Add(impulse.Mult(body.inverseMass))
}

func (body *RigidBody) ApplyTorqueImpulse(torque Vector) {
	body.Activate(false)
	body.angularVelocity = body.angularVelocity.Add(body.invInertiaTensorWorld.MulVec(torque))
}

// ApplyImpulse applies impulse at relPos from the center of mass.
func (body *RigidBody) ApplyImpulse(impulse, relPos Vector) {
	if body.inverseMass == 0 {
		return
	}
	body.ApplyCentralImpulse(impulse)
	body.ApplyTorqueImpulse(relPos.Cross(impulse))
}

// applyImpulseSilently is the solver path, it does not touch the activation state.
func (body *RigidBody) applyImpulseSilently(linear, angular Vector) {
	body.linearVelocity = body.linearVelocity.Add(linear)
	body.angularVelocity = body.angularVelocity.Add(angular)
}

// IntegrateVelocities applies the accumulated forces. The angular velocity is
// clamped so a step never turns the body more than MAX_ANGVEL.
func (body *RigidBody) IntegrateVelocities(step float64) {
	if body.IsStaticOrKinematicObject() {
		return
	}
	body.linearVelocity = body.linearVelocity.Add(body.totalForce.Mult(body.inverseMass * step))
	body.angularVelocity = body.angularVelocity.Add(body.invInertiaTensorWorld.MulVec(body.totalTorque).Mult(step))

	if angvel := body.angularVelocity.Length(); angvel*step > MAX_ANGVEL {
		body.angularVelocity = body.angularVelocity.Mult(MAX_ANGVEL / step / angvel)
	}
}

// ComputeImpulseDenominator is the inverse effective mass of the body at pos
// along normal.
func (body *RigidBody) ComputeImpulseDenominator(pos, normal Vector) float64 {
	r0 := pos.Sub(body.CenterOfMassPosition())
	c0 := r0.Cross(normal)
	vec := body.invInertiaTensorWorld.MulVec(c0).Cross(r0)
	return body.inverseMass + normal.Dot(vec)
}

func (body *RigidBody) ComputeAngularImpulseDenominator(axis Vector) float64 {
	return axis.Dot(body.invInertiaTensorWorld.MulVec(axis))
}

// SaveKinematicState derives the velocity of a kinematic body from the pose
// its motion state moved it to.
func (body *RigidBody) SaveKinematicState(timeStep float64) {
	if timeStep == 0 || !body.IsKinematicObject() {
		return
	}
	if body.motionState != nil {
		body.worldTransform = body.motionState.GetWorldTransform()
	}
	body.linearVelocity, body.angularVelocity = CalculateVelocity(body.interpolationWorldTransform, body.worldTransform, timeStep)
	body.interpolationLinearVelocity = body.linearVelocity
	body.interpolationAngularVelocity = body.angularVelocity
	body.interpolationWorldTransform = body.worldTransform
	body.UpdateInertiaTensor()
}

// UpdateDeactivation accumulates the time the body spent below its sleeping
// thresholds.
func (body *RigidBody) UpdateDeactivation(timeStep float64) {
	if body.activationState == ISLAND_SLEEPING || body.activationState == DISABLE_DEACTIVATION {
		return
	}
	lt := body.linearSleepingThreshold
	at := body.angularSleepingThreshold
	if body.linearVelocity.LengthSq() < lt*lt && body.angularVelocity.LengthSq() < at*at {
		body.deactivationTime += timeStep
	} else {
		body.deactivationTime = 0
		body.SetActivationState(ACTIVE_TAG)
	}
}

// WantsSleeping reports whether the body has been still for longer than
// deactivationTime. A zero deactivationTime disables sleeping.
func (body *RigidBody) WantsSleeping(deactivationTime float64) bool {
	if body.activationState == DISABLE_DEACTIVATION || deactivationTime == 0 {
		return false
	}
	if body.activationState == ISLAND_SLEEPING || body.activationState == WANTS_DEACTIVATION {
		return true
	}
	return body.deactivationTime > deactivationTime
}

func (body *RigidBody) KineticEnergy() float64 {
	if body.inverseMass == 0 {
		return 0
	}
	mass := 1 / body.inverseMass
	linear := 0.5 * mass * body.linearVelocity.LengthSq()
	// rotational energy from the world inverse inertia
	w := body.angularVelocity
	var angular float64
	basis := body.worldTransform.Basis
	local := basis.TransposeMulVec(w)
	for i := 0; i < 3; i++ {
		if body.invInertiaLocal[i] != 0 {
			angular += 0.5 * local[i] * local[i] / body.invInertiaLocal[i]
		}
	}
	return linear + angular
}

func (body *RigidBody) addConstraintRef(c *Constraint) {
	for _, existing := range body.constraints {
		if existing == c {
			return
		}
	}
	body.constraints = append(body.constraints, c)
}

func (body *RigidBody) removeConstraintRef(c *Constraint) {
	for i, existing := range body.constraints {
		if existing == c {
			body.constraints = append(body.constraints[:i], body.constraints[i+1:]...)
			return
		}
	}
}

func (body *RigidBody) NumConstraintRefs() int {
	return len(body.constraints)
}

func (body *RigidBody) ConstraintRef(i int) *Constraint {
	return body.constraints[i]
}
