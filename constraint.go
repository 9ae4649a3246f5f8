package bullet

import (
	"fmt"
	"math"
)

// Constrainer is implemented by every joint. PreStep appends the jacobian
// rows of the joint for the coming solve.
type Constrainer interface {
	PreStep(rows *ConstraintRows)
}

// Constraint is the part shared by all joints between two rigid bodies.
type Constraint struct {
	Class Constrainer
	world *World

	a, b *RigidBody

	enabled       bool
	collideBodies bool

	// erp overrides the solver error reduction when positive.
	erp float64

	appliedImpulse float64

	UserData interface{}
}

func NewConstraint(class Constrainer, a, b *RigidBody) *Constraint {
	debugAssert(a != nil && b != nil, "constraint needs two bodies")
	return &Constraint{
		Class:         class,
		a:             a,
		b:             b,
		enabled:       true,
		collideBodies: true,
	}
}

func (c *Constraint) String() string {
	return fmt.Sprintf("Constraint{%T enabled: %v}", c.Class, c.enabled)
}

func (c *Constraint) RigidBodyA() *RigidBody {
	return c.a
}

func (c *Constraint) RigidBodyB() *RigidBody {
	return c.b
}

func (c *Constraint) World() *World {
	return c.world
}

func (c *Constraint) ActivateBodies() {
	c.a.Activate(false)
	c.b.Activate(false)
}

func (c *Constraint) IsEnabled() bool {
	return c.enabled
}

func (c *Constraint) SetEnabled(enabled bool) {
	c.ActivateBodies()
	c.enabled = enabled
}

func (c *Constraint) CollideBodies() bool {
	return c.collideBodies
}

// ERP returns the error reduction override, zero when the solver default is used.
func (c *Constraint) ERP() float64 {
	return c.erp
}

func (c *Constraint) SetERP(erp float64) {
	debugAssert(erp >= 0 && erp <= 1, "erp must be in [0, 1]")
	c.erp = erp
}

// AppliedImpulse is the sum of the absolute row impulses of the last solve.
func (c *Constraint) AppliedImpulse() float64 {
	return c.appliedImpulse
}

// Other returns the body on the other side of the constraint.
func (c *Constraint) Other(body *RigidBody) *RigidBody {
	if c.a == body {
		return c.b
	}
	return c.a
}

// ConstraintRows collects the scalar rows of one joint. A row constrains the
// velocity J·v, where the linear rows measure the motion of A relative to B
// along the axis and the angular rows measure the rotation of A relative to B
// around it.
type ConstraintRows struct {
	solver *SequentialImpulseConstraintSolver
	info   *SolverInfo

	constraint   *Constraint
	bodyA, bodyB *SolverBody
}

func (r *ConstraintRows) BodyA() *RigidBody {
	return r.constraint.a
}

func (r *ConstraintRows) BodyB() *RigidBody {
	return r.constraint.b
}

func (r *ConstraintRows) TimeStep() float64 {
	return r.info.TimeStep
}

// Correction turns a position error into the velocity that removes the
// erp fraction of it in one step.
func (r *ConstraintRows) Correction(err float64) float64 {
	erp := r.constraint.erp
	if erp <= 0 {
		erp = r.info.Erp
	}
	return erp * err / r.info.TimeStep
}

// AddLinear constrains (vA(relPosA) - vB(relPosB))·axis to velocity. The
// accumulated impulse is clamped to [lower, upper].
func (r *ConstraintRows) AddLinear(axis, relPosA, relPosB Vector, velocity, lower, upper float64) {
	r.add(axis, relPosA.Cross(axis), axis.Neg(), relPosB.Cross(axis).Neg(), velocity, lower, upper)
}

// AddAngular constrains (wA - wB)·axis to velocity.
func (r *ConstraintRows) AddAngular(axis Vector, velocity, lower, upper float64) {
	r.add(Vector{}, axis, Vector{}, axis.Neg(), velocity, lower, upper)
}

func (r *ConstraintRows) add(linearA, angularA, linearB, angularB Vector, velocity, lower, upper float64) {
	row := newSolverConstraint(r.bodyA, r.bodyB, linearA, angularA, linearB, angularB)
	if row.jacDiagABInv == 0 {
		return
	}
	row.rhs = velocity * row.jacDiagABInv
	row.lowerLimit = lower
	row.upperLimit = upper
	row.owner = r.constraint
	r.solver.jointRows = append(r.solver.jointRows, row)
}

// LimitMotor limits and drives one degree of freedom. Lower above upper
// leaves the axis free, lower equal to upper locks it.
type LimitMotor struct {
	LowerLimit float64
	UpperLimit float64

	EnableMotor     bool
	TargetVelocity  float64
	MaxMotorImpulse float64

	currentPosition float64
	limitState      int
}

// limit states
const (
	limitFree = iota
	limitLower
	limitUpper
	limitLocked
)

func NewLimitMotorFree() LimitMotor {
	return LimitMotor{LowerLimit: 1, UpperLimit: -1}
}

func (m *LimitMotor) IsLimited() bool {
	return m.LowerLimit <= m.UpperLimit
}

func (m *LimitMotor) SetLimit(lower, upper float64) {
	m.LowerLimit = lower
	m.UpperLimit = upper
}

func (m *LimitMotor) SetMotor(enable bool, targetVelocity, maxMotorImpulse float64) {
	m.EnableMotor = enable
	m.TargetVelocity = targetVelocity
	m.MaxMotorImpulse = maxMotorImpulse
}

// CurrentPosition is the position the rows of the last step were built for.
func (m *LimitMotor) CurrentPosition() float64 {
	return m.currentPosition
}

// AtLimit reports whether the last step violated or locked the limit.
func (m *LimitMotor) AtLimit() bool {
	return m.limitState != limitFree
}

func (m *LimitMotor) testLimit(position float64) {
	m.currentPosition = position
	switch {
	case !m.IsLimited():
		m.limitState = limitFree
	case m.LowerLimit == m.UpperLimit:
		m.limitState = limitLocked
	case position < m.LowerLimit:
		m.limitState = limitLower
	case position > m.UpperLimit:
		m.limitState = limitUpper
	default:
		m.limitState = limitFree
	}
}

// addRows emits the motor and limit rows for a coordinate whose time
// derivative is the velocity constrained by add.
func (m *LimitMotor) addRows(r *ConstraintRows, position float64, add func(velocity, lower, upper float64)) {
	m.testLimit(position)
	if m.EnableMotor && m.limitState != limitLocked && m.MaxMotorImpulse > 0 {
		add(m.TargetVelocity, -m.MaxMotorImpulse, m.MaxMotorImpulse)
	}
	switch m.limitState {
	case limitLocked:
		add(r.Correction(m.LowerLimit-position), -math.MaxFloat64, math.MaxFloat64)
	case limitLower:
		add(r.Correction(m.LowerLimit-position), 0, math.MaxFloat64)
	case limitUpper:
		add(r.Correction(m.UpperLimit-position), -math.MaxFloat64, 0)
	}
}
