package bullet

import (
	"math"
	"math/rand"
)

// SolverInfo holds the parameters of one solve.
type SolverInfo struct {
	TimeStep   float64
	Iterations int

	// Fraction of the position error corrected per step.
	Erp float64
	// Scale of the previous step impulses used as the initial guess.
	WarmStartingFactor float64
	// Penetration allowed before position correction starts.
	LinearSlop float64
	// Approach speed below which contacts do not bounce.
	RestitutionThreshold float64

	RandomizeOrder bool
	// Iterations stop early once the largest impulse change drops below this.
	ResidualThreshold float64
}

func DefaultSolverInfo() SolverInfo {
	return SolverInfo{
		TimeStep:             1.0 / 60.0,
		Iterations:           100,
		Erp:                  0.2,
		WarmStartingFactor:   0.85,
		LinearSlop:           0.0,
		RestitutionThreshold: 0.2,
	}
}

// SolverStats reports how a solve ended. There is no failure signal, a solve
// that hits the iteration cap just reports a larger residual.
type SolverStats struct {
	Iterations     int
	Residual       float64
	Contacts       int
	ConstraintRows int
	Bodies         int
	Islands        int
}

// merge combines the stats of independent islands.
func (s *SolverStats) merge(other SolverStats) {
	s.Iterations = max(s.Iterations, other.Iterations)
	s.Residual = math.Max(s.Residual, other.Residual)
	s.Contacts += other.Contacts
	s.ConstraintRows += other.ConstraintRows
	s.Bodies += other.Bodies
	s.Islands += other.Islands
}

// SolverConstraint is one scalar velocity constraint J·v between two solver
// bodies, with its accumulated impulse clamped to [lowerLimit, upperLimit].
type SolverConstraint struct {
	bodyA, bodyB *SolverBody

	linearA, angularA Vector
	linearB, angularB Vector

	// inverse world inertia times the angular jacobians
	angularComponentA, angularComponentB Vector

	jacDiagABInv float64
	rhs          float64

	appliedImpulse         float64
	lowerLimit, upperLimit float64

	// friction rows read their bounds from the normal row at frictionIndex
	friction      float64
	frictionIndex int

	point *ManifoldPoint
	owner *Constraint
}

func newSolverConstraint(bodyA, bodyB *SolverBody, linearA, angularA, linearB, angularB Vector) SolverConstraint {
	c := SolverConstraint{
		bodyA:             bodyA,
		bodyB:             bodyB,
		linearA:           linearA,
		angularA:          angularA,
		linearB:           linearB,
		angularB:          angularB,
		angularComponentA: bodyA.invInertiaWorld.MulVec(angularA),
		angularComponentB: bodyB.invInertiaWorld.MulVec(angularB),
		frictionIndex:     -1,
	}
	denom := bodyA.invMass*linearA.Dot(linearA) + angularA.Dot(c.angularComponentA) +
		bodyB.invMass*linearB.Dot(linearB) + angularB.Dot(c.angularComponentB)
	if denom > SIMD_EPSILON {
		c.jacDiagABInv = 1 / denom
	}
	return c
}

func (c *SolverConstraint) AppliedImpulse() float64 {
	return c.appliedImpulse
}

func (c *SolverConstraint) jacobianVelocity() float64 {
	return c.linearA.Dot(c.bodyA.linearVelocity) + c.angularA.Dot(c.bodyA.angularVelocity) +
		c.linearB.Dot(c.bodyB.linearVelocity) + c.angularB.Dot(c.bodyB.angularVelocity)
}

func (c *SolverConstraint) applyImpulse(impulse float64) {
	c.bodyA.applyImpulse(c.linearA, c.angularComponentA, impulse)
	c.bodyB.applyImpulse(c.linearB, c.angularComponentB, impulse)
}

// solve runs one clamped sequential impulse update and returns the change of
// the accumulated impulse. Only the change is applied to the bodies.
func (c *SolverConstraint) solve() float64 {
	delta := c.rhs - c.jacDiagABInv*c.jacobianVelocity()
	sum := c.appliedImpulse + delta
	if sum < c.lowerLimit {
		delta = c.lowerLimit - c.appliedImpulse
		c.appliedImpulse = c.lowerLimit
	} else if sum > c.upperLimit {
		delta = c.upperLimit - c.appliedImpulse
		c.appliedImpulse = c.upperLimit
	} else {
		c.appliedImpulse = sum
	}
	if delta != 0 {
		c.applyImpulse(delta)
	}
	return delta
}

// SequentialImpulseConstraintSolver solves the contacts and joints of one
// island at a time with projected Gauss-Seidel iterations. A solver must not
// be shared between goroutines.
type SequentialImpulseConstraintSolver struct {
	bodies    []SolverBody
	bodyIndex map[*CollisionObject]int

	contactRows  []SolverConstraint
	frictionRows []SolverConstraint
	jointRows    []SolverConstraint

	contactOrder  []int
	frictionOrder []int

	rand *rand.Rand
}

func NewSequentialImpulseConstraintSolver() *SequentialImpulseConstraintSolver {
	return &SequentialImpulseConstraintSolver{
		bodyIndex: map[*CollisionObject]int{},
		rand:      rand.New(rand.NewSource(1)),
	}
}

// SetRandSeed reseeds the order shuffling used with RandomizeOrder.
func (s *SequentialImpulseConstraintSolver) SetRandSeed(seed int64) {
	s.rand.Seed(seed)
}

func (s *SequentialImpulseConstraintSolver) reset() {
	s.bodies = s.bodies[:0]
	clear(s.bodyIndex)
	s.contactRows = s.contactRows[:0]
	s.frictionRows = s.frictionRows[:0]
	s.jointRows = s.jointRows[:0]
}

func (s *SequentialImpulseConstraintSolver) addBody(obj *CollisionObject) {
	if _, ok := s.bodyIndex[obj]; ok {
		return
	}
	s.bodyIndex[obj] = len(s.bodies)
	s.bodies = append(s.bodies, newSolverBody(obj))
}

func (s *SequentialImpulseConstraintSolver) solverBody(obj *CollisionObject) *SolverBody {
	return &s.bodies[s.bodyIndex[obj]]
}

// SolveIsland solves one island and writes the velocities and the warm
// start impulses back.
func (s *SequentialImpulseConstraintSolver) SolveIsland(island *Island, info *SolverInfo) SolverStats {
	return s.SolveGroup(island.Bodies, island.Manifolds, island.Constraints, info)
}

// SolveGroup runs setup, iterations and write back for a set of bodies,
// manifolds and constraints that touch no body outside the set, static and
// kinematic bodies excepted.
func (s *SequentialImpulseConstraintSolver) SolveGroup(bodies []*CollisionObject, manifolds []*PersistentManifold, constraints []*Constraint, info *SolverInfo) SolverStats {
	s.reset()
	for _, obj := range bodies {
		s.addBody(obj)
	}
	for _, m := range manifolds {
		s.addBody(m.body0)
		s.addBody(m.body1)
	}
	for _, c := range constraints {
		s.addBody(&c.a.CollisionObject)
		s.addBody(&c.b.CollisionObject)
	}

	stats := SolverStats{Bodies: len(s.bodies), Islands: 1}
	if len(manifolds) == 0 && len(constraints) == 0 {
		return stats
	}

	for _, c := range constraints {
		c.appliedImpulse = 0
		if !c.enabled {
			continue
		}
		rows := ConstraintRows{
			solver:     s,
			info:       info,
			constraint: c,
			bodyA:      s.solverBody(&c.a.CollisionObject),
			bodyB:      s.solverBody(&c.b.CollisionObject),
		}
		c.Class.PreStep(&rows)
	}
	for _, m := range manifolds {
		s.setupContacts(m, info)
	}
	stats.Contacts = len(s.contactRows)
	stats.ConstraintRows = len(s.jointRows) + len(s.contactRows) + len(s.frictionRows)

	s.contactOrder = orderSlice(s.contactOrder, len(s.contactRows))
	s.frictionOrder = orderSlice(s.frictionOrder, len(s.frictionRows))

	for iteration := 0; iteration < info.Iterations; iteration++ {
		residual := s.iterate(info)
		stats.Iterations = iteration + 1
		stats.Residual = residual
		if residual <= info.ResidualThreshold {
			break
		}
	}

	s.finish()
	return stats
}

func orderSlice(order []int, n int) []int {
	order = order[:0]
	for i := 0; i < n; i++ {
		order = append(order, i)
	}
	return order
}

// setupContacts builds one normal row and two friction rows per contact
// point and applies the warm start impulses.
func (s *SequentialImpulseConstraintSolver) setupContacts(m *PersistentManifold, info *SolverInfo) {
	bodyA := s.solverBody(m.body0)
	bodyB := s.solverBody(m.body1)
	invTimeStep := 1 / info.TimeStep

	for i := 0; i < m.cachedPoints; i++ {
		pt := &m.points[i]
		if pt.Distance > m.contactBreakingThreshold {
			continue
		}
		n := pt.NormalWorldOnB
		relPosA := pt.PositionWorldOnA.Sub(bodyA.centerOfMass)
		relPosB := pt.PositionWorldOnB.Sub(bodyB.centerOfMass)

		normal := newSolverConstraint(bodyA, bodyB, n, relPosA.Cross(n), n.Neg(), relPosB.Cross(n).Neg())
		if normal.jacDiagABInv == 0 {
			continue
		}
		normal.point = pt
		normal.friction = pt.CombinedFriction
		normal.lowerLimit = 0
		normal.upperLimit = math.MaxFloat64

		relVel := bodyA.velocityInLocalPoint(relPosA).Sub(bodyB.velocityInLocalPoint(relPosB))
		vrn := relVel.Dot(n)

		var bounce float64
		if pt.Distance <= 0 && vrn < -info.RestitutionThreshold {
			bounce = -vrn * pt.CombinedRestitution
		}
		var bias float64
		if pt.Distance > 0 {
			// speculative: allow closing the gap within this step
			bias = -pt.Distance * invTimeStep
		} else {
			bias = -info.Erp * math.Min(0, pt.Distance+info.LinearSlop) * invTimeStep
		}
		normal.rhs = (bounce + bias) * normal.jacDiagABInv

		normal.appliedImpulse = pt.AppliedImpulse * info.WarmStartingFactor
		if normal.appliedImpulse != 0 {
			normal.applyImpulse(normal.appliedImpulse)
		}
		normalIndex := len(s.contactRows)
		s.contactRows = append(s.contactRows, normal)

		if !s.frictionDirections(pt, relVel.Sub(n.Mult(vrn))) {
			pt.AppliedImpulseLateral1 = 0
			pt.AppliedImpulseLateral2 = 0
		}
		s.addFriction(bodyA, bodyB, pt, pt.LateralFrictionDir1, relPosA, relPosB, normalIndex, pt.AppliedImpulseLateral1*info.WarmStartingFactor)
		s.addFriction(bodyA, bodyB, pt, pt.LateralFrictionDir2, relPosA, relPosB, normalIndex, pt.AppliedImpulseLateral2*info.WarmStartingFactor)
	}
}

// frictionDirections keeps the cached friction directions of a point when
// they still span the contact plane and reports whether it did.
func (s *SequentialImpulseConstraintSolver) frictionDirections(pt *ManifoldPoint, lateralVel Vector) bool {
	n := pt.NormalWorldOnB
	if pt.LateralFrictionInitialized {
		dir := pt.LateralFrictionDir1.Sub(n.Mult(n.Dot(pt.LateralFrictionDir1)))
		if dir.LengthSq() > 0.5 {
			dir1 := dir.Normalize()
			pt.LateralFrictionDir1 = dir1
			pt.LateralFrictionDir2 = n.Cross(dir1)
			return true
		}
	}
	if lateralVel.LengthSq() > SIMD_EPSILON {
		dir1 := lateralVel.Normalize()
		pt.LateralFrictionDir1 = dir1
		pt.LateralFrictionDir2 = n.Cross(dir1)
	} else {
		pt.LateralFrictionDir1, pt.LateralFrictionDir2 = PlaneSpace(n)
	}
	pt.LateralFrictionInitialized = true
	return false
}

func (s *SequentialImpulseConstraintSolver) addFriction(bodyA, bodyB *SolverBody, pt *ManifoldPoint, dir, relPosA, relPosB Vector, normalIndex int, warmStart float64) {
	row := newSolverConstraint(bodyA, bodyB, dir, relPosA.Cross(dir), dir.Neg(), relPosB.Cross(dir).Neg())
	row.point = pt
	row.friction = pt.CombinedFriction
	row.frictionIndex = normalIndex
	row.appliedImpulse = warmStart
	if warmStart != 0 {
		row.applyImpulse(warmStart)
	}
	s.frictionRows = append(s.frictionRows, row)
}

// iterate runs one pass over joints, contacts and friction and returns the
// largest impulse change.
func (s *SequentialImpulseConstraintSolver) iterate(info *SolverInfo) float64 {
	if info.RandomizeOrder {
		s.rand.Shuffle(len(s.contactOrder), func(i, j int) {
			s.contactOrder[i], s.contactOrder[j] = s.contactOrder[j], s.contactOrder[i]
		})
		s.rand.Shuffle(len(s.frictionOrder), func(i, j int) {
			s.frictionOrder[i], s.frictionOrder[j] = s.frictionOrder[j], s.frictionOrder[i]
		})
	}

	var residual float64
	for i := range s.jointRows {
		residual = math.Max(residual, math.Abs(s.jointRows[i].solve()))
	}
	for _, i := range s.contactOrder {
		residual = math.Max(residual, math.Abs(s.contactRows[i].solve()))
	}
	for _, i := range s.frictionOrder {
		row := &s.frictionRows[i]
		limit := row.friction * s.contactRows[row.frictionIndex].appliedImpulse
		row.lowerLimit = -limit
		row.upperLimit = limit
		if row.jacDiagABInv == 0 {
			continue
		}
		residual = math.Max(residual, math.Abs(row.solve()))
	}
	return residual
}

// finish stores the accumulated impulses for the next warm start and writes
// the velocities back to the bodies.
func (s *SequentialImpulseConstraintSolver) finish() {
	for i := range s.contactRows {
		row := &s.contactRows[i]
		row.point.AppliedImpulse = row.appliedImpulse
	}
	for i := 0; i+1 < len(s.frictionRows); i += 2 {
		pt := s.frictionRows[i].point
		pt.AppliedImpulseLateral1 = s.frictionRows[i].appliedImpulse
		pt.AppliedImpulseLateral2 = s.frictionRows[i+1].appliedImpulse
	}
	for i := range s.jointRows {
		row := &s.jointRows[i]
		row.owner.appliedImpulse += math.Abs(row.appliedImpulse)
	}
	for i := range s.bodies {
		s.bodies[i].writeBack()
	}
}
