package bullet

import (
	"fmt"
	"math"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Seconds a body must stay below its sleeping thresholds before it may sleep.
const DEFAULT_DEACTIVATION_TIME = 2.0

// Squared AABB diagonal above which an object is considered exploded.
const DEFAULT_AABB_EXPLOSION_THRESHOLD = 1e12

type PostStepCallbackFunc func(world *World, key interface{})

type postStepCallback struct {
	callback PostStepCallbackFunc
	key      interface{}
}

// InternalTickCallback runs once per fixed sub-step.
type InternalTickCallback func(world *World, timeStep float64)

// World steps rigid bodies and joints through broadphase, narrow phase,
// islands and the solver.
type World struct {
	objects     []*CollisionObject
	bodies      []*RigidBody
	constraints []*Constraint

	broadphase Broadphase
	dispatcher *CollisionDispatcher
	islands    *SimulationIslandManager
	solver     *SequentialImpulseConstraintSolver
	// one solver per island when solving in parallel
	islandSolvers []*SequentialImpulseConstraintSolver

	gravity      Vector
	solverInfo   SolverInfo
	dispatchInfo DispatcherInfo

	localTime     float64
	fixedTimeStep float64
	stepCount     int

	DeactivationTime       float64
	AabbExplosionThreshold float64
	ParallelIslands        bool
	// sub-stepping used by Step
	FixedTimeStep float64
	MaxSubSteps   int

	logger          *zap.Logger
	explosionLogged bool

	locked            bool
	postStepCallbacks []postStepCallback
	preTick, postTick InternalTickCallback

	lastStats    SolverStats
	lastSolveErr error

	UserData interface{}
}

// NewDynamicsWorld assembles a world from its parts. A nil dispatcher or
// solver is replaced by a default one.
func NewDynamicsWorld(broadphase Broadphase, dispatcher *CollisionDispatcher, solver *SequentialImpulseConstraintSolver) *World {
	if dispatcher == nil {
		dispatcher = NewCollisionDispatcher(nil)
	}
	if solver == nil {
		solver = NewSequentialImpulseConstraintSolver()
	}
	return &World{
		broadphase:             broadphase,
		dispatcher:             dispatcher,
		islands:                NewSimulationIslandManager(),
		solver:                 solver,
		gravity:                Vector{0, -10, 0},
		solverInfo:             DefaultSolverInfo(),
		DeactivationTime:       DEFAULT_DEACTIVATION_TIME,
		AabbExplosionThreshold: DEFAULT_AABB_EXPLOSION_THRESHOLD,
		FixedTimeStep:          1.0 / 60.0,
		MaxSubSteps:            1,
		logger:                 zap.NewNop(),
	}
}

func (w *World) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w.logger = logger
	w.dispatcher.SetLogger(logger)
}

func (w *World) Logger() *zap.Logger {
	return w.logger
}

func (w *World) Broadphase() Broadphase {
	return w.broadphase
}

func (w *World) Dispatcher() *CollisionDispatcher {
	return w.dispatcher
}

func (w *World) IslandManager() *SimulationIslandManager {
	return w.islands
}

func (w *World) SolverInfo() *SolverInfo {
	return &w.solverInfo
}

func (w *World) Gravity() Vector {
	return w.gravity
}

// SetGravity changes the gravity of the world and of every body in it.
func (w *World) SetGravity(gravity Vector) {
	w.gravity = gravity
	for _, body := range w.bodies {
		if !body.IsStaticOrKinematicObject() {
			body.SetGravity(gravity)
		}
	}
}

// SetInternalTickCallback installs a callback run before or after every
// fixed sub-step.
func (w *World) SetInternalTickCallback(callback InternalTickCallback, preTick bool) {
	if preTick {
		w.preTick = callback
	} else {
		w.postTick = callback
	}
}

// AddPostStepCallback defers callback until the current step is over, or
// runs it at once when the world is not stepping. Only one callback per key
// is kept; the result reports whether this one was.
func (w *World) AddPostStepCallback(callback PostStepCallbackFunc, key interface{}) bool {
	if !w.locked {
		callback(w, key)
		return true
	}
	if key != nil {
		for _, cb := range w.postStepCallbacks {
			if cb.key == key {
				return false
			}
		}
	}
	w.postStepCallbacks = append(w.postStepCallbacks, postStepCallback{callback, key})
	return true
}

func (w *World) runPostStepCallbacks() {
	// callbacks may add more callbacks
	for i := 0; i < len(w.postStepCallbacks); i++ {
		cb := w.postStepCallbacks[i]
		cb.callback(w, cb.key)
	}
	w.postStepCallbacks = w.postStepCallbacks[:0]
}

// AddCollisionObject adds an object without dynamics.
func (w *World) AddCollisionObject(obj *CollisionObject, group, mask int) error {
	if w.locked {
		return ErrWorldLocked
	}
	if obj.world != nil {
		return fmt.Errorf("add collision object: %w", ErrBodyInWorld)
	}
	if !obj.worldTransform.IsFinite() {
		return fmt.Errorf("add collision object: %w", ErrNaNTransform)
	}
	obj.proxy = w.broadphase.CreateProxy(obj.Aabb(), obj, group, mask)
	obj.world = w
	w.objects = append(w.objects, obj)
	return nil
}

// AddRigidBody adds body with the default filter: static and kinematic
// bodies do not collide with each other.
func (w *World) AddRigidBody(body *RigidBody) error {
	if body.IsStaticOrKinematicObject() {
		return w.AddRigidBodyFiltered(body, FILTER_STATIC, FILTER_ALL^FILTER_STATIC)
	}
	return w.AddRigidBodyFiltered(body, FILTER_DEFAULT, FILTER_ALL)
}

func (w *World) AddRigidBodyFiltered(body *RigidBody, group, mask int) error {
	if w.locked {
		return ErrWorldLocked
	}
	if body.world != nil {
		return fmt.Errorf("add rigid body: %w", ErrBodyInWorld)
	}
	if !body.IsStaticOrKinematicObject() {
		body.SetGravity(w.gravity)
	}
	if body.IsStaticObject() {
		body.SetActivationState(ISLAND_SLEEPING)
	}
	if err := w.AddCollisionObject(&body.CollisionObject, group, mask); err != nil {
		return err
	}
	w.bodies = append(w.bodies, body)
	return nil
}

// RemoveCollisionObject removes obj, its pairs and manifolds, and every
// constraint attached to it.
func (w *World) RemoveCollisionObject(obj *CollisionObject) error {
	if w.locked {
		return ErrWorldLocked
	}
	if obj.world != w {
		return fmt.Errorf("remove collision object: %w", ErrBodyNotInWorld)
	}
	if body := obj.rigidBody; body != nil {
		for len(body.constraints) > 0 {
			if err := w.RemoveConstraint(body.constraints[0]); err != nil {
				return err
			}
		}
		for i, b := range w.bodies {
			if b == body {
				w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
				break
			}
		}
	}
	if obj.proxy != nil {
		w.broadphase.DestroyProxy(obj.proxy)
		obj.proxy = nil
	}
	for i, o := range w.objects {
		if o == obj {
			w.objects = append(w.objects[:i], w.objects[i+1:]...)
			break
		}
	}
	obj.world = nil
	obj.islandTag = -1
	return nil
}

func (w *World) RemoveRigidBody(body *RigidBody) error {
	return w.RemoveCollisionObject(&body.CollisionObject)
}

// AddConstraint adds c between two bodies of this world. With
// disableLinkedCollision the bodies stop colliding with each other.
func (w *World) AddConstraint(c *Constraint, disableLinkedCollision bool) error {
	if w.locked {
		return ErrWorldLocked
	}
	if c.world != nil {
		return fmt.Errorf("add constraint: %w", ErrConstraintInWorld)
	}
	if c.a.world != w || c.b.world != w {
		return fmt.Errorf("add constraint: %w", ErrConstraintBodies)
	}
	if disableLinkedCollision {
		c.collideBodies = false
		c.a.SetIgnoreCollisionCheck(&c.b.CollisionObject, true)
		c.b.SetIgnoreCollisionCheck(&c.a.CollisionObject, true)
	}
	c.world = w
	c.a.addConstraintRef(c)
	c.b.addConstraintRef(c)
	w.constraints = append(w.constraints, c)
	c.ActivateBodies()
	return nil
}

func (w *World) RemoveConstraint(c *Constraint) error {
	if w.locked {
		return ErrWorldLocked
	}
	if c.world != w {
		return fmt.Errorf("remove constraint: %w", ErrBodyNotInWorld)
	}
	for i, other := range w.constraints {
		if other == c {
			w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
			break
		}
	}
	if !c.collideBodies {
		c.a.SetIgnoreCollisionCheck(&c.b.CollisionObject, false)
		c.b.SetIgnoreCollisionCheck(&c.a.CollisionObject, false)
		c.collideBodies = true
	}
	c.a.removeConstraintRef(c)
	c.b.removeConstraintRef(c)
	c.ActivateBodies()
	c.world = nil
	return nil
}

func (w *World) CollisionObjects() []*CollisionObject {
	return w.objects
}

func (w *World) Bodies() []*RigidBody {
	return w.bodies
}

func (w *World) Constraints() []*Constraint {
	return w.constraints
}

func (w *World) NumManifolds() int {
	return w.dispatcher.NumManifolds()
}

func (w *World) Manifolds() []*PersistentManifold {
	return w.dispatcher.Manifolds()
}

// ContactTest calls f for every manifold of obj holding contacts.
func (w *World) ContactTest(obj *CollisionObject, f func(m *PersistentManifold)) {
	for _, m := range w.dispatcher.Manifolds() {
		if m.cachedPoints > 0 && (m.body0 == obj || m.body1 == obj) {
			f(m)
		}
	}
}

// LastSolverStats returns the merged stats of the last sub-step.
func (w *World) LastSolverStats() SolverStats {
	return w.lastStats
}

// LastSolveError is the error of the last constraint solve, nil when every
// island stayed finite.
func (w *World) LastSolveError() error {
	return w.lastSolveErr
}

// DispatchInfo returns the narrow phase counters of the last sub-step.
func (w *World) DispatchInfo() DispatcherInfo {
	return w.dispatchInfo
}

func (w *World) StepCount() int {
	return w.stepCount
}

// Step advances the world by timeStep with the world's FixedTimeStep and
// MaxSubSteps.
func (w *World) Step(timeStep float64) int {
	return w.StepSimulation(timeStep, w.MaxSubSteps, w.FixedTimeStep)
}

// StepSimulation advances the world by timeStep seconds in fixed sub-steps
// of fixedTimeStep, at most maxSubSteps of them. The remainder is carried to
// the next call and used to interpolate motion states. A maxSubSteps of zero
// takes a single step of timeStep. It returns the number of sub-steps the
// elapsed time called for, before clamping.
func (w *World) StepSimulation(timeStep float64, maxSubSteps int, fixedTimeStep float64) int {
	if w.locked {
		w.logger.Error("StepSimulation called while stepping")
		return 0
	}
	if math.IsNaN(timeStep) || timeStep < 0 {
		w.logger.Error("invalid time step", zap.Float64("timeStep", timeStep))
		return 0
	}

	numSubSteps := 0
	if maxSubSteps > 0 {
		if !(fixedTimeStep > 0) {
			w.logger.Error("invalid fixed time step", zap.Float64("fixedTimeStep", fixedTimeStep))
			return 0
		}
		w.localTime += timeStep
		if w.localTime >= fixedTimeStep {
			numSubSteps = int(w.localTime / fixedTimeStep)
			w.localTime -= float64(numSubSteps) * fixedTimeStep
		}
	} else {
		fixedTimeStep = timeStep
		w.localTime = timeStep
		if timeStep >= SIMD_EPSILON {
			numSubSteps = 1
			maxSubSteps = 1
		}
	}
	w.fixedTimeStep = fixedTimeStep

	if numSubSteps > 0 {
		clamped := numSubSteps
		if clamped > maxSubSteps {
			clamped = maxSubSteps
			w.logger.Debug("sub-steps clamped",
				zap.Int("wanted", numSubSteps),
				zap.Int("maxSubSteps", maxSubSteps))
		}

		w.saveKinematicState(fixedTimeStep * float64(clamped))
		w.applyGravity()
		for i := 0; i < clamped; i++ {
			w.internalSingleStepSimulation(fixedTimeStep)
		}
	}
	w.synchronizeMotionStates()
	w.clearForces()
	return numSubSteps
}

func (w *World) internalSingleStepSimulation(timeStep float64) {
	w.locked = true
	w.stepCount++

	if w.preTick != nil {
		w.preTick(w, timeStep)
	}

	w.predictUnconstraintMotion(timeStep)

	w.dispatchInfo = DispatcherInfo{TimeStep: timeStep, StepCount: w.stepCount}
	w.performDiscreteCollisionDetection()

	w.islands.UpdateActivationState(w.objects, w.broadphase.OverlappingPairCache(), w.constraints)
	w.islands.StoreIslandActivationState(w.objects)

	w.solverInfo.TimeStep = timeStep
	w.solveConstraints()

	w.integrateTransforms(timeStep)
	w.updateActivationState(timeStep)

	if w.postTick != nil {
		w.postTick(w, timeStep)
	}

	w.locked = false
	w.runPostStepCallbacks()
}

func (w *World) predictUnconstraintMotion(timeStep float64) {
	for _, body := range w.bodies {
		if body.IsStaticOrKinematicObject() || !body.IsActive() {
			continue
		}
		body.IntegrateVelocities(timeStep)
		body.ApplyDamping(timeStep)
		body.interpolationWorldTransform = body.PredictIntegratedTransform(timeStep)
	}
}

func (w *World) performDiscreteCollisionDetection() {
	w.updateAabbs()
	w.broadphase.CalculateOverlappingPairs()
	w.dispatcher.DispatchAllCollisionPairs(w.broadphase.OverlappingPairCache(), &w.dispatchInfo)
	if w.dispatchInfo.NarrowphaseFailures > 0 {
		w.logger.Debug("narrow phase failures",
			zap.Int("step", w.stepCount),
			zap.Int("failures", w.dispatchInfo.NarrowphaseFailures))
	}
}

func (w *World) updateAabbs() {
	threshold := w.dispatcher.ContactBreakingThreshold()
	for _, obj := range w.objects {
		if !obj.IsActive() {
			continue
		}
		aabb := obj.Aabb()
		if !obj.IsStaticObject() {
			// cover the predicted motion too
			predicted := obj.shape.Aabb(obj.interpolationWorldTransform)
			aabb = aabb.Merge(predicted).Grow(threshold)
		}
		w.updateSingleAabb(obj, aabb)
	}
}

// updateSingleAabb moves the proxy of obj. A dynamic object whose box has
// exploded leaves the simulation instead of corrupting the broadphase.
func (w *World) updateSingleAabb(obj *CollisionObject, aabb BB) {
	size := aabb.Max.Sub(aabb.Min)
	if obj.IsStaticOrKinematicObject() || size.LengthSq() < w.AabbExplosionThreshold {
		w.broadphase.SetAabb(obj.proxy, aabb)
		return
	}
	obj.SetActivationState(DISABLE_SIMULATION)
	if !w.explosionLogged {
		w.explosionLogged = true
		w.logger.Warn("overflow in AABB, object removed from simulation",
			zap.Stringer("min", aabb.Min),
			zap.Stringer("max", aabb.Max))
	}
}

// UpdateAabbs refreshes the broadphase bounds of every active object, for
// use after moving objects between steps.
func (w *World) UpdateAabbs() {
	w.updateAabbs()
}

// checkIslandSolve reports an island whose impulses stopped being finite.
func checkIslandSolve(island *Island, stats SolverStats) error {
	if math.IsNaN(stats.Residual) || math.IsInf(stats.Residual, 0) {
		return fmt.Errorf("%w: island %d residual %v", ErrSolverDiverged, island.ID, stats.Residual)
	}
	return nil
}

func (w *World) solveConstraints() {
	var stats SolverStats
	var err error
	info := w.solverInfo

	if w.ParallelIslands {
		islands := w.islands.Islands(w.dispatcher, w.objects, w.constraints)
		for len(w.islandSolvers) < len(islands) {
			w.islandSolvers = append(w.islandSolvers, NewSequentialImpulseConstraintSolver())
		}
		results := make([]SolverStats, len(islands))

		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, island := range islands {
			i, island := i, island
			g.Go(func() error {
				results[i] = w.islandSolvers[i].SolveIsland(island, &info)
				return checkIslandSolve(island, results[i])
			})
		}
		err = g.Wait()

		for _, r := range results {
			stats.merge(r)
		}
	} else {
		w.islands.BuildAndProcessIslands(w.dispatcher, w.objects, w.constraints, func(island *Island) {
			r := w.solver.SolveIsland(island, &info)
			stats.merge(r)
			err = multierr.Append(err, checkIslandSolve(island, r))
		})
	}
	w.lastStats = stats
	w.lastSolveErr = err
	if err != nil {
		w.logger.Error("island solve failed", zap.Int("step", w.stepCount), zap.Error(err))
	}
}

func (w *World) integrateTransforms(timeStep float64) {
	for _, body := range w.bodies {
		if body.IsStaticOrKinematicObject() || !body.IsActive() {
			continue
		}
		predicted := body.PredictIntegratedTransform(timeStep)
		body.ProceedToTransform(predicted)
	}
}

func (w *World) updateActivationState(timeStep float64) {
	for _, body := range w.bodies {
		if body.IsStaticObject() {
			continue
		}
		body.UpdateDeactivation(timeStep)

		if body.WantsSleeping(w.DeactivationTime) {
			if body.IsStaticOrKinematicObject() {
				body.SetActivationState(ISLAND_SLEEPING)
				continue
			}
			if body.activationState == ACTIVE_TAG {
				body.SetActivationState(WANTS_DEACTIVATION)
			}
			if body.activationState == ISLAND_SLEEPING {
				body.angularVelocity = Vector{}
				body.linearVelocity = Vector{}
			}
		} else if body.activationState != DISABLE_DEACTIVATION {
			body.SetActivationState(ACTIVE_TAG)
		}
	}
}

func (w *World) saveKinematicState(timeStep float64) {
	for _, body := range w.bodies {
		if body.activationState != ISLAND_SLEEPING && body.IsKinematicObject() {
			body.SaveKinematicState(timeStep)
		}
	}
}

func (w *World) applyGravity() {
	for _, body := range w.bodies {
		if body.IsActive() {
			body.ApplyGravity()
		}
	}
}

func (w *World) clearForces() {
	for _, body := range w.bodies {
		body.ClearForces()
	}
}

// synchronizeMotionStates hands every awake body pose to its motion state,
// interpolated to the time the caller asked for.
func (w *World) synchronizeMotionStates() {
	for _, body := range w.bodies {
		if body.IsActive() {
			w.synchronizeSingleMotionState(body)
		}
	}
}

func (w *World) synchronizeSingleMotionState(body *RigidBody) {
	if body.motionState == nil || body.IsStaticOrKinematicObject() {
		return
	}
	// lag one fixed step behind so the pose is interpolated, not extrapolated
	dt := w.localTime - w.fixedTimeStep
	interpolated := IntegrateTransform(body.interpolationWorldTransform, body.interpolationLinearVelocity, body.interpolationAngularVelocity, dt)
	body.motionState.SetWorldTransform(interpolated)
}
