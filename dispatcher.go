package bullet

import "go.uber.org/zap"

// DispatcherInfo carries the step parameters into the narrow phase and the
// narrow phase counters back out.
type DispatcherInfo struct {
	TimeStep  float64
	StepCount int

	GjkQueries          int
	NarrowphaseFailures int
}

// CollisionDispatcher owns the contact manifolds and picks a collision
// algorithm for every pair of shape types.
type CollisionDispatcher struct {
	manifolds   []*PersistentManifold
	createFuncs [NUM_SHAPE_TYPES][NUM_SHAPE_TYPES]CollisionAlgorithmCreateFunc

	contactBreakingThreshold float64
	perturbationIterations   int
	perturbationThreshold    int
	frictionCombine          CombineMode
	restitutionCombine       CombineMode

	logger              *zap.Logger
	staticPairLogged    bool
	staticPairsRejected int
}

func NewCollisionDispatcher(logger *zap.Logger) *CollisionDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &CollisionDispatcher{
		contactBreakingThreshold: CONTACT_BREAKING_THRESHOLD,
		perturbationIterations:   3,
		perturbationThreshold:    3,
		logger:                   logger,
	}
	for i := ShapeType(0); i < NUM_SHAPE_TYPES; i++ {
		for j := ShapeType(0); j < NUM_SHAPE_TYPES; j++ {
			d.createFuncs[i][j] = defaultCreateFunc(i, j)
		}
	}
	return d
}

// defaultCreateFunc resolves a type pair. Compound shapes take precedence
// over concave ones, which take precedence over planes.
func defaultCreateFunc(t0, t1 ShapeType) CollisionAlgorithmCreateFunc {
	switch {
	case t0.IsCompound():
		return newCompoundCreateFunc(false)
	case t1.IsCompound():
		return newCompoundCreateFunc(true)
	case t0.IsConvex() && t1.IsConcave():
		return newConvexConcaveCreateFunc(false)
	case t0.IsConcave() && t1.IsConvex():
		return newConvexConcaveCreateFunc(true)
	case t0.IsConvex() && t1.IsPlane():
		return newConvexPlaneCreateFunc(false)
	case t0.IsPlane() && t1.IsConvex():
		return newConvexPlaneCreateFunc(true)
	case t0 == SHAPE_SPHERE && t1 == SHAPE_SPHERE:
		return newSphereSphereAlgorithm
	case t0 == SHAPE_BOX && t1 == SHAPE_BOX:
		return newBoxBoxAlgorithm
	case t0.IsConvex() && t1.IsConvex():
		return newConvexConvexAlgorithm
	}
	return newEmptyAlgorithm
}

func (d *CollisionDispatcher) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d.logger = logger
}

// RegisterCollisionCreateFunc overrides the algorithm of one type pair.
func (d *CollisionDispatcher) RegisterCollisionCreateFunc(t0, t1 ShapeType, f CollisionAlgorithmCreateFunc) {
	d.createFuncs[t0][t1] = f
}

func (d *CollisionDispatcher) SetContactBreakingThreshold(threshold float64) {
	d.contactBreakingThreshold = threshold
}

func (d *CollisionDispatcher) ContactBreakingThreshold() float64 {
	return d.contactBreakingThreshold
}

// SetCombineModes sets how new manifolds mix friction and restitution.
func (d *CollisionDispatcher) SetCombineModes(friction, restitution CombineMode) {
	d.frictionCombine = friction
	d.restitutionCombine = restitution
}

// SetConvexConvexMultipointIterations sets how many perturbed queries add
// points to manifolds holding fewer than threshold contacts. Zero disables
// them.
func (d *CollisionDispatcher) SetConvexConvexMultipointIterations(iterations, threshold int) {
	d.perturbationIterations = iterations
	d.perturbationThreshold = threshold
}

func (d *CollisionDispatcher) FindAlgorithm(body0, body1 *CollisionObjectWrapper, manifold *PersistentManifold) CollisionAlgorithm {
	return d.createFuncs[body0.Shape.Type()][body1.Shape.Type()](d, body0, body1, manifold)
}

func (d *CollisionDispatcher) GetNewManifold(body0, body1 *CollisionObject) *PersistentManifold {
	m := NewPersistentManifold(body0, body1, d.contactBreakingThreshold)
	m.FrictionCombine = d.frictionCombine
	m.RestitutionCombine = d.restitutionCombine
	m.index = len(d.manifolds)
	d.manifolds = append(d.manifolds, m)
	return m
}

func (d *CollisionDispatcher) ReleaseManifold(m *PersistentManifold) {
	m.ClearManifold()
	i := m.index
	if i < 0 || i >= len(d.manifolds) || d.manifolds[i] != m {
		return
	}
	last := len(d.manifolds) - 1
	d.manifolds[i] = d.manifolds[last]
	d.manifolds[i].index = i
	d.manifolds[last] = nil
	d.manifolds = d.manifolds[:last]
	m.index = -1
}

func (d *CollisionDispatcher) NumManifolds() int {
	return len(d.manifolds)
}

func (d *CollisionDispatcher) ManifoldByIndex(i int) *PersistentManifold {
	return d.manifolds[i]
}

// Manifolds returns the live manifolds. The slice is owned by the dispatcher.
func (d *CollisionDispatcher) Manifolds() []*PersistentManifold {
	return d.manifolds
}

// NeedsCollision reports whether the narrow phase should run for a pair.
// Pairs of two static or kinematic objects are rejected with a single
// warning.
func (d *CollisionDispatcher) NeedsCollision(body0, body1 *CollisionObject) bool {
	if body0.IsStaticOrKinematicObject() && body1.IsStaticOrKinematicObject() {
		d.staticPairsRejected++
		if !d.staticPairLogged {
			d.staticPairLogged = true
			d.logger.Warn("static-static collision pair reached the narrow phase",
				zap.Int("flags0", body0.collisionFlags),
				zap.Int("flags1", body1.collisionFlags))
		}
		return false
	}
	if !body0.IsActive() && !body1.IsActive() {
		return false
	}
	if !body0.CheckCollideWith(body1) || !body1.CheckCollideWith(body0) {
		return false
	}
	return true
}

// NeedsResponse reports whether contacts between the two objects are solved.
func (d *CollisionDispatcher) NeedsResponse(body0, body1 *CollisionObject) bool {
	return body0.HasContactResponse() && body1.HasContactResponse() &&
		!(body0.IsStaticOrKinematicObject() && body1.IsStaticOrKinematicObject())
}

// StaticPairsRejected counts the static-static pairs seen by NeedsCollision.
func (d *CollisionDispatcher) StaticPairsRejected() int {
	return d.staticPairsRejected
}

// DispatchAllCollisionPairs runs the narrow phase on every pair of the cache,
// creating algorithms on first use.
func (d *CollisionDispatcher) DispatchAllCollisionPairs(cache *HashedOverlappingPairCache, info *DispatcherInfo) {
	for _, pair := range cache.Pairs() {
		obj0 := pair.Proxy0.ClientObject
		obj1 := pair.Proxy1.ClientObject
		if !d.NeedsCollision(obj0, obj1) {
			continue
		}

		w0 := newWrapper(obj0)
		w1 := newWrapper(obj1)
		if pair.Algorithm == nil {
			pair.Algorithm = d.FindAlgorithm(w0, w1, nil)
		}
		var result ManifoldResult
		pair.Algorithm.ProcessCollision(w0, w1, info, &result)
	}
}
