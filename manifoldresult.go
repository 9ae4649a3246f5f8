package bullet

import "math"

// Friction products are clamped to this.
const MAX_FRICTION = 10.0

// CollisionObjectWrapper is the view of an object an algorithm works on. For
// compound children and mesh triangles Shape and Transform are the part's.
type CollisionObjectWrapper struct {
	Object    *CollisionObject
	Shape     CollisionShape
	Transform Transform
	// child or triangle index, -1 for the whole object
	Index int
}

func newWrapper(obj *CollisionObject) *CollisionObjectWrapper {
	return &CollisionObjectWrapper{
		Object:    obj,
		Shape:     obj.shape,
		Transform: obj.worldTransform,
		Index:     -1,
	}
}

// ManifoldResult adds the contacts of a narrow phase query to a manifold. The
// query's first shape must belong to the manifold's first body.
type ManifoldResult struct {
	manifold *PersistentManifold
}

func (r *ManifoldResult) SetPersistentManifold(m *PersistentManifold) {
	r.manifold = m
}

func (r *ManifoldResult) PersistentManifold() *PersistentManifold {
	return r.manifold
}

// CombineMode mixes the material coefficients of two touching objects.
type CombineMode string

// Combine modes. The empty mode multiplies.
const (
	COMBINE_MULTIPLY CombineMode = "multiply"
	COMBINE_AVERAGE  CombineMode = "average"
	COMBINE_MIN      CombineMode = "min"
	COMBINE_MAX      CombineMode = "max"
)

func (mode CombineMode) Valid() bool {
	switch mode {
	case "", COMBINE_MULTIPLY, COMBINE_AVERAGE, COMBINE_MIN, COMBINE_MAX:
		return true
	}
	return false
}

func (mode CombineMode) Combine(a, b float64) float64 {
	switch mode {
	case COMBINE_AVERAGE:
		return 0.5 * (a + b)
	case COMBINE_MIN:
		return math.Min(a, b)
	case COMBINE_MAX:
		return math.Max(a, b)
	}
	return a * b
}

func CombinedFriction(mode CombineMode, body0, body1 *CollisionObject) float64 {
	return Clamp(mode.Combine(body0.friction, body1.friction), -MAX_FRICTION, MAX_FRICTION)
}

func CombinedRestitution(mode CombineMode, body0, body1 *CollisionObject) float64 {
	return mode.Combine(body0.restitution, body1.restitution)
}

func (r *ManifoldResult) AddContactPoint(normalOnBInWorld, pointInWorld Vector, depth float64) {
	m := r.manifold
	if depth > m.ContactBreakingThreshold() {
		return
	}

	pointA := pointInWorld.Add(normalOnBInWorld.Mult(depth))
	pt := NewManifoldPoint(
		m.body0.worldTransform.InvPoint(pointA),
		m.body1.worldTransform.InvPoint(pointInWorld),
		normalOnBInWorld,
		depth,
	)
	pt.PositionWorldOnA = pointA
	pt.PositionWorldOnB = pointInWorld
	pt.CombinedFriction = CombinedFriction(m.FrictionCombine, m.body0, m.body1)
	pt.CombinedRestitution = CombinedRestitution(m.RestitutionCombine, m.body0, m.body1)

	if i := m.GetCacheEntry(&pt); i >= 0 {
		m.ReplaceContactPoint(pt, i)
	} else {
		m.AddManifoldPoint(pt)
	}
}

// RefreshContactPoints updates the manifold against the current transforms
// of its bodies.
func (r *ManifoldResult) RefreshContactPoints() {
	m := r.manifold
	if m == nil || m.NumContacts() == 0 {
		return
	}
	m.RefreshContactPoints(m.body0.worldTransform, m.body1.worldTransform)
}
