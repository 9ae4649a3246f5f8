package bullet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func wrap(shape CollisionShape, origin Vector) *CollisionObjectWrapper {
	return newWrapper(NewCollisionObject(shape, NewTransformTranslate(origin)))
}

func TestCollisionDispatcher_FindAlgorithm(t *testing.T) {
	d := NewCollisionDispatcher(nil)

	box := wrap(NewBoxShape(Vector{1, 1, 1}), Vector{})
	sphere := wrap(NewSphereShape(1), Vector{})
	capsule := wrap(NewCapsuleShape(0.5, 1), Vector{})
	plane := wrap(NewStaticPlaneShape(Vector{0, 1, 0}, 0), Vector{})
	mesh := wrap(NewTriangleMeshShape([]Vector{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}}, [][3]int{{0, 1, 2}}), Vector{})
	compound := NewCompoundShape()
	compound.AddChildShape(NewTransformIdentity(), NewSphereShape(1))
	comp := wrap(compound, Vector{})

	assert.IsType(t, &boxBoxAlgorithm{}, d.FindAlgorithm(box, box, nil))
	assert.IsType(t, &sphereSphereAlgorithm{}, d.FindAlgorithm(sphere, sphere, nil))
	assert.IsType(t, &convexConvexAlgorithm{}, d.FindAlgorithm(box, capsule, nil))
	assert.IsType(t, &convexConvexAlgorithm{}, d.FindAlgorithm(sphere, box, nil))

	alg := d.FindAlgorithm(plane, capsule, nil)
	require.IsType(t, &convexPlaneAlgorithm{}, alg)
	assert.True(t, alg.(*convexPlaneAlgorithm).swapped)

	alg = d.FindAlgorithm(box, mesh, nil)
	require.IsType(t, &convexConcaveAlgorithm{}, alg)
	assert.False(t, alg.(*convexConcaveAlgorithm).swapped)

	// compound wins over concave, concave over plane
	alg = d.FindAlgorithm(mesh, comp, nil)
	require.IsType(t, &compoundAlgorithm{}, alg)
	assert.True(t, alg.(*compoundAlgorithm).swapped)
	assert.IsType(t, emptyAlgorithm{}, d.FindAlgorithm(plane, mesh, nil))
	assert.IsType(t, emptyAlgorithm{}, d.FindAlgorithm(plane, plane, nil))
}

func TestCollisionDispatcher_StaticPairWarnsOnce(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewCollisionDispatcher(zap.New(core))

	a := NewCollisionObject(NewBoxShape(Vector{1, 1, 1}), NewTransformIdentity())
	a.SetCollisionFlags(CF_STATIC_OBJECT)
	b := NewCollisionObject(NewBoxShape(Vector{1, 1, 1}), NewTransformIdentity())
	b.SetCollisionFlags(CF_KINEMATIC_OBJECT)

	for i := 0; i < 3; i++ {
		assert.False(t, d.NeedsCollision(a, b))
	}
	assert.Equal(t, 3, d.StaticPairsRejected())
	assert.Equal(t, 1, logs.Len())

	c := NewCollisionObject(NewBoxShape(Vector{1, 1, 1}), NewTransformIdentity())
	assert.True(t, d.NeedsCollision(a, c))
	assert.True(t, d.NeedsResponse(a, c))
	assert.False(t, d.NeedsResponse(a, b))
}

func TestCollisionDispatcher_NeedsCollision(t *testing.T) {
	d := NewCollisionDispatcher(nil)
	a := NewCollisionObject(NewSphereShape(1), NewTransformIdentity())
	b := NewCollisionObject(NewSphereShape(1), NewTransformIdentity())
	assert.True(t, d.NeedsCollision(a, b))

	a.ForceActivationState(ISLAND_SLEEPING)
	b.ForceActivationState(ISLAND_SLEEPING)
	assert.False(t, d.NeedsCollision(a, b))

	b.ForceActivationState(ACTIVE_TAG)
	a.SetIgnoreCollisionCheck(b, true)
	assert.False(t, d.NeedsCollision(a, b))
	a.SetIgnoreCollisionCheck(b, false)
	assert.True(t, d.NeedsCollision(a, b))
}

func TestCollisionDispatcher_SphereContact(t *testing.T) {
	d := NewCollisionDispatcher(nil)
	a := wrap(NewSphereShape(1), Vector{0, 1.9, 0})
	b := wrap(NewSphereShape(1), Vector{})

	alg := d.FindAlgorithm(a, b, nil)
	var result ManifoldResult
	alg.ProcessCollision(a, b, &DispatcherInfo{TimeStep: 1.0 / 60}, &result)

	require.Equal(t, 1, d.NumManifolds())
	m := d.ManifoldByIndex(0)
	require.Equal(t, 1, m.NumContacts())
	pt := m.Point(0)
	assert.InDelta(t, -0.1, pt.Distance, 1e-9)
	assert.True(t, pt.NormalWorldOnB.Near(Vector{0, 1, 0}, 1e-9))
	assert.True(t, pt.PositionWorldOnB.Near(Vector{0, 1, 0}, 1e-9))

	alg.Release()
	assert.Equal(t, 0, d.NumManifolds())
}

func TestCollisionDispatcher_BoxBoxContacts(t *testing.T) {
	d := NewCollisionDispatcher(nil)
	top := wrap(NewBoxShape(Vector{0.5, 0.5, 0.5}), Vector{0, 0.99, 0})
	ground := wrap(NewBoxShape(Vector{5, 0.5, 5}), Vector{})

	alg := d.FindAlgorithm(top, ground, nil)
	var result ManifoldResult
	alg.ProcessCollision(top, ground, &DispatcherInfo{TimeStep: 1.0 / 60}, &result)

	require.Equal(t, 1, d.NumManifolds())
	m := d.ManifoldByIndex(0)
	assert.Equal(t, 4, m.NumContacts())
	for i := 0; i < m.NumContacts(); i++ {
		pt := m.Point(i)
		assert.InDelta(t, -0.01, pt.Distance, 1e-6)
		assert.True(t, pt.NormalWorldOnB.Near(Vector{0, 1, 0}, 1e-6), "%v", pt.NormalWorldOnB)
	}
}

func TestCollisionDispatcher_ConvexPlane(t *testing.T) {
	d := NewCollisionDispatcher(nil)
	box := wrap(NewBoxShape(Vector{0.5, 0.5, 0.5}), Vector{0, 0.49, 0})
	plane := wrap(NewStaticPlaneShape(Vector{0, 1, 0}, 0), Vector{})

	alg := d.FindAlgorithm(box, plane, nil)
	var result ManifoldResult
	alg.ProcessCollision(box, plane, &DispatcherInfo{TimeStep: 1.0 / 60}, &result)

	require.Equal(t, 1, d.NumManifolds())
	m := d.ManifoldByIndex(0)
	require.Greater(t, m.NumContacts(), 0)
	assert.LessOrEqual(t, m.NumContacts(), MANIFOLD_CACHE_SIZE)
	// perturbed queries tilt the box slightly
	for i := 0; i < m.NumContacts(); i++ {
		assert.InDelta(t, -0.01, m.Point(i).Distance, 0.02)
	}
}
