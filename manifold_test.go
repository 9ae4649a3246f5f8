package bullet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manifoldPoint(a Vector, distance float64) ManifoldPoint {
	b := a.Sub(Vector{0, distance, 0})
	return NewManifoldPoint(a, b, Vector{0, 1, 0}, distance)
}

func TestPersistentManifold_AddKeepsFourPoints(t *testing.T) {
	m := NewPersistentManifold(nil, nil, CONTACT_BREAKING_THRESHOLD)
	for i := 0; i < 10; i++ {
		m.AddManifoldPoint(manifoldPoint(Vector{float64(i), 0, float64(i % 3)}, -0.01))
		assert.LessOrEqual(t, m.NumContacts(), MANIFOLD_CACHE_SIZE)
	}
	assert.Equal(t, MANIFOLD_CACHE_SIZE, m.NumContacts())
}

func TestPersistentManifold_ReplacementMaximizesArea(t *testing.T) {
	m := NewPersistentManifold(nil, nil, CONTACT_BREAKING_THRESHOLD)
	m.AddManifoldPoint(manifoldPoint(Vector{-1, 0, -1}, -0.1))
	m.AddManifoldPoint(manifoldPoint(Vector{1, 0, -1}, -0.01))
	m.AddManifoldPoint(manifoldPoint(Vector{1, 0, 1}, -0.01))
	m.AddManifoldPoint(manifoldPoint(Vector{-1, 0, 1}, -0.01))

	// the point near corner 2 replaces it, any other choice shrinks the quad
	index := m.AddManifoldPoint(manifoldPoint(Vector{0.9, 0, 0.9}, -0.01))
	assert.Equal(t, 2, index)
	assert.Equal(t, Vector{-1, 0, -1}, m.Point(0).LocalPointA)
	assert.Equal(t, Vector{0.9, 0, 0.9}, m.Point(2).LocalPointA)
}

func TestPersistentManifold_DeepestPointIsKept(t *testing.T) {
	m := NewPersistentManifold(nil, nil, CONTACT_BREAKING_THRESHOLD)
	m.AddManifoldPoint(manifoldPoint(Vector{1, 0, -1}, -0.01))
	m.AddManifoldPoint(manifoldPoint(Vector{1, 0, 1}, -0.01))
	m.AddManifoldPoint(manifoldPoint(Vector{-1, 0, 1}, -0.01))
	m.AddManifoldPoint(manifoldPoint(Vector{-1, 0, -1}, -0.2))

	for i := 0; i < 20; i++ {
		m.AddManifoldPoint(manifoldPoint(Vector{float64(i%5) - 2, 0, float64(i%7) - 3}, -0.01))
	}
	found := false
	for i := 0; i < m.NumContacts(); i++ {
		if m.Point(i).Distance == -0.2 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPersistentManifold_GetCacheEntry(t *testing.T) {
	m := NewPersistentManifold(nil, nil, CONTACT_BREAKING_THRESHOLD)
	m.AddManifoldPoint(manifoldPoint(Vector{0, 0, 0}, -0.01))
	m.AddManifoldPoint(manifoldPoint(Vector{1, 0, 0}, -0.01))

	near := manifoldPoint(Vector{1.01, 0, 0}, -0.02)
	assert.Equal(t, 1, m.GetCacheEntry(&near))
	far := manifoldPoint(Vector{0.5, 0, 0}, -0.02)
	assert.Equal(t, -1, m.GetCacheEntry(&far))
}

func TestPersistentManifold_ReplaceKeepsWarmStart(t *testing.T) {
	m := NewPersistentManifold(nil, nil, CONTACT_BREAKING_THRESHOLD)
	m.AddManifoldPoint(manifoldPoint(Vector{0, 0, 0}, -0.01))
	m.Point(0).AppliedImpulse = 3
	m.Point(0).LifeTime = 7

	m.ReplaceContactPoint(manifoldPoint(Vector{0.001, 0, 0}, -0.015), 0)
	assert.Equal(t, 3.0, m.Point(0).AppliedImpulse)
	assert.Equal(t, 7, m.Point(0).LifeTime)
	assert.Equal(t, -0.015, m.Point(0).Distance)
}

func TestPersistentManifold_RefreshContactPoints(t *testing.T) {
	m := NewPersistentManifold(nil, nil, CONTACT_BREAKING_THRESHOLD)
	m.AddManifoldPoint(NewManifoldPoint(Vector{0, 0.05, 0}, Vector{0, 0, 0}, Vector{0, 1, 0}, 0.05))
	m.AddManifoldPoint(NewManifoldPoint(Vector{1, -0.01, 0}, Vector{1, 0, 0}, Vector{0, 1, 0}, -0.01))
	m.AddManifoldPoint(NewManifoldPoint(Vector{2, 0, 0}, Vector{2.5, 0, 0}, Vector{0, 1, 0}, 0))

	m.RefreshContactPoints(NewTransformIdentity(), NewTransformIdentity())
	require.Equal(t, 1, m.NumContacts())
	pt := m.Point(0)
	assert.Equal(t, Vector{1, -0.01, 0}, pt.LocalPointA)
	assert.InDelta(t, -0.01, pt.Distance, 1e-12)
	assert.Equal(t, 1, pt.LifeTime)

	// moving A up separates the last point
	m.RefreshContactPoints(NewTransformTranslate(Vector{0, 0.1, 0}), NewTransformIdentity())
	assert.Equal(t, 0, m.NumContacts())
}
