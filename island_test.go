package bullet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnionFind(t *testing.T) {
	var u UnionFind
	u.Reset(6)
	u.Unite(0, 3)
	u.Unite(3, 5)
	u.Unite(1, 2)

	assert.Equal(t, u.Find(0), u.Find(5))
	assert.Equal(t, u.Find(1), u.Find(2))
	assert.NotEqual(t, u.Find(0), u.Find(1))
	assert.True(t, u.IsRoot(4))

	u.SortIslands()
	require.Equal(t, 6, u.NumElements())
	groups := map[int][]int{}
	for i := 0; i < u.NumElements(); i++ {
		e := u.element(i)
		if i > 0 {
			assert.LessOrEqual(t, u.element(i-1).id, e.id, "sorted by root")
		}
		groups[e.id] = append(groups[e.id], e.sz)
	}
	assert.Len(t, groups, 3)
	for _, members := range groups {
		switch len(members) {
		case 3:
			assert.Equal(t, []int{0, 3, 5}, members)
		case 2:
			assert.Equal(t, []int{1, 2}, members)
		case 1:
			assert.Equal(t, []int{4}, members)
		default:
			t.Errorf("unexpected island %v", members)
		}
	}

	u.Reset(2)
	assert.NotEqual(t, u.Find(0), u.Find(1))
}

// buildIslands runs the island pass of a step without solving.
func buildIslands(w *World) []*Island {
	w.UpdateAabbs()
	w.Broadphase().CalculateOverlappingPairs()
	info := DispatcherInfo{TimeStep: 1.0 / 60}
	w.Dispatcher().DispatchAllCollisionPairs(w.Broadphase().OverlappingPairCache(), &info)

	m := w.IslandManager()
	m.UpdateActivationState(w.CollisionObjects(), w.Broadphase().OverlappingPairCache(), w.Constraints())
	m.StoreIslandActivationState(w.CollisionObjects())
	return m.Islands(w.Dispatcher(), w.CollisionObjects(), w.Constraints())
}

func islandOf(islands []*Island, body *RigidBody) *Island {
	for _, island := range islands {
		for _, obj := range island.Bodies {
			if obj == &body.CollisionObject {
				return island
			}
		}
	}
	return nil
}

func TestIslands_Partition(t *testing.T) {
	w := NewDefaultWorld()
	ground := newTestBox(t, 0, Vector{10, 0.5, 10}, Vector{})
	a := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{0, 1, 0})
	b := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{0.95, 1, 0})
	c := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{5, 1, 0})
	for _, body := range []*RigidBody{ground, a, b, c} {
		require.NoError(t, w.AddRigidBody(body))
	}

	islands := buildIslands(w)
	require.Len(t, islands, 2)

	ab := islandOf(islands, a)
	require.NotNil(t, ab)
	assert.Same(t, ab, islandOf(islands, b))
	assert.Len(t, ab.Bodies, 2)
	assert.NotSame(t, ab, islandOf(islands, c))

	// the ground touches every box but joins no island
	assert.Nil(t, islandOf(islands, ground))
	assert.Equal(t, -1, ground.IslandTag())
	assert.Equal(t, a.IslandTag(), b.IslandTag())
	assert.NotEqual(t, a.IslandTag(), c.IslandTag())

	// every manifold lands in the island of its dynamic body
	total := 0
	for _, island := range islands {
		for _, m := range island.Manifolds {
			assert.True(t, m.Body0().IslandTag() == island.ID || m.Body1().IslandTag() == island.ID)
		}
		total += len(island.Manifolds)
	}
	assert.Equal(t, w.NumManifolds(), total)
}

func TestIslands_ConstraintsMerge(t *testing.T) {
	w := NewDefaultWorld()
	a := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{0, 1, 0})
	c := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{5, 1, 0})
	require.NoError(t, w.AddRigidBody(a))
	require.NoError(t, w.AddRigidBody(c))

	require.Len(t, buildIslands(w), 2)

	joint := NewPoint2PointConstraint(a, c, Vector{2.5, 1, 0})
	require.NoError(t, w.AddConstraint(joint.Constraint, false))
	islands := buildIslands(w)
	require.Len(t, islands, 1)
	assert.Len(t, islands[0].Bodies, 2)
	assert.Equal(t, []*Constraint{joint.Constraint}, islands[0].Constraints)

	joint.SetEnabled(false)
	assert.Len(t, buildIslands(w), 2)
}

func TestIslands_Sleeping(t *testing.T) {
	w := NewDefaultWorld()
	a := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{0, 1, 0})
	b := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{0.95, 1, 0})
	c := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{5, 1, 0})
	for _, body := range []*RigidBody{a, b, c} {
		require.NoError(t, w.AddRigidBody(body))
	}

	c.SetActivationState(WANTS_DEACTIVATION)
	islands := buildIslands(w)
	require.Len(t, islands, 1)
	assert.Equal(t, ISLAND_SLEEPING, c.ActivationState())
	assert.Nil(t, islandOf(islands, c))

	// one awake member keeps the whole island awake
	a.SetActivationState(WANTS_DEACTIVATION)
	islands = buildIslands(w)
	require.Len(t, islands, 1)
	assert.Equal(t, WANTS_DEACTIVATION, a.ActivationState())
	assert.Equal(t, ACTIVE_TAG, b.ActivationState())

	b.SetActivationState(WANTS_DEACTIVATION)
	assert.Empty(t, buildIslands(w))
	assert.Equal(t, ISLAND_SLEEPING, a.ActivationState())
	assert.Equal(t, ISLAND_SLEEPING, b.ActivationState())
}

func TestIslands_NoSplit(t *testing.T) {
	w := NewDefaultWorld()
	w.IslandManager().SplitIslands = false
	ground := newTestBox(t, 0, Vector{10, 0.5, 10}, Vector{})
	a := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{0, 1, 0})
	c := newTestBox(t, 1, Vector{0.5, 0.5, 0.5}, Vector{5, 1, 0})
	for _, body := range []*RigidBody{ground, a, c} {
		require.NoError(t, w.AddRigidBody(body))
	}

	islands := buildIslands(w)
	require.Len(t, islands, 1)
	assert.Len(t, islands[0].Bodies, 2)
	assert.Equal(t, -1, islands[0].ID)
}
