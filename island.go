package bullet

import "sort"

// Island is a group of bodies connected by overlapping bounds or constraints,
// together with the contacts and constraints to solve for it.
type Island struct {
	ID          int
	Bodies      []*CollisionObject
	Manifolds   []*PersistentManifold
	Constraints []*Constraint
}

// SimulationIslandManager partitions the objects of a world into islands and
// puts islands to sleep as a whole.
type SimulationIslandManager struct {
	unionFind UnionFind

	// When false every body, manifold and constraint forms a single island.
	SplitIslands bool

	islandManifolds []*PersistentManifold
}

func NewSimulationIslandManager() *SimulationIslandManager {
	return &SimulationIslandManager{SplitIslands: true}
}

func (m *SimulationIslandManager) UnionFind() *UnionFind {
	return &m.unionFind
}

// UpdateActivationState tags every object with its index and unites the
// objects of every pair and constraint that merge islands.
func (m *SimulationIslandManager) UpdateActivationState(objects []*CollisionObject, pairs *HashedOverlappingPairCache, constraints []*Constraint) {
	for i, obj := range objects {
		obj.setIslandTag(i)
		obj.companionID = -1
	}
	m.unionFind.Reset(len(objects))
	m.findUnions(pairs, constraints)
}

func (m *SimulationIslandManager) findUnions(pairs *HashedOverlappingPairCache, constraints []*Constraint) {
	if pairs != nil {
		for _, pair := range pairs.Pairs() {
			obj0 := pair.Proxy0.ClientObject
			obj1 := pair.Proxy1.ClientObject
			if obj0 != nil && obj1 != nil && obj0.MergesSimulationIslands() && obj1.MergesSimulationIslands() {
				m.unionFind.Unite(obj0.islandTag, obj1.islandTag)
			}
		}
	}
	for _, c := range constraints {
		if !c.IsEnabled() {
			continue
		}
		a := c.RigidBodyA()
		b := c.RigidBodyB()
		if a.IsStaticOrKinematicObject() || b.IsStaticOrKinematicObject() {
			continue
		}
		if a.islandTag >= 0 && b.islandTag >= 0 {
			m.unionFind.Unite(a.islandTag, b.islandTag)
		}
	}
}

// StoreIslandActivationState writes the island roots back to the objects.
// Static and kinematic objects belong to no island.
func (m *SimulationIslandManager) StoreIslandActivationState(objects []*CollisionObject) {
	for i, obj := range objects {
		if obj.IsStaticOrKinematicObject() {
			obj.setIslandTag(-1)
			obj.companionID = -2
		} else {
			obj.setIslandTag(m.unionFind.Find(i))
			obj.companionID = -1
		}
	}
}

func manifoldIslandID(manifold *PersistentManifold) int {
	if tag := manifold.body0.islandTag; tag >= 0 {
		return tag
	}
	return manifold.body1.islandTag
}

func constraintIslandID(c *Constraint) int {
	if tag := c.RigidBodyA().islandTag; tag >= 0 {
		return tag
	}
	return c.RigidBodyB().islandTag
}

// buildIslands sleeps the islands whose bodies all want to sleep, wakes the
// rest, and collects the manifolds that need solving.
func (m *SimulationIslandManager) buildIslands(d *CollisionDispatcher, objects []*CollisionObject) {
	m.islandManifolds = m.islandManifolds[:0]
	m.unionFind.SortIslands()
	numElem := m.unionFind.NumElements()

	for start, end := 0, 0; start < numElem; start = end {
		islandID := m.unionFind.element(start).id
		for end = start + 1; end < numElem && m.unionFind.element(end).id == islandID; end++ {
		}

		allSleeping := true
		for idx := start; idx < end; idx++ {
			obj := objects[m.unionFind.element(idx).sz]
			if obj.islandTag != islandID {
				continue
			}
			if state := obj.activationState; state == ACTIVE_TAG || state == DISABLE_DEACTIVATION {
				allSleeping = false
			}
		}

		for idx := start; idx < end; idx++ {
			obj := objects[m.unionFind.element(idx).sz]
			if obj.islandTag != islandID {
				continue
			}
			if allSleeping {
				obj.SetActivationState(ISLAND_SLEEPING)
			} else if obj.activationState == ISLAND_SLEEPING {
				obj.SetActivationState(WANTS_DEACTIVATION)
				obj.deactivationTime = 0
			}
		}
	}

	for _, manifold := range d.Manifolds() {
		obj0 := manifold.body0
		obj1 := manifold.body1
		manifold.islandTag = -1
		if obj0.activationState == ISLAND_SLEEPING && obj1.activationState == ISLAND_SLEEPING {
			continue
		}
		// kinematic objects don't merge islands but wake what they touch
		if obj0.IsKinematicObject() && obj0.activationState != ISLAND_SLEEPING && obj0.HasContactResponse() {
			obj1.Activate(false)
		}
		if obj1.IsKinematicObject() && obj1.activationState != ISLAND_SLEEPING && obj1.HasContactResponse() {
			obj0.Activate(false)
		}
		if d.NeedsResponse(obj0, obj1) {
			manifold.islandTag = manifoldIslandID(manifold)
			m.islandManifolds = append(m.islandManifolds, manifold)
		}
	}
}

// Islands returns the awake islands in ascending id order. Static objects
// are never island members, contacts against them belong to the island of
// the other body.
func (m *SimulationIslandManager) Islands(d *CollisionDispatcher, objects []*CollisionObject, constraints []*Constraint) []*Island {
	m.buildIslands(d, objects)

	var active []*Constraint
	for _, c := range constraints {
		if c.IsEnabled() && (c.RigidBodyA().IsActive() || c.RigidBodyB().IsActive()) {
			active = append(active, c)
		}
	}

	if !m.SplitIslands {
		island := &Island{ID: -1, Manifolds: m.islandManifolds, Constraints: active}
		for _, obj := range objects {
			if !obj.IsStaticOrKinematicObject() {
				island.Bodies = append(island.Bodies, obj)
			}
		}
		return []*Island{island}
	}

	manifolds := m.islandManifolds
	sort.SliceStable(manifolds, func(i, j int) bool {
		return manifoldIslandID(manifolds[i]) < manifoldIslandID(manifolds[j])
	})
	sort.SliceStable(active, func(i, j int) bool {
		return constraintIslandID(active[i]) < constraintIslandID(active[j])
	})

	var islands []*Island
	numElem := m.unionFind.NumElements()
	manifoldIndex, constraintIndex := 0, 0
	for start, end := 0, 0; start < numElem; start = end {
		islandID := m.unionFind.element(start).id
		island := &Island{ID: islandID}
		sleeping := true
		for end = start; end < numElem && m.unionFind.element(end).id == islandID; end++ {
			obj := objects[m.unionFind.element(end).sz]
			if obj.islandTag != islandID {
				continue
			}
			island.Bodies = append(island.Bodies, obj)
			if obj.IsActive() {
				sleeping = false
			}
		}

		for manifoldIndex < len(manifolds) && manifoldIslandID(manifolds[manifoldIndex]) < islandID {
			manifoldIndex++
		}
		first := manifoldIndex
		for manifoldIndex < len(manifolds) && manifoldIslandID(manifolds[manifoldIndex]) == islandID {
			manifoldIndex++
		}
		island.Manifolds = manifolds[first:manifoldIndex]

		for constraintIndex < len(active) && constraintIslandID(active[constraintIndex]) < islandID {
			constraintIndex++
		}
		first = constraintIndex
		for constraintIndex < len(active) && constraintIslandID(active[constraintIndex]) == islandID {
			constraintIndex++
		}
		island.Constraints = active[first:constraintIndex]

		if !sleeping && len(island.Bodies) > 0 {
			islands = append(islands, island)
		}
	}
	return islands
}

// BuildAndProcessIslands calls callback for every awake island.
func (m *SimulationIslandManager) BuildAndProcessIslands(d *CollisionDispatcher, objects []*CollisionObject, constraints []*Constraint, callback func(island *Island)) {
	for _, island := range m.Islands(d, objects, constraints) {
		callback(island)
	}
}
