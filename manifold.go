package bullet

const MANIFOLD_CACHE_SIZE = 4

// Default distance at which cached contacts are dropped.
const CONTACT_BREAKING_THRESHOLD = 0.02

// ManifoldPoint is one cached contact between the two bodies of a manifold.
// The normal points from B to A and Distance is negative when penetrating.
type ManifoldPoint struct {
	LocalPointA, LocalPointB           Vector
	PositionWorldOnA, PositionWorldOnB Vector
	NormalWorldOnB                     Vector

	Distance            float64
	CombinedFriction    float64
	CombinedRestitution float64

	// Accumulated impulses of the last solve, used to warm start the next one.
	AppliedImpulse         float64
	AppliedImpulseLateral1 float64
	AppliedImpulseLateral2 float64

	LateralFrictionInitialized bool
	LateralFrictionDir1        Vector
	LateralFrictionDir2        Vector

	// Number of refreshes the point survived.
	LifeTime int
}

func NewManifoldPoint(pointA, pointB, normal Vector, distance float64) ManifoldPoint {
	return ManifoldPoint{
		LocalPointA:    pointA,
		LocalPointB:    pointB,
		NormalWorldOnB: normal,
		Distance:       distance,
	}
}

// PersistentManifold caches up to MANIFOLD_CACHE_SIZE contacts of one pair of
// objects across steps.
type PersistentManifold struct {
	body0, body1 *CollisionObject
	points       [MANIFOLD_CACHE_SIZE]ManifoldPoint
	cachedPoints int

	contactBreakingThreshold float64

	FrictionCombine    CombineMode
	RestitutionCombine CombineMode

	// position in the dispatcher manifold list
	index int
	// island of the manifold this step, -1 when not solved
	islandTag int
}

func NewPersistentManifold(body0, body1 *CollisionObject, contactBreakingThreshold float64) *PersistentManifold {
	return &PersistentManifold{
		body0:                    body0,
		body1:                    body1,
		contactBreakingThreshold: contactBreakingThreshold,
		index:                    -1,
		islandTag:                -1,
	}
}

func (m *PersistentManifold) Body0() *CollisionObject {
	return m.body0
}

func (m *PersistentManifold) Body1() *CollisionObject {
	return m.body1
}

func (m *PersistentManifold) NumContacts() int {
	return m.cachedPoints
}

func (m *PersistentManifold) Point(i int) *ManifoldPoint {
	debugAssert(i < m.cachedPoints, "manifold point index out of range")
	return &m.points[i]
}

func (m *PersistentManifold) ContactBreakingThreshold() float64 {
	return m.contactBreakingThreshold
}

func (m *PersistentManifold) ClearManifold() {
	m.cachedPoints = 0
}

// GetCacheEntry returns the index of the cached point closest to pt on body A,
// within the contact breaking threshold, or -1.
func (m *PersistentManifold) GetCacheEntry(pt *ManifoldPoint) int {
	shortestDist := m.contactBreakingThreshold * m.contactBreakingThreshold
	nearest := -1
	for i := 0; i < m.cachedPoints; i++ {
		diffA := m.points[i].LocalPointA.Sub(pt.LocalPointA)
		if d := diffA.Dot(diffA); d < shortestDist {
			shortestDist = d
			nearest = i
		}
	}
	return nearest
}

// AddManifoldPoint stores pt and returns its index. A full manifold drops the
// point whose removal keeps the largest contact area, never the deepest one.
func (m *PersistentManifold) AddManifoldPoint(pt ManifoldPoint) int {
	insertIndex := m.cachedPoints
	if insertIndex == MANIFOLD_CACHE_SIZE {
		insertIndex = m.sortCachedPoints(&pt)
	} else {
		m.cachedPoints++
	}
	m.points[insertIndex] = pt
	return insertIndex
}

// ReplaceContactPoint overwrites the point at index, keeping its warm start state.
func (m *PersistentManifold) ReplaceContactPoint(pt ManifoldPoint, index int) {
	old := &m.points[index]
	pt.LifeTime = old.LifeTime
	pt.AppliedImpulse = old.AppliedImpulse
	pt.AppliedImpulseLateral1 = old.AppliedImpulseLateral1
	pt.AppliedImpulseLateral2 = old.AppliedImpulseLateral2
	if old.LateralFrictionInitialized {
		pt.LateralFrictionInitialized = true
		pt.LateralFrictionDir1 = old.LateralFrictionDir1
		pt.LateralFrictionDir2 = old.LateralFrictionDir2
	}
	m.points[index] = pt
}

func (m *PersistentManifold) RemoveContactPoint(index int) {
	last := m.cachedPoints - 1
	if index != last {
		m.points[index] = m.points[last]
	}
	m.points[last] = ManifoldPoint{}
	m.cachedPoints--
}

// sortCachedPoints picks the point to replace by pt. Each candidate is scored
// by the area of the quad left when it is dropped.
func (m *PersistentManifold) sortCachedPoints(pt *ManifoldPoint) int {
	scores := contactAreaScores(&m.points, pt)
	best := 0
	for i := 1; i < MANIFOLD_CACHE_SIZE; i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

// contactAreaScores returns, for every cached point, the squared area measure
// of the contact polygon left when that point is replaced by pt. The deepest
// point scores zero so it is never dropped.
func contactAreaScores(points *[MANIFOLD_CACHE_SIZE]ManifoldPoint, pt *ManifoldPoint) [MANIFOLD_CACHE_SIZE]float64 {
	maxPenetrationIndex := -1
	maxPenetration := pt.Distance
	for i := 0; i < MANIFOLD_CACHE_SIZE; i++ {
		if points[i].Distance < maxPenetration {
			maxPenetrationIndex = i
			maxPenetration = points[i].Distance
		}
	}

	p := func(i int) Vector { return points[i].LocalPointA }
	n := pt.LocalPointA

	var res [MANIFOLD_CACHE_SIZE]float64
	if maxPenetrationIndex != 0 {
		res[0] = n.Sub(p(1)).Cross(p(3).Sub(p(2))).LengthSq()
	}
	if maxPenetrationIndex != 1 {
		res[1] = n.Sub(p(0)).Cross(p(3).Sub(p(2))).LengthSq()
	}
	if maxPenetrationIndex != 2 {
		res[2] = n.Sub(p(0)).Cross(p(3).Sub(p(1))).LengthSq()
	}
	if maxPenetrationIndex != 3 {
		res[3] = n.Sub(p(0)).Cross(p(2).Sub(p(1))).LengthSq()
	}
	return res
}

// RefreshContactPoints re-projects the cached points with the current
// transforms and drops the ones that separated or slid too far.
func (m *PersistentManifold) RefreshContactPoints(trA, trB Transform) {
	for i := m.cachedPoints - 1; i >= 0; i-- {
		pt := &m.points[i]
		pt.PositionWorldOnA = trA.Point(pt.LocalPointA)
		pt.PositionWorldOnB = trB.Point(pt.LocalPointB)
		pt.Distance = pt.PositionWorldOnA.Sub(pt.PositionWorldOnB).Dot(pt.NormalWorldOnB)
		pt.LifeTime++
	}

	threshold2 := m.contactBreakingThreshold * m.contactBreakingThreshold
	for i := m.cachedPoints - 1; i >= 0; i-- {
		pt := &m.points[i]
		if pt.Distance > m.contactBreakingThreshold {
			m.RemoveContactPoint(i)
			continue
		}
		projected := pt.PositionWorldOnA.Sub(pt.NormalWorldOnB.Mult(pt.Distance))
		drift := pt.PositionWorldOnB.Sub(projected)
		if drift.Dot(drift) > threshold2 {
			m.RemoveContactPoint(i)
		}
	}
}
