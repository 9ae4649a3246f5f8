package bullet

import "fmt"

// BroadphaseProxy is the broadphase handle of one collision object.
type BroadphaseProxy struct {
	ClientObject *CollisionObject

	CollisionFilterGroup int
	CollisionFilterMask  int

	// UniqueID orders the proxies of a pair. It is never reused.
	UniqueID int

	// Bounds as last given to the broadphase, before quantization.
	Aabb BB

	// slot in the owning broadphase
	handle int
}

func (p *BroadphaseProxy) String() string {
	return fmt.Sprintf("BroadphaseProxy{%d}", p.UniqueID)
}

// Broadphase finds the object pairs whose bounds overlap and keeps them in an
// overlapping pair cache.
type Broadphase interface {
	CreateProxy(aabb BB, object *CollisionObject, group, mask int) *BroadphaseProxy
	DestroyProxy(proxy *BroadphaseProxy)
	SetAabb(proxy *BroadphaseProxy, aabb BB)
	// CalculateOverlappingPairs brings the pair cache up to date with the
	// bounds given since the last call.
	CalculateOverlappingPairs()
	OverlappingPairCache() *HashedOverlappingPairCache
	WorldBounds() BB
}

// testAabbOverlap is the inclusive interval test on all three axes.
func testAabbOverlap(a, b BB) bool {
	return a.Min.X() <= b.Max.X() && b.Min.X() <= a.Max.X() &&
		a.Min.Y() <= b.Max.Y() && b.Min.Y() <= a.Max.Y() &&
		a.Min.Z() <= b.Max.Z() && b.Min.Z() <= a.Max.Z()
}
