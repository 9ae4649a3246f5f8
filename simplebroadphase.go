package bullet

// SimpleBroadphase tests every proxy against every other one. It is quadratic
// and meant for small scenes and for checking other broadphases.
type SimpleBroadphase struct {
	proxies   []*BroadphaseProxy
	pairCache *HashedOverlappingPairCache
	nextUID   int
}

func NewSimpleBroadphase(pairCache *HashedOverlappingPairCache) *SimpleBroadphase {
	if pairCache == nil {
		pairCache = NewHashedOverlappingPairCache()
	}
	return &SimpleBroadphase{
		pairCache: pairCache,
		nextUID:   1,
	}
}

func (b *SimpleBroadphase) CreateProxy(aabb BB, object *CollisionObject, group, mask int) *BroadphaseProxy {
	proxy := &BroadphaseProxy{
		ClientObject:         object,
		CollisionFilterGroup: group,
		CollisionFilterMask:  mask,
		UniqueID:             b.nextUID,
		Aabb:                 aabb,
		handle:               len(b.proxies),
	}
	b.nextUID++
	b.proxies = append(b.proxies, proxy)
	return proxy
}

func (b *SimpleBroadphase) DestroyProxy(proxy *BroadphaseProxy) {
	b.pairCache.RemoveOverlappingPairsContainingProxy(proxy)
	last := len(b.proxies) - 1
	moved := b.proxies[last]
	b.proxies[proxy.handle] = moved
	moved.handle = proxy.handle
	b.proxies[last] = nil
	b.proxies = b.proxies[:last]
}

func (b *SimpleBroadphase) SetAabb(proxy *BroadphaseProxy, aabb BB) {
	proxy.Aabb = aabb
}

func (b *SimpleBroadphase) CalculateOverlappingPairs() {
	for i, p0 := range b.proxies {
		for _, p1 := range b.proxies[i+1:] {
			if testAabbOverlap(p0.Aabb, p1.Aabb) {
				b.pairCache.AddOverlappingPair(p0, p1)
			} else {
				b.pairCache.RemoveOverlappingPair(p0, p1)
			}
		}
	}
}

func (b *SimpleBroadphase) OverlappingPairCache() *HashedOverlappingPairCache {
	return b.pairCache
}

func (b *SimpleBroadphase) WorldBounds() BB {
	bb := BB{Min: Vector{LARGE_FLOAT, LARGE_FLOAT, LARGE_FLOAT}, Max: Vector{-LARGE_FLOAT, -LARGE_FLOAT, -LARGE_FLOAT}}
	for _, p := range b.proxies {
		bb = bb.Merge(p.Aabb)
	}
	return bb
}
