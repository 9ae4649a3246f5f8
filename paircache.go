package bullet

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

const initialPairBins = 64

// BroadphasePair is a pair of proxies with overlapping bounds. Proxy0 always
// has the smaller UniqueID.
type BroadphasePair struct {
	Proxy0, Proxy1 *BroadphaseProxy

	// narrow phase algorithm, created lazily by the dispatcher
	Algorithm CollisionAlgorithm

	UserData interface{}

	hash  uint64
	next  *BroadphasePair
	index int
}

// OverlapFilterCallback replaces the group/mask test of a pair cache.
type OverlapFilterCallback func(proxy0, proxy1 *BroadphaseProxy) bool

// HashedOverlappingPairCache stores the overlapping pairs in a chained hash
// table keyed by the proxy ids. Pairs are also kept in a dense slice so
// iteration order only depends on the order of insertions and removals.
type HashedOverlappingPairCache struct {
	bins  []*BroadphasePair
	pairs []*BroadphasePair

	filter OverlapFilterCallback
}

func NewHashedOverlappingPairCache() *HashedOverlappingPairCache {
	return &HashedOverlappingPairCache{
		bins: make([]*BroadphasePair, initialPairBins),
	}
}

func pairHash(uid0, uid1 int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(uid0))
	binary.LittleEndian.PutUint64(buf[8:], uint64(uid1))
	return xxhash.Sum64(buf[:])
}

func orderProxies(proxy0, proxy1 *BroadphaseProxy) (*BroadphaseProxy, *BroadphaseProxy) {
	if proxy0.UniqueID > proxy1.UniqueID {
		return proxy1, proxy0
	}
	return proxy0, proxy1
}

func (c *HashedOverlappingPairCache) SetOverlapFilterCallback(filter OverlapFilterCallback) {
	c.filter = filter
}

// NeedsBroadphaseCollision applies the filter callback or, without one, the
// two way group/mask test.
func (c *HashedOverlappingPairCache) NeedsBroadphaseCollision(proxy0, proxy1 *BroadphaseProxy) bool {
	if c.filter != nil {
		return c.filter(proxy0, proxy1)
	}
	return proxy0.CollisionFilterGroup&proxy1.CollisionFilterMask != 0 &&
		proxy1.CollisionFilterGroup&proxy0.CollisionFilterMask != 0
}

func (c *HashedOverlappingPairCache) bin(hash uint64) int {
	return int(hash & uint64(len(c.bins)-1))
}

// FindPair returns the pair of the two proxies, in any order, or nil.
func (c *HashedOverlappingPairCache) FindPair(proxy0, proxy1 *BroadphaseProxy) *BroadphasePair {
	proxy0, proxy1 = orderProxies(proxy0, proxy1)
	hash := pairHash(proxy0.UniqueID, proxy1.UniqueID)
	for pair := c.bins[c.bin(hash)]; pair != nil; pair = pair.next {
		if pair.hash == hash && pair.Proxy0 == proxy0 && pair.Proxy1 == proxy1 {
			return pair
		}
	}
	return nil
}

// AddOverlappingPair inserts the pair unless it is filtered out. Adding an
// existing pair returns it unchanged.
func (c *HashedOverlappingPairCache) AddOverlappingPair(proxy0, proxy1 *BroadphaseProxy) *BroadphasePair {
	if !c.NeedsBroadphaseCollision(proxy0, proxy1) {
		return nil
	}
	if pair := c.FindPair(proxy0, proxy1); pair != nil {
		return pair
	}

	proxy0, proxy1 = orderProxies(proxy0, proxy1)
	pair := &BroadphasePair{
		Proxy0: proxy0,
		Proxy1: proxy1,
		hash:   pairHash(proxy0.UniqueID, proxy1.UniqueID),
		index:  len(c.pairs),
	}
	c.pairs = append(c.pairs, pair)
	if len(c.pairs) > len(c.bins) {
		c.growTables()
	}
	i := c.bin(pair.hash)
	pair.next = c.bins[i]
	c.bins[i] = pair
	return pair
}

func (c *HashedOverlappingPairCache) growTables() {
	c.bins = make([]*BroadphasePair, len(c.bins)*2)
	// the pair being added is linked by the caller
	for _, pair := range c.pairs[:len(c.pairs)-1] {
		i := c.bin(pair.hash)
		pair.next = c.bins[i]
		c.bins[i] = pair
	}
}

// RemoveOverlappingPair removes the pair and releases its algorithm. It
// reports whether the pair existed.
func (c *HashedOverlappingPairCache) RemoveOverlappingPair(proxy0, proxy1 *BroadphaseProxy) bool {
	pair := c.FindPair(proxy0, proxy1)
	if pair == nil {
		return false
	}
	c.removePair(pair)
	return true
}

func (c *HashedOverlappingPairCache) removePair(pair *BroadphasePair) {
	c.cleanPair(pair)

	i := c.bin(pair.hash)
	prev := &c.bins[i]
	for *prev != pair {
		prev = &(*prev).next
	}
	*prev = pair.next
	pair.next = nil

	last := len(c.pairs) - 1
	if pair.index != last {
		moved := c.pairs[last]
		c.pairs[pair.index] = moved
		moved.index = pair.index
	}
	c.pairs[last] = nil
	c.pairs = c.pairs[:last]
	pair.index = -1
}

func (c *HashedOverlappingPairCache) cleanPair(pair *BroadphasePair) {
	if pair.Algorithm != nil {
		pair.Algorithm.Release()
		pair.Algorithm = nil
	}
}

// RemoveOverlappingPairsContainingProxy drops every pair of proxy.
func (c *HashedOverlappingPairCache) RemoveOverlappingPairsContainingProxy(proxy *BroadphaseProxy) {
	c.ProcessAllOverlappingPairs(func(pair *BroadphasePair) bool {
		return pair.Proxy0 == proxy || pair.Proxy1 == proxy
	})
}

// CleanProxyFromPairs releases the algorithms of the pairs of proxy, keeping
// the pairs themselves.
func (c *HashedOverlappingPairCache) CleanProxyFromPairs(proxy *BroadphaseProxy) {
	for _, pair := range c.pairs {
		if pair.Proxy0 == proxy || pair.Proxy1 == proxy {
			c.cleanPair(pair)
		}
	}
}

// ProcessAllOverlappingPairs calls f on every pair and removes the pairs for
// which it returns true.
func (c *HashedOverlappingPairCache) ProcessAllOverlappingPairs(f func(pair *BroadphasePair) bool) {
	for i := 0; i < len(c.pairs); {
		pair := c.pairs[i]
		if f(pair) {
			// the last pair was swapped into i
			c.removePair(pair)
			continue
		}
		i++
	}
}

func (c *HashedOverlappingPairCache) NumPairs() int {
	return len(c.pairs)
}

// Pairs returns the live pairs. The slice is owned by the cache.
func (c *HashedOverlappingPairCache) Pairs() []*BroadphasePair {
	return c.pairs
}
