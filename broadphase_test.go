package bullet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quantization is exact on integer coordinates in this world
var gridWorld = NewBB(Vector{}, Vector{1, 1, 1}.Mult(65535.0/64))

func randomGridBB(r *rand.Rand) BB {
	var min, max Vector
	for i := 0; i < 3; i++ {
		min[i] = float64(1 + r.Intn(60))
		max[i] = min[i] + float64(1+r.Intn(12))
	}
	return NewBB(min, max)
}

func pairSet(cache *HashedOverlappingPairCache) map[[2]int]bool {
	set := map[[2]int]bool{}
	for _, pair := range cache.Pairs() {
		set[[2]int{pair.Proxy0.UniqueID, pair.Proxy1.UniqueID}] = true
	}
	return set
}

func bruteForcePairs(proxies []*BroadphaseProxy, boxes map[*BroadphaseProxy]BB) map[[2]int]bool {
	set := map[[2]int]bool{}
	for i, p0 := range proxies {
		for _, p1 := range proxies[i+1:] {
			if boxes[p0].Intersects(boxes[p1]) {
				a, b := orderProxies(p0, p1)
				set[[2]int{a.UniqueID, b.UniqueID}] = true
			}
		}
	}
	return set
}

func TestAxisSweep3_MatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	sweep := NewAxisSweep3Bits(gridWorld, 64, 16, nil)
	simple := NewSimpleBroadphase(nil)

	var sweepProxies, simpleProxies []*BroadphaseProxy
	boxes := map[*BroadphaseProxy]BB{}

	for i := 0; i < 60; i++ {
		bb := randomGridBB(r)
		p := sweep.CreateProxy(bb, nil, FILTER_DEFAULT, FILTER_ALL)
		sweepProxies = append(sweepProxies, p)
		boxes[p] = bb
		simpleProxies = append(simpleProxies, simple.CreateProxy(bb, nil, FILTER_DEFAULT, FILTER_ALL))
	}
	require.True(t, sweep.checkEdgeOrder())

	for step := 0; step < 50; step++ {
		for i := range sweepProxies {
			if r.Intn(3) != 0 {
				continue
			}
			bb := randomGridBB(r)
			boxes[sweepProxies[i]] = bb
			sweep.SetAabb(sweepProxies[i], bb)
			simple.SetAabb(simpleProxies[i], bb)
		}

		// replace a proxy now and then
		if step%5 == 0 {
			i := r.Intn(len(sweepProxies))
			sweep.DestroyProxy(sweepProxies[i])
			simple.DestroyProxy(simpleProxies[i])
			delete(boxes, sweepProxies[i])

			bb := randomGridBB(r)
			sweepProxies[i] = sweep.CreateProxy(bb, nil, FILTER_DEFAULT, FILTER_ALL)
			simpleProxies[i] = simple.CreateProxy(bb, nil, FILTER_DEFAULT, FILTER_ALL)
			boxes[sweepProxies[i]] = bb
		}

		sweep.CalculateOverlappingPairs()
		simple.CalculateOverlappingPairs()
		require.True(t, sweep.checkEdgeOrder(), "step %d", step)

		expected := bruteForcePairs(sweepProxies, boxes)
		require.Equal(t, expected, pairSet(sweep.OverlappingPairCache()), "step %d", step)
		require.Equal(t, expected, pairSet(simple.OverlappingPairCache()), "step %d", step)
	}
}

func TestAxisSweep3_ClampsToWorld(t *testing.T) {
	sweep := NewAxisSweep3(NewBB(Vector{-10, -10, -10}, Vector{10, 10, 10}), 4)
	a := sweep.CreateProxy(NewBB(Vector{100, 0, 0}, Vector{101, 1, 1}), nil, FILTER_DEFAULT, FILTER_ALL)
	b := sweep.CreateProxy(NewBB(Vector{200, 0, 0}, Vector{201, 1, 1}), nil, FILTER_DEFAULT, FILTER_ALL)

	// both are squashed against the +x border
	assert.Equal(t, 1, sweep.OverlappingPairCache().NumPairs())
	assert.True(t, sweep.TestAabbOverlap(a, b))
	assert.Equal(t, 2, sweep.NumHandles())

	sweep.DestroyProxy(a)
	assert.Equal(t, 0, sweep.OverlappingPairCache().NumPairs())
	assert.Equal(t, 1, sweep.NumHandles())
	assert.True(t, sweep.checkEdgeOrder())
}

func TestAxisSweep3_Filter(t *testing.T) {
	sweep := NewAxisSweep3(gridWorld, 4)
	bb := NewBB(Vector{1, 1, 1}, Vector{2, 2, 2})
	sweep.CreateProxy(bb, nil, FILTER_STATIC, FILTER_ALL^FILTER_STATIC)
	sweep.CreateProxy(bb, nil, FILTER_STATIC, FILTER_ALL^FILTER_STATIC)
	assert.Equal(t, 0, sweep.OverlappingPairCache().NumPairs())

	sweep.CreateProxy(bb, nil, FILTER_DEFAULT, FILTER_ALL)
	assert.Equal(t, 2, sweep.OverlappingPairCache().NumPairs())
}

func TestHashedOverlappingPairCache(t *testing.T) {
	cache := NewHashedOverlappingPairCache()
	proxies := make([]*BroadphaseProxy, 40)
	for i := range proxies {
		proxies[i] = &BroadphaseProxy{UniqueID: i + 1, CollisionFilterGroup: FILTER_DEFAULT, CollisionFilterMask: FILTER_ALL}
	}

	// enough pairs to grow the table a few times
	for i := range proxies {
		for j := i + 1; j < len(proxies); j += 3 {
			pair := cache.AddOverlappingPair(proxies[j], proxies[i])
			require.NotNil(t, pair)
			assert.Same(t, proxies[i], pair.Proxy0)
		}
	}
	n := cache.NumPairs()
	assert.Greater(t, n, initialPairBins)

	assert.Same(t, cache.FindPair(proxies[0], proxies[1]), cache.AddOverlappingPair(proxies[1], proxies[0]))
	assert.Equal(t, n, cache.NumPairs())

	assert.True(t, cache.RemoveOverlappingPair(proxies[1], proxies[0]))
	assert.False(t, cache.RemoveOverlappingPair(proxies[1], proxies[0]))
	assert.Nil(t, cache.FindPair(proxies[0], proxies[1]))

	cache.RemoveOverlappingPairsContainingProxy(proxies[3])
	for _, pair := range cache.Pairs() {
		assert.NotSame(t, proxies[3], pair.Proxy0)
		assert.NotSame(t, proxies[3], pair.Proxy1)
		assert.Same(t, pair, cache.FindPair(pair.Proxy1, pair.Proxy0))
	}
}

func TestHashedOverlappingPairCache_FilterCallback(t *testing.T) {
	cache := NewHashedOverlappingPairCache()
	a := &BroadphaseProxy{UniqueID: 1, CollisionFilterGroup: FILTER_DEFAULT, CollisionFilterMask: FILTER_ALL}
	b := &BroadphaseProxy{UniqueID: 2, CollisionFilterGroup: FILTER_DEFAULT, CollisionFilterMask: FILTER_ALL}

	cache.SetOverlapFilterCallback(func(proxy0, proxy1 *BroadphaseProxy) bool {
		return false
	})
	assert.Nil(t, cache.AddOverlappingPair(a, b))

	cache.SetOverlapFilterCallback(nil)
	assert.NotNil(t, cache.AddOverlappingPair(a, b))
}
