package bullet

import "math"

// Default quantization of AxisSweep3.
const AXIS_SWEEP_DEFAULT_BITS = 16

type sweepEdge struct {
	// quantized position, even for min edges and odd for max edges
	pos    uint32
	handle int
}

func (e *sweepEdge) isMax() bool {
	return e.pos&1 != 0
}

type sweepHandle struct {
	proxy    BroadphaseProxy
	minEdges [3]int
	maxEdges [3]int
	nextFree int
}

// AxisSweep3 is an incremental sweep and prune broadphase over the three world
// axes. Bounds are clamped to the world bounds and quantized, so objects that
// leave the world keep colliding against its border instead of being dropped.
//
// Handle 0 is a sentinel whose edges sit at both ends of every axis.
type AxisSweep3 struct {
	worldMin, worldMax Vector
	scale              Vector

	handleSentinel uint32
	handleMask     uint32

	handles         []*sweepHandle
	numHandles      int
	firstFreeHandle int

	edges [3][]sweepEdge

	pairCache *HashedOverlappingPairCache
	nextUID   int
}

// NewAxisSweep3 creates a sweep and prune broadphase quantizing worldBounds
// to AXIS_SWEEP_DEFAULT_BITS per axis. maxHandles is a capacity hint.
func NewAxisSweep3(worldBounds BB, maxHandles int) *AxisSweep3 {
	return NewAxisSweep3Bits(worldBounds, maxHandles, AXIS_SWEEP_DEFAULT_BITS, nil)
}

// NewAxisSweep3Bits creates a sweep and prune broadphase with the given
// quantization resolution, between 2 and 32 bits. A nil pairCache gets a new
// one.
func NewAxisSweep3Bits(worldBounds BB, maxHandles int, bits uint, pairCache *HashedOverlappingPairCache) *AxisSweep3 {
	if bits < 2 {
		bits = 2
	}
	if bits > 32 {
		bits = 32
	}
	if maxHandles < 1 {
		maxHandles = 1
	}
	if pairCache == nil {
		pairCache = NewHashedOverlappingPairCache()
	}

	sentinel := uint32(uint64(1)<<bits - 1)
	size := worldBounds.Max.Sub(worldBounds.Min)
	s := &AxisSweep3{
		worldMin:       worldBounds.Min,
		worldMax:       worldBounds.Max,
		handleSentinel: sentinel,
		handleMask:     sentinel &^ 1,
		pairCache:      pairCache,
		nextUID:        1,
	}
	for i := 0; i < 3; i++ {
		s.scale[i] = float64(sentinel) / size[i]
	}

	s.handles = make([]*sweepHandle, 1, maxHandles+1)
	s.handles[0] = &sweepHandle{}
	for axis := 0; axis < 3; axis++ {
		s.edges[axis] = make([]sweepEdge, 2, 2*maxHandles+2)
		s.edges[axis][0] = sweepEdge{pos: 0, handle: 0}
		s.edges[axis][1] = sweepEdge{pos: sentinel, handle: 0}
		s.handles[0].minEdges[axis] = 0
		s.handles[0].maxEdges[axis] = 1
	}
	return s
}

func (s *AxisSweep3) WorldBounds() BB {
	return BB{Min: s.worldMin, Max: s.worldMax}
}

func (s *AxisSweep3) OverlappingPairCache() *HashedOverlappingPairCache {
	return s.pairCache
}

// NumHandles does not count the sentinel.
func (s *AxisSweep3) NumHandles() int {
	return s.numHandles
}

func (s *AxisSweep3) quantize(point Vector, isMax uint32) [3]uint32 {
	v := point.Sub(s.worldMin).MultV(s.scale)
	var out [3]uint32
	for i := 0; i < 3; i++ {
		switch {
		case !(v[i] > 0):
			out[i] = isMax
		case v[i] >= float64(s.handleSentinel):
			out[i] = s.handleSentinel&s.handleMask | isMax
		default:
			out[i] = uint32(math.Floor(v[i]))&s.handleMask | isMax
		}
	}
	return out
}

func (s *AxisSweep3) allocHandle() int {
	var h int
	if s.firstFreeHandle != 0 {
		h = s.firstFreeHandle
		s.firstFreeHandle = s.handles[h].nextFree
		*s.handles[h] = sweepHandle{}
	} else {
		h = len(s.handles)
		s.handles = append(s.handles, &sweepHandle{})
	}
	s.numHandles++
	return h
}

func (s *AxisSweep3) freeHandle(h int) {
	s.handles[h].proxy.ClientObject = nil
	s.handles[h].nextFree = s.firstFreeHandle
	s.firstFreeHandle = h
	s.numHandles--
}

func (s *AxisSweep3) CreateProxy(aabb BB, object *CollisionObject, group, mask int) *BroadphaseProxy {
	h := s.addHandle(aabb, object, group, mask)
	return &s.handles[h].proxy
}

func (s *AxisSweep3) DestroyProxy(proxy *BroadphaseProxy) {
	s.removeHandle(proxy.handle)
}

func (s *AxisSweep3) SetAabb(proxy *BroadphaseProxy, aabb BB) {
	proxy.Aabb = aabb
	s.updateHandle(proxy.handle, aabb)
}

// CalculateOverlappingPairs has nothing to do, pairs are maintained as the
// edges move.
func (s *AxisSweep3) CalculateOverlappingPairs() {}

func (s *AxisSweep3) addHandle(aabb BB, object *CollisionObject, group, mask int) int {
	min := s.quantize(aabb.Min, 0)
	max := s.quantize(aabb.Max, 1)

	h := s.allocHandle()
	handle := s.handles[h]
	handle.proxy = BroadphaseProxy{
		ClientObject:         object,
		CollisionFilterGroup: group,
		CollisionFilterMask:  mask,
		UniqueID:             s.nextUID,
		Aabb:                 aabb,
		handle:               h,
	}
	s.nextUID++

	// the new edges go just inside the sentinel max edge
	limit := s.numHandles * 2
	for axis := 0; axis < 3; axis++ {
		s.handles[0].maxEdges[axis] += 2
		edges := append(s.edges[axis], sweepEdge{}, sweepEdge{})
		edges[limit+1] = edges[limit-1]
		edges[limit-1] = sweepEdge{pos: min[axis], handle: h}
		edges[limit] = sweepEdge{pos: max[axis], handle: h}
		s.edges[axis] = edges
		handle.minEdges[axis] = limit - 1
		handle.maxEdges[axis] = limit
	}

	// pairs are only reported once the edges are sorted on the first two axes
	s.sortMinDown(0, handle.minEdges[0], false)
	s.sortMaxDown(0, handle.maxEdges[0], false)
	s.sortMinDown(1, handle.minEdges[1], false)
	s.sortMaxDown(1, handle.maxEdges[1], false)
	s.sortMinDown(2, handle.minEdges[2], true)
	s.sortMaxDown(2, handle.maxEdges[2], true)

	return h
}

func (s *AxisSweep3) removeHandle(h int) {
	handle := s.handles[h]
	s.pairCache.RemoveOverlappingPairsContainingProxy(&handle.proxy)

	limit := s.numHandles * 2
	for axis := 0; axis < 3; axis++ {
		s.handles[0].maxEdges[axis] -= 2
	}

	// move the edges past every other edge, then drop the last two
	for axis := 0; axis < 3; axis++ {
		edges := s.edges[axis]
		max := handle.maxEdges[axis]
		edges[max].pos = s.handleSentinel
		s.sortMaxUp(axis, max, false)

		min := handle.minEdges[axis]
		edges[min].pos = s.handleSentinel
		s.sortMinUp(axis, min, false)

		edges[limit-1] = sweepEdge{pos: s.handleSentinel, handle: 0}
		s.edges[axis] = edges[:limit]
	}

	s.freeHandle(h)
}

func (s *AxisSweep3) updateHandle(h int, aabb BB) {
	handle := s.handles[h]
	min := s.quantize(aabb.Min, 0)
	max := s.quantize(aabb.Max, 1)

	for axis := 0; axis < 3; axis++ {
		emin := handle.minEdges[axis]
		emax := handle.maxEdges[axis]

		dmin := int64(min[axis]) - int64(s.edges[axis][emin].pos)
		dmax := int64(max[axis]) - int64(s.edges[axis][emax].pos)

		s.edges[axis][emin].pos = min[axis]
		s.edges[axis][emax].pos = max[axis]

		// expanding only adds overlaps
		if dmin < 0 {
			s.sortMinDown(axis, emin, true)
		}
		if dmax > 0 {
			s.sortMaxUp(axis, emax, true)
		}

		// shrinking only removes them
		if dmin > 0 {
			s.sortMinUp(axis, emin, true)
		}
		if dmax < 0 {
			s.sortMaxDown(axis, emax, true)
		}
	}
}

// testOverlap2D compares edge indices on the two axes other than the sorted one.
func (s *AxisSweep3) testOverlap2D(a, b *sweepHandle, axis0, axis1 int) bool {
	return !(a.maxEdges[axis0] < b.minEdges[axis0] ||
		b.maxEdges[axis0] < a.minEdges[axis0] ||
		a.maxEdges[axis1] < b.minEdges[axis1] ||
		b.maxEdges[axis1] < a.minEdges[axis1])
}

// TestAabbOverlap reports whether the quantized bounds of two proxies overlap.
func (s *AxisSweep3) TestAabbOverlap(proxy0, proxy1 *BroadphaseProxy) bool {
	a := s.handles[proxy0.handle]
	b := s.handles[proxy1.handle]
	for axis := 0; axis < 3; axis++ {
		if a.maxEdges[axis] < b.minEdges[axis] || b.maxEdges[axis] < a.minEdges[axis] {
			return false
		}
	}
	return true
}

func otherAxes(axis int) (int, int) {
	axis1 := (1 << uint(axis)) & 3
	axis2 := (1 << uint(axis1)) & 3
	return axis1, axis2
}

func (s *AxisSweep3) sortMinDown(axis, edge int, updateOverlaps bool) {
	edges := s.edges[axis]
	handleEdge := s.handles[edges[edge].handle]
	axis1, axis2 := otherAxes(axis)

	for edges[edge].pos < edges[edge-1].pos {
		prev := &edges[edge-1]
		handlePrev := s.handles[prev.handle]
		if prev.isMax() {
			// passing a max edge can start an overlap
			if updateOverlaps && s.testOverlap2D(handleEdge, handlePrev, axis1, axis2) {
				s.pairCache.AddOverlappingPair(&handleEdge.proxy, &handlePrev.proxy)
			}
			handlePrev.maxEdges[axis]++
		} else {
			handlePrev.minEdges[axis]++
		}
		handleEdge.minEdges[axis]--

		edges[edge], edges[edge-1] = edges[edge-1], edges[edge]
		edge--
	}
}

func (s *AxisSweep3) sortMinUp(axis, edge int, updateOverlaps bool) {
	edges := s.edges[axis]
	handleEdge := s.handles[edges[edge].handle]
	axis1, axis2 := otherAxes(axis)

	for edges[edge+1].handle != 0 && edges[edge].pos >= edges[edge+1].pos {
		next := &edges[edge+1]
		handleNext := s.handles[next.handle]
		if next.isMax() {
			// passing a max edge ends an overlap
			if updateOverlaps && s.testOverlap2D(handleEdge, handleNext, axis1, axis2) {
				s.pairCache.RemoveOverlappingPair(&handleEdge.proxy, &handleNext.proxy)
			}
			handleNext.maxEdges[axis]--
		} else {
			handleNext.minEdges[axis]--
		}
		handleEdge.minEdges[axis]++

		edges[edge], edges[edge+1] = edges[edge+1], edges[edge]
		edge++
	}
}

func (s *AxisSweep3) sortMaxDown(axis, edge int, updateOverlaps bool) {
	edges := s.edges[axis]
	handleEdge := s.handles[edges[edge].handle]
	axis1, axis2 := otherAxes(axis)

	for edges[edge].pos < edges[edge-1].pos {
		prev := &edges[edge-1]
		handlePrev := s.handles[prev.handle]
		if !prev.isMax() {
			// passing a min edge ends an overlap
			if updateOverlaps && s.testOverlap2D(handleEdge, handlePrev, axis1, axis2) {
				s.pairCache.RemoveOverlappingPair(&handleEdge.proxy, &handlePrev.proxy)
			}
			handlePrev.minEdges[axis]++
		} else {
			handlePrev.maxEdges[axis]++
		}
		handleEdge.maxEdges[axis]--

		edges[edge], edges[edge-1] = edges[edge-1], edges[edge]
		edge--
	}
}

func (s *AxisSweep3) sortMaxUp(axis, edge int, updateOverlaps bool) {
	edges := s.edges[axis]
	handleEdge := s.handles[edges[edge].handle]
	axis1, axis2 := otherAxes(axis)

	for edges[edge+1].handle != 0 && edges[edge].pos >= edges[edge+1].pos {
		next := &edges[edge+1]
		handleNext := s.handles[next.handle]
		if !next.isMax() {
			// passing a min edge can start an overlap
			if updateOverlaps && s.testOverlap2D(handleEdge, handleNext, axis1, axis2) {
				s.pairCache.AddOverlappingPair(&handleEdge.proxy, &handleNext.proxy)
			}
			handleNext.minEdges[axis]--
		} else {
			handleNext.maxEdges[axis]--
		}
		handleEdge.maxEdges[axis]++

		edges[edge], edges[edge+1] = edges[edge+1], edges[edge]
		edge++
	}
}

// checkEdgeOrder reports whether every axis is sorted and every handle points
// at its own edges.
func (s *AxisSweep3) checkEdgeOrder() bool {
	for axis := 0; axis < 3; axis++ {
		edges := s.edges[axis]
		if len(edges) != 2*s.numHandles+2 {
			return false
		}
		for i := 1; i < len(edges); i++ {
			if edges[i].pos < edges[i-1].pos {
				return false
			}
		}
		for i := 1; i < len(edges)-1; i++ {
			h := s.handles[edges[i].handle]
			if edges[i].isMax() && h.maxEdges[axis] != i {
				return false
			}
			if !edges[i].isMax() && h.minEdges[axis] != i {
				return false
			}
		}
	}
	return true
}
