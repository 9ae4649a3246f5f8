package bullet

import "math"

const (
	GJKEPA_GJK_MAX_ITERATIONS = 128
	GJKEPA_GJK_ACCURACY       = 1e-6
	GJKEPA_GJK_MIN_DISTANCE   = 1e-6
	GJKEPA_HASH_SIZE          = 64

	GJKEPA_EPA_MAX_ITERATIONS = 256
	GJKEPA_EPA_ACCURACY       = 0.001
	GJKEPA_EPA_PLANE_EPS      = 1e-5
	GJKEPA_EPA_MIN_FACE_AREA  = 1e-12
)

type GjkEpaStatus int

const (
	GJKEPA_SEPARATED GjkEpaStatus = iota
	GJKEPA_PENETRATING
	GJKEPA_GJK_FAILED
	GJKEPA_EPA_FAILED
)

func (s GjkEpaStatus) String() string {
	switch s {
	case GJKEPA_SEPARATED:
		return "separated"
	case GJKEPA_PENETRATING:
		return "penetrating"
	case GJKEPA_GJK_FAILED:
		return "gjk failed"
	case GJKEPA_EPA_FAILED:
		return "epa failed"
	}
	return "unknown"
}

// GjkEpaResult is the outcome of GjkEpaPenetration or GjkEpaDistance.
type GjkEpaResult struct {
	Status GjkEpaStatus
	// Witness points on A and B in world space.
	Witnesses [2]Vector
	// Normal points from B to A.
	Normal Vector
	// Depth is the penetration depth, or the distance when separated.
	Depth float64

	GjkIterations int
	EpaIterations int
}

// minkowskiDiff evaluates the support of A - B in world space.
type minkowskiDiff struct {
	a, b           ConvexShape
	transA, transB Transform
	margins        bool
}

func (m *minkowskiDiff) supportA(d Vector) Vector {
	local := m.transA.InvVect(d)
	if m.margins {
		return m.transA.Point(LocalSupportWithMargin(m.a, local))
	}
	return m.transA.Point(m.a.LocalSupport(local))
}

func (m *minkowskiDiff) supportB(d Vector) Vector {
	local := m.transB.InvVect(d)
	if m.margins {
		return m.transB.Point(LocalSupportWithMargin(m.b, local))
	}
	return m.transB.Point(m.b.LocalSupport(local))
}

func (m *minkowskiDiff) support(d Vector) epaVertex {
	a := m.supportA(d)
	b := m.supportB(d.Neg())
	return epaVertex{w: a.Sub(b), a: a, b: b}
}

type epaVertex struct {
	w, a, b Vector
}

// gjkSolver searches the origin in the Minkowski difference. Visited search
// directions are hashed so a cycling search terminates.
type gjkSolver struct {
	md         *minkowskiDiff
	simplex    VoronoiSimplexSolver
	table      [GJKEPA_HASH_SIZE][]Vector
	ray        Vector
	iterations int
	failed     bool
}

func hashDirection(v Vector) int {
	h := uint32(int32(v[0]*15461)) ^ uint32(int32(v[1]*83003)) ^ uint32(int32(v[2]*15473))
	return int((h * 169639) & (GJKEPA_HASH_SIZE - 1))
}

// fetchSupport returns false when the direction was searched before.
func (g *gjkSolver) fetchSupport(dir Vector) (epaVertex, bool) {
	d := dir.SafeNormalize()
	h := hashDirection(d)
	for _, seen := range g.table[h] {
		if seen == d {
			return epaVertex{}, false
		}
	}
	g.table[h] = append(g.table[h], d)
	return g.md.support(d), true
}

// evaluate returns true when the origin is enclosed by the difference.
func (g *gjkSolver) evaluate(guess Vector) bool {
	g.simplex.EqualVertexThreshold = VORONOI_DEFAULT_EQUAL_VERTEX_THRESHOLD
	g.simplex.Reset()
	for i := range g.table {
		g.table[i] = g.table[i][:0]
	}
	g.iterations = 0
	g.failed = false

	if guess.LengthSq() < SIMD_EPSILON {
		guess = Vector{1, 0, 0}
	}
	first := g.md.support(guess)
	g.simplex.AddVertex(first.w, first.a, first.b)
	g.ray = first.w

	for ; g.iterations < GJKEPA_GJK_MAX_ITERATIONS; g.iterations++ {
		rl := g.ray.Length()
		if rl < GJKEPA_GJK_MIN_DISTANCE {
			return true
		}

		sv, ok := g.fetchSupport(g.ray.Neg())
		if !ok {
			return false
		}

		// no progress toward the origin
		if rl*rl-g.ray.Dot(sv.w) <= GJKEPA_GJK_ACCURACY*rl*rl {
			return false
		}

		if g.simplex.InSimplex(sv.w) {
			return false
		}
		g.simplex.AddVertex(sv.w, sv.a, sv.b)

		v, valid := g.simplex.Closest()
		if !valid {
			// degenerate sub simplex
			g.failed = true
			return false
		}
		if g.simplex.FullSimplex() {
			return true
		}
		g.ray = v
	}
	g.failed = true
	return false
}

// encloseOrigin grows the final GJK simplex into a polytope with volume
// around the origin: a tetrahedron, or a hexahedron when the simplex was a
// triangle.
func (g *gjkSolver) encloseOrigin() ([]epaVertex, bool) {
	verts := make([]epaVertex, 0, 5)
	for i := 0; i < g.simplex.NumVertices(); i++ {
		w, a, b := g.simplex.Vertex(i)
		verts = append(verts, epaVertex{w: w, a: a, b: b})
	}

	if len(verts) == 1 {
		axes := [6]Vector{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
		for _, axis := range axes {
			sv := g.md.support(axis)
			if sv.w.DistanceSq(verts[0].w) > GJKEPA_GJK_MIN_DISTANCE {
				verts = append(verts, sv)
				break
			}
		}
		if len(verts) == 1 {
			return nil, false
		}
	}

	if len(verts) == 2 {
		d := verts[1].w.Sub(verts[0].w).Normalize()
		p, _ := PlaneSpace(d)
		rot := QuaternionAxisAngle(d, SIMD_PI/3)
		for i := 0; i < 6; i++ {
			sv := g.md.support(p)
			offset := sv.w.Sub(verts[0].w)
			if offset.Sub(d.Mult(offset.Dot(d))).LengthSq() > GJKEPA_GJK_MIN_DISTANCE {
				verts = append(verts, sv)
				break
			}
			p = rot.Rotate(p)
		}
		if len(verts) == 2 {
			return nil, false
		}
	}

	if len(verts) == 3 {
		n := verts[1].w.Sub(verts[0].w).Cross(verts[2].w.Sub(verts[0].w))
		if n.LengthSq() < GJKEPA_EPA_MIN_FACE_AREA {
			return nil, false
		}
		n = n.Normalize()
		up := g.md.support(n)
		down := g.md.support(n.Neg())
		upOk := math.Abs(up.w.Sub(verts[0].w).Dot(n)) > GJKEPA_GJK_MIN_DISTANCE
		downOk := math.Abs(down.w.Sub(verts[0].w).Dot(n)) > GJKEPA_GJK_MIN_DISTANCE
		switch {
		case upOk && downOk:
			verts = append(verts, up, down)
		case upOk:
			verts = append(verts, up)
		case downOk:
			verts = append(verts, down)
		default:
			return nil, false
		}
	}
	return verts, true
}

type epaFace struct {
	v        [3]int
	n        Vector
	d        float64
	obsolete bool
}

// epaEdge is directed. Every edge of the closed polytope is owned by exactly
// one face and its reverse by the neighbor.
type epaEdge struct {
	a, b int
}

// epaSolver expands a polytope around the origin until the face closest to
// the origin lies on the boundary of the Minkowski difference.
type epaSolver struct {
	md         *minkowskiDiff
	verts      []epaVertex
	faces      []epaFace
	edges      map[epaEdge]int
	horizon    []epaEdge
	stack      []int
	removed    []int
	iterations int
}

func (e *epaSolver) newFace(a, b, c int) bool {
	wa := e.verts[a].w
	n := e.verts[b].w.Sub(wa).Cross(e.verts[c].w.Sub(wa))
	l := n.Length()
	if l < GJKEPA_EPA_MIN_FACE_AREA {
		return false
	}
	n = n.Mult(1.0 / l)
	idx := len(e.faces)
	e.faces = append(e.faces, epaFace{v: [3]int{a, b, c}, n: n, d: n.Dot(wa)})
	e.edges[epaEdge{a, b}] = idx
	e.edges[epaEdge{b, c}] = idx
	e.edges[epaEdge{c, a}] = idx
	return true
}

func (e *epaSolver) initialFaces() bool {
	var centroid Vector
	for _, v := range e.verts {
		centroid = centroid.Add(v.w)
	}
	centroid = centroid.Mult(1.0 / float64(len(e.verts)))

	var tris [][3]int
	switch len(e.verts) {
	case 4:
		tris = [][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}}
	case 5:
		tris = [][3]int{{0, 1, 3}, {1, 2, 3}, {2, 0, 3}, {1, 0, 4}, {2, 1, 4}, {0, 2, 4}}
	default:
		return false
	}
	// the winding of the first face fixes the others
	wa := e.verts[tris[0][0]].w
	n := e.verts[tris[0][1]].w.Sub(wa).Cross(e.verts[tris[0][2]].w.Sub(wa))
	flip := n.Dot(wa.Sub(centroid)) < 0

	e.edges = make(map[epaEdge]int, 4*len(tris))
	for _, t := range tris {
		if flip {
			t[1], t[2] = t[2], t[1]
		}
		if !e.newFace(t[0], t[1], t[2]) {
			return false
		}
	}
	return true
}

func (e *epaSolver) closestFace() int {
	best := -1
	bestD := SIMD_INFINITY
	for i := range e.faces {
		if e.faces[i].obsolete {
			continue
		}
		if e.faces[i].d < bestD {
			bestD = e.faces[i].d
			best = i
		}
	}
	return best
}

// expand removes every face that sv sees, starting at best and walking
// across shared edges, and closes the hole with faces fanning out from sv.
// Faces within GJKEPA_EPA_PLANE_EPS of sv count as not visible so the
// removed region stays a connected disk.
func (e *epaSolver) expand(best int, sv epaVertex) bool {
	idx := len(e.verts)
	e.verts = append(e.verts, sv)
	e.horizon = e.horizon[:0]
	e.removed = append(e.removed[:0], best)
	e.stack = append(e.stack[:0], best)
	e.faces[best].obsolete = true

	for len(e.stack) > 0 {
		fi := e.stack[len(e.stack)-1]
		e.stack = e.stack[:len(e.stack)-1]
		f := e.faces[fi]
		for k := 0; k < 3; k++ {
			a, b := f.v[k], f.v[(k+1)%3]
			gi, ok := e.edges[epaEdge{b, a}]
			if !ok {
				// open polytope
				return false
			}
			g := &e.faces[gi]
			if g.obsolete {
				continue
			}
			if g.n.Dot(sv.w)-g.d > GJKEPA_EPA_PLANE_EPS {
				g.obsolete = true
				e.removed = append(e.removed, gi)
				e.stack = append(e.stack, gi)
				continue
			}
			e.horizon = append(e.horizon, epaEdge{a, b})
		}
	}

	for _, fi := range e.removed {
		f := e.faces[fi]
		for k := 0; k < 3; k++ {
			edge := epaEdge{f.v[k], f.v[(k+1)%3]}
			if e.edges[edge] == fi {
				delete(e.edges, edge)
			}
		}
	}
	for _, edge := range e.horizon {
		if !e.newFace(edge.a, edge.b, idx) {
			return false
		}
		if e.faces[len(e.faces)-1].d < -GJKEPA_EPA_PLANE_EPS {
			// origin left the polytope
			return false
		}
	}
	return true
}

// evaluate runs the expansion. When the polytope degenerates before the
// accuracy is reached the closest face found so far is reported. Running out
// of iterations is a failure.
func (e *epaSolver) evaluate(result *GjkEpaResult) {
	result.Status = GJKEPA_EPA_FAILED
	if !e.initialFaces() {
		return
	}
	for e.iterations = 0; e.iterations < GJKEPA_EPA_MAX_ITERATIONS; e.iterations++ {
		best := e.closestFace()
		if best < 0 {
			return
		}
		face := e.faces[best]
		sv := e.md.support(face.n)
		if sv.w.Dot(face.n)-face.d < GJKEPA_EPA_ACCURACY || !e.expand(best, sv) {
			e.finish(face, result)
			return
		}
	}
}

func (e *epaSolver) finish(face epaFace, result *GjkEpaResult) {
	a := e.verts[face.v[0]]
	b := e.verts[face.v[1]]
	c := e.verts[face.v[2]]
	p := face.n.Mult(face.d)

	// barycentric coordinates of the projected origin
	wa := a.w.Sub(p)
	wb := b.w.Sub(p)
	wc := c.w.Sub(p)
	la := wb.Cross(wc).Dot(face.n)
	lb := wc.Cross(wa).Dot(face.n)
	lc := wa.Cross(wb).Dot(face.n)
	sum := la + lb + lc
	if sum <= SIMD_EPSILON*SIMD_EPSILON {
		la, lb, lc, sum = 1, 0, 0, 1
	}
	la, lb, lc = la/sum, lb/sum, lc/sum

	result.Status = GJKEPA_PENETRATING
	result.Witnesses[0] = a.a.Mult(la).Add(b.a.Mult(lb)).Add(c.a.Mult(lc))
	result.Witnesses[1] = a.b.Mult(la).Add(b.b.Mult(lb)).Add(c.b.Mult(lc))
	result.Normal = face.n.Neg()
	result.Depth = math.Max(face.d, 0)
}

// GjkEpaPenetration computes the penetration of two convex shapes including
// their margins. Separated shapes report GJKEPA_SEPARATED and their distance.
func GjkEpaPenetration(a ConvexShape, transA Transform, b ConvexShape, transB Transform, guess Vector) GjkEpaResult {
	md := &minkowskiDiff{a: a, b: b, transA: transA, transB: transB, margins: true}
	gjk := &gjkSolver{md: md}
	enclosed := gjk.evaluate(guess)

	result := GjkEpaResult{GjkIterations: gjk.iterations}
	if !enclosed {
		if gjk.failed {
			result.Status = GJKEPA_GJK_FAILED
			return result
		}
		result.Status = GJKEPA_SEPARATED
		result.Witnesses[0], result.Witnesses[1] = gjk.simplex.ComputePoints()
		result.Depth = gjk.ray.Length()
		result.Normal = gjk.ray.SafeNormalize()
		return result
	}

	verts, ok := gjk.encloseOrigin()
	if !ok {
		result.Status = GJKEPA_EPA_FAILED
		return result
	}
	epa := &epaSolver{md: md, verts: verts}
	epa.evaluate(&result)
	result.EpaIterations = epa.iterations
	return result
}

// GjkEpaDistance computes the distance of two convex shapes without margins.
func GjkEpaDistance(a ConvexShape, transA Transform, b ConvexShape, transB Transform, guess Vector) GjkEpaResult {
	md := &minkowskiDiff{a: a, b: b, transA: transA, transB: transB}
	gjk := &gjkSolver{md: md}
	enclosed := gjk.evaluate(guess)

	result := GjkEpaResult{GjkIterations: gjk.iterations}
	switch {
	case enclosed:
		result.Status = GJKEPA_PENETRATING
	case gjk.failed:
		result.Status = GJKEPA_GJK_FAILED
	default:
		result.Status = GJKEPA_SEPARATED
		result.Witnesses[0], result.Witnesses[1] = gjk.simplex.ComputePoints()
		delta := result.Witnesses[0].Sub(result.Witnesses[1])
		result.Depth = delta.Length()
		result.Normal = delta.SafeNormalize()
	}
	return result
}

// GjkEpaPenetrationDepthSolver is the penetration fallback of GjkPairDetector.
type GjkEpaPenetrationDepthSolver struct {
	LastStatus GjkEpaStatus
}

func (s *GjkEpaPenetrationDepthSolver) CalcPenDepth(_ *VoronoiSimplexSolver, a, b ConvexShape, transA, transB Transform) (v, pointOnA, pointOnB Vector, ok bool) {
	guess := transB.Origin.Sub(transA.Origin)

	res := GjkEpaPenetration(a, transA, b, transB, guess)
	s.LastStatus = res.Status
	if res.Status == GJKEPA_PENETRATING {
		return res.Normal, res.Witnesses[0], res.Witnesses[1], true
	}
	if res.Status != GJKEPA_SEPARATED {
		return Vector{}, Vector{}, Vector{}, false
	}

	res = GjkEpaDistance(a, transA, b, transB, guess)
	if res.Status == GJKEPA_SEPARATED {
		return res.Normal, res.Witnesses[0], res.Witnesses[1], false
	}
	return Vector{}, Vector{}, Vector{}, false
}
