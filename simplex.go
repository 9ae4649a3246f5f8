package bullet

const (
	VORONOI_SIMPLEX_MAX_VERTS = 5

	// Squared distance under which two simplex vertices are the same point.
	VORONOI_DEFAULT_EQUAL_VERTEX_THRESHOLD = 0.0001

	// Tetrahedra flatter than this are reported as degenerate.
	CATCH_DEGENERATE_TETRAHEDRON = 1e-4
)

const (
	vertA = 1 << iota
	vertB
	vertC
	vertD
)

// subSimplexResult is the closest point of a sub simplex to the origin in
// barycentric form.
type subSimplexResult struct {
	closestPointOnSimplex Vector
	usedVertices          int
	barycentric           [4]float64
	degenerate            bool
}

func (r *subSimplexResult) reset() {
	r.degenerate = false
	r.usedVertices = 0
	r.barycentric = [4]float64{}
}

func (r *subSimplexResult) setBarycentric(a, b, c, d float64) {
	r.barycentric = [4]float64{a, b, c, d}
}

func (r *subSimplexResult) isValid() bool {
	return r.barycentric[0] >= 0 && r.barycentric[1] >= 0 &&
		r.barycentric[2] >= 0 && r.barycentric[3] >= 0
}

// VoronoiSimplexSolver keeps the GJK simplex of up to 4 Minkowski points and
// their witnesses, and reduces it to the sub simplex closest to the origin
// using Voronoi region tests.
type VoronoiSimplexSolver struct {
	numVertices int

	simplexW [VORONOI_SIMPLEX_MAX_VERTS]Vector
	simplexP [VORONOI_SIMPLEX_MAX_VERTS]Vector
	simplexQ [VORONOI_SIMPLEX_MAX_VERTS]Vector

	cachedP1, cachedP2, cachedV, lastW Vector
	cachedValidClosest              bool
	cachedBC                        subSimplexResult
	needsUpdate                     bool

	EqualVertexThreshold float64
}

func NewVoronoiSimplexSolver() *VoronoiSimplexSolver {
	return &VoronoiSimplexSolver{EqualVertexThreshold: VORONOI_DEFAULT_EQUAL_VERTEX_THRESHOLD}
}

func (s *VoronoiSimplexSolver) Reset() {
	s.cachedValidClosest = false
	s.numVertices = 0
	s.needsUpdate = true
	s.lastW = Vector{SIMD_INFINITY, SIMD_INFINITY, SIMD_INFINITY}
	s.cachedBC.reset()
}

// AddVertex appends w = p - q with p on A and q on B.
func (s *VoronoiSimplexSolver) AddVertex(w, p, q Vector) {
	s.lastW = w
	s.needsUpdate = true
	s.simplexW[s.numVertices] = w
	s.simplexP[s.numVertices] = p
	s.simplexQ[s.numVertices] = q
	s.numVertices++
}

func (s *VoronoiSimplexSolver) NumVertices() int {
	return s.numVertices
}

func (s *VoronoiSimplexSolver) FullSimplex() bool {
	return s.numVertices == 4
}

func (s *VoronoiSimplexSolver) EmptySimplex() bool {
	return s.numVertices == 0
}

// Vertex returns the i-th simplex vertex and its witnesses.
func (s *VoronoiSimplexSolver) Vertex(i int) (w, p, q Vector) {
	return s.simplexW[i], s.simplexP[i], s.simplexQ[i]
}

// Degenerate reports whether the last closest point query hit a zero area or
// zero volume sub simplex.
func (s *VoronoiSimplexSolver) Degenerate() bool {
	return s.cachedBC.degenerate
}

func (s *VoronoiSimplexSolver) removeVertex(index int) {
	s.numVertices--
	s.simplexW[index] = s.simplexW[s.numVertices]
	s.simplexP[index] = s.simplexP[s.numVertices]
	s.simplexQ[index] = s.simplexQ[s.numVertices]
}

func (s *VoronoiSimplexSolver) reduceVertices(used int) {
	if s.numVertices >= 4 && used&vertD == 0 {
		s.removeVertex(3)
	}
	if s.numVertices >= 3 && used&vertC == 0 {
		s.removeVertex(2)
	}
	if s.numVertices >= 2 && used&vertB == 0 {
		s.removeVertex(1)
	}
	if s.numVertices >= 1 && used&vertA == 0 {
		s.removeVertex(0)
	}
}

// Closest returns the point of the simplex closest to the origin. The second
// result is false when the simplex is degenerate.
func (s *VoronoiSimplexSolver) Closest() (Vector, bool) {
	ok := s.updateClosestVectorAndPoints()
	return s.cachedV, ok
}

// MaxVertex returns the largest squared length among the simplex points.
func (s *VoronoiSimplexSolver) MaxVertex() float64 {
	var max float64
	for i := 0; i < s.numVertices; i++ {
		if l2 := s.simplexW[i].LengthSq(); l2 > max {
			max = l2
		}
	}
	return max
}

// InSimplex reports whether w is already part of the simplex.
func (s *VoronoiSimplexSolver) InSimplex(w Vector) bool {
	for i := 0; i < s.numVertices; i++ {
		if s.simplexW[i].DistanceSq(w) <= s.EqualVertexThreshold {
			return true
		}
	}
	return w == s.lastW
}

// BackupClosest returns the last valid closest point.
func (s *VoronoiSimplexSolver) BackupClosest() Vector {
	return s.cachedV
}

// ComputePoints returns the witness points on A and B of the closest point.
func (s *VoronoiSimplexSolver) ComputePoints() (p1, p2 Vector) {
	s.updateClosestVectorAndPoints()
	return s.cachedP1, s.cachedP2
}

func (s *VoronoiSimplexSolver) updateClosestVectorAndPoints() bool {
	if !s.needsUpdate {
		return s.cachedValidClosest
	}
	s.cachedBC.reset()
	s.needsUpdate = false

	switch s.numVertices {
	case 0:
		s.cachedValidClosest = false
	case 1:
		s.cachedP1 = s.simplexP[0]
		s.cachedP2 = s.simplexQ[0]
		s.cachedV = s.cachedP1.Sub(s.cachedP2)
		s.cachedBC.reset()
		s.cachedBC.setBarycentric(1, 0, 0, 0)
		s.cachedValidClosest = s.cachedBC.isValid()
	case 2:
		from := s.simplexW[0]
		to := s.simplexW[1]
		diff := from.Neg()
		v := to.Sub(from)
		t := v.Dot(diff)

		if t > 0 {
			dotVV := v.Dot(v)
			if t < dotVV {
				t /= dotVV
				s.cachedBC.usedVertices |= vertA | vertB
			} else {
				t = 1
				s.cachedBC.usedVertices |= vertB
			}
		} else {
			t = 0
			s.cachedBC.usedVertices |= vertA
		}
		s.cachedBC.setBarycentric(1-t, t, 0, 0)

		s.cachedP1 = s.simplexP[0].Add(s.simplexP[1].Sub(s.simplexP[0]).Mult(t))
		s.cachedP2 = s.simplexQ[0].Add(s.simplexQ[1].Sub(s.simplexQ[0]).Mult(t))
		s.cachedV = s.cachedP1.Sub(s.cachedP2)

		s.reduceVertices(s.cachedBC.usedVertices)
		s.cachedValidClosest = s.cachedBC.isValid()
	case 3:
		closestPtPointTriangle(s.simplexW[0], s.simplexW[1], s.simplexW[2], &s.cachedBC)
		if s.cachedBC.degenerate {
			s.cachedValidClosest = false
			break
		}
		s.cachedP1, s.cachedP2 = s.interpolateWitnesses(3)
		s.cachedV = s.cachedP1.Sub(s.cachedP2)

		s.reduceVertices(s.cachedBC.usedVertices)
		s.cachedValidClosest = s.cachedBC.isValid()
	case 4:
		hasSeparation := closestPtPointTetrahedron(s.simplexW[0], s.simplexW[1], s.simplexW[2], s.simplexW[3], &s.cachedBC)
		if s.cachedBC.degenerate {
			s.cachedValidClosest = false
			break
		}
		if !hasSeparation {
			// the origin is inside the tetrahedron
			s.cachedValidClosest = true
			s.cachedV = Vector{}
			break
		}
		s.cachedP1, s.cachedP2 = s.interpolateWitnesses(4)
		s.cachedV = s.cachedP1.Sub(s.cachedP2)
		s.reduceVertices(s.cachedBC.usedVertices)
		s.cachedValidClosest = s.cachedBC.isValid()
	default:
		s.cachedValidClosest = false
	}
	return s.cachedValidClosest
}

func (s *VoronoiSimplexSolver) interpolateWitnesses(n int) (p1, p2 Vector) {
	for i := 0; i < n; i++ {
		p1 = p1.Add(s.simplexP[i].Mult(s.cachedBC.barycentric[i]))
		p2 = p2.Add(s.simplexQ[i].Mult(s.cachedBC.barycentric[i]))
	}
	return
}

// closestPtPointTriangle finds the point of triangle abc closest to the origin.
func closestPtPointTriangle(a, b, c Vector, result *subSimplexResult) {
	result.usedVertices = 0

	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := a.Neg()
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		result.closestPointOnSimplex = a
		result.usedVertices |= vertA
		result.setBarycentric(1, 0, 0, 0)
		return
	}

	bp := b.Neg()
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		result.closestPointOnSimplex = b
		result.usedVertices |= vertB
		result.setBarycentric(0, 1, 0, 0)
		return
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		result.closestPointOnSimplex = a.Add(ab.Mult(v))
		result.usedVertices |= vertA | vertB
		result.setBarycentric(1-v, v, 0, 0)
		return
	}

	cp := c.Neg()
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		result.closestPointOnSimplex = c
		result.usedVertices |= vertC
		result.setBarycentric(0, 0, 1, 0)
		return
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		result.closestPointOnSimplex = a.Add(ac.Mult(w))
		result.usedVertices |= vertA | vertC
		result.setBarycentric(1-w, 0, w, 0)
		return
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		result.closestPointOnSimplex = b.Add(c.Sub(b).Mult(w))
		result.usedVertices |= vertB | vertC
		result.setBarycentric(0, 1-w, w, 0)
		return
	}

	// inside the face region
	sum := va + vb + vc
	if sum <= SIMD_EPSILON*SIMD_EPSILON {
		result.degenerate = true
		return
	}
	denom := 1.0 / sum
	v := vb * denom
	w := vc * denom
	result.closestPointOnSimplex = a.Add(ab.Mult(v)).Add(ac.Mult(w))
	result.usedVertices |= vertA | vertB | vertC
	result.setBarycentric(1-v-w, v, w, 0)
}

// pointOutsideOfPlane returns 1 when the origin and d are on opposite sides of
// plane abc, 0 when on the same side and -1 for a degenerate tetrahedron.
func pointOutsideOfPlane(a, b, c, d Vector) int {
	normal := b.Sub(a).Cross(c.Sub(a))
	signp := a.Neg().Dot(normal)
	signd := d.Sub(a).Dot(normal)

	if signd*signd < CATCH_DEGENERATE_TETRAHEDRON*CATCH_DEGENERATE_TETRAHEDRON {
		return -1
	}
	if signp*signd < 0 {
		return 1
	}
	return 0
}

// closestPtPointTetrahedron returns false when the origin is inside abcd.
func closestPtPointTetrahedron(a, b, c, d Vector, final *subSimplexResult) bool {
	final.closestPointOnSimplex = Vector{}
	final.usedVertices = vertA | vertB | vertC | vertD

	outABC := pointOutsideOfPlane(a, b, c, d)
	outACD := pointOutsideOfPlane(a, c, d, b)
	outADB := pointOutsideOfPlane(a, d, b, c)
	outBDC := pointOutsideOfPlane(b, d, c, a)

	if outABC < 0 || outACD < 0 || outADB < 0 || outBDC < 0 {
		final.degenerate = true
		return false
	}
	if outABC == 0 && outACD == 0 && outADB == 0 && outBDC == 0 {
		return false
	}

	bestSqDist := SIMD_INFINITY
	var temp subSimplexResult

	try := func(out int, p0, p1, p2 Vector, map0, map1, map2 int, bits [3]int) {
		if out == 0 {
			return
		}
		temp.reset()
		closestPtPointTriangle(p0, p1, p2, &temp)
		if temp.degenerate {
			return
		}
		q := temp.closestPointOnSimplex
		if sqDist := q.LengthSq(); sqDist < bestSqDist {
			bestSqDist = sqDist
			final.closestPointOnSimplex = q
			final.usedVertices = 0
			if temp.usedVertices&vertA != 0 {
				final.usedVertices |= bits[0]
			}
			if temp.usedVertices&vertB != 0 {
				final.usedVertices |= bits[1]
			}
			if temp.usedVertices&vertC != 0 {
				final.usedVertices |= bits[2]
			}
			final.barycentric = [4]float64{}
			final.barycentric[map0] = temp.barycentric[0]
			final.barycentric[map1] = temp.barycentric[1]
			final.barycentric[map2] = temp.barycentric[2]
		}
	}

	try(outABC, a, b, c, 0, 1, 2, [3]int{vertA, vertB, vertC})
	try(outACD, a, c, d, 0, 2, 3, [3]int{vertA, vertC, vertD})
	try(outADB, a, d, b, 0, 3, 1, [3]int{vertA, vertD, vertB})
	try(outBDC, b, d, c, 1, 3, 2, [3]int{vertB, vertD, vertC})

	if bestSqDist == SIMD_INFINITY {
		final.degenerate = true
		return false
	}
	return true
}
