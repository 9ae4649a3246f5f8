package bullet

import "math"

// Tolerances that make the separating axis test prefer face contacts over
// nearly equivalent alternatives.
const (
	boxRelativeTolerance = 0.98
	boxAbsoluteTolerance = 0.001
)

const (
	boxFaceA = iota
	boxFaceB
	boxEdge
)

type boxAxisResult struct {
	kind       int
	i, j       int
	separation float64
	// points from B to A
	normal Vector
}

// boxBoxAlgorithm finds the separating axis of the 15 candidates with the
// least penetration and builds the contact polygon by clipping the incident
// face against the side planes of the reference face.
type boxBoxAlgorithm struct {
	dispatcher  *CollisionDispatcher
	manifold    *PersistentManifold
	ownManifold bool
}

func newBoxBoxAlgorithm(d *CollisionDispatcher, body0, body1 *CollisionObjectWrapper, manifold *PersistentManifold) CollisionAlgorithm {
	return &boxBoxAlgorithm{dispatcher: d, manifold: manifold}
}

func (a *boxBoxAlgorithm) ProcessCollision(body0, body1 *CollisionObjectWrapper, info *DispatcherInfo, result *ManifoldResult) {
	if a.manifold == nil {
		a.manifold = a.dispatcher.GetNewManifold(body0.Object, body1.Object)
		a.ownManifold = true
	}
	result.SetPersistentManifold(a.manifold)

	boxA := body0.Shape.(*BoxShape)
	boxB := body1.Shape.(*BoxShape)
	collideBoxes(boxA.HalfExtentsWithMargin(), body0.Transform, boxB.HalfExtentsWithMargin(), body1.Transform,
		a.manifold.ContactBreakingThreshold(), result)

	if a.ownManifold {
		result.RefreshContactPoints()
	}
}

func (a *boxBoxAlgorithm) Release() {
	if a.ownManifold && a.manifold != nil {
		a.dispatcher.ReleaseManifold(a.manifold)
		a.manifold = nil
	}
}

func boxProjectedRadius(basis Matrix3, half Vector, axis Vector) float64 {
	return half[0]*math.Abs(basis.Col(0).Dot(axis)) +
		half[1]*math.Abs(basis.Col(1).Dot(axis)) +
		half[2]*math.Abs(basis.Col(2).Dot(axis))
}

func signOf(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// boxSeparatingAxis returns the axis of least penetration, or false when an
// axis separates the boxes by more than threshold.
func boxSeparatingAxis(halfA Vector, trA Transform, halfB Vector, trB Transform, threshold float64) (boxAxisResult, bool) {
	t := trA.Origin.Sub(trB.Origin)

	test := func(axis Vector, kind, i, j int) (boxAxisResult, bool, bool) {
		l := axis.Length()
		if l < 1e-6 {
			return boxAxisResult{}, false, true
		}
		axis = axis.Mult(1 / l)
		d := t.Dot(axis)
		sep := math.Abs(d) - boxProjectedRadius(trA.Basis, halfA, axis) - boxProjectedRadius(trB.Basis, halfB, axis)
		if sep > threshold {
			return boxAxisResult{}, false, false
		}
		return boxAxisResult{kind: kind, i: i, j: j, separation: sep, normal: axis.Mult(signOf(d))}, true, true
	}

	bestFaceA := boxAxisResult{separation: -math.MaxFloat64}
	for i := 0; i < 3; i++ {
		r, valid, ok := test(trA.Basis.Col(i), boxFaceA, i, 0)
		if !ok {
			return r, false
		}
		if valid && r.separation > bestFaceA.separation {
			bestFaceA = r
		}
	}

	bestFaceB := boxAxisResult{separation: -math.MaxFloat64}
	for j := 0; j < 3; j++ {
		r, valid, ok := test(trB.Basis.Col(j), boxFaceB, 0, j)
		if !ok {
			return r, false
		}
		if valid && r.separation > bestFaceB.separation {
			bestFaceB = r
		}
	}

	bestEdge := boxAxisResult{separation: -math.MaxFloat64}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r, valid, ok := test(trA.Basis.Col(i).Cross(trB.Basis.Col(j)), boxEdge, i, j)
			if !ok {
				return r, false
			}
			if valid && r.separation > bestEdge.separation {
				bestEdge = r
			}
		}
	}

	best := bestFaceA
	if bestFaceB.separation > boxRelativeTolerance*best.separation+boxAbsoluteTolerance {
		best = bestFaceB
	}
	if bestEdge.separation > boxRelativeTolerance*best.separation+boxAbsoluteTolerance {
		best = bestEdge
	}
	return best, true
}

// collideBoxes reports the contacts of two boxes given their half extents.
func collideBoxes(halfA Vector, trA Transform, halfB Vector, trB Transform, threshold float64, out DiscreteCollisionDetectorResult) {
	axis, ok := boxSeparatingAxis(halfA, trA, halfB, trB, threshold)
	if !ok {
		return
	}
	n := axis.normal

	switch axis.kind {
	case boxFaceA:
		// reference face on A faces B
		clipBoxFaces(halfA, trA, axis.i, n.Neg(), halfB, trB, threshold, func(p Vector, dist float64) {
			out.AddContactPoint(n, p, dist)
		})
	case boxFaceB:
		clipBoxFaces(halfB, trB, axis.j, n, halfA, trA, threshold, func(p Vector, dist float64) {
			out.AddContactPoint(n, p.Sub(n.Mult(dist)), dist)
		})
	case boxEdge:
		ptA, ptB := boxEdgeContact(halfA, trA, axis.i, halfB, trB, axis.j, n)
		out.AddContactPoint(n, ptB, ptA.Sub(ptB).Dot(n))
	}
}

// clipBoxFaces clips the incident face of box inc against the reference face
// of box ref along axis refAxis with outward normal refNormal. emit receives
// the clipped incident points and their signed distance to the reference face.
func clipBoxFaces(halfRef Vector, trRef Transform, refAxis int, refNormal Vector, halfInc Vector, trInc Transform, threshold float64, emit func(p Vector, dist float64)) {
	incident := boxIncidentFace(halfInc, trInc, refNormal)

	u := (refAxis + 1) % 3
	v := (refAxis + 2) % 3
	axisU := trRef.Basis.Col(u)
	axisV := trRef.Basis.Col(v)
	center := trRef.Origin

	poly := incident[:]
	poly = clipPolygon(poly, axisU, axisU.Dot(center)+halfRef[u])
	poly = clipPolygon(poly, axisU.Neg(), -axisU.Dot(center)+halfRef[u])
	poly = clipPolygon(poly, axisV, axisV.Dot(center)+halfRef[v])
	poly = clipPolygon(poly, axisV.Neg(), -axisV.Dot(center)+halfRef[v])

	faceCenter := center.Add(refNormal.Mult(halfRef[refAxis]))
	for _, p := range poly {
		dist := p.Sub(faceCenter).Dot(refNormal)
		if dist <= threshold {
			emit(p, dist)
		}
	}
}

// boxIncidentFace returns the face of the box most anti-parallel to normal,
// in winding order.
func boxIncidentFace(half Vector, tr Transform, normal Vector) [4]Vector {
	best := 0
	bestDot := 0.0
	for k := 0; k < 3; k++ {
		if d := tr.Basis.Col(k).Dot(normal); math.Abs(d) > math.Abs(bestDot) {
			best = k
			bestDot = d
		}
	}

	u := (best + 1) % 3
	v := (best + 2) % 3
	c := tr.Origin.Add(tr.Basis.Col(best).Mult(-signOf(bestDot) * half[best]))
	du := tr.Basis.Col(u).Mult(half[u])
	dv := tr.Basis.Col(v).Mult(half[v])

	return [4]Vector{
		c.Add(du).Add(dv),
		c.Sub(du).Add(dv),
		c.Sub(du).Sub(dv),
		c.Add(du).Sub(dv),
	}
}

// clipPolygon keeps the part of poly with p.n <= offset.
func clipPolygon(poly []Vector, n Vector, offset float64) []Vector {
	if len(poly) == 0 {
		return poly
	}
	out := make([]Vector, 0, len(poly)+2)
	prev := poly[len(poly)-1]
	prevDist := prev.Dot(n) - offset
	for _, cur := range poly {
		curDist := cur.Dot(n) - offset
		if curDist <= 0 {
			if prevDist > 0 {
				out = append(out, prev.Lerp(cur, prevDist/(prevDist-curDist)))
			}
			out = append(out, cur)
		} else if prevDist <= 0 {
			out = append(out, prev.Lerp(cur, prevDist/(prevDist-curDist)))
		}
		prev = cur
		prevDist = curDist
	}
	return out
}

// boxEdgeContact returns the closest points of edge i of A and edge j of B
// that face each other along n.
func boxEdgeContact(halfA Vector, trA Transform, i int, halfB Vector, trB Transform, j int, n Vector) (Vector, Vector) {
	pA := trA.Origin
	pB := trB.Origin
	for k := 0; k < 3; k++ {
		if k != i {
			axis := trA.Basis.Col(k)
			pA = pA.Add(axis.Mult(-signOf(axis.Dot(n)) * halfA[k]))
		}
		if k != j {
			axis := trB.Basis.Col(k)
			pB = pB.Add(axis.Mult(signOf(axis.Dot(n)) * halfB[k]))
		}
	}

	dA := trA.Basis.Col(i)
	dB := trB.Basis.Col(j)
	r := pA.Sub(pB)
	b := dA.Dot(dB)
	c := dA.Dot(r)
	f := dB.Dot(r)

	var s float64
	if denom := 1 - b*b; denom > SIMD_EPSILON {
		s = Clamp((b*f-c)/denom, -halfA[i], halfA[i])
	}
	u := Clamp(b*s+f, -halfB[j], halfB[j])
	s = Clamp(b*u-c, -halfA[i], halfA[i])

	return pA.Add(dA.Mult(s)), pB.Add(dB.Mult(u))
}
