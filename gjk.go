package bullet

import "math"

const (
	// Iteration cap of the closest point search.
	GJK_MAX_ITERATIONS = 1000

	// Relative convergence tolerance, squared.
	GJK_REL_ERROR2 = 1.0e-6

	// Separation below which a degenerate GJK result is double checked by the
	// penetration solver.
	GJK_EPA_PENETRATION_TOLERANCE = 0.001
)

// Degenerate simplex codes reported by GjkPairDetector.
const (
	GJK_OK = iota
	GJK_DEGENERATE_IN_SIMPLEX
	GJK_DEGENERATE_NO_PROGRESS
	GJK_DEGENERATE_INVALID_CLOSEST
	GJK_DEGENERATE_ZERO_AXIS
	GJK_DEGENERATE_SEPARATED
	GJK_DEGENERATE_ENCLOSED
	GJK_DEGENERATE_MAX_ITERATIONS
)

// ClosestPointInput is a query for GjkPairDetector.
type ClosestPointInput struct {
	TransformA, TransformB Transform
	// Pairs farther apart than this are not reported.
	MaximumDistanceSquared float64
}

// DiscreteCollisionDetectorResult receives the contacts of a narrow phase
// query. The normal points from B to A, the point is on B and the depth is
// negative when penetrating.
type DiscreteCollisionDetectorResult interface {
	AddContactPoint(normalOnBInWorld, pointInWorld Vector, depth float64)
}

// PenetrationDepthSolver computes a penetration normal and witness points when
// GJK cannot separate the shapes.
type PenetrationDepthSolver interface {
	CalcPenDepth(simplex *VoronoiSimplexSolver, a, b ConvexShape, transA, transB Transform) (v, pointOnA, pointOnB Vector, ok bool)
}

// GjkPairDetector computes the closest points of two convex shapes.
type GjkPairDetector struct {
	shapeA, shapeB    ConvexShape
	simplex           *VoronoiSimplexSolver
	penetrationSolver PenetrationDepthSolver

	cachedSeparatingAxis     Vector
	cachedSeparatingDistance float64

	// Diagnostics of the last query.
	CurIter           int
	DegenerateSimplex int
	LastUsedMethod    int
}

func NewGjkPairDetector(a, b ConvexShape, simplex *VoronoiSimplexSolver, penetration PenetrationDepthSolver) *GjkPairDetector {
	if simplex == nil {
		simplex = NewVoronoiSimplexSolver()
	}
	return &GjkPairDetector{
		shapeA:               a,
		shapeB:               b,
		simplex:              simplex,
		penetrationSolver:    penetration,
		cachedSeparatingAxis: Vector{0, 1, 0},
	}
}

func (g *GjkPairDetector) SetShapes(a, b ConvexShape) {
	g.shapeA = a
	g.shapeB = b
}

func (g *GjkPairDetector) CachedSeparatingAxis() Vector {
	return g.cachedSeparatingAxis
}

func (g *GjkPairDetector) CachedSeparatingDistance() float64 {
	return g.cachedSeparatingDistance
}

// GetClosestPoints reports at most one contact to output. It never loops past
// GJK_MAX_ITERATIONS.
func (g *GjkPairDetector) GetClosestPoints(input *ClosestPointInput, output DiscreteCollisionDetectorResult) {
	g.cachedSeparatingDistance = 0

	var distance float64
	var normalInB, pointOnA, pointOnB Vector

	localTransA := input.TransformA
	localTransB := input.TransformB
	positionOffset := localTransA.Origin.Add(localTransB.Origin).Mult(0.5)
	localTransA.Origin = localTransA.Origin.Sub(positionOffset)
	localTransB.Origin = localTransB.Origin.Sub(positionOffset)

	marginA := g.shapeA.Margin()
	marginB := g.shapeB.Margin()

	g.CurIter = 0
	g.cachedSeparatingAxis = Vector{0, 1, 0}
	g.DegenerateSimplex = GJK_OK
	g.LastUsedMethod = -1

	isValid := false
	checkSimplex := false
	checkPenetration := true

	squaredDistance := LARGE_FLOAT
	margin := marginA + marginB

	g.simplex.Reset()

	for {
		separatingAxisInA := input.TransformA.InvVect(g.cachedSeparatingAxis.Neg())
		separatingAxisInB := input.TransformB.InvVect(g.cachedSeparatingAxis)

		pInA := g.shapeA.LocalSupport(separatingAxisInA)
		qInB := g.shapeB.LocalSupport(separatingAxisInB)

		pWorld := localTransA.Point(pInA)
		qWorld := localTransB.Point(qInB)

		w := pWorld.Sub(qWorld)
		delta := g.cachedSeparatingAxis.Dot(w)

		// they don't overlap, even with margins
		if delta > 0 && delta*delta > squaredDistance*input.MaximumDistanceSquared {
			g.DegenerateSimplex = GJK_DEGENERATE_SEPARATED
			checkSimplex = true
			break
		}

		// the new point is already in the simplex, or we didn't come any closer
		if g.simplex.InSimplex(w) {
			g.DegenerateSimplex = GJK_DEGENERATE_IN_SIMPLEX
			checkSimplex = true
			break
		}

		f0 := squaredDistance - delta
		f1 := squaredDistance * GJK_REL_ERROR2
		if f0 <= f1 {
			g.DegenerateSimplex = GJK_DEGENERATE_NO_PROGRESS
			checkSimplex = true
			break
		}

		g.simplex.AddVertex(w, pWorld, qWorld)

		newCachedSeparatingAxis, ok := g.simplex.Closest()
		if !ok {
			g.DegenerateSimplex = GJK_DEGENERATE_INVALID_CLOSEST
			checkSimplex = true
			break
		}

		if newCachedSeparatingAxis.LengthSq() < GJK_REL_ERROR2 {
			g.cachedSeparatingAxis = newCachedSeparatingAxis
			g.DegenerateSimplex = GJK_DEGENERATE_ZERO_AXIS
			checkSimplex = true
			break
		}

		previousSquaredDistance := squaredDistance
		squaredDistance = newCachedSeparatingAxis.LengthSq()

		if previousSquaredDistance-squaredDistance <= SIMD_EPSILON*previousSquaredDistance {
			g.DegenerateSimplex = GJK_DEGENERATE_NO_PROGRESS
			checkSimplex = true
			break
		}

		g.cachedSeparatingAxis = newCachedSeparatingAxis

		g.CurIter++
		if g.CurIter > GJK_MAX_ITERATIONS {
			g.DegenerateSimplex = GJK_DEGENERATE_MAX_ITERATIONS
			break
		}

		if g.simplex.FullSimplex() {
			g.DegenerateSimplex = GJK_DEGENERATE_ENCLOSED
			break
		}
	}

	if checkSimplex {
		pointOnA, pointOnB = g.simplex.ComputePoints()
		normalInB = g.cachedSeparatingAxis

		lenSqr := g.cachedSeparatingAxis.LengthSq()
		if lenSqr < GJK_REL_ERROR2 {
			g.DegenerateSimplex = GJK_DEGENERATE_ZERO_AXIS
		}
		if lenSqr > SIMD_EPSILON*SIMD_EPSILON {
			rlen := 1.0 / math.Sqrt(lenSqr)
			normalInB = normalInB.Mult(rlen)
			s := math.Sqrt(squaredDistance)

			pointOnA = pointOnA.Sub(g.cachedSeparatingAxis.Mult(marginA / s))
			pointOnB = pointOnB.Add(g.cachedSeparatingAxis.Mult(marginB / s))
			distance = 1.0/rlen - margin
			isValid = true
			g.LastUsedMethod = 1
		} else {
			g.LastUsedMethod = 2
		}
	}

	catchDegeneratePenetrationCase := g.penetrationSolver != nil &&
		g.DegenerateSimplex != GJK_OK && distance+margin < GJK_EPA_PENETRATION_TOLERANCE

	if checkPenetration && (!isValid || catchDegeneratePenetrationCase) && g.penetrationSolver != nil {
		v, tmpPointOnA, tmpPointOnB, ok := g.penetrationSolver.CalcPenDepth(g.simplex, g.shapeA, g.shapeB, localTransA, localTransB)
		if !v.IsZero() {
			g.cachedSeparatingAxis = v
		}
		if ok {
			tmpNormalInB := tmpPointOnB.Sub(tmpPointOnA)
			lenSqr := tmpNormalInB.LengthSq()
			if lenSqr <= SIMD_EPSILON*SIMD_EPSILON {
				tmpNormalInB = g.cachedSeparatingAxis
				lenSqr = tmpNormalInB.LengthSq()
			}
			if lenSqr > SIMD_EPSILON*SIMD_EPSILON {
				tmpNormalInB = tmpNormalInB.Mult(1.0 / math.Sqrt(lenSqr))
				distance2 := -tmpPointOnA.Sub(tmpPointOnB).Length()
				g.LastUsedMethod = 3
				if !isValid || distance2 < distance {
					distance = distance2
					pointOnA = tmpPointOnA
					pointOnB = tmpPointOnB
					normalInB = tmpNormalInB
					isValid = true
				} else {
					g.LastUsedMethod = 8
				}
			} else {
				g.LastUsedMethod = 9
			}
		} else if !v.IsZero() {
			// the penetration solver found the shapes separated, it returned
			// closest points of the shapes without margin
			distance2 := tmpPointOnA.Sub(tmpPointOnB).Length() - margin
			if !isValid || distance2 < distance {
				n := v.Normalize()
				distance = distance2
				pointOnA = tmpPointOnA.Sub(n.Mult(marginA))
				pointOnB = tmpPointOnB.Add(n.Mult(marginB))
				normalInB = n
				isValid = true
				g.LastUsedMethod = 6
			} else {
				g.LastUsedMethod = 5
			}
		}
	}

	if isValid && (distance < 0 || distance*distance < input.MaximumDistanceSquared) {
		g.cachedSeparatingAxis = normalInB
		g.cachedSeparatingDistance = distance
		output.AddContactPoint(normalInB, pointOnB.Add(positionOffset), distance)
	}
}

// ClosestPoints is the result of GetClosestPoints.
type ClosestPoints struct {
	// Normal points from B to A.
	Normal   Vector
	PointOnA Vector
	PointOnB Vector
	// Distance is negative when the shapes penetrate.
	Distance float64
}

// PointCollector keeps the deepest contact it is given.
type PointCollector struct {
	NormalOnBInWorld Vector
	PointInWorld     Vector
	Distance         float64
	HasResult        bool
}

func (c *PointCollector) AddContactPoint(normalOnBInWorld, pointInWorld Vector, depth float64) {
	if !c.HasResult || depth < c.Distance {
		c.HasResult = true
		c.NormalOnBInWorld = normalOnBInWorld
		c.PointInWorld = pointInWorld
		c.Distance = depth
	}
}

// GetClosestPoints runs GJK with the EPA fallback between two convex shapes.
// The second result is false when the shapes are farther apart than
// maxDistance or the query did not converge.
func GetClosestPoints(a ConvexShape, transA Transform, b ConvexShape, transB Transform, maxDistance float64) (ClosestPoints, bool) {
	detector := NewGjkPairDetector(a, b, nil, &GjkEpaPenetrationDepthSolver{})
	var collector PointCollector
	limit := maxDistance + a.Margin() + b.Margin()
	detector.GetClosestPoints(&ClosestPointInput{
		TransformA:             transA,
		TransformB:             transB,
		MaximumDistanceSquared: limit * limit,
	}, &collector)
	if !collector.HasResult || collector.Distance > maxDistance {
		return ClosestPoints{}, false
	}
	return ClosestPoints{
		Normal:   collector.NormalOnBInWorld,
		PointOnB: collector.PointInWorld,
		PointOnA: collector.PointInWorld.Add(collector.NormalOnBInWorld.Mult(collector.Distance)),
		Distance: collector.Distance,
	}, true
}
