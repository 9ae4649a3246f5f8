package bullet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClosestPoints_Spheres(t *testing.T) {
	a := NewSphereShape(1)
	b := NewSphereShape(1)

	res, ok := GetClosestPoints(a, NewTransformIdentity(), b, NewTransformTranslate(Vector{5, 0, 0}), 10)
	require.True(t, ok)
	assert.InDelta(t, 3, res.Distance, 1e-6)
	assert.True(t, res.Normal.Near(Vector{-1, 0, 0}, 1e-6), "%v", res.Normal)
	assert.True(t, res.PointOnB.Near(Vector{4, 0, 0}, 1e-6), "%v", res.PointOnB)
	assert.True(t, res.PointOnA.Near(Vector{1, 0, 0}, 1e-6), "%v", res.PointOnA)

	_, ok = GetClosestPoints(a, NewTransformIdentity(), b, NewTransformTranslate(Vector{5, 0, 0}), 1)
	assert.False(t, ok)
}

func TestGetClosestPoints_BoxSphere(t *testing.T) {
	box := NewBoxShape(Vector{0.5, 0.5, 0.5})
	sphere := NewSphereShape(0.5)

	res, ok := GetClosestPoints(box, NewTransformIdentity(), sphere, NewTransformTranslate(Vector{0, 2, 0}), 10)
	require.True(t, ok)
	assert.InDelta(t, 1, res.Distance, 1e-4)
	assert.True(t, res.Normal.Near(Vector{0, -1, 0}, 1e-4), "%v", res.Normal)
}

func TestGetClosestPoints_PenetratingBoxes(t *testing.T) {
	a := NewBoxShape(Vector{0.5, 0.5, 0.5})
	b := NewBoxShape(Vector{0.5, 0.5, 0.5})

	res, ok := GetClosestPoints(a, NewTransformIdentity(), b, NewTransformTranslate(Vector{0.9, 0, 0}), 0)
	require.True(t, ok)
	assert.InDelta(t, -0.1, res.Distance, 2*GJKEPA_EPA_ACCURACY)
	assert.True(t, res.Normal.Near(Vector{-1, 0, 0}, 0.01), "%v", res.Normal)
}

func TestGjkEpaDistance_Accuracy(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	box := NewBoxShape(Vector{0.5, 0.5, 0.5})
	sphere := NewSphereShape(0.25)

	for i := 0; i < 100; i++ {
		dir := Vector{r.Float64()*2 - 1, r.Float64()*2 - 1, r.Float64()*2 - 1}.SafeNormalize()
		center := dir.Mult(2 + r.Float64()*3)

		res := GjkEpaDistance(box, NewTransformIdentity(), sphere, NewTransformTranslate(center), dir)
		require.Equal(t, GJKEPA_SEPARATED, res.Status, "%v", center)

		// without margins the sphere is its center point
		inner := box.HalfExtentsWithoutMargin()
		closest := center.Max(inner.Neg()).Min(inner)
		assert.InDelta(t, center.Distance(closest), res.Depth, 1e-5, "%v", center)
		assert.LessOrEqual(t, res.GjkIterations, GJKEPA_GJK_MAX_ITERATIONS)
	}
}

func TestGjkEpaPenetration(t *testing.T) {
	a := NewBoxShape(Vector{1, 1, 1})
	b := NewSphereShape(0.5)

	res := GjkEpaPenetration(a, NewTransformIdentity(), b, NewTransformTranslate(Vector{0, 1.3, 0}), Vector{0, 1, 0})
	require.Equal(t, GJKEPA_PENETRATING, res.Status)
	assert.InDelta(t, 0.2, res.Depth, 2*GJKEPA_EPA_ACCURACY)
	assert.True(t, res.Normal.Near(Vector{0, -1, 0}, 0.01), "%v", res.Normal)
	assert.LessOrEqual(t, res.EpaIterations, GJKEPA_EPA_MAX_ITERATIONS)

	res = GjkEpaPenetration(a, NewTransformIdentity(), b, NewTransformTranslate(Vector{0, 3, 0}), Vector{0, 1, 0})
	assert.Equal(t, GJKEPA_SEPARATED, res.Status)
	assert.InDelta(t, 1.5, res.Depth, 1e-5)
}

func unitHullBox() *ConvexHullShape {
	var points []Vector
	for _, x := range []float64{-0.5, 0.5} {
		for _, y := range []float64{-0.5, 0.5} {
			for _, z := range []float64{-0.5, 0.5} {
				points = append(points, Vector{x, y, z})
			}
		}
	}
	return NewConvexHullShape(points)
}

func TestGjkEpaPenetration_FaceContactSweep(t *testing.T) {
	box := NewBoxShape(Vector{0.5, 0.5, 0.5})
	hull := unitHullBox()
	// hull corners are rounded by the margin on top of the points
	hullHeight := 1 + 2*hull.Margin()

	for yaw := 0.1; yaw <= 1.0+1e-9; yaw += 0.1 {
		for _, offset := range []float64{0.90, 0.93, 0.96, 0.99} {
			trB := NewTransformRigid(Vector{0, offset, 0}, Vector{0, 1, 0}, yaw)

			res := GjkEpaPenetration(box, NewTransformIdentity(), box, trB, Vector{0, 1, 0})
			require.Equal(t, GJKEPA_PENETRATING, res.Status, "box yaw %.1f offset %.2f", yaw, offset)
			assert.InDelta(t, 1-offset, res.Depth, 2*GJKEPA_EPA_ACCURACY, "box yaw %.1f offset %.2f", yaw, offset)
			assert.True(t, res.Normal.Near(Vector{0, -1, 0}, 0.01), "box yaw %.1f offset %.2f: %v", yaw, offset, res.Normal)

			res = GjkEpaPenetration(hull, NewTransformIdentity(), hull, trB, trB.Origin)
			require.Equal(t, GJKEPA_PENETRATING, res.Status, "hull yaw %.1f offset %.2f", yaw, offset)
			assert.InDelta(t, hullHeight-offset, res.Depth, 2*GJKEPA_EPA_ACCURACY, "hull yaw %.1f offset %.2f", yaw, offset)
			assert.True(t, res.Normal.Near(Vector{0, -1, 0}, 0.01), "hull yaw %.1f offset %.2f: %v", yaw, offset, res.Normal)

			cp, ok := GetClosestPoints(hull, NewTransformIdentity(), hull, trB, 0)
			require.True(t, ok, "hull yaw %.1f offset %.2f", yaw, offset)
			assert.InDelta(t, offset-hullHeight, cp.Distance, 2*GJKEPA_EPA_ACCURACY, "hull yaw %.1f offset %.2f", yaw, offset)
		}
	}
}

func TestGjkEpaPenetration_AnalyticDepths(t *testing.T) {
	tilt := 0.5
	capsule := NewCapsuleShape(0.3, 1)
	hull := unitHullBox()
	hullHalf := 0.5 + hull.Margin()
	// a rotated frame for the hull, the sphere sits on its local +y face
	hullFrame := NewTransformRigid(Vector{0.2, -0.1, 0.3}, Vector{1, 2, 3}.Normalize(), 0.7)
	hullUp := hullFrame.Vect(Vector{0, 1, 0})

	cases := []struct {
		name       string
		a, b       ConvexShape
		transA     Transform
		transB     Transform
		wantDepth  float64
		wantNormal Vector
	}{
		{
			name:       "box on box sliding",
			a:          NewBoxShape(Vector{0.5, 0.5, 0.5}),
			b:          NewBoxShape(Vector{0.5, 0.5, 0.5}),
			transA:     NewTransformIdentity(),
			transB:     NewTransformTranslate(Vector{0.3, 0.95, 0.2}),
			wantDepth:  0.05,
			wantNormal: Vector{0, -1, 0},
		},
		{
			name:       "box on yawed box",
			a:          NewBoxShape(Vector{2, 0.5, 2}),
			b:          NewBoxShape(Vector{0.5, 0.5, 0.5}),
			transA:     NewTransformRigid(Vector{}, Vector{0, 1, 0}, 0.3),
			transB:     NewTransformRigid(Vector{0.4, 0.93, -0.2}, Vector{0, 1, 0}, math.Pi/4),
			wantDepth:  0.07,
			wantNormal: Vector{0, -1, 0},
		},
		{
			name:   "tilted capsule on box",
			a:      NewBoxShape(Vector{1, 1, 1}),
			b:      capsule,
			transA: NewTransformRigid(Vector{}, Vector{0, 1, 0}, 0.6),
			// lowest point at 1 - 0.08
			transB:     NewTransformRigid(Vector{0, 1 + 0.5*math.Cos(tilt) + 0.3 - 0.08, 0}, Vector{0, 0, 1}, tilt),
			wantDepth:  0.08,
			wantNormal: Vector{0, -1, 0},
		},
		{
			name:       "sphere on rotated hull",
			a:          hull,
			b:          NewSphereShape(0.5),
			transA:     hullFrame,
			transB:     NewTransformTranslate(hullFrame.Origin.Add(hullUp.Mult(hullHalf + 0.5 - 0.06))),
			wantDepth:  0.06,
			wantNormal: hullUp.Neg(),
		},
		{
			name:       "sphere in sphere",
			a:          NewSphereShape(1),
			b:          NewSphereShape(0.5),
			transA:     NewTransformTranslate(Vector{1, 1, 1}),
			transB:     NewTransformTranslate(Vector{1, 1, 1}.Add(Vector{1, 1, 0}.Normalize().Mult(1.3))),
			wantDepth:  0.2,
			wantNormal: Vector{-1, -1, 0}.Normalize(),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			guess := tc.transB.Origin.Sub(tc.transA.Origin)
			res := GjkEpaPenetration(tc.a, tc.transA, tc.b, tc.transB, guess)
			require.Equal(t, GJKEPA_PENETRATING, res.Status)
			// the rounded parts of the difference are flattened by EPA
			assert.InDelta(t, tc.wantDepth, res.Depth, 0.005)
			assert.True(t, res.Normal.Near(tc.wantNormal, 0.05), "%v", res.Normal)
			assert.LessOrEqual(t, res.EpaIterations, GJKEPA_EPA_MAX_ITERATIONS)

			// the witnesses are depth apart along the normal
			gap := res.Witnesses[0].Sub(res.Witnesses[1])
			assert.InDelta(t, res.Depth, gap.Dot(res.Normal.Neg()), 0.005)
		})
	}
}

func TestGjkPairDetector_Iterations(t *testing.T) {
	a := NewCapsuleShape(0.3, 1)
	b := NewConvexHullShape([]Vector{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	detector := NewGjkPairDetector(a, b, nil, &GjkEpaPenetrationDepthSolver{})

	r := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		trB := NewTransformRigid(Vector{r.Float64(), r.Float64(), r.Float64()}, Vector{r.Float64(), 1, r.Float64()}, r.Float64()*math.Pi)
		var collector PointCollector
		detector.GetClosestPoints(&ClosestPointInput{
			TransformA:             NewTransformIdentity(),
			TransformB:             trB,
			MaximumDistanceSquared: LARGE_FLOAT,
		}, &collector)
		assert.LessOrEqual(t, detector.CurIter, GJK_MAX_ITERATIONS)
		if collector.HasResult {
			assert.True(t, collector.NormalOnBInWorld.IsFinite())
		}
	}
}

func TestVoronoiSimplexSolver_Closest(t *testing.T) {
	s := NewVoronoiSimplexSolver()
	s.AddVertex(Vector{1, 1, -1}, Vector{1, 1, -1}, Vector{})
	s.AddVertex(Vector{1, -1, -1}, Vector{1, -1, -1}, Vector{})

	v, ok := s.Closest()
	require.True(t, ok)
	assert.True(t, v.Near(Vector{1, 0, -1}, 1e-12), "%v", v)

	s.AddVertex(Vector{1, 0, 2}, Vector{1, 0, 2}, Vector{})
	v, ok = s.Closest()
	require.True(t, ok)
	assert.True(t, v.Near(Vector{1, 0, 0}, 1e-12), "%v", v)
	assert.Equal(t, 3, s.NumVertices())

	p, q := s.ComputePoints()
	assert.True(t, p.Near(Vector{1, 0, 0}, 1e-12), "%v", p)
	assert.Equal(t, Vector{}, q)
	assert.True(t, s.InSimplex(Vector{1, 0, 2}))

	s.Reset()
	assert.True(t, s.EmptySimplex())
}
