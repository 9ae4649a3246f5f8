package bullet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector_Normalize(t *testing.T) {
	assert.Equal(t, Vector{}, Vector{}.Normalize())
	assert.Equal(t, Vector{1, 0, 0}, Vector{}.SafeNormalize())

	v := Vector{3, 0, 4}.Normalize()
	assert.InDelta(t, 1.0, v.Length(), 1e-12)
	assert.InDelta(t, 0.6, v.X(), 1e-12)
}

func TestVector_Axes(t *testing.T) {
	v := Vector{-3, 5, 1}
	assert.Equal(t, 1, v.MaxAxis())
	assert.Equal(t, 0, v.MinAxis())
	assert.Equal(t, Vector{3, 5, 1}, v.Abs())
	assert.False(t, Vector{math.NaN(), 0, 0}.IsFinite())
	assert.False(t, Vector{0, math.Inf(1), 0}.IsFinite())
	assert.True(t, v.IsFinite())
}

func TestPlaneSpace(t *testing.T) {
	for _, n := range []Vector{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, Vector{1, 2, 3}.Normalize(), Vector{-0.2, 0.1, -0.9}.Normalize()} {
		p, q := PlaneSpace(n)
		assert.InDelta(t, 0, p.Dot(n), 1e-12, "%v", n)
		assert.InDelta(t, 0, q.Dot(n), 1e-12, "%v", n)
		assert.InDelta(t, 0, p.Dot(q), 1e-12, "%v", n)
		assert.InDelta(t, 1, p.Length(), 1e-12, "%v", n)
		assert.InDelta(t, 1, q.Length(), 1e-12, "%v", n)
	}
}

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, 0, NormalizeAngle(SIMD_2_PI), 1e-12)
	assert.InDelta(t, -SIMD_HALF_PI, NormalizeAngle(3*SIMD_HALF_PI), 1e-12)
	assert.InDelta(t, SIMD_HALF_PI, NormalizeAngle(-3*SIMD_HALF_PI), 1e-12)
	assert.InDelta(t, 0.5, NormalizeAngle(0.5), 1e-12)
}

func TestTransform_Inverse(t *testing.T) {
	tr := NewTransformRigid(Vector{1, 2, 3}, Vector{1, 1, 0}, 0.7)
	p := Vector{-4, 0.5, 2}

	require.True(t, tr.InvPoint(tr.Point(p)).Near(p, 1e-9))
	require.True(t, tr.Inverse().Point(tr.Point(p)).Near(p, 1e-9))

	other := NewTransformRigid(Vector{0, -1, 5}, Vector{0, 0, 1}, -1.2)
	rel := tr.InverseTimes(other)
	assert.True(t, tr.Mult(rel).Point(p).Near(other.Point(p), 1e-9))
}

func TestIntegrateTransform(t *testing.T) {
	start := NewTransformTranslate(Vector{0, 1, 0})
	lin := Vector{1, 0, -2}
	ang := Vector{0, 0.5, 0}
	dt := 1.0 / 60.0

	next := IntegrateTransform(start, lin, ang, dt)
	assert.True(t, next.Origin.Near(Vector{dt, 1, -2 * dt}, 1e-12))

	gotLin, gotAng := CalculateVelocity(start, next, dt)
	assert.True(t, gotLin.Near(lin, 1e-9), "%v", gotLin)
	assert.True(t, gotAng.Near(ang, 1e-4), "%v", gotAng)
}

func TestIntegrateTransform_ClampsAngularMotion(t *testing.T) {
	dt := 1.0 / 60.0
	next := IntegrateTransform(NewTransformIdentity(), Vector{}, Vector{1000, 0, 0}, dt)
	_, angle := calculateDiffAxisAngle(NewTransformIdentity(), next)
	assert.InDelta(t, ANGULAR_MOTION_THRESHOLD, math.Abs(angle), 1e-4)

	// the clamp keeps the axis and only limits the angle
	for _, w := range []Vector{{0, -500, 0}, {300, 0, 400}, {-20, 70, 200}} {
		next = IntegrateTransform(NewTransformIdentity(), Vector{}, w, dt)
		axis, angle := calculateDiffAxisAngle(NewTransformIdentity(), next)
		assert.InDelta(t, ANGULAR_MOTION_THRESHOLD, math.Abs(angle), 1e-4, "%v", w)
		assert.InDelta(t, 1, math.Abs(axis.Dot(w.Normalize())), 1e-6, "%v", w)
	}

	// below the threshold the full rotation is applied
	next = IntegrateTransform(NewTransformIdentity(), Vector{}, Vector{0, 0, 30}, dt)
	_, angle = calculateDiffAxisAngle(NewTransformIdentity(), next)
	assert.InDelta(t, 0.5, math.Abs(angle), 1e-6)
}

func TestMatrix3_EulerXYZ(t *testing.T) {
	rx := QuaternionAxisAngle(Vector{1, 0, 0}, 0.3).Matrix()
	ry := QuaternionAxisAngle(Vector{0, 1, 0}, -0.2).Matrix()
	rz := QuaternionAxisAngle(Vector{0, 0, 1}, 0.9).Matrix()

	euler, ok := rx.Mult(ry).Mult(rz).EulerXYZ()
	require.True(t, ok)
	assert.True(t, euler.Near(Vector{0.3, -0.2, 0.9}, 1e-9), "%v", euler)
}

func TestBB_Merge(t *testing.T) {
	a := NewBB(Vector{0, 0, 0}, Vector{1, 1, 1})
	b := NewBB(Vector{2, -1, 0}, Vector{3, 0.5, 1})
	m := a.Merge(b)
	assert.Equal(t, Vector{0, -1, 0}, m.Min)
	assert.Equal(t, Vector{3, 1, 1}, m.Max)
	assert.False(t, a.Intersects(b))
	assert.True(t, a.Grow(1).Intersects(b))
	assert.True(t, m.Contains(a))
}
