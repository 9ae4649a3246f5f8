package bullet

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Matrix3 is a 3x3 rotation or inertia matrix. Storage is column major like mgl64.
type Matrix3 mgl64.Mat3

func NewMatrix3Identity() Matrix3 {
	return Matrix3(mgl64.Ident3())
}

func NewMatrix3Rows(r0, r1, r2 Vector) Matrix3 {
	return Matrix3{
		r0[0], r1[0], r2[0],
		r0[1], r1[1], r2[1],
		r0[2], r1[2], r2[2],
	}
}

func NewMatrix3Diagonal(v Vector) Matrix3 {
	return Matrix3{
		v[0], 0, 0,
		0, v[1], 0,
		0, 0, v[2],
	}
}

// NewMatrix3Euler builds Rz * Ry * Rx from angles around x, y and z.
func NewMatrix3Euler(x, y, z float64) Matrix3 {
	cx, sx := math.Cos(x), math.Sin(x)
	cy, sy := math.Cos(y), math.Sin(y)
	cz, sz := math.Cos(z), math.Sin(z)
	return NewMatrix3Rows(
		Vector{cy * cz, sx*sy*cz - cx*sz, cx*sy*cz + sx*sz},
		Vector{cy * sz, sx*sy*sz + cx*cz, cx*sy*sz - sx*cz},
		Vector{-sy, sx * cy, cx * cy},
	)
}

func (m Matrix3) mat() mgl64.Mat3 {
	return mgl64.Mat3(m)
}

func (m Matrix3) At(row, col int) float64 {
	return m[col*3+row]
}

func (m Matrix3) Row(i int) Vector {
	return Vector(m.mat().Row(i))
}

func (m Matrix3) Col(i int) Vector {
	return Vector(m.mat().Col(i))
}

func (m Matrix3) MulVec(v Vector) Vector {
	return Vector(m.mat().Mul3x1(v.vec()))
}

// TransposeMulVec returns transpose(m) * v.
func (m Matrix3) TransposeMulVec(v Vector) Vector {
	return Vector{m.Col(0).Dot(v), m.Col(1).Dot(v), m.Col(2).Dot(v)}
}

func (m Matrix3) Mult(other Matrix3) Matrix3 {
	return Matrix3(m.mat().Mul3(other.mat()))
}

// Scaled returns m * diag(s).
func (m Matrix3) Scaled(s Vector) Matrix3 {
	return m.Mult(NewMatrix3Diagonal(s))
}

func (m Matrix3) Transpose() Matrix3 {
	return Matrix3(m.mat().Transpose())
}

// Inverse returns the zero matrix for singular input.
func (m Matrix3) Inverse() Matrix3 {
	return Matrix3(m.mat().Inv())
}

func (m Matrix3) Det() float64 {
	return m.mat().Det()
}

func (m Matrix3) Abs() Matrix3 {
	var r Matrix3
	for i, f := range m {
		r[i] = math.Abs(f)
	}
	return r
}

func (m Matrix3) IsFinite() bool {
	for _, f := range m {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Rotation extracts the unit quaternion of an orthonormal basis.
func (m Matrix3) Rotation() Quaternion {
	trace := m.At(0, 0) + m.At(1, 1) + m.At(2, 2)
	var q [4]float64 // x, y, z, w

	if trace > 0 {
		s := math.Sqrt(trace + 1.0)
		q[3] = s * 0.5
		s = 0.5 / s
		q[0] = (m.At(2, 1) - m.At(1, 2)) * s
		q[1] = (m.At(0, 2) - m.At(2, 0)) * s
		q[2] = (m.At(1, 0) - m.At(0, 1)) * s
	} else {
		var i int
		if m.At(0, 0) < m.At(1, 1) {
			if m.At(1, 1) < m.At(2, 2) {
				i = 2
			} else {
				i = 1
			}
		} else if m.At(0, 0) < m.At(2, 2) {
			i = 2
		}
		j := (i + 1) % 3
		k := (i + 2) % 3

		s := math.Sqrt(m.At(i, i) - m.At(j, j) - m.At(k, k) + 1.0)
		q[i] = s * 0.5
		s = 0.5 / s
		q[3] = (m.At(k, j) - m.At(j, k)) * s
		q[j] = (m.At(j, i) + m.At(i, j)) * s
		q[k] = (m.At(k, i) + m.At(i, k)) * s
	}
	return Quaternion{W: q[3], V: mgl64.Vec3{q[0], q[1], q[2]}}.Normalize()
}

// EulerXYZ decomposes m = Rx * Ry * Rz style rotations into angles. The second
// result is false at gimbal lock.
func (m Matrix3) EulerXYZ() (Vector, bool) {
	fi := m.At(0, 2)
	if fi < 1 {
		if fi > -1 {
			return Vector{
				math.Atan2(-m.At(1, 2), m.At(2, 2)),
				math.Asin(m.At(0, 2)),
				math.Atan2(-m.At(0, 1), m.At(0, 0)),
			}, true
		}
		return Vector{-math.Atan2(m.At(1, 0), m.At(1, 1)), -SIMD_HALF_PI, 0}, false
	}
	return Vector{math.Atan2(m.At(1, 0), m.At(1, 1)), SIMD_HALF_PI, 0}, false
}

// Quaternion is a rotation backed by mgl64.Quat.
type Quaternion mgl64.Quat

func QuaternionIdentity() Quaternion {
	return Quaternion(mgl64.QuatIdent())
}

// QuaternionAxisAngle rotates angle radians around a unit axis.
func QuaternionAxisAngle(axis Vector, angle float64) Quaternion {
	return Quaternion(mgl64.QuatRotate(angle, axis.vec()))
}

// QuaternionShortestArc rotates v0 onto v1, both unit length.
func QuaternionShortestArc(v0, v1 Vector) Quaternion {
	c := v0.Cross(v1)
	d := v0.Dot(v1)
	if d < -1.0+SIMD_EPSILON {
		n, _ := PlaneSpace(v0)
		return Quaternion{W: 0, V: mgl64.Vec3(n)}
	}
	s := math.Sqrt((1.0 + d) * 2.0)
	rs := 1.0 / s
	return Quaternion{W: s * 0.5, V: mgl64.Vec3(c.Mult(rs))}
}

func (q Quaternion) quat() mgl64.Quat {
	return mgl64.Quat(q)
}

func (q Quaternion) Mult(other Quaternion) Quaternion {
	return Quaternion(q.quat().Mul(other.quat()))
}

func (q Quaternion) Normalize() Quaternion {
	return Quaternion(q.quat().Normalize())
}

func (q Quaternion) Conjugate() Quaternion {
	return Quaternion(q.quat().Conjugate())
}

func (q Quaternion) Rotate(v Vector) Vector {
	return Vector(q.quat().Rotate(v.vec()))
}

func (q Quaternion) Dot(other Quaternion) float64 {
	return q.quat().Dot(other.quat())
}

func (q Quaternion) Matrix() Matrix3 {
	return Matrix3(q.quat().Mat4().Mat3())
}

// Angle returns the rotation angle in [0, 2pi].
func (q Quaternion) Angle() float64 {
	return 2.0 * math.Acos(Clamp(q.W, -1, 1))
}

// Axis returns the rotation axis, x for the identity.
func (q Quaternion) Axis() Vector {
	s2 := 1.0 - q.W*q.W
	if s2 < 10*SIMD_EPSILON {
		return Vector{1, 0, 0}
	}
	return Vector(q.V).Mult(1.0 / math.Sqrt(s2))
}

// Slerp interpolates along the shortest arc.
func (q Quaternion) Slerp(other Quaternion, t float64) Quaternion {
	if q.Dot(other) < 0 {
		other = Quaternion{W: -other.W, V: other.V.Mul(-1)}
	}
	return Quaternion(mgl64.QuatSlerp(q.quat(), other.quat(), t))
}
